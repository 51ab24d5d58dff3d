package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/raine/telegram-product-scanner/internal/camera"
	"github.com/rs/zerolog/log"
)

// ErrSuperseded is returned by Analyze when the image was retaken or the
// session closed while the analysis was running, and by Capture when the
// camera was released or replaced while a frame was being read. The result is
// discarded.
var ErrSuperseded = errors.New("analysis superseded")

// Analyzer runs the analysis for a captured image.
type Analyzer interface {
	Run(ctx context.Context, img CapturedImage) ScanResult
}

// Session is a scanner session: it owns the camera stream while idle, holds
// at most one captured image and the analysis for exactly that image.
//
// State machine:
//
//	Closed --Open--> Idle --Capture--> Captured --Analyze--> Loading --> Displaying
//	Captured/Loading/Displaying --Retake--> Idle
//	any --Close--> Closed
//
// All methods are safe for concurrent use. Analyze releases the lock while
// the pipeline runs; a second Analyze during that time fails fast with
// ErrAnalysisInFlight.
type Session struct {
	device   camera.Device
	analyzer Analyzer
	maxSide  int

	mu         sync.Mutex
	state      State
	stream     camera.Stream
	image      CapturedImage
	result     ScanResult
	activeTab  Tab
	generation uint64
	cancelRun  context.CancelFunc
}

// NewSession creates a closed session. maxSide caps the longest side of
// captured stills; zero keeps the original size.
func NewSession(device camera.Device, analyzer Analyzer, maxSide int) *Session {
	return &Session{
		device:    device,
		analyzer:  analyzer,
		maxSide:   maxSide,
		state:     StateClosed,
		activeTab: TabPros,
	}
}

// Open acquires the camera and moves the session to Idle.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateClosed {
		return transitionError("open", s.state)
	}
	stream, err := s.device.Open(ctx)
	if err != nil {
		return &DeviceError{Op: "open", Err: err}
	}
	s.stream = stream
	s.state = StateIdle
	s.activeTab = TabPros
	log.Debug().Msg("scanner opened")
	return nil
}

// Capture reads the current frame and holds it as the working image. The
// camera stream is released before Capture returns. The lock is not held
// while the frame is read.
func (s *Session) Capture(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.state == StateClosed:
		s.mu.Unlock()
		return ErrSessionClosed
	case s.state != StateIdle:
		err := transitionError("capture", s.state)
		s.mu.Unlock()
		return err
	case s.stream == nil:
		s.mu.Unlock()
		return &DeviceError{Op: "capture", Err: ErrCameraUnavailable}
	}
	stream, gen := s.stream, s.generation
	s.mu.Unlock()

	// Reading a frame can block on the device; State and Close stay
	// responsive meanwhile.
	frame, err := stream.Frame(ctx)
	var still camera.Frame
	if err == nil {
		still, err = camera.Normalize(frame, s.maxSide)
		if err != nil {
			err = fmt.Errorf("failed to prepare captured image: %w", err)
		}
	} else {
		err = &DeviceError{Op: "capture", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.state == StateClosed:
		return ErrSessionClosed
	case s.state != StateIdle || s.stream != stream || s.generation != gen:
		return ErrSuperseded
	case err != nil:
		return err
	}

	s.stopStream()
	s.image = CapturedImage{DataURI: camera.DataURI(still)}
	s.result = ScanResult{}
	s.generation++
	s.state = StateCaptured
	log.Debug().Int("bytes", len(still.Data)).Msg("image captured")
	return nil
}

// Retake discards the captured image and any analysis for it, abandons an
// in-flight analysis and re-acquires the camera. If the camera cannot be
// re-acquired the session stays Idle without a stream and the DeviceError is
// returned.
func (s *Session) Retake(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateClosed:
		return ErrSessionClosed
	case StateIdle:
		return transitionError("retake", s.state)
	}

	s.clear()
	s.state = StateIdle

	stream, err := s.device.Open(ctx)
	if err != nil {
		return &DeviceError{Op: "open", Err: err}
	}
	s.stream = stream
	log.Debug().Msg("scanner retake")
	return nil
}

// Analyze runs the analyzer for the captured image and stores the result.
// The returned ScanResult may describe a failed run; the error is only set
// for precondition failures and ErrSuperseded.
func (s *Session) Analyze(ctx context.Context) (ScanResult, error) {
	s.mu.Lock()
	switch {
	case s.state == StateClosed:
		s.mu.Unlock()
		return ScanResult{}, ErrSessionClosed
	case s.state == StateLoading:
		s.mu.Unlock()
		return ScanResult{}, ErrAnalysisInFlight
	case s.image.IsZero():
		s.mu.Unlock()
		return ScanResult{}, ErrNoImage
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRun = cancel
	s.state = StateLoading
	gen := s.generation
	img := s.image
	s.mu.Unlock()

	res := s.analyzer.Run(runCtx, img)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen || s.state != StateLoading {
		log.Debug().Msg("discarding analysis for superseded image")
		return res, ErrSuperseded
	}
	s.cancelRun = nil
	s.result = res
	s.activeTab = TabPros
	s.state = StateDisplaying
	return res, nil
}

// SelectTab switches the displayed tab. It never refetches anything.
func (s *Session) SelectTab(t Tab) error {
	if _, err := ParseTab(string(t)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateDisplaying {
		return transitionError("select tab", s.state)
	}
	s.activeTab = t
	return nil
}

// Close releases the camera, abandons in-flight work and clears all data.
// Closing a closed session is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return
	}
	s.clear()
	s.state = StateClosed
	log.Debug().Msg("scanner closed")
}

// State returns a snapshot of the session.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SessionState{
		State:       s.state,
		Image:       s.image,
		Recognition: s.result.Recognition,
		Analysis:    s.result.Analysis,
		Err:         s.result.Err,
		Loading:     s.state == StateLoading,
		ActiveTab:   s.activeTab,
	}
}

// clear drops everything tied to the current image. Caller holds mu.
func (s *Session) clear() {
	if s.cancelRun != nil {
		s.cancelRun()
		s.cancelRun = nil
	}
	s.stopStream()
	s.image = CapturedImage{}
	s.result = ScanResult{}
	s.activeTab = TabPros
	s.generation++
}

// stopStream releases the camera. Caller holds mu.
func (s *Session) stopStream() {
	if s.stream == nil {
		return
	}
	if err := s.stream.Stop(); err != nil {
		log.Warn().Err(err).Msg("failed to stop camera stream")
	}
	s.stream = nil
}
