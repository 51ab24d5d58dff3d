package scanner

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/raine/telegram-product-scanner/internal/camera"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	device  *fakeDevice
	stopped bool
}

func (s *fakeStream) Frame(ctx context.Context) (camera.Frame, error) {
	if s.device.frameGate != nil {
		s.device.frameStarted <- struct{}{}
		<-s.device.frameGate
	}
	s.device.mu.Lock()
	defer s.device.mu.Unlock()
	if s.stopped {
		return camera.Frame{}, camera.ErrStopped
	}
	return s.device.frame, s.device.frameErr
}

func (s *fakeStream) Stop() error {
	s.device.mu.Lock()
	defer s.device.mu.Unlock()
	if !s.stopped {
		s.stopped = true
		s.device.live--
	}
	return nil
}

type fakeDevice struct {
	mu       sync.Mutex
	frame    camera.Frame
	frameErr error
	openErr  error
	opens    int
	live     int

	// frameGate, when set, holds Frame until it is closed.
	frameGate    chan struct{}
	frameStarted chan struct{}
}

func newFakeDevice(t *testing.T) *fakeDevice {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return &fakeDevice{frame: camera.Frame{Data: buf.Bytes(), MIMEType: "image/png"}}
}

func (d *fakeDevice) Open(ctx context.Context) (camera.Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.opens++
	d.live++
	return &fakeStream{device: d}, nil
}

func (d *fakeDevice) liveStreams() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live
}

type stubAnalyzer struct {
	mu      sync.Mutex
	result  ScanResult
	calls   int
	started chan struct{}
	release chan struct{}
}

func (a *stubAnalyzer) Run(ctx context.Context, img CapturedImage) ScanResult {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	if a.started != nil {
		a.started <- struct{}{}
	}
	if a.release != nil {
		select {
		case <-a.release:
		case <-ctx.Done():
		}
	}
	return a.result
}

func okResult() ScanResult {
	return ScanResult{
		Recognition: RecognitionResult{RawText: "Oat Crunch", GuessedName: "Oat Crunch"},
		Analysis:    ParseAnalysis(goodResponse),
	}
}

func openSession(t *testing.T, device *fakeDevice, analyzer Analyzer) *Session {
	t.Helper()
	s := NewSession(device, analyzer, 100)
	require.NoError(t, s.Open(context.Background()))
	return s
}

func TestSession_CaptureReleasesCamera(t *testing.T) {
	device := newFakeDevice(t)
	s := openSession(t, device, &stubAnalyzer{})
	assert.Equal(t, 1, device.liveStreams())

	require.NoError(t, s.Capture(context.Background()))

	st := s.State()
	assert.Equal(t, StateCaptured, st.State)
	assert.True(t, strings.HasPrefix(st.Image.DataURI, "data:image/png;base64,"))
	assert.Equal(t, 0, device.liveStreams(), "camera must be released once a still is held")
}

func TestSession_CaptureRequiresIdle(t *testing.T) {
	device := newFakeDevice(t)
	s := NewSession(device, &stubAnalyzer{}, 0)

	assert.ErrorIs(t, s.Capture(context.Background()), ErrSessionClosed)

	require.NoError(t, s.Open(context.Background()))
	require.NoError(t, s.Capture(context.Background()))
	assert.ErrorIs(t, s.Capture(context.Background()), ErrInvalidTransition)
}

func TestSession_CaptureDoesNotBlockStateOrClose(t *testing.T) {
	device := newFakeDevice(t)
	device.frameGate = make(chan struct{})
	device.frameStarted = make(chan struct{}, 1)
	s := openSession(t, device, &stubAnalyzer{})

	done := make(chan error, 1)
	go func() { done <- s.Capture(context.Background()) }()
	<-device.frameStarted

	stateRead := make(chan State, 1)
	go func() { stateRead <- s.State().State }()
	select {
	case st := <-stateRead:
		assert.Equal(t, StateIdle, st)
	case <-time.After(time.Second):
		t.Fatal("State blocked while a frame was being read")
	}

	s.Close()
	close(device.frameGate)

	assert.ErrorIs(t, <-done, ErrSessionClosed)
	st := s.State()
	assert.Equal(t, StateClosed, st.State)
	assert.Empty(t, st.Image.DataURI)
	assert.Equal(t, 0, device.liveStreams())
}

func TestSession_CaptureSupersededByReopen(t *testing.T) {
	device := newFakeDevice(t)
	device.frameGate = make(chan struct{})
	device.frameStarted = make(chan struct{}, 1)
	s := openSession(t, device, &stubAnalyzer{})

	done := make(chan error, 1)
	go func() { done <- s.Capture(context.Background()) }()
	<-device.frameStarted

	s.Close()
	require.NoError(t, s.Open(context.Background()))
	close(device.frameGate)

	assert.ErrorIs(t, <-done, ErrSuperseded)
	assert.Equal(t, StateIdle, s.State().State)
	assert.Equal(t, 1, device.liveStreams())
}

func TestSession_CaptureFrameError(t *testing.T) {
	device := newFakeDevice(t)
	device.frameErr = camera.ErrNoFrame
	s := openSession(t, device, &stubAnalyzer{})

	err := s.Capture(context.Background())
	var devErr *DeviceError
	require.ErrorAs(t, err, &devErr)
	assert.ErrorIs(t, err, camera.ErrNoFrame)
	assert.Equal(t, StateIdle, s.State().State)
	assert.Equal(t, 1, device.liveStreams())
}

func TestSession_OpenFailure(t *testing.T) {
	device := newFakeDevice(t)
	device.openErr = errors.New("permission denied")
	s := NewSession(device, &stubAnalyzer{}, 0)

	err := s.Open(context.Background())
	var devErr *DeviceError
	require.ErrorAs(t, err, &devErr)
	assert.Equal(t, StateClosed, s.State().State)
}

func TestSession_AnalyzeDisplaysResult(t *testing.T) {
	device := newFakeDevice(t)
	analyzer := &stubAnalyzer{result: okResult()}
	s := openSession(t, device, analyzer)
	require.NoError(t, s.Capture(context.Background()))

	res, err := s.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Low sugar", "High fiber"}, res.Analysis.Pros)

	st := s.State()
	assert.Equal(t, StateDisplaying, st.State)
	assert.False(t, st.Loading)
	assert.Equal(t, TabPros, st.ActiveTab)
	assert.True(t, st.HasResults())
	assert.Equal(t, "Oat Crunch", st.Recognition.GuessedName)
}

func TestSession_AnalyzeWithoutImage(t *testing.T) {
	s := openSession(t, newFakeDevice(t), &stubAnalyzer{})
	_, err := s.Analyze(context.Background())
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestSession_FailedRunStillDisplays(t *testing.T) {
	analyzer := &stubAnalyzer{result: ScanResult{Analysis: FailedAnalysis(), Err: &InterpretationError{Err: errors.New("boom")}}}
	s := openSession(t, newFakeDevice(t), analyzer)
	require.NoError(t, s.Capture(context.Background()))

	res, err := s.Analyze(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Failed())

	st := s.State()
	assert.Equal(t, StateDisplaying, st.State)
	assert.False(t, st.Loading)
	assert.Error(t, st.Err)
	assert.Equal(t, ErrorImpactFallback, st.Analysis.EnvironmentalImpact)
}

func TestSession_AnalyzeInFlightGuard(t *testing.T) {
	analyzer := &stubAnalyzer{
		result:  okResult(),
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	s := openSession(t, newFakeDevice(t), analyzer)
	require.NoError(t, s.Capture(context.Background()))

	done := make(chan error, 1)
	go func() {
		_, err := s.Analyze(context.Background())
		done <- err
	}()
	<-analyzer.started

	assert.True(t, s.State().Loading)
	_, err := s.Analyze(context.Background())
	assert.ErrorIs(t, err, ErrAnalysisInFlight)

	close(analyzer.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, analyzer.calls)
	assert.Equal(t, StateDisplaying, s.State().State)
}

func TestSession_RetakeClearsResults(t *testing.T) {
	device := newFakeDevice(t)
	s := openSession(t, device, &stubAnalyzer{result: okResult()})
	require.NoError(t, s.Capture(context.Background()))
	_, err := s.Analyze(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.SelectTab(TabCons))

	require.NoError(t, s.Retake(context.Background()))

	st := s.State()
	assert.Equal(t, StateIdle, st.State)
	assert.True(t, st.Image.IsZero())
	assert.Empty(t, st.Analysis.Pros)
	assert.Empty(t, st.Analysis.Cons)
	assert.Empty(t, st.Analysis.EnvironmentalImpact)
	assert.Empty(t, st.Recognition.RawText)
	assert.False(t, st.HasResults())
	assert.Equal(t, TabPros, st.ActiveTab)
	assert.Equal(t, 2, device.opens)
	assert.Equal(t, 1, device.liveStreams())
}

func TestSession_RetakeFromIdleRejected(t *testing.T) {
	s := openSession(t, newFakeDevice(t), &stubAnalyzer{})
	assert.ErrorIs(t, s.Retake(context.Background()), ErrInvalidTransition)
}

func TestSession_RetakeReacquireFailure(t *testing.T) {
	device := newFakeDevice(t)
	s := openSession(t, device, &stubAnalyzer{})
	require.NoError(t, s.Capture(context.Background()))

	device.openErr = errors.New("busy")
	err := s.Retake(context.Background())
	var devErr *DeviceError
	require.ErrorAs(t, err, &devErr)
	assert.Equal(t, StateIdle, s.State().State)

	assert.ErrorIs(t, s.Capture(context.Background()), ErrCameraUnavailable)
}

func TestSession_RetakeDuringLoadingDiscardsResult(t *testing.T) {
	analyzer := &stubAnalyzer{
		result:  okResult(),
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	s := openSession(t, newFakeDevice(t), analyzer)
	require.NoError(t, s.Capture(context.Background()))

	done := make(chan error, 1)
	go func() {
		_, err := s.Analyze(context.Background())
		done <- err
	}()
	<-analyzer.started

	require.NoError(t, s.Retake(context.Background()))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(time.Second):
		t.Fatal("analysis was not cancelled by retake")
	}

	st := s.State()
	assert.Equal(t, StateIdle, st.State)
	assert.Empty(t, st.Analysis.Pros)
}

func TestSession_CloseCancelsAndReleases(t *testing.T) {
	device := newFakeDevice(t)
	analyzer := &stubAnalyzer{
		result:  okResult(),
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	s := openSession(t, device, analyzer)
	require.NoError(t, s.Capture(context.Background()))

	done := make(chan error, 1)
	go func() {
		_, err := s.Analyze(context.Background())
		done <- err
	}()
	<-analyzer.started

	s.Close()
	s.Close()

	assert.ErrorIs(t, <-done, ErrSuperseded)
	st := s.State()
	assert.Equal(t, StateClosed, st.State)
	assert.True(t, st.Image.IsZero())
	assert.Equal(t, 0, device.liveStreams())

	_, err := s.Analyze(context.Background())
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSession_CloseWhileIdleStopsStream(t *testing.T) {
	device := newFakeDevice(t)
	s := openSession(t, device, &stubAnalyzer{})
	s.Close()
	assert.Equal(t, 0, device.liveStreams())

	// A closed session can be reopened.
	require.NoError(t, s.Open(context.Background()))
	assert.Equal(t, StateIdle, s.State().State)
}

func TestSession_SelectTab(t *testing.T) {
	s := openSession(t, newFakeDevice(t), &stubAnalyzer{result: okResult()})
	assert.ErrorIs(t, s.SelectTab(TabCons), ErrInvalidTransition)

	require.NoError(t, s.Capture(context.Background()))
	_, err := s.Analyze(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.SelectTab(TabEnvironment))
	assert.Equal(t, TabEnvironment, s.State().ActiveTab)

	assert.ErrorIs(t, s.SelectTab(Tab("nutrition")), ErrUnknownTab)
	assert.Equal(t, TabEnvironment, s.State().ActiveTab)
}
