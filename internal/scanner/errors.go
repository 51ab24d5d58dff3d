package scanner

import (
	"errors"
	"fmt"
)

var (
	// ErrCameraUnavailable is returned by Capture when no camera stream is held.
	ErrCameraUnavailable = errors.New("camera unavailable")
	// ErrAnalysisInFlight is returned by Analyze while a previous run is loading.
	ErrAnalysisInFlight = errors.New("analysis already in progress")
	// ErrNoImage is returned by Analyze when nothing has been captured.
	ErrNoImage = errors.New("no captured image")
	// ErrSessionClosed is returned by operations on a closed session.
	ErrSessionClosed = errors.New("scanner session closed")
	// ErrInvalidTransition is returned when an operation is not allowed in the
	// current state.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrUnknownTab is returned by SelectTab and ParseTab for unknown tab names.
	ErrUnknownTab = errors.New("unknown tab")
)

// DeviceError means the camera could not be acquired or read. It is
// surfaced to the user and never retried.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("camera %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// RecognitionError wraps a failed OCR call.
type RecognitionError struct {
	Err error
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("recognition failed: %v", e.Err)
}

func (e *RecognitionError) Unwrap() error { return e.Err }

// InterpretationError wraps a failed generative-text call.
type InterpretationError struct {
	Err error
}

func (e *InterpretationError) Error() string {
	return fmt.Sprintf("interpretation failed: %v", e.Err)
}

func (e *InterpretationError) Unwrap() error { return e.Err }

func transitionError(op string, from State) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, op, from)
}
