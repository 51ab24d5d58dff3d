// Package camera provides still-image sources for the scanner and the
// normalization applied to every captured frame.
//
// A Device is acquired with Open, which returns a live Stream. The stream is
// the camera resource: whoever holds it must call Stop once a still has been
// taken.
package camera

import (
	"context"
	"encoding/base64"
	"errors"
)

var (
	// ErrUnavailable is wrapped by Open when no device can be acquired.
	ErrUnavailable = errors.New("camera device unavailable")
	// ErrNoFrame is returned by Frame when the stream has nothing to offer yet.
	ErrNoFrame = errors.New("no frame available")
	// ErrStopped is returned when reading from a stopped stream.
	ErrStopped = errors.New("camera stream stopped")
)

// Frame is an encoded still image.
type Frame struct {
	Data     []byte
	MIMEType string
}

// Device is a camera that can be acquired.
type Device interface {
	Open(ctx context.Context) (Stream, error)
}

// Stream is an acquired camera.
type Stream interface {
	// Frame returns the current frame.
	Frame(ctx context.Context) (Frame, error)
	// Stop releases the device. Stop is idempotent.
	Stop() error
}

// DataURI encodes the frame as a base64 data URI.
func DataURI(f Frame) string {
	mimeType := f.MIMEType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
}
