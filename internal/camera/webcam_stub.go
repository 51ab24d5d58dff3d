//go:build !gocv

package camera

import (
	"context"
	"fmt"
)

// Webcam is a local video device. This build has no OpenCV support; build
// with -tags gocv to enable it.
type Webcam struct {
	DeviceID int
	Width    int
}

// Open always fails in builds without OpenCV.
func (w Webcam) Open(ctx context.Context) (Stream, error) {
	return nil, fmt.Errorf("%w: built without webcam support (use -tags gocv)", ErrUnavailable)
}
