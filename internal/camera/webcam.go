//go:build gocv

package camera

import (
	"context"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Webcam is a local video device read through OpenCV.
type Webcam struct {
	DeviceID int
	// Width requests a capture width; zero keeps the device default.
	Width int
}

// Open acquires the video device.
func (w Webcam) Open(ctx context.Context) (Stream, error) {
	vc, err := gocv.OpenVideoCapture(w.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: device %d not opened", ErrUnavailable, w.DeviceID)
	}
	if w.Width > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(w.Width))
	}
	return &webcamStream{vc: vc}, nil
}

type webcamStream struct {
	mu sync.Mutex
	vc *gocv.VideoCapture
}

func (s *webcamStream) Frame(ctx context.Context) (Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.vc == nil {
		return Frame{}, ErrStopped
	}
	mat := gocv.NewMat()
	defer mat.Close()

	if ok := s.vc.Read(&mat); !ok || mat.Empty() {
		return Frame{}, ErrNoFrame
	}
	buf, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	if err != nil {
		return Frame{}, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return Frame{Data: data, MIMEType: "image/png"}, nil
}

func (s *webcamStream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.vc == nil {
		return nil
	}
	err := s.vc.Close()
	s.vc = nil
	return err
}
