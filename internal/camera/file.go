package camera

import (
	"context"
	"fmt"
	"net/http"
	"os"
)

// FileDevice serves a single image file as its only frame.
type FileDevice struct {
	Path string
}

// Open checks that the file is readable.
func (d FileDevice) Open(ctx context.Context) (Stream, error) {
	info, err := os.Stat(d.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrUnavailable, d.Path)
	}
	return &fileStream{path: d.Path}, nil
}

type fileStream struct {
	path    string
	stopped bool
}

func (s *fileStream) Frame(ctx context.Context) (Frame, error) {
	if s.stopped {
		return Frame{}, ErrStopped
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Frame{}, fmt.Errorf("failed to read image: %w", err)
	}
	return Frame{Data: data, MIMEType: http.DetectContentType(data)}, nil
}

func (s *fileStream) Stop() error {
	s.stopped = true
	return nil
}
