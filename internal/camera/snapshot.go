package camera

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultSnapshotTimeout bounds a single snapshot request.
	DefaultSnapshotTimeout = 30 * time.Second
	// DefaultMaxImageSize is the largest still accepted (10MB).
	DefaultMaxImageSize = 10 * 1024 * 1024
)

// SnapshotDevice reads stills from a network camera's snapshot endpoint,
// e.g. http://camera.local/snapshot.jpg.
type SnapshotDevice struct {
	url     string
	client  *resty.Client
	maxSize int
}

// NewSnapshotDevice creates a device for the snapshot URL.
func NewSnapshotDevice(url string) *SnapshotDevice {
	return &SnapshotDevice{
		url:     url,
		client:  resty.New().SetTimeout(DefaultSnapshotTimeout),
		maxSize: DefaultMaxImageSize,
	}
}

// WithMaxSize sets a custom maximum image size.
func (d *SnapshotDevice) WithMaxSize(maxSize int) *SnapshotDevice {
	d.maxSize = maxSize
	return d
}

// Open probes the endpoint once so an unreachable camera is reported before
// the user tries to capture.
func (d *SnapshotDevice) Open(ctx context.Context) (Stream, error) {
	res, err := d.client.R().SetContext(ctx).Head(d.url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	// Some cameras do not implement HEAD; anything but a server error is
	// good enough to proceed.
	if res.StatusCode() >= 500 {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, res.StatusCode())
	}
	return &snapshotStream{device: d}, nil
}

func (d *SnapshotDevice) fetch(ctx context.Context) (Frame, error) {
	res, err := d.client.R().SetContext(ctx).SetDoNotParseResponse(true).Get(d.url)
	if err != nil {
		return Frame{}, fmt.Errorf("failed to fetch snapshot: %w", err)
	}
	raw := res.RawBody()
	defer raw.Close()

	if res.IsError() {
		return Frame{}, fmt.Errorf("snapshot failed: status %d", res.StatusCode())
	}

	contentType := res.Header().Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return Frame{}, fmt.Errorf("invalid content type: expected image/*, got %s", contentType)
	}

	if res.RawResponse.ContentLength > int64(d.maxSize) {
		return Frame{}, fmt.Errorf("image too large: %d bytes exceeds limit of %d bytes", res.RawResponse.ContentLength, d.maxSize)
	}
	body, err := io.ReadAll(io.LimitReader(raw, int64(d.maxSize)+1))
	if err != nil {
		return Frame{}, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if len(body) > d.maxSize {
		return Frame{}, fmt.Errorf("image too large: exceeds limit of %d bytes", d.maxSize)
	}
	return Frame{Data: body, MIMEType: contentType}, nil
}

type snapshotStream struct {
	device  *SnapshotDevice
	stopped bool
}

func (s *snapshotStream) Frame(ctx context.Context) (Frame, error) {
	if s.stopped {
		return Frame{}, ErrStopped
	}
	return s.device.fetch(ctx)
}

func (s *snapshotStream) Stop() error {
	s.stopped = true
	return nil
}
