package camera

import (
	"context"
	"sync"
)

// Feed is a push-based device for chat surfaces, where the user's own
// camera produces the photo. Frames pushed while no stream is open are
// rejected, which keeps a captured still from being replaced behind the
// session's back.
type Feed struct {
	mu     sync.Mutex
	active *feedStream
}

// NewFeed creates a feed with no open stream.
func NewFeed() *Feed {
	return &Feed{}
}

// Open starts accepting frames. Only one stream can be open at a time.
func (f *Feed) Open(ctx context.Context) (Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.active != nil {
		f.active.stopped = true
	}
	f.active = &feedStream{feed: f}
	return f.active, nil
}

// Push offers a frame to the open stream. It returns ErrStopped when no
// stream is open.
func (f *Feed) Push(frame Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.active == nil || f.active.stopped {
		return ErrStopped
	}
	f.active.latest = &frame
	return nil
}

// Accepting reports whether a stream is open.
func (f *Feed) Accepting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active != nil && !f.active.stopped
}

type feedStream struct {
	feed    *Feed
	latest  *Frame
	stopped bool
}

func (s *feedStream) Frame(ctx context.Context) (Frame, error) {
	s.feed.mu.Lock()
	defer s.feed.mu.Unlock()

	if s.stopped {
		return Frame{}, ErrStopped
	}
	if s.latest == nil {
		return Frame{}, ErrNoFrame
	}
	frame := *s.latest
	s.latest = nil
	return frame, nil
}

func (s *feedStream) Stop() error {
	s.feed.mu.Lock()
	defer s.feed.mu.Unlock()

	s.stopped = true
	s.latest = nil
	if s.feed.active == s {
		s.feed.active = nil
	}
	return nil
}
