package bridge

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
)

// Session is a liveness token for one presentation context. Work submitted
// under a session delivers its outcome only while the session is live;
// closing it cancels everything still in flight.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
}

// NewSession returns a live session.
func NewSession() *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:     uuid.NewString(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// ID uniquely identifies the session.
func (s *Session) ID() string { return s.id }

// Live reports whether results may still be delivered.
func (s *Session) Live() bool { return !s.closed.Load() }

// Context is cancelled when the session closes.
func (s *Session) Context() context.Context { return s.ctx }

// Close invalidates the session. It is safe to call more than once.
func (s *Session) Close() {
	if s.closed.CompareAndSwap(false, true) {
		s.cancel()
	}
}
