// Package mock provides a scriptable test double for the voice.Session
// interface.
//
// Tests emit events through [Session.Emit] and close the stream with
// [Session.End], simulating any vendor behaviour including sessions that
// never send call-end.
package mock

import (
	"context"
	"sync"

	"github.com/voxprep/voxprep/pkg/voice"
)

// Session is a mock implementation of voice.Session.
type Session struct {
	mu      sync.Mutex
	events  chan voice.Event
	started bool
	ended   bool

	// StartErr, if non-nil, is returned from Start.
	StartErr error

	// StopErr, if non-nil, is returned from Stop.
	StopErr error

	// StartCalls records the CallConfig of every Start invocation.
	StartCalls []voice.CallConfig

	// StopCalls counts Stop invocations.
	StopCalls int
}

// Compile-time interface check.
var _ voice.Session = (*Session)(nil)

// New creates a mock session with a buffered event stream.
func New() *Session {
	return &Session{events: make(chan voice.Event, 64)}
}

// Start implements voice.Session.
func (s *Session) Start(_ context.Context, cfg voice.CallConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.StartCalls = append(s.StartCalls, cfg)
	if s.StartErr != nil {
		return s.StartErr
	}
	s.started = true
	return nil
}

// Stop implements voice.Session. It records the call but does not emit
// call-end or close the stream; tests decide whether the vendor responds.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.StopCalls++
	return s.StopErr
}

// Events implements voice.Session.
func (s *Session) Events() <-chan voice.Event {
	return s.events
}

// Emit delivers an event to the session's consumer. Emitting after End panics,
// matching a vendor that must not send events on a closed control channel.
func (s *Session) Emit(ev voice.Event) {
	s.events <- ev
}

// End closes the event stream, releasing the consumer. Safe to call once.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ended {
		s.ended = true
		close(s.events)
	}
}

// Started reports whether Start succeeded at least once.
func (s *Session) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}
