package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voxprep/voxprep/internal/api"
	"github.com/voxprep/voxprep/internal/call"
)

// ErrSessionNotFound is returned when a call session ID is unknown, usually
// because the client already closed it.
var ErrSessionNotFound = errors.New("app: call session not found")

// ControllerFactory creates a call controller bound to a fresh transport
// session. Called once per opened call.
type ControllerFactory func() (*call.Controller, error)

// SessionInfo holds metadata about an open call session.
type SessionInfo struct {
	// ID is the unique identifier for this session.
	ID string

	// Purpose is the call purpose the session was opened with.
	Purpose call.Purpose

	// UserID is the user the call belongs to.
	UserID string

	// StartedAt is when the session was opened.
	StartedAt time.Time

	// Status is the controller state at the time of the query.
	Status call.Status
}

// SessionManager manages the lifecycle of live call sessions. Each session
// pairs one controller with one transport session under a generated ID;
// clients poll and tear down sessions through the HTTP surface.
// All exported methods are safe for concurrent use.
type SessionManager struct {
	mu       sync.Mutex
	factory  ControllerFactory
	logger   *slog.Logger
	sessions map[string]*managedCall
}

type managedCall struct {
	ctrl      *call.Controller
	purpose   call.Purpose
	userID    string
	startedAt time.Time
}

// Compile-time interface check.
var _ api.CallSessions = (*SessionManager)(nil)

// NewSessionManager creates a SessionManager that opens calls through
// factory. A nil logger falls back to [slog.Default].
func NewSessionManager(factory ControllerFactory, logger *slog.Logger) *SessionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		factory:  factory,
		logger:   logger,
		sessions: make(map[string]*managedCall),
	}
}

// Open creates a controller with a fresh transport session and starts the
// call. The session is registered only after the call started successfully.
// ctx bounds session establishment only; the registered call outlives it and
// ends through Close, CloseAll, or the vendor.
func (sm *SessionManager) Open(ctx context.Context, params call.Params) (string, error) {
	ctrl, err := sm.factory()
	if err != nil {
		return "", fmt.Errorf("app: create call session: %w", err)
	}
	if err := ctrl.Start(ctx, params); err != nil {
		return "", err
	}

	id := uuid.NewString()
	sm.mu.Lock()
	sm.sessions[id] = &managedCall{
		ctrl:      ctrl,
		purpose:   params.Purpose,
		userID:    params.UserID,
		startedAt: time.Now().UTC(),
	}
	sm.mu.Unlock()

	sm.logger.Info("call session opened",
		"call_id", id,
		"purpose", params.Purpose,
		"user_id", params.UserID,
	)
	return id, nil
}

// Get returns the controller for id, or false if none exists.
func (sm *SessionManager) Get(id string) (*call.Controller, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	mc, ok := sm.sessions[id]
	if !ok {
		return nil, false
	}
	return mc.ctrl, true
}

// Close stops the call if it is still running and removes the session.
// Returns [ErrSessionNotFound] for unknown IDs.
func (sm *SessionManager) Close(id string) error {
	sm.mu.Lock()
	mc, ok := sm.sessions[id]
	if ok {
		delete(sm.sessions, id)
	}
	sm.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	sm.stopCall(id, mc)
	sm.logger.Info("call session closed", "call_id", id)
	return nil
}

// CloseAll stops every running call and removes all sessions. Called during
// application shutdown.
func (sm *SessionManager) CloseAll() {
	sm.mu.Lock()
	sessions := sm.sessions
	sm.sessions = make(map[string]*managedCall)
	sm.mu.Unlock()

	for id, mc := range sessions {
		sm.stopCall(id, mc)
	}
	if len(sessions) > 0 {
		sm.logger.Info("closed all call sessions", "count", len(sessions))
	}
}

// List returns metadata for all open sessions, in unspecified order.
func (sm *SessionManager) List() []SessionInfo {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	out := make([]SessionInfo, 0, len(sm.sessions))
	for id, mc := range sm.sessions {
		out = append(out, SessionInfo{
			ID:        id,
			Purpose:   mc.purpose,
			UserID:    mc.userID,
			StartedAt: mc.startedAt,
			Status:    mc.ctrl.Status(),
		})
	}
	return out
}

// Count returns the number of open sessions.
func (sm *SessionManager) Count() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.sessions)
}

// stopCall requests termination of a still-running call. Finished and
// inactive controllers are left alone.
func (sm *SessionManager) stopCall(id string, mc *managedCall) {
	switch mc.ctrl.Status() {
	case call.StatusConnecting, call.StatusActive:
		if err := mc.ctrl.Stop(); err != nil {
			sm.logger.Warn("call stop error", "call_id", id, "err", err)
		}
	}
}
