package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/voxprep/voxprep/internal/call"
	"github.com/voxprep/voxprep/internal/transcript"
)

// CallSessions manages live call controllers keyed by an opaque ID. It is
// implemented by the app session manager.
type CallSessions interface {
	// Open creates a controller with a fresh transport session and starts
	// the call. It returns the session ID.
	Open(ctx context.Context, params call.Params) (string, error)

	// Get returns the controller for id, or false if none exists.
	Get(id string) (*call.Controller, bool)

	// Close stops the call if still running and removes the session.
	Close(id string) error
}

// createCallRequest is the body of POST /api/calls.
type createCallRequest struct {
	Purpose     string   `json:"purpose"`
	Username    string   `json:"user_name"`
	UserID      string   `json:"user_id"`
	InterviewID string   `json:"interview_id"`
	Questions   []string `json:"questions"`
}

// callStateResponse describes a call session to the polling client.
type callStateResponse struct {
	CallID   string               `json:"call_id,omitempty"`
	Status   call.Status          `json:"status"`
	Speaking bool                 `json:"speaking"`
	Messages []transcript.Message `json:"messages"`
	Redirect string               `json:"redirect,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// errorResponse is the error shape of the call endpoints.
type errorResponse struct {
	Error string `json:"error"`
}

// CreateCall opens a new call session and starts the call.
func (h *Handler) CreateCall(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "voice calls are not configured"})
		return
	}

	var req createCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	// The request context bounds only session setup; the call keeps running
	// after this handler returns and ends through Stop or the vendor.
	id, err := h.sessions.Open(r.Context(), call.Params{
		Purpose:     call.Purpose(req.Purpose),
		Username:    req.Username,
		UserID:      req.UserID,
		InterviewID: req.InterviewID,
		Questions:   req.Questions,
	})
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	ctrl, _ := h.sessions.Get(id)
	resp := callStateResponse{CallID: id, Status: call.StatusConnecting, Messages: []transcript.Message{}}
	if ctrl != nil {
		resp.Status = ctrl.Status()
	}
	h.writeJSON(w, http.StatusCreated, resp)
}

// GetCall reports the current state of a call session. Clients poll this
// endpoint to drive the in-call UI and to pick up the post-call redirect.
func (h *Handler) GetCall(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookupCall(w, r)
	if !ok {
		return
	}

	resp := callStateResponse{
		CallID:   r.PathValue("id"),
		Status:   ctrl.Status(),
		Speaking: ctrl.Speaking(),
		Messages: ctrl.Transcript(),
	}
	if resp.Messages == nil {
		resp.Messages = []transcript.Message{}
	}
	if resp.Status == call.StatusFinished {
		res := ctrl.Result()
		resp.Redirect = res.Redirect
		if res.Err != nil {
			resp.Error = res.Err.Error()
		}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// StopCall requests the end of a running call. The controller finishes
// asynchronously once the transport confirms or the grace period elapses.
func (h *Handler) StopCall(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.lookupCall(w, r)
	if !ok {
		return
	}

	if err := ctrl.Stop(); err != nil {
		h.logger.Warn("call stop error", "call_id", r.PathValue("id"), "err", err)
	}
	h.writeJSON(w, http.StatusAccepted, callStateResponse{
		CallID:   r.PathValue("id"),
		Status:   ctrl.Status(),
		Messages: []transcript.Message{},
	})
}

// DeleteCall tears down a call session, stopping the call if it is still
// running. Clients call this when the user navigates away.
func (h *Handler) DeleteCall(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "voice calls are not configured"})
		return
	}

	id := r.PathValue("id")
	if err := h.sessions.Close(id); err != nil {
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// lookupCall resolves the {id} path segment to a controller, writing the
// appropriate error response when the session manager is missing or the
// session does not exist.
func (h *Handler) lookupCall(w http.ResponseWriter, r *http.Request) (*call.Controller, bool) {
	if h.sessions == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "voice calls are not configured"})
		return nil, false
	}
	ctrl, ok := h.sessions.Get(r.PathValue("id"))
	if !ok {
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: "call session not found"})
		return nil, false
	}
	return ctrl, true
}
