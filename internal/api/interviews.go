package api

import (
	"net/http"
	"strings"
)

// GetInterview serves a single interview record by ID.
func (h *Handler) GetInterview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	rec, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to load interview", "id", id, "err", err)
		h.writeFailure(w, http.StatusInternalServerError, "Failed to load interview")
		return
	}
	if rec == nil {
		h.writeFailure(w, http.StatusNotFound, "Interview not found")
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{Success: true, Interview: rec})
}

// ListInterviews serves all interviews belonging to a user, newest first.
// The user is selected with the ?userid= query parameter.
func (h *Handler) ListInterviews(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("userid"))
	if userID == "" {
		h.writeFailure(w, http.StatusBadRequest, "Missing userid")
		return
	}

	recs, err := h.store.ListByUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list interviews", "user_id", userID, "err", err)
		h.writeFailure(w, http.StatusInternalServerError, "Failed to load interviews")
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{Success: true, Interviews: recs})
}
