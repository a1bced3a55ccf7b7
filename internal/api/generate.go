package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/voxprep/voxprep/internal/extract"
	"github.com/voxprep/voxprep/internal/pipeline"
)

// extractAndGenerateRequest is the body of POST /api/vapi/extract-and-generate.
type extractAndGenerateRequest struct {
	Conversation string `json:"conversation"`
	UserID       string `json:"userid"`
}

// generateRequest is the body of POST /api/vapi/generate. Parameters are
// given directly instead of being extracted from a conversation.
type generateRequest struct {
	Role      string `json:"role"`
	Type      string `json:"type"`
	Level     string `json:"level"`
	TechStack string `json:"techstack"`
	Amount    int    `json:"amount"`
	UserID    string `json:"userid"`
}

// ExtractAndGenerate runs the full pipeline on a raw conversation transcript:
// parameter extraction, question generation, persistence. Extraction and
// generation failures fall back internally and still produce a 200; only a
// malformed request or a failed save surface as errors.
func (h *Handler) ExtractAndGenerate(w http.ResponseWriter, r *http.Request) {
	var req extractAndGenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Conversation) == "" || strings.TrimSpace(req.UserID) == "" {
		h.writeFailure(w, http.StatusBadRequest, "Missing conversation or userid")
		return
	}

	rec, err := h.pipeline.RunConversation(r.Context(), req.Conversation, req.UserID)
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{Success: true, Interview: rec})
}

// Generate persists a question set from explicitly supplied interview
// parameters, skipping the extraction stage.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		strings.TrimSpace(req.Role) == "" || strings.TrimSpace(req.TechStack) == "" || strings.TrimSpace(req.UserID) == "" {
		h.writeFailure(w, http.StatusBadRequest, "Missing role, techstack or userid")
		return
	}

	params := extract.Parameters{
		Role:      req.Role,
		Type:      req.Type,
		Level:     req.Level,
		TechStack: req.TechStack,
		Amount:    req.Amount,
	}

	rec, err := h.pipeline.RunParameters(r.Context(), params, req.UserID)
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{Success: true, Interview: rec})
}

// writePipelineError maps pipeline failures onto the client-facing envelope.
// Persistence failures get a fixed message; anything else reports the error
// text so the client can show it.
func (h *Handler) writePipelineError(w http.ResponseWriter, err error) {
	if errors.Is(err, pipeline.ErrPersistence) {
		h.writeFailure(w, http.StatusInternalServerError, "Failed to save interview to database")
		return
	}
	msg := "Unknown error occurred"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	h.writeFailure(w, http.StatusInternalServerError, msg)
}
