package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/voxprep/voxprep/internal/interview"
	"github.com/voxprep/voxprep/internal/interview/store"
	llmmock "github.com/voxprep/voxprep/pkg/provider/llm/mock"
)

func seedInterview(t *testing.T, st store.Store, id, userID, createdAt string) {
	t.Helper()
	rec := &interview.Record{
		ID:         id,
		Role:       "Frontend Developer",
		Type:       "Technical",
		Level:      "Junior",
		Techstack:  []string{"React", "CSS"},
		Questions:  []string{"What is JSX?"},
		UserID:     userID,
		Finalized:  true,
		CoverImage: "/covers/adobe.png",
		CreatedAt:  createdAt,
	}
	if err := st.Create(context.Background(), rec); err != nil {
		t.Fatalf("seed interview: %v", err)
	}
}

func TestGetInterview(t *testing.T) {
	st := store.NewMemStore()
	seedInterview(t, st, "iv-1", "u1", "2026-08-01T10:00:00Z")
	h := newTestHandler(t, &llmmock.Provider{}, st, nil)

	rec := serveJSON(t, h, "GET", "/api/interviews/iv-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := decodeEnvelope(t, rec)
	iv, ok := body["interview"].(map[string]any)
	if !ok {
		t.Fatalf("interview missing from response: %v", body)
	}
	if iv["id"] != "iv-1" {
		t.Errorf("interview.id = %v, want %q", iv["id"], "iv-1")
	}
}

func TestGetInterview_NotFound(t *testing.T) {
	h := newTestHandler(t, &llmmock.Provider{}, store.NewMemStore(), nil)

	rec := serveJSON(t, h, "GET", "/api/interviews/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	body := decodeEnvelope(t, rec)
	if body["error"] != "Interview not found" {
		t.Errorf("error = %q, want %q", body["error"], "Interview not found")
	}
}

func TestListInterviews_NewestFirst(t *testing.T) {
	st := store.NewMemStore()
	seedInterview(t, st, "iv-old", "u1", "2026-08-01T10:00:00Z")
	seedInterview(t, st, "iv-new", "u1", "2026-08-02T10:00:00Z")
	seedInterview(t, st, "iv-other", "u2", "2026-08-03T10:00:00Z")
	h := newTestHandler(t, &llmmock.Provider{}, st, nil)

	rec := serveJSON(t, h, "GET", "/api/interviews?userid=u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := decodeEnvelope(t, rec)
	list, ok := body["interviews"].([]any)
	if !ok {
		t.Fatalf("interviews missing from response: %v", body)
	}
	if len(list) != 2 {
		t.Fatalf("len(interviews) = %d, want 2", len(list))
	}
	first := list[0].(map[string]any)
	if first["id"] != "iv-new" {
		t.Errorf("interviews[0].id = %v, want %q", first["id"], "iv-new")
	}
}

func TestListInterviews_MissingUserID(t *testing.T) {
	h := newTestHandler(t, &llmmock.Provider{}, store.NewMemStore(), nil)

	rec := serveJSON(t, h, "GET", "/api/interviews", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	body := decodeEnvelope(t, rec)
	if body["error"] != "Missing userid" {
		t.Errorf("error = %q, want %q", body["error"], "Missing userid")
	}
}
