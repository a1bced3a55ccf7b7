package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/voxprep/voxprep/internal/call"
	"github.com/voxprep/voxprep/internal/extract"
	"github.com/voxprep/voxprep/internal/health"
	"github.com/voxprep/voxprep/internal/interview"
	"github.com/voxprep/voxprep/internal/interview/store"
	"github.com/voxprep/voxprep/internal/observe"
	"github.com/voxprep/voxprep/internal/pipeline"
	"github.com/voxprep/voxprep/internal/question"
	llmmock "github.com/voxprep/voxprep/pkg/provider/llm/mock"
	voicemock "github.com/voxprep/voxprep/pkg/voice/mock"
)

func testMetrics(t *testing.T) *observe.Metrics {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m
}

// failingStore fails every Create with a fixed error.
type failingStore struct {
	err error
}

func (s *failingStore) Create(context.Context, *interview.Record) error { return s.err }
func (s *failingStore) Get(context.Context, string) (*interview.Record, error) {
	return nil, nil
}
func (s *failingStore) ListByUser(context.Context, string) ([]interview.Record, error) {
	return nil, nil
}

// stubSessions is a minimal CallSessions for handler tests. It holds one
// controller under a fixed ID and records Close calls.
type stubSessions struct {
	mu       sync.Mutex
	id       string
	ctrl     *call.Controller
	openErr  error
	opened   []call.Params
	closed   []string
	closeErr error
}

var _ CallSessions = (*stubSessions)(nil)

func (s *stubSessions) Open(ctx context.Context, params call.Params) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return "", s.openErr
	}
	if err := s.ctrl.Start(ctx, params); err != nil {
		return "", err
	}
	s.opened = append(s.opened, params)
	return s.id, nil
}

func (s *stubSessions) Get(id string) (*call.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.id || s.ctrl == nil {
		return nil, false
	}
	return s.ctrl, true
}

func (s *stubSessions) Close(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = append(s.closed, id)
	if s.closeErr != nil {
		return s.closeErr
	}
	return nil
}

// newTestHandler wires a Handler with a mock-provider pipeline and the given
// store and sessions.
func newTestHandler(t *testing.T, provider *llmmock.Provider, st store.Store, sessions CallSessions) *Handler {
	t.Helper()
	p := pipeline.New(
		extract.New(provider, nil),
		question.New(provider, nil),
		st,
		nil,
		pipeline.WithMetrics(testMetrics(t)),
	)
	return New(p, st, sessions, health.New(), nil)
}

func serveJSON(t *testing.T, h *Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	h.Register(mux)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return body
}

func TestRegister_HealthAndMetricsRoutes(t *testing.T) {
	h := newTestHandler(t, &llmmock.Provider{}, store.NewMemStore(), nil)

	rec := serveJSON(t, h, "GET", "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = serveJSON(t, h, "GET", "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Errorf("metrics status = %d, want %d", rec.Code, http.StatusOK)
	}
}

// newGenerateController builds a controller suitable for PurposeGenerate
// calls, backed by the given mocks.
func newGenerateController(t *testing.T, session *voicemock.Session, provider *llmmock.Provider, st store.Store) *call.Controller {
	t.Helper()
	p := pipeline.New(
		extract.New(provider, nil),
		question.New(provider, nil),
		st,
		nil,
		pipeline.WithMetrics(testMetrics(t)),
	)
	return call.New(session, p, nil, nil,
		call.WithMetrics(testMetrics(t)),
		call.WithWorkflowID("wf-test"),
	)
}
