// Package pipeline runs the extract → generate → persist flow that turns a
// finished conversation into a stored interview record.
//
// The model stages never fail outward: both degrade to deterministic
// fallbacks inside their packages, so the only error a pipeline run can
// return is a persistence failure. Callers distinguish it via
// [ErrPersistence].
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/voxprep/voxprep/internal/extract"
	"github.com/voxprep/voxprep/internal/interview"
	"github.com/voxprep/voxprep/internal/interview/store"
	"github.com/voxprep/voxprep/internal/observe"
	"github.com/voxprep/voxprep/internal/question"
)

// ErrPersistence marks a failed interview store write. The interview content
// was generated successfully; only the write failed. Wrapped errors carry the
// store detail.
var ErrPersistence = errors.New("pipeline: failed to save interview")

// Default stage timeouts. Model calls include a remote round-trip; the
// persistence budget assumes a local or same-region database.
const (
	DefaultLLMTimeout     = 30 * time.Second
	DefaultPersistTimeout = 10 * time.Second
)

// Pipeline wires the extraction stage, question generation, and the interview
// store into one flow. Safe for concurrent use.
type Pipeline struct {
	extractor *extract.Extractor
	generator *question.Generator
	store     store.Store
	metrics   *observe.Metrics
	logger    *slog.Logger

	llmTimeout     time.Duration
	persistTimeout time.Duration
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLLMTimeout overrides the per-stage model call timeout.
func WithLLMTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.llmTimeout = d }
}

// WithPersistTimeout overrides the persistence timeout.
func WithPersistTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.persistTimeout = d }
}

// WithMetrics overrides the metrics instance; tests use this to avoid the
// global meter provider.
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// New creates a Pipeline. A nil logger falls back to [slog.Default].
func New(extractor *extract.Extractor, generator *question.Generator, st store.Store, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		extractor:      extractor,
		generator:      generator,
		store:          st,
		logger:         logger,
		llmTimeout:     DefaultLLMTimeout,
		persistTimeout: DefaultPersistTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = observe.DefaultMetrics()
	}
	return p
}

// RunConversation extracts interview parameters from the conversation,
// generates questions, and persists the resulting record for userID.
//
// The returned record is non-nil whenever persistence succeeded. The only
// possible error is a persistence failure, recognisable via [ErrPersistence].
func (p *Pipeline) RunConversation(ctx context.Context, conversation, userID string) (*interview.Record, error) {
	ctx, span := observe.StartSpan(ctx, "pipeline.RunConversation")
	defer span.End()

	params := p.extract(ctx, conversation)
	return p.generateAndPersist(ctx, params, userID)
}

// RunParameters skips extraction and runs generation and persistence for an
// already-structured parameter set.
func (p *Pipeline) RunParameters(ctx context.Context, params extract.Parameters, userID string) (*interview.Record, error) {
	ctx, span := observe.StartSpan(ctx, "pipeline.RunParameters")
	defer span.End()

	if params.Amount <= 0 {
		params.Amount = 5
	}
	return p.generateAndPersist(ctx, params, userID)
}

func (p *Pipeline) extract(ctx context.Context, conversation string) extract.Parameters {
	stageCtx, cancel := context.WithTimeout(ctx, p.llmTimeout)
	defer cancel()

	start := time.Now()
	params, fellBack := p.extractor.Extract(stageCtx, conversation)
	p.metrics.ExtractionDuration.Record(ctx, time.Since(start).Seconds())
	if fellBack {
		p.metrics.ExtractionFallbacks.Add(ctx, 1)
		p.metrics.RecordProviderRequest(ctx, "extraction", "fallback")
	} else {
		p.metrics.RecordProviderRequest(ctx, "extraction", "ok")
	}

	p.logger.Info("extracted interview parameters",
		"role", params.Role, "level", params.Level, "amount", params.Amount,
		"fallback", fellBack)
	return params
}

func (p *Pipeline) generateAndPersist(ctx context.Context, params extract.Parameters, userID string) (*interview.Record, error) {
	stageCtx, cancel := context.WithTimeout(ctx, p.llmTimeout)
	start := time.Now()
	questions, fellBack := p.generator.Generate(stageCtx, params)
	cancel()
	p.metrics.GenerationDuration.Record(ctx, time.Since(start).Seconds())
	if fellBack {
		p.metrics.GenerationFallbacks.Add(ctx, 1)
		p.metrics.RecordProviderRequest(ctx, "generation", "fallback")
	} else {
		p.metrics.RecordProviderRequest(ctx, "generation", "ok")
	}

	rec := interview.New(params, questions, userID)

	persistCtx, cancel := context.WithTimeout(ctx, p.persistTimeout)
	defer cancel()
	start = time.Now()
	err := p.store.Create(persistCtx, &rec)
	p.metrics.PersistDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		p.metrics.PersistErrors.Add(ctx, 1)
		p.logger.Error("failed to persist interview", "user_id", userID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	p.metrics.InterviewsPersisted.Add(ctx, 1)

	p.logger.Info("interview persisted",
		"interview_id", rec.ID, "user_id", userID, "questions", len(rec.Questions))
	return &rec, nil
}
