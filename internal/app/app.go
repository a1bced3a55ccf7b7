// Package app wires all VoxPrep subsystems into a running server.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves HTTP until the context is cancelled, and Shutdown
// tears everything down in order.
//
// For testing, inject mock implementations via functional options
// (WithStore, WithProvider, etc.). When an option is not provided, New
// creates real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/voxprep/voxprep/internal/api"
	"github.com/voxprep/voxprep/internal/call"
	"github.com/voxprep/voxprep/internal/config"
	"github.com/voxprep/voxprep/internal/extract"
	"github.com/voxprep/voxprep/internal/feedback"
	"github.com/voxprep/voxprep/internal/health"
	"github.com/voxprep/voxprep/internal/interview/store"
	"github.com/voxprep/voxprep/internal/observe"
	"github.com/voxprep/voxprep/internal/pipeline"
	"github.com/voxprep/voxprep/internal/question"
	"github.com/voxprep/voxprep/pkg/provider/llm"
)

// DefaultConnectTimeout bounds the startup database connection, retries
// included, when store.connect_timeout is not configured.
const DefaultConnectTimeout = 30 * time.Second

// shutdownTimeout bounds the graceful teardown triggered by Run when its
// context is cancelled.
const shutdownTimeout = 10 * time.Second

// voiceProviderName is the registry key of the voice transport constructor.
const voiceProviderName = "vapi"

// App owns all subsystem lifetimes and serves the VoxPrep HTTP API.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observe.Metrics

	// Subsystems — initialised in New, torn down in Shutdown.
	provider llm.Provider
	store    store.Store
	pool     *pgxpool.Pool
	pipeline *pipeline.Pipeline
	feedback feedback.Creator
	sessions *SessionManager
	server   *http.Server
	handler  http.Handler

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithStore injects an interview store instead of creating one from config.
func WithStore(st store.Store) Option {
	return func(a *App) { a.store = st }
}

// WithProvider injects a generative-text provider instead of creating one
// through the registry.
func WithProvider(p llm.Provider) Option {
	return func(a *App) { a.provider = p }
}

// WithFeedback injects a feedback creator instead of creating a FileStore.
func WithFeedback(fb feedback.Creator) Option {
	return func(a *App) { a.feedback = fb }
}

// WithSessionManager injects a call session manager instead of creating one
// from the voice config.
func WithSessionManager(sm *SessionManager) Option {
	return func(a *App) { a.sessions = sm }
}

// WithMetrics overrides the metrics instance; tests use this to avoid the
// global meter provider.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together. Provider and voice
// constructors are looked up in the registry (populated by main.go). Use
// Option functions to inject test doubles for any subsystem.
//
// New performs all initialisation synchronously: provider construction,
// database connection and migration, pipeline assembly, and HTTP server
// setup. The returned App is ready to Run.
func New(ctx context.Context, cfg *config.Config, registry *config.Registry, opts ...Option) (*App, error) {
	a := &App{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	// ── 1. Generative-text provider ──────────────────────────────────────
	if err := a.initProvider(registry); err != nil {
		return nil, fmt.Errorf("app: init provider: %w", err)
	}

	// ── 2. Interview store ───────────────────────────────────────────────
	if err := a.initStore(ctx); err != nil {
		return nil, fmt.Errorf("app: init store: %w", err)
	}

	// ── 3. Generation pipeline ───────────────────────────────────────────
	a.initPipeline()

	// ── 4. Feedback sink ─────────────────────────────────────────────────
	if a.feedback == nil {
		a.feedback = feedback.NewFileStore(cfg.Feedback.Path)
	}

	// ── 5. Call sessions ─────────────────────────────────────────────────
	a.initSessions(registry)

	// ── 6. HTTP server ───────────────────────────────────────────────────
	a.initServer()

	return a, nil
}

// ─── Init helpers ────────────────────────────────────────────────────────────

// initProvider constructs the generative-text provider via the registry
// unless one was injected.
func (a *App) initProvider(registry *config.Registry) error {
	if a.provider != nil {
		return nil
	}
	p, err := registry.CreateLLM(a.cfg.Provider)
	if err != nil {
		return err
	}
	a.provider = p
	slog.Info("provider ready", "name", a.cfg.Provider.Name, "model", a.cfg.Provider.Model)
	return nil
}

// initStore connects to PostgreSQL and runs the schema migration, or falls
// back to the in-memory store when no DSN is configured.
func (a *App) initStore(ctx context.Context) error {
	if a.store != nil {
		return nil
	}

	dsn := a.cfg.Store.PostgresDSN
	if dsn == "" {
		slog.Warn("no postgres_dsn configured, interviews will not survive a restart")
		a.store = store.NewMemStore()
		return nil
	}

	timeout := a.cfg.Store.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := pgxpool.New(connectCtx, dsn)
	if err != nil {
		return fmt.Errorf("parse postgres dsn: %w", err)
	}

	// The database may still be starting when we are; retry the first ping
	// with exponential backoff until the connect timeout expires.
	b := backoff.NewExponentialBackOff()
	b.MaxInterval = 5 * time.Second
	err = backoff.Retry(func() error {
		return pool.Ping(connectCtx)
	}, backoff.WithContext(b, connectCtx))
	if err != nil {
		pool.Close()
		return fmt.Errorf("connect postgres: %w", err)
	}

	pg := store.NewPostgresStore(pool)
	if err := pg.Migrate(connectCtx); err != nil {
		pool.Close()
		return fmt.Errorf("migrate schema: %w", err)
	}

	a.pool = pool
	a.store = pg
	a.closers = append(a.closers, func() error {
		pool.Close()
		return nil
	})
	slog.Info("interview store ready", "backend", "postgres")
	return nil
}

// initPipeline assembles the extraction → generation → persistence pipeline.
func (a *App) initPipeline() {
	var opts []pipeline.Option
	if a.cfg.Provider.Timeout > 0 {
		opts = append(opts, pipeline.WithLLMTimeout(a.cfg.Provider.Timeout))
	}
	opts = append(opts, pipeline.WithMetrics(a.metrics))

	a.pipeline = pipeline.New(
		extract.New(a.provider, a.logger),
		question.New(a.provider, a.logger),
		a.store,
		a.logger,
		opts...,
	)
}

// initSessions creates the call session manager when a voice transport is
// configured. Each opened call gets a fresh transport session from the
// registry.
func (a *App) initSessions(registry *config.Registry) {
	if a.sessions != nil {
		return
	}
	if a.cfg.Voice.ServerURL == "" {
		slog.Warn("no voice server_url configured, call endpoints disabled")
		return
	}

	voiceCfg := a.cfg.Voice
	factory := func() (*call.Controller, error) {
		session, err := registry.CreateVoice(voiceProviderName, voiceCfg)
		if err != nil {
			return nil, err
		}
		var opts []call.Option
		if voiceCfg.GracePeriod > 0 {
			opts = append(opts, call.WithGracePeriod(voiceCfg.GracePeriod))
		}
		opts = append(opts,
			call.WithWorkflowID(voiceCfg.WorkflowID),
			call.WithMetrics(a.metrics),
		)
		return call.New(session, a.pipeline, a.feedback, a.logger, opts...), nil
	}

	a.sessions = NewSessionManager(factory, a.logger)
}

// initServer builds the route table, wraps it in the observability
// middleware, and prepares the HTTP server.
func (a *App) initServer() {
	// The in-memory store has no pool; a nil ping is always ready.
	var storePing func(context.Context) error
	if a.pool != nil {
		storePing = a.pool.Ping
	}
	checkers := []health.Checker{
		health.Pinger("store", storePing),
		{Name: "provider", Check: func(context.Context) error {
			if a.provider == nil {
				return errors.New("no provider configured")
			}
			return nil
		}},
	}

	// A nil *SessionManager must stay a nil interface so the call routes
	// answer 503 instead of panicking.
	var sessions api.CallSessions
	if a.sessions != nil {
		sessions = a.sessions
	}

	handler := api.New(a.pipeline, a.store, sessions, health.New(checkers...), a.logger)
	mux := http.NewServeMux()
	handler.Register(mux)
	a.handler = observe.Middleware(a.metrics)(mux)

	addr := a.cfg.Server.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	a.server = &http.Server{
		Addr:              addr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run serves HTTP until ctx is cancelled, then shuts down gracefully and
// returns the cancellation cause.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.Shutdown(shutCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Handler returns the fully wired HTTP handler, including middleware.
// Exposed for tests that drive the server through httptest.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Sessions returns the call session manager, or nil when no voice transport
// is configured.
func (a *App) Sessions() *SessionManager {
	return a.sessions
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown tears down all subsystems: running calls are stopped, the HTTP
// server is drained, then closers run in order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers are
// skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		if a.sessions != nil {
			a.sessions.CloseAll()
		}

		if err := a.server.Shutdown(ctx); err != nil {
			slog.Warn("server shutdown error", "err", err)
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
