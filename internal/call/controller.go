// Package call manages the lifecycle of one voice call: transport events,
// status transitions, transcript accumulation, and the post-call dispatch
// that turns a finished conversation into an interview record or feedback.
package call

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/voxprep/voxprep/internal/feedback"
	"github.com/voxprep/voxprep/internal/observe"
	"github.com/voxprep/voxprep/internal/pipeline"
	"github.com/voxprep/voxprep/internal/transcript"
	"github.com/voxprep/voxprep/pkg/voice"
)

// Status is the lifecycle state of a call.
type Status string

const (
	StatusInactive   Status = "INACTIVE"
	StatusConnecting Status = "CONNECTING"
	StatusActive     Status = "ACTIVE"
	StatusFinished   Status = "FINISHED"
)

// Purpose selects what happens with the transcript once the call finishes.
type Purpose string

const (
	// PurposeGenerate runs the conversation through the question-generation
	// pipeline.
	PurposeGenerate Purpose = "generate"

	// PurposeInterview conducts a practice interview against an existing
	// question set and hands the transcript to the feedback creator.
	PurposeInterview Purpose = "interview"
)

// ErrEmptyTranscript is reported when a call finishes without a single
// finalized utterance. Nothing is persisted in that case.
var ErrEmptyTranscript = errors.New("call: call ended with empty transcript")

// DefaultGracePeriod bounds how long a stopped call may wait for the
// transport to confirm the end of the call before the controller forces the
// FINISHED state.
const DefaultGracePeriod = 2 * time.Second

// Params configures one call.
type Params struct {
	Purpose  Purpose
	Username string
	UserID   string

	// InterviewID and Questions are required for PurposeInterview and
	// ignored otherwise.
	InterviewID string
	Questions   []string
}

// Result is the outcome of a finished call, valid once [Controller.Done] is
// closed.
type Result struct {
	// Redirect is the client path to navigate to after the call.
	Redirect string

	// InterviewID is the ID of the generated interview for PurposeGenerate
	// calls that persisted successfully.
	InterviewID string

	// Err is [ErrEmptyTranscript], a [pipeline.ErrPersistence]-wrapped
	// error, or a feedback error. Nil on success.
	Err error
}

// interviewerPrompt is the system prompt for practice interview calls; the
// question list is appended as "- question" lines.
const interviewerPrompt = `You are a professional job interviewer conducting a real-time voice interview with a candidate. Ask the following questions one at a time, listen to each answer, and keep your responses short and conversational.

Questions:
%s`

// Controller drives one voice call at a time. Safe for concurrent use; all
// transitions are serialised internally. A controller can be reused for a new
// call once the previous one reached FINISHED.
type Controller struct {
	session    voice.Session
	pipeline   *pipeline.Pipeline
	feedback   feedback.Creator
	metrics    *observe.Metrics
	logger     *slog.Logger
	grace      time.Duration
	workflowID string

	transcript *transcript.Accumulator

	mu        sync.Mutex
	status    Status
	params    Params
	speaking  bool
	processed bool
	gen       uint64
	done      chan struct{}
	result    Result
}

// Option configures a Controller.
type Option func(*Controller)

// WithGracePeriod overrides the stop grace period.
func WithGracePeriod(d time.Duration) Option {
	return func(c *Controller) { c.grace = d }
}

// WithWorkflowID sets the vendor workflow used for question-generation calls.
func WithWorkflowID(id string) Option {
	return func(c *Controller) { c.workflowID = id }
}

// WithMetrics overrides the metrics instance; tests use this to avoid the
// global meter provider.
func WithMetrics(m *observe.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// New creates a Controller in the INACTIVE state. The feedback creator may be
// nil when only PurposeGenerate calls are expected. A nil logger falls back
// to [slog.Default].
func New(session voice.Session, p *pipeline.Pipeline, fb feedback.Creator, logger *slog.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		session:    session,
		pipeline:   p,
		feedback:   fb,
		logger:     logger,
		grace:      DefaultGracePeriod,
		transcript: transcript.New(),
		status:     StatusInactive,
		done:       make(chan struct{}),
	}
	close(c.done)
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = observe.DefaultMetrics()
	}
	return c
}

// Start begins a new call. It resets the transcript and the
// processed-transcript guard, transitions to CONNECTING, and starts the
// transport session. Returns an error if a call is already in progress, the
// parameters are invalid, or the transport fails to start.
func (c *Controller) Start(ctx context.Context, params Params) error {
	if err := validateParams(params); err != nil {
		return err
	}
	if params.Purpose == PurposeInterview && c.feedback == nil {
		return errors.New("call: no feedback creator configured for interview calls")
	}

	c.mu.Lock()
	if c.status == StatusConnecting || c.status == StatusActive {
		c.mu.Unlock()
		return fmt.Errorf("call: call already in progress (status %s)", c.status)
	}
	c.status = StatusConnecting
	c.params = params
	c.speaking = false
	c.processed = false
	c.result = Result{}
	c.gen++
	gen := c.gen
	c.done = make(chan struct{})
	c.mu.Unlock()

	c.transcript.Reset()

	if err := c.session.Start(ctx, c.buildConfig(params)); err != nil {
		c.mu.Lock()
		c.status = StatusInactive
		close(c.done)
		c.mu.Unlock()
		return fmt.Errorf("call: start session: %w", err)
	}

	c.metrics.ActiveCalls.Add(ctx, 1)
	c.logger.Info("call starting",
		"purpose", string(params.Purpose), "user_id", params.UserID)

	go c.run(gen)
	return nil
}

// buildConfig translates call parameters into the transport configuration.
// Generate calls run a vendor-side workflow; interview calls carry an inline
// interviewer prompt with the question list.
func (c *Controller) buildConfig(params Params) voice.CallConfig {
	if params.Purpose == PurposeGenerate {
		return voice.CallConfig{
			WorkflowID: c.workflowID,
			Variables: map[string]string{
				"username": params.Username,
				"userid":   params.UserID,
			},
		}
	}

	var questions string
	for _, q := range params.Questions {
		questions += "- " + q + "\n"
	}
	return voice.CallConfig{
		SystemPrompt: fmt.Sprintf(interviewerPrompt, questions),
		FirstMessage: "Hello! Thank you for taking the time to speak with me today. Shall we get started?",
	}
}

func validateParams(params Params) error {
	if params.UserID == "" {
		return errors.New("call: user id must not be empty")
	}
	switch params.Purpose {
	case PurposeGenerate:
		return nil
	case PurposeInterview:
		if len(params.Questions) == 0 {
			return errors.New("call: interview call requires questions")
		}
		return nil
	default:
		return fmt.Errorf("call: unknown purpose %q", params.Purpose)
	}
}

// run consumes transport events until the session closes its event channel,
// then finishes the call. Runs on its own goroutine per call.
func (c *Controller) run(gen uint64) {
	for ev := range c.session.Events() {
		switch ev.Type {
		case voice.EventCallStart:
			c.mu.Lock()
			c.status = StatusActive
			c.mu.Unlock()
			c.logger.Info("call active")

		case voice.EventMessage:
			c.transcript.Append(ev)

		case voice.EventSpeechStart:
			c.mu.Lock()
			c.speaking = true
			c.mu.Unlock()

		case voice.EventSpeechEnd:
			c.mu.Lock()
			c.speaking = false
			c.mu.Unlock()

		case voice.EventError:
			// Transport errors are not fatal to the call; the session ends
			// the event stream if the connection is lost.
			c.logger.Warn("call transport error", "error", ev.Err)

		case voice.EventCallEnd:
			c.logger.Info("call ended by transport")
		}
	}
	c.finish(gen)
}

// Stop requests the end of the call. The transport normally confirms by
// closing its event stream; if that does not happen within the grace period
// the controller forces the FINISHED state so the transcript is still
// processed.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if c.status != StatusConnecting && c.status != StatusActive {
		c.mu.Unlock()
		return nil
	}
	gen := c.gen
	c.mu.Unlock()

	err := c.session.Stop()
	if err != nil {
		c.logger.Warn("session stop failed", "error", err)
	}

	time.AfterFunc(c.grace, func() {
		c.finish(gen)
	})
	return err
}

// finish dispatches the transcript exactly once per call and then transitions
// to FINISHED, no matter how many paths race into it (event stream closing,
// grace timer, repeated Stop calls). The generation guard keeps a stale grace
// timer from an earlier call off a newer one.
func (c *Controller) finish(gen uint64) {
	c.mu.Lock()
	if c.processed || c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.processed = true
	c.speaking = false
	params := c.params
	done := c.done
	c.mu.Unlock()

	ctx := context.Background()
	c.metrics.ActiveCalls.Add(ctx, -1)

	result := c.dispatch(ctx, params)

	// The status flips to FINISHED only together with the stored result, so
	// a poll that observes FINISHED always finds the redirect or error.
	c.mu.Lock()
	c.result = result
	c.status = StatusFinished
	c.mu.Unlock()
	close(done)
}

// dispatch routes the finished transcript by call purpose. An empty
// transcript is never persisted.
func (c *Controller) dispatch(ctx context.Context, params Params) Result {
	if c.transcript.Len() == 0 {
		c.logger.Warn("call finished with empty transcript, nothing to process",
			"user_id", params.UserID)
		return Result{Redirect: "/", Err: ErrEmptyTranscript}
	}

	switch params.Purpose {
	case PurposeGenerate:
		rec, err := c.pipeline.RunConversation(ctx, c.transcript.Render(), params.UserID)
		if err != nil {
			return Result{Redirect: "/", Err: err}
		}
		return Result{Redirect: "/", InterviewID: rec.ID}

	case PurposeInterview:
		err := c.feedback.Create(ctx, feedback.Request{
			InterviewID: params.InterviewID,
			UserID:      params.UserID,
			Messages:    c.transcript.Messages(),
		})
		if err != nil {
			c.logger.Error("feedback creation failed", "error", err)
			return Result{Redirect: "/", Err: err}
		}
		return Result{Redirect: "/interview/" + params.InterviewID + "/feedback"}
	}

	// Unreachable: Start validates the purpose.
	return Result{Redirect: "/"}
}

// Status returns the current call status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Speaking reports whether the assistant is currently speaking.
func (c *Controller) Speaking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speaking
}

// Transcript returns the finalized messages accumulated so far.
func (c *Controller) Transcript() []transcript.Message {
	return c.transcript.Messages()
}

// Done returns a channel that is closed once the current call has finished
// and its transcript has been dispatched.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Result returns the outcome of the last finished call. Valid only after the
// channel from [Controller.Done] is closed.
func (c *Controller) Result() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}
