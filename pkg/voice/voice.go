// Package voice defines the abstraction over a hosted voice-call vendor.
//
// The vendor runs the actual audio conversation (telephony or browser audio,
// speech recognition, agent speech) and emits a small set of named events over
// its control connection. VoxPrep never touches audio itself; it only consumes
// these events to accumulate a transcript and drive the call state machine.
//
// A [Session] represents one call. Implementations deliver events on the
// channel returned by Events and close it when the session ends, which
// guarantees consumers are released on teardown. Implementations must be safe
// for concurrent use.
package voice

import "context"

// EventType identifies a vendor control event.
type EventType string

const (
	// EventCallStart signals that the call is connected and audio is live.
	EventCallStart EventType = "call-start"

	// EventCallEnd signals that the call has terminated, for any reason.
	EventCallEnd EventType = "call-end"

	// EventMessage carries a payload message; transcript fragments arrive as
	// messages with MessageType "transcript".
	EventMessage EventType = "message"

	// EventSpeechStart signals the remote agent started speaking.
	EventSpeechStart EventType = "speech-start"

	// EventSpeechEnd signals the remote agent stopped speaking.
	EventSpeechEnd EventType = "speech-end"

	// EventError carries a vendor-side error. Errors do not imply the call
	// ended; a separate EventCallEnd follows if it did.
	EventError EventType = "error"
)

// Transcript phases reported on transcript messages.
const (
	// TranscriptPartial marks an interim fragment that will be revised.
	TranscriptPartial = "partial"

	// TranscriptFinal marks a finalized utterance.
	TranscriptFinal = "final"
)

// Event is a single vendor control event.
type Event struct {
	// Type identifies the event.
	Type EventType

	// Role is the speaker on message events: "user", "system", or "assistant".
	Role string

	// MessageType is the message payload kind; transcript fragments use
	// "transcript".
	MessageType string

	// TranscriptType is [TranscriptPartial] or [TranscriptFinal] on
	// transcript messages.
	TranscriptType string

	// Transcript is the utterance text on transcript messages.
	Transcript string

	// Err carries the vendor error on EventError events.
	Err error
}

// CallConfig describes the conversation the vendor should run.
//
// Exactly one of WorkflowID or SystemPrompt is typically set: a generation
// call references a vendor-hosted workflow by ID and passes template
// variables; an interview call injects the pre-formatted question list as the
// agent's instructions.
type CallConfig struct {
	// WorkflowID references a vendor-hosted conversation workflow.
	WorkflowID string

	// Variables are template values substituted into the workflow
	// (e.g., "username", "userid").
	Variables map[string]string

	// SystemPrompt is the agent instruction text for assistant-style calls.
	SystemPrompt string

	// FirstMessage is the agent's opening line for assistant-style calls.
	FirstMessage string
}

// Session is one voice call with the vendor.
type Session interface {
	// Start begins the call. It returns once the vendor accepted the session;
	// connection progress and the rest of the call arrive as events. ctx
	// bounds session establishment only: cancelling it after Start returned
	// must not end the call. A running call ends through Stop or the vendor.
	Start(ctx context.Context, cfg CallConfig) error

	// Stop requests call termination. The vendor normally responds with an
	// EventCallEnd; callers should not assume it always arrives.
	Stop() error

	// Events returns the event stream for this session. The channel is closed
	// when the session ends, after the final event has been delivered.
	Events() <-chan Event
}
