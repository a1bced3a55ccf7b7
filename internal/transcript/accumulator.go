// Package transcript collects finalized utterances from a live call into an
// ordered conversation transcript.
//
// The accumulator is the only component that mutates the transcript. It keeps
// every finalized utterance in receipt order and discards interim fragments
// outright — partial transcripts are revised by the vendor and buffering them
// would duplicate content. There is no deduplication and no size bound.
package transcript

import (
	"strings"
	"sync"

	"github.com/voxprep/voxprep/pkg/voice"
)

// Message is one finalized utterance. Immutable once appended.
type Message struct {
	// Role is the speaker: "user", "system", or "assistant".
	Role string `json:"role"`

	// Content is the utterance text.
	Content string `json:"content"`
}

// Accumulator builds the ordered transcript of one call.
// All methods are safe for concurrent use; transport events and HTTP status
// reads may interleave.
type Accumulator struct {
	mu       sync.RWMutex
	messages []Message
}

// New creates an empty Accumulator.
func New() *Accumulator {
	return &Accumulator{}
}

// Append consumes a transport event. Only transcript messages in the final
// phase are recorded; every other event is a no-op.
func (a *Accumulator) Append(ev voice.Event) {
	if ev.Type != voice.EventMessage || ev.MessageType != "transcript" {
		return
	}
	if ev.TranscriptType != voice.TranscriptFinal {
		return
	}

	a.mu.Lock()
	a.messages = append(a.messages, Message{Role: ev.Role, Content: ev.Transcript})
	a.mu.Unlock()
}

// Messages returns a copy of the transcript in receipt order.
func (a *Accumulator) Messages() []Message {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Message, len(a.messages))
	copy(out, a.messages)
	return out
}

// Len returns the number of finalized messages.
func (a *Accumulator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.messages)
}

// Render flattens the transcript into "<role>: <content>" lines joined by
// newlines — the conversation form the extraction stage consumes.
func (a *Accumulator) Render() string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var b strings.Builder
	for i, m := range a.messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}

// Reset discards all accumulated messages. Called when a new call starts on
// the same controller.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	a.messages = nil
	a.mu.Unlock()
}
