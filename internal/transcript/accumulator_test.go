package transcript

import (
	"fmt"
	"sync"
	"testing"

	"github.com/voxprep/voxprep/pkg/voice"
)

func finalMsg(role, text string) voice.Event {
	return voice.Event{
		Type:           voice.EventMessage,
		MessageType:    "transcript",
		TranscriptType: voice.TranscriptFinal,
		Role:           role,
		Transcript:     text,
	}
}

func TestAppendKeepsOnlyFinalTranscripts(t *testing.T) {
	a := New()

	a.Append(finalMsg("assistant", "Hello, shall we begin?"))
	a.Append(voice.Event{
		Type:           voice.EventMessage,
		MessageType:    "transcript",
		TranscriptType: voice.TranscriptPartial,
		Role:           "user",
		Transcript:     "I'd like to prac",
	})
	a.Append(voice.Event{Type: voice.EventSpeechStart})
	a.Append(voice.Event{Type: voice.EventMessage, MessageType: "status-update"})
	a.Append(finalMsg("user", "I'd like to practice for a frontend role."))
	a.Append(voice.Event{Type: voice.EventCallEnd})

	if got := a.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
	msgs := a.Messages()
	if msgs[0].Role != "assistant" || msgs[1].Role != "user" {
		t.Fatalf("unexpected roles: %q, %q", msgs[0].Role, msgs[1].Role)
	}
	if msgs[1].Content != "I'd like to practice for a frontend role." {
		t.Fatalf("Content = %q", msgs[1].Content)
	}
}

func TestRender(t *testing.T) {
	a := New()
	if got := a.Render(); got != "" {
		t.Fatalf("Render() on empty accumulator = %q, want empty", got)
	}

	a.Append(finalMsg("assistant", "What role are you targeting?"))
	a.Append(finalMsg("user", "Backend developer."))

	want := "assistant: What role are you targeting?\nuser: Backend developer."
	if got := a.Render(); got != want {
		t.Fatalf("Render() = %q, want %q", got, want)
	}
}

func TestMessagesReturnsCopy(t *testing.T) {
	a := New()
	a.Append(finalMsg("user", "hi"))

	msgs := a.Messages()
	msgs[0].Content = "tampered"

	if got := a.Messages()[0].Content; got != "hi" {
		t.Fatalf("internal message mutated: %q", got)
	}
}

func TestReset(t *testing.T) {
	a := New()
	a.Append(finalMsg("user", "one"))
	a.Reset()

	if got := a.Len(); got != 0 {
		t.Fatalf("Len() after Reset = %d, want 0", got)
	}
	a.Append(finalMsg("user", "two"))
	if got := a.Render(); got != "user: two" {
		t.Fatalf("Render() = %q", got)
	}
}

func TestConcurrentAppend(t *testing.T) {
	a := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				a.Append(finalMsg("user", fmt.Sprintf("g%d-%d", n, j)))
			}
		}(i)
	}
	wg.Wait()

	if got := a.Len(); got != 400 {
		t.Fatalf("Len() = %d, want 400", got)
	}
}
