package extract

import (
	"context"
	"strings"
	"testing"

	llmmock "github.com/voxprep/voxprep/pkg/provider/llm/mock"
)

func TestExtractParsesModelOutput(t *testing.T) {
	p := &llmmock.Provider{Responses: []string{
		"```json\n{\"role\":\"Backend Developer\",\"type\":\"Mixed\",\"level\":\"Senior\",\"techstack\":\"Go, Postgres\",\"amount\":7}\n```",
	}}
	e := New(p, nil)

	params, fellBack := e.Extract(context.Background(), "user: I want a backend interview")
	if fellBack {
		t.Fatal("Extract fell back on parsable output")
	}
	if params.Role != "Backend Developer" || params.Level != "Senior" {
		t.Fatalf("params = %+v", params)
	}
	if params.Amount != 7 {
		t.Fatalf("Amount = %d, want 7", params.Amount)
	}
	if got := p.CallCount(); got != 1 {
		t.Fatalf("provider called %d times, want 1", got)
	}
}

func TestExtractIgnoresSurroundingProse(t *testing.T) {
	p := &llmmock.Provider{Responses: []string{
		"Sure! Here are the details:\n{\"role\":\"Frontend Developer\",\"type\":\"Technical\",\"level\":\"Mid\",\"techstack\":\"React, CSS\",\"amount\":3}\nLet me know if you need more.",
	}}
	e := New(p, nil)

	params, fellBack := e.Extract(context.Background(), "conversation")
	if fellBack {
		t.Fatal("Extract fell back on output with prose around the JSON")
	}
	if params.Role != "Frontend Developer" || params.Amount != 3 {
		t.Fatalf("params = %+v", params)
	}
}

func TestExtractNormalizesPartialOutput(t *testing.T) {
	p := &llmmock.Provider{Responses: []string{
		`{"role":"Data Engineer","type":"","level":"","techstack":"","amount":0}`,
	}}
	e := New(p, nil)

	params, fellBack := e.Extract(context.Background(), "conversation")
	if fellBack {
		t.Fatal("partial output should be normalized, not treated as fallback")
	}
	if params.Role != "Data Engineer" {
		t.Fatalf("Role = %q, want extracted value kept", params.Role)
	}
	if params.Type != "Technical" || params.Level != "Junior" || params.Amount != 5 {
		t.Fatalf("defaults not applied: %+v", params)
	}
	if params.TechStack == "" {
		t.Fatal("TechStack left empty")
	}
}

func TestExtractFallsBackOnProviderError(t *testing.T) {
	p := &llmmock.Provider{Err: context.DeadlineExceeded}
	e := New(p, nil)

	params, fellBack := e.Extract(context.Background(), "user: I am preparing for a fullstack position with node and python")
	if !fellBack {
		t.Fatal("expected fallback on provider error")
	}
	if params.Role != "Full Stack Developer" {
		t.Fatalf("Role = %q, want Full Stack Developer", params.Role)
	}
	if params.TechStack != "node, python" {
		t.Fatalf("TechStack = %q, want keyword matches in list order", params.TechStack)
	}
}

func TestExtractFallsBackOnGarbageOutput(t *testing.T) {
	p := &llmmock.Provider{Responses: []string{"I cannot help with that."}}
	e := New(p, nil)

	params, fellBack := e.Extract(context.Background(), "short chat")
	if !fellBack {
		t.Fatal("expected fallback on non-JSON output")
	}
	if params != FallbackParameters("short chat") {
		t.Fatalf("params = %+v, want fallback defaults", params)
	}
}

func TestFallbackParameters(t *testing.T) {
	tests := []struct {
		name         string
		conversation string
		wantRole     string
		wantStack    string
	}{
		{
			name:         "defaults",
			conversation: "hello there",
			wantRole:     "Software Developer",
			wantStack:    "React, JavaScript, HTML, CSS",
		},
		{
			name:         "frontend hint wins over backend",
			conversation: "I do frontend but also some backend",
			wantRole:     "Frontend Developer",
			wantStack:    "React, JavaScript, HTML, CSS",
		},
		{
			name:         "backend with tech keywords",
			conversation: "back-end work with Java and Python mostly",
			wantRole:     "Backend Developer",
			wantStack:    "python, java",
		},
		{
			name:         "keyword order is list order, not mention order",
			conversation: "vue first, then react",
			wantRole:     "Software Developer",
			wantStack:    "react, vue",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FallbackParameters(tt.conversation)
			if p.Role != tt.wantRole {
				t.Errorf("Role = %q, want %q", p.Role, tt.wantRole)
			}
			if p.TechStack != tt.wantStack {
				t.Errorf("TechStack = %q, want %q", p.TechStack, tt.wantStack)
			}
			if p.Amount != 5 || p.Type != "Technical" || p.Level != "Junior" {
				t.Errorf("unexpected defaults: %+v", p)
			}
		})
	}
}

func TestFallbackFrontendPracticeConversation(t *testing.T) {
	// Force the keyword path with unparsable model output.
	p := &llmmock.Provider{Responses: []string{"not json"}}
	e := New(p, nil)

	conversation := "I want to practice for a Frontend Developer role, technical interview, junior level, using React and JavaScript, 4 questions"
	params, fellBack := e.Extract(context.Background(), conversation)
	if !fellBack {
		t.Fatal("expected fallback on unparsable output")
	}

	if params.Role != "Frontend Developer" {
		t.Errorf("Role = %q, want Frontend Developer", params.Role)
	}
	if params.Type != "Technical" || params.Level != "Junior" {
		t.Errorf("Type/Level = %q/%q, want Technical/Junior", params.Type, params.Level)
	}
	// The keyword scan lowercases matches, joins them in list order, and
	// also picks up "java" as a substring of "javascript".
	if params.TechStack != "react, javascript, java" {
		t.Errorf("TechStack = %q, want %q", params.TechStack, "react, javascript, java")
	}
	// The scan does not read question counts; the default amount stands even
	// though the conversation asked for 4.
	if params.Amount != 5 {
		t.Errorf("Amount = %d, want default 5", params.Amount)
	}
}

func TestPromptContainsConversation(t *testing.T) {
	p := &llmmock.Provider{Responses: []string{
		`{"role":"A","type":"B","level":"C","techstack":"D","amount":1}`,
	}}
	e := New(p, nil)

	e.Extract(context.Background(), "user: very specific marker text")
	if len(p.CompleteCalls) != 1 {
		t.Fatalf("CompleteCalls = %d, want 1", len(p.CompleteCalls))
	}
	prompt := p.CompleteCalls[0].Req.Messages[0].Content
	if !strings.Contains(prompt, "very specific marker text") {
		t.Fatalf("prompt does not embed the conversation:\n%s", prompt)
	}
}
