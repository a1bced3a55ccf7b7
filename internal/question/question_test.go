package question

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/voxprep/voxprep/internal/extract"
	llmmock "github.com/voxprep/voxprep/pkg/provider/llm/mock"
)

func testParams() extract.Parameters {
	return extract.Parameters{
		Role:      "Frontend Developer",
		Type:      "Technical",
		Level:     "Mid",
		TechStack: "React, TypeScript",
		Amount:    3,
	}
}

func TestGenerateParsesModelOutput(t *testing.T) {
	p := &llmmock.Provider{Responses: []string{
		"```json\n[\"Explain the virtual DOM.\", \"What are React hooks?\", \"How does TypeScript narrowing work?\"]\n```",
	}}
	g := New(p, nil)

	questions, fellBack := g.Generate(context.Background(), testParams())
	if fellBack {
		t.Fatal("Generate fell back on parsable output")
	}
	if len(questions) != 3 {
		t.Fatalf("got %d questions, want 3", len(questions))
	}
	if questions[0] != "Explain the virtual DOM." {
		t.Fatalf("questions[0] = %q", questions[0])
	}
}

func TestGeneratePromptEmbedsParameters(t *testing.T) {
	p := &llmmock.Provider{Responses: []string{`["q"]`}}
	g := New(p, nil)

	g.Generate(context.Background(), testParams())
	prompt := p.CompleteCalls[0].Req.Messages[0].Content
	for _, want := range []string{"Generate 3 interview questions", "Mid Frontend Developer", "React, TypeScript", "Technical"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestGenerateFallsBackOnProviderError(t *testing.T) {
	p := &llmmock.Provider{Err: errors.New("model unavailable")}
	g := New(p, nil)

	questions, fellBack := g.Generate(context.Background(), testParams())
	if !fellBack {
		t.Fatal("expected fallback on provider error")
	}
	if len(questions) != 3 {
		t.Fatalf("got %d fallback questions, want amount-capped 3", len(questions))
	}
	if !strings.Contains(questions[0], "React") {
		t.Fatalf("first fallback question should use first tech: %q", questions[0])
	}
}

func TestGenerateFallsBackOnGarbageOutput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"prose only", "Here are some great questions for you!"},
		{"empty array", "[]"},
		{"truncated array", `["What is your experience with`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &llmmock.Provider{Responses: []string{tt.raw}}
			g := New(p, nil)

			questions, fellBack := g.Generate(context.Background(), testParams())
			if !fellBack {
				t.Fatal("expected fallback")
			}
			if len(questions) == 0 {
				t.Fatal("fallback returned no questions")
			}
		})
	}
}

func TestFallbackQuestions(t *testing.T) {
	params := testParams()
	params.Amount = 10
	questions := FallbackQuestions(params)
	if len(questions) != 5 {
		t.Fatalf("got %d questions, want all 5 templates when amount exceeds pool", len(questions))
	}

	params.Amount = 2
	questions = FallbackQuestions(params)
	if len(questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(questions))
	}

	params.TechStack = ""
	questions = FallbackQuestions(params)
	if !strings.Contains(questions[0], "web development") {
		t.Fatalf("empty tech stack should fall back to web development: %q", questions[0])
	}
}
