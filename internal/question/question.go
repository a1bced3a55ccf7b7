// Package question generates interview questions for a given parameter set
// using an LLM, with deterministic template fallbacks so the pipeline always
// produces a non-empty question list.
package question

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/voxprep/voxprep/internal/extract"
	"github.com/voxprep/voxprep/internal/llmjson"
	"github.com/voxprep/voxprep/pkg/provider/llm"
)

const promptTemplate = `Generate %d interview questions for a %s %s position.

Job Details:
- Role: %s
- Level: %s
- Tech Stack: %s
- Type: %s

IMPORTANT: Return ONLY a valid JSON array of questions. No other text, explanations, or formatting.

Example format:
["What is your experience with React?", "How do you handle state management?", "Explain the difference between let and const"]

Return exactly %d questions focused on %s and %s topics.`

// Generator produces interview question lists.
type Generator struct {
	provider llm.Provider
	logger   *slog.Logger
}

// New creates a Generator backed by the given provider. A nil logger falls
// back to [slog.Default].
func New(provider llm.Provider, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{provider: provider, logger: logger}
}

// Generate produces questions for the given parameters. It never returns an
// error: provider failures and unparsable model output degrade to
// [FallbackQuestions]. The returned bool reports whether the fallback path
// was taken. The result is always non-empty.
func (g *Generator) Generate(ctx context.Context, params extract.Parameters) ([]string, bool) {
	prompt := fmt.Sprintf(promptTemplate,
		params.Amount, params.Level, params.Role,
		params.Role, params.Level, params.TechStack, params.Type,
		params.Amount, params.TechStack, params.Type,
	)

	resp, err := g.provider.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	})
	if err != nil {
		g.logger.Warn("question generation failed, using fallback", "error", err)
		return FallbackQuestions(params), true
	}

	questions, err := parse(resp.Content)
	if err != nil {
		g.logger.Warn("could not parse generated questions, using fallback",
			"error", err, "raw", resp.Content)
		return FallbackQuestions(params), true
	}

	return questions, false
}

// parse extracts the first JSON array from the model output and decodes it.
// An empty array is an error so callers always fall back to a usable list.
func parse(raw string) ([]string, error) {
	arr := llmjson.ExtractArray(llmjson.CleanFences(raw))
	if arr == "" {
		return nil, fmt.Errorf("question: no JSON array in model output")
	}
	var questions []string
	if err := json.Unmarshal([]byte(arr), &questions); err != nil {
		return nil, fmt.Errorf("question: decode questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("question: model returned empty question list")
	}
	return questions, nil
}

// FallbackQuestions returns generic questions seeded with the first
// technology from the parameter tech stack. At most params.Amount questions
// are returned; there are five templates, so larger amounts are capped.
func FallbackQuestions(params extract.Parameters) []string {
	tech := "web development"
	if first, _, _ := strings.Cut(params.TechStack, ","); strings.TrimSpace(first) != "" {
		tech = strings.TrimSpace(first)
	}

	questions := []string{
		fmt.Sprintf("What is your experience with %s?", tech),
		"How do you approach problem-solving in your development work?",
		"Can you explain a challenging project you've worked on?",
		"What are your thoughts on code quality and testing?",
		"How do you stay updated with new technologies?",
	}
	if params.Amount > 0 && params.Amount < len(questions) {
		questions = questions[:params.Amount]
	}
	return questions
}
