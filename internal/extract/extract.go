// Package extract derives structured interview parameters from a free-form
// conversation transcript using an LLM, with a deterministic keyword-based
// fallback so that the pipeline always receives usable parameters.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/voxprep/voxprep/internal/llmjson"
	"github.com/voxprep/voxprep/pkg/provider/llm"
)

// Parameters are the structured interview details extracted from a
// conversation. Techstack stays a comma-separated string here; it is split
// into a slice only when the interview record is assembled.
type Parameters struct {
	Role      string `json:"role"`
	Type      string `json:"type"`
	Level     string `json:"level"`
	TechStack string `json:"techstack"`
	Amount    int    `json:"amount"`
}

// promptTemplate asks for a single flat JSON object and nothing else. Models
// still wrap the output in code fences often enough that the response is run
// through [llmjson] before parsing.
const promptTemplate = `Extract interview details from this conversation and return ONLY valid JSON.

Conversation:
%s

Extract the following information and return ONLY valid JSON (no other text):
- role: The job role mentioned (e.g., "Frontend Developer", "Software Engineer")
- type: The interview type mentioned (e.g., "Technical", "Behavioral", "Mixed")
- level: The experience level mentioned (e.g., "Junior", "Mid", "Senior")
- techstack: The technologies mentioned (comma-separated, e.g., "React, JavaScript, HTML, CSS")
- amount: Number of questions requested (default to 5 if not specified)

IMPORTANT: Return ONLY this exact JSON format with no additional text, explanations, or formatting:
{"role":"Software Developer","type":"Technical","level":"Junior","techstack":"React, JavaScript, HTML, CSS","amount":5}`

// Extractor turns conversation transcripts into interview [Parameters].
type Extractor struct {
	provider llm.Provider
	logger   *slog.Logger
}

// New creates an Extractor backed by the given provider. A nil logger falls
// back to [slog.Default].
func New(provider llm.Provider, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{provider: provider, logger: logger}
}

// Extract derives interview parameters from the conversation. It never
// returns an error: provider failures and unparsable model output both
// degrade to [FallbackParameters]. The returned bool reports whether the
// fallback path was taken.
func (e *Extractor) Extract(ctx context.Context, conversation string) (Parameters, bool) {
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: fmt.Sprintf(promptTemplate, conversation)},
		},
	})
	if err != nil {
		e.logger.Warn("parameter extraction failed, using fallback", "error", err)
		return FallbackParameters(conversation), true
	}

	params, err := parse(resp.Content)
	if err != nil {
		e.logger.Warn("could not parse extracted parameters, using fallback",
			"error", err, "raw", resp.Content)
		return FallbackParameters(conversation), true
	}

	normalize(&params)
	return params, false
}

// parse extracts the first JSON object from the model output and decodes it.
func parse(raw string) (Parameters, error) {
	obj := llmjson.ExtractObject(llmjson.CleanFences(raw))
	if obj == "" {
		return Parameters{}, fmt.Errorf("extract: no JSON object in model output")
	}
	var p Parameters
	if err := json.Unmarshal([]byte(obj), &p); err != nil {
		return Parameters{}, fmt.Errorf("extract: decode parameters: %w", err)
	}
	return p, nil
}

// normalize fills in defaults for fields the model left empty. The result is
// always a complete parameter set.
func normalize(p *Parameters) {
	def := defaultParameters()
	if strings.TrimSpace(p.Role) == "" {
		p.Role = def.Role
	}
	if strings.TrimSpace(p.Type) == "" {
		p.Type = def.Type
	}
	if strings.TrimSpace(p.Level) == "" {
		p.Level = def.Level
	}
	if strings.TrimSpace(p.TechStack) == "" {
		p.TechStack = def.TechStack
	}
	if p.Amount <= 0 {
		p.Amount = def.Amount
	}
}

func defaultParameters() Parameters {
	return Parameters{
		Role:      "Software Developer",
		Type:      "Technical",
		Level:     "Junior",
		TechStack: "React, JavaScript, HTML, CSS",
		Amount:    5,
	}
}

// techKeywords are scanned in order; matches are joined in this order
// regardless of where they appear in the conversation.
var techKeywords = []string{
	"react", "javascript", "html", "css", "node", "python", "java", "angular", "vue",
}

// FallbackParameters produces a deterministic parameter set from keyword
// matching alone. It is used whenever the model path fails and is exported so
// callers can present degraded results honestly in tests and tooling.
func FallbackParameters(conversation string) Parameters {
	p := defaultParameters()
	lower := strings.ToLower(conversation)

	switch {
	case strings.Contains(lower, "frontend") || strings.Contains(lower, "front-end"):
		p.Role = "Frontend Developer"
	case strings.Contains(lower, "backend") || strings.Contains(lower, "back-end"):
		p.Role = "Backend Developer"
	case strings.Contains(lower, "fullstack") || strings.Contains(lower, "full-stack"):
		p.Role = "Full Stack Developer"
	}

	var found []string
	for _, kw := range techKeywords {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}
	if len(found) > 0 {
		p.TechStack = strings.Join(found, ", ")
	}

	return p
}
