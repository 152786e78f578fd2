package enrich

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

//go:embed prompts/guidance_v1.txt
var guidanceV1 string

// PromptVersion identifies the guidance template.
const PromptVersion = "guidance:v1"

const maxContextChars = 6000

var (
	// ErrNotConfigured is returned when no language model is configured.
	ErrNotConfigured = errors.New("content enrichment is not configured")
	// ErrInvalidResponse is returned when the model output is not usable guidance.
	ErrInvalidResponse = errors.New("invalid guidance response")
)

// Completer sends a prompt to a language model and returns its raw text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Request is the question and candidate context to elaborate on.
type Request struct {
	Question       string `json:"question"`
	Stage          string `json:"stage"`
	Role           string `json:"role"`
	Level          string `json:"level"`
	ResumeText     string `json:"resumeText,omitempty"`
	JobDescription string `json:"jobDescription,omitempty"`
}

// Guidance is coaching text attached to a question.
type Guidance struct {
	Direction    string   `json:"direction"`
	SampleAnswer string   `json:"sampleAnswer"`
	Tips         []string `json:"tips"`
}

// Service builds guidance prompts and parses the model output.
type Service struct {
	completer Completer
	logger    *zap.Logger
}

// NewService returns a Service. A nil completer yields ErrNotConfigured on every call.
func NewService(completer Completer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{completer: completer, logger: logger}
}

// Configured reports whether a completer is available.
func (s *Service) Configured() bool {
	return s != nil && s.completer != nil
}

// Elaborate asks the model for direction, a sample answer and tips for req.
func (s *Service) Elaborate(ctx context.Context, req Request) (Guidance, error) {
	if !s.Configured() {
		return Guidance{}, ErrNotConfigured
	}
	if strings.TrimSpace(req.Question) == "" {
		return Guidance{}, fmt.Errorf("%w: question is empty", ErrInvalidResponse)
	}

	raw, err := s.completer.Complete(ctx, BuildPrompt(req))
	if err != nil {
		return Guidance{}, fmt.Errorf("complete guidance: %w", err)
	}
	g, err := ParseGuidance(raw)
	if err != nil {
		s.logger.Warn("guidance response rejected",
			zap.String("prompt_version", PromptVersion),
			zap.Int("response_len", len(raw)),
			zap.Error(err),
		)
		return Guidance{}, err
	}
	return g, nil
}

// BuildPrompt renders the guidance template for req.
func BuildPrompt(req Request) string {
	replacer := strings.NewReplacer(
		"{{ROLE}}", orDefault(req.Role, "software"),
		"{{LEVEL}}", orDefault(req.Level, "mid"),
		"{{STAGE}}", orDefault(req.Stage, "technical"),
	)
	var b strings.Builder
	b.WriteString(replacer.Replace(guidanceV1))
	b.WriteString("\nQuestion:\n")
	b.WriteString(strings.TrimSpace(req.Question))
	b.WriteString("\n\nResume Text:\n")
	b.WriteString(orDefault(clip(req.ResumeText), "N/A"))
	b.WriteString("\n\nJob Description:\n")
	b.WriteString(orDefault(clip(req.JobDescription), "N/A"))
	return b.String()
}

// ParseGuidance decodes model output, tolerating a surrounding markdown fence.
func ParseGuidance(raw string) (Guidance, error) {
	raw = stripFence(raw)
	var g Guidance
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		return Guidance{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	g.Direction = strings.TrimSpace(g.Direction)
	g.SampleAnswer = strings.TrimSpace(g.SampleAnswer)
	if g.Direction == "" || g.SampleAnswer == "" {
		return Guidance{}, fmt.Errorf("%w: direction and sampleAnswer are required", ErrInvalidResponse)
	}
	tips := g.Tips[:0]
	for _, t := range g.Tips {
		if t = strings.TrimSpace(t); t != "" {
			tips = append(tips, t)
		}
	}
	g.Tips = tips
	if g.Tips == nil {
		g.Tips = []string{}
	}
	return g, nil
}

func stripFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```")
	if nl := strings.IndexByte(raw, '\n'); nl >= 0 {
		raw = raw[nl+1:]
	}
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	return strings.TrimSpace(raw)
}

func clip(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= maxContextChars {
		return s
	}
	return string(runes[:maxContextChars])
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}
