package stages

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the versioned stage plan for an interview.
type Config struct {
	Version        string            `yaml:"version" json:"version"`
	TotalQuestions int               `yaml:"total_questions" json:"totalQuestions"`
	StageOrder     []string          `yaml:"stage_order" json:"stageOrder"`
	Quotas         map[string]int    `yaml:"quota_per_stage" json:"quotaPerStage"`
	Descriptions   map[string]string `yaml:"descriptions,omitempty" json:"descriptions,omitempty"`
	ResumeTargeted []string          `yaml:"resume_targeted,omitempty" json:"resumeTargeted,omitempty"`
}

// Default returns the built-in seven stage plan.
func Default() Config {
	return Config{
		Version:        "7-stage-v1",
		TotalQuestions: 25,
		StageOrder: []string{
			"introduction",
			"warmup",
			"resume_based",
			"technical",
			"behavioral",
			"real_world",
			"hr_closing",
		},
		Quotas: map[string]int{
			"introduction": 2,
			"warmup":       2,
			"resume_based": 3,
			"technical":    10,
			"behavioral":   5,
			"real_world":   2,
			"hr_closing":   1,
		},
		Descriptions: map[string]string{
			"introduction": "Getting to know the candidate",
			"warmup":       "Light questions to build confidence",
			"resume_based": "Questions about projects and experience on the resume",
			"technical":    "Core technical knowledge for the role",
			"behavioral":   "Past behavior, teamwork and communication",
			"real_world":   "Scenario and trade-off questions",
			"hr_closing":   "Career goals and wrap-up",
		},
		ResumeTargeted: []string{"resume_based"},
	}
}

// LoadFile reads and validates a YAML stage plan. An empty path yields Default.
func LoadFile(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read stage plan: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML stage plan and validates it.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, &ConfigError{Reason: fmt.Sprintf("decode: %v", err)}
	}
	cfg = cfg.normalized()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every stage has a quota and the quotas sum to the total.
func (c Config) Validate() error {
	if len(c.StageOrder) == 0 {
		return &ConfigError{Reason: "stage order is empty"}
	}
	if c.TotalQuestions <= 0 {
		return &ConfigError{Reason: fmt.Sprintf("total questions must be positive, got %d", c.TotalQuestions)}
	}

	seen := make(map[string]struct{}, len(c.StageOrder))
	sum := 0
	for _, name := range c.StageOrder {
		if name == "" {
			return &ConfigError{Reason: "stage name is empty"}
		}
		if _, dup := seen[name]; dup {
			return &ConfigError{Reason: fmt.Sprintf("stage %q listed twice", name)}
		}
		seen[name] = struct{}{}

		quota, ok := c.Quotas[name]
		if !ok {
			return &ConfigError{Reason: fmt.Sprintf("stage %q has no quota", name)}
		}
		if quota < 0 {
			return &ConfigError{Reason: fmt.Sprintf("stage %q has negative quota %d", name, quota)}
		}
		sum += quota
	}
	for name := range c.Quotas {
		if _, ok := seen[name]; !ok {
			return &ConfigError{Reason: fmt.Sprintf("quota for unknown stage %q", name)}
		}
	}
	if sum != c.TotalQuestions {
		return &ConfigError{Reason: fmt.Sprintf("quotas sum to %d, want %d", sum, c.TotalQuestions)}
	}
	for _, name := range c.ResumeTargeted {
		if _, ok := seen[name]; !ok {
			return &ConfigError{Reason: fmt.Sprintf("resume targeted stage %q is not in stage order", name)}
		}
	}
	return nil
}

func (c Config) normalized() Config {
	out := c
	out.StageOrder = make([]string, 0, len(c.StageOrder))
	for _, name := range c.StageOrder {
		out.StageOrder = append(out.StageOrder, normalizeName(name))
	}
	out.Quotas = make(map[string]int, len(c.Quotas))
	for name, quota := range c.Quotas {
		out.Quotas[normalizeName(name)] = quota
	}
	if c.Descriptions != nil {
		out.Descriptions = make(map[string]string, len(c.Descriptions))
		for name, desc := range c.Descriptions {
			out.Descriptions[normalizeName(name)] = desc
		}
	}
	out.ResumeTargeted = make([]string, 0, len(c.ResumeTargeted))
	for _, name := range c.ResumeTargeted {
		out.ResumeTargeted = append(out.ResumeTargeted, normalizeName(name))
	}
	return out
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
