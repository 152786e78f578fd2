package stages

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const planYAML = `
version: compact-v2
total_questions: 5
stage_order: [Introduction, technical, hr_closing]
quota_per_stage:
  introduction: 1
  technical: 3
  hr_closing: 1
resume_targeted: [technical]
`

func TestParseNormalizesNames(t *testing.T) {
	cfg, err := Parse([]byte(planYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Version != "compact-v2" {
		t.Fatalf("unexpected version %q", cfg.Version)
	}
	if cfg.StageOrder[0] != "introduction" {
		t.Fatalf("expected lower-cased stage name, got %q", cfg.StageOrder[0])
	}
}

func TestParseRejectsBadSum(t *testing.T) {
	_, err := Parse([]byte("total_questions: 3\nstage_order: [a]\nquota_per_stage: {a: 2}\n"))
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	if err := os.WriteFile(path, []byte(planYAML), 0o644); err != nil {
		t.Fatalf("write plan: %v", err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.TotalQuestions != 5 {
		t.Fatalf("expected total 5, got %d", cfg.TotalQuestions)
	}

	def, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile empty: %v", err)
	}
	if def.Version != Default().Version {
		t.Fatalf("expected default plan, got %q", def.Version)
	}
}
