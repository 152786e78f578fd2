package stages

import "math"

// Progress describes where a question index sits in the plan.
type Progress struct {
	Stage           string `json:"stage"`
	StageIndex      int    `json:"stageIndex"`
	PositionInStage int    `json:"positionInStage"`
	TotalInStage    int    `json:"totalInStage"`
	OverallPosition int    `json:"overallPosition"`
	TotalOverall    int    `json:"totalOverall"`
	PercentComplete int    `json:"percentComplete"`
}

// Sequencer maps a linear question index onto the stage plan.
type Sequencer struct {
	cfg    Config
	starts []int
	ends   []int
	index  map[string]int
	resume map[string]struct{}
}

// NewSequencer validates cfg and returns an immutable Sequencer.
func NewSequencer(cfg Config) (*Sequencer, error) {
	cfg = cfg.normalized()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Sequencer{
		cfg:    cfg,
		starts: make([]int, len(cfg.StageOrder)),
		ends:   make([]int, len(cfg.StageOrder)),
		index:  make(map[string]int, len(cfg.StageOrder)),
		resume: make(map[string]struct{}, len(cfg.ResumeTargeted)),
	}
	cum := 0
	for i, name := range cfg.StageOrder {
		s.starts[i] = cum
		cum += cfg.Quotas[name]
		s.ends[i] = cum
		s.index[name] = i
	}
	for _, name := range cfg.ResumeTargeted {
		s.resume[name] = struct{}{}
	}
	return s, nil
}

// Version returns the plan version.
func (s *Sequencer) Version() string { return s.cfg.Version }

// Total returns the interview length.
func (s *Sequencer) Total() int { return s.cfg.TotalQuestions }

// Stages returns the stage order.
func (s *Sequencer) Stages() []string {
	return append([]string(nil), s.cfg.StageOrder...)
}

// Quota returns the quota for stage, or 0 when unknown.
func (s *Sequencer) Quota(stage string) int { return s.cfg.Quotas[stage] }

// Quotas returns a copy of the quota table.
func (s *Sequencer) Quotas() map[string]int {
	out := make(map[string]int, len(s.cfg.Quotas))
	for k, v := range s.cfg.Quotas {
		out[k] = v
	}
	return out
}

// Description returns the human readable stage description.
func (s *Sequencer) Description(stage string) string { return s.cfg.Descriptions[stage] }

// ResumeTargeted reports whether stage prefers resume-derived topics.
func (s *Sequencer) ResumeTargeted(stage string) bool {
	_, ok := s.resume[stage]
	return ok
}

// StageOf returns the stage containing index. Indexes past the end clamp to the final stage.
func (s *Sequencer) StageOf(index int) string {
	return s.cfg.StageOrder[s.StageIndexOf(index)]
}

// StageIndexOf returns the position in the stage order of the stage containing index.
func (s *Sequencer) StageIndexOf(index int) int {
	if index < 0 {
		index = 0
	}
	for i := range s.cfg.StageOrder {
		if index >= s.starts[i] && index < s.ends[i] {
			return i
		}
	}
	return len(s.cfg.StageOrder) - 1
}

// ProgressOf reports in-stage and overall progress for the question at index.
func (s *Sequencer) ProgressOf(index int) Progress {
	if index < 0 {
		index = 0
	}
	i := s.StageIndexOf(index)
	stage := s.cfg.StageOrder[i]
	total := s.cfg.TotalQuestions

	pos := index - s.starts[i] + 1
	quota := s.cfg.Quotas[stage]
	if pos > quota {
		pos = quota
	}
	if pos < 0 {
		pos = 0
	}
	overall := index + 1
	if overall > total {
		overall = total
	}
	return Progress{
		Stage:           stage,
		StageIndex:      i,
		PositionInStage: pos,
		TotalInStage:    quota,
		OverallPosition: overall,
		TotalOverall:    total,
		PercentComplete: int(math.Round(float64(overall) / float64(total) * 100)),
	}
}
