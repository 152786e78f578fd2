package questions

import (
	"math"
	"sort"
	"strconv"

	"mockmate/internal/stages"
)

// Stats describes catalog coverage against the stage plan.
type Stats struct {
	TotalQuestions int            `json:"totalQuestions"`
	PerStage       map[string]int `json:"questionsPerStage"`
	PerRole        map[string]int `json:"questionsPerRole"`
	PerDomain      map[string]int `json:"questionsPerDomain"`
	PerDifficulty  map[string]int `json:"questionsPerDifficulty"`
	Roles          []string       `json:"roles"`
	Domains        []string       `json:"domains"`
	Interview      Structure      `json:"interviewStructure"`
}

// Structure relates catalog size to the configured interview plan.
type Structure struct {
	PlanVersion             string         `json:"planVersion"`
	QuestionsPerInterview   int            `json:"questionsPerInterview"`
	CoverageRatio           float64        `json:"coverageRatio"`
	UniqueInterviewCapacity int            `json:"uniqueInterviewCapacity"`
	StageConfiguration      map[string]int `json:"stageConfiguration"`
	MissingStages           []string       `json:"missingStages,omitempty"`
}

// ComputeStats aggregates records against plan.
func ComputeStats(records []Record, plan *stages.Sequencer) Stats {
	st := Stats{
		TotalQuestions: len(records),
		PerStage:       make(map[string]int),
		PerRole:        make(map[string]int),
		PerDomain:      make(map[string]int),
		PerDifficulty:  make(map[string]int),
	}
	for _, r := range records {
		st.PerStage[r.Stage]++
		st.PerRole[r.Role]++
		if r.Domain != "" {
			st.PerDomain[r.Domain]++
		}
		if r.Difficulty > 0 {
			st.PerDifficulty[strconv.Itoa(r.Difficulty)]++
		} else {
			st.PerDifficulty["unknown"]++
		}
	}
	st.Roles = sortedKeys(st.PerRole)
	st.Domains = sortedKeys(st.PerDomain)

	total := plan.Total()
	st.Interview = Structure{
		PlanVersion:             plan.Version(),
		QuestionsPerInterview:   total,
		CoverageRatio:           math.Round(float64(len(records))/float64(total)*100) / 100,
		UniqueInterviewCapacity: len(records) / total,
		StageConfiguration:      plan.Quotas(),
		MissingStages:           MissingStages(records, plan),
	}
	return st
}

// MissingStages lists planned stages with a positive quota and no catalog records.
func MissingStages(records []Record, plan *stages.Sequencer) []string {
	have := make(map[string]bool)
	for _, r := range records {
		have[r.Stage] = true
	}
	var missing []string
	for _, stage := range plan.Stages() {
		if plan.Quota(stage) > 0 && !have[stage] {
			missing = append(missing, stage)
		}
	}
	return missing
}

func sortedKeys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
