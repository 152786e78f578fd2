package questions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mockmate/internal/stages"
)

func TestComputeStats(t *testing.T) {
	plan, err := stages.NewSequencer(stages.Config{
		Version:        "v-test",
		TotalQuestions: 3,
		StageOrder:     []string{"introduction", "technical", "hr_closing"},
		Quotas:         map[string]int{"introduction": 1, "technical": 2, "hr_closing": 0},
	})
	require.NoError(t, err)

	records := []Record{
		{ID: "a", Stage: "introduction", Role: RoleAny},
		{ID: "b", Stage: "introduction", Role: RoleAny, Difficulty: 1},
		{ID: "c", Stage: "warmup", Role: "backend", Domain: "software", Difficulty: 3},
		{ID: "d", Stage: "warmup", Role: "teacher", Domain: "education", Difficulty: 3},
		{ID: "e", Stage: "warmup", Role: "backend", Domain: "software"},
		{ID: "f", Stage: "warmup", Role: "backend"},
		{ID: "g", Stage: "warmup", Role: "backend"},
	}
	st := ComputeStats(records, plan)

	assert.Equal(t, 7, st.TotalQuestions)
	assert.Equal(t, 2, st.PerStage["introduction"])
	assert.Equal(t, []string{"any", "backend", "teacher"}, st.Roles)
	assert.Equal(t, []string{"education", "software"}, st.Domains)
	assert.Equal(t, 2, st.PerDifficulty["3"])
	assert.Equal(t, 4, st.PerDifficulty["unknown"])
	assert.Equal(t, 2.33, st.Interview.CoverageRatio)
	assert.Equal(t, 2, st.Interview.UniqueInterviewCapacity)
	assert.Equal(t, []string{"technical"}, st.Interview.MissingStages)
	assert.Equal(t, "v-test", st.Interview.PlanVersion)
}
