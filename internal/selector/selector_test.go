package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"mockmate/internal/questions"
)

func TestRoleMatchWinsOverMismatch(t *testing.T) {
	pool := []questions.Record{
		{ID: "1", Stage: "technical", Role: "backend", Difficulty: 4},
		{ID: "2", Stage: "technical", Role: "frontend", Difficulty: 4},
	}
	rec, ok := New(nil, nil).Select(Criteria{Stage: "technical", Role: "backend", Level: "senior"}, pool)
	require.True(t, ok)
	assert.Equal(t, "1", rec.ID)
}

func TestEmptyStageReturnsNothing(t *testing.T) {
	pool := []questions.Record{{ID: "1", Stage: "technical", Role: "any"}}
	_, ok := New(nil, nil).Select(Criteria{Stage: "behavioral", Role: "backend"}, pool)
	assert.False(t, ok)
}

func TestRoleFallsBackToDomainThenStage(t *testing.T) {
	pool := []questions.Record{
		{ID: "a", Stage: "technical", Role: "teacher", Domain: "education"},
		{ID: "b", Stage: "technical", Role: "devops", Domain: "software", UsageCount: 3},
	}
	sel := New(nil, nil)

	res := sel.Trace(Criteria{Stage: "technical", Role: "backend engineer"}, pool)
	require.NotNil(t, res.Question)
	assert.Equal(t, "b", res.Question.ID)
	assert.Equal(t, "role_domain", res.Steps[1].Tier)

	rec, ok := sel.Select(Criteria{Stage: "technical", Role: "astronaut"}, pool)
	require.True(t, ok)
	assert.Equal(t, "a", rec.ID, "general domain has no match so all stage records compete on usage")
}

func TestAnyRoleIncludedWithExactMatch(t *testing.T) {
	pool := []questions.Record{
		{ID: "generic", Stage: "warmup", Role: "any"},
		{ID: "fe", Stage: "warmup", Role: "frontend", UsageCount: 1},
		{ID: "be", Stage: "warmup", Role: "backend", UsageCount: 2},
	}
	got := New(nil, nil).SelectMultiple(Criteria{Stage: "warmup", Role: "backend"}, pool, 5)
	ids := make([]string, 0, len(got))
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"generic", "be"}, ids)
}

func TestDifficultyBandWithFallback(t *testing.T) {
	pool := []questions.Record{
		{ID: "easy", Stage: "technical", Role: "any", Difficulty: 1},
		{ID: "hard", Stage: "technical", Role: "any", Difficulty: 5, UsageCount: 2},
	}
	sel := New(nil, nil)

	rec, _ := sel.Select(Criteria{Stage: "technical", Level: "senior"}, pool)
	assert.Equal(t, "hard", rec.ID)

	rec, _ = sel.Select(Criteria{Stage: "technical", Level: "intern"}, pool)
	assert.Equal(t, "easy", rec.ID)

	res := sel.Trace(Criteria{Stage: "technical", Level: "mid"}, pool)
	require.NotNil(t, res.Question)
	assert.Equal(t, "easy", res.Question.ID)
	assert.True(t, res.Steps[2].Fallback)
}

func TestUnratedDifficultyPassesBand(t *testing.T) {
	pool := []questions.Record{
		{ID: "rated", Stage: "technical", Role: "any", Difficulty: 1},
		{ID: "unrated", Stage: "technical", Role: "any"},
	}
	rec, _ := New(nil, nil).Select(Criteria{Stage: "technical", Level: "senior"}, pool)
	assert.Equal(t, "unrated", rec.ID)
}

func TestTopicsPreferMatchingSkill(t *testing.T) {
	pool := []questions.Record{
		{ID: "java", Stage: "resume_based", Role: "any", Skill: "java"},
		{ID: "react", Stage: "resume_based", Role: "any", Skill: "react", UsageCount: 5},
	}
	sel := New(nil, nil)
	rec, _ := sel.Select(Criteria{Stage: "resume_based", Topics: []string{"react"}}, pool)
	assert.Equal(t, "react", rec.ID)

	rec, _ = sel.Select(Criteria{Stage: "resume_based", Topics: []string{"cloud"}}, pool)
	assert.Equal(t, "java", rec.ID)
}

func TestExclusionAndRecycleSignal(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	var recycled []string
	sel := New(zap.New(core), func(stage string) { recycled = append(recycled, stage) })

	pool := []questions.Record{
		{ID: "1", Stage: "technical", Role: "any"},
		{ID: "2", Stage: "technical", Role: "any", UsageCount: 1},
	}

	res := sel.Trace(Criteria{Stage: "technical", ExcludeIDs: []string{"1"}}, pool)
	require.NotNil(t, res.Question)
	assert.Equal(t, "2", res.Question.ID)
	assert.False(t, res.Recycled)
	assert.Equal(t, 0, logs.Len())

	res = sel.Trace(Criteria{Stage: "technical", ExcludeIDs: []string{"1", "2"}}, pool)
	require.NotNil(t, res.Question)
	assert.Equal(t, "1", res.Question.ID)
	assert.True(t, res.Recycled)
	assert.Equal(t, 1, logs.FilterMessage("pool exhausted, recycling").Len())
	assert.Equal(t, []string{"technical"}, recycled)
}

func TestTieBreakUsageThenWeightThenID(t *testing.T) {
	pool := []questions.Record{
		{ID: "c", Stage: "technical", Role: "any", Weight: 1.0},
		{ID: "b", Stage: "technical", Role: "any"},
		{ID: "a", Stage: "technical", Role: "any"},
		{ID: "z", Stage: "technical", Role: "any", Weight: 3.0, UsageCount: 1},
	}
	got := New(nil, nil).SelectMultiple(Criteria{Stage: "technical"}, pool, 4)
	ids := make([]string, 0, len(got))
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"a", "b", "c", "z"}, ids)
}

func TestSelectDoesNotMutatePool(t *testing.T) {
	pool := []questions.Record{
		{ID: "b", Stage: "technical", Role: "any", UsageCount: 2},
		{ID: "a", Stage: "technical", Role: "any"},
	}
	_, _ = New(nil, nil).Select(Criteria{Stage: "technical"}, pool)
	assert.Equal(t, "b", pool[0].ID)
}

func TestSelectMultipleStopsWhenPoolRecycles(t *testing.T) {
	pool := []questions.Record{
		{ID: "1", Stage: "hr_closing", Role: "any"},
		{ID: "2", Stage: "hr_closing", Role: "any"},
	}
	got := New(nil, nil).SelectMultiple(Criteria{Stage: "hr_closing"}, pool, 5)
	assert.Len(t, got, 2)
}
