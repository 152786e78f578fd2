package interview

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"mockmate/internal/questions"
	"mockmate/internal/queue"
	"mockmate/internal/sessions"
	"mockmate/internal/shared/metrics"
	"mockmate/internal/stages"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	deps    Deps
	clock   *clock
	repo    *questions.Repository
	store   *sessions.Service
	metrics *metrics.Metrics
}

// sevenQuestionPlan asks 1 intro, 1 resume, 3 technical, 1 behavioral and 1 closing question.
func sevenQuestionPlan(t *testing.T) *stages.Sequencer {
	t.Helper()
	plan, err := stages.NewSequencer(stages.Config{
		Version:        "test-v1",
		TotalQuestions: 7,
		StageOrder:     []string{"introduction", "resume_based", "technical", "behavioral", "hr_closing"},
		Quotas: map[string]int{
			"introduction": 1,
			"resume_based": 1,
			"technical":    3,
			"behavioral":   1,
			"hr_closing":   1,
		},
		Descriptions:   map[string]string{"technical": "Core technical knowledge"},
		ResumeTargeted: []string{"resume_based"},
	})
	require.NoError(t, err)
	return plan
}

func catalog() []questions.Record {
	return []questions.Record{
		{ID: "i1", Text: "Tell me about yourself", Stage: "introduction", Role: questions.RoleAny},
		{ID: "i2", Text: "Walk me through your background", Stage: "introduction", Role: questions.RoleAny},
		{ID: "r1", Text: "Describe a React project", Stage: "resume_based", Role: questions.RoleAny, Skill: "react"},
		{ID: "r2", Text: "Describe a Python service you built", Stage: "resume_based", Role: questions.RoleAny, Skill: "python"},
		{ID: "t1", Text: "Explain database indexes", Stage: "technical", Role: "backend", Difficulty: 3},
		{ID: "t2", Text: "How does TCP handle loss?", Stage: "technical", Role: "backend", Difficulty: 4},
		{ID: "t3", Text: "Design a rate limiter", Stage: "technical", Role: "backend", Difficulty: 5},
		{ID: "t4", Text: "Explain CSS specificity", Stage: "technical", Role: "frontend", Difficulty: 3},
		{ID: "t5", Text: "What is a goroutine?", Stage: "technical", Role: "backend", Difficulty: 3},
		{ID: "b1", Text: "Tell me about a conflict", Stage: "behavioral", Role: questions.RoleAny},
		{ID: "b2", Text: "Describe a failure", Stage: "behavioral", Role: questions.RoleAny},
		{ID: "h1", Text: "Where do you see yourself in five years?", Stage: "hr_closing", Role: questions.RoleAny},
	}
}

func newFixture(t *testing.T, records []questions.Record) *fixture {
	t.Helper()
	clk := newClock()
	repo := questions.NewRepository(records, nil, nil)
	store := sessions.NewService(sessions.NewMemoryRepo(), nil).WithClock(clk.Now)
	m := metrics.NewMetrics(prometheus.NewRegistry())
	return &fixture{
		deps: Deps{
			Plan:      sevenQuestionPlan(t),
			Questions: repo,
			Sessions:  store,
			Metrics:   m,
			Now:       clk.Now,
		},
		clock:   clk,
		repo:    repo,
		store:   store,
		metrics: m,
	}
}

func (f *fixture) usage(t *testing.T, id string) int {
	t.Helper()
	rec, ok := f.repo.Get(id)
	require.True(t, ok, id)
	return rec.UsageCount
}

type recordingQueue struct {
	mu   sync.Mutex
	msgs []queue.Message
	err  error
}

func (q *recordingQueue) Publish(ctx context.Context, msg queue.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.msgs = append(q.msgs, msg)
	return q.err
}

func (q *recordingQueue) sent() []queue.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]queue.Message(nil), q.msgs...)
}
