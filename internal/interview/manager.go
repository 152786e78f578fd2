package interview

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"mockmate/internal/queue"
	"mockmate/internal/sessions"
)

// Manager holds one engine per active session. Engines are created on start
// and dropped by EvictIdle; the persisted session outlives its engine.
type Manager struct {
	deps   Deps
	events queue.Publisher
	logger *zap.Logger

	mu      sync.Mutex
	engines map[string]*entry
}

type entry struct {
	engine      *Engine
	lastTouched time.Time
}

// NewManager builds a Manager. events may be nil, in which case completions are not published.
func NewManager(deps Deps, events queue.Publisher) *Manager {
	deps = deps.withDefaults()
	return &Manager{
		deps:    deps,
		events:  events,
		logger:  deps.Logger,
		engines: make(map[string]*entry),
	}
}

// Start begins a new interview and registers its engine.
func (m *Manager) Start(ctx context.Context, in StartInput) (StartResult, error) {
	engine := NewEngine(m.deps)
	res, err := engine.Start(ctx, in)
	if err != nil {
		return StartResult{}, err
	}

	m.mu.Lock()
	m.engines[res.SessionID] = &entry{engine: engine, lastTouched: m.deps.Now()}
	active := len(m.engines)
	m.mu.Unlock()

	m.deps.Metrics.SetActive(active)
	return res, nil
}

// Engine returns the engine of sessionID, or sessions.ErrNotFound when it is not held.
func (m *Manager) Engine(sessionID string) (*Engine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.engines[sessionID]
	if !ok {
		return nil, sessions.ErrNotFound
	}
	e.lastTouched = m.deps.Now()
	return e.engine, nil
}

// NextQuestion returns the current question of sessionID.
func (m *Manager) NextQuestion(ctx context.Context, sessionID string) (*Question, error) {
	engine, err := m.Engine(sessionID)
	if err != nil {
		return nil, err
	}
	return engine.NextQuestion(ctx)
}

// SubmitAnswer forwards an answer to the engine of sessionID.
func (m *Manager) SubmitAnswer(ctx context.Context, sessionID, questionID, answer string) (SubmitResult, error) {
	engine, err := m.Engine(sessionID)
	if err != nil {
		return SubmitResult{}, err
	}
	return engine.SubmitAnswer(ctx, questionID, answer)
}

// Skip skips the current question of sessionID.
func (m *Manager) Skip(ctx context.Context, sessionID string) (SubmitResult, error) {
	engine, err := m.Engine(sessionID)
	if err != nil {
		return SubmitResult{}, err
	}
	return engine.Skip(ctx)
}

// Summary seals sessionID and publishes a completion event the first time.
func (m *Manager) Summary(ctx context.Context, sessionID, requestID string) (sessions.Summary, error) {
	engine, err := m.Engine(sessionID)
	if err != nil {
		return sessions.Summary{}, err
	}
	sum, sealed, err := engine.Summary(ctx)
	if err != nil {
		return sessions.Summary{}, err
	}
	if sealed {
		m.publishCompleted(ctx, sum, requestID)
	}
	return sum, nil
}

// State returns the state snapshot of sessionID.
func (m *Manager) State(sessionID string) (State, error) {
	engine, err := m.Engine(sessionID)
	if err != nil {
		return State{}, err
	}
	return engine.State(), nil
}

// Stats reads statistics from the session store, so it also works for evicted sessions.
func (m *Manager) Stats(ctx context.Context, sessionID string) (sessions.Stats, error) {
	return m.deps.Sessions.Stats(ctx, sessionID)
}

// Active returns the number of engines held.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.engines)
}

// EvictIdle drops engines untouched for longer than ttl and returns how many were dropped.
func (m *Manager) EvictIdle(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	cutoff := m.deps.Now().Add(-ttl)

	m.mu.Lock()
	var evicted []string
	for id, e := range m.engines {
		if e.lastTouched.Before(cutoff) {
			delete(m.engines, id)
			evicted = append(evicted, id)
		}
	}
	active := len(m.engines)
	m.mu.Unlock()

	if len(evicted) > 0 {
		m.deps.Metrics.SetActive(active)
		m.logger.Info("evicted idle interviews", zap.Int("evicted", len(evicted)), zap.Int("active", active))
	}
	return len(evicted)
}

// RunEvictor calls EvictIdle every interval until ctx is done.
func (m *Manager) RunEvictor(ctx context.Context, interval, ttl time.Duration) {
	if interval <= 0 || ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.EvictIdle(ttl)
		}
	}
}

func (m *Manager) publishCompleted(ctx context.Context, sum sessions.Summary, requestID string) {
	if m.events == nil {
		return
	}
	msg := queue.Message{
		Type:           queue.TypeInterviewCompleted,
		SessionID:      sum.SessionID,
		UserID:         sum.UserID,
		Role:           sum.Role,
		Level:          sum.Level,
		QuestionsAsked: sum.QuestionsAsked,
		EndedEarly:     sum.EndedEarly,
		CompletedAt:    sum.CompletedAt.UTC().Format(time.RFC3339),
		RequestID:      requestID,
		Version:        queue.MessageVersion,
	}
	if err := m.events.Publish(ctx, msg); err != nil {
		m.logger.Warn("publish interview completed failed",
			zap.String("session_id", sum.SessionID),
			zap.Error(err),
		)
	}
}
