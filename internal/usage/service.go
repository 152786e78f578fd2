package usage

import (
	"context"
	"strings"
)

// Store persists question usage counters.
type Store interface {
	All(ctx context.Context) (map[string]int, error)
	Increment(ctx context.Context, questionID string) (int, error)
	Reset(ctx context.Context) error
}

// Service wraps a Store and satisfies questions.UsageStore.
type Service struct {
	store Store
}

// NewService builds a usage service. A nil store falls back to memory.
func NewService(store Store) *Service {
	if store == nil {
		store = newMemoryStore()
	}
	return &Service{store: store}
}

// NewMemoryService returns a Service backed by process memory.
func NewMemoryService() *Service {
	return NewService(newMemoryStore())
}

// All returns every persisted counter keyed by question id.
func (s *Service) All(ctx context.Context) (map[string]int, error) {
	return s.store.All(ctx)
}

// Increment adds one to the counter of questionID.
func (s *Service) Increment(ctx context.Context, questionID string) (int, error) {
	questionID = strings.TrimSpace(questionID)
	if questionID == "" {
		return 0, ErrEmptyQuestionID
	}
	return s.store.Increment(ctx, questionID)
}

// Reset clears every counter.
func (s *Service) Reset(ctx context.Context) error {
	return s.store.Reset(ctx)
}
