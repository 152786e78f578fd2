package sessions

import (
	"context"
	"errors"
	"sync"
)

// MemoryRepo keeps sessions in process memory and is safe for concurrent use.
type MemoryRepo struct {
	mu     sync.RWMutex
	byID   map[string]Session
	byUser map[string]map[string]struct{}
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:   make(map[string]Session),
		byUser: make(map[string]map[string]struct{}),
	}
}

// Create stores a new session.
func (r *MemoryRepo) Create(ctx context.Context, s Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[s.ID]; ok {
		return ErrAlreadyExists
	}
	r.byID[s.ID] = s.clone()
	if s.UserID != "" {
		if r.byUser[s.UserID] == nil {
			r.byUser[s.UserID] = make(map[string]struct{})
		}
		r.byUser[s.UserID][s.ID] = struct{}{}
	}
	return nil
}

// Get returns a copy of the session.
func (r *MemoryRepo) Get(ctx context.Context, sessionID string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[sessionID]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s.clone(), nil
}

// Mutate applies fn to a copy and swaps it in when fn succeeds.
func (r *MemoryRepo) Mutate(ctx context.Context, sessionID string, fn func(*Session) error) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.byID[sessionID]
	if !ok {
		return Session{}, ErrNotFound
	}
	next := current.clone()
	if err := fn(&next); err != nil {
		if errors.Is(err, errUnchanged) {
			return current.clone(), nil
		}
		return Session{}, err
	}
	r.byID[sessionID] = next
	return next.clone(), nil
}

// ListByUser returns copies of every session owned by userID.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byUser[userID]
	out := make([]Session, 0, len(ids))
	for id := range ids {
		out = append(out, r.byID[id].clone())
	}
	sortByStart(out)
	return out, nil
}

// Delete removes a session.
func (r *MemoryRepo) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[sessionID]
	if !ok {
		return ErrNotFound
	}
	delete(r.byID, sessionID)
	if ids := r.byUser[s.UserID]; ids != nil {
		delete(ids, sessionID)
		if len(ids) == 0 {
			delete(r.byUser, s.UserID)
		}
	}
	return nil
}

var _ Store = (*MemoryRepo)(nil)
