package sessions

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Service is the session ledger used by the interview engine.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService wraps store. Every backend error leaves as ErrNotFound,
// a sentinel from this package, or a *PersistenceError.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the clock used for timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create persists a new in-progress session.
func (s *Service) Create(ctx context.Context, sessionID string, meta Meta) (Session, error) {
	if !ValidID(sessionID) {
		return Session{}, ErrInvalidID
	}
	now := s.now()
	sess := Session{
		ID:               sessionID,
		UserID:           strings.TrimSpace(meta.UserID),
		Role:             meta.Role,
		Level:            meta.Level,
		AskedQuestions:   []AskedQuestion{},
		AskedQuestionIDs: []string{},
		Status:           StatusInProgress,
		StartedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return Session{}, wrap("create", sessionID, err)
	}
	s.logger.Info("session created",
		zap.String("session_id", sessionID),
		zap.String("user_id", sess.UserID),
		zap.String("role", sess.Role),
		zap.String("level", sess.Level),
	)
	return sess, nil
}

// Get returns the session or ErrNotFound.
func (s *Service) Get(ctx context.Context, sessionID string) (Session, error) {
	if !ValidID(sessionID) {
		return Session{}, ErrNotFound
	}
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return Session{}, wrap("get", sessionID, err)
	}
	return sess, nil
}

// AddAskedQuestion appends q to the ledger. Adding an id twice is a no-op.
func (s *Service) AddAskedQuestion(ctx context.Context, sessionID string, q AskedQuestion) error {
	if !ValidID(sessionID) {
		return ErrNotFound
	}
	if q.AskedAt.IsZero() {
		q.AskedAt = s.now()
	}
	_, err := s.store.Mutate(ctx, sessionID, func(sess *Session) error {
		if sess.HasAsked(q.QuestionID) {
			return errUnchanged
		}
		if sess.Status == StatusCompleted {
			return ErrCompleted
		}
		sess.AskedQuestions = append(sess.AskedQuestions, q)
		sess.AskedQuestionIDs = append(sess.AskedQuestionIDs, q.QuestionID)
		sess.UpdatedAt = s.now()
		return nil
	})
	return wrap("add_asked_question", sessionID, err)
}

// AskedQuestionIDs returns the ledger of one session in ask order.
func (s *Service) AskedQuestionIDs(ctx context.Context, sessionID string) ([]string, error) {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.AskedQuestionIDs, nil
}

// PreviouslyAskedQuestionIDs returns the union of ledgers across the user's
// other sessions, in first-seen order.
func (s *Service) PreviouslyAskedQuestionIDs(ctx context.Context, userID, excludeSessionID string) ([]string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, nil
	}
	list, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, wrap("list_by_user", "", err)
	}
	sortByStart(list)

	seen := make(map[string]struct{})
	var out []string
	for _, sess := range list {
		if sess.ID == excludeSessionID {
			continue
		}
		for _, id := range sess.AskedQuestionIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out, nil
}

// Complete seals the session with summary. Completing twice keeps the first summary.
func (s *Service) Complete(ctx context.Context, sessionID string, summary Summary) (Session, error) {
	if !ValidID(sessionID) {
		return Session{}, ErrNotFound
	}
	sess, err := s.store.Mutate(ctx, sessionID, func(sess *Session) error {
		if sess.Status == StatusCompleted {
			return errUnchanged
		}
		completedAt := summary.CompletedAt
		if completedAt.IsZero() {
			completedAt = s.now()
		}
		sess.Status = StatusCompleted
		sess.CompletedAt = &completedAt
		sum := summary.clone()
		sess.Summary = &sum
		sess.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return Session{}, wrap("complete", sessionID, err)
	}
	s.logger.Info("session completed",
		zap.String("session_id", sessionID),
		zap.Int("questions_asked", len(sess.AskedQuestionIDs)),
	)
	return sess, nil
}

// Stats returns counts and duration. Duration is only reported once completed.
func (s *Service) Stats(ctx context.Context, sessionID string) (Stats, error) {
	sess, err := s.Get(ctx, sessionID)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{
		SessionID:      sess.ID,
		Status:         sess.Status,
		QuestionsAsked: len(sess.AskedQuestionIDs),
		StartedAt:      sess.StartedAt,
		CompletedAt:    sess.CompletedAt,
	}
	if sess.CompletedAt != nil {
		d := DurationMinutes(sess.StartedAt, *sess.CompletedAt)
		st.DurationMinutes = &d
	}
	return st, nil
}

// Cleanup deletes all but the newest keep sessions of userID and returns how many were removed.
func (s *Service) Cleanup(ctx context.Context, userID string, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	list, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return 0, wrap("list_by_user", "", err)
	}
	if len(list) <= keep {
		return 0, nil
	}
	sortByStart(list)
	stale := list[:len(list)-keep]

	removed := 0
	for _, sess := range stale {
		if err := s.store.Delete(ctx, sess.ID); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return removed, wrap("delete", sess.ID, err)
		}
		removed++
	}
	s.logger.Info("sessions cleaned up",
		zap.String("user_id", userID),
		zap.Int("kept", keep),
		zap.Int("removed", removed),
	)
	return removed, nil
}

// DurationMinutes rounds the elapsed time between start and end to whole minutes.
func DurationMinutes(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	return int(math.Round(end.Sub(start).Minutes()))
}

func sortByStart(list []Session) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].StartedAt.Equal(list[j].StartedAt) {
			return list[i].StartedAt.Before(list[j].StartedAt)
		}
		return list[i].ID < list[j].ID
	})
}
