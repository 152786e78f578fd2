package sessions

import (
	"context"
	"regexp"
)

// Store is the key-value contract every session backend implements.
// Mutate must apply fn and write the whole record atomically for that session;
// when fn returns an error nothing is written.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, sessionID string) (Session, error)
	Mutate(ctx context.Context, sessionID string, fn func(*Session) error) (Session, error)
	ListByUser(ctx context.Context, userID string) ([]Session, error)
	Delete(ctx context.Context, sessionID string) error
}

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidID reports whether id is safe to use as a storage key.
func ValidID(id string) bool {
	return validID.MatchString(id)
}
