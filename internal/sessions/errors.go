package sessions

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("session not found")
	ErrAlreadyExists = errors.New("session already exists")
	ErrCompleted     = errors.New("session already completed")
	ErrInvalidID     = errors.New("invalid session id")

	// errUnchanged lets a mutation skip the write when it has nothing to change.
	errUnchanged = errors.New("unchanged")
)

// PersistenceError wraps a backend failure for one session.
type PersistenceError struct {
	Op        string
	SessionID string
	Err       error
}

func (e *PersistenceError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("session store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("session store %s %s: %v", e.Op, e.SessionID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func wrap(op, sessionID string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrAlreadyExists),
		errors.Is(err, ErrCompleted), errors.Is(err, ErrInvalidID):
		return err
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, SessionID: sessionID, Err: err}
}
