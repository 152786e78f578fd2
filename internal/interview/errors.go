package interview

import "errors"

// MismatchMessage is the error text of a submission for a question that is not current.
const MismatchMessage = "Question ID mismatch"

var (
	ErrNotStarted       = errors.New("interview not started")
	ErrAlreadyStarted   = errors.New("interview already started")
	ErrSessionCompleted = errors.New("interview already completed")
	ErrStageEmpty       = errors.New("no questions available for stage")
	ErrInvalidInput     = errors.New("invalid interview input")
)
