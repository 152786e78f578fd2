package usage

import "errors"

// ErrEmptyQuestionID indicates a counter was addressed without an id.
var ErrEmptyQuestionID = errors.New("question id is required")
