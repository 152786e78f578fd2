package questions

import "errors"

// ErrUnknownQuestion indicates the id is not in the catalog.
var ErrUnknownQuestion = errors.New("unknown question")
