package queue

import "context"

// Publisher delivers interview events to downstream consumers.
// Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}
