package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrNotFound is returned when a key or prefix does not exist.
var ErrNotFound = errors.New("object not found")

// ErrTooLarge is returned by ReadAll when an object exceeds its limit.
var ErrTooLarge = errors.New("object too large")

// Info describes one listed object.
type Info struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// Store is a read-only view over a bucket or directory of catalog files.
type Store interface {
	// List returns the objects under prefix ordered by key.
	List(ctx context.Context, prefix string) ([]Info, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// ReadAll reads key into memory, failing with ErrTooLarge past limit bytes.
func ReadAll(ctx context.Context, s Store, key string, limit int64) ([]byte, error) {
	rc, err := s.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, key, limit)
	}
	return data, nil
}
