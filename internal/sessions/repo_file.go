package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

const sessionFileExt = ".json"

// FileRepo stores one JSON file per session. Every write goes to a temp file
// in the same directory and is renamed over the record, so readers never see
// a partial record.
type FileRepo struct {
	dir    string
	logger *zap.Logger
	locks  sync.Map
}

// NewFileRepo creates dir if needed and returns a FileRepo rooted there.
func NewFileRepo(dir string, logger *zap.Logger) (*FileRepo, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("session directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir sessions: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileRepo{dir: dir, logger: logger}, nil
}

// Create writes a new session record.
func (r *FileRepo) Create(ctx context.Context, s Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ValidID(s.ID) {
		return ErrInvalidID
	}
	mu := r.lock(s.ID)
	mu.Lock()
	defer mu.Unlock()

	if _, err := os.Stat(r.path(s.ID)); err == nil {
		return ErrAlreadyExists
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return r.write(s)
}

// Get reads a session record.
func (r *FileRepo) Get(ctx context.Context, sessionID string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	if !ValidID(sessionID) {
		return Session{}, ErrNotFound
	}
	return r.read(r.path(sessionID))
}

// Mutate reads, applies fn and atomically replaces the record while holding the session lock.
func (r *FileRepo) Mutate(ctx context.Context, sessionID string, fn func(*Session) error) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	if !ValidID(sessionID) {
		return Session{}, ErrNotFound
	}
	mu := r.lock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	current, err := r.read(r.path(sessionID))
	if err != nil {
		return Session{}, err
	}
	next := current.clone()
	if err := fn(&next); err != nil {
		if errors.Is(err, errUnchanged) {
			return current, nil
		}
		return Session{}, err
	}
	if err := r.write(next); err != nil {
		return Session{}, err
	}
	return next, nil
}

// ListByUser scans the directory for records owned by userID. Unreadable records are skipped.
func (r *FileRepo) ListByUser(ctx context.Context, userID string) ([]Session, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, err
	}
	var out []Session
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, sessionFileExt) {
			continue
		}
		s, err := r.read(filepath.Join(r.dir, name))
		if err != nil {
			r.logger.Warn("skipping unreadable session file", zap.String("file", name), zap.Error(err))
			continue
		}
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	sortByStart(out)
	return out, nil
}

// Delete removes a session record.
func (r *FileRepo) Delete(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ValidID(sessionID) {
		return ErrNotFound
	}
	mu := r.lock(sessionID)
	mu.Lock()
	defer mu.Unlock()
	if err := os.Remove(r.path(sessionID)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (r *FileRepo) lock(sessionID string) *sync.Mutex {
	mu, _ := r.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (r *FileRepo) path(sessionID string) string {
	return filepath.Join(r.dir, sessionID+sessionFileExt)
}

func (r *FileRepo) read(path string) (Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return s, nil
}

func (r *FileRepo) write(s Session) (err error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	tmp, err := os.CreateTemp(r.dir, "."+s.ID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err = os.Rename(tmpPath, r.path(s.ID)); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

var _ Store = (*FileRepo)(nil)
