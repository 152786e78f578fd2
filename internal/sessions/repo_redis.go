package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"mockmate/internal/shared/util"
)

const redisMaxRetries = 5

// RedisRepo stores each session as one JSON value and indexes sessions per user in a set.
// Mutations use WATCH/MULTI so concurrent writers to one session never interleave.
type RedisRepo struct {
	client *redis.Client
	prefix string
}

// NewRedisRepo returns a RedisRepo. prefix namespaces every key.
func NewRedisRepo(client *redis.Client, prefix string) *RedisRepo {
	if prefix == "" {
		prefix = "mockmate"
	}
	return &RedisRepo{client: client, prefix: prefix}
}

func (r *RedisRepo) sessionKey(id string) string {
	return fmt.Sprintf("%s:session:%s", r.prefix, id)
}

func (r *RedisRepo) userKey(userID string) string {
	return fmt.Sprintf("%s:user:%s:sessions", r.prefix, util.HashUserKey(userID))
}

// Create stores a new session if the id is unused.
func (r *RedisRepo) Create(ctx context.Context, s Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ok, err := r.client.SetNX(ctx, r.sessionKey(s.ID), payload, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadyExists
	}
	if s.UserID != "" {
		if err := r.client.SAdd(ctx, r.userKey(s.UserID), s.ID).Err(); err != nil {
			return err
		}
	}
	return nil
}

// Get loads a session by id.
func (r *RedisRepo) Get(ctx context.Context, sessionID string) (Session, error) {
	data, err := r.client.Get(ctx, r.sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	return decodeSession(data)
}

// Mutate applies fn under optimistic locking, retrying when another writer wins.
func (r *RedisRepo) Mutate(ctx context.Context, sessionID string, fn func(*Session) error) (Session, error) {
	key := r.sessionKey(sessionID)
	var result Session

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return err
		}
		current, err := decodeSession(data)
		if err != nil {
			return err
		}
		next := current.clone()
		if err := fn(&next); err != nil {
			if errors.Is(err, errUnchanged) {
				result = current
				return nil
			}
			return err
		}
		payload, err := json.Marshal(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		if err == nil {
			result = next
		}
		return err
	}

	for i := 0; i < redisMaxRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return Session{}, err
	}
	return Session{}, fmt.Errorf("mutate %s: too much contention", sessionID)
}

// ListByUser loads every session indexed under userID.
func (r *RedisRepo) ListByUser(ctx context.Context, userID string) ([]Session, error) {
	ids, err := r.client.SMembers(ctx, r.userKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.sessionKey(id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Session, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		s, err := decodeSession([]byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	sortByStart(out)
	return out, nil
}

// Delete removes a session and its user index entry.
func (r *RedisRepo) Delete(ctx context.Context, sessionID string) error {
	s, err := r.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.sessionKey(sessionID))
		if s.UserID != "" {
			pipe.SRem(ctx, r.userKey(s.UserID), sessionID)
		}
		return nil
	})
	return err
}

func decodeSession(data []byte) (Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	return s, nil
}

var _ Store = (*RedisRepo)(nil)
