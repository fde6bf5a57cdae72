package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrSnapshotNotFound is returned when no snapshot exists for a key.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ErrSnapshotUnavailable wraps transport-level snapshot-store failures.
var ErrSnapshotUnavailable = errors.New("snapshot store unavailable")

const defaultSnapshotPrefix = "menugate:snapshot"

// SnapshotStore keeps the last known-good copy of each read path's result.
type SnapshotStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewSnapshotStore creates a [SnapshotStore]. An empty prefix selects the
// default well-known prefix.
func NewSnapshotStore(redisClient redis.UniversalClient, prefix string) *SnapshotStore {
	if prefix == "" {
		prefix = defaultSnapshotPrefix
	}
	return &SnapshotStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *SnapshotStore) storageKey(key string) string {
	return s.prefix + ":" + key
}

// Put replaces the snapshot for key wholesale with the JSON encoding of
// value.
func (s *SnapshotStore) Put(ctx context.Context, key string, value any) error {
	if key == "" {
		return errors.New("snapshot key required")
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.storageKey(key), encoded, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotUnavailable, err)
	}

	return nil
}

// Get returns the decoded snapshot for key, or [ErrSnapshotNotFound].
func (s *SnapshotStore) Get(ctx context.Context, key string) (any, error) {
	data, err := s.redis.Get(ctx, s.storageKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrSnapshotUnavailable, err)
	}

	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotNotFound, err)
	}

	return value, nil
}

// Delete removes the snapshot for key. Deleting an absent snapshot is not an
// error.
func (s *SnapshotStore) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.storageKey(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotUnavailable, err)
	}
	return nil
}
