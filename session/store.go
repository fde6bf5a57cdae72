package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when no session record is persisted.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionCorrupt is returned when the persisted record cannot be decoded.
var ErrSessionCorrupt = errors.New("session record corrupt")

// ErrRedisUnavailable wraps transport-level store failures.
var ErrRedisUnavailable = errors.New("session store unavailable")

const defaultKey = "menugate:session"

// Store persists the single session record under a well-known key.
type Store struct {
	redis redis.UniversalClient
	key   string
}

// NewStore creates a session [Store]. An empty key selects the default
// well-known key.
func NewStore(redisClient redis.UniversalClient, key string) *Store {
	if key == "" {
		key = defaultKey
	}
	return &Store{
		redis: redisClient,
		key:   key,
	}
}

// Load reads the persisted record. A missing key yields [ErrSessionNotFound];
// an undecodable blob yields [ErrSessionCorrupt].
func (s *Store) Load(ctx context.Context) (*Record, error) {
	data, err := s.redis.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCorrupt, err)
	}

	return &rec, nil
}

// Save replaces the persisted record wholesale.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if rec == nil {
		return errors.New("nil session record")
	}

	encoded, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key, encoded, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Delete removes the persisted record. Deleting an absent record is not an
// error.
func (s *Store) Delete(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
