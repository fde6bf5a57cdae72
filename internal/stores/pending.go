package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrPendingUnavailable wraps transport-level pending-store failures.
var ErrPendingUnavailable = errors.New("pending store unavailable")

const defaultPendingKey = "menugate:pending"

// PendingRecord is the persisted form of a queued mutation. JSON field names
// are a fixed cross-system contract; do not rename them.
type PendingRecord struct {
	ID         string          `json:"id"`
	EntityID   string          `json:"entityId"`
	ChangeType string          `json:"changeType"`
	ChangeData json.RawMessage `json:"changeData"`
	Timestamp  time.Time       `json:"timestamp"`
}

// PendingStore keeps the ordered list of unconfirmed mutations under a single
// well-known Redis key.
type PendingStore struct {
	redis redis.UniversalClient
	key   string
}

// NewPendingStore creates a [PendingStore]. An empty key selects the default
// well-known key.
func NewPendingStore(redisClient redis.UniversalClient, key string) *PendingStore {
	if key == "" {
		key = defaultPendingKey
	}
	return &PendingStore{
		redis: redisClient,
		key:   key,
	}
}

// Append adds the record to the tail of the list.
func (s *PendingStore) Append(ctx context.Context, rec *PendingRecord) error {
	if rec == nil {
		return errors.New("nil pending record")
	}
	if rec.ID == "" {
		return errors.New("pending record id required")
	}

	encoded, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	if err := s.redis.RPush(ctx, s.key, encoded).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrPendingUnavailable, err)
	}

	return nil
}

// List returns all pending records in enqueue order. An absent key is an
// empty list, not an error. Records that no longer decode are skipped rather
// than poisoning the whole queue.
func (s *PendingStore) List(ctx context.Context) ([]PendingRecord, error) {
	raw, err := s.redis.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrPendingUnavailable, err)
	}

	out := make([]PendingRecord, 0, len(raw))
	for _, item := range raw {
		var rec PendingRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}

	return out, nil
}

// Remove deletes the record with the given id, leaving the relative order of
// the remaining records untouched. Removing an absent id is a no-op.
func (s *PendingStore) Remove(ctx context.Context, id string) error {
	raw, err := s.redis.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrPendingUnavailable, err)
	}

	for _, item := range raw {
		var rec PendingRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			continue
		}
		if rec.ID != id {
			continue
		}
		// LREM matches by exact payload, so the decoded id maps back to
		// one stored element.
		if err := s.redis.LRem(ctx, s.key, 1, item).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrPendingUnavailable, err)
		}
		return nil
	}

	return nil
}

// Len returns the number of pending records.
func (s *PendingStore) Len(ctx context.Context) (int64, error) {
	n, err := s.redis.LLen(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrPendingUnavailable, err)
	}
	return n, nil
}
