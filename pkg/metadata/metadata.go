// Package metadata records one entry per training run.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Gopika-sys/Employee-Retention-Analysis/pkg/model"
)

// Record describes a trained model.
type Record struct {
	ID        string                     `json:"id"`
	Owner     string                     `json:"owner"`
	ModelName string                     `json:"model_name"`
	Accuracy  float64                    `json:"accuracy"`
	Report    model.ClassificationReport `json:"report"`
	TrainRows int                        `json:"train_rows"`
	TestRows  int                        `json:"test_rows"`
	CreatedAt time.Time                  `json:"created_at"`
}

// ModelName is the display name of an owner's model.
func ModelName(owner string) string { return "RandomForest_Model_" + owner }

// Store keeps training records per owner. List returns the newest first.
type Store interface {
	Put(ctx context.Context, r Record) error
	List(ctx context.Context, owner string) ([]Record, error)
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string][]Record{}}
}

func (m *MemoryStore) Put(_ context.Context, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.Owner] = append(m.records[r.Owner], r)
	return nil
}

func (m *MemoryStore) List(_ context.Context, owner string) ([]Record, error) {
	m.mu.RLock()
	out := make([]Record, 0, len(m.records[owner]))
	out = append(out, m.records[owner]...)
	m.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// RedisClient is the part of *redis.Client the store needs.
type RedisClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
}

// RedisStore keeps each owner's records as a JSON list, newest at the head.
type RedisStore struct {
	client RedisClient
	prefix string
}

func NewRedisStore(client RedisClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "retention:models:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) Put(ctx context.Context, rec Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("metadata: marshal: %w", err)
	}
	if err := r.client.LPush(ctx, r.prefix+rec.Owner, raw).Err(); err != nil {
		return fmt.Errorf("metadata: redis lpush %s: %w", rec.Owner, err)
	}
	return nil
}

func (r *RedisStore) List(ctx context.Context, owner string) ([]Record, error) {
	items, err := r.client.LRange(ctx, r.prefix+owner, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("metadata: redis lrange %s: %w", owner, err)
	}
	out := make([]Record, 0, len(items))
	for _, item := range items {
		var rec Record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("metadata: decode record for %s: %w", owner, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
