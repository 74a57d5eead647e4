package training

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultHistory is the number of examples a recorder keeps by default.
const DefaultHistory = 500

// Recorder keeps submitted examples for later inspection.
type Recorder interface {
	Record(ctx context.Context, ex Example) error
	// Recent returns up to n examples, newest first. Non-positive n returns all kept examples.
	Recent(ctx context.Context, n int) ([]Example, error)
}

// MemoryRecorder keeps the latest examples in a fixed-size ring.
type MemoryRecorder struct {
	items []Example
	next  int
	full  bool
	mu    sync.Mutex
}

// NewMemoryRecorder creates a ring of the given capacity (DefaultHistory if non-positive).
func NewMemoryRecorder(capacity int) *MemoryRecorder {
	if capacity <= 0 {
		capacity = DefaultHistory
	}
	return &MemoryRecorder{items: make([]Example, capacity)}
}

func (r *MemoryRecorder) Record(_ context.Context, ex Example) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[r.next] = ex
	r.next = (r.next + 1) % len(r.items)
	if r.next == 0 {
		r.full = true
	}
	return nil
}

func (r *MemoryRecorder) Recent(_ context.Context, n int) ([]Example, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := r.next
	if r.full {
		size = len(r.items)
	}
	if n <= 0 || n > size {
		n = size
	}

	out := make([]Example, 0, n)
	for i := 1; i <= n; i++ {
		idx := (r.next - i + len(r.items)) % len(r.items)
		out = append(out, r.items[idx])
	}
	return out, nil
}

// RedisRecorder keeps examples as JSON in a capped Redis list.
type RedisRecorder struct {
	client   goredis.UniversalClient
	key      string
	capacity int64
}

// NewRedisRecorder stores up to capacity examples under key.
func NewRedisRecorder(client goredis.UniversalClient, key string, capacity int) *RedisRecorder {
	if capacity <= 0 {
		capacity = DefaultHistory
	}
	return &RedisRecorder{client: client, key: key, capacity: int64(capacity)}
}

func (r *RedisRecorder) Record(ctx context.Context, ex Example) error {
	data, err := json.Marshal(ex)
	if err != nil {
		return errors.Join(ErrRecorderFailure, err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, r.key, data)
	pipe.LTrim(ctx, r.key, 0, r.capacity-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Join(ErrRecorderFailure, err)
	}
	return nil
}

func (r *RedisRecorder) Recent(ctx context.Context, n int) ([]Example, error) {
	stop := int64(n) - 1
	if n <= 0 || int64(n) > r.capacity {
		stop = r.capacity - 1
	}

	raw, err := r.client.LRange(ctx, r.key, 0, stop).Result()
	if err != nil {
		return nil, errors.Join(ErrRecorderFailure, err)
	}

	out := make([]Example, 0, len(raw))
	for _, item := range raw {
		var ex Example
		if err := json.Unmarshal([]byte(item), &ex); err != nil {
			return nil, errors.Join(ErrRecorderFailure, err)
		}
		out = append(out, ex)
	}
	return out, nil
}
