package devserver

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Registry tracks live sessions. A session stays live while it is touched
// more often than its TTL.
type Registry interface {
	Add(ctx context.Context, userID int64, jti string, ttl time.Duration) error
	// Touch extends a live session and reports whether it was live.
	Touch(ctx context.Context, userID int64, jti string, ttl time.Duration) (bool, error)
	Remove(ctx context.Context, userID int64, jti string) error
	RemoveAll(ctx context.Context, userID int64) error
	Live(ctx context.Context, userID int64) (int, error)
}

// MemoryRegistry keeps sessions in process memory.
type MemoryRegistry struct {
	mu       sync.Mutex
	now      func() time.Time
	sessions map[int64]map[string]time.Time
}

// NewMemoryRegistry returns an empty registry. A nil now uses time.Now.
func NewMemoryRegistry(now func() time.Time) *MemoryRegistry {
	if now == nil {
		now = time.Now
	}
	return &MemoryRegistry{now: now, sessions: map[int64]map[string]time.Time{}}
}

func (r *MemoryRegistry) Add(_ context.Context, userID int64, jti string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prune(userID)
	if r.sessions[userID] == nil {
		r.sessions[userID] = map[string]time.Time{}
	}
	r.sessions[userID][jti] = r.now().Add(ttl)
	return nil
}

func (r *MemoryRegistry) Touch(_ context.Context, userID int64, jti string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prune(userID)
	if _, ok := r.sessions[userID][jti]; !ok {
		return false, nil
	}
	r.sessions[userID][jti] = r.now().Add(ttl)
	return true, nil
}

func (r *MemoryRegistry) Remove(_ context.Context, userID int64, jti string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions[userID], jti)
	return nil
}

func (r *MemoryRegistry) RemoveAll(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
	return nil
}

func (r *MemoryRegistry) Live(_ context.Context, userID int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prune(userID)
	return len(r.sessions[userID]), nil
}

func (r *MemoryRegistry) prune(userID int64) {
	now := r.now()
	for jti, expires := range r.sessions[userID] {
		if !now.Before(expires) {
			delete(r.sessions[userID], jti)
		}
	}
}

// RedisRegistry stores one key per session and lets Redis expire it.
type RedisRegistry struct {
	client *redis.Client
	prefix string
}

// NewRedisRegistry connects to redisURL and checks the connection.
func NewRedisRegistry(redisURL string) (*RedisRegistry, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisRegistryWithClient(client), nil
}

// NewRedisRegistryWithClient wraps an existing client.
func NewRedisRegistryWithClient(client *redis.Client) *RedisRegistry {
	return &RedisRegistry{client: client, prefix: "sommelier:session:"}
}

func (r *RedisRegistry) userPrefix(userID int64) string {
	return r.prefix + strconv.FormatInt(userID, 10) + ":"
}

func (r *RedisRegistry) key(userID int64, jti string) string {
	return r.userPrefix(userID) + jti
}

func (r *RedisRegistry) Add(ctx context.Context, userID int64, jti string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(userID, jti), time.Now().UTC().Format(time.RFC3339), ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *RedisRegistry) Touch(ctx context.Context, userID int64, jti string, ttl time.Duration) (bool, error) {
	ok, err := r.client.Expire(ctx, r.key(userID, jti), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("touch session: %w", err)
	}
	return ok, nil
}

func (r *RedisRegistry) Remove(ctx context.Context, userID int64, jti string) error {
	if err := r.client.Del(ctx, r.key(userID, jti)).Err(); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

func (r *RedisRegistry) RemoveAll(ctx context.Context, userID int64) error {
	keys, err := r.keys(ctx, userID)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("remove sessions: %w", err)
	}
	return nil
}

func (r *RedisRegistry) Live(ctx context.Context, userID int64) (int, error) {
	keys, err := r.keys(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

func (r *RedisRegistry) keys(ctx context.Context, userID int64) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.userPrefix(userID)+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan sessions: %w", err)
	}
	return keys, nil
}

// Ping checks if Redis is reachable.
func (r *RedisRegistry) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *RedisRegistry) Close() error {
	return r.client.Close()
}
