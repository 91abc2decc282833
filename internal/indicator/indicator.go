package indicator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"

	"github.com/unclebandit/opsboard-backend/internal/model"
)

// Indicator tracks short-lived "copied" markers.
type Indicator interface {
	Mark(ctx context.Context, key string, ttl time.Duration) error
	Active(ctx context.Context, key string) bool
}

// Key identifies the indicator for one trigger button of one operation.
func Key(operationID int, trigger model.Flag) string {
	return fmt.Sprintf("copied:%d:%s", operationID, trigger)
}

// Memory is a process-local Indicator.
type Memory struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{expires: map[string]time.Time{}, now: time.Now}
}

func (m *Memory) Mark(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expires[key] = m.now().Add(ttl)
	return nil
}

func (m *Memory) Active(_ context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.expires[key]
	if !ok {
		return false
	}
	if !m.now().Before(exp) {
		delete(m.expires, key)
		return false
	}
	return true
}

// Redis stores markers as keys with a PX expiry so every server instance sees them.
type Redis struct {
	client *redis.Client
}

func NewRedis(addr, password string, db int) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (r *Redis) Mark(ctx context.Context, key string, ttl time.Duration) error {
	return r.client.Set(ctx, key, 1, ttl).Err()
}

func (r *Redis) Active(ctx context.Context, key string) bool {
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("indicator lookup failed")
		return false
	}
	return n > 0
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

var (
	_ Indicator = (*Memory)(nil)
	_ Indicator = (*Redis)(nil)
)
