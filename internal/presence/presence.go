// Package presence mirrors this instance's live connection count into Redis
// so a fleet of these servers (or a load balancer in front of them) can make
// a shared back-pressure decision. It is a best-effort mirror: the
// in-process listener watermark remains authoritative for this instance
// regardless of what Redis reports, and a Redis outage must never block
// accepting connections.
package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ftp:presence:"

// Mirror maintains this instance's presence key in Redis.
type Mirror struct {
	client     *redis.Client
	instanceID string
	timeout    time.Duration
}

// New builds a Mirror from connection settings.
func New(addr, password string, db int, instanceID string) *Mirror {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &Mirror{client: client, instanceID: instanceID, timeout: 2 * time.Second}
}

// key returns this instance's presence key.
func (m *Mirror) key() string {
	return keyPrefix + m.instanceID
}

// SetCount publishes the current live connection count with a TTL slightly
// longer than the expected refresh interval, so a crashed instance's key
// expires on its own rather than reporting stale presence forever.
func (m *Mirror) SetCount(ctx context.Context, count int) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.client.Set(ctx, m.key(), count, 60*time.Second).Err(); err != nil {
		return fmt.Errorf("presence: setting count: %w", err)
	}
	return nil
}

// StartRefresh runs a ticker that re-publishes count() at every tick, keeping
// the key's TTL alive even if the live count hasn't changed. It returns a
// stop function.
func (m *Mirror) StartRefresh(ctx context.Context, every time.Duration, count func() int) (stop func()) {
	ticker := time.NewTicker(every)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				m.SetCount(ctx, count())
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}

// FleetTotal sums every known instance's published count. Instances that
// have expired (crashed, or never started) simply don't contribute.
func (m *Mirror) FleetTotal(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	keys, err := m.client.Keys(ctx, keyPrefix+"*").Result()
	if err != nil {
		return 0, fmt.Errorf("presence: listing instances: %w", err)
	}

	total := 0
	for _, k := range keys {
		v, err := m.client.Get(ctx, k).Int()
		if err != nil {
			continue
		}
		total += v
	}
	return total, nil
}

// Close releases the underlying Redis client.
func (m *Mirror) Close() error {
	return m.client.Close()
}
