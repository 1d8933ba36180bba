package costtracker

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTracker backs Tracker with Redis so spend is shared across
// replicas. Keys are "cost:{agentID}:{yyyymm}", incremented with
// INCRBYFLOAT and given a 45-day TTL so stale months don't accumulate keys
// forever.
type RedisTracker struct {
	client redis.UniversalClient
	nowFn  func() time.Time
}

func NewRedisTracker(addr, password string, db int) (*RedisTracker, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis cost tracker ping: %w", err)
	}
	return &RedisTracker{client: client, nowFn: time.Now}, nil
}

func (t *RedisTracker) key(agentID string) string {
	return fmt.Sprintf("cost:%s:%s", agentID, t.nowFn().UTC().Format("200601"))
}

func (t *RedisTracker) CurrentSpend(ctx context.Context, agentID string) (float64, error) {
	val, err := t.client.Get(ctx, t.key(agentID)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read spend: %w", err)
	}
	return strconv.ParseFloat(val, 64)
}

func (t *RedisTracker) CheckBudget(ctx context.Context, agentID string, monthlyBudget float64) (bool, error) {
	if math.IsInf(monthlyBudget, 1) {
		return true, nil
	}
	spend, err := t.CurrentSpend(ctx, agentID)
	if err != nil {
		return false, err
	}
	return withinBudget(spend, monthlyBudget), nil
}

func (t *RedisTracker) TrackExtraction(ctx context.Context, agentID string, cost float64) error {
	key := t.key(agentID)
	if err := t.client.IncrByFloat(ctx, key, cost).Err(); err != nil {
		return fmt.Errorf("incr spend: %w", err)
	}
	return t.client.Expire(ctx, key, 45*24*time.Hour).Err()
}

func (t *RedisTracker) Close() error {
	return t.client.Close()
}
