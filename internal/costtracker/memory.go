package costtracker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryTracker is the in-process Tracker backing, keyed by
// "{agentID}:{yyyymm}" with float accumulation under a single mutex. It
// is linearizable per agent but not shared across processes — the Redis
// backing exists for that case.
type MemoryTracker struct {
	mu     sync.Mutex
	spend  map[string]float64
	nowFn  func() time.Time
}

func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{spend: make(map[string]float64), nowFn: time.Now}
}

func (t *MemoryTracker) key(agentID string) string {
	return fmt.Sprintf("%s:%s", agentID, t.nowFn().UTC().Format("200601"))
}

func (t *MemoryTracker) CurrentSpend(ctx context.Context, agentID string) (float64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.spend[t.key(agentID)], nil
}

func (t *MemoryTracker) CheckBudget(ctx context.Context, agentID string, monthlyBudget float64) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return withinBudget(t.spend[t.key(agentID)], monthlyBudget), nil
}

func (t *MemoryTracker) TrackExtraction(ctx context.Context, agentID string, cost float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spend[t.key(agentID)] += cost
	return nil
}
