// Package memstore is an in-memory domain.StorageGateway implementing every
// optional capability, used by tests and by deployments that don't need
// durability.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/synapsehq/synapse/internal/domain"
)

type tenantKey struct {
	userID  string
	agentID string
}

// Store is the in-memory StorageGateway. Zero value is not usable; use New.
type Store struct {
	mu          sync.RWMutex
	memories    map[tenantKey]map[string]domain.Memory
	connections map[string][]domain.MemoryConnection // keyed by userID
}

func New() *Store {
	return &Store{
		memories:    make(map[tenantKey]map[string]domain.Memory),
		connections: make(map[string][]domain.MemoryConnection),
	}
}

func (s *Store) Store(ctx context.Context, userID, agentID string, m *domain.Memory) error {
	if userID == "" {
		return domain.ErrInvalidUser
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tenantKey{userID, agentID}
	if s.memories[key] == nil {
		s.memories[key] = make(map[string]domain.Memory)
	}
	s.memories[key][m.ID] = *m
	return nil
}

func (s *Store) GetByID(ctx context.Context, userID, id string) (*domain.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for key, bucket := range s.memories {
		if key.userID != userID {
			continue
		}
		if m, ok := bucket[id]; ok {
			cp := m
			return &cp, nil
		}
	}
	return nil, domain.ErrMemoryNotFound
}

func (s *Store) GetByType(ctx context.Context, userID, agentID string, t domain.MemoryType, opts domain.ByTypeFilter) ([]domain.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bucket := s.memories[tenantKey{userID, agentID}]
	out := make([]domain.Memory, 0, len(bucket))
	for _, m := range bucket {
		if m.Type != t {
			continue
		}
		if opts.CreatedBefore > 0 && m.CreatedAt >= opts.CreatedBefore {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

func (s *Store) Delete(ctx context.Context, userID, agentID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.memories[tenantKey{userID, agentID}]
	if bucket == nil {
		return nil
	}
	delete(bucket, id)
	return nil
}

func (s *Store) Recall(ctx context.Context, userID, agentID, query string, opts domain.RecallFilter) ([]domain.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bucket := s.memories[tenantKey{userID, agentID}]
	out := make([]domain.Memory, 0, len(bucket))
	lowerQuery := strings.ToLower(query)
	for _, m := range bucket {
		if opts.Type != nil && m.Type != *opts.Type {
			continue
		}
		if opts.TimeRangeStart > 0 && m.CreatedAt < opts.TimeRangeStart {
			continue
		}
		if opts.TimeRangeEnd > 0 && m.CreatedAt > opts.TimeRangeEnd {
			continue
		}
		if lowerQuery != "" && !strings.Contains(strings.ToLower(m.Content), lowerQuery) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (s *Store) GetStats(ctx context.Context, userID string, agentID *string) (domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := domain.Stats{ByType: make(map[domain.MemoryType]int)}
	var total float64
	var n int
	for key, bucket := range s.memories {
		if key.userID != userID {
			continue
		}
		if agentID != nil && key.agentID != *agentID {
			continue
		}
		for _, m := range bucket {
			stats.ByType[m.Type]++
			total += m.Importance
			n++
		}
	}
	if n > 0 {
		stats.AvgImportance = total / float64(n)
	}
	return stats, nil
}

func (s *Store) CreateConnections(ctx context.Context, userID string, edges []domain.MemoryConnection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections[userID] = append(s.connections[userID], edges...)
	return nil
}

func (s *Store) MaybeDecay() (domain.DecayCapability, bool) {
	return s, true
}

func (s *Store) MaybeConnectionLookup() (domain.ConnectionLookupCapability, bool) {
	return s, true
}

func (s *Store) MaybeHybridSearch() (domain.HybridSearchCapability, bool) {
	return s, true
}

var _ domain.StorageGateway = (*Store)(nil)
