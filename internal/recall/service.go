// Package recall implements hybrid memory retrieval: parallel per-type
// fan-out, weighted multi-signal fusion, connection-graph enrichment, and
// BFS-based related-memory expansion, all behind a small result cache.
package recall

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/synapsehq/synapse/internal/domain"
	"github.com/synapsehq/synapse/internal/embedding"
	"github.com/synapsehq/synapse/internal/logging"
)

var allTypes = []domain.MemoryType{
	domain.MemoryTypeWorking, domain.MemoryTypeEpisodic,
	domain.MemoryTypeSemantic, domain.MemoryTypeProcedural,
}

// Metrics are the prometheus counters/histograms this package exposes
// alongside its own in-process rolling stats.
type Metrics struct {
	Queries  prometheus.Counter
	CacheHit prometheus.Counter
	Latency  prometheus.Histogram
}

// NewMetrics builds and registers the recall metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Queries:  prometheus.NewCounter(prometheus.CounterOpts{Name: "synapse_recall_queries_total", Help: "Total recall queries."}),
		CacheHit: prometheus.NewCounter(prometheus.CounterOpts{Name: "synapse_recall_cache_hits_total", Help: "Recall queries served from cache."}),
		Latency:  prometheus.NewHistogram(prometheus.HistogramOpts{Name: "synapse_recall_latency_seconds", Help: "Recall query latency."}),
	}
	if reg != nil {
		reg.MustRegister(m.Queries, m.CacheHit, m.Latency)
	}
	return m
}

// stats is the in-process rolling counter kept alongside prometheus, for
// callers (e.g. the health endpoint) that want numbers without scraping.
type stats struct {
	mu         sync.Mutex
	queries    int64
	cacheHits  int64
	totalMicro int64
}

func (s *stats) record(d time.Duration, cacheHit bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	s.totalMicro += d.Microseconds()
	if cacheHit {
		s.cacheHits++
	}
}

func (s *stats) snapshot() (queries, cacheHits int64, avgMicro float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queries == 0 {
		return 0, 0, 0
	}
	return s.queries, s.cacheHits, float64(s.totalMicro) / float64(s.queries)
}

// Service is the hybrid recall engine.
type Service struct {
	gw       domain.StorageGateway
	embedder *embedding.Service
	cache    *resultCache
	weights  Weights
	cfg      domain.RecallConfig
	metrics  *Metrics
	log      *zap.Logger
	stats    stats
}

func NewService(gw domain.StorageGateway, embedder *embedding.Service, cfg domain.RecallConfig, weights Weights, metrics *Metrics, log *zap.Logger) *Service {
	var cache *resultCache
	if cfg.EnableCaching {
		cache = newResultCache(cacheTTLFromConfig(cfg))
	}
	if weights == (Weights{}) {
		weights = DefaultWeights
	}
	return &Service{gw: gw, embedder: embedder, cache: cache, weights: weights, cfg: cfg, metrics: metrics, log: log}
}

// Recall validates q, serves from cache when possible, otherwise fans out
// across memory types, fuses per-type results, enriches with connection
// data, expands via BFS, and returns the top q.Limit results.
func (s *Service) Recall(ctx context.Context, q Query) ([]ScoredMemory, error) {
	start := time.Now()
	if q.UserID == "" {
		return nil, domain.ErrInvalidUser
	}
	if q.AgentID == "" {
		return nil, domain.ErrInvalidAgent
	}
	if q.Limit <= 0 {
		q.Limit = s.cfg.DefaultLimit
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}

	if cached, ok := s.cache.get(q); ok {
		if s.metrics != nil {
			s.metrics.CacheHit.Inc()
			s.metrics.Queries.Inc()
		}
		s.stats.record(time.Since(start), true)
		return cached, nil
	}

	results, err := s.recallUncached(ctx, q)
	if err != nil {
		return nil, err
	}

	s.cache.put(q, results)
	if s.metrics != nil {
		s.metrics.Queries.Inc()
		s.metrics.Latency.Observe(time.Since(start).Seconds())
	}
	s.stats.record(time.Since(start), false)
	return results, nil
}

func (s *Service) recallUncached(ctx context.Context, q Query) ([]ScoredMemory, error) {
	var queryEmbedding []float64
	if s.embedder != nil && q.Text != "" {
		vec, err := s.embedder.Embed(ctx, q.Text)
		if err != nil {
			if s.log != nil {
				s.log.Warn("query embedding failed, continuing without vector signal",
					logging.UserField(q.UserID), zap.Error(err))
			}
		} else {
			queryEmbedding = vec
		}
	}

	types := allTypes
	if q.Type != nil {
		types = []domain.MemoryType{*q.Type}
	}

	g, gctx := errgroup.WithContext(ctx)
	perType := make([][]domain.Memory, len(types))
	for i, t := range types {
		i, t := i, t
		g.Go(func() error {
			t := t
			opts := domain.RecallFilter{Type: &t, Limit: q.Limit * 3}
			mems, err := s.gw.Recall(gctx, q.UserID, q.AgentID, q.Text, opts)
			if err != nil {
				return fmt.Errorf("recall %s: %w", t, err)
			}
			perType[i] = mems
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := time.Now()
	byID := make(map[string]*ScoredMemory)
	for _, mems := range perType {
		for _, m := range mems {
			sm := s.scoreOne(m, q.Text, queryEmbedding, now)
			byID[m.ID] = &sm
		}
	}

	if hs, ok := s.gw.MaybeHybridSearch(); ok && queryEmbedding != nil {
		hybridMems, err := hs.HybridSearch(ctx, q.UserID, q.AgentID, q.Text, queryEmbedding,
			domain.HybridWeights{Vector: s.weights.Vector, Text: s.weights.Text, Temporal: s.weights.Temporal},
			q.Limit*3, s.cfg.MinRelevanceThreshold)
		if err != nil && s.log != nil {
			s.log.Warn("hybrid search failed, falling back to in-core fusion", logging.UserField(q.UserID), zap.Error(err))
		}
		for _, m := range hybridMems {
			if _, exists := byID[m.ID]; !exists {
				sm := s.scoreOne(m, q.Text, queryEmbedding, now)
				byID[m.ID] = &sm
			}
		}
	}

	if err := s.enrichWithConnections(ctx, q.UserID, byID); err != nil && s.log != nil {
		s.log.Warn("connection enrichment failed", logging.UserField(q.UserID), zap.Error(err))
	}

	results := make([]ScoredMemory, 0, len(byID))
	for _, sm := range byID {
		if sm.FinalScore < s.cfg.MinRelevanceThreshold {
			continue
		}
		results = append(results, *sm)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].FinalScore > results[j].FinalScore })
	if len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}

func (s *Service) scoreOne(m domain.Memory, queryText string, queryEmbedding []float64, now time.Time) ScoredMemory {
	var vecScore float64
	if queryEmbedding != nil && m.Embedding != nil {
		vecScore = embedding.Cosine(queryEmbedding, m.Embedding)
	}
	txt := textScore(queryText, m)
	tmp := temporalScore(m, now)
	proc := proceduralScore(m)

	final := s.weights.Vector*vecScore + s.weights.Text*txt + s.weights.Temporal*tmp + s.weights.Procedural*proc
	return ScoredMemory{
		Memory: m, VectorScore: vecScore, TextScore: txt, TemporalScore: tmp, ProceduralScore: proc,
		FinalScore: final,
	}
}

// Stats returns the in-process rolling counters.
func (s *Service) Stats() (queries, cacheHits int64, avgLatencyMicros float64) {
	return s.stats.snapshot()
}
