package embedding

import (
	"context"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/synapsehq/synapse/internal/domain"
)

// Service wraps a domain.Embedder with an LRU cache and single-flight
// coalescing, so concurrent requests for the same text share one upstream
// call and repeated text never leaves the process.
type Service struct {
	embedder domain.Embedder
	cache    *lru.Cache[string, []float64]
	group    singleflight.Group
	log      *zap.Logger
}

// NewService builds a caching Service with the given cache size (the
// recall-side caches in this codebase use 1000; the embedding cache can
// run larger since entries are small).
func NewService(embedder domain.Embedder, cacheSize int, log *zap.Logger) (*Service, error) {
	if cacheSize <= 0 {
		cacheSize = 5000
	}
	cache, err := lru.New[string, []float64](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &Service{embedder: embedder, cache: cache, log: log}, nil
}

func (s *Service) Dimension() int {
	return s.embedder.Dimension()
}

// Embed returns the cached vector for text if present, otherwise computes
// it via the underlying provider, coalescing concurrent duplicate requests.
func (s *Service) Embed(ctx context.Context, text string) ([]float64, error) {
	if v, ok := s.cache.Get(text); ok {
		return v, nil
	}
	v, err, _ := s.group.Do(text, func() (any, error) {
		if v, ok := s.cache.Get(text); ok {
			return v, nil
		}
		vec, err := s.embedder.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingFailure, err)
		}
		s.cache.Add(text, vec)
		return vec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]float64), nil
}

// EmbedBatch embeds each text, reusing the cache/coalescing path per item.
// The provider interface is single-item; batching here is about cache and
// coalescing efficiency, not a multi-input upstream call.
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		v, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Cosine computes cosine similarity between two equal-length vectors,
// returning 0 for a zero-magnitude vector rather than NaN.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
