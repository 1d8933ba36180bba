// Package api wires the HTTP surface: chi router, middleware stack, and
// handlers over the engine's library-level components. The API is a thin
// adapter — every handler delegates straight to a component documented
// elsewhere; no business logic lives here.
package api

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/synapsehq/synapse/internal/api/handlers"
	mw "github.com/synapsehq/synapse/internal/api/middleware"
	"github.com/synapsehq/synapse/internal/config"
	"github.com/synapsehq/synapse/internal/connection"
	"github.com/synapsehq/synapse/internal/consolidation"
	"github.com/synapsehq/synapse/internal/costtracker"
	"github.com/synapsehq/synapse/internal/discovery"
	"github.com/synapsehq/synapse/internal/domain"
	"github.com/synapsehq/synapse/internal/embedding"
	"github.com/synapsehq/synapse/internal/llm"
	"github.com/synapsehq/synapse/internal/memorytypes"
	"github.com/synapsehq/synapse/internal/recall"
	"github.com/synapsehq/synapse/internal/temporal"
)

// App bundles the router with the background services main.go must
// start/stop around the HTTP server's own lifecycle.
type App struct {
	Router        *chi.Mux
	Queue         *discovery.Queue
	Consolidator  *consolidation.Consolidator
	StorageCloser func()
}

// New wires every component from config and returns a ready-to-serve App.
// gw is constructed by the caller (main.go) since its lifetime (pgxpool,
// in particular) is owned outside the router.
func New(gw domain.StorageGateway, storageCloser func(), log *zap.Logger) (*App, error) {
	intelCfg := domain.DefaultIntelligenceConfig()
	if err := intelCfg.Validate(); err != nil {
		return nil, err
	}

	embedder, err := embedding.NewEmbedder(config.EmbeddingProvider(), config.EmbeddingAPIKey(), "")
	if err != nil {
		log.Warn("embedding provider unavailable, falling back to mock", zap.Error(err))
		embedder = embedding.NewMockEmbedder()
	}
	embedSvc, err := embedding.NewService(embedder, 5000, log)
	if err != nil {
		return nil, err
	}

	structuredLLM, err := llm.NewStructuredLLM(config.LLMProvider(), config.LLMAPIKey(), "")
	if err != nil {
		log.Warn("LLM provider unavailable, connection discovery L2/temporal enhancement disabled", zap.Error(err))
		structuredLLM = nil
	}

	var costs costtracker.Tracker
	if config.CostTrackerBackend() == "redis" && config.RedisURL() != "" {
		redisCosts, err := costtracker.NewRedisTracker(config.RedisURL(), "", 0)
		if err != nil {
			log.Warn("redis cost tracker unavailable, falling back to in-process", zap.Error(err))
			costs = costtracker.NewMemoryTracker()
		} else {
			costs = redisCosts
		}
	} else {
		costs = costtracker.NewMemoryTracker()
	}

	mgr := connection.NewManager(embedder, structuredLLM, costs, log)
	discoveryHandler := connection.NewDiscoveryHandler(mgr, gw, intelCfg)
	queue := discovery.NewQueue(discoveryHandler, 256, 2, log)
	queue.Start()

	working := memorytypes.NewWorkingMemory(gw, embedSvc, queue, log)
	episodic := memorytypes.NewEpisodicMemory(gw, embedSvc, queue, log)
	semantic := memorytypes.NewSemanticMemory(gw, embedSvc, queue, log)
	procedural := memorytypes.NewProceduralMemory(gw, embedSvc, queue, log)

	metrics := recall.NewMetrics(prometheus.DefaultRegisterer)
	recallSvc := recall.NewService(gw, embedSvc, intelCfg.Recall, recall.DefaultWeights, metrics, log)

	analyzer := temporal.NewAnalyzer(structuredLLM, costs, log)
	consolidator := consolidation.NewConsolidator(gw, embedSvc, semantic, 6*time.Hour, log, intelCfg.Consolidation)

	memoryHandler := handlers.NewMemoryHandler(working, episodic, semantic, procedural, gw)
	recallHandler := handlers.NewRecallHandler(recallSvc)
	cognitiveHandler := handlers.NewCognitiveHandler(consolidator, analyzer, gw, intelCfg.ConnectionDetection.LLMEnhancement)
	connectionHandler := handlers.NewConnectionHandler(gw)

	r := chi.NewRouter()
	httpMetrics := mw.NewHTTPMetrics(prometheus.DefaultRegisterer)

	r.Use(mw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(httpMetrics.Middleware)
	r.Use(mw.Logging(log))
	r.Use(chimw.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	r.Get("/health", healthHandler(gw))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(staticKeyResolver()))

		r.Route("/memories/{type}", func(r chi.Router) {
			r.Post("/", memoryHandler.Create)
			r.Get("/", memoryHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", memoryHandler.GetByID)
				r.Delete("/", memoryHandler.Delete)
				r.Post("/outcome", memoryHandler.RecordOutcome)
			})
		})
		r.Get("/recall", recallHandler.Recall)
		r.Get("/stats", memoryHandler.Stats)
		r.Get("/connections", connectionHandler.List)

		r.Route("/cognitive", func(r chi.Router) {
			r.Post("/consolidate", cognitiveHandler.TriggerConsolidation)
			r.Post("/decay", cognitiveHandler.TriggerDecay)
			r.Post("/temporal-patterns", cognitiveHandler.TemporalPatterns)
			r.Post("/activity-clusters", cognitiveHandler.ActivityClusters)
		})
	})

	return &App{Router: r, Queue: queue, Consolidator: consolidator, StorageCloser: storageCloser}, nil
}

// staticKeyResolver reads API_KEYS as a comma-separated "key:userId" list.
// A deployment with real tenant management would back this with a store
// lookup instead (as the HybridSearch/Decay capabilities do for storage).
func staticKeyResolver() mw.KeyResolver {
	pairs := map[string]string{}
	for _, entry := range strings.Split(os.Getenv("API_KEYS"), ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 {
			continue
		}
		pairs[parts[0]] = parts[1]
	}
	return func(apiKey string) (string, bool) {
		userID, ok := pairs[apiKey]
		if !ok && len(pairs) == 0 {
			// No keys configured: accept the key itself as the user id,
			// so local/dev use and the in-memory examples don't need setup.
			return apiKey, apiKey != ""
		}
		return userID, ok
	}
}

func healthHandler(gw domain.StorageGateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
