// Package config loads flat env-var configuration, mirroring the
// dotenv-plus-secret-sidecar convention used throughout the pack.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Load reads the .env file named by SYNAPSE_ENV (default ".env"), then its
// ".secret" sidecar if present. Missing files are not an error — env vars
// set directly in the process environment always take precedence.
func Load() error {
	envFile := os.Getenv("SYNAPSE_ENV")
	if envFile == "" {
		envFile = ".env"
	}
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")
	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func RedisURL() string {
	return os.Getenv("REDIS_URL")
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func AnthropicAPIKey() string {
	return os.Getenv("ANTHROPIC_API_KEY")
}

// LLMProvider returns the configured StructuredLLM provider.
// Defaults to "openai". Valid values: openai, anthropic, mock.
func LLMProvider() string {
	p := os.Getenv("LLM_PROVIDER")
	if p == "" {
		return "openai"
	}
	return p
}

// EmbeddingProvider returns the configured Embedder provider.
// Defaults to "openai". Valid values: openai, mock.
func EmbeddingProvider() string {
	p := os.Getenv("EMBEDDING_PROVIDER")
	if p == "" {
		return "openai"
	}
	return p
}

func LLMAPIKey() string {
	switch LLMProvider() {
	case "anthropic":
		return AnthropicAPIKey()
	case "mock":
		return ""
	default:
		return OpenAIAPIKey()
	}
}

func EmbeddingAPIKey() string {
	if EmbeddingProvider() == "mock" {
		return ""
	}
	return OpenAIAPIKey()
}

// CostTrackerBackend selects the CostTracker implementation.
// Defaults to "memory". Valid values: memory, redis.
func CostTrackerBackend() string {
	b := os.Getenv("COST_TRACKER_BACKEND")
	if b == "" {
		return "memory"
	}
	return b
}

// StorageBackend selects the StorageGateway implementation.
// Defaults to "memory". Valid values: memory, postgres.
func StorageBackend() string {
	b := os.Getenv("STORAGE_BACKEND")
	if b == "" {
		return "memory"
	}
	return b
}

// RateLimitRPS returns requests per second limit. Defaults to 100.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting. Defaults to 20.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the zap level name (debug, info, warn, error). Defaults
// to "info".
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

// MonthlyBudget returns the per-agent monthly LLM spend cap in dollars,
// defaulting to 50.0 when MONTHLY_BUDGET is unset or unparsable. CostTracker
// allows spend only while it is below the budget, so a value <= 0 allows no
// LLM spend at all; +Inf is the only value that disables the check.
func MonthlyBudget() float64 {
	v, err := strconv.ParseFloat(os.Getenv("MONTHLY_BUDGET"), 64)
	if err != nil {
		return 50.0
	}
	return v
}

// ConsolidationTenant is one (userId, agentId) pair the background
// consolidation sweep should cover.
type ConsolidationTenant struct {
	UserID  string
	AgentID string
}

// ConsolidationTenants parses CONSOLIDATION_TENANTS as a comma-separated
// list of "userId:agentId" pairs, the same flat env-var convention API_KEYS
// uses. Empty/unset means the background sweep has nothing to do; callers
// still expose the manual /v1/cognitive/consolidate trigger either way.
func ConsolidationTenants() []ConsolidationTenant {
	var out []ConsolidationTenant
	for _, entry := range strings.Split(os.Getenv("CONSOLIDATION_TENANTS"), ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 {
			continue
		}
		out = append(out, ConsolidationTenant{UserID: parts[0], AgentID: parts[1]})
	}
	return out
}
