package domain

import "errors"

// Error taxonomy. Background tasks log-and-swallow these; write paths
// propagate them to the caller.
var (
	ErrInvalidUser        = errors.New("userId is required")
	ErrInvalidAgent       = errors.New("agentId is required")
	ErrInvalidInput       = errors.New("invalid input")
	ErrRuleMisconfigured  = errors.New("connection rule missing semanticDescription")
	ErrStorageTransient   = errors.New("storage transient error")
	ErrStoragePersistence = errors.New("storage persistence error")
	ErrEmbeddingFailure   = errors.New("embedding provider failure")
	ErrLLMFailure         = errors.New("llm provider failure")
	ErrBudgetExceeded     = errors.New("monthly budget exceeded")
	ErrMemoryNotFound     = errors.New("memory not found")
	ErrNotFound           = errors.New("not found")
)
