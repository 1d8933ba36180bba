// Package logging wraps zap construction and the PII-safe identifier
// truncation convention used across every log call that touches a user or
// agent id.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap.Logger for the given level name (debug/info/warn/error),
// production-encoded (JSON, ISO8601 timestamps).
func New(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// ShortID returns at most the first 8 characters of an identifier. Every
// log line that carries a userId or agentId must pass it through here
// rather than logging the raw value.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// UserField and AgentField are the standard PII-safe zap fields for the
// two identifiers that appear on nearly every log line in this codebase.
func UserField(userID string) zap.Field {
	return zap.String("userId", ShortID(userID))
}

func AgentField(agentID string) zap.Field {
	return zap.String("agentId", ShortID(agentID))
}
