// Package logger builds the structured loggers used throughout the
// resolver. Subsystems that log take a *zap.SugaredLogger from their
// caller (the engine via its Config struct, the ID registry as an Open
// parameter) rather than reaching for a package-level global, so multiple
// Resolver instances in one process (legal per spec.md's process-global
// state section) never share mutable logger state.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a development-mode SugaredLogger scoped to the given
// service name. Development mode favours readable, human-facing output
// since the resolver is an embedded library, not a long-running daemon
// with a log aggregation pipeline of its own.
func New(service string) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	log, err := cfg.Build()
	if err != nil {
		// Fall back to a no-op logger rather than panicking; callers
		// embedding the resolver should never crash because logging
		// construction failed.
		log = zap.NewNop()
	}

	return log.Sugar().Named(service)
}

// NewProduction builds a JSON-encoded SugaredLogger suitable for
// environments that ship logs to a collector instead of a terminal.
func NewProduction(service string) *zap.SugaredLogger {
	log, err := zap.NewProduction()
	if err != nil {
		log = zap.NewNop()
	}

	return log.Sugar().Named(service)
}
