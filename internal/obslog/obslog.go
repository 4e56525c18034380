// Package obslog wraps zap.Logger construction for VeriSimDB subsystems.
//
// Unlike the teacher's global category-logger map, no logger is ever held
// in package-level state: every constructor in the repository takes a
// *zap.Logger explicitly and derives a named child with Named(), so a
// caller that wants silence just passes zap.NewNop().
package obslog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category names mirror the teacher's logging categories, narrowed to the
// core subsystems this module implements.
const (
	CategoryStorage  = "storage"
	CategoryWAL      = "wal"
	CategoryTxn      = "txn"
	CategoryHexad    = "hexad"
	CategoryPlanner  = "planner"
	CategoryDrift    = "drift"
	CategoryProof    = "proof"
	CategoryModality = "modality"
)

// NewDevelopment returns a human-readable, debug-level logger suitable for
// tests and local operation of the admin CLI.
func NewDevelopment() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// NewProduction returns a JSON, info-level logger suitable for a running
// server process.
func NewProduction() *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// Named returns a child logger scoped to category, the replacement for the
// teacher's logging.Get(category) global lookup.
func Named(base *zap.Logger, category string) *zap.Logger {
	if base == nil {
		return zap.NewNop()
	}
	return base.Named(category)
}
