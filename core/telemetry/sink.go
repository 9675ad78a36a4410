package telemetry

import (
	"time"

	"go.uber.org/zap"
)

// Sink receives structured sync and audit events. It is write-only and
// fire-and-forget: implementations must never return an error or panic into
// the caller.
type Sink interface {
	// SyncStart records the beginning of a sync operation.
	SyncStart(op string, userID uint)
	// SyncSuccess records a completed sync operation with its duration.
	SyncSuccess(op string, userID uint, fields []string, duration time.Duration)
	// SyncFailure records a failed sync operation with full context.
	SyncFailure(op string, userID uint, fields []string, duration time.Duration, err error)
	// ConsistencyCheck records the outcome of a per-identity check.
	ConsistencyCheck(userID uint, consistent bool, issues int)
	// PerformanceMetrics records aggregate scan statistics.
	PerformanceMetrics(op string, scanned int, duration time.Duration)
}

type zapSink struct {
	logger *zap.Logger
}

// NewZapSink returns a Sink that emits structured zap entries.
func NewZapSink(logger *zap.Logger) Sink {
	return &zapSink{logger: logger}
}

// Nop returns a Sink that discards everything. Useful in tests.
func Nop() Sink {
	return &zapSink{logger: zap.NewNop()}
}

func (s *zapSink) SyncStart(op string, userID uint) {
	s.logger.Debug("sync started",
		zap.String("op", op),
		zap.Uint("user_id", userID))
}

func (s *zapSink) SyncSuccess(op string, userID uint, fields []string, duration time.Duration) {
	s.logger.Info("sync succeeded",
		zap.String("op", op),
		zap.Uint("user_id", userID),
		zap.Strings("fields", fields),
		zap.Duration("duration", duration))
}

func (s *zapSink) SyncFailure(op string, userID uint, fields []string, duration time.Duration, err error) {
	s.logger.Error("sync failed",
		zap.String("op", op),
		zap.Uint("user_id", userID),
		zap.Strings("fields", fields),
		zap.Duration("duration", duration),
		zap.Error(err))
}

func (s *zapSink) ConsistencyCheck(userID uint, consistent bool, issues int) {
	s.logger.Info("consistency check",
		zap.Uint("user_id", userID),
		zap.Bool("consistent", consistent),
		zap.Int("issues", issues))
}

func (s *zapSink) PerformanceMetrics(op string, scanned int, duration time.Duration) {
	s.logger.Info("performance metrics",
		zap.String("op", op),
		zap.Int("scanned", scanned),
		zap.Duration("duration", duration))
}
