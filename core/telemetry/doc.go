// Package telemetry defines the write-only observability sink consumed by
// the sync engine and the consistency auditor.
//
// The sink is intentionally a narrow interface rather than a bare
// *zap.Logger: the engine emits domain events (sync start/success/failure,
// consistency checks, scan metrics) and the sink decides how to encode them.
// The default implementation writes structured zap entries.
package telemetry
