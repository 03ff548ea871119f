// Package logging provides structured logging using uber/zap.
//
// Two output modes are supported:
//   - Production: JSON output for log shipping
//   - Development: Colored console output
//
// Components receive a *zap.Logger and name themselves with Named, so every
// line carries the emitting stage of the pipeline (router, admission,
// approval, reputation, orchestrator).
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	log := logger.Component("admission")
//	log.Info("Session admitted", zap.String("session_id", id))
package logging
