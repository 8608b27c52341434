// Package services defines shared utilities consumed by the pipeline stages
// and the external integrations under internal/services/*.
//
// Key responsibilities:
//   - Context helpers that stamp item identifiers, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent per-item outcome labels.
//
// Use these helpers when wiring new stage logic so operational behaviour (error
// handling, observability, retries) stays uniform across the pipeline.
package services
