// Package services defines shared utilities consumed by the sync workflow and
// its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run correlation IDs, archive names, and
//     workflow step names for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into consistent CLI exit codes.
//
// Use these helpers when wiring new workflow steps so operational behaviour
// (error classification, observability) stays uniform across the tool.
package services
