// Package services defines shared utilities consumed by the compile pipeline
// and the external renderer integrations.
//
// Key responsibilities:
//   - Context helpers that stamp compile job IDs, stage names, and block
//     indices for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     into block-level (tolerated) versus structural (fatal) outcomes.
//   - The Executor abstraction that makes renderer subprocess invocation
//     testable without LaTeX or Manim installed.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability, timeouts) stays uniform across components.
package services
