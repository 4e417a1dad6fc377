// Package diag defines the diagnostic model shared by the lexer, the layout
// passes and the CLI.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity: Info, Warning or Error (severity.go).
//   - Code: compact numeric identifier (codes.go). Layout codes render as
//     LT01..LT05; the rest carry a prefix and four digits.
//   - Message: short human oriented text.
//   - Primary: the source.Span pointing at the issue.
//   - Notes: optional secondary spans.
//   - Fixes: optional Fix records.
//
// A Fix groups TextEdits that must be applied together. Edits are expressed in
// source coordinates of the file version the diagnostic was produced from;
// OldText is an optional guard the fix engine checks before applying.
//
// # Emitting diagnostics
//
// The lexer and parser report through a Reporter; BagReporter collects into
// a Bag, which supports sorting and deduplication. Layout passes build
// Diagnostic values directly with the helpers in builder.go.
//
// Rendering for the CLI and golden files lives in golden.go. Applying fixes
// lives in internal/fix.
package diag
