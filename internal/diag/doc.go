// Package diag defines the core diagnostic model shared by every analysis
// layer.
//
// # Purpose
//
//   - Provide deterministic, serialisable data structures that capture
//     findings produced by lexical indexing, resolution, and lint passes.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to concrete storage or formatting layers.
//   - Model fix suggestions as structured edits that the CLI and the language
//     server can materialise and optionally apply.
//
// # Scope
//
// Package diag does not perform any formatting, IO, CLI integration, or
// interactive behaviour. Rendering responsibilities live in internal/diagfmt,
// whereas application of fixes lives in internal/fix and the driver layer.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//   - Message – human oriented text; keep it short and actionable.
//   - Primary span – the canonical source.Span pointing to the issue.
//   - Notes – optional secondary spans/messages for additional context.
//   - Fixes – optional Fix records describing how to address the problem.
//   - Unnecessary – marks dead code so editors can fade it out.
//   - Data – machine-readable payload consumed by quick-fix providers.
//
// Notes should be used sparingly: each note must add new context (e.g. "value
// declared here") rather than repeating the diagnostic message.
//
// # Fix suggestions
//
// Fix represents a possible automated correction. Fixes are intentionally
// data-only: a Title for UI listings, an Applicability confidence level, and
// concrete TextEdit records. TextEdit.OldText acts as an optional guard that
// the fix engine validates before applying edits.
package diag
