package diag

import (
	"github.com/kitecorp/kitels/internal/source"
)

// Note attaches secondary context to a diagnostic.
type Note struct {
	Span source.Span
	Msg  string
}

// TextEdit is a single text replacement in source coordinates. OldText is an
// optional guard: when non-empty the fix engine refuses to apply the edit
// unless the span still contains exactly that text.
type TextEdit struct {
	Span    source.Span
	NewText string
	OldText string
}

// FixKind is a coarse classification following the LSP code-action kinds.
type FixKind uint8

const (
	FixKindQuickFix FixKind = iota
	FixKindRefactorRewrite
	FixKindSourceAction
)

func (k FixKind) String() string {
	switch k {
	case FixKindQuickFix:
		return "quickfix"
	case FixKindRefactorRewrite:
		return "refactor.rewrite"
	case FixKindSourceAction:
		return "source"
	}
	return "unknown"
}

// FixApplicability states how much confidence a fix carries.
type FixApplicability uint8

const (
	// FixApplicabilityAlwaysSafe fixes can be applied without review.
	FixApplicabilityAlwaysSafe FixApplicability = iota
	// FixApplicabilitySafeWithHeuristics fixes are correct under the
	// heuristics the producer used but may need a second look.
	FixApplicabilitySafeWithHeuristics
	// FixApplicabilityManualReview fixes always need human judgement.
	FixApplicabilityManualReview
)

func (a FixApplicability) String() string {
	switch a {
	case FixApplicabilityAlwaysSafe:
		return "always-safe"
	case FixApplicabilitySafeWithHeuristics:
		return "safe-with-heuristics"
	case FixApplicabilityManualReview:
		return "manual-review"
	}
	return "unknown"
}

// Fix represents a possible automated correction.
type Fix struct {
	ID            string
	Title         string
	Kind          FixKind
	Applicability FixApplicability
	IsPreferred   bool
	Edits         []TextEdit
}

// Diagnostic is a single finding with optional notes and fixes.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []Fix

	// Unnecessary marks the span as dead code; editors render it faded.
	Unnecessary bool
	// Data carries a machine-readable payload for quick-fix providers
	// (e.g. {"symbol": "Config", "path": "common.kite"} on missing-import).
	Data map[string]string
}
