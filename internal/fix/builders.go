package fix

import (
	"fmt"

	"github.com/kitecorp/kitels/internal/diag"
	"github.com/kitecorp/kitels/internal/source"
)

// Option mutates a fix during construction.
type Option func(*diag.Fix)

// WithApplicability overrides applicability metadata.
func WithApplicability(app diag.FixApplicability) Option {
	return func(f *diag.Fix) {
		f.Applicability = app
	}
}

// WithKind overrides fix classification.
func WithKind(kind diag.FixKind) Option {
	return func(f *diag.Fix) {
		f.Kind = kind
	}
}

// Preferred marks the fix as the preferred suggestion.
func Preferred() Option {
	return func(f *diag.Fix) {
		f.IsPreferred = true
	}
}

// WithID sets the stable identifier.
func WithID(id string) Option {
	return func(f *diag.Fix) {
		f.ID = id
	}
}

func applyOptions(f diag.Fix, opts []Option) diag.Fix {
	for _, opt := range opts {
		if opt != nil {
			opt(&f)
		}
	}
	return f
}

// InsertText creates a fix inserting text at span (Span.Start == Span.End).
func InsertText(title string, at source.Span, text string, opts ...Option) diag.Fix {
	return applyOptions(diag.Fix{
		Title:         title,
		Kind:          diag.FixKindQuickFix,
		Applicability: diag.FixApplicabilityAlwaysSafe,
		Edits:         []diag.TextEdit{{Span: at, NewText: text}},
	}, opts)
}

// DeleteSpan removes the text covered by span, guarded by its expected
// current content.
func DeleteSpan(title string, span source.Span, expect string, opts ...Option) diag.Fix {
	return applyOptions(diag.Fix{
		Title:         title,
		Kind:          diag.FixKindQuickFix,
		Applicability: diag.FixApplicabilityAlwaysSafe,
		Edits:         []diag.TextEdit{{Span: span, OldText: expect}},
	}, opts)
}

// ReplaceSpan replaces the text covered by span with newText.
func ReplaceSpan(title string, span source.Span, newText, expect string, opts ...Option) diag.Fix {
	return applyOptions(diag.Fix{
		Title:         title,
		Kind:          diag.FixKindQuickFix,
		Applicability: diag.FixApplicabilityAlwaysSafe,
		Edits:         []diag.TextEdit{{Span: span, NewText: newText, OldText: expect}},
	}, opts)
}

// RenameEdits builds one guarded replace per occurrence of oldName. The spans
// come from the occurrence collector, so each one covers exactly the
// identifier.
func RenameEdits(occurrences []source.Span, oldName, newName string) []diag.TextEdit {
	edits := make([]diag.TextEdit, 0, len(occurrences))
	for _, span := range occurrences {
		edits = append(edits, diag.TextEdit{
			Span:    span,
			NewText: newName,
			OldText: oldName,
		})
	}
	return edits
}

// RenameFix wraps RenameEdits into a refactoring fix.
func RenameFix(occurrences []source.Span, oldName, newName string, opts ...Option) diag.Fix {
	return applyOptions(diag.Fix{
		ID:            fmt.Sprintf("rename-%s-to-%s", oldName, newName),
		Title:         fmt.Sprintf("Rename '%s' to '%s'", oldName, newName),
		Kind:          diag.FixKindRefactorRewrite,
		Applicability: diag.FixApplicabilityAlwaysSafe,
		Edits:         RenameEdits(occurrences, oldName, newName),
	}, opts)
}
