package diag

import "github.com/kitecorp/kitels/internal/source"

// Reporter is the minimal contract for receiving diagnostics from analysis
// passes. Implementations: BagReporter (stores into a Bag), NopReporter.
type Reporter interface {
	Report(d Diagnostic)
}

// BagReporter stores reported diagnostics into a Bag.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(d Diagnostic) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(d)
}

// NopReporter discards every diagnostic.
type NopReporter struct{}

func (NopReporter) Report(Diagnostic) {}

// ReportError is a shortcut for emitting a SevError diagnostic.
func ReportError(r Reporter, code Code, primary source.Span, msg string) {
	if r == nil {
		return
	}
	r.Report(NewError(code, primary, msg))
}

// ReportWarning is a shortcut for emitting a SevWarning diagnostic.
func ReportWarning(r Reporter, code Code, primary source.Span, msg string) {
	if r == nil {
		return
	}
	r.Report(NewWarning(code, primary, msg))
}
