package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kitecorp/kitels/internal/source"
)

type goldenDiagnostic struct {
	Severity string
	Code     string
	Path     string
	Line     uint32
	Column   uint32
	Message  string
}

// FormatGoldenDiagnostics renders diagnostics into a stable one-line-per-entry
// representation suitable for golden files: sorted deterministically, basename
// paths, returned as a single string (empty when nothing remains).
func FormatGoldenDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	return formatDiagnostics(diags, fs, includeNotes, true)
}

// FormatShortDiagnostics renders diagnostics one per line for CLI short
// output, keeping full paths.
func FormatShortDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	return formatDiagnostics(diags, fs, includeNotes, false)
}

func formatDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes, basenames bool) string {
	if fs == nil || len(diags) == 0 {
		return ""
	}

	rendered := make([]goldenDiagnostic, 0, len(diags))
	for i := range diags {
		rendered = appendDiagnostic(rendered, &diags[i], fs, includeNotes, basenames)
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Path != dj.Path {
			return di.Path < dj.Path
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		if di.Column != dj.Column {
			return di.Column < dj.Column
		}
		if di.Severity != dj.Severity {
			return di.Severity < dj.Severity
		}
		return di.Code < dj.Code
	})

	var b strings.Builder
	for _, d := range rendered {
		fmt.Fprintf(&b, "%s:%d:%d: %s %s: %s\n", d.Path, d.Line, d.Column, d.Severity, d.Code, d.Message)
	}
	return b.String()
}

func appendDiagnostic(out []goldenDiagnostic, d *Diagnostic, fs *source.FileSet, includeNotes, basenames bool) []goldenDiagnostic {
	file := fs.Get(d.Primary.File)
	if file == nil {
		return out
	}
	path := file.Path
	if basenames {
		path = source.BaseName(path)
	}
	start, _ := fs.Resolve(d.Primary)
	out = append(out, goldenDiagnostic{
		Severity: d.Severity.String(),
		Code:     d.Code.String(),
		Path:     path,
		Line:     start.Line,
		Column:   start.Col,
		Message:  d.Message,
	})
	if includeNotes {
		for _, note := range d.Notes {
			noteFile := fs.Get(note.Span.File)
			if noteFile == nil {
				continue
			}
			notePath := noteFile.Path
			if basenames {
				notePath = source.BaseName(notePath)
			}
			noteStart, _ := fs.Resolve(note.Span)
			out = append(out, goldenDiagnostic{
				Severity: "NOTE",
				Code:     d.Code.String(),
				Path:     notePath,
				Line:     noteStart.Line,
				Column:   noteStart.Col,
				Message:  note.Msg,
			})
		}
	}
	return out
}
