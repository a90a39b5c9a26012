package diagfmt

import (
	"encoding/json"
	"io"

	"github.com/kitecorp/kitels/internal/diag"
	"github.com/kitecorp/kitels/internal/source"
)

type jsonPosition struct {
	Line uint32 `json:"line"`
	Col  uint32 `json:"col"`
}

type jsonSpan struct {
	File  string       `json:"file"`
	Start uint32       `json:"start"`
	End   uint32       `json:"end"`
	Pos   jsonPosition `json:"pos"`
}

type jsonNote struct {
	Span jsonSpan `json:"span"`
	Msg  string   `json:"message"`
}

type jsonEdit struct {
	Span    jsonSpan `json:"span"`
	NewText string   `json:"newText"`
}

type jsonFix struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Kind          string     `json:"kind"`
	Applicability string     `json:"applicability"`
	Preferred     bool       `json:"preferred,omitempty"`
	Edits         []jsonEdit `json:"edits"`
}

type jsonDiagnostic struct {
	Severity    string            `json:"severity"`
	Code        string            `json:"code"`
	ID          string            `json:"id"`
	Message     string            `json:"message"`
	Span        jsonSpan          `json:"span"`
	Unnecessary bool              `json:"unnecessary,omitempty"`
	Data        map[string]string `json:"data,omitempty"`
	Notes       []jsonNote        `json:"notes,omitempty"`
	Fixes       []jsonFix         `json:"fixes,omitempty"`
}

type jsonReport struct {
	Diagnostics []jsonDiagnostic `json:"diagnostics"`
	Truncated   bool             `json:"truncated,omitempty"`
}

// JSON writes the bag as one indented JSON document.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	report := jsonReport{Diagnostics: []jsonDiagnostic{}}
	items := bag.Items()
	if opts.Max > 0 && len(items) > opts.Max {
		items = items[:opts.Max]
		report.Truncated = true
	}
	for i := range items {
		report.Diagnostics = append(report.Diagnostics, toJSONDiagnostic(&items[i], fs, opts))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func toJSONDiagnostic(d *diag.Diagnostic, fs *source.FileSet, opts JSONOpts) jsonDiagnostic {
	out := jsonDiagnostic{
		Severity:    d.Severity.String(),
		Code:        d.Code.String(),
		ID:          d.Code.ID(),
		Message:     d.Message,
		Span:        toJSONSpan(d.Primary, fs, opts.PathMode),
		Unnecessary: d.Unnecessary,
		Data:        d.Data,
	}
	if opts.IncludeNotes {
		for _, n := range d.Notes {
			out.Notes = append(out.Notes, jsonNote{
				Span: toJSONSpan(n.Span, fs, opts.PathMode),
				Msg:  n.Msg,
			})
		}
	}
	if opts.IncludeFixes {
		for _, f := range d.Fixes {
			jf := jsonFix{
				ID:            f.ID,
				Title:         f.Title,
				Kind:          f.Kind.String(),
				Applicability: f.Applicability.String(),
				Preferred:     f.IsPreferred,
			}
			for _, e := range f.Edits {
				jf.Edits = append(jf.Edits, jsonEdit{
					Span:    toJSONSpan(e.Span, fs, opts.PathMode),
					NewText: e.NewText,
				})
			}
			out.Fixes = append(out.Fixes, jf)
		}
	}
	return out
}

func toJSONSpan(span source.Span, fs *source.FileSet, mode PathMode) jsonSpan {
	out := jsonSpan{Start: span.Start, End: span.End, File: "<unknown>"}
	if file := fs.Get(span.File); file != nil {
		out.File = file.FormatPath(mode.mode(), fs.BaseDir())
		pos := fs.Position(span.File, span.Start)
		out.Pos = jsonPosition{Line: pos.Line, Col: pos.Col}
	}
	return out
}
