package lsp

import (
	"github.com/kitecorp/kitels/internal/diag"
	"github.com/kitecorp/kitels/internal/lint"
	"github.com/kitecorp/kitels/internal/workspace"
)

// publishFor analyzes one document and pushes its diagnostics. Runs
// synchronously inside the notification handler.
func (s *Server) publishFor(path string) error {
	doc, ok := s.sess.Open(path)
	if !ok {
		return nil
	}
	bag := lint.Analyze(s.sess, path, lint.Options{
		MaxDiagnostics: s.maxDiagnostics,
		CrossFile:      true,
		Disabled:       s.disabled,
	})
	list := make([]lspDiagnostic, 0, bag.Len())
	for _, d := range bag.Items() {
		list = append(list, toLSPDiagnostic(s.sess, doc, &d))
	}
	uri := pathToURI(path)
	s.published[uri] = true
	return s.sendPublish(uri, doc.Version, list)
}

func toLSPDiagnostic(sess *workspace.Session, doc *workspace.Document, d *diag.Diagnostic) lspDiagnostic {
	out := lspDiagnostic{
		Range:    rangeForSpan(doc.File, d.Primary),
		Severity: lspSeverity(d.Severity),
		Code:     d.Code.String(),
		Source:   "kitels",
		Message:  d.Message,
		Data:     d.Data,
	}
	if d.Unnecessary {
		out.Tags = []int{diagnosticTagUnnecessary}
	}
	for _, note := range d.Notes {
		file := sess.FileSet().Get(note.Span.File)
		if file == nil {
			continue
		}
		out.Related = append(out.Related, diagnosticRelatedInformation{
			Location: location{
				URI:   pathToURI(file.Path),
				Range: rangeForSpan(file, note.Span),
			},
			Message: note.Msg,
		})
	}
	return out
}

func lspSeverity(sev diag.Severity) int {
	switch sev {
	case diag.SevError:
		return 1
	case diag.SevWarning:
		return 2
	default:
		return 3
	}
}
