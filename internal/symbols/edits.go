package symbols

import (
	"github.com/kitecorp/kitels/internal/source"
)

// LineDeletionSpan returns the byte range that removes the whole line
// containing off. The trailing newline goes with the line; for the file's
// last line the preceding newline is taken instead so no dangling blank line
// remains, and a single-line file is deleted entirely.
func (idx *Index) LineDeletionSpan(off uint32) source.Span {
	text := idx.Scan.Text()
	ls := idx.Scan.LineStart(int(off))
	le := idx.Scan.LineEnd(int(off))
	switch {
	case le < len(text):
		return idx.span(ls, le+1)
	case ls > 0:
		return idx.span(ls-1, le)
	default:
		return idx.span(0, le)
	}
}

// DeclLineDeletion returns the span deleting the declaration's whole line.
// Used by the remove-unused fixes.
func (idx *Index) DeclLineDeletion(id DeclID) source.Span {
	d := idx.Decls.Get(id)
	if d == nil {
		return source.Span{File: idx.File.ID}
	}
	return idx.LineDeletionSpan(d.Span.Start)
}

// LineText returns the text of the line containing off, without its newline.
func (idx *Index) LineText(off uint32) string {
	ls := idx.Scan.LineStart(int(off))
	le := idx.Scan.LineEnd(int(off))
	return idx.Scan.Text()[ls:le]
}
