// Package imports parses, resolves, and canonicalizes Kite import
// statements. The wire format is exact:
//
//	import Sym[, Sym...] from "path"
//	import * from 'path'
//
// with symbols comma-and-space separated and paths in double or single
// quotes.
package imports

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"github.com/kitecorp/kitels/internal/scan"
	"github.com/kitecorp/kitels/internal/source"
)

// Import is one parsed import statement. An empty symbol set with Wildcard
// set brings every top-level symbol of the target file into scope.
type Import struct {
	Path     string // raw path literal, unresolved
	Quote    byte   // '"' or '\''
	Wildcard bool
	Symbols  []string

	Span        source.Span   // the statement's whole line, newline excluded
	PathSpan    source.Span   // the quoted literal, quotes excluded
	SymbolSpans []source.Span // one per named symbol
}

// Extract parses every import statement in the file. Malformed lines yield
// nothing; scanning continues.
func Extract(file *source.File) []Import {
	text := file.Text()
	sc := scan.New(text)
	var out []Import

	ls := 0
	for ls < len(text) {
		le := sc.LineEnd(ls)
		if imp, ok := parseLine(file.ID, sc, text, ls, le); ok {
			out = append(out, imp)
		}
		ls = le + 1
	}
	return out
}

func parseLine(fileID source.FileID, sc *scan.Scanner, text string, ls, le int) (Import, bool) {
	kw, ok := sc.NextIdent(ls, le)
	if !ok || kw.Text != "import" {
		return Import{}, false
	}
	indent := sc.SkipSpace(ls, le)
	if kw.Start != indent {
		return Import{}, false
	}

	// Locate `from` at code class; everything between import and from is
	// the symbol list or a wildcard star.
	fromIdx := -1
	for pos := kw.End; pos < le; {
		id, ok := sc.NextIdent(pos, le)
		if !ok {
			break
		}
		if id.Text == "from" {
			fromIdx = id.Start
			break
		}
		pos = id.End
	}
	if fromIdx < 0 {
		return Import{}, false
	}

	imp := Import{Span: mkSpan(fileID, ls, le)}
	star := false
	for i := kw.End; i < fromIdx; i++ {
		if text[i] == '*' && sc.ClassAt(i) == scan.ClassCode {
			star = true
			break
		}
	}
	if star {
		imp.Wildcard = true
	} else {
		for _, id := range sc.Idents(kw.End, fromIdx) {
			imp.Symbols = append(imp.Symbols, id.Text)
			imp.SymbolSpans = append(imp.SymbolSpans, mkSpan(fileID, id.Start, id.End))
		}
		if len(imp.Symbols) == 0 {
			return Import{}, false
		}
	}

	// The quoted path literal after `from`.
	q := fromIdx + len("from")
	for q < le && (text[q] == ' ' || text[q] == '\t') {
		q++
	}
	if q >= le || (text[q] != '"' && text[q] != '\'') {
		return Import{}, false
	}
	quote := text[q]
	end := strings.IndexByte(text[q+1:le], quote)
	if end < 0 {
		return Import{}, false
	}
	imp.Quote = quote
	imp.Path = text[q+1 : q+1+end]
	imp.PathSpan = mkSpan(fileID, q+1, q+1+end)
	return imp, true
}

func mkSpan(fileID source.FileID, start, end int) source.Span {
	s, err := safecast.Conv[uint32](start)
	if err != nil {
		panic(fmt.Errorf("import span overflow: %w", err))
	}
	e, err := safecast.Conv[uint32](end)
	if err != nil {
		panic(fmt.Errorf("import span overflow: %w", err))
	}
	return source.Span{File: fileID, Start: s, End: e}
}

// Names reports whether the import covers the symbol: explicitly listed or a
// wildcard.
func (imp Import) Names(symbol string) bool {
	if imp.Wildcard {
		return true
	}
	for _, s := range imp.Symbols {
		if s == symbol {
			return true
		}
	}
	return false
}

// Format renders the statement in canonical wire form.
func (imp Import) Format() string {
	quote := imp.Quote
	if quote == 0 {
		quote = '"'
	}
	syms := "*"
	if !imp.Wildcard {
		syms = strings.Join(imp.Symbols, ", ")
	}
	return fmt.Sprintf("import %s from %c%s%c", syms, quote, imp.Path, quote)
}
