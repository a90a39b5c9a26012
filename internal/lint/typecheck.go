package lint

import (
	"fmt"

	"github.com/kitecorp/kitels/internal/diag"
	"github.com/kitecorp/kitels/internal/scan"
	"github.com/kitecorp/kitels/internal/source"
	"github.com/kitecorp/kitels/internal/symbols"
)

// checkTypeMismatch compares a declared base type against the class of a
// literal initializer. Anything that is not a plain string, number, or
// boolean literal abstains; without a grammar there is no expression typing.
func (c *checker) checkTypeMismatch() {
	idx := c.doc.Index
	for _, d := range idx.Decls.Data() {
		switch d.Kind {
		case symbols.DeclVar, symbols.DeclInput, symbols.DeclOutput:
		default:
			continue
		}
		switch d.Type {
		case "string", "number", "boolean":
		default:
			continue
		}
		lit, span, ok := c.initializerLiteral(d.Span)
		if !ok || lit == d.Type {
			continue
		}
		diag.ReportWarning(c.rep, diag.LintTypeMismatch, span,
			fmt.Sprintf("cannot assign %s literal to '%s' of type %s", lit, d.Name, d.Type))
	}
}

// initializerLiteral classifies the first token after the declaration's `=`
// on the same line. The empty class means abstain.
func (c *checker) initializerLiteral(name source.Span) (string, source.Span, bool) {
	sc := c.doc.Index.Scan
	text := c.doc.Text()
	le := sc.LineEnd(int(name.End))
	eq := -1
	for i := int(name.End); i < le; i++ {
		if text[i] == '=' && sc.ClassAt(i) == scan.ClassCode {
			// `==` is a comparison, not an initializer.
			if i+1 < le && text[i+1] == '=' {
				return "", source.Span{}, false
			}
			eq = i
			break
		}
	}
	if eq < 0 {
		return "", source.Span{}, false
	}
	off := sc.SkipSpace(eq+1, le)
	if off >= le {
		return "", source.Span{}, false
	}
	switch ch := text[off]; {
	case ch == '"' || ch == '\'':
		return "string", identSpan(c.doc.Index, off, off+1), true
	case ch >= '0' && ch <= '9':
		return "number", identSpan(c.doc.Index, off, off+1), true
	case ch == '-' && off+1 < le && text[off+1] >= '0' && text[off+1] <= '9':
		return "number", identSpan(c.doc.Index, off, off+2), true
	}
	if ident, ok := sc.IdentAt(off); ok && ident.Start == off {
		if ident.Text == "true" || ident.Text == "false" {
			return "boolean", identSpan(c.doc.Index, ident.Start, ident.End), true
		}
	}
	return "", source.Span{}, false
}

// checkMissingReturn flags functions with a non-void declared return type
// whose body has no return statement at the body's top brace level.
func (c *checker) checkMissingReturn() {
	idx := c.doc.Index
	for i, d := range idx.Decls.Data() {
		id := symbols.DeclID(i + 1)
		if d.Kind != symbols.DeclFunction || d.Type == "" || d.Type == "void" {
			continue
		}
		body, ok := c.functionBody(id)
		if !ok {
			continue
		}
		if c.hasTopLevelReturn(body) {
			continue
		}
		diag.ReportWarning(c.rep, diag.LintMissingReturn, d.Span,
			fmt.Sprintf("'%s' declares return type %s but has no return", d.Name, d.Type))
	}
}

// functionBody returns the span of the scope the declaration itself opened.
// A bodyless function header has none; it cannot borrow a neighbor's body.
func (c *checker) functionBody(fn symbols.DeclID) (source.Span, bool) {
	d := c.doc.Index.Decls.Get(fn)
	if !d.Body.IsValid() {
		return source.Span{}, false
	}
	return c.doc.Index.Scopes.Get(d.Body).Span, true
}

// hasTopLevelReturn scans the body between its braces, tracking nested code
// braces, and looks for a `return` keyword at depth zero. The function scope
// span opens at the parameter list; the body proper starts at its first brace.
func (c *checker) hasTopLevelReturn(body source.Span) bool {
	sc := c.doc.Index.Scan
	text := c.doc.Text()
	start := -1
	for off := int(body.Start); off < int(body.End); off++ {
		if text[off] == '{' && sc.ClassAt(off) == scan.ClassCode {
			start = off
			break
		}
	}
	if start < 0 {
		return false
	}
	depth := 0
	for off := start + 1; off < int(body.End)-1; off++ {
		if sc.ClassAt(off) != scan.ClassCode {
			continue
		}
		switch text[off] {
		case '{':
			depth++
			continue
		case '}':
			depth--
			continue
		}
		if depth != 0 {
			continue
		}
		if ident, ok := sc.IdentAt(off); ok && ident.Start == off {
			if ident.Text == "return" {
				return true
			}
			off = ident.End - 1
		}
	}
	return false
}
