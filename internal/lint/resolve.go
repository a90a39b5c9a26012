package lint

import (
	"fmt"
	"path"
	"strings"

	"github.com/kitecorp/kitels/internal/diag"
	"github.com/kitecorp/kitels/internal/fix"
	"github.com/kitecorp/kitels/internal/imports"
	"github.com/kitecorp/kitels/internal/source"
	"github.com/kitecorp/kitels/internal/symbols"
	"github.com/kitecorp/kitels/internal/workspace"
)

func identSpan(idx *symbols.Index, start, end int) source.Span {
	return source.Span{File: idx.File.ID, Start: uint32(start), End: uint32(end)}
}

// checkShadowing reports every declaration hiding an outer same-name binding.
func (c *checker) checkShadowing() {
	idx := c.doc.Index
	for _, pair := range idx.Shadowing() {
		d := idx.Decls.Get(pair.Decl)
		prev := idx.Decls.Get(pair.Shadowed)
		c.rep.Report(diag.NewWarning(diag.ResShadow, d.Span,
			fmt.Sprintf("'%s' shadows an outer declaration", d.Name)).
			WithNote(prev.Span, "previous declaration here"))
	}
}

// checkDuplicates reports same-scope rebindings, split into the parameter
// and general rules.
func (c *checker) checkDuplicates() {
	idx := c.doc.Index
	for _, pair := range idx.Duplicates() {
		d := idx.Decls.Get(pair.Decl)
		first := idx.Decls.Get(pair.Shadowed)
		code := diag.ResDuplicateDecl
		msg := fmt.Sprintf("'%s' is already declared in this scope", d.Name)
		if d.Kind == symbols.DeclParam && first.Kind == symbols.DeclParam {
			code = diag.ResDuplicateParam
			msg = fmt.Sprintf("duplicate parameter '%s'", d.Name)
		}
		c.rep.Report(diag.NewError(code, d.Span, msg).
			WithNote(first.Span, "first declared here"))
	}
}

// checkUnresolved inspects the reference positions the lexical index can
// vouch for: type references and call sites. A name with a top-level
// declaration in an unimported workspace file becomes missing-import with an
// add-import fix; a name declared nowhere is unresolved.
func (c *checker) checkUnresolved() {
	idx := c.doc.Index
	reported := make(map[string]bool)
	check := func(name string, span source.Span) {
		if reported[name] {
			return
		}
		if symbols.IsBuiltinType(name) || symbols.IsKeyword(name) {
			return
		}
		if idx.ResolveAt(span.Start, name).IsValid() {
			return
		}
		if c.opts.CrossFile {
			if _, _, ok := c.sess.ResolveGlobal(c.doc.Path, name); ok {
				return
			}
			if exporter, ok := c.sess.FindExporter(c.doc.Path, name); ok {
				reported[name] = true
				c.reportMissingImport(name, span, exporter)
				return
			}
		}
		reported[name] = true
		diag.ReportError(c.rep, diag.ResUnresolved, span,
			fmt.Sprintf("cannot resolve '%s'", name))
	}

	for _, ref := range idx.TypeRefs {
		check(ref.Name, ref.Span)
	}
	for _, call := range c.callSites() {
		check(call.Name, call.Span)
	}
}

// callSites returns identifier occurrences directly followed by an opening
// paren, excluding binding sites. These are the only value references the
// lexical scan can classify without a grammar.
func (c *checker) callSites() []symbols.TypeRef {
	idx := c.doc.Index
	text := c.doc.Text()
	var out []symbols.TypeRef
	for _, ident := range idx.Scan.Idents(0, len(text)) {
		next := idx.Scan.SkipSpace(ident.End, idx.Scan.LineEnd(ident.End))
		if next >= len(text) || text[next] != '(' || !idx.Scan.IsCode(next) {
			continue
		}
		off := uint32(ident.Start)
		if d := idx.DeclAt(off); d.IsValid() {
			continue
		}
		if onImportLine(c.doc.Imports, off) {
			continue
		}
		out = append(out, symbols.TypeRef{
			Name: ident.Text,
			Span: identSpan(idx, ident.Start, ident.End),
		})
	}
	return out
}

func (c *checker) reportMissingImport(name string, span source.Span, exporter string) {
	dg := diag.NewError(diag.ImpMissing, span,
		fmt.Sprintf("'%s' is declared in %s but not imported", name, exporter)).
		WithData("symbol", name).
		WithData("path", exporter)
	if f, ok := c.addImportFix(name, exporter); ok {
		dg = dg.WithFix(f)
	}
	c.rep.Report(dg)
}

// addImportFix extends an existing import of the exporter file or inserts a
// new import statement after the current import block.
func (c *checker) addImportFix(name, exporter string) (diag.Fix, bool) {
	dir := workspace.ImportDir(c.doc.Path)
	title := fmt.Sprintf("Import '%s' from \"%s\"", name, importLiteral(dir, exporter))
	opts := []fix.Option{fix.WithID("add-import"), fix.Preferred()}
	for i := range c.doc.Imports {
		imp := &c.doc.Imports[i]
		if imp.Wildcard || !imp.Resolves(dir, exporter) {
			continue
		}
		ext := *imp
		ext.Symbols = append(append([]string(nil), imp.Symbols...), name)
		imports.SortSymbols(ext.Symbols)
		old := c.doc.Text()[imp.Span.Start:imp.Span.End]
		return fix.ReplaceSpan(title, imp.Span, ext.Format(), old, opts...), true
	}
	stmt := fmt.Sprintf("import %s from \"%s\"\n", name, importLiteral(dir, exporter))
	at := c.importInsertionPoint()
	return fix.InsertText(title, identSpan(c.doc.Index, int(at), int(at)), stmt, opts...), true
}

// importInsertionPoint is the offset right after the last import statement,
// or the start of the file when there are none.
func (c *checker) importInsertionPoint() uint32 {
	var at uint32
	for i := range c.doc.Imports {
		end := c.doc.Index.Scan.LineEnd(int(c.doc.Imports[i].Span.Start))
		if end < len(c.doc.Text()) {
			end++
		}
		if uint32(end) > at {
			at = uint32(end)
		}
	}
	return at
}

// importLiteral renders the raw path a new import of target should carry:
// the "./name" short form for a sibling file, the workspace-relative path
// otherwise.
func importLiteral(dir, target string) string {
	trimmed := strings.TrimSuffix(target, imports.Ext)
	if path.Dir(target) == dir {
		return "./" + path.Base(trimmed)
	}
	return trimmed
}
