package lint

import (
	"fmt"

	"github.com/kitecorp/kitels/internal/diag"
	"github.com/kitecorp/kitels/internal/fix"
	"github.com/kitecorp/kitels/internal/imports"
	"github.com/kitecorp/kitels/internal/symbols"
	"github.com/kitecorp/kitels/internal/workspace"
)

// checkUnusedLocals flags local bindings with no reference inside their
// scope. Top-level bindings are cross-file visible and handled separately.
func (c *checker) checkUnusedLocals() {
	idx := c.doc.Index
	for i, d := range idx.Decls.Data() {
		id := symbols.DeclID(i + 1)
		switch d.Kind {
		case symbols.DeclVar, symbols.DeclLoopVar, symbols.DeclComprehensionVar, symbols.DeclParam:
		default:
			continue
		}
		if d.Kind == symbols.DeclVar && d.Scope == idx.Root {
			continue
		}
		if idx.CountReferences(id) > 0 {
			continue
		}
		dg := diag.NewWarning(diag.LintUnusedVar, d.Span,
			fmt.Sprintf("unused %s '%s'", d.Kind, d.Name)).AsUnnecessary()
		if d.Kind == symbols.DeclVar {
			// Loop and parameter lines carry structure; only plain
			// variable declarations get the delete-line fix.
			span := idx.DeclLineDeletion(id)
			dg = dg.WithFix(fix.DeleteSpan(
				fmt.Sprintf("Remove unused variable '%s'", d.Name),
				span, c.doc.Text()[span.Start:span.End],
				fix.WithID("remove-unused-var"), fix.Preferred()))
		}
		c.rep.Report(dg)
	}
}

// checkUnusedFunctions flags functions with no reference in the defining
// file nor, when cross-file analysis is on, in any importing file. Import
// statements alone do not count as uses; an import without a use is the
// importer's unused-import finding.
func (c *checker) checkUnusedFunctions() {
	idx := c.doc.Index
	for i, d := range idx.Decls.Data() {
		id := symbols.DeclID(i + 1)
		if d.Kind != symbols.DeclFunction {
			continue
		}
		if idx.CountReferences(id) > 0 {
			continue
		}
		if c.opts.CrossFile && idx.Exported(id) && c.usedByImporters(d.Name) {
			continue
		}
		if !c.opts.CrossFile && idx.Exported(id) {
			// Single-file run cannot prove an exported function dead.
			continue
		}
		c.rep.Report(diag.NewWarning(diag.LintUnusedFun, d.Span,
			fmt.Sprintf("unused function '%s'", d.Name)).AsUnnecessary())
	}
}

// usedByImporters reports whether any importing file references name
// outside its import statements.
func (c *checker) usedByImporters(name string) bool {
	for _, doc := range c.sess.Importers(c.doc.Path, name) {
		if len(doc.ImportedUses(name)) > 0 {
			return true
		}
	}
	return false
}

func onImportLine(imps []imports.Import, off uint32) bool {
	for i := range imps {
		if imps[i].Span.Contains(off) {
			return true
		}
	}
	return false
}

// checkUnusedImports flags imported symbols never referenced, and wildcard
// imports of files none of whose exports are referenced.
func (c *checker) checkUnusedImports() {
	dir := workspace.ImportDir(c.doc.Path)
	for i := range c.doc.Imports {
		imp := &c.doc.Imports[i]
		if imp.Wildcard {
			c.checkUnusedWildcard(imp, dir)
			continue
		}
		for si, sym := range imp.Symbols {
			if len(c.doc.ImportedUses(sym)) > 0 {
				continue
			}
			c.rep.Report(c.unusedSymbolDiag(imp, si, sym))
		}
	}
}

func (c *checker) unusedSymbolDiag(imp *imports.Import, si int, sym string) diag.Diagnostic {
	dg := diag.NewWarning(diag.ImpUnusedSymbol, imp.SymbolSpans[si],
		fmt.Sprintf("'%s' is imported but never used", sym)).AsUnnecessary()
	title := fmt.Sprintf("Remove unused import '%s'", sym)
	opts := []fix.Option{fix.WithID("remove-unused-import"), fix.Preferred()}
	if rewritten, keep := imp.WithoutSymbol(sym); keep {
		old := c.doc.Text()[imp.Span.Start:imp.Span.End]
		return dg.WithFix(fix.ReplaceSpan(title, imp.Span, rewritten, old, opts...))
	}
	span := c.doc.Index.LineDeletionSpan(imp.Span.Start)
	return dg.WithFix(fix.DeleteSpan(title, span, c.doc.Text()[span.Start:span.End], opts...))
}

func (c *checker) checkUnusedWildcard(imp *imports.Import, dir string) {
	if !c.opts.CrossFile {
		return
	}
	exporter, ok := c.resolveImportFile(imp, dir)
	if !ok {
		return
	}
	doc, ok := c.sess.Load(exporter)
	if !ok {
		return
	}
	for _, name := range doc.Index.ExportedNames() {
		if len(c.doc.ImportedUses(name)) > 0 {
			return
		}
	}
	span := c.doc.Index.LineDeletionSpan(imp.Span.Start)
	c.rep.Report(diag.NewWarning(diag.ImpUnusedWildcard, imp.Span,
		fmt.Sprintf("nothing from \"%s\" is used", imp.Path)).
		AsUnnecessary().
		WithFix(fix.DeleteSpan("Remove unused import", span, c.doc.Text()[span.Start:span.End],
			fix.WithID("remove-unused-import"), fix.Preferred())))
}

// resolveImportFile maps an import statement to the workspace file it
// targets, by the same suffix comparison the symbol resolver uses.
func (c *checker) resolveImportFile(imp *imports.Import, dir string) (string, bool) {
	for _, cand := range c.sess.Host().FindFiles() {
		if cand == c.doc.Path {
			continue
		}
		if imp.Resolves(dir, cand) {
			return cand, true
		}
	}
	return "", false
}
