package workspace

import (
	"github.com/kitecorp/kitels/internal/source"
	"github.com/kitecorp/kitels/internal/symbols"
)

// DeclForOffset resolves the identifier at off in doc to its declaration,
// in-file first, then across imports. The returned document is the one
// holding the declaration.
func (s *Session) DeclForOffset(doc *Document, off uint32) (*Document, symbols.DeclID, bool) {
	id, ident, ok := doc.Index.ResolveIdentAt(off)
	if !ok {
		return nil, symbols.NoDeclID, false
	}
	if id.IsValid() {
		return doc, id, true
	}
	return s.ResolveGlobal(doc.Path, ident.Text)
}

// CrossFileOccurrences collects every occurrence bound to the target
// declaration: the defining file's in-file set, and for top-level targets
// the same scan over every workspace file whose imports cover the defining
// file. Within each file results follow document order.
func (s *Session) CrossFileOccurrences(def *Document, target symbols.DeclID) []Location {
	d := def.Index.Decls.Get(target)
	if d == nil {
		return nil
	}
	var out []Location
	for _, span := range def.Index.Occurrences(target) {
		out = append(out, Location{Path: def.Path, Span: span})
	}
	if !def.Index.Exported(target) {
		return out
	}
	for _, doc := range s.Importers(def.Path, d.Name) {
		for _, ident := range doc.Index.Scan.Idents(0, len(doc.Text())) {
			if ident.Text != d.Name {
				continue
			}
			// A local binding wins over the import; only unbound
			// occurrences refer to the imported declaration.
			if doc.Index.ResolveAt(uint32(ident.Start), d.Name).IsValid() {
				continue
			}
			out = append(out, Location{
				Path: doc.Path,
				Span: identSpanIn(doc, ident.Start, ident.End),
			})
		}
	}
	return out
}

// CrossFileImplementations finds instance declarations typed by the given
// schema or component definition, in the defining file and every importer,
// ordered by declaration order within each file.
func (s *Session) CrossFileImplementations(def *Document, typeName string) []Location {
	var out []Location
	collect := func(doc *Document) {
		for _, id := range doc.Index.Implementations(typeName) {
			out = append(out, Location{Path: doc.Path, Span: doc.Index.Decls.Get(id).Span})
		}
	}
	collect(def)
	for _, doc := range s.Importers(def.Path, typeName) {
		collect(doc)
	}
	return out
}

func identSpanIn(doc *Document, start, end int) source.Span {
	return source.Span{File: doc.File.ID, Start: uint32(start), End: uint32(end)}
}
