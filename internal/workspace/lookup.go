package workspace

import (
	"path"

	"github.com/kitecorp/kitels/internal/imports"
	"github.com/kitecorp/kitels/internal/source"
	"github.com/kitecorp/kitels/internal/symbols"
)

// Location is a file path plus a span inside it.
type Location struct {
	Path string
	Span source.Span
}

// ResolveGlobal resolves a name that missed in-file: it walks the host's
// file enumeration, indexes each candidate, and returns the first top-level
// declaration of that name whose defining file is imported by fromPath. A
// matching declaration that is not imported is a miss here; the lint layer
// reports it as missing-import.
func (s *Session) ResolveGlobal(fromPath, name string) (*Document, symbols.DeclID, bool) {
	from, ok := s.Load(fromPath)
	if !ok {
		return nil, symbols.NoDeclID, false
	}
	for _, cand := range s.host.FindFiles() {
		if cand == fromPath {
			continue
		}
		doc, ok := s.Load(cand)
		if !ok {
			continue
		}
		id := exportedDecl(doc.Index, name)
		if !id.IsValid() {
			continue
		}
		if imports.SymbolImported(from.Imports, name, cand, fromPath) {
			return doc, id, true
		}
	}
	return nil, symbols.NoDeclID, false
}

// FindExporter returns a workspace file exporting name, imported or not.
// Backs the missing-import diagnostic and its add-import quick fix.
func (s *Session) FindExporter(fromPath, name string) (string, bool) {
	for _, cand := range s.host.FindFiles() {
		if cand == fromPath {
			continue
		}
		doc, ok := s.Load(cand)
		if !ok {
			continue
		}
		if exportedDecl(doc.Index, name).IsValid() {
			return cand, true
		}
	}
	return "", false
}

// exportedDecl returns the first cross-file-visible declaration named name.
func exportedDecl(idx *symbols.Index, name string) symbols.DeclID {
	for i, d := range idx.Decls.Data() {
		id := symbols.DeclID(i + 1)
		if d.Name == name && idx.Exported(id) {
			return id
		}
	}
	return symbols.NoDeclID
}

// Importers lists workspace files whose imports cover (name, definingFile),
// in enumeration order, excluding the defining file itself.
func (s *Session) Importers(definingFile, name string) []*Document {
	var out []*Document
	for _, cand := range s.host.FindFiles() {
		if cand == definingFile {
			continue
		}
		doc, ok := s.Load(cand)
		if !ok {
			continue
		}
		if imports.SymbolImported(doc.Imports, name, definingFile, cand) {
			out = append(out, doc)
		}
	}
	return out
}

// ImportDir returns the directory a file's relative imports resolve against.
func ImportDir(filePath string) string {
	return path.Dir(filePath)
}
