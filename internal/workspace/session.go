package workspace

import (
	"crypto/sha256"

	"github.com/kitecorp/kitels/internal/imports"
	"github.com/kitecorp/kitels/internal/source"
	"github.com/kitecorp/kitels/internal/symbols"
)

// Document is one indexed file: the borrowed text snapshot plus the scope
// tree and import list derived from it. All derived state is rebuilt in full
// on every content change.
type Document struct {
	Path    string
	Version int
	File    *source.File
	Index   *symbols.Index
	Imports []imports.Import
}

// Text returns the document content.
func (d *Document) Text() string { return d.File.Text() }

// ImportedUses returns the identifier offsets in the document that can only
// refer to an imported binding of name: the text matches, the occurrence lies
// outside every import statement, and in-file resolution misses.
func (d *Document) ImportedUses(name string) []int {
	var out []int
	for _, ident := range d.Index.Scan.Idents(0, len(d.Text())) {
		if ident.Text != name {
			continue
		}
		off := uint32(ident.Start)
		if d.onImportLine(off) {
			continue
		}
		if d.Index.ResolveAt(off, name).IsValid() {
			continue
		}
		out = append(out, ident.Start)
	}
	return out
}

func (d *Document) onImportLine(off uint32) bool {
	for i := range d.Imports {
		if d.Imports[i].Span.Contains(off) {
			return true
		}
	}
	return false
}

// Session owns the per-open-document cache. It is the only entity permitted
// to mutate it, through the OnOpen/OnChange/OnClose lifecycle hooks, and it
// runs single-threaded: one request at a time, no background indexing.
type Session struct {
	host Host
	fset *source.FileSet
	docs map[string]*Document
}

// NewSession creates a session over the given host. Directory hosts anchor
// the file set at their root so rendered paths come out workspace-relative.
func NewSession(host Host) *Session {
	fset := source.NewFileSet()
	if dh, ok := host.(*DirHost); ok {
		fset = source.NewFileSetWithBase(dh.Root)
	}
	return &Session{
		host: host,
		fset: fset,
		docs: make(map[string]*Document),
	}
}

// Host returns the capability interface the session was built over.
func (s *Session) Host() Host { return s.host }

// FileSet returns the session's file set. Spans produced by any document
// index resolve against it.
func (s *Session) FileSet() *source.FileSet { return s.fset }

// OnOpen indexes a freshly opened document and caches it.
func (s *Session) OnOpen(path string, version int, text string) *Document {
	return s.rebuild(path, version, text)
}

// OnChange re-indexes the whole document. No incremental re-indexing: the
// scope tree has no identity across versions.
func (s *Session) OnChange(path string, version int, text string) *Document {
	return s.rebuild(path, version, text)
}

// OnClose evicts the document from the cache.
func (s *Session) OnClose(path string) {
	delete(s.docs, path)
}

func (s *Session) rebuild(path string, version int, text string) *Document {
	id := s.fset.AddVirtual(path, []byte(text))
	file := s.fset.Get(id)
	doc := &Document{
		Path:    path,
		Version: version,
		File:    file,
		Index:   symbols.BuildIndex(file),
		Imports: imports.Extract(file),
	}
	s.docs[path] = doc
	return doc
}

// Open returns the cached document for an open path.
func (s *Session) Open(path string) (*Document, bool) {
	doc, ok := s.docs[path]
	return doc, ok
}

// OpenPaths lists the currently open documents.
func (s *Session) OpenPaths() []string {
	out := make([]string, 0, len(s.docs))
	for path := range s.docs {
		out = append(out, path)
	}
	return out
}

// Load returns the document for path: the open-buffer version when present,
// otherwise a fresh index over the host's content. Non-open documents are
// not cached; cross-file requests re-read them every time.
func (s *Session) Load(path string) (*Document, bool) {
	if doc, ok := s.docs[path]; ok {
		return doc, true
	}
	content, ok := s.host.FileContent(path)
	if !ok {
		return nil, false
	}
	// Host-backed content is not an editor buffer; the fix engine may write
	// these files back. Re-reading an unchanged file reuses its latest file
	// set entry so repeated cross-file loads do not grow the set.
	file, ok := s.fset.GetByPath(path)
	if !ok || file.Flags&source.FileVirtual != 0 || file.Hash != sha256.Sum256(content) {
		file = s.fset.Get(s.fset.Add(path, content, 0))
	}
	return &Document{
		Path:    path,
		File:    file,
		Index:   symbols.BuildIndex(file),
		Imports: imports.Extract(file),
	}, true
}
