package driver

import (
	"encoding/json"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/kitecorp/kitels/internal/imports"
	"github.com/kitecorp/kitels/internal/source"
	"github.com/kitecorp/kitels/internal/symbols"
	"github.com/kitecorp/kitels/internal/workspace"
)

// Schema version for safe invalidation when the payload format changes.
const exportSchemaVersion uint16 = 1

// ExportPayload is the serialized symbol index for a workspace: every file's
// declarations and imports, in path order. Consumers rebuild cross-file
// navigation from it without re-indexing source text.
type ExportPayload struct {
	Schema uint16       `json:"schema" msgpack:"schema"`
	Files  []FileExport `json:"files" msgpack:"files"`
}

// FileExport carries one file's index slice.
type FileExport struct {
	Path    string         `json:"path" msgpack:"path"`
	Decls   []DeclExport   `json:"decls,omitempty" msgpack:"decls"`
	Imports []ImportExport `json:"imports,omitempty" msgpack:"imports"`
}

// DeclExport is one declaration entry. Line and Col are 1-based.
type DeclExport struct {
	Name     string `json:"name" msgpack:"name"`
	Kind     string `json:"kind" msgpack:"kind"`
	Type     string `json:"type,omitempty" msgpack:"type"`
	Line     int    `json:"line" msgpack:"line"`
	Col      int    `json:"col" msgpack:"col"`
	Exported bool   `json:"exported,omitempty" msgpack:"exported"`
}

// ImportExport is one import statement. Resolved is the workspace-relative
// target path the raw literal resolves to.
type ImportExport struct {
	Path     string   `json:"path" msgpack:"path"`
	Resolved string   `json:"resolved" msgpack:"resolved"`
	Wildcard bool     `json:"wildcard,omitempty" msgpack:"wildcard"`
	Symbols  []string `json:"symbols,omitempty" msgpack:"symbols"`
}

// BuildExport indexes every file the host enumerates and collects the
// payload. Unreadable files are skipped.
func BuildExport(host workspace.Host) *ExportPayload {
	snapshot, paths := snapshotHost(host)
	sess := workspace.NewSession(snapshot)

	payload := &ExportPayload{Schema: exportSchemaVersion}
	for _, path := range paths {
		doc, ok := sess.Load(path)
		if !ok {
			continue
		}
		payload.Files = append(payload.Files, exportFile(sess.FileSet(), doc))
	}
	return payload
}

func exportFile(fset *source.FileSet, doc *workspace.Document) FileExport {
	out := FileExport{Path: doc.Path}

	idx := doc.Index
	for i, d := range idx.Decls.Data() {
		id := symbols.DeclID(i + 1)
		pos := fset.Position(doc.File.ID, d.Span.Start)
		out.Decls = append(out.Decls, DeclExport{
			Name:     d.Name,
			Kind:     d.Kind.String(),
			Type:     d.Type,
			Line:     int(pos.Line),
			Col:      int(pos.Col),
			Exported: idx.Exported(id),
		})
	}

	dir := workspace.ImportDir(doc.Path)
	for _, imp := range doc.Imports {
		out.Imports = append(out.Imports, ImportExport{
			Path:     imp.Path,
			Resolved: imports.ResolvePath(imp.Path, dir),
			Wildcard: imp.Wildcard,
			Symbols:  imp.Symbols,
		})
	}
	return out
}

// WriteJSON writes the payload as indented JSON.
func (p *ExportPayload) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

// WriteMsgpack writes the payload in msgpack encoding.
func (p *ExportPayload) WriteMsgpack(w io.Writer) error {
	return msgpack.NewEncoder(w).Encode(p)
}

// ReadMsgpack decodes a payload previously written by WriteMsgpack.
func ReadMsgpack(r io.Reader) (*ExportPayload, error) {
	var p ExportPayload
	if err := msgpack.NewDecoder(r).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}
