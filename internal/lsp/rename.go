package lsp

import (
	"encoding/json"

	"github.com/kitecorp/kitels/internal/source"
	"github.com/kitecorp/kitels/internal/symbols"
	"github.com/kitecorp/kitels/internal/workspace"
)

func (s *Server) handlePrepareRename(msg *rpcMessage) error {
	var params definitionParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, -32602, "invalid params")
		}
	}
	doc, ok := s.document(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(msg.ID, nil)
	}
	return s.sendResponse(msg.ID, buildPrepareRename(s.sess, doc, params.Position))
}

func (s *Server) handleRename(msg *rpcMessage) error {
	var params renameParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, -32602, "invalid params")
	}
	doc, ok := s.document(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(msg.ID, nil)
	}
	if !validIdentifier(params.NewName) {
		return s.sendError(msg.ID, -32602, "invalid identifier")
	}
	edit := buildRename(s.sess, doc, params.Position, params.NewName)
	if edit == nil {
		return s.sendResponse(msg.ID, nil)
	}
	return s.sendResponse(msg.ID, edit)
}

func (s *Server) handleLinkedEditingRange(msg *rpcMessage) error {
	var params definitionParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, -32602, "invalid params")
		}
	}
	doc, ok := s.document(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(msg.ID, nil)
	}
	return s.sendResponse(msg.ID, buildLinkedEditing(doc, params.Position))
}

// buildPrepareRename validates the rename target: an identifier that
// resolves to a declaration, not a keyword or builtin type.
func buildPrepareRename(sess *workspace.Session, doc *workspace.Document, pos position) *prepareRenameResult {
	off := offsetForPositionInFile(doc.File, pos)
	ident, ok := doc.Index.Scan.IdentAt(int(off))
	if !ok || symbols.IsKeyword(ident.Text) || symbols.IsBuiltinType(ident.Text) {
		return nil
	}
	if _, _, ok := sess.DeclForOffset(doc, off); !ok {
		return nil
	}
	span := identSpanOf(doc, ident.Start, ident.End)
	return &prepareRenameResult{
		Range:       rangeForSpan(doc.File, span),
		Placeholder: ident.Text,
	}
}

// buildRename rewrites every occurrence bound to the target declaration,
// grouped by file.
func buildRename(sess *workspace.Session, doc *workspace.Document, pos position, newName string) *workspaceEdit {
	off := offsetForPositionInFile(doc.File, pos)
	ident, ok := doc.Index.Scan.IdentAt(int(off))
	if !ok || symbols.IsKeyword(ident.Text) || symbols.IsBuiltinType(ident.Text) {
		return nil
	}
	defDoc, id, ok := sess.DeclForOffset(doc, off)
	if !ok {
		return nil
	}
	changes := make(map[string][]textEdit)
	for _, loc := range sess.CrossFileOccurrences(defDoc, id) {
		target, ok := sess.Load(loc.Path)
		if !ok {
			continue
		}
		uri := pathToURI(loc.Path)
		changes[uri] = append(changes[uri], textEdit{
			Range:   rangeForSpan(target.File, loc.Span),
			NewText: newName,
		})
	}
	if len(changes) == 0 {
		return nil
	}
	return &workspaceEdit{Changes: changes}
}

// buildLinkedEditing returns the same-document occurrence set of the
// declaration under the cursor. Cross-file occurrences are out: linked
// editing only rewrites the buffer being typed in.
func buildLinkedEditing(doc *workspace.Document, pos position) *linkedEditingRanges {
	off := offsetForPositionInFile(doc.File, pos)
	id, ident, ok := doc.Index.ResolveIdentAt(off)
	if !ok || !id.IsValid() || symbols.IsKeyword(ident.Text) {
		return nil
	}
	spans := doc.Index.Occurrences(id)
	if len(spans) < 2 {
		return nil
	}
	ranges := make([]lspRange, 0, len(spans))
	for _, span := range spans {
		ranges = append(ranges, rangeForSpan(doc.File, span))
	}
	return &linkedEditingRanges{Ranges: ranges}
}

func identSpanOf(doc *workspace.Document, start, end int) source.Span {
	return source.Span{
		File:  doc.File.ID,
		Start: safeUint32(start),
		End:   safeUint32(end),
	}
}

func validIdentifier(name string) bool {
	if name == "" || symbols.IsKeyword(name) {
		return false
	}
	for i := 0; i < len(name); i++ {
		ch := name[i]
		letter := ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
		if i == 0 && !letter {
			return false
		}
		if !letter && !(ch >= '0' && ch <= '9') {
			return false
		}
	}
	return true
}
