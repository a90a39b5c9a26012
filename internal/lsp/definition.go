package lsp

import (
	"encoding/json"

	"github.com/kitecorp/kitels/internal/symbols"
	"github.com/kitecorp/kitels/internal/workspace"
)

func (s *Server) handleDefinition(msg *rpcMessage) error {
	var params definitionParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, -32602, "invalid params")
		}
	}
	doc, ok := s.document(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(msg.ID, []location{})
	}
	return s.sendResponse(msg.ID, buildDefinition(s.sess, doc, params.Position))
}

func (s *Server) handleTypeDefinition(msg *rpcMessage) error {
	var params definitionParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, -32602, "invalid params")
		}
	}
	doc, ok := s.document(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(msg.ID, []location{})
	}
	return s.sendResponse(msg.ID, buildTypeDefinition(s.sess, doc, params.Position))
}

func buildDefinition(sess *workspace.Session, doc *workspace.Document, pos position) []location {
	off := offsetForPositionInFile(doc.File, pos)
	defDoc, id, ok := sess.DeclForOffset(doc, off)
	if !ok {
		return []location{}
	}
	return []location{declLocation(defDoc, id)}
}

// buildTypeDefinition jumps from a type reference, or from a declaration
// with a declared type, to the defining schema/component/type alias.
func buildTypeDefinition(sess *workspace.Session, doc *workspace.Document, pos position) []location {
	off := offsetForPositionInFile(doc.File, pos)
	name := typeNameAt(doc, off)
	if name == "" || symbols.IsBuiltinType(name) {
		return []location{}
	}
	if id := doc.Index.ResolveAt(off, name); id.IsValid() {
		return []location{declLocation(doc, id)}
	}
	if defDoc, id, ok := sess.ResolveGlobal(doc.Path, name); ok {
		return []location{declLocation(defDoc, id)}
	}
	return []location{}
}

func typeNameAt(doc *workspace.Document, off uint32) string {
	if ref, ok := doc.Index.TypeRefAt(off); ok {
		return ref.Name
	}
	if id := doc.Index.DeclAt(off); id.IsValid() {
		return doc.Index.Decls.Get(id).Type
	}
	return ""
}

func declLocation(doc *workspace.Document, id symbols.DeclID) location {
	span := doc.Index.Decls.Get(id).Span
	return location{
		URI:   pathToURI(doc.Path),
		Range: rangeForSpan(doc.File, span),
	}
}
