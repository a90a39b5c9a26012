package lsp

import (
	"encoding/json"

	"github.com/kitecorp/kitels/internal/symbols"
	"github.com/kitecorp/kitels/internal/workspace"
)

func (s *Server) handleReferences(msg *rpcMessage) error {
	var params referenceParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, -32602, "invalid params")
		}
	}
	doc, ok := s.document(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(msg.ID, []location{})
	}
	refs := buildReferences(s.sess, doc, params.Position, params.Context.IncludeDeclaration)
	return s.sendResponse(msg.ID, refs)
}

func (s *Server) handleImplementation(msg *rpcMessage) error {
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
	return s.sendResponse(msg.ID, buildImplementations(s.sess, doc, params.Position))
}

func (s *Server) handleDocumentHighlight(msg *rpcMessage) error {
	var params definitionParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, -32602, "invalid params")
		}
	}
	doc, ok := s.document(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(msg.ID, []documentHighlight{})
	}
	return s.sendResponse(msg.ID, buildHighlights(s.sess, doc, params.Position))
}

func buildReferences(sess *workspace.Session, doc *workspace.Document, pos position, includeDecl bool) []location {
	off := offsetForPositionInFile(doc.File, pos)
	defDoc, id, ok := sess.DeclForOffset(doc, off)
	if !ok {
		return []location{}
	}
	declSpan := defDoc.Index.Decls.Get(id).Span
	out := []location{}
	for _, loc := range sess.CrossFileOccurrences(defDoc, id) {
		if !includeDecl && loc.Path == defDoc.Path && loc.Span == declSpan {
			continue
		}
		out = append(out, toLSPLocation(sess, loc))
	}
	return out
}

// buildImplementations maps a schema/component definition, or a reference to
// one, to the instances typed by it across the workspace.
func buildImplementations(sess *workspace.Session, doc *workspace.Document, pos position) []location {
	off := offsetForPositionInFile(doc.File, pos)
	defDoc, id, ok := sess.DeclForOffset(doc, off)
	if !ok {
		return []location{}
	}
	d := defDoc.Index.Decls.Get(id)
	switch d.Kind {
	case symbols.DeclSchema, symbols.DeclComponentDef, symbols.DeclTypeAlias:
	default:
		return []location{}
	}
	out := []location{}
	for _, loc := range sess.CrossFileImplementations(defDoc, d.Name) {
		out = append(out, toLSPLocation(sess, loc))
	}
	return out
}

func buildHighlights(sess *workspace.Session, doc *workspace.Document, pos position) []documentHighlight {
	off := offsetForPositionInFile(doc.File, pos)
	id, _, ok := doc.Index.ResolveIdentAt(off)
	if !ok || !id.IsValid() {
		return []documentHighlight{}
	}
	declSpan := doc.Index.Decls.Get(id).Span
	out := []documentHighlight{}
	for _, span := range doc.Index.Occurrences(id) {
		kind := highlightRead
		if span == declSpan {
			kind = highlightWrite
		}
		out = append(out, documentHighlight{
			Range: rangeForSpan(doc.File, span),
			Kind:  kind,
		})
	}
	return out
}

func toLSPLocation(sess *workspace.Session, loc workspace.Location) location {
	out := location{URI: pathToURI(loc.Path)}
	if doc, ok := sess.Load(loc.Path); ok {
		out.Range = rangeForSpan(doc.File, loc.Span)
	}
	return out
}
