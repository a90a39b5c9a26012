package lsp

import (
	"encoding/json"

	"github.com/kitecorp/kitels/internal/symbols"
	"github.com/kitecorp/kitels/internal/workspace"
)

func (s *Server) handleDocumentSymbol(msg *rpcMessage) error {
	var params documentSymbolParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, -32602, "invalid params")
	}
	doc, ok := s.document(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(msg.ID, []documentSymbol{})
	}
	return s.sendResponse(msg.ID, buildDocumentSymbols(doc))
}

// buildDocumentSymbols renders the outline: one node per declaration,
// nested by the scope tree. A declaration owning a body scope adopts that
// scope's declarations as children.
func buildDocumentSymbols(doc *workspace.Document) []documentSymbol {
	return symbolsForScope(doc, doc.Index.Root)
}

func symbolsForScope(doc *workspace.Document, scopeID symbols.ScopeID) []documentSymbol {
	idx := doc.Index
	scope := idx.Scopes.Get(scopeID)
	owners := assignBodyScopes(idx, scope)

	out := []documentSymbol{}
	for _, declID := range scope.Decls {
		d := idx.Decls.Get(declID)
		sym := documentSymbol{
			Name:           d.Name,
			Detail:         d.Type,
			Kind:           symbolKindFor(d.Kind),
			Range:          rangeForSpan(doc.File, d.Span),
			SelectionRange: rangeForSpan(doc.File, d.Span),
		}
		if body, ok := owners[declID]; ok {
			bodySpan := idx.Scopes.Get(body).Span
			sym.Range = rangeForSpan(doc.File, d.Span.Cover(bodySpan))
			sym.Children = symbolsForScope(doc, body)
		}
		out = append(out, sym)
	}
	// Scopes not owned by a declaration (loops, comprehensions) surface
	// their declarations at the current level.
	owned := make(map[symbols.ScopeID]bool, len(owners))
	for _, id := range owners {
		owned[id] = true
	}
	for _, child := range scope.Children {
		if !owned[child] {
			out = append(out, symbolsForScope(doc, child)...)
		}
	}
	return out
}

// assignBodyScopes pairs each body child scope with the last bodied
// declaration ending before it.
func assignBodyScopes(idx *symbols.Index, scope *symbols.Scope) map[symbols.DeclID]symbols.ScopeID {
	out := make(map[symbols.DeclID]symbols.ScopeID)
	for _, child := range scope.Children {
		cs := idx.Scopes.Get(child)
		switch cs.Kind {
		case symbols.ScopeFunction, symbols.ScopeSchema, symbols.ScopeComponent, symbols.ScopeBlock:
		default:
			continue
		}
		var owner symbols.DeclID
		for _, declID := range scope.Decls {
			d := idx.Decls.Get(declID)
			if d.Span.End <= cs.Span.Start && hasBody(d.Kind) {
				if !owner.IsValid() || d.Span.End > idx.Decls.Get(owner).Span.End {
					owner = declID
				}
			}
		}
		if owner.IsValid() {
			if _, taken := out[owner]; !taken {
				out[owner] = child
			}
		}
	}
	return out
}

func hasBody(kind symbols.DeclKind) bool {
	switch kind {
	case symbols.DeclFunction, symbols.DeclSchema, symbols.DeclComponentDef,
		symbols.DeclComponentInst, symbols.DeclResourceInst:
		return true
	}
	return false
}

func symbolKindFor(kind symbols.DeclKind) int {
	switch kind {
	case symbols.DeclFunction:
		return symbolKindFunction
	case symbols.DeclSchema:
		return symbolKindStruct
	case symbols.DeclComponentDef:
		return symbolKindInterface
	case symbols.DeclComponentInst, symbols.DeclResourceInst:
		return symbolKindObject
	case symbols.DeclTypeAlias:
		return symbolKindTypeParam
	default:
		return symbolKindVariable
	}
}
