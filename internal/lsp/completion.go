package lsp

import (
	"encoding/json"
	"fmt"

	"github.com/kitecorp/kitels/internal/source"
	"github.com/kitecorp/kitels/internal/symbols"
	"github.com/kitecorp/kitels/internal/workspace"
)

func (s *Server) handleCompletion(msg *rpcMessage) error {
	var params completionParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, -32602, "invalid params")
		}
	}
	doc, ok := s.document(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(msg.ID, []completionItem{})
	}
	return s.sendResponse(msg.ID, buildCompletions(s.sess, doc, params.Position))
}

// buildCompletions offers everything nameable at the cursor: the scope
// chain's bindings innermost-first, keywords, builtin types, and exported
// symbols from other workspace files.
func buildCompletions(sess *workspace.Session, doc *workspace.Document, pos position) []completionItem {
	off := offsetForPositionInFile(doc.File, pos)
	items := []completionItem{}
	seen := make(map[string]bool)

	idx := doc.Index
	for scope := idx.ScopeAt(off); scope.IsValid(); scope = idx.Scopes.Get(scope).Parent {
		for name, declID := range idx.Scopes.Get(scope).Names {
			if seen[name] {
				continue
			}
			seen[name] = true
			d := idx.Decls.Get(declID)
			items = append(items, completionItem{
				Label:    name,
				Kind:     completionKindFor(d.Kind),
				Detail:   d.Type,
				SortText: "0_" + name,
			})
		}
	}

	for _, kw := range symbols.Keywords {
		if !seen[kw] {
			seen[kw] = true
			items = append(items, completionItem{
				Label:    kw,
				Kind:     completionKindKeyword,
				SortText: "2_" + kw,
			})
		}
	}
	for _, name := range symbols.BuiltinTypeNames {
		if !seen[name] {
			seen[name] = true
			items = append(items, completionItem{
				Label:    name,
				Kind:     completionKindStruct,
				Detail:   "builtin type",
				SortText: "2_" + name,
			})
		}
	}

	items = append(items, importableCompletions(sess, doc, seen)...)
	return items
}

// importableCompletions offers exported top-level symbols from the other
// workspace files, whether or not they are imported yet.
func importableCompletions(sess *workspace.Session, doc *workspace.Document, seen map[string]bool) []completionItem {
	var items []completionItem
	for _, path := range sess.Host().FindFiles() {
		if path == doc.Path {
			continue
		}
		other, ok := sess.Load(path)
		if !ok {
			continue
		}
		for _, name := range other.Index.ExportedNames() {
			if seen[name] {
				continue
			}
			seen[name] = true
			items = append(items, completionItem{
				Label:    name,
				Kind:     completionKindReference,
				Detail:   fmt.Sprintf("from %q", source.BaseName(path)),
				SortText: "1_" + name,
			})
		}
	}
	return items
}

func completionKindFor(kind symbols.DeclKind) int {
	switch kind {
	case symbols.DeclFunction:
		return completionKindFunction
	case symbols.DeclSchema, symbols.DeclComponentDef, symbols.DeclTypeAlias:
		return completionKindClass
	case symbols.DeclComponentInst, symbols.DeclResourceInst:
		return completionKindModule
	default:
		return completionKindVariable
	}
}
