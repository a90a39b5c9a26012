package lsp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kitecorp/kitels/internal/source"
	"github.com/kitecorp/kitels/internal/symbols"
	"github.com/kitecorp/kitels/internal/workspace"
)

func (s *Server) handleHover(msg *rpcMessage) error {
	var params hoverParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, -32602, "invalid params")
		}
	}
	doc, ok := s.document(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(msg.ID, nil)
	}
	return s.sendResponse(msg.ID, buildHover(s.sess, doc, params.Position))
}

// buildHover shows the declaration kind, name, and declared type of the
// symbol under the cursor, naming the defining file for imported symbols.
func buildHover(sess *workspace.Session, doc *workspace.Document, pos position) *hover {
	off := offsetForPositionInFile(doc.File, pos)
	ident, ok := doc.Index.Scan.IdentAt(int(off))
	if !ok {
		return nil
	}
	if symbols.IsBuiltinType(ident.Text) {
		return hoverResult(doc, ident.Start, ident.End, fmt.Sprintf("builtin type `%s`", ident.Text))
	}
	defDoc, id, ok := sess.DeclForOffset(doc, off)
	if !ok {
		return nil
	}
	d := defDoc.Index.Decls.Get(id)

	var sb strings.Builder
	sb.WriteString("```kite\n")
	sb.WriteString(declSignature(d))
	sb.WriteString("\n```")
	if defDoc.Path != doc.Path {
		fmt.Fprintf(&sb, "\n\nDefined in `%s`", source.BaseName(defDoc.Path))
	}
	return hoverResult(doc, ident.Start, ident.End, sb.String())
}

func declSignature(d *symbols.Decl) string {
	switch d.Kind {
	case symbols.DeclFunction:
		if d.Type != "" {
			return fmt.Sprintf("fun %s: %s", d.Name, d.Type)
		}
		return fmt.Sprintf("fun %s", d.Name)
	case symbols.DeclSchema:
		return "schema " + d.Name
	case symbols.DeclComponentDef:
		return "component " + d.Name
	case symbols.DeclTypeAlias:
		return "type " + d.Name
	case symbols.DeclComponentInst:
		return fmt.Sprintf("component %s %s", d.Type, d.Name)
	case symbols.DeclResourceInst:
		return fmt.Sprintf("resource %s %s", d.Type, d.Name)
	case symbols.DeclInput:
		return typedSignature("input", d)
	case symbols.DeclOutput:
		return typedSignature("output", d)
	case symbols.DeclParam:
		return typedSignature("parameter", d)
	default:
		return typedSignature("var", d)
	}
}

func typedSignature(kw string, d *symbols.Decl) string {
	if d.Type != "" {
		return fmt.Sprintf("%s %s %s", kw, d.Type, d.Name)
	}
	return fmt.Sprintf("%s %s", kw, d.Name)
}

func hoverResult(doc *workspace.Document, start, end int, value string) *hover {
	rng := rangeForSpan(doc.File, identSpanOf(doc, start, end))
	return &hover{
		Contents: markupContent{Kind: "markdown", Value: value},
		Range:    &rng,
	}
}
