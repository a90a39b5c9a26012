package lsp

import (
	"encoding/json"
	"sort"

	"github.com/kitecorp/kitels/internal/symbols"
	"github.com/kitecorp/kitels/internal/workspace"
)

const (
	tokenType     = 0
	tokenFunction = 1
	tokenVariable = 2
	tokenParam    = 3
	tokenProperty = 4
	tokenKeyword  = 5
)

const (
	modDeclaration = 1 << 0
	modDefaultLib  = 1 << 1
)

func tokenLegend() semanticTokensLegend {
	return semanticTokensLegend{
		TokenTypes:     []string{"type", "function", "variable", "parameter", "property", "keyword"},
		TokenModifiers: []string{"declaration", "defaultLibrary"},
	}
}

func (s *Server) handleSemanticTokens(msg *rpcMessage) error {
	var params semanticTokensParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return s.sendError(msg.ID, -32602, "invalid params")
	}
	doc, ok := s.document(params.TextDocument.URI)
	if !ok {
		return s.sendResponse(msg.ID, semanticTokens{Data: []uint32{}})
	}
	return s.sendResponse(msg.ID, semanticTokens{Data: buildSemanticTokens(doc)})
}

type semToken struct {
	start uint32
	end   uint32
	typ   uint32
	mods  uint32
}

// buildSemanticTokens classifies every identifier the index can account
// for: declarations, references bound to them, type references, and
// keywords. The result is the flat delta-encoded quintuple array.
func buildSemanticTokens(doc *workspace.Document) []uint32 {
	idx := doc.Index
	var toks []semToken

	for _, d := range idx.Decls.Data() {
		toks = append(toks, semToken{
			start: d.Span.Start,
			end:   d.Span.End,
			typ:   tokenTypeFor(d.Kind),
			mods:  modDeclaration,
		})
	}
	for _, ref := range idx.TypeRefs {
		tok := semToken{start: ref.Span.Start, end: ref.Span.End, typ: tokenType}
		if symbols.IsBuiltinType(ref.Name) {
			tok.mods = modDefaultLib
		}
		toks = append(toks, tok)
	}
	for _, ident := range idx.Scan.Idents(0, idx.Scan.Len()) {
		if symbols.IsKeyword(ident.Text) {
			toks = append(toks, semToken{
				start: safeUint32(ident.Start),
				end:   safeUint32(ident.End),
				typ:   tokenKeyword,
			})
			continue
		}
		id := idx.ResolveAt(safeUint32(ident.Start), ident.Text)
		if !id.IsValid() {
			continue
		}
		toks = append(toks, semToken{
			start: safeUint32(ident.Start),
			end:   safeUint32(ident.End),
			typ:   tokenTypeFor(idx.Decls.Get(id).Kind),
		})
	}

	sort.SliceStable(toks, func(i, j int) bool {
		if toks[i].start == toks[j].start {
			return toks[i].mods > toks[j].mods
		}
		return toks[i].start < toks[j].start
	})

	data := []uint32{}
	prevLine, prevChar := 0, 0
	var lastEnd uint32
	for _, tok := range toks {
		if tok.start < lastEnd {
			continue
		}
		lastEnd = tok.end
		pos := positionForOffsetInFile(doc.File, tok.start)
		deltaLine := pos.Line - prevLine
		deltaChar := pos.Character
		if deltaLine == 0 {
			deltaChar = pos.Character - prevChar
		}
		endPos := positionForOffsetInFile(doc.File, tok.end)
		length := endPos.Character - pos.Character
		if endPos.Line != pos.Line {
			length = int(tok.end - tok.start)
		}
		data = append(data,
			safeUint32(deltaLine),
			safeUint32(deltaChar),
			safeUint32(length),
			tok.typ,
			tok.mods,
		)
		prevLine, prevChar = pos.Line, pos.Character
	}
	return data
}

func tokenTypeFor(kind symbols.DeclKind) uint32 {
	switch kind {
	case symbols.DeclFunction:
		return tokenFunction
	case symbols.DeclSchema, symbols.DeclComponentDef, symbols.DeclTypeAlias:
		return tokenType
	case symbols.DeclParam:
		return tokenParam
	case symbols.DeclInput, symbols.DeclOutput:
		return tokenProperty
	default:
		return tokenVariable
	}
}
