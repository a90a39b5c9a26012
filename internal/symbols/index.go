package symbols

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"github.com/kitecorp/kitels/internal/scan"
	"github.com/kitecorp/kitels/internal/source"
)

// Index is the per-document scope tree and declaration list. Built fresh on
// every content change and discarded on the next; nothing here survives a
// document version.
type Index struct {
	File     *source.File
	Scan     *scan.Scanner
	Scopes   *Scopes
	Decls    *Decls
	Root     ScopeID
	TypeRefs []TypeRef
}

// BuildIndex runs one forward scan over the file and produces its index.
// Malformed constructs never fail the pass: a pattern that does not match
// simply declares nothing and scanning continues.
func BuildIndex(file *source.File) *Index {
	text := file.Text()
	sc := scan.New(text)
	idx := &Index{
		File:   file,
		Scan:   sc,
		Scopes: NewScopes(0),
		Decls:  NewDecls(0),
	}
	idx.Root = idx.Scopes.New(ScopeFileTop, NoScopeID, idx.span(0, len(text)))

	b := &indexBuilder{idx: idx, sc: sc, text: text, stack: []ScopeID{idx.Root}}
	b.run()
	return idx
}

func (idx *Index) span(start, end int) source.Span {
	s, err := safecast.Conv[uint32](start)
	if err != nil {
		panic(fmt.Errorf("span start overflow: %w", err))
	}
	e, err := safecast.Conv[uint32](end)
	if err != nil {
		panic(fmt.Errorf("span end overflow: %w", err))
	}
	return source.Span{File: idx.File.ID, Start: s, End: e}
}

func (idx *Index) identSpan(id scan.Ident) source.Span {
	return idx.span(id.Start, id.End)
}

// builtinTypes is the fixed set of type names that never resolve to a
// declaration but still count as type references.
var builtinTypes = map[string]bool{
	"string":  true,
	"number":  true,
	"boolean": true,
	"any":     true,
	"object":  true,
	"void":    true,
}

// IsBuiltinType reports whether name is one of the language's base types.
func IsBuiltinType(name string) bool { return builtinTypes[name] }

// looksLikeType applies the type-token heuristic: leading capital or builtin.
func looksLikeType(name string) bool {
	if name == "" {
		return false
	}
	if name[0] >= 'A' && name[0] <= 'Z' {
		return true
	}
	return builtinTypes[name]
}

type indexBuilder struct {
	idx   *Index
	sc    *scan.Scanner
	text  string
	stack []ScopeID
}

func (b *indexBuilder) run() {
	ls := 0
	for ls < len(b.text) {
		le := b.sc.LineEnd(ls)
		b.processLine(ls, le)
		ls = le + 1
	}
}

func (b *indexBuilder) processLine(ls, le int) {
	pos := b.firstCode(ls, le)
	if pos < 0 {
		return
	}
	b.popTo(pos)

	if b.text[pos] == '[' {
		// Prefix-form comprehension line. Open its scope first so a
		// same-line follower (`[for e in l] resource ...`) nests right.
		b.scanComprehensions(ls, le)
		if closeBr := b.sc.MatchingBracket(pos); closeBr >= 0 {
			if id, ok := b.sc.NextIdent(closeBr+1, le); ok {
				b.dispatch(id, le)
			}
		}
		return
	}

	if id, ok := b.sc.NextIdent(pos, le); ok && id.Start == pos {
		b.dispatch(id, le)
	}
	// Embedded comprehensions open their scopes after the line's own
	// declaration so the declaration stays outside them.
	b.scanComprehensions(ls, le)
}

func (b *indexBuilder) dispatch(id scan.Ident, le int) {
	switch id.Text {
	case "var":
		b.handleVar(id, le)
	case "input":
		b.handleInputOutput(id, le, DeclInput)
	case "output":
		b.handleInputOutput(id, le, DeclOutput)
	case "schema":
		b.handleSchema(id, le)
	case "type":
		b.handleTypeAlias(id, le)
	case "fun":
		b.handleFun(id, le)
	case "component":
		b.handleComponent(id, le)
	case "resource":
		b.handleResource(id, le)
	case "for":
		b.handleFor(id, le)
	}
}

// firstCode returns the first plain-code, non-blank offset on the line, or -1.
func (b *indexBuilder) firstCode(ls, le int) int {
	for i := ls; i < le; i++ {
		if b.sc.ClassAt(i) != scan.ClassCode {
			continue
		}
		switch b.text[i] {
		case ' ', '\t', '\r':
			continue
		}
		return i
	}
	return -1
}

// findCode locates the first code-class occurrence of ch in [from, to).
func (b *indexBuilder) findCode(ch byte, from, to int) int {
	if to > len(b.text) {
		to = len(b.text)
	}
	for i := from; i < to; i++ {
		if b.text[i] == ch && b.sc.ClassAt(i) == scan.ClassCode {
			return i
		}
	}
	return -1
}

func (b *indexBuilder) top() ScopeID { return b.stack[len(b.stack)-1] }

// popTo closes every open scope whose span ends at or before pos.
func (b *indexBuilder) popTo(pos int) {
	for len(b.stack) > 1 {
		top := b.idx.Scopes.Get(b.top())
		if top == nil || int(top.Span.End) > pos {
			return
		}
		b.stack = b.stack[:len(b.stack)-1]
	}
}

func (b *indexBuilder) push(kind ScopeKind, start, end int) ScopeID {
	id := b.idx.Scopes.New(kind, b.top(), b.idx.span(start, end))
	b.stack = append(b.stack, id)
	return id
}

// declare records a declaration in scope. The first binding of a name owns
// the scope's name slot; later same-name bindings are kept only for the
// duplicate-decl diagnostic.
func (b *indexBuilder) declare(scope ScopeID, kind DeclKind, name scan.Ident, typ string) DeclID {
	declID := b.idx.Decls.New(Decl{
		Name:  name.Text,
		Kind:  kind,
		Type:  typ,
		Span:  b.idx.identSpan(name),
		Scope: scope,
	})
	sc := b.idx.Scopes.Get(scope)
	sc.Decls = append(sc.Decls, declID)
	if _, taken := sc.Names[name.Text]; !taken {
		sc.Names[name.Text] = declID
	}
	return declID
}

func (b *indexBuilder) typeRef(id scan.Ident) {
	if !looksLikeType(id.Text) {
		return
	}
	b.idx.TypeRefs = append(b.idx.TypeRefs, TypeRef{Name: id.Text, Span: b.idx.identSpan(id)})
}

// handleVar indexes `var [Type] Name = ...` into the innermost open scope.
func (b *indexBuilder) handleVar(kw scan.Ident, le int) {
	limit := le
	if eq := b.findCode('=', kw.End, le); eq >= 0 {
		limit = eq
	}
	ids := b.sc.Idents(kw.End, limit)
	switch {
	case len(ids) >= 2:
		b.typeRef(ids[0])
		b.declare(b.top(), DeclVar, ids[1], ids[0].Text)
	case len(ids) == 1:
		b.declare(b.top(), DeclVar, ids[0], "")
	}
}

// handleInputOutput indexes `input [Type] Name` / `output [Type] Name`,
// binding into the enclosing schema/component body or the file top level.
func (b *indexBuilder) handleInputOutput(kw scan.Ident, le int, kind DeclKind) {
	limit := le
	if eq := b.findCode('=', kw.End, le); eq >= 0 {
		limit = eq
	}
	ids := b.sc.Idents(kw.End, limit)
	scope := b.enclosingBodyScope()
	switch {
	case len(ids) >= 2:
		b.typeRef(ids[0])
		b.declare(scope, kind, ids[1], ids[0].Text)
	case len(ids) == 1:
		b.declare(scope, kind, ids[0], "")
	}
}

// enclosingBodyScope walks the open-scope stack to the nearest schema or
// component body, defaulting to the file top level.
func (b *indexBuilder) enclosingBodyScope() ScopeID {
	for i := len(b.stack) - 1; i >= 0; i-- {
		switch b.idx.Scopes.Get(b.stack[i]).Kind {
		case ScopeSchema, ScopeComponent, ScopeFileTop:
			return b.stack[i]
		}
	}
	return b.idx.Root
}

func (b *indexBuilder) handleSchema(kw scan.Ident, le int) {
	name, ok := b.sc.NextIdent(kw.End, le)
	if !ok {
		return
	}
	id := b.declare(b.idx.Root, DeclSchema, name, "")
	b.idx.Decls.Get(id).Body = b.openBody(ScopeSchema, name.End, le)
}

func (b *indexBuilder) handleTypeAlias(kw scan.Ident, le int) {
	eq := b.findCode('=', kw.End, le)
	if eq < 0 {
		return
	}
	name, ok := b.sc.NextIdent(kw.End, eq)
	if !ok {
		return
	}
	b.declare(b.idx.Root, DeclTypeAlias, name, "")
	for _, id := range b.sc.Idents(eq, le) {
		b.typeRef(id)
	}
}

// handleFun indexes `fun Name(params) [Ret] {`, declaring the function at the
// top level and each `Type Name` parameter pair into the body scope.
func (b *indexBuilder) handleFun(kw scan.Ident, le int) {
	name, ok := b.sc.NextIdent(kw.End, le)
	if !ok {
		return
	}
	open := b.findCode('(', name.End, le)
	if open < 0 {
		b.declare(b.idx.Root, DeclFunction, name, "")
		return
	}
	close := b.sc.MatchingParen(open)
	if close < 0 {
		b.declare(b.idx.Root, DeclFunction, name, "")
		return
	}

	headEnd := b.sc.LineEnd(close)
	retType := ""
	brace := b.findCode('{', close+1, headEnd)
	retLimit := brace
	if retLimit < 0 {
		retLimit = headEnd
	}
	if ret, ok := b.sc.NextIdent(close+1, retLimit); ok {
		b.typeRef(ret)
		retType = ret.Text
	}
	fn := b.declare(b.idx.Root, DeclFunction, name, retType)

	if brace < 0 {
		return
	}
	bodyClose := b.sc.MatchingBrace(brace)
	if bodyClose < 0 {
		return
	}
	// The scope opens at the parameter list, not the brace, so parameter
	// tokens resolve at their own binding site.
	body := b.push(ScopeFunction, open, bodyClose+1)
	b.idx.Decls.Get(fn).Body = body
	b.declareParams(body, open+1, close)
}

// declareParams splits the parenthesized list on commas; within a segment the
// final identifier is the parameter name and anything before it is its type.
func (b *indexBuilder) declareParams(body ScopeID, from, to int) {
	segStart := from
	for i := from; i <= to; i++ {
		if i < to && !(b.text[i] == ',' && b.sc.ClassAt(i) == scan.ClassCode) {
			continue
		}
		ids := b.sc.Idents(segStart, i)
		if len(ids) > 0 {
			name := ids[len(ids)-1]
			typ := ""
			if len(ids) >= 2 {
				b.typeRef(ids[len(ids)-2])
				typ = ids[len(ids)-2].Text
			}
			b.declare(body, DeclParam, name, typ)
		}
		segStart = i + 1
	}
}

// handleComponent distinguishes `component Name {` (definition) from
// `component Type Name {` (instance plus a type reference).
func (b *indexBuilder) handleComponent(kw scan.Ident, le int) {
	limit := le
	if brace := b.findCode('{', kw.End, le); brace >= 0 {
		limit = brace
	}
	ids := b.sc.Idents(kw.End, limit)
	var id DeclID
	switch {
	case len(ids) >= 2:
		b.typeRef(ids[0])
		id = b.declare(b.idx.Root, DeclComponentInst, ids[1], ids[0].Text)
	case len(ids) == 1:
		id = b.declare(b.idx.Root, DeclComponentDef, ids[0], "")
	default:
		return
	}
	b.idx.Decls.Get(id).Body = b.openBody(ScopeComponent, limit, le)
}

// handleResource indexes `resource Type Instance {`: a type reference plus an
// instance declaration at the file top level.
func (b *indexBuilder) handleResource(kw scan.Ident, le int) {
	limit := le
	if brace := b.findCode('{', kw.End, le); brace >= 0 {
		limit = brace
	}
	ids := b.sc.Idents(kw.End, limit)
	if len(ids) < 2 {
		return
	}
	b.typeRef(ids[0])
	id := b.declare(b.idx.Root, DeclResourceInst, ids[1], ids[0].Text)
	b.idx.Decls.Get(id).Body = b.openBody(ScopeBlock, limit, le)
}

// handleFor indexes `for Name in Expr {`. The loop variable's scope runs from
// the for keyword through the matching closing brace.
func (b *indexBuilder) handleFor(kw scan.Ident, le int) {
	name, ok := b.sc.NextIdent(kw.End, le)
	if !ok {
		return
	}
	in, ok := b.sc.NextIdent(name.End, le)
	if !ok || in.Text != "in" {
		return
	}
	brace := b.findCode('{', in.End, le)
	if brace < 0 {
		return
	}
	close := b.sc.MatchingBrace(brace)
	if close < 0 {
		return
	}
	loop := b.push(ScopeLoop, kw.Start, close+1)
	b.declare(loop, DeclLoopVar, name, "")
}

// scanComprehensions finds every `[for Name in Expr]` bracket opening on the
// line. A prefix-form bracket extends its variable's scope over the following
// block-bearing declaration; an embedded one scopes to the bracket pair.
func (b *indexBuilder) scanComprehensions(ls, le int) {
	for i := ls; i < le; i++ {
		if b.text[i] != '[' || b.sc.ClassAt(i) != scan.ClassCode {
			continue
		}
		kw, ok := b.sc.NextIdent(i+1, b.sc.LineEnd(i))
		if !ok || kw.Text != "for" {
			continue
		}
		closeBr := b.sc.MatchingBracket(i)
		if closeBr < 0 {
			continue
		}
		name, ok := b.sc.NextIdent(kw.End, closeBr)
		if !ok {
			continue
		}
		in, ok := b.sc.NextIdent(name.End, closeBr)
		if !ok || in.Text != "in" {
			continue
		}
		end := b.comprehensionEnd(i, ls, closeBr)
		scope := b.push(ScopeComprehension, i, end)
		b.declare(scope, DeclComprehensionVar, name, "")
		i = closeBr
	}
}

// comprehensionEnd computes where a comprehension variable stops being
// visible. A bracket that is the first code on its line is the prefix form:
// when the next construct is a block-bearing declaration the scope covers
// that block too. Everything else scopes to the bracket pair.
func (b *indexBuilder) comprehensionEnd(open, ls, closeBr int) int {
	if b.firstCode(ls, b.sc.LineEnd(ls)) != open {
		return closeBr + 1
	}
	next := b.sc.NextCode(closeBr + 1)
	if next < 0 {
		return closeBr + 1
	}
	if b.text[next] == '{' {
		if blockClose := b.sc.MatchingBrace(next); blockClose >= 0 {
			return blockClose + 1
		}
		return closeBr + 1
	}
	id, ok := b.sc.NextIdent(next, b.sc.LineEnd(next))
	if !ok || id.Start != next {
		return closeBr + 1
	}
	switch id.Text {
	case "resource", "component":
		if brace := b.findCode('{', id.End, b.sc.LineEnd(next)); brace >= 0 {
			if blockClose := b.sc.MatchingBrace(brace); blockClose >= 0 {
				return blockClose + 1
			}
		}
	}
	return closeBr + 1
}

// openBody opens a scope for the `{` found at or after from on the line.
// Returns NoScopeID when the line carries no brace or the brace is unclosed.
func (b *indexBuilder) openBody(kind ScopeKind, from, le int) ScopeID {
	brace := b.findCode('{', from, le)
	if brace < 0 {
		return NoScopeID
	}
	close := b.sc.MatchingBrace(brace)
	if close < 0 {
		return NoScopeID
	}
	return b.push(kind, brace, close+1)
}

// DeclByName returns the first declaration with the given name anywhere in
// the document, preferring top-level ones.
func (idx *Index) DeclByName(name string) DeclID {
	if id, ok := idx.Scopes.Get(idx.Root).Names[name]; ok {
		return id
	}
	for i, d := range idx.Decls.Data() {
		if d.Name == name {
			return DeclID(i + 1)
		}
	}
	return NoDeclID
}

// Exported reports whether the declaration is visible to importing files:
// a top-level binding of an exportable kind.
func (idx *Index) Exported(id DeclID) bool {
	d := idx.Decls.Get(id)
	return d != nil && d.Scope == idx.Root && d.Kind.exportable()
}

// ExportedNames returns the names visible to importing files, in declaration
// order.
func (idx *Index) ExportedNames() []string {
	var out []string
	seen := make(map[string]bool)
	for i, d := range idx.Decls.Data() {
		id := DeclID(i + 1)
		if idx.Exported(id) && !seen[d.Name] {
			seen[d.Name] = true
			out = append(out, d.Name)
		}
	}
	return out
}

// Dump renders the scope tree for debugging and tests.
func (idx *Index) Dump() string {
	var sb strings.Builder
	var walk func(id ScopeID, depth int)
	walk = func(id ScopeID, depth int) {
		sc := idx.Scopes.Get(id)
		fmt.Fprintf(&sb, "%s%s %s\n", strings.Repeat("  ", depth), sc.Kind, sc.Span)
		for _, declID := range sc.Decls {
			d := idx.Decls.Get(declID)
			fmt.Fprintf(&sb, "%s- %s %s\n", strings.Repeat("  ", depth+1), d.Kind, d.Name)
		}
		for _, child := range sc.Children {
			walk(child, depth+1)
		}
	}
	walk(idx.Root, 0)
	return sb.String()
}
