package symbols

import (
	"strings"
	"testing"

	"github.com/kitecorp/kitels/internal/source"
)

func indexText(t *testing.T, text string) *Index {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.kite", []byte(text))
	return BuildIndex(fs.Get(id))
}

func declNamed(t *testing.T, idx *Index, name string, kind DeclKind) DeclID {
	t.Helper()
	for i, d := range idx.Decls.Data() {
		if d.Name == name && d.Kind == kind {
			return DeclID(i + 1)
		}
	}
	t.Fatalf("no %s declaration named %q\n%s", kind, name, idx.Dump())
	return NoDeclID
}

func TestIndexVarForms(t *testing.T) {
	idx := indexText(t, "var plain = 1\nvar string typed = \"x\"\n")

	p := idx.Decls.Get(declNamed(t, idx, "plain", DeclVar))
	if p.Type != "" || p.Scope != idx.Root {
		t.Fatalf("plain: type=%q scope=%d", p.Type, p.Scope)
	}
	typed := idx.Decls.Get(declNamed(t, idx, "typed", DeclVar))
	if typed.Type != "string" {
		t.Fatalf("typed: type=%q, want string", typed.Type)
	}
}

func TestIndexSkipsStringsAndComments(t *testing.T) {
	text := "// var ghost1 = 1\n/* var ghost2 = 2 */\nvar msg = \"var ghost3 = 3\"\nvar real = 4\n"
	idx := indexText(t, text)

	for _, d := range idx.Decls.Data() {
		if strings.HasPrefix(d.Name, "ghost") {
			t.Fatalf("indexed declaration from comment/string: %q", d.Name)
		}
	}
	declNamed(t, idx, "real", DeclVar)
	declNamed(t, idx, "msg", DeclVar)
}

func TestIndexSchemaBody(t *testing.T) {
	text := "schema Server {\n  input string name\n  output string address\n}\n"
	idx := indexText(t, text)

	declNamed(t, idx, "Server", DeclSchema)
	name := idx.Decls.Get(declNamed(t, idx, "name", DeclInput))
	body := idx.Scopes.Get(name.Scope)
	if body.Kind != ScopeSchema {
		t.Fatalf("input bound to %s scope, want schema body", body.Kind)
	}
	addr := idx.Decls.Get(declNamed(t, idx, "address", DeclOutput))
	if addr.Scope != name.Scope {
		t.Fatalf("input and output should share the schema body scope")
	}
	if addr.Type != "string" {
		t.Fatalf("output type = %q", addr.Type)
	}
}

func TestIndexFunctionParams(t *testing.T) {
	text := "fun greet(string who, number times) string {\n  return who\n}\n"
	idx := indexText(t, text)

	fn := idx.Decls.Get(declNamed(t, idx, "greet", DeclFunction))
	if fn.Type != "string" {
		t.Fatalf("return type = %q, want string", fn.Type)
	}
	who := idx.Decls.Get(declNamed(t, idx, "who", DeclParam))
	body := idx.Scopes.Get(who.Scope)
	if body.Kind != ScopeFunction {
		t.Fatalf("param bound to %s scope", body.Kind)
	}
	times := idx.Decls.Get(declNamed(t, idx, "times", DeclParam))
	if times.Type != "number" {
		t.Fatalf("param type = %q, want number", times.Type)
	}
	if !idx.Scopes.Get(idx.Root).Span.Covers(body.Span) {
		t.Fatalf("function body span escapes the file span")
	}
}

func TestIndexComponentDefVsInstance(t *testing.T) {
	text := "component Cluster {\n}\ncomponent Cluster main {\n}\n"
	idx := indexText(t, text)

	declNamed(t, idx, "Cluster", DeclComponentDef)
	inst := idx.Decls.Get(declNamed(t, idx, "main", DeclComponentInst))
	if inst.Type != "Cluster" {
		t.Fatalf("instance type = %q", inst.Type)
	}
	found := false
	for _, ref := range idx.TypeRefs {
		if ref.Name == "Cluster" {
			found = true
		}
	}
	if !found {
		t.Fatalf("instance line should record a type reference")
	}
}

func TestIndexResource(t *testing.T) {
	text := "resource Server web {\n  name = \"w\"\n}\n"
	idx := indexText(t, text)

	inst := idx.Decls.Get(declNamed(t, idx, "web", DeclResourceInst))
	if inst.Type != "Server" || inst.Scope != idx.Root {
		t.Fatalf("resource instance: type=%q scope=%d", inst.Type, inst.Scope)
	}
}

func TestIndexForLoopScope(t *testing.T) {
	text := "for item in items { process(item) }\nvar tail = 1\n"
	idx := indexText(t, text)

	loopVar := idx.Decls.Get(declNamed(t, idx, "item", DeclLoopVar))
	sc := idx.Scopes.Get(loopVar.Scope)
	if sc.Kind != ScopeLoop {
		t.Fatalf("loop variable in %s scope", sc.Kind)
	}
	if sc.Span.Start != 0 {
		t.Fatalf("loop scope should start at the for keyword, got %d", sc.Span.Start)
	}
	wantEnd := uint32(strings.IndexByte(text, '\n'))
	if sc.Span.End != wantEnd {
		t.Fatalf("loop scope end = %d, want %d (past closing brace)", sc.Span.End, wantEnd)
	}
}

func TestIndexComprehensionPrefixForm(t *testing.T) {
	text := "[for e in list]\nresource Server web {\n  name = e\n}\nvar after = 1\n"
	idx := indexText(t, text)

	comp := idx.Decls.Get(declNamed(t, idx, "e", DeclComprehensionVar))
	sc := idx.Scopes.Get(comp.Scope)
	if sc.Kind != ScopeComprehension {
		t.Fatalf("comprehension variable in %s scope", sc.Kind)
	}
	closing := uint32(strings.LastIndex(text, "}") + 1)
	if sc.Span.Start != 0 || sc.Span.End != closing {
		t.Fatalf("comprehension scope = %s, want 0-%d (bracket plus following block)", sc.Span, closing)
	}

	// The resource instance itself stays top level.
	inst := idx.Decls.Get(declNamed(t, idx, "web", DeclResourceInst))
	if inst.Scope != idx.Root {
		t.Fatalf("resource instance escaped to scope %d", inst.Scope)
	}
	// The loop variable resolves inside the resource body.
	eOff := uint32(strings.Index(text, "= e") + 2)
	if idx.ResolveAt(eOff, "e") != declNamed(t, idx, "e", DeclComprehensionVar) {
		t.Fatalf("e not visible inside the following block")
	}
	// ...but not after it.
	afterOff := uint32(strings.Index(text, "after"))
	if idx.ResolveAt(afterOff, "e").IsValid() {
		t.Fatalf("e leaked past the following block")
	}
}

func TestIndexComprehensionEmbeddedForm(t *testing.T) {
	text := "var squares = [for x in xs: x * x]\nvar tail = x\n"
	idx := indexText(t, text)

	sq := idx.Decls.Get(declNamed(t, idx, "squares", DeclVar))
	if sq.Scope != idx.Root {
		t.Fatalf("squares bound inside the comprehension scope")
	}
	x := idx.Decls.Get(declNamed(t, idx, "x", DeclComprehensionVar))
	sc := idx.Scopes.Get(x.Scope)
	open := uint32(strings.IndexByte(text, '['))
	closeBr := uint32(strings.IndexByte(text, ']') + 1)
	if sc.Span.Start != open || sc.Span.End != closeBr {
		t.Fatalf("embedded comprehension scope = %s, want %d-%d", sc.Span, open, closeBr)
	}
	tailOff := uint32(strings.Index(text, "tail"))
	if idx.ResolveAt(tailOff, "x").IsValid() {
		t.Fatalf("x visible outside the bracket pair")
	}
}

func TestIndexScopeContainment(t *testing.T) {
	text := "component App {\n  for it in items {\n    var inner = it\n  }\n}\n"
	idx := indexText(t, text)

	for _, sc := range idx.Scopes.Data() {
		if !sc.Parent.IsValid() {
			continue
		}
		parent := idx.Scopes.Get(sc.Parent)
		if !parent.Span.Covers(sc.Span) {
			t.Fatalf("scope %s not contained in parent %s", sc.Span, parent.Span)
		}
	}
	inner := idx.Decls.Get(declNamed(t, idx, "inner", DeclVar))
	if idx.Scopes.Get(inner.Scope).Kind != ScopeLoop {
		t.Fatalf("inner var should live in the loop scope, got %s", idx.Scopes.Get(inner.Scope).Kind)
	}
}

func TestIndexTypeAlias(t *testing.T) {
	idx := indexText(t, "type Port = number\n")
	declNamed(t, idx, "Port", DeclTypeAlias)
	found := false
	for _, ref := range idx.TypeRefs {
		if ref.Name == "number" {
			found = true
		}
	}
	if !found {
		t.Fatalf("alias right-hand side should record a type reference")
	}
}

func TestExportedNames(t *testing.T) {
	text := "schema Config {}\nvar shared = 1\nfun helper() {\n  var local = 2\n}\n"
	idx := indexText(t, text)

	names := idx.ExportedNames()
	want := map[string]bool{"Config": true, "shared": true, "helper": true}
	if len(names) != len(want) {
		t.Fatalf("exported = %v, want %v", names, want)
	}
	for _, n := range names {
		if !want[n] {
			t.Fatalf("unexpected export %q", n)
		}
	}
}
