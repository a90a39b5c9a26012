package lsp

import (
	"strings"
	"testing"

	"github.com/kitecorp/kitels/internal/workspace"
)

const schemaText = "schema Bucket {\n" +
	"    input string name\n" +
	"    output string arn\n" +
	"}\n" +
	"fun MakeName(string prefix): string {\n" +
	"    return prefix\n" +
	"}\n"

const mainText = "import Bucket, MakeName from \"./schema\"\n" +
	"resource Bucket logs {\n" +
	"    name = MakeName(\"a\")\n" +
	"}\n" +
	"resource Bucket assets {\n" +
	"}\n"

func testSession(t *testing.T) *workspace.Session {
	t.Helper()
	return workspace.NewSession(workspace.MapHost{
		"proj/schema.kite": schemaText,
		"proj/main.kite":   mainText,
	})
}

func loadDoc(t *testing.T, sess *workspace.Session, path string) *workspace.Document {
	t.Helper()
	doc, ok := sess.Load(path)
	if !ok {
		t.Fatalf("load %s", path)
	}
	return doc
}

// posOf locates the skip-th occurrence of needle and returns the position of
// its first byte.
func posOf(t *testing.T, doc *workspace.Document, needle string, skip int) position {
	t.Helper()
	text := doc.Text()
	off := -1
	for i := 0; i <= skip; i++ {
		next := strings.Index(text[off+1:], needle)
		if next < 0 {
			t.Fatalf("occurrence %d of %q not found", skip, needle)
		}
		off += 1 + next
	}
	return positionForOffsetInFile(doc.File, safeUint32(off))
}

func TestBuildDefinitionCrossFile(t *testing.T) {
	sess := testSession(t)
	doc := loadDoc(t, sess, "proj/main.kite")
	locs := buildDefinition(sess, doc, posOf(t, doc, "MakeName(", 0))
	if len(locs) != 1 {
		t.Fatalf("locations = %d, want 1", len(locs))
	}
	if locs[0].URI != pathToURI("proj/schema.kite") {
		t.Errorf("uri = %q", locs[0].URI)
	}
	if locs[0].Range.Start.Line != 4 {
		t.Errorf("line = %d, want 4", locs[0].Range.Start.Line)
	}
}

func TestBuildDefinitionLocal(t *testing.T) {
	sess := testSession(t)
	doc := loadDoc(t, sess, "proj/schema.kite")
	locs := buildDefinition(sess, doc, posOf(t, doc, "prefix\n", 0))
	if len(locs) != 1 {
		t.Fatalf("locations = %d, want 1", len(locs))
	}
	if locs[0].Range.Start.Line != 4 {
		t.Errorf("line = %d, want 4 (parameter)", locs[0].Range.Start.Line)
	}
}

func TestBuildTypeDefinition(t *testing.T) {
	sess := testSession(t)
	doc := loadDoc(t, sess, "proj/main.kite")
	locs := buildTypeDefinition(sess, doc, posOf(t, doc, "Bucket logs", 0))
	if len(locs) != 1 {
		t.Fatalf("locations = %d, want 1", len(locs))
	}
	if locs[0].URI != pathToURI("proj/schema.kite") || locs[0].Range.Start.Line != 0 {
		t.Errorf("location = %+v", locs[0])
	}
}

func TestBuildReferences(t *testing.T) {
	sess := testSession(t)
	doc := loadDoc(t, sess, "proj/schema.kite")
	refs := buildReferences(sess, doc, posOf(t, doc, "Bucket", 0), false)
	if len(refs) != 3 {
		t.Fatalf("references = %d, want 3 (import + two resources)", len(refs))
	}
	for _, ref := range refs {
		if ref.URI != pathToURI("proj/main.kite") {
			t.Errorf("unexpected uri %q", ref.URI)
		}
	}

	withDecl := buildReferences(sess, doc, posOf(t, doc, "Bucket", 0), true)
	if len(withDecl) != 4 {
		t.Fatalf("references with declaration = %d, want 4", len(withDecl))
	}
}

func TestBuildImplementations(t *testing.T) {
	sess := testSession(t)
	doc := loadDoc(t, sess, "proj/schema.kite")
	impls := buildImplementations(sess, doc, posOf(t, doc, "Bucket", 0))
	if len(impls) != 2 {
		t.Fatalf("implementations = %d, want 2", len(impls))
	}
	if impls[0].Range.Start.Line != 1 || impls[1].Range.Start.Line != 4 {
		t.Errorf("lines = %d, %d", impls[0].Range.Start.Line, impls[1].Range.Start.Line)
	}

	fromVar := buildImplementations(sess, doc, posOf(t, doc, "prefix", 0))
	if len(fromVar) != 0 {
		t.Errorf("implementations from parameter = %d, want 0", len(fromVar))
	}
}

func TestBuildHighlights(t *testing.T) {
	sess := testSession(t)
	doc := loadDoc(t, sess, "proj/schema.kite")
	hs := buildHighlights(sess, doc, posOf(t, doc, "prefix", 0))
	if len(hs) != 2 {
		t.Fatalf("highlights = %d, want 2", len(hs))
	}
	if hs[0].Kind != highlightWrite || hs[1].Kind != highlightRead {
		t.Errorf("kinds = %d, %d", hs[0].Kind, hs[1].Kind)
	}
}

func TestBuildDocumentSymbols(t *testing.T) {
	sess := testSession(t)
	doc := loadDoc(t, sess, "proj/schema.kite")
	syms := buildDocumentSymbols(doc)
	if len(syms) != 2 {
		t.Fatalf("top-level symbols = %d, want 2", len(syms))
	}
	if syms[0].Name != "Bucket" || syms[0].Kind != symbolKindStruct {
		t.Errorf("symbol[0] = %q kind %d", syms[0].Name, syms[0].Kind)
	}
	if len(syms[0].Children) != 2 || syms[0].Children[0].Name != "name" {
		t.Errorf("Bucket children = %+v", syms[0].Children)
	}
	if syms[1].Name != "MakeName" || len(syms[1].Children) != 1 || syms[1].Children[0].Name != "prefix" {
		t.Errorf("MakeName = %+v", syms[1])
	}
	if syms[1].Range.End.Line <= syms[1].SelectionRange.End.Line {
		t.Errorf("function range does not cover its body: %+v", syms[1])
	}
}

func TestBuildHover(t *testing.T) {
	sess := testSession(t)
	doc := loadDoc(t, sess, "proj/main.kite")
	h := buildHover(sess, doc, posOf(t, doc, "MakeName(", 0))
	if h == nil {
		t.Fatal("nil hover")
	}
	if !strings.Contains(h.Contents.Value, "fun MakeName: string") {
		t.Errorf("hover = %q", h.Contents.Value)
	}
	if !strings.Contains(h.Contents.Value, "Defined in `schema.kite`") {
		t.Errorf("missing defining file: %q", h.Contents.Value)
	}

	local := buildHover(sess, doc, posOf(t, doc, "logs", 0))
	if local == nil || !strings.Contains(local.Contents.Value, "resource Bucket logs") {
		t.Errorf("local hover = %+v", local)
	}
	if local != nil && strings.Contains(local.Contents.Value, "Defined in") {
		t.Errorf("same-file hover names a file: %q", local.Contents.Value)
	}
}

func TestBuildCompletions(t *testing.T) {
	sess := testSession(t)
	doc := loadDoc(t, sess, "proj/main.kite")
	items := buildCompletions(sess, doc, posOf(t, doc, "name =", 0))

	byLabel := make(map[string]completionItem, len(items))
	for _, item := range items {
		if _, dup := byLabel[item.Label]; dup {
			t.Errorf("duplicate label %q", item.Label)
		}
		byLabel[item.Label] = item
	}
	if item, ok := byLabel["logs"]; !ok || item.Kind != completionKindModule {
		t.Errorf("logs = %+v, ok=%v", item, ok)
	}
	if item, ok := byLabel["MakeName"]; !ok || !strings.Contains(item.Detail, "schema.kite") {
		t.Errorf("MakeName = %+v, ok=%v", item, ok)
	}
	if item, ok := byLabel["fun"]; !ok || item.Kind != completionKindKeyword {
		t.Errorf("fun keyword = %+v, ok=%v", item, ok)
	}
	if item, ok := byLabel["string"]; !ok || item.Detail != "builtin type" {
		t.Errorf("string builtin = %+v, ok=%v", item, ok)
	}
}

func TestBuildRenameCrossFile(t *testing.T) {
	sess := testSession(t)
	doc := loadDoc(t, sess, "proj/schema.kite")
	edit := buildRename(sess, doc, posOf(t, doc, "Bucket", 0), "Store")
	if edit == nil {
		t.Fatal("nil edit")
	}
	if len(edit.Changes) != 2 {
		t.Fatalf("files = %d, want 2", len(edit.Changes))
	}
	if n := len(edit.Changes[pathToURI("proj/main.kite")]); n != 3 {
		t.Errorf("main edits = %d, want 3", n)
	}
	for _, edits := range edit.Changes {
		for _, e := range edits {
			if e.NewText != "Store" {
				t.Errorf("edit text = %q", e.NewText)
			}
		}
	}
}

func TestBuildPrepareRename(t *testing.T) {
	sess := testSession(t)
	doc := loadDoc(t, sess, "proj/schema.kite")
	if r := buildPrepareRename(sess, doc, posOf(t, doc, "schema", 0)); r != nil {
		t.Errorf("keyword prepared for rename: %+v", r)
	}
	r := buildPrepareRename(sess, doc, posOf(t, doc, "Bucket", 0))
	if r == nil || r.Placeholder != "Bucket" {
		t.Fatalf("prepare = %+v", r)
	}
}

func TestValidIdentifier(t *testing.T) {
	for _, name := range []string{"x", "_x", "Name2"} {
		if !validIdentifier(name) {
			t.Errorf("%q rejected", name)
		}
	}
	for _, name := range []string{"", "2x", "a-b", "fun", "a b"} {
		if validIdentifier(name) {
			t.Errorf("%q accepted", name)
		}
	}
}

func TestBuildLinkedEditing(t *testing.T) {
	sess := testSession(t)
	doc := loadDoc(t, sess, "proj/schema.kite")
	lr := buildLinkedEditing(doc, posOf(t, doc, "prefix", 0))
	if lr == nil || len(lr.Ranges) != 2 {
		t.Fatalf("linked ranges = %+v", lr)
	}
	if lr2 := buildLinkedEditing(doc, posOf(t, doc, "arn", 0)); lr2 != nil {
		t.Errorf("single occurrence produced ranges: %+v", lr2)
	}
}

func TestBuildFoldingRanges(t *testing.T) {
	sess := testSession(t)
	doc := loadDoc(t, sess, "proj/schema.kite")
	ranges := buildFoldingRanges(doc)
	if len(ranges) != 2 {
		t.Fatalf("ranges = %+v", ranges)
	}
	if ranges[0].StartLine != 0 || ranges[0].EndLine != 3 {
		t.Errorf("schema fold = %+v", ranges[0])
	}
	if ranges[1].StartLine != 4 || ranges[1].EndLine != 6 {
		t.Errorf("fun fold = %+v", ranges[1])
	}
}

func TestBuildSemanticTokens(t *testing.T) {
	sess := testSession(t)
	doc := loadDoc(t, sess, "proj/schema.kite")
	data := buildSemanticTokens(doc)
	if len(data) == 0 || len(data)%5 != 0 {
		t.Fatalf("data length = %d", len(data))
	}
	// First token is the schema keyword at 0:0.
	if data[0] != 0 || data[1] != 0 || data[2] != 6 || data[3] != tokenKeyword {
		t.Errorf("first quintuple = %v", data[:5])
	}
	// Second token is the Bucket declaration.
	if data[5] != 0 || data[6] != 7 || data[7] != 6 || data[8] != tokenType || data[9] != modDeclaration {
		t.Errorf("second quintuple = %v", data[5:10])
	}
}

func TestOrganizeImportsAction(t *testing.T) {
	sess := workspace.NewSession(workspace.MapHost{
		"proj/schema.kite": schemaText,
		"proj/messy.kite": "import MakeName from \"./schema\"\n" +
			"import Bucket from \"./schema\"\n" +
			"var n = MakeName(\"x\")\n" +
			"resource Bucket b {\n}\n",
	})
	doc := loadDoc(t, sess, "proj/messy.kite")
	act, ok := organizeImportsAction(doc)
	if !ok {
		t.Fatal("no action for mergeable imports")
	}
	edits := act.Edit.Changes[pathToURI("proj/messy.kite")]
	if len(edits) != 1 {
		t.Fatalf("edits = %+v", edits)
	}
	if edits[0].NewText != "import Bucket, MakeName from \"./schema\"\n" {
		t.Errorf("replacement = %q", edits[0].NewText)
	}

	clean := loadDoc(t, testSession(t), "proj/main.kite")
	if _, ok := organizeImportsAction(clean); ok {
		t.Error("canonical block still produced an action")
	}
}

func wildcardFixture(t *testing.T, body string) []codeAction {
	t.Helper()
	sess := workspace.NewSession(workspace.MapHost{
		"proj/schema.kite": schemaText,
		"proj/wild.kite":   "import * from \"./schema\"\n" + body,
	})
	doc := loadDoc(t, sess, "proj/wild.kite")
	return wildcardActions(sess, doc, 0, safeUint32(len(doc.Text())))
}

func TestWildcardAction(t *testing.T) {
	actions := wildcardFixture(t, "var n = MakeName(\"x\")\nresource Bucket b {\n}\n")
	if len(actions) != 1 {
		t.Fatalf("actions = %d, want 1", len(actions))
	}
	if actions[0].Title != "Replace '*' with 2 explicit symbols" {
		t.Errorf("title = %q", actions[0].Title)
	}
	edits := actions[0].Edit.Changes[pathToURI("proj/wild.kite")]
	if edits[0].NewText != "import Bucket, MakeName from \"./schema\"" {
		t.Errorf("replacement = %q", edits[0].NewText)
	}
}

func TestWildcardActionListsOnlyUsedSymbols(t *testing.T) {
	actions := wildcardFixture(t, "var n = MakeName(\"x\")\n")
	if len(actions) != 1 {
		t.Fatalf("actions = %d, want 1", len(actions))
	}
	edits := actions[0].Edit.Changes[pathToURI("proj/wild.kite")]
	if edits[0].NewText != "import MakeName from \"./schema\"" {
		t.Errorf("replacement = %q", edits[0].NewText)
	}
}

func TestWildcardActionUnusedImport(t *testing.T) {
	if actions := wildcardFixture(t, "var n = 1\n"); len(actions) != 0 {
		t.Fatalf("unused wildcard offered %d actions", len(actions))
	}
}
