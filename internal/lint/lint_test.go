package lint

import (
	"strings"
	"testing"

	"github.com/kitecorp/kitels/internal/diag"
	"github.com/kitecorp/kitels/internal/workspace"
)

func analyzeOne(t *testing.T, text string) *diag.Bag {
	t.Helper()
	sess := workspace.NewSession(workspace.MapHost{"main.kite": text})
	return Analyze(sess, "main.kite", Options{})
}

func analyzeWorkspace(t *testing.T, files map[string]string, path string) *diag.Bag {
	t.Helper()
	sess := workspace.NewSession(workspace.MapHost(files))
	return Analyze(sess, path, Options{CrossFile: true})
}

func findCode(bag *diag.Bag, code diag.Code) (diag.Diagnostic, bool) {
	for _, d := range bag.Items() {
		if d.Code == code {
			return d, true
		}
	}
	return diag.Diagnostic{}, false
}

func TestUnusedVariable(t *testing.T) {
	bag := analyzeOne(t, "fun build(): number {\n    var waste = 1\n    return 2\n}\n")
	d, ok := findCode(bag, diag.LintUnusedVar)
	if !ok {
		t.Fatal("no unused-var finding")
	}
	if !d.Unnecessary {
		t.Fatal("unused-var not tagged unnecessary")
	}
	if len(d.Fixes) != 1 || len(d.Fixes[0].Edits) != 1 {
		t.Fatalf("fixes = %+v", d.Fixes)
	}
	edit := d.Fixes[0].Edits[0]
	if edit.OldText != "    var waste = 1\n" {
		t.Fatalf("deletion covers %q", edit.OldText)
	}
}

func TestUnusedVariableUsedInInterpolation(t *testing.T) {
	bag := analyzeOne(t, "fun greet(): string {\n    var name = \"k\"\n    return \"hi ${name}\"\n}\n")
	if _, ok := findCode(bag, diag.LintUnusedVar); ok {
		t.Fatal("interpolated use not counted")
	}
}

func TestUnusedParameterNoFix(t *testing.T) {
	bag := analyzeOne(t, "fun id(number extra): number {\n    return 1\n}\n")
	d, ok := findCode(bag, diag.LintUnusedVar)
	if !ok {
		t.Fatal("no unused parameter finding")
	}
	if len(d.Fixes) != 0 {
		t.Fatal("parameter deletion must not be offered as a fix")
	}
}

func TestUnusedImportSymbolRewrite(t *testing.T) {
	files := map[string]string{
		"lib.kite":  "schema Config {\n}\nschema Utils {\n}\n",
		"main.kite": "import Config, Utils from \"./lib\"\nresource Config app {\n}\n",
	}
	bag := analyzeWorkspace(t, files, "main.kite")
	d, ok := findCode(bag, diag.ImpUnusedSymbol)
	if !ok {
		t.Fatal("no unused-import finding")
	}
	if d.Message != "'Utils' is imported but never used" {
		t.Fatalf("message = %q", d.Message)
	}
	edit := d.Fixes[0].Edits[0]
	if edit.NewText != "import Config from \"./lib\"" {
		t.Fatalf("rewrite = %q", edit.NewText)
	}
}

func TestUnusedImportLastSymbolDeletesLine(t *testing.T) {
	files := map[string]string{
		"lib.kite":  "schema Config {\n}\n",
		"main.kite": "import Config from \"./lib\"\nvar x = 1\n",
	}
	bag := analyzeWorkspace(t, files, "main.kite")
	d, ok := findCode(bag, diag.ImpUnusedSymbol)
	if !ok {
		t.Fatal("no unused-import finding")
	}
	edit := d.Fixes[0].Edits[0]
	if edit.NewText != "" || edit.OldText != "import Config from \"./lib\"\n" {
		t.Fatalf("edit = %+v", edit)
	}
}

func TestShadowWarningCarriesNote(t *testing.T) {
	bag := analyzeOne(t, "var item = 1\nfun use(): number {\n    var item = 2\n    return item\n}\n")
	d, ok := findCode(bag, diag.ResShadow)
	if !ok {
		t.Fatal("no shadow finding")
	}
	if len(d.Notes) != 1 || d.Notes[0].Msg != "previous declaration here" {
		t.Fatalf("notes = %+v", d.Notes)
	}
	if d.Severity != diag.SevWarning {
		t.Fatalf("severity = %v", d.Severity)
	}
}

func TestDuplicateParam(t *testing.T) {
	bag := analyzeOne(t, "fun f(number a, number a): number {\n    return a\n}\n")
	d, ok := findCode(bag, diag.ResDuplicateParam)
	if !ok {
		t.Fatal("no duplicate-param finding")
	}
	if d.Severity != diag.SevError {
		t.Fatalf("severity = %v", d.Severity)
	}
}

func TestDuplicateDecl(t *testing.T) {
	bag := analyzeOne(t, "fun f(): number {\n    var a = 1\n    var a = 2\n    return a\n}\n")
	if _, ok := findCode(bag, diag.ResDuplicateDecl); !ok {
		t.Fatal("no duplicate-decl finding")
	}
}

func TestMissingImportFix(t *testing.T) {
	files := map[string]string{
		"schema.kite": "schema Bucket {\n}\n",
		"main.kite":   "resource Bucket logs {\n}\n",
	}
	bag := analyzeWorkspace(t, files, "main.kite")
	d, ok := findCode(bag, diag.ImpMissing)
	if !ok {
		t.Fatal("no missing-import finding")
	}
	if d.Data["symbol"] != "Bucket" || d.Data["path"] != "schema.kite" {
		t.Fatalf("data = %v", d.Data)
	}
	edit := d.Fixes[0].Edits[0]
	if edit.NewText != "import Bucket from \"./schema\"\n" {
		t.Fatalf("insert = %q", edit.NewText)
	}
	if edit.Span.Start != 0 || edit.Span.End != 0 {
		t.Fatalf("insertion span = %v", edit.Span)
	}
}

func TestMissingImportExtendsExistingLine(t *testing.T) {
	files := map[string]string{
		"schema.kite": "schema Bucket {\n}\nschema Queue {\n}\n",
		"main.kite":   "import Queue from \"./schema\"\nresource Queue q {\n}\nresource Bucket logs {\n}\n",
	}
	bag := analyzeWorkspace(t, files, "main.kite")
	d, ok := findCode(bag, diag.ImpMissing)
	if !ok {
		t.Fatal("no missing-import finding")
	}
	edit := d.Fixes[0].Edits[0]
	if edit.NewText != "import Bucket, Queue from \"./schema\"" {
		t.Fatalf("rewrite = %q", edit.NewText)
	}
}

func TestUnresolvedType(t *testing.T) {
	bag := analyzeOne(t, "resource Missing thing {\n}\n")
	d, ok := findCode(bag, diag.ResUnresolved)
	if !ok {
		t.Fatal("no unresolved finding")
	}
	if !strings.Contains(d.Message, "'Missing'") {
		t.Fatalf("message = %q", d.Message)
	}
}

func TestTypeMismatch(t *testing.T) {
	bag := analyzeOne(t, "var number count = \"three\"\n")
	d, ok := findCode(bag, diag.LintTypeMismatch)
	if !ok {
		t.Fatal("no type-mismatch finding")
	}
	if !strings.Contains(d.Message, "string literal") {
		t.Fatalf("message = %q", d.Message)
	}
}

func TestTypeMismatchAbstainsOnExpressions(t *testing.T) {
	bag := analyzeOne(t, "var number count = other\n")
	if _, ok := findCode(bag, diag.LintTypeMismatch); ok {
		t.Fatal("expression initializer must abstain")
	}
}

func TestMissingReturn(t *testing.T) {
	bag := analyzeOne(t, "fun f(): number {\n    var x = 1\n    var y = x\n}\n")
	if _, ok := findCode(bag, diag.LintMissingReturn); !ok {
		t.Fatal("no missing-return finding")
	}
}

func TestMissingReturnSatisfiedAtTopLevel(t *testing.T) {
	bag := analyzeOne(t, "fun f(): number {\n    return 1\n}\n")
	if _, ok := findCode(bag, diag.LintMissingReturn); ok {
		t.Fatal("top-level return not seen")
	}
}

func TestMissingReturnIgnoresNestedOnly(t *testing.T) {
	bag := analyzeOne(t, "fun f(number n): number {\n    for x in n {\n        return x\n    }\n}\n")
	if _, ok := findCode(bag, diag.LintMissingReturn); !ok {
		t.Fatal("nested return must not satisfy the rule")
	}
}

func TestMissingReturnSkipsBodylessHeader(t *testing.T) {
	bag := analyzeOne(t, "fun Render(string name): string\n"+
		"fun Helper(): number {\n    var x = 1\n    var y = x\n}\n")
	var hits []diag.Diagnostic
	for _, d := range bag.Items() {
		if d.Code == diag.LintMissingReturn {
			hits = append(hits, d)
		}
	}
	// Only Helper has a body to check; the bodyless Render header must not
	// be measured against it.
	if len(hits) != 1 {
		t.Fatalf("missing-return findings = %d, want 1", len(hits))
	}
	if !strings.Contains(hits[0].Message, "'Helper'") {
		t.Fatalf("flagged %q", hits[0].Message)
	}
}

func TestVoidFunctionNeedsNoReturn(t *testing.T) {
	bag := analyzeOne(t, "fun f(): void {\n    var x = 1\n    var y = x\n}\n")
	if _, ok := findCode(bag, diag.LintMissingReturn); ok {
		t.Fatal("void function flagged")
	}
}

func TestUnusedFunctionCrossFile(t *testing.T) {
	files := map[string]string{
		"lib.kite":  "fun Helper(): number {\n    return 1\n}\n",
		"main.kite": "import Helper from \"./lib\"\nvar x = Helper()\n",
	}
	if _, ok := findCode(analyzeWorkspace(t, files, "lib.kite"), diag.LintUnusedFun); ok {
		t.Fatal("function used by importer flagged")
	}

	lonely := map[string]string{
		"lib.kite":  "fun Helper(): number {\n    return 1\n}\n",
		"main.kite": "var x = 1\n",
	}
	if _, ok := findCode(analyzeWorkspace(t, lonely, "lib.kite"), diag.LintUnusedFun); !ok {
		t.Fatal("dead exported function not flagged")
	}
}

func TestStableDiagnosticLines(t *testing.T) {
	sess := workspace.NewSession(workspace.MapHost{
		"main.kite": "var x = Missing()\nvar y = Broken()\n",
	})
	bag := Analyze(sess, "main.kite", Options{})

	got := diag.FormatGoldenDiagnostics(bag.Items(), sess.FileSet(), false)
	want := strings.Join([]string{
		"main.kite:1:9: ERROR unresolved: cannot resolve 'Missing'",
		"main.kite:2:9: ERROR unresolved: cannot resolve 'Broken'",
		"",
	}, "\n")
	if got != want {
		t.Fatalf("diagnostic lines:\n%q\nwant:\n%q", got, want)
	}
}

func TestDisabledRules(t *testing.T) {
	text := "fun build(): number {\n    var waste = 1\n    return 2\n}\n"

	sess := workspace.NewSession(workspace.MapHost{"main.kite": text})
	bag := Analyze(sess, "main.kite", Options{Disabled: map[string]bool{"unused-var": true}})
	if _, ok := findCode(bag, diag.LintUnusedVar); ok {
		t.Fatal("disabled rule still reported")
	}

	bag = Analyze(sess, "main.kite", Options{Disabled: map[string]bool{"all": true}})
	if bag.Len() != 0 {
		t.Fatalf("disable all left %d findings", bag.Len())
	}
}
