package diagfmt

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/kitecorp/kitels/internal/diag"
	"github.com/kitecorp/kitels/internal/source"
)

func fixtureBag(t *testing.T) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("main.kite", []byte("var waste = 1\nvar used = 2\n"))
	bag := diag.NewBag(0)
	bag.Add(diag.NewWarning(diag.LintUnusedVar,
		source.Span{File: id, Start: 4, End: 9},
		"unused variable 'waste'").
		AsUnnecessary().
		WithNote(source.Span{File: id, Start: 0, End: 3}, "declared here"))
	bag.Sort()
	return bag, fs
}

func TestPrettyPlain(t *testing.T) {
	bag, fs := fixtureBag(t)
	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{ShowNotes: true})
	out := sb.String()

	if !strings.Contains(out, "main.kite:1:5: WARNING unused-var: unused variable 'waste'") {
		t.Fatalf("missing header:\n%s", out)
	}
	if !strings.Contains(out, "var waste = 1") {
		t.Fatalf("missing source line:\n%s", out)
	}
	if !strings.Contains(out, "^~~~~") {
		t.Fatalf("missing underline:\n%s", out)
	}
	if !strings.Contains(out, "note: declared here") {
		t.Fatalf("missing note:\n%s", out)
	}
}

func TestPrettyContextLines(t *testing.T) {
	bag, fs := fixtureBag(t)
	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{Context: 1})
	if !strings.Contains(sb.String(), "var used = 2") {
		t.Fatalf("context line missing:\n%s", sb.String())
	}
}

func TestJSONShape(t *testing.T) {
	bag, fs := fixtureBag(t)
	var sb strings.Builder
	if err := JSON(&sb, bag, fs, JSONOpts{IncludeNotes: true}); err != nil {
		t.Fatal(err)
	}
	var report struct {
		Diagnostics []struct {
			Severity    string `json:"severity"`
			Code        string `json:"code"`
			ID          string `json:"id"`
			Unnecessary bool   `json:"unnecessary"`
			Span        struct {
				File string `json:"file"`
				Pos  struct {
					Line uint32 `json:"line"`
					Col  uint32 `json:"col"`
				} `json:"pos"`
			} `json:"span"`
			Notes []struct {
				Msg string `json:"message"`
			} `json:"notes"`
		} `json:"diagnostics"`
	}
	if err := json.Unmarshal([]byte(sb.String()), &report); err != nil {
		t.Fatal(err)
	}
	if len(report.Diagnostics) != 1 {
		t.Fatalf("diagnostics = %d", len(report.Diagnostics))
	}
	d := report.Diagnostics[0]
	if d.Code != "unused-var" || d.ID != "LINT4001" || !d.Unnecessary {
		t.Fatalf("diagnostic = %+v", d)
	}
	if d.Span.Pos.Line != 1 || d.Span.Pos.Col != 5 {
		t.Fatalf("position = %+v", d.Span.Pos)
	}
	if len(d.Notes) != 1 || d.Notes[0].Msg != "declared here" {
		t.Fatalf("notes = %+v", d.Notes)
	}
}

func TestJSONTruncation(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("main.kite", []byte("var a = 1\n"))
	bag := diag.NewBag(0)
	for i := 0; i < 3; i++ {
		bag.Add(diag.NewWarning(diag.LintUnusedVar, source.Span{File: id, Start: 4, End: 5}, "x"))
	}
	var sb strings.Builder
	if err := JSON(&sb, bag, fs, JSONOpts{Max: 2}); err != nil {
		t.Fatal(err)
	}
	var report struct {
		Diagnostics []json.RawMessage `json:"diagnostics"`
		Truncated   bool              `json:"truncated"`
	}
	if err := json.Unmarshal([]byte(sb.String()), &report); err != nil {
		t.Fatal(err)
	}
	if len(report.Diagnostics) != 2 || !report.Truncated {
		t.Fatalf("report = %+v", report)
	}
}

func TestSarif(t *testing.T) {
	bag, fs := fixtureBag(t)
	var sb strings.Builder
	meta := SarifRunMeta{ToolName: "kitels", ToolVersion: "0.1.0", InvocationArgs: []string{"kitels", "diag", "."}}
	if err := Sarif(&sb, bag, fs, meta); err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	for _, want := range []string{`"version": "2.1.0"`, `"ruleId": "LINT4001"`, `"level": "warning"`, `"name": "kitels"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in:\n%s", want, out)
		}
	}
}

func fixtureEntries(t *testing.T) []Entry {
	t.Helper()
	mk := func(path, text string, start, end uint32, msg string) Entry {
		fs := source.NewFileSet()
		id := fs.AddVirtual(path, []byte(text))
		bag := diag.NewBag(0)
		bag.Add(diag.NewWarning(diag.LintUnusedVar, source.Span{File: id, Start: start, End: end}, msg))
		return Entry{Bag: bag, FileSet: fs}
	}
	return []Entry{
		mk("a.kite", "var first = 1\n", 4, 9, "unused variable 'first'"),
		mk("b.kite", "var second = 2\n", 4, 10, "unused variable 'second'"),
	}
}

func TestPrettyAll(t *testing.T) {
	entries := fixtureEntries(t)
	var sb strings.Builder
	PrettyAll(&sb, entries, PrettyOpts{})
	out := sb.String()
	if !strings.Contains(out, "a.kite:1:5") || !strings.Contains(out, "b.kite:1:5") {
		t.Fatalf("missing per-file headers:\n%s", out)
	}
	if strings.Index(out, "a.kite") > strings.Index(out, "b.kite") {
		t.Fatalf("entries out of order:\n%s", out)
	}
}

func TestJSONAllCombinesAndTruncates(t *testing.T) {
	entries := fixtureEntries(t)
	var sb strings.Builder
	if err := JSONAll(&sb, entries, JSONOpts{Max: 1}); err != nil {
		t.Fatal(err)
	}
	var report struct {
		Diagnostics []struct {
			Span struct {
				File string `json:"file"`
			} `json:"span"`
		} `json:"diagnostics"`
		Truncated bool `json:"truncated"`
	}
	if err := json.Unmarshal([]byte(sb.String()), &report); err != nil {
		t.Fatal(err)
	}
	if len(report.Diagnostics) != 1 || !report.Truncated {
		t.Fatalf("report = %+v", report)
	}
	if report.Diagnostics[0].Span.File != "a.kite" {
		t.Fatalf("file = %q", report.Diagnostics[0].Span.File)
	}
}

func TestSarifAllSingleRun(t *testing.T) {
	entries := fixtureEntries(t)
	var sb strings.Builder
	if err := SarifAll(&sb, entries, SarifRunMeta{ToolName: "kitels"}); err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	if strings.Count(out, `"results"`) != 1 {
		t.Fatalf("want one combined run:\n%s", out)
	}
	if !strings.Contains(out, "a.kite") || !strings.Contains(out, "b.kite") {
		t.Fatalf("missing artifacts:\n%s", out)
	}
	if strings.Count(out, `"id": "LINT4001"`) != 1 {
		t.Fatalf("rule deduplication failed:\n%s", out)
	}
}

func TestShortAll(t *testing.T) {
	entries := fixtureEntries(t)
	var sb strings.Builder
	ShortAll(&sb, entries)
	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d:\n%s", len(lines), sb.String())
	}
}

func TestShort(t *testing.T) {
	bag, fs := fixtureBag(t)
	var sb strings.Builder
	Short(&sb, bag, fs)
	if !strings.Contains(sb.String(), "main.kite:1:5: WARNING unused-var: unused variable 'waste'") {
		t.Fatalf("short = %q", sb.String())
	}
}
