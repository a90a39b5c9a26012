package imports

import (
	"strings"
	"testing"

	"github.com/kitecorp/kitels/internal/source"
)

func extractText(t *testing.T, text string) []Import {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("main.kite", []byte(text))
	return Extract(fs.Get(id))
}

func TestExtractForms(t *testing.T) {
	text := "import Config from \"common.kite\"\nimport A, B from './lib/util.kite'\nimport * from \"types.kite\"\nvar x = 1\n"
	imps := extractText(t, text)
	if len(imps) != 3 {
		t.Fatalf("imports = %d, want 3", len(imps))
	}

	if imps[0].Path != "common.kite" || imps[0].Quote != '"' || imps[0].Wildcard {
		t.Fatalf("first import parsed wrong: %+v", imps[0])
	}
	if len(imps[0].Symbols) != 1 || imps[0].Symbols[0] != "Config" {
		t.Fatalf("first import symbols = %v", imps[0].Symbols)
	}

	if imps[1].Quote != '\'' || len(imps[1].Symbols) != 2 {
		t.Fatalf("second import parsed wrong: %+v", imps[1])
	}

	if !imps[2].Wildcard || len(imps[2].Symbols) != 0 {
		t.Fatalf("wildcard import parsed wrong: %+v", imps[2])
	}
}

func TestExtractSkipsNonImports(t *testing.T) {
	text := "// import Ghost from \"x.kite\"\nvar importCount = 1\nimport broken\n"
	if imps := extractText(t, text); len(imps) != 0 {
		t.Fatalf("imports = %+v, want none", imps)
	}
}

func TestResolvePath(t *testing.T) {
	cases := []struct {
		raw, dir, want string
	}{
		{"./util.kite", "proj/src", "proj/src/util.kite"},
		{"./util", "proj/src", "proj/src/util.kite"},
		{"../common.kite", "proj/src", "proj/common.kite"},
		{"net.dns.Record", "proj", "net/dns/Record.kite"},
		{"common.kite", "proj", "common.kite"},
		{"lib/helpers.kite", "proj", "lib/helpers.kite"},
	}
	for _, c := range cases {
		if got := ResolvePath(c.raw, c.dir); got != c.want {
			t.Errorf("ResolvePath(%q, %q) = %q, want %q", c.raw, c.dir, got, c.want)
		}
	}
}

func TestSymbolImported(t *testing.T) {
	text := "import Config from \"schema.kite\"\nimport * from \"types.kite\"\n"
	imps := extractText(t, text)

	if !SymbolImported(imps, "Config", "ws/schema.kite", "ws/main.kite") {
		t.Fatalf("named import should cover Config")
	}
	if SymbolImported(imps, "Other", "ws/schema.kite", "ws/main.kite") {
		t.Fatalf("named import must not cover unlisted symbols")
	}
	if !SymbolImported(imps, "Anything", "ws/types.kite", "ws/main.kite") {
		t.Fatalf("wildcard should cover every symbol")
	}
	if SymbolImported(imps, "Config", "ws/unrelated.kite", "ws/main.kite") {
		t.Fatalf("import must not cover a file it does not resolve to")
	}
}

func TestCanonicalizeMerge(t *testing.T) {
	text := "import Config from \"common.kite\"\nimport Config, Utils from \"common.kite\"\n"
	lines := Canonicalize(extractText(t, text), CanonicalizeOptions{Dir: "."})
	if len(lines) != 1 || lines[0] != `import Config, Utils from "common.kite"` {
		t.Fatalf("canonicalized = %v", lines)
	}
}

func TestCanonicalizeWildcardDominates(t *testing.T) {
	text := "import A, B from \"lib.kite\"\nimport * from \"lib.kite\"\n"
	lines := Canonicalize(extractText(t, text), CanonicalizeOptions{Dir: "."})
	if len(lines) != 1 || lines[0] != `import * from "lib.kite"` {
		t.Fatalf("canonicalized = %v", lines)
	}
}

func TestCanonicalizeSortsCaseInsensitively(t *testing.T) {
	text := "import zeta, Alpha, beta from \"b.kite\"\nimport X from \"Alpha.kite\"\n"
	lines := Canonicalize(extractText(t, text), CanonicalizeOptions{Dir: "."})
	if len(lines) != 2 {
		t.Fatalf("lines = %v", lines)
	}
	if lines[0] != `import X from "Alpha.kite"` {
		t.Fatalf("paths not sorted case-insensitively: %v", lines)
	}
	if lines[1] != `import Alpha, beta, zeta from "b.kite"` {
		t.Fatalf("symbols not sorted case-insensitively: %v", lines)
	}
}

func TestCanonicalizeSubtractsUnused(t *testing.T) {
	text := "import Config, Utils from \"common.kite\"\nimport Dead from \"dead.kite\"\n"
	lines := Canonicalize(extractText(t, text), CanonicalizeOptions{
		Dir: ".",
		Unused: map[string]map[string]bool{
			"common.kite": {"Utils": true},
			"dead.kite":   {"Dead": true},
		},
	})
	if len(lines) != 1 || lines[0] != `import Config from "common.kite"` {
		t.Fatalf("canonicalized = %v", lines)
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	text := "import B, a from \"z.kite\"\nimport * from 'y.kite'\nimport B from \"z.kite\"\n"
	first := Canonicalize(extractText(t, text), CanonicalizeOptions{Dir: "."})
	second := Canonicalize(extractText(t, strings.Join(first, "\n")+"\n"), CanonicalizeOptions{Dir: "."})
	if strings.Join(first, "\n") != strings.Join(second, "\n") {
		t.Fatalf("not idempotent:\nfirst:  %v\nsecond: %v", first, second)
	}
}

func TestWithoutSymbol(t *testing.T) {
	imps := extractText(t, "import A, B, C from \"p.kite\"\n")
	line, ok := imps[0].WithoutSymbol("B")
	if !ok || line != `import A, C from "p.kite"` {
		t.Fatalf("WithoutSymbol = %q, %v", line, ok)
	}

	solo := extractText(t, "import A from \"p.kite\"\n")
	if _, ok := solo[0].WithoutSymbol("A"); ok {
		t.Fatalf("removing the last symbol should request line deletion")
	}
}
