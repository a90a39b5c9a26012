package fix

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kitecorp/kitels/internal/diag"
	"github.com/kitecorp/kitels/internal/source"
)

func diskFile(t *testing.T, fs *source.FileSet, name, content string) source.FileID {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	id, err := fs.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func readBack(t *testing.T, fs *source.FileSet, id source.FileID) string {
	t.Helper()
	content, err := os.ReadFile(fs.Get(id).Path)
	if err != nil {
		t.Fatal(err)
	}
	return string(content)
}

func fixDiag(id source.FileID, start, end uint32, fixID, newText, oldText string) diag.Diagnostic {
	span := source.Span{File: id, Start: start, End: end}
	return diag.NewWarning(diag.LintUnusedVar, span, "finding").WithFix(diag.Fix{
		ID:            fixID,
		Title:         fixID,
		Applicability: diag.FixApplicabilityAlwaysSafe,
		Edits:         []diag.TextEdit{{Span: span, NewText: newText, OldText: oldText}},
	})
}

func TestApplyAllRewritesFile(t *testing.T) {
	fs := source.NewFileSet()
	id := diskFile(t, fs, "main.kite", "var waste = 1\nvar keep = 2\n")

	res, err := Apply(fs, []diag.Diagnostic{
		fixDiag(id, 0, 14, "delete-first-line", "", "var waste = 1\n"),
	}, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Applied) != 1 {
		t.Fatalf("applied = %+v", res.Applied)
	}
	if got := readBack(t, fs, id); got != "var keep = 2\n" {
		t.Fatalf("file = %q", got)
	}
}

func TestApplyGuardMismatchSkips(t *testing.T) {
	fs := source.NewFileSet()
	id := diskFile(t, fs, "main.kite", "var a = 1\n")

	res, err := Apply(fs, []diag.Diagnostic{
		fixDiag(id, 4, 5, "stale", "b", "z"),
	}, ApplyOptions{Mode: ApplyModeAll})
	if err != ErrNoFixes {
		t.Fatalf("err = %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != "existing text does not match expected content" {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
	if got := readBack(t, fs, id); got != "var a = 1\n" {
		t.Fatalf("file modified: %q", got)
	}
}

func TestApplyConflictingFixesSecondSkipped(t *testing.T) {
	fs := source.NewFileSet()
	id := diskFile(t, fs, "main.kite", "var a = 1\n")

	res, err := Apply(fs, []diag.Diagnostic{
		fixDiag(id, 4, 5, "first", "x", "a"),
		fixDiag(id, 4, 5, "second", "y", "a"),
	}, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Applied) != 1 || res.Applied[0].ID != "first" {
		t.Fatalf("applied = %+v", res.Applied)
	}
	if len(res.Skipped) != 1 {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
	if got := readBack(t, fs, id); got != "var x = 1\n" {
		t.Fatalf("file = %q", got)
	}
}

func TestApplyCumulativeDeltas(t *testing.T) {
	fs := source.NewFileSet()
	id := diskFile(t, fs, "main.kite", "aa bb cc\n")

	// Both fixes target the original coordinates; the second must shift by
	// the first one's length change.
	res, err := Apply(fs, []diag.Diagnostic{
		fixDiag(id, 0, 2, "widen-first", "xxxx", "aa"),
		fixDiag(id, 6, 8, "replace-last", "zz", "cc"),
	}, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Applied) != 2 {
		t.Fatalf("applied = %+v", res.Applied)
	}
	if got := readBack(t, fs, id); got != "xxxx bb zz\n" {
		t.Fatalf("file = %q", got)
	}
}

func TestApplyByID(t *testing.T) {
	fs := source.NewFileSet()
	id := diskFile(t, fs, "main.kite", "var a = 1\n")

	res, err := Apply(fs, []diag.Diagnostic{
		fixDiag(id, 4, 5, "first", "x", "a"),
		fixDiag(id, 8, 9, "second", "2", "1"),
	}, ApplyOptions{Mode: ApplyModeID, TargetID: "second"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Applied) != 1 || res.Applied[0].ID != "second" {
		t.Fatalf("applied = %+v", res.Applied)
	}
	if got := readBack(t, fs, id); got != "var a = 2\n" {
		t.Fatalf("file = %q", got)
	}
}

func TestApplyUnknownIDReported(t *testing.T) {
	fs := source.NewFileSet()
	id := diskFile(t, fs, "main.kite", "var a = 1\n")

	res, err := Apply(fs, []diag.Diagnostic{
		fixDiag(id, 4, 5, "first", "x", "a"),
	}, ApplyOptions{Mode: ApplyModeID, TargetID: "absent"})
	if err != ErrNoFixes {
		t.Fatalf("err = %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != "fix id not found" {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
}

func TestApplyDryRunWritesNothing(t *testing.T) {
	fs := source.NewFileSet()
	id := diskFile(t, fs, "main.kite", "var a = 1\n")

	res, err := Apply(fs, []diag.Diagnostic{
		fixDiag(id, 4, 5, "first", "x", "a"),
	}, ApplyOptions{Mode: ApplyModeAll, DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if got := readBack(t, fs, id); got != "var a = 1\n" {
		t.Fatalf("dry run wrote to disk: %q", got)
	}
	preview, ok := res.Preview[fs.Get(id).Path]
	if !ok || string(preview) != "var x = 1\n" {
		t.Fatalf("preview = %q", preview)
	}
}

func TestGatherCandidatesSkipsDuplicateFixIDs(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("test.kite", []byte("x"))
	span := source.Span{File: fileID, Start: 0, End: 1}

	diagnostics := []diag.Diagnostic{{
		Code:    diag.LintUnusedVar,
		Message: "unused",
		Primary: span,
		Fixes: []diag.Fix{
			{ID: "dup", Title: "a", Edits: []diag.TextEdit{{Span: span}}},
			{ID: "dup", Title: "b", Edits: []diag.TextEdit{{Span: span}}},
		},
	}}

	candidates, skips := gatherCandidates(diagnostics)
	if len(candidates) != 1 {
		t.Fatalf("candidates = %d", len(candidates))
	}
	if len(skips) != 1 || skips[0].Reason != "duplicate fix id" {
		t.Fatalf("skips = %+v", skips)
	}
}
