package watch

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

func TestRelevantFile(t *testing.T) {
	w, err := New(func([]string) {}, Options{Exclude: []string{"*_gen.kite"}})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	cases := []struct {
		path string
		want bool
	}{
		{"proj/main.kite", true},
		{"proj/kite.toml", true},
		{"proj/notes.txt", false},
		{"proj/main.go", false},
		{"proj/schema_gen.kite", false},
	}
	for _, tc := range cases {
		if got := w.relevantFile(tc.path); got != tc.want {
			t.Errorf("relevantFile(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestExcludedDir(t *testing.T) {
	w, err := New(func([]string) {}, Options{Exclude: []string{"vendor"}})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if !w.excludedDir("proj/.git") {
		t.Error("dot directories should be excluded")
	}
	if !w.excludedDir("proj/vendor") {
		t.Error("pattern match should exclude")
	}
	if w.excludedDir("proj/modules") {
		t.Error("plain directory excluded")
	}
}

func TestDebounceBatches(t *testing.T) {
	batches := make(chan []string, 1)
	w, err := New(func(paths []string) { batches <- paths }, Options{Debounce: 20 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	w.scheduleChange("a.kite")
	w.scheduleChange("b.kite")
	w.scheduleChange("a.kite")

	select {
	case paths := <-batches:
		sort.Strings(paths)
		if len(paths) != 2 || paths[0] != "a.kite" || paths[1] != "b.kite" {
			t.Fatalf("batch = %v", paths)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no batch fired")
	}
}

func TestWatchDetectsWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.kite")
	if err := os.WriteFile(path, []byte("var a = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	batches := make(chan []string, 1)
	w, err := New(func(paths []string) { batches <- paths }, Options{Debounce: 20 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch(dir); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("var a = 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-batches:
		if len(paths) != 1 || filepath.Base(paths[0]) != "main.kite" {
			t.Fatalf("batch = %v", paths)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("write not observed")
	}
}
