// Package workspace ties per-document indexes to the hosting process: it
// owns the capability interface the host supplies (file enumeration, content
// reads), the session holding open-document state, and the cross-file
// resolution built on imports.
package workspace

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/kitecorp/kitels/internal/imports"
)

// Host is the capability interface supplied by the hosting process. The
// engine never touches the filesystem directly; everything goes through
// these two calls.
type Host interface {
	// FindFiles enumerates candidate source files. The order is whatever
	// the host returns; cross-file ties between duplicate top-level names
	// are deliberately implementation-defined.
	FindFiles() []string
	// FileContent reads a file's current content; open-buffer content
	// takes precedence over disk when the host tracks unsaved edits.
	FileContent(path string) ([]byte, bool)
}

// DirHost walks a directory tree for .kite files, honoring include/exclude
// patterns from the project manifest.
type DirHost struct {
	Root    string
	Include []glob.Glob
	Exclude []glob.Glob
}

// NewDirHost compiles the given patterns. Invalid patterns are skipped; an
// empty include set accepts every .kite file.
func NewDirHost(root string, include, exclude []string) *DirHost {
	h := &DirHost{Root: root}
	for _, pat := range include {
		if g, err := glob.Compile(pat, '/'); err == nil {
			h.Include = append(h.Include, g)
		}
	}
	for _, pat := range exclude {
		if g, err := glob.Compile(pat, '/'); err == nil {
			h.Exclude = append(h.Exclude, g)
		}
	}
	return h
}

// FindFiles walks Root and returns matching .kite paths. Unreadable
// directories are skipped silently: enumeration is best-effort.
func (h *DirHost) FindFiles() []string {
	var out []string
	_ = filepath.WalkDir(h.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != h.Root {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, imports.Ext) {
			return nil
		}
		rel := filepath.ToSlash(path)
		if r, err := filepath.Rel(h.Root, path); err == nil {
			rel = filepath.ToSlash(r)
		}
		if h.matches(rel) {
			out = append(out, filepath.ToSlash(path))
		}
		return nil
	})
	return out
}

func (h *DirHost) matches(rel string) bool {
	for _, g := range h.Exclude {
		if g.Match(rel) {
			return false
		}
	}
	if len(h.Include) == 0 {
		return true
	}
	for _, g := range h.Include {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// FileContent reads from disk.
func (h *DirHost) FileContent(path string) ([]byte, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return content, true
}

// MapHost serves a fixed path-to-content map. Used by tests and by the CLI
// for stdin input.
type MapHost map[string]string

func (h MapHost) FindFiles() []string {
	out := make([]string, 0, len(h))
	for path := range h {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

func (h MapHost) FileContent(path string) ([]byte, bool) {
	content, ok := h[path]
	if !ok {
		return nil, false
	}
	return []byte(content), true
}
