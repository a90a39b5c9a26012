package imports

import (
	"path"
	"strings"
)

// Ext is the Kite source file extension.
const Ext = ".kite"

// ResolvePath turns a raw import path literal into a candidate file path.
// `./` and `../` segments resolve against currentDir and gain the extension
// when the literal omits it; dotted package-style paths `a.b.Name` map to
// `a/b/Name.kite`; anything else, including literals that already carry the
// extension, is used verbatim.
func ResolvePath(raw, currentDir string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "./") || strings.HasPrefix(raw, "../"):
		p := path.Clean(path.Join(currentDir, raw))
		if !strings.HasSuffix(p, Ext) {
			p += Ext
		}
		return p
	case !strings.Contains(raw, "/") && strings.Contains(raw, ".") && !strings.HasSuffix(raw, Ext):
		return strings.ReplaceAll(raw, ".", "/") + Ext
	default:
		return raw
	}
}

// SameFile reports whether a resolved import path denotes the given file.
// Paths are compared after slash normalization; a shorter path also matches
// as a clean path suffix of the longer one, so a verbatim "schema.kite"
// import lines up with the host's workspace-rooted enumeration.
func SameFile(resolved, definingFile string) bool {
	a := path.Clean(strings.ReplaceAll(resolved, "\\", "/"))
	b := path.Clean(strings.ReplaceAll(definingFile, "\\", "/"))
	if a == b {
		return true
	}
	return strings.HasSuffix(b, "/"+a) || strings.HasSuffix(a, "/"+b)
}

// Resolves reports whether the import statement, written in the file at
// currentDir, targets definingFile.
func (imp Import) Resolves(currentDir, definingFile string) bool {
	return SameFile(ResolvePath(imp.Path, currentDir), definingFile)
}

// SymbolImported reports whether some import in the referencing file brings
// the named symbol in from definingFile: the import must resolve to that file
// and either list the symbol or be a wildcard.
func SymbolImported(imps []Import, symbol, definingFile, referencingFile string) bool {
	dir := path.Dir(strings.ReplaceAll(referencingFile, "\\", "/"))
	for _, imp := range imps {
		if imp.Resolves(dir, definingFile) && imp.Names(symbol) {
			return true
		}
	}
	return false
}
