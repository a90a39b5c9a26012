package imports

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// CanonicalizeOptions configures the import-block merge.
type CanonicalizeOptions struct {
	// Dir is the importing file's directory, for grouping by resolved path.
	Dir string
	// Unused lists symbols to subtract before merging, keyed by resolved
	// path. Supplied by the diagnostics layer.
	Unused map[string]map[string]bool
}

type importGroup struct {
	raw      string // path literal as first seen
	resolved string
	quote    byte
	wildcard bool
	symbols  []string
	seen     map[string]bool
}

// Canonicalize merges and sorts an import block. Imports are grouped by
// resolved path; a wildcard dominates its path and drops any named symbols;
// symbol sets are unioned, de-duplicated, and sorted case-insensitively;
// paths are sorted case-insensitively; a non-wildcard path whose symbol set
// empties out is dropped. Canonicalizing canonical input returns the same
// lines.
func Canonicalize(imps []Import, opts CanonicalizeOptions) []string {
	groups := make([]*importGroup, 0, len(imps))
	byPath := make(map[string]*importGroup, len(imps))

	for _, imp := range imps {
		resolved := ResolvePath(imp.Path, opts.Dir)
		g, ok := byPath[resolved]
		if !ok {
			g = &importGroup{
				raw:      imp.Path,
				resolved: resolved,
				quote:    imp.Quote,
				seen:     make(map[string]bool),
			}
			byPath[resolved] = g
			groups = append(groups, g)
		}
		if imp.Wildcard || g.wildcard {
			g.wildcard = true
			g.symbols = nil
			continue
		}
		drop := opts.Unused[resolved]
		for _, sym := range imp.Symbols {
			if drop[sym] || g.seen[sym] {
				continue
			}
			g.seen[sym] = true
			g.symbols = append(g.symbols, sym)
		}
	}

	cl := collate.New(language.Und, collate.IgnoreCase)
	out := make([]string, 0, len(groups))
	sort.SliceStable(groups, func(i, j int) bool {
		return cl.CompareString(groups[i].raw, groups[j].raw) < 0
	})
	for _, g := range groups {
		if !g.wildcard && len(g.symbols) == 0 {
			continue
		}
		sort.SliceStable(g.symbols, func(i, j int) bool {
			return cl.CompareString(g.symbols[i], g.symbols[j]) < 0
		})
		out = append(out, Import{
			Path:     g.raw,
			Quote:    g.quote,
			Wildcard: g.wildcard,
			Symbols:  g.symbols,
		}.Format())
	}
	return out
}

// WithoutSymbol renders the import line with one symbol removed. Returns
// ok=false when the removed symbol was the last one, meaning the whole line
// should be deleted instead.
func (imp Import) WithoutSymbol(symbol string) (string, bool) {
	if imp.Wildcard {
		return "", false
	}
	kept := make([]string, 0, len(imp.Symbols))
	for _, s := range imp.Symbols {
		if s != symbol {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return "", false
	}
	out := imp
	out.Symbols = kept
	return out.Format(), true
}

// SortSymbols orders names case-insensitively, the canonical symbol order.
func SortSymbols(names []string) {
	cl := collate.New(language.Und, collate.IgnoreCase)
	sort.SliceStable(names, func(i, j int) bool {
		return cl.CompareString(names[i], names[j]) < 0
	})
}
