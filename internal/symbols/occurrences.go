package symbols

import (
	"github.com/kitecorp/kitels/internal/scan"
	"github.com/kitecorp/kitels/internal/source"
)

// VisibilitySpan returns the byte range within which the declaration's name
// can bind to it: the whole file for top-level bindings, the owning scope's
// span for everything else.
func (idx *Index) VisibilitySpan(id DeclID) source.Span {
	d := idx.Decls.Get(id)
	if d == nil {
		return source.Span{File: idx.File.ID}
	}
	if d.Scope == idx.Root {
		return idx.Scopes.Get(idx.Root).Span
	}
	return idx.Scopes.Get(d.Scope).Span
}

// Occurrences collects every identifier occurrence bound to the target
// declaration, in document order. Interpolated occurrences inside
// double-quoted strings are included; plain string content and comments are
// not. Same-named bindings in unrelated scopes are excluded because each
// candidate is re-resolved at its own offset.
func (idx *Index) Occurrences(id DeclID) []source.Span {
	d := idx.Decls.Get(id)
	if d == nil {
		return nil
	}
	vis := idx.VisibilitySpan(id)
	var out []source.Span
	for _, ident := range idx.Scan.Idents(int(vis.Start), int(vis.End)) {
		if ident.Text != d.Name {
			continue
		}
		if idx.ResolveAt(uint32(ident.Start), d.Name) == id {
			out = append(out, idx.identSpan(ident))
		}
	}
	return out
}

// DeclAt returns the declaration whose name token contains off.
func (idx *Index) DeclAt(off uint32) DeclID {
	for i, d := range idx.Decls.Data() {
		if d.Span.Contains(off) {
			return DeclID(i + 1)
		}
	}
	return NoDeclID
}

// ResolveIdentAt resolves the identifier occurrence covering off. Returns the
// identifier token even when resolution misses so callers can attempt
// cross-file lookup.
func (idx *Index) ResolveIdentAt(off uint32) (DeclID, scan.Ident, bool) {
	ident, ok := idx.Scan.IdentAt(int(off))
	if !ok {
		return NoDeclID, scan.Ident{}, false
	}
	return idx.ResolveAt(uint32(ident.Start), ident.Text), ident, true
}

// Implementations returns instance declarations typed by typeName, in
// declaration order.
func (idx *Index) Implementations(typeName string) []DeclID {
	var out []DeclID
	for i, d := range idx.Decls.Data() {
		if d.Type != typeName {
			continue
		}
		switch d.Kind {
		case DeclResourceInst, DeclComponentInst:
			out = append(out, DeclID(i+1))
		}
	}
	return out
}

// TypeRefAt returns the type reference covering off, if any.
func (idx *Index) TypeRefAt(off uint32) (TypeRef, bool) {
	for _, ref := range idx.TypeRefs {
		if ref.Span.Contains(off) {
			return ref, true
		}
	}
	return TypeRef{}, false
}

// CountReferences returns the number of occurrences of a declaration beyond
// its own binding site. The unused-symbol rules are built on this.
func (idx *Index) CountReferences(id DeclID) int {
	d := idx.Decls.Get(id)
	if d == nil {
		return 0
	}
	n := 0
	for _, occ := range idx.Occurrences(id) {
		if occ != d.Span {
			n++
		}
	}
	return n
}
