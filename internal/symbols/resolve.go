package symbols

// ScopeAt returns the most deeply nested scope whose span contains off.
// Offsets outside every child land in the file top-level scope.
func (idx *Index) ScopeAt(off uint32) ScopeID {
	cur := idx.Root
	for {
		deeper := NoScopeID
		for _, child := range idx.Scopes.Get(cur).Children {
			if idx.Scopes.Get(child).Span.Contains(off) {
				deeper = child
				break
			}
		}
		if !deeper.IsValid() {
			return cur
		}
		cur = deeper
	}
}

// Lookup walks the scope chain outward and returns the nearest binding of
// name. Innermost wins: a nested binding shadows every ancestor one.
func (idx *Index) Lookup(scope ScopeID, name string) DeclID {
	for scope.IsValid() {
		sc := idx.Scopes.Get(scope)
		if sc == nil {
			return NoDeclID
		}
		if id, ok := sc.Names[name]; ok {
			return id
		}
		scope = sc.Parent
	}
	return NoDeclID
}

// ResolveAt resolves an identifier occurrence at off to the declaration it
// binds to, or NoDeclID when the name is unbound in this document.
func (idx *Index) ResolveAt(off uint32, name string) DeclID {
	return idx.Lookup(idx.ScopeAt(off), name)
}

// ShadowPair records a declaration hiding an outer one of the same name.
type ShadowPair struct {
	Decl     DeclID
	Shadowed DeclID
}

// Shadowing pairs every declaration with the outer binding it hides, if any.
// Evaluated once per declaration: a lookup of the name starting one scope
// above the declaring one.
func (idx *Index) Shadowing() []ShadowPair {
	var out []ShadowPair
	for i, d := range idx.Decls.Data() {
		id := DeclID(i + 1)
		sc := idx.Scopes.Get(d.Scope)
		if sc == nil || !sc.Parent.IsValid() {
			continue
		}
		if outer := idx.Lookup(sc.Parent, d.Name); outer.IsValid() && outer != id {
			out = append(out, ShadowPair{Decl: id, Shadowed: outer})
		}
	}
	return out
}

// Duplicates returns declarations whose name is already bound in the same
// scope, paired with the first binding. Parameters and other kinds are
// reported alike; the lint layer splits them into separate rules.
func (idx *Index) Duplicates() []ShadowPair {
	var out []ShadowPair
	for i, d := range idx.Decls.Data() {
		id := DeclID(i + 1)
		sc := idx.Scopes.Get(d.Scope)
		if sc == nil {
			continue
		}
		if first, ok := sc.Names[d.Name]; ok && first != id {
			out = append(out, ShadowPair{Decl: id, Shadowed: first})
		}
	}
	return out
}
