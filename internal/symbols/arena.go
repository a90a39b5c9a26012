package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"github.com/kitecorp/kitels/internal/source"
)

// Scopes stores all allocated scopes in a compact slice-based arena.
type Scopes struct {
	data []Scope
}

// NewScopes creates an arena with optional capacity hint.
func NewScopes(capacity uint32) *Scopes {
	if capacity == 0 {
		capacity = 16
	}
	return &Scopes{
		data: make([]Scope, 1, capacity+1), // index 0 reserved for NoScopeID
	}
}

// New allocates a new scope and returns its ID.
func (s *Scopes) New(kind ScopeKind, parent ScopeID, span source.Span) ScopeID {
	value, err := safecast.Conv[uint32](len(s.data))
	if err != nil {
		panic(fmt.Errorf("scope arena overflow: %w", err))
	}
	id := ScopeID(value)
	s.data = append(s.data, Scope{
		Kind:   kind,
		Parent: parent,
		Span:   span,
		Names:  make(map[string]DeclID),
	})
	if parent.IsValid() {
		if parentScope := s.Get(parent); parentScope != nil {
			parentScope.Children = append(parentScope.Children, id)
		}
	}
	return id
}

// Get returns the scope pointer or nil if ID is invalid.
func (s *Scopes) Get(id ScopeID) *Scope {
	if !id.IsValid() || int(id) >= len(s.data) {
		return nil
	}
	return &s.data[id]
}

// Len reports total number of scopes excluding the sentinel.
func (s *Scopes) Len() int { return len(s.data) - 1 }

// Data exposes the underlying slice without the sentinel.
func (s *Scopes) Data() []Scope {
	if len(s.data) <= 1 {
		return nil
	}
	return s.data[1:]
}

// Decls stores declarations in a compact arena.
type Decls struct {
	data []Decl
}

// NewDecls creates a declaration arena with optional capacity hint.
func NewDecls(capacity uint32) *Decls {
	if capacity == 0 {
		capacity = 32
	}
	return &Decls{
		data: make([]Decl, 1, capacity+1), // index 0 reserved for NoDeclID
	}
}

// New allocates a declaration in the arena and returns its ID.
func (d *Decls) New(decl Decl) DeclID {
	value, err := safecast.Conv[uint32](len(d.data))
	if err != nil {
		panic(fmt.Errorf("decl arena overflow: %w", err))
	}
	id := DeclID(value)
	d.data = append(d.data, decl)
	return id
}

// Get returns a declaration pointer or nil for invalid ID.
func (d *Decls) Get(id DeclID) *Decl {
	if !id.IsValid() || int(id) >= len(d.data) {
		return nil
	}
	return &d.data[id]
}

// Len reports number of stored declarations excluding sentinel.
func (d *Decls) Len() int { return len(d.data) - 1 }

// Data exposes the arena storage without the sentinel.
func (d *Decls) Data() []Decl {
	if len(d.data) <= 1 {
		return nil
	}
	return d.data[1:]
}
