package symbols

import (
	"github.com/kitecorp/kitels/internal/source"
)

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid       ScopeKind = iota
	ScopeFileTop                 // file top level, root of every tree
	ScopeFunction                // function body
	ScopeLoop                    // for-loop header plus body
	ScopeComprehension           // [for ...] bracket, possibly extended over the following block
	ScopeSchema                  // schema body
	ScopeComponent               // component or component-instance body
	ScopeBlock                   // resource body or bare block
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeFileTop:
		return "file"
	case ScopeFunction:
		return "function"
	case ScopeLoop:
		return "loop"
	case ScopeComprehension:
		return "comprehension"
	case ScopeSchema:
		return "schema"
	case ScopeComponent:
		return "component"
	case ScopeBlock:
		return "block"
	default:
		return "invalid"
	}
}

// Scope models a lexical region with a parent-child hierarchy. Names maps a
// binding name to its first declaration in this scope; later same-name
// bindings stay in Decls for the duplicate-decl check but never shadow the
// first within their own scope.
type Scope struct {
	Kind     ScopeKind
	Parent   ScopeID
	Span     source.Span
	Names    map[string]DeclID
	Decls    []DeclID
	Children []ScopeID
}

// DeclKind classifies the binding form of a declaration.
type DeclKind uint8

const (
	DeclInvalid DeclKind = iota
	DeclVar
	DeclInput
	DeclOutput
	DeclFunction
	DeclSchema
	DeclComponentDef
	DeclComponentInst
	DeclResourceInst
	DeclTypeAlias
	DeclLoopVar
	DeclComprehensionVar
	DeclParam
)

func (k DeclKind) String() string {
	switch k {
	case DeclVar:
		return "variable"
	case DeclInput:
		return "input"
	case DeclOutput:
		return "output"
	case DeclFunction:
		return "function"
	case DeclSchema:
		return "schema"
	case DeclComponentDef:
		return "component"
	case DeclComponentInst:
		return "component instance"
	case DeclResourceInst:
		return "resource"
	case DeclTypeAlias:
		return "type alias"
	case DeclLoopVar:
		return "loop variable"
	case DeclComprehensionVar:
		return "comprehension variable"
	case DeclParam:
		return "parameter"
	default:
		return "invalid"
	}
}

// exportable reports whether the kind participates in cross-file visibility
// when declared at file top level.
func (k DeclKind) exportable() bool {
	switch k {
	case DeclVar, DeclFunction, DeclSchema, DeclComponentDef,
		DeclComponentInst, DeclResourceInst, DeclTypeAlias:
		return true
	}
	return false
}

// Decl describes a named binding site.
type Decl struct {
	Name  string
	Kind  DeclKind
	Type  string      // declared type name, "" when absent
	Span  source.Span // the name token
	Scope ScopeID     // scope the binding lives in
	Body  ScopeID     // scope this declaration opens, NoScopeID when bodyless
}

// TypeRef is a non-binding occurrence of a type name, recorded for
// go-to-type-definition and semantic tokens.
type TypeRef struct {
	Name string
	Span source.Span
}
