// Package symtab implements the hierarchical symbol table used by the
// semantic analyzer: nested scopes with parent lookup and per-scope frame
// offset assignment.
package symtab

import "github.com/compiscript/ccc/pkg/types"

// Symbol is one declared name: a variable, constant, parameter, function,
// or method.
type Symbol struct {
	Name    string
	Type    types.Type
	IsConst bool
	Line    int
	Col     int
	// Offset is the symbol's sequential slot within its scope: locals and
	// parameters are counted separately, so a function's first parameter
	// and first local both get offset 0. The code generator turns this
	// into a byte offset at emission time.
	Offset  int
	IsParam bool
}

// Scope is one lexical scope: a flat symbol map plus a link to its parent
// for name resolution, and to its children for the exported symbol tree.
type Scope struct {
	Label    string
	Level    int
	Parent   *Scope
	Children []*Scope
	Symbols  map[string]*Symbol
	// order preserves insertion order for deterministic symbol-tree dumps.
	order []string

	nextLocal int
	nextParam int
}

// NewRoot creates the outermost (global) scope.
func NewRoot() *Scope {
	return &Scope{Label: "global", Symbols: map[string]*Symbol{}}
}

// Child creates and links a new scope nested one level under s.
func (s *Scope) Child(label string) *Scope {
	kid := &Scope{Label: label, Level: s.Level + 1, Parent: s, Symbols: map[string]*Symbol{}}
	s.Children = append(s.Children, kid)
	return kid
}

// Insert declares name in s. It returns false without modifying s if name
// is already declared in this exact scope (shadowing an outer scope's name
// is allowed; redeclaring within the same scope is not). Parameters and
// locals are assigned offsets from independent counters.
func (s *Scope) Insert(name string, t types.Type, isConst bool, line, col int, isParam bool) (*Symbol, bool) {
	if _, exists := s.Symbols[name]; exists {
		return nil, false
	}
	var off int
	if isParam {
		off = s.nextParam
		s.nextParam++
	} else {
		off = s.nextLocal
		s.nextLocal++
	}
	sym := &Symbol{
		Name:    name,
		Type:    t,
		IsConst: isConst,
		Line:    line,
		Col:     col,
		Offset:  off,
		IsParam: isParam,
	}
	s.Symbols[name] = sym
	s.order = append(s.order, name)
	return sym, true
}

// Lookup searches s and then its ancestors for name.
func (s *Scope) Lookup(name string) (*Symbol, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if sym, ok := cur.Symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// LookupLocal searches only s, not its ancestors.
func (s *Scope) LookupLocal(name string) (*Symbol, bool) {
	sym, ok := s.Symbols[name]
	return sym, ok
}

// OrderedSymbols returns this scope's own symbols in declaration order.
func (s *Scope) OrderedSymbols() []*Symbol {
	out := make([]*Symbol, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.Symbols[name])
	}
	return out
}
