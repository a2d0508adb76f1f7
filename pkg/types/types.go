// Package types defines the closed set of Compiscript types used by the
// semantic analyzer: primitives, arrays, functions, and classes.
package types

import "strings"

// Kind tags which variant of Type a value holds.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindString
	KindNull
	KindVoid
	KindFunction
	KindClass
	KindArray
)

// Type is implemented by every member of the closed type set.
type Type interface {
	Kind() Kind
	String() string
}

type primitive struct {
	kind Kind
	name string
}

func (p *primitive) Kind() Kind     { return p.kind }
func (p *primitive) String() string { return p.name }

// The primitive types are singletons so that equality can be compared by
// interface identity, exactly as the analyzer being ported does with its
// module-level IntType/FloatType/... constants.
var (
	Int    Type = &primitive{KindInt, "integer"}
	Float  Type = &primitive{KindFloat, "float"}
	Bool   Type = &primitive{KindBool, "boolean"}
	String Type = &primitive{KindString, "string"}
	Null   Type = &primitive{KindNull, "null"}
	Void   Type = &primitive{KindVoid, "void"}
)

// FunctionType is a function or method signature: a return type and an
// ordered parameter type list. Two FunctionTypes are equal when their
// shapes match structurally.
type FunctionType struct {
	Return Type
	Params []Type
}

func (f *FunctionType) Kind() Kind { return KindFunction }

func (f *FunctionType) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.String()
	}
	return "fn(" + strings.Join(parts, ", ") + ") -> " + f.Return.String()
}

// ArrayType is T[] for some element type T. Equality is structural on Elem.
type ArrayType struct {
	Elem Type
}

func (a *ArrayType) Kind() Kind     { return KindArray }
func (a *ArrayType) String() string { return a.Elem.String() + "[]" }

// FieldLayout records a class field's name, declared type, and byte offset
// within an instance, computed from declaration order including inherited
// fields (base class fields come first).
type FieldLayout struct {
	Name   string
	Type   Type
	Offset int
}

// ClassType is a class declaration's type: a name, an optional base class,
// and the field/method tables built up as the class body is visited.
// Equality is nominal: two ClassTypes are the same type only if they are
// the same *ClassType value.
type ClassType struct {
	Name    string
	Base    *ClassType
	Fields  map[string]Type
	// FieldOrder preserves declaration order so the field layout (and the
	// generated MIPS field offsets) does not depend on map iteration.
	FieldOrder []string
	Methods    map[string]*FunctionType
	// MethodOrder mirrors FieldOrder for methods; nothing in this module
	// reads it.
	MethodOrder []string

	layout    []FieldLayout
	layoutSet bool
}

func NewClassType(name string, base *ClassType) *ClassType {
	return &ClassType{
		Name:    name,
		Base:    base,
		Fields:  map[string]Type{},
		Methods: map[string]*FunctionType{},
	}
}

func (c *ClassType) Kind() Kind     { return KindClass }
func (c *ClassType) String() string { return c.Name }

// AddField registers a field in declaration order; it is a no-op if the
// field name is already present (the caller is responsible for diagnosing
// that as a redeclaration).
func (c *ClassType) AddField(name string, t Type) {
	if _, exists := c.Fields[name]; exists {
		return
	}
	c.Fields[name] = t
	c.FieldOrder = append(c.FieldOrder, name)
	c.layoutSet = false
}

// AddMethod registers a method in declaration order.
func (c *ClassType) AddMethod(name string, ft *FunctionType) {
	if _, exists := c.Methods[name]; exists {
		return
	}
	c.Methods[name] = ft
	c.MethodOrder = append(c.MethodOrder, name)
}

// LookupField walks the base-class chain to find a field, returning its
// declared type; the owning class is not reported.
func (c *ClassType) LookupField(name string) (Type, bool) {
	for t := c; t != nil; t = t.Base {
		if ft, ok := t.Fields[name]; ok {
			return ft, true
		}
	}
	return nil, false
}

// LookupMethod walks the base-class chain to find a method.
func (c *ClassType) LookupMethod(name string) (*FunctionType, bool) {
	for t := c; t != nil; t = t.Base {
		if ft, ok := t.Methods[name]; ok {
			return ft, true
		}
	}
	return nil, false
}

// Layout computes (and caches) the field offset table in declaration order,
// base-class fields first, derived from each class's own declarations so
// arbitrary user classes lay out correctly.
func (c *ClassType) Layout() []FieldLayout {
	if c.layoutSet {
		return c.layout
	}
	var chain []*ClassType
	for t := c; t != nil; t = t.Base {
		chain = append(chain, t)
	}
	var layout []FieldLayout
	offset := 0
	for i := len(chain) - 1; i >= 0; i-- {
		cls := chain[i]
		for _, name := range cls.FieldOrder {
			layout = append(layout, FieldLayout{Name: name, Type: cls.Fields[name], Offset: offset})
			offset += 4
		}
	}
	c.layout = layout
	c.layoutSet = true
	return layout
}

// FieldOffset looks up a field's byte offset within an instance, searching
// the full base chain. The bool is false when the field does not exist
// anywhere in the chain, which the emitter treats as a hard error rather
// than silently defaulting to offset zero.
func (c *ClassType) FieldOffset(name string) (int, bool) {
	for _, fl := range c.Layout() {
		if fl.Name == name {
			return fl.Offset, true
		}
	}
	return 0, false
}

// InstanceSize is the total byte size of an instance: 4 bytes per field.
func (c *ClassType) InstanceSize() int {
	return len(c.Layout()) * 4
}

// IsSubclassOf reports whether c is base or a (possibly transitive)
// subclass of base.
func (c *ClassType) IsSubclassOf(base *ClassType) bool {
	for t := c; t != nil; t = t.Base {
		if t == base {
			return true
		}
	}
	return false
}

// Equal reports whether a and b denote the same type. Primitives compare
// by identity (they're singletons), classes compare nominally (pointer
// identity), and functions/arrays compare structurally.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a == b {
		return true
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch at := a.(type) {
	case *ArrayType:
		bt := b.(*ArrayType)
		return Equal(at.Elem, bt.Elem)
	case *FunctionType:
		bt := b.(*FunctionType)
		if len(at.Params) != len(bt.Params) {
			return false
		}
		if !Equal(at.Return, bt.Return) {
			return false
		}
		for i := range at.Params {
			if !Equal(at.Params[i], bt.Params[i]) {
				return false
			}
		}
		return true
	default:
		// ClassType and the primitive singletons already fell through the
		// a == b identity check above if they were actually equal.
		return false
	}
}

// IsNumeric reports whether t is integer or float.
func IsNumeric(t Type) bool {
	return t != nil && (t.Kind() == KindInt || t.Kind() == KindFloat)
}

// Compatible reports whether a value of type actual may be assigned where
// expected is required: exact match, int widening to float, or an empty
// array literal (elem type Null) matching any array type.
func Compatible(expected, actual Type) bool {
	if Equal(expected, actual) {
		return true
	}
	if expected == nil || actual == nil {
		return false
	}
	if expected.Kind() == KindFloat && actual.Kind() == KindInt {
		return true
	}
	if ea, ok := expected.(*ArrayType); ok {
		if aa, ok := actual.(*ArrayType); ok {
			if aa.Elem.Kind() == KindNull {
				return true
			}
			return Compatible(ea.Elem, aa.Elem)
		}
	}
	return false
}

// ParseTypeText parses a type annotation of the form "integer", "string[]",
// "Persona[][]" into dims and a base name, mirroring how the original
// analyzer strips trailing "[]" pairs before resolving the base token.
func ParseTypeText(text string) (base string, dims int) {
	raw := strings.ReplaceAll(text, " ", "")
	for strings.HasSuffix(raw, "[]") {
		dims++
		raw = raw[:len(raw)-2]
	}
	return raw, dims
}
