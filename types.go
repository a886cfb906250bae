package wai

import (
	"github.com/wasmerio/wai/errors"
)

// Type is a resolved wai type: either a primitive or a *TypeDef.
// Every Type reachable from an Interface has been fully resolved; no name
// lookups remain.
type Type interface {
	isType()
}

// Primitive types. Each is an empty struct so values are free to copy and
// compare.
type (
	// Bool is the boolean type, one byte, 0 or 1.
	Bool struct{}
	// U8 is an unsigned 8-bit integer.
	U8 struct{}
	// U16 is an unsigned 16-bit integer.
	U16 struct{}
	// U32 is an unsigned 32-bit integer.
	U32 struct{}
	// U64 is an unsigned 64-bit integer.
	U64 struct{}
	// S8 is a signed 8-bit integer.
	S8 struct{}
	// S16 is a signed 16-bit integer.
	S16 struct{}
	// S32 is a signed 32-bit integer.
	S32 struct{}
	// S64 is a signed 64-bit integer.
	S64 struct{}
	// F32 is an IEEE 754 single-precision float (`float32` in source).
	F32 struct{}
	// F64 is an IEEE 754 double-precision float (`float64` in source).
	F64 struct{}
	// Char is a Unicode scalar value, 4 bytes.
	Char struct{}
	// String is a UTF-8 string passed as a (pointer, length) pair.
	String struct{}
	// Unit is the empty type (`_` in source). It occupies no storage.
	Unit struct{}
)

func (Bool) isType()   {}
func (U8) isType()     {}
func (U16) isType()    {}
func (U32) isType()    {}
func (U64) isType()    {}
func (S8) isType()     {}
func (S16) isType()    {}
func (S32) isType()    {}
func (S64) isType()    {}
func (F32) isType()    {}
func (F64) isType()    {}
func (Char) isType()   {}
func (String) isType() {}
func (Unit) isType()   {}

// TypeDef is a named or anonymous type definition. Named defs come from
// top-level items; anonymous defs wrap compound type expressions such as
// `list<u8>` appearing inside signatures.
type TypeDef struct {
	Kind TypeDefKind
	Name string // empty for anonymous defs
	Docs string
	Span errors.Span
}

func (*TypeDef) isType() {}

// Root returns the underlying definition after stripping alias chains.
// The resolver guarantees alias chains are finite.
func (t *TypeDef) Root() *TypeDef {
	for {
		alias, ok := t.Kind.(*Alias)
		if !ok {
			return t
		}
		inner, ok := alias.Type.(*TypeDef)
		if !ok {
			return t
		}
		t = inner
	}
}

// TypeDefKind is the tagged payload of a TypeDef.
type TypeDefKind interface {
	isTypeDefKind()
}

// Alias is a `type x = y` definition.
type Alias struct {
	Type Type
}

// Record is a struct with named fields, laid out in declaration order.
type Record struct {
	Fields []Field
}

// Field is a single record field.
type Field struct {
	Type Type
	Name string
	Docs string
}

// Flags is a bitset of named single-bit members.
type Flags struct {
	Flags []Flag
}

// Flag is one flags member.
type Flag struct {
	Name string
	Docs string
}

// Variant is a tagged union with named cases, each with an optional payload.
type Variant struct {
	Cases []Case
}

// Case is one variant case. Type is nil for payload-less cases.
type Case struct {
	Type Type
	Name string
	Docs string
}

// Enum is a variant with no payloads, only a discriminant.
type Enum struct {
	Cases []EnumCase
}

// EnumCase is one enum case.
type EnumCase struct {
	Name string
	Docs string
}

// Union is a tagged union over unnamed types; case order is the tag order.
type Union struct {
	Types []Type
}

// Option is `option<T>`, equivalent to a 2-case variant {none, some(T)}.
type Option struct {
	Type Type
}

// Expected is `expected<T, E>`, a 2-case variant tagged {ok=0, err=1}.
type Expected struct {
	OK  Type
	Err Type
}

// List is `list<T>`, passed as a (pointer, length) pair.
type List struct {
	Type Type
}

// Tuple is `tuple<...>`, laid out like a record with positional fields.
type Tuple struct {
	Types []Type
}

// Future is `future<T>`, an opaque handle to a not-yet-available value.
type Future struct {
	Type Type
}

// Stream is `stream<T, E>`, an opaque handle to a sequence of T ending in
// an expected end value.
type Stream struct {
	Element Type
	End     Type
}

// Resource is an opaque refcounted handle type. Member functions live in
// Functions; non-static members carry an explicit leading `self` parameter
// injected during resolution.
type Resource struct {
	Functions []*Function
}

func (*Alias) isTypeDefKind()    {}
func (*Record) isTypeDefKind()   {}
func (*Flags) isTypeDefKind()    {}
func (*Variant) isTypeDefKind()  {}
func (*Enum) isTypeDefKind()     {}
func (*Union) isTypeDefKind()    {}
func (*Option) isTypeDefKind()   {}
func (*Expected) isTypeDefKind() {}
func (*List) isTypeDefKind()     {}
func (*Tuple) isTypeDefKind()    {}
func (*Future) isTypeDefKind()   {}
func (*Stream) isTypeDefKind()   {}
func (*Resource) isTypeDefKind() {}

// FunctionKind distinguishes how a function is attached to the interface.
type FunctionKind int

const (
	// Freestanding functions are declared at document top level.
	Freestanding FunctionKind = iota
	// Method functions are resource members with an implicit self handle.
	Method
	// Static functions are resource members without a self handle.
	Static
)

func (k FunctionKind) String() string {
	switch k {
	case Freestanding:
		return "freestanding"
	case Method:
		return "method"
	case Static:
		return "static"
	}
	return "unknown"
}

// Function is a resolved function signature.
type Function struct {
	Resource *TypeDef // owning resource for methods and statics, else nil
	Result   Type     // nil when the function returns nothing
	Name     string
	Docs     string
	Params   []Param
	Kind     FunctionKind
	IsAsync  bool
	Span     errors.Span
}

// Param is one named function parameter.
type Param struct {
	Type Type
	Name string
}

// Interface is the fully resolved output of a compilation: every item from
// the root document and its transitive imports, with all references
// resolved. TypeDefs are ordered by first resolution, which may differ from
// declaration order. An Interface is immutable once built.
type Interface struct {
	Name      string
	TypeDefs  []*TypeDef
	Functions []*Function
	Resources []*TypeDef
}

// TypeDef returns the named type definition, or nil.
func (i *Interface) TypeDef(name string) *TypeDef {
	for _, td := range i.TypeDefs {
		if td.Name == name {
			return td
		}
	}
	return nil
}

// Function returns the named freestanding function, or nil.
func (i *Interface) Function(name string) *Function {
	for _, f := range i.Functions {
		if f.Name == name && f.Kind == Freestanding {
			return f
		}
	}
	return nil
}
