package ast

import (
	"github.com/wasmerio/wai/errors"
)

// Document is one parsed source unit. It is immutable once parsed.
type Document struct {
	Name  string
	Uses  []*Use
	Items []Item
}

// Use is a `use ... from doc` declaration. All means `use * from doc`.
type Use struct {
	From  string
	Names []UseName
	All   bool
	Span  errors.Span
}

// UseName imports one name, optionally rebinding it with `as`.
type UseName struct {
	Name string
	As   string // empty when not aliased
}

// Item is a top-level declaration.
type Item interface {
	isItem()
	ItemName() string
	ItemSpan() errors.Span
	ItemDocs() string
}

// Meta carries the fields every item shares; items embed it.
type Meta struct {
	Name string
	Docs string
	Span errors.Span
}

func (m Meta) ItemName() string      { return m.Name }
func (m Meta) ItemSpan() errors.Span { return m.Span }
func (m Meta) ItemDocs() string      { return m.Docs }

// TypeAlias is `type name = ty`.
type TypeAlias struct {
	Meta
	Type TypeExpr
}

// Record is `record name { fields }`.
type Record struct {
	Meta
	Fields []Field
}

// Field is one record field.
type Field struct {
	Type TypeExpr
	Name string
	Docs string
	Span errors.Span
}

// Flags is `flags name { names }`.
type Flags struct {
	Meta
	Flags []Flag
}

// Flag is one flags member.
type Flag struct {
	Name string
	Docs string
	Span errors.Span
}

// Variant is `variant name { cases }`.
type Variant struct {
	Meta
	Cases []Case
}

// Case is one variant case; Type is nil for payload-less cases.
type Case struct {
	Type TypeExpr
	Name string
	Docs string
	Span errors.Span
}

// Enum is `enum name { names }`.
type Enum struct {
	Meta
	Cases []EnumCase
}

// EnumCase is one enum case.
type EnumCase struct {
	Name string
	Docs string
	Span errors.Span
}

// Union is `union name { types }`.
type Union struct {
	Meta
	Types []TypeExpr
}

// Resource is `resource name { members }`.
type Resource struct {
	Meta
	Functions []ResourceFunc
}

// ResourceFunc is one resource member function.
type ResourceFunc struct {
	Func   *Function
	Static bool
}

// Function is a named function signature, either a top-level item or a
// resource member.
type Function struct {
	Meta
	Params  []Param
	Result  TypeExpr // nil when no `->` clause
	IsAsync bool
}

// Param is one named parameter.
type Param struct {
	Type TypeExpr
	Name string
	Span errors.Span
}

func (*TypeAlias) isItem() {}
func (*Record) isItem()    {}
func (*Flags) isItem()     {}
func (*Variant) isItem()   {}
func (*Enum) isItem()      {}
func (*Union) isItem()     {}
func (*Resource) isItem()  {}
func (*Function) isItem()  {}
