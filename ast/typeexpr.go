package ast

import (
	"github.com/wasmerio/wai/errors"
)

// TypeExpr is an unresolved type expression. Named references are kept as
// raw strings; the resolver binds them later.
type TypeExpr interface {
	isTypeExpr()
	ExprSpan() errors.Span
}

// PrimKind enumerates the built-in primitive type names.
type PrimKind int

const (
	PrimBool PrimKind = iota
	PrimU8
	PrimU16
	PrimU32
	PrimU64
	PrimS8
	PrimS16
	PrimS32
	PrimS64
	PrimF32
	PrimF64
	PrimChar
	PrimString
	PrimUnit
)

func (k PrimKind) String() string {
	switch k {
	case PrimBool:
		return "bool"
	case PrimU8:
		return "u8"
	case PrimU16:
		return "u16"
	case PrimU32:
		return "u32"
	case PrimU64:
		return "u64"
	case PrimS8:
		return "s8"
	case PrimS16:
		return "s16"
	case PrimS32:
		return "s32"
	case PrimS64:
		return "s64"
	case PrimF32:
		return "float32"
	case PrimF64:
		return "float64"
	case PrimChar:
		return "char"
	case PrimString:
		return "string"
	case PrimUnit:
		return "unit"
	}
	return "unknown"
}

// Prim is a built-in primitive type.
type Prim struct {
	Kind PrimKind
	Span errors.Span
}

// Named is an unresolved reference to an item by name.
type Named struct {
	Name string
	Span errors.Span
}

// ListExpr is `list<T>`.
type ListExpr struct {
	Elem TypeExpr
	Span errors.Span
}

// TupleExpr is `tuple<...>`.
type TupleExpr struct {
	Types []TypeExpr
	Span  errors.Span
}

// OptionExpr is `option<T>`.
type OptionExpr struct {
	Elem TypeExpr
	Span errors.Span
}

// ExpectedExpr is `expected<T, E>`.
type ExpectedExpr struct {
	OK   TypeExpr
	Err  TypeExpr
	Span errors.Span
}

// FutureExpr is `future<T>`.
type FutureExpr struct {
	Elem TypeExpr
	Span errors.Span
}

// StreamExpr is `stream<T, E>`.
type StreamExpr struct {
	Element TypeExpr
	End     TypeExpr
	Span    errors.Span
}

func (t *Prim) isTypeExpr()         {}
func (t *Named) isTypeExpr()        {}
func (t *ListExpr) isTypeExpr()     {}
func (t *TupleExpr) isTypeExpr()    {}
func (t *OptionExpr) isTypeExpr()   {}
func (t *ExpectedExpr) isTypeExpr() {}
func (t *FutureExpr) isTypeExpr()   {}
func (t *StreamExpr) isTypeExpr()   {}

func (t *Prim) ExprSpan() errors.Span         { return t.Span }
func (t *Named) ExprSpan() errors.Span        { return t.Span }
func (t *ListExpr) ExprSpan() errors.Span     { return t.Span }
func (t *TupleExpr) ExprSpan() errors.Span    { return t.Span }
func (t *OptionExpr) ExprSpan() errors.Span   { return t.Span }
func (t *ExpectedExpr) ExprSpan() errors.Span { return t.Span }
func (t *FutureExpr) ExprSpan() errors.Span   { return t.Span }
func (t *StreamExpr) ExprSpan() errors.Span   { return t.Span }
