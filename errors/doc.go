// Package errors provides structured error types for the wai compiler.
//
// Errors are categorized by Phase (which pipeline stage failed) and Kind
// (error category). Lex, parse, and resolve errors carry a source Span so
// callers can point at the offending text. ABI-phase errors mark internal
// consistency failures that should be unreachable for a successfully
// resolved interface; runtime-phase errors come from the handle table.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseResolve, errors.KindDuplicateName).
//		Span(span).
//		Name("point").
//		Detail("previously defined at %s", prev).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.DuplicateName(span, "point")
//	err := errors.UnexpectedToken(span, got, "identifier", "'}'")
//
// All errors implement the standard error interface and support errors.Is/As.
// Is matches on Phase and Kind, so sentinel comparisons work across wrapping.
package errors
