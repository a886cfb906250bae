package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which pipeline stage produced the error
type Phase string

const (
	PhaseLex     Phase = "lex"     // tokenization
	PhaseParse   Phase = "parse"   // grammar
	PhaseResolve Phase = "resolve" // name resolution and merging
	PhaseABI     Phase = "abi"     // layout/flattening consistency checks
	PhaseEncode  Phase = "encode"  // lowering Go values into the ABI
	PhaseDecode  Phase = "decode"  // lifting ABI data back into Go values
	PhaseRuntime Phase = "runtime" // handle table operations
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidCodepoint  Kind = "invalid_codepoint"
	KindInvalidIdent      Kind = "invalid_identifier"
	KindUnterminated      Kind = "unterminated"
	KindUnbalancedComment Kind = "unbalanced_comment"
	KindUnexpectedToken   Kind = "unexpected_token"
	KindEmptyBody         Kind = "empty_body"
	KindDuplicateName     Kind = "duplicate_name"
	KindUnknownName       Kind = "unknown_name"
	KindUnknownDocument   Kind = "unknown_document"
	KindCycle             Kind = "cycle"
	KindUnresolved        Kind = "unresolved"
	KindUnsupported       Kind = "unsupported"
	KindInvalidData       Kind = "invalid_data"
	KindOverflow          Kind = "overflow"
	KindInvalidHandle     Kind = "invalid_handle"
	KindContract          Kind = "contract_violation"
	KindClosed            Kind = "closed"
)

// Span locates an error in a source document.
// Offsets are byte offsets; Line and Column are 1-based and derived from the
// offsets by the lexer.
type Span struct {
	Doc    string
	Start  int
	End    int
	Line   int
	Column int
}

// IsZero reports whether the span carries no location.
func (s Span) IsZero() bool {
	return s == Span{}
}

func (s Span) String() string {
	if s.Doc == "" {
		return fmt.Sprintf("%d:%d", s.Line, s.Column)
	}
	return fmt.Sprintf("%s:%d:%d", s.Doc, s.Line, s.Column)
}

// Error is the structured error type used throughout the compiler
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Name   string
	Detail string
	Span   Span
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if !e.Span.IsZero() {
		b.WriteString(" at ")
		b.WriteString(e.Span.String())
	}

	if len(e.Path) > 0 {
		b.WriteString(" in ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Name != "" {
		b.WriteString(": `")
		b.WriteString(e.Name)
		b.WriteByte('`')
	}

	if e.Detail != "" {
		if e.Name != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Span sets the source location
func (b *Builder) Span(s Span) *Builder {
	b.err.Span = s
	return b
}

// Path sets the enclosing scope path (document, item, member)
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Name sets the offending name
func (b *Builder) Name(n string) *Builder {
	b.err.Name = n
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidCodepoint creates a lex error for a disallowed rune
func InvalidCodepoint(span Span, r rune, why string) *Error {
	return &Error{
		Phase:  PhaseLex,
		Kind:   KindInvalidCodepoint,
		Span:   span,
		Detail: fmt.Sprintf("codepoint U+%04X not allowed: %s", r, why),
	}
}

// Unterminated creates a lex error for an unterminated construct
func Unterminated(span Span, what string) *Error {
	return &Error{
		Phase:  PhaseLex,
		Kind:   KindUnterminated,
		Span:   span,
		Detail: fmt.Sprintf("unterminated %s", what),
	}
}

// UnexpectedToken creates a parse error carrying the expected-token set
func UnexpectedToken(span Span, got string, expected ...string) *Error {
	detail := fmt.Sprintf("found %s", got)
	if len(expected) == 1 {
		detail += fmt.Sprintf(", expected %s", expected[0])
	} else if len(expected) > 1 {
		detail += fmt.Sprintf(", expected one of %s", strings.Join(expected, ", "))
	}
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindUnexpectedToken,
		Span:   span,
		Detail: detail,
	}
}

// DuplicateName creates a resolve error for a name defined twice
func DuplicateName(span Span, name string) *Error {
	return &Error{
		Phase: PhaseResolve,
		Kind:  KindDuplicateName,
		Span:  span,
		Name:  name,
	}
}

// UnknownName creates a resolve error for an unresolved reference
func UnknownName(span Span, name string) *Error {
	return &Error{
		Phase: PhaseResolve,
		Kind:  KindUnknownName,
		Span:  span,
		Name:  name,
	}
}

// Cycle creates a resolve error for a cyclic type chain.
// The path lists the names participating in the cycle, in resolution order.
func Cycle(span Span, path ...string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindCycle,
		Span:   span,
		Path:   path,
		Detail: "type is cyclic",
	}
}

// Internal creates an ABI consistency error. Reaching one of these means the
// resolver contract was broken; it is a defect, not a user error.
func Internal(detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseABI,
		Kind:   KindUnresolved,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// InvalidHandle creates a runtime error for an unknown or dead handle
func InvalidHandle(handle uint32) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindInvalidHandle,
		Detail: fmt.Sprintf("handle %d is not registered", handle),
	}
}

// Contract creates a runtime error for a handle lifecycle contract violation
func Contract(detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindContract,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
