package lexer

import (
	"fmt"

	"github.com/wasmerio/wai/errors"
)

// Kind classifies a token.
type Kind int

const (
	EOF Kind = iota
	Newline
	LParen
	RParen
	LBrace
	RBrace
	Less
	Greater
	Comma
	Colon
	Equals
	Arrow
	Star
	Underscore
	Ident
	Keyword
	Str
	DocComment
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "end of input"
	case Newline:
		return "newline"
	case LParen:
		return "'('"
	case RParen:
		return "')'"
	case LBrace:
		return "'{'"
	case RBrace:
		return "'}'"
	case Less:
		return "'<'"
	case Greater:
		return "'>'"
	case Comma:
		return "','"
	case Colon:
		return "':'"
	case Equals:
		return "'='"
	case Arrow:
		return "'->'"
	case Star:
		return "'*'"
	case Underscore:
		return "'_'"
	case Ident:
		return "identifier"
	case Keyword:
		return "keyword"
	case Str:
		return "string"
	case DocComment:
		return "doc comment"
	}
	return "unknown"
}

// Token is one spanned lexeme. Text holds the identifier spelling (escape
// marker stripped), keyword spelling, string contents, or doc comment body.
type Token struct {
	Text string
	Kind Kind
	Span errors.Span
}

// Describe renders the token for expected-token diagnostics.
func (t Token) Describe() string {
	switch t.Kind {
	case Ident:
		return fmt.Sprintf("identifier `%s`", t.Text)
	case Keyword:
		return fmt.Sprintf("keyword `%s`", t.Text)
	default:
		return t.Kind.String()
	}
}

// Is reports whether the token is the given keyword.
func (t Token) Is(keyword string) bool {
	return t.Kind == Keyword && t.Text == keyword
}

// keywords is the reserved word table. An identifier may reuse one of these
// spellings only with the `%` escape prefix.
var keywords = map[string]bool{
	"use":      true,
	"from":     true,
	"as":       true,
	"type":     true,
	"record":   true,
	"flags":    true,
	"variant":  true,
	"enum":     true,
	"union":    true,
	"resource": true,
	"func":     true,
	"static":   true,
	"async":    true,
	"option":   true,
	"expected": true,
	"list":     true,
	"tuple":    true,
	"future":   true,
	"stream":   true,
	"unit":     true,
	"self":     true,
	"bool":     true,
	"char":     true,
	"string":   true,
	"u8":       true,
	"u16":      true,
	"u32":      true,
	"u64":      true,
	"s8":       true,
	"s16":      true,
	"s32":      true,
	"s64":      true,
	"float32":  true,
	"float64":  true,
}
