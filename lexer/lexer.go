package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/wasmerio/wai/errors"
)

// Lexer turns document text into a lazy stream of spanned tokens. It fails
// at the first invalid codepoint, unterminated string or comment, or
// malformed identifier. A Lexer is single-use; create a new one to restart.
type Lexer struct {
	doc  string
	src  string
	pos  int // byte offset of the next rune
	line int
	col  int
}

// New creates a lexer for one document. doc is the document identifier used
// in diagnostics.
func New(doc, source string) *Lexer {
	return &Lexer{doc: doc, src: source, line: 1, col: 1}
}

// Tokenize scans the whole document eagerly, ending with an EOF token.
func Tokenize(doc, source string) ([]Token, error) {
	l := New(doc, source)
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == EOF {
			return tokens, nil
		}
	}
}

// Next returns the next token. After the end of input it returns EOF tokens
// forever.
func (l *Lexer) Next() (Token, error) {
	for {
		start := l.mark()
		r, ok := l.next()
		if !ok {
			return l.token(EOF, "", start), nil
		}

		if err := l.checkRune(r, start); err != nil {
			return Token{}, err
		}

		switch {
		case r == '\n':
			return l.token(Newline, "", start), nil
		case r == ' ' || r == '\t' || r == '\r':
			continue
		case r == '(':
			return l.token(LParen, "", start), nil
		case r == ')':
			return l.token(RParen, "", start), nil
		case r == '{':
			return l.token(LBrace, "", start), nil
		case r == '}':
			return l.token(RBrace, "", start), nil
		case r == '<':
			return l.token(Less, "", start), nil
		case r == '>':
			return l.token(Greater, "", start), nil
		case r == ',':
			return l.token(Comma, "", start), nil
		case r == ':':
			return l.token(Colon, "", start), nil
		case r == '=':
			return l.token(Equals, "", start), nil
		case r == '*':
			return l.token(Star, "", start), nil
		case r == '_':
			return l.token(Underscore, "", start), nil
		case r == '-':
			if l.eat('>') {
				return l.token(Arrow, "", start), nil
			}
			return Token{}, errors.New(errors.PhaseLex, errors.KindInvalidIdent).
				Span(l.span(start)).
				Detail("`-` may only join identifier segments or form `->`").
				Build()
		case r == '"':
			return l.scanString(start)
		case r == '/':
			tok, skip, err := l.scanComment(start)
			if err != nil {
				return Token{}, err
			}
			if skip {
				continue
			}
			return tok, nil
		case r == '%' || isIdentStart(r):
			return l.scanIdent(r, start)
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			return Token{}, errors.New(errors.PhaseLex, errors.KindInvalidIdent).
				Span(l.span(start)).
				Detail("identifiers are lower-case kebab-case; %q is not allowed", r).
				Build()
		default:
			return Token{}, errors.New(errors.PhaseLex, errors.KindInvalidCodepoint).
				Span(l.span(start)).
				Detail("unexpected character %q", r).
				Build()
		}
	}
}

type position struct {
	pos  int
	line int
	col  int
}

func (l *Lexer) mark() position {
	return position{pos: l.pos, line: l.line, col: l.col}
}

func (l *Lexer) next() (rune, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	r, size := utf8.DecodeRuneInString(l.src[l.pos:])
	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r, true
}

func (l *Lexer) peek() (rune, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
	return r, true
}

func (l *Lexer) eat(want rune) bool {
	if r, ok := l.peek(); ok && r == want {
		l.next()
		return true
	}
	return false
}

func (l *Lexer) span(start position) errors.Span {
	return errors.Span{
		Doc:    l.doc,
		Start:  start.pos,
		End:    l.pos,
		Line:   start.line,
		Column: start.col,
	}
}

func (l *Lexer) token(kind Kind, text string, start position) Token {
	return Token{Kind: kind, Text: text, Span: l.span(start)}
}

// checkRune enforces the disallowed-codepoint rules on every scanned rune,
// including runes inside comments and strings.
func (l *Lexer) checkRune(r rune, start position) error {
	if r == utf8.RuneError {
		return errors.New(errors.PhaseLex, errors.KindInvalidCodepoint).
			Span(l.span(start)).
			Detail("invalid UTF-8 sequence").
			Build()
	}
	if isDisallowed(r) {
		return errors.InvalidCodepoint(l.span(start), r, describeDisallowed(r))
	}
	return nil
}

func (l *Lexer) scanString(start position) (Token, error) {
	var b strings.Builder
	for {
		r, ok := l.next()
		if !ok {
			return Token{}, errors.Unterminated(l.span(start), "string")
		}
		if err := l.checkRune(r, start); err != nil {
			return Token{}, err
		}
		switch r {
		case '"':
			return l.token(Str, b.String(), start), nil
		case '\\':
			esc, ok := l.next()
			if !ok {
				return Token{}, errors.Unterminated(l.span(start), "string")
			}
			switch esc {
			case '"', '\\':
				b.WriteRune(esc)
			default:
				return Token{}, errors.New(errors.PhaseLex, errors.KindInvalidData).
					Span(l.span(start)).
					Detail("unknown escape \\%c", esc).
					Build()
			}
		case '\n':
			return Token{}, errors.Unterminated(l.span(start), "string")
		default:
			b.WriteRune(r)
		}
	}
}

// scanComment is entered after a leading '/'. It returns either a
// DocComment token or skip=true for plain comment trivia.
func (l *Lexer) scanComment(start position) (Token, bool, error) {
	r, ok := l.peek()
	if !ok {
		return Token{}, false, errors.New(errors.PhaseLex, errors.KindInvalidData).
			Span(l.span(start)).
			Detail("stray `/` at end of input").
			Build()
	}
	switch r {
	case '/':
		l.next()
		doc := l.eat('/') // third slash makes it a doc comment
		text, err := l.scanToLineEnd(start)
		if err != nil {
			return Token{}, false, err
		}
		if doc {
			return l.token(DocComment, strings.TrimPrefix(text, " "), start), false, nil
		}
		return Token{}, true, nil
	case '*':
		l.next()
		doc := false
		if r2, ok2 := l.peek(); ok2 && r2 == '*' {
			// `/**` opens a doc block unless it is the degenerate `/**/`
			save := l.mark()
			l.next()
			if r3, ok3 := l.peek(); ok3 && r3 == '/' {
				l.restore(save)
			} else {
				doc = true
			}
		}
		body, err := l.scanBlockComment(start)
		if err != nil {
			return Token{}, false, err
		}
		if doc {
			return l.token(DocComment, trimDocBlock(body), start), false, nil
		}
		return Token{}, true, nil
	default:
		return Token{}, false, errors.New(errors.PhaseLex, errors.KindInvalidData).
			Span(l.span(start)).
			Detail("expected `//` or `/*`").
			Build()
	}
}

func (l *Lexer) restore(p position) {
	l.pos = p.pos
	l.line = p.line
	l.col = p.col
}

// scanToLineEnd consumes up to but not including the next newline. The
// disallowed-codepoint rules still apply inside comments.
func (l *Lexer) scanToLineEnd(start position) (string, error) {
	from := l.pos
	for {
		r, ok := l.peek()
		if !ok || r == '\n' {
			return l.src[from:l.pos], nil
		}
		l.next()
		if err := l.checkRune(r, start); err != nil {
			return "", err
		}
	}
}

// scanBlockComment consumes a (possibly nested) block comment body. The
// opening `/*` has already been consumed; nesting depth starts at one.
func (l *Lexer) scanBlockComment(start position) (string, error) {
	from := l.pos
	depth := 1
	for {
		r, ok := l.next()
		if !ok {
			return "", errors.New(errors.PhaseLex, errors.KindUnbalancedComment).
				Span(l.span(start)).
				Detail("block comment still open at end of input (depth %d)", depth).
				Build()
		}
		if err := l.checkRune(r, start); err != nil {
			return "", err
		}
		switch r {
		case '/':
			if l.eat('*') {
				depth++
			}
		case '*':
			if l.eat('/') {
				depth--
				if depth == 0 {
					return l.src[from : l.pos-2], nil
				}
			}
		}
	}
}

// trimDocBlock cleans a `/** ... */` body: the leading `*` of the opener is
// dropped and each line's decorative `* ` prefix is stripped.
func trimDocBlock(body string) string {
	body = strings.TrimPrefix(body, "*")
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "* ")
		lines[i] = strings.TrimPrefix(line, "*")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// scanIdent consumes a kebab-case identifier. first is the rune already
// consumed: either the `%` escape marker or the first segment rune.
func (l *Lexer) scanIdent(first rune, start position) (Token, error) {
	escaped := first == '%'
	if escaped {
		r, ok := l.next()
		if ok {
			if err := l.checkRune(r, start); err != nil {
				return Token{}, err
			}
		}
		if !ok || !isIdentStart(r) {
			return Token{}, errors.New(errors.PhaseLex, errors.KindInvalidIdent).
				Span(l.span(start)).
				Detail("`%s` escape must be followed by an identifier", "%").
				Build()
		}
		first = r
	}

	var b strings.Builder
	b.WriteRune(first)
	for {
		r, ok := l.peek()
		if !ok {
			break
		}
		if isIdentContinue(r) {
			l.next()
			if err := l.checkRune(r, start); err != nil {
				return Token{}, err
			}
			b.WriteRune(r)
			continue
		}
		if r == '-' {
			l.next()
			seg, ok := l.peek()
			if !ok || !isIdentStart(seg) {
				return Token{}, errors.New(errors.PhaseLex, errors.KindInvalidIdent).
					Span(l.span(start)).
					Detail("identifier segment after `-` must start with a letter").
					Build()
			}
			b.WriteRune('-')
			continue
		}
		if isIdentDisallowedInSegment(r) {
			return Token{}, errors.New(errors.PhaseLex, errors.KindInvalidIdent).
				Span(l.span(start)).
				Detail("identifiers are lower-case kebab-case; %q is not allowed", r).
				Build()
		}
		break
	}

	text := b.String()
	if !escaped && keywords[text] {
		return l.token(Keyword, text, start), nil
	}
	return l.token(Ident, text, start), nil
}

// isIdentDisallowedInSegment flags runes that terminate an identifier with
// an error rather than ending it cleanly: uppercase letters and underscores
// are the common mistakes.
func isIdentDisallowedInSegment(r rune) bool {
	if r == '_' {
		return true
	}
	return r >= 'A' && r <= 'Z'
}
