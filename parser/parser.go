package parser

import (
	"strings"

	"github.com/wasmerio/wai/ast"
	"github.com/wasmerio/wai/errors"
	"github.com/wasmerio/wai/lexer"
)

// Parser consumes a token stream into an unresolved ast.Document. It is a
// plain recursive-descent parser over the wai grammar: items are
// self-delimited, so parsing one item never looks ahead into the next. No
// name resolution happens here; type references stay as raw strings.
type Parser struct {
	doc    string
	tokens []lexer.Token
	pos    int
}

// Parse tokenizes and parses one document in a single call.
func Parse(doc, source string) (*ast.Document, error) {
	tokens, err := lexer.Tokenize(doc, source)
	if err != nil {
		return nil, err
	}
	return New(doc, tokens).Parse()
}

// New creates a parser over an already-lexed token stream.
func New(doc string, tokens []lexer.Token) *Parser {
	return &Parser{doc: doc, tokens: tokens}
}

// Parse consumes the whole stream into a document.
func (p *Parser) Parse() (*ast.Document, error) {
	out := &ast.Document{Name: p.doc}

	for {
		p.skipNewlines()
		docs := p.collectDocs()
		p.skipNewlines()

		tok := p.peek()
		if tok.Kind == lexer.EOF {
			return out, nil
		}

		if tok.Is("use") {
			use, err := p.parseUse()
			if err != nil {
				return nil, err
			}
			out.Uses = append(out.Uses, use)
		} else {
			item, err := p.parseItem(docs)
			if err != nil {
				return nil, err
			}
			out.Items = append(out.Items, item)
		}

		if err := p.itemTerminator(); err != nil {
			return nil, err
		}
	}
}

func (p *Parser) peek() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Kind: lexer.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) next() lexer.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) skipNewlines() {
	for p.peek().Kind == lexer.Newline {
		p.pos++
	}
}

// collectDocs gathers consecutive doc comments, each on its own line, into
// one body attached to the following item or member.
func (p *Parser) collectDocs() string {
	var lines []string
	for {
		if p.peek().Kind == lexer.DocComment {
			lines = append(lines, p.next().Text)
			p.skipNewlines()
			continue
		}
		return strings.Join(lines, "\n")
	}
}

func (p *Parser) expect(kind lexer.Kind) (lexer.Token, error) {
	tok := p.peek()
	if tok.Kind != kind {
		return tok, errors.UnexpectedToken(tok.Span, tok.Describe(), kind.String())
	}
	return p.next(), nil
}

func (p *Parser) expectKeyword(keyword string) (lexer.Token, error) {
	tok := p.peek()
	if !tok.Is(keyword) {
		return tok, errors.UnexpectedToken(tok.Span, tok.Describe(), "`"+keyword+"`")
	}
	return p.next(), nil
}

func (p *Parser) expectIdent() (lexer.Token, error) {
	tok := p.peek()
	if tok.Kind != lexer.Ident {
		return tok, errors.UnexpectedToken(tok.Span, tok.Describe(), "identifier")
	}
	return p.next(), nil
}

// itemTerminator enforces the newline-or-EOF convention after a top-level
// item.
func (p *Parser) itemTerminator() error {
	tok := p.peek()
	switch tok.Kind {
	case lexer.Newline:
		p.skipNewlines()
		return nil
	case lexer.EOF:
		return nil
	default:
		return errors.UnexpectedToken(tok.Span, tok.Describe(), "newline", "end of input")
	}
}

// separator consumes a comma or newline between body members. It reports
// whether the body close follows, so callers can stop cleanly on trailing
// separators.
func (p *Parser) separator(close lexer.Kind) (done bool, err error) {
	tok := p.peek()
	switch tok.Kind {
	case close:
		return true, nil
	case lexer.Comma, lexer.Newline:
		p.next()
		p.skipNewlines()
		for p.peek().Kind == lexer.Comma {
			p.next()
			p.skipNewlines()
		}
		return p.peek().Kind == close, nil
	default:
		return false, errors.UnexpectedToken(tok.Span, tok.Describe(), "','", "newline", close.String())
	}
}

func (p *Parser) parseUse() (*ast.Use, error) {
	start, err := p.expectKeyword("use")
	if err != nil {
		return nil, err
	}

	use := &ast.Use{Span: start.Span}
	switch p.peek().Kind {
	case lexer.Star:
		p.next()
		use.All = true
	case lexer.LBrace:
		p.next()
		p.skipNewlines()
		for p.peek().Kind != lexer.RBrace {
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			un := ast.UseName{Name: name.Text}
			if p.peek().Is("as") {
				p.next()
				alias, err := p.expectIdent()
				if err != nil {
					return nil, err
				}
				un.As = alias.Text
			}
			use.Names = append(use.Names, un)
			done, err := p.separator(lexer.RBrace)
			if err != nil {
				return nil, err
			}
			if done {
				break
			}
		}
		if _, err := p.expect(lexer.RBrace); err != nil {
			return nil, err
		}
	default:
		tok := p.peek()
		return nil, errors.UnexpectedToken(tok.Span, tok.Describe(), "'*'", "'{'")
	}

	if _, err := p.expectKeyword("from"); err != nil {
		return nil, err
	}
	from := p.peek()
	switch from.Kind {
	case lexer.Ident, lexer.Str:
		p.next()
		use.From = from.Text
	default:
		return nil, errors.UnexpectedToken(from.Span, from.Describe(), "identifier", "string")
	}
	return use, nil
}

func (p *Parser) parseItem(docs string) (ast.Item, error) {
	tok := p.peek()
	switch {
	case tok.Is("type"):
		return p.parseTypeAlias(docs)
	case tok.Is("record"):
		return p.parseRecord(docs)
	case tok.Is("flags"):
		return p.parseFlags(docs)
	case tok.Is("variant"):
		return p.parseVariant(docs)
	case tok.Is("enum"):
		return p.parseEnum(docs)
	case tok.Is("union"):
		return p.parseUnion(docs)
	case tok.Is("resource"):
		return p.parseResource(docs)
	case tok.Kind == lexer.Ident:
		return p.parseFunction(docs)
	default:
		return nil, errors.UnexpectedToken(tok.Span, tok.Describe(),
			"`type`", "`record`", "`flags`", "`variant`", "`enum`", "`union`", "`resource`", "identifier")
	}
}

func (p *Parser) parseTypeAlias(docs string) (ast.Item, error) {
	start := p.next() // `type`
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Equals); err != nil {
		return nil, err
	}
	ty, err := p.parseType()
	if err != nil {
		return nil, err
	}
	return &ast.TypeAlias{
		Meta: ast.Meta{Name: name.Text, Docs: docs, Span: start.Span},
		Type: ty,
	}, nil
}

func (p *Parser) parseRecord(docs string) (ast.Item, error) {
	start := p.next() // `record`
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}
	p.skipNewlines()

	var fields []ast.Field
	for p.peek().Kind != lexer.RBrace {
		fieldDocs := p.collectDocs()
		fieldName, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Colon); err != nil {
			return nil, err
		}
		ty, err := p.parseType()
		if err != nil {
			return nil, err
		}
		fields = append(fields, ast.Field{
			Name: fieldName.Text,
			Type: ty,
			Docs: fieldDocs,
			Span: fieldName.Span,
		})
		done, err := p.separator(lexer.RBrace)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}
	if _, err := p.expect(lexer.RBrace); err != nil {
		return nil, err
	}
	return &ast.Record{
		Meta:   ast.Meta{Name: name.Text, Docs: docs, Span: start.Span},
		Fields: fields,
	}, nil
}

func (p *Parser) parseFlags(docs string) (ast.Item, error) {
	start := p.next() // `flags`
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	names, err := p.parseNameBody()
	if err != nil {
		return nil, err
	}
	flags := make([]ast.Flag, len(names))
	for i, n := range names {
		flags[i] = ast.Flag{Name: n.name, Docs: n.docs, Span: n.span}
	}
	return &ast.Flags{
		Meta:  ast.Meta{Name: name.Text, Docs: docs, Span: start.Span},
		Flags: flags,
	}, nil
}

func (p *Parser) parseEnum(docs string) (ast.Item, error) {
	start := p.next() // `enum`
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	names, err := p.parseNameBody()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, p.emptyBody(start.Span, "enum", name.Text)
	}
	cases := make([]ast.EnumCase, len(names))
	for i, n := range names {
		cases[i] = ast.EnumCase{Name: n.name, Docs: n.docs, Span: n.span}
	}
	return &ast.Enum{
		Meta:  ast.Meta{Name: name.Text, Docs: docs, Span: start.Span},
		Cases: cases,
	}, nil
}

type namedMember struct {
	name string
	docs string
	span errors.Span
}

// parseNameBody parses `{ name, name, ... }` bodies shared by flags and
// enum items.
func (p *Parser) parseNameBody() ([]namedMember, error) {
	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}
	p.skipNewlines()

	var names []namedMember
	for p.peek().Kind != lexer.RBrace {
		docs := p.collectDocs()
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		names = append(names, namedMember{name: name.Text, docs: docs, span: name.Span})
		done, err := p.separator(lexer.RBrace)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}
	if _, err := p.expect(lexer.RBrace); err != nil {
		return nil, err
	}
	return names, nil
}

func (p *Parser) parseVariant(docs string) (ast.Item, error) {
	start := p.next() // `variant`
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}
	p.skipNewlines()

	var cases []ast.Case
	for p.peek().Kind != lexer.RBrace {
		caseDocs := p.collectDocs()
		caseName, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		c := ast.Case{Name: caseName.Text, Docs: caseDocs, Span: caseName.Span}
		if p.peek().Kind == lexer.LParen {
			p.next()
			ty, err := p.parseType()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RParen); err != nil {
				return nil, err
			}
			c.Type = ty
		}
		cases = append(cases, c)
		done, err := p.separator(lexer.RBrace)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}
	if _, err := p.expect(lexer.RBrace); err != nil {
		return nil, err
	}
	if len(cases) == 0 {
		return nil, p.emptyBody(start.Span, "variant", name.Text)
	}
	return &ast.Variant{
		Meta:  ast.Meta{Name: name.Text, Docs: docs, Span: start.Span},
		Cases: cases,
	}, nil
}

func (p *Parser) parseUnion(docs string) (ast.Item, error) {
	start := p.next() // `union`
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}
	p.skipNewlines()

	var types []ast.TypeExpr
	for p.peek().Kind != lexer.RBrace {
		ty, err := p.parseType()
		if err != nil {
			return nil, err
		}
		types = append(types, ty)
		done, err := p.separator(lexer.RBrace)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}
	if _, err := p.expect(lexer.RBrace); err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return nil, p.emptyBody(start.Span, "union", name.Text)
	}
	return &ast.Union{
		Meta:  ast.Meta{Name: name.Text, Docs: docs, Span: start.Span},
		Types: types,
	}, nil
}

func (p *Parser) parseResource(docs string) (ast.Item, error) {
	start := p.next() // `resource`
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	res := &ast.Resource{
		Meta: ast.Meta{Name: name.Text, Docs: docs, Span: start.Span},
	}
	if p.peek().Kind != lexer.LBrace {
		return res, nil // body-less resource declaration
	}
	p.next()
	p.skipNewlines()

	for p.peek().Kind != lexer.RBrace {
		memberDocs := p.collectDocs()
		static := false
		if p.peek().Is("static") {
			p.next()
			static = true
		}
		fn, err := p.parseFunction(memberDocs)
		if err != nil {
			return nil, err
		}
		res.Functions = append(res.Functions, ast.ResourceFunc{
			Func:   fn.(*ast.Function),
			Static: static,
		})
		done, err := p.separator(lexer.RBrace)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}
	if _, err := p.expect(lexer.RBrace); err != nil {
		return nil, err
	}
	return res, nil
}

// parseFunction parses `name: async? func(params) -> ty`, used both for
// top-level function items and resource members.
func (p *Parser) parseFunction(docs string) (ast.Item, error) {
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Colon); err != nil {
		return nil, err
	}

	isAsync := false
	if p.peek().Is("async") {
		p.next()
		isAsync = true
	}
	if _, err := p.expectKeyword("func"); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}

	var params []ast.Param
	for p.peek().Kind != lexer.RParen {
		paramName, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Colon); err != nil {
			return nil, err
		}
		ty, err := p.parseType()
		if err != nil {
			return nil, err
		}
		params = append(params, ast.Param{Name: paramName.Text, Type: ty, Span: paramName.Span})
		if p.peek().Kind == lexer.Comma {
			p.next()
			p.skipNewlines()
		} else if p.peek().Kind != lexer.RParen {
			tok := p.peek()
			return nil, errors.UnexpectedToken(tok.Span, tok.Describe(), "','", "')'")
		}
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}

	var result ast.TypeExpr
	if p.peek().Kind == lexer.Arrow {
		p.next()
		result, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}

	return &ast.Function{
		Meta:    ast.Meta{Name: name.Text, Docs: docs, Span: name.Span},
		Params:  params,
		Result:  result,
		IsAsync: isAsync,
	}, nil
}

func (p *Parser) emptyBody(span errors.Span, what, name string) error {
	return errors.New(errors.PhaseParse, errors.KindEmptyBody).
		Span(span).
		Name(name).
		Detail("%s must have at least one case", what).
		Build()
}
