package parser

import (
	"github.com/wasmerio/wai/ast"
	"github.com/wasmerio/wai/errors"
	"github.com/wasmerio/wai/lexer"
)

var primKeywords = map[string]ast.PrimKind{
	"bool":    ast.PrimBool,
	"u8":      ast.PrimU8,
	"u16":     ast.PrimU16,
	"u32":     ast.PrimU32,
	"u64":     ast.PrimU64,
	"s8":      ast.PrimS8,
	"s16":     ast.PrimS16,
	"s32":     ast.PrimS32,
	"s64":     ast.PrimS64,
	"float32": ast.PrimF32,
	"float64": ast.PrimF64,
	"char":    ast.PrimChar,
	"string":  ast.PrimString,
	"unit":    ast.PrimUnit,
}

// parseType parses one type expression. `_` is accepted as a shorthand for
// unit so `expected<_, errno>` reads naturally.
func (p *Parser) parseType() (ast.TypeExpr, error) {
	tok := p.peek()
	switch tok.Kind {
	case lexer.Underscore:
		p.next()
		return &ast.Prim{Kind: ast.PrimUnit, Span: tok.Span}, nil

	case lexer.Ident:
		p.next()
		return &ast.Named{Name: tok.Text, Span: tok.Span}, nil

	case lexer.Keyword:
		if kind, ok := primKeywords[tok.Text]; ok {
			p.next()
			return &ast.Prim{Kind: kind, Span: tok.Span}, nil
		}
		switch tok.Text {
		case "list":
			p.next()
			elem, err := p.parseTypeArgs1()
			if err != nil {
				return nil, err
			}
			return &ast.ListExpr{Elem: elem, Span: tok.Span}, nil
		case "option":
			p.next()
			elem, err := p.parseTypeArgs1()
			if err != nil {
				return nil, err
			}
			return &ast.OptionExpr{Elem: elem, Span: tok.Span}, nil
		case "future":
			p.next()
			elem, err := p.parseTypeArgs1()
			if err != nil {
				return nil, err
			}
			return &ast.FutureExpr{Elem: elem, Span: tok.Span}, nil
		case "expected":
			p.next()
			okTy, errTy, err := p.parseTypeArgs2()
			if err != nil {
				return nil, err
			}
			return &ast.ExpectedExpr{OK: okTy, Err: errTy, Span: tok.Span}, nil
		case "stream":
			p.next()
			element, end, err := p.parseTypeArgs2()
			if err != nil {
				return nil, err
			}
			return &ast.StreamExpr{Element: element, End: end, Span: tok.Span}, nil
		case "tuple":
			p.next()
			types, err := p.parseTypeArgs()
			if err != nil {
				return nil, err
			}
			return &ast.TupleExpr{Types: types, Span: tok.Span}, nil
		}
	}
	return nil, errors.UnexpectedToken(tok.Span, tok.Describe(), "type")
}

// parseTypeArgs parses `<ty, ty, ...>` with any number of arguments.
func (p *Parser) parseTypeArgs() ([]ast.TypeExpr, error) {
	if _, err := p.expect(lexer.Less); err != nil {
		return nil, err
	}
	var types []ast.TypeExpr
	for p.peek().Kind != lexer.Greater {
		ty, err := p.parseType()
		if err != nil {
			return nil, err
		}
		types = append(types, ty)
		if p.peek().Kind == lexer.Comma {
			p.next()
		} else if p.peek().Kind != lexer.Greater {
			tok := p.peek()
			return nil, errors.UnexpectedToken(tok.Span, tok.Describe(), "','", "'>'")
		}
	}
	if _, err := p.expect(lexer.Greater); err != nil {
		return nil, err
	}
	return types, nil
}

func (p *Parser) parseTypeArgs1() (ast.TypeExpr, error) {
	if _, err := p.expect(lexer.Less); err != nil {
		return nil, err
	}
	ty, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Greater); err != nil {
		return nil, err
	}
	return ty, nil
}

func (p *Parser) parseTypeArgs2() (first, second ast.TypeExpr, err error) {
	if _, err = p.expect(lexer.Less); err != nil {
		return nil, nil, err
	}
	if first, err = p.parseType(); err != nil {
		return nil, nil, err
	}
	if _, err = p.expect(lexer.Comma); err != nil {
		return nil, nil, err
	}
	if second, err = p.parseType(); err != nil {
		return nil, nil, err
	}
	if _, err = p.expect(lexer.Greater); err != nil {
		return nil, nil, err
	}
	return first, second, nil
}
