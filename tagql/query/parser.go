package query

import (
	"fmt"
	"strings"
)

// ParseErrKind distinguishes the parser's failure modes.
type ParseErrKind int

const (
	// ErrUnexpectedToken is the general "expected X, got Y" failure.
	ErrUnexpectedToken ParseErrKind = iota
	// ErrEmptyExpression is reported for empty or whitespace-only input.
	ErrEmptyExpression
	// ErrUnexpectedEnd is reported when the input stops mid-production.
	ErrUnexpectedEnd
	// ErrUnmatchedParen is reported for a ')' with no opening '('.
	ErrUnmatchedParen
)

// ParseError is a positioned syntax error. Parsing is non-recovering:
// the first error aborts and nothing after it is inspected.
type ParseError struct {
	Kind     ParseErrKind
	Expected string
	Got      Token
	Offset   int
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case ErrEmptyExpression:
		return "empty expression"
	case ErrUnexpectedEnd:
		if e.Expected != "" {
			return fmt.Sprintf("unexpected end of query, expected %s (offset %d)", e.Expected, e.Offset)
		}
		return fmt.Sprintf("unexpected end of query (offset %d)", e.Offset)
	case ErrUnmatchedParen:
		return fmt.Sprintf("unmatched ')' (offset %d)", e.Offset)
	default:
		return fmt.Sprintf("expected %s, got %s (offset %d)", e.Expected, e.Got.Kind, e.Offset)
	}
}

// funcNames are the fixed text helpers, matched case-sensitively.
var funcNames = map[string]bool{
	"contains":   true,
	"startsWith": true,
	"endsWith":   true,
}

// Parse parses a query string into an expression AST.
func Parse(input string) (Expr, error) {
	tokens, err := Lex(input)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens}
	if p.match(TokEOF) {
		return nil, &ParseError{Kind: ErrEmptyExpression}
	}

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	// The grammar requires explicit AND/OR between comparisons, so any
	// trailing token is an error rather than an implicit conjunction.
	if !p.match(TokEOF) {
		if p.match(TokRParen) {
			return nil, &ParseError{Kind: ErrUnmatchedParen, Got: p.current(), Offset: p.current().Offset}
		}
		return nil, p.unexpected("AND, OR or end of input")
	}

	return expr, nil
}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) parseExpr() (Expr, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.match(TokOr) {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Or{Left: left, Right: right}
	}

	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	for p.match(TokAnd) {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = And{Left: left, Right: right}
	}

	return left, nil
}

func (p *parser) parseNot() (Expr, error) {
	if p.match(TokNot) {
		p.advance()
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return Not{Inner: inner}, nil
	}

	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	if p.match(TokLParen) {
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if !p.match(TokRParen) {
			if p.match(TokEOF) {
				return nil, &ParseError{Kind: ErrUnexpectedEnd, Expected: "')'", Offset: p.current().Offset}
			}
			return nil, p.unexpected("')'")
		}
		p.advance()
		return expr, nil
	}

	if !p.match(TokIdent) {
		if p.match(TokEOF) {
			return nil, &ParseError{Kind: ErrUnexpectedEnd, Expected: "field or function", Offset: p.current().Offset}
		}
		return nil, p.unexpected("field, function or '('")
	}

	name := p.current()
	if funcNames[name.Text] && p.peek(1).Kind == TokLParen {
		return p.parseFunctionCall()
	}

	return p.parseComparison()
}

// parseComparison parses `field comparator value` and
// `field IN ( value, ... )`.
func (p *parser) parseComparison() (Expr, error) {
	field := p.current()
	p.advance()

	if p.match(TokIn) {
		inTok := p.current()
		p.advance()
		list, err := p.parseValueList()
		if err != nil {
			return nil, err
		}
		return Comparison{
			Field:  strings.ToLower(field.Text),
			Op:     CmpIn,
			Value:  list,
			Offset: inTok.Offset,
		}, nil
	}

	var op Comparator
	switch p.current().Kind {
	case TokEq:
		op = CmpEq
	case TokNeq:
		op = CmpNeq
	case TokLike:
		op = CmpLike
	case TokGt:
		op = CmpGt
	case TokGte:
		op = CmpGte
	case TokLt:
		op = CmpLt
	case TokLte:
		op = CmpLte
	case TokEOF:
		return nil, &ParseError{Kind: ErrUnexpectedEnd, Expected: "comparator", Offset: p.current().Offset}
	default:
		return nil, p.unexpected("comparator")
	}
	opTok := p.current()
	p.advance()

	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}

	return Comparison{
		Field:  strings.ToLower(field.Text),
		Op:     op,
		Value:  value,
		Offset: opTok.Offset,
	}, nil
}

// parseFunctionCall parses `name ( field , value )`.
func (p *parser) parseFunctionCall() (Expr, error) {
	name := p.current()
	p.advance() // function name
	p.advance() // '('

	if !p.match(TokIdent) {
		if p.match(TokEOF) {
			return nil, &ParseError{Kind: ErrUnexpectedEnd, Expected: "field", Offset: p.current().Offset}
		}
		return nil, p.unexpected("field")
	}
	field := p.current()
	p.advance()

	if !p.match(TokComma) {
		if p.match(TokEOF) {
			return nil, &ParseError{Kind: ErrUnexpectedEnd, Expected: "','", Offset: p.current().Offset}
		}
		return nil, p.unexpected("','")
	}
	p.advance()

	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}

	if !p.match(TokRParen) {
		if p.match(TokEOF) {
			return nil, &ParseError{Kind: ErrUnexpectedEnd, Expected: "')'", Offset: p.current().Offset}
		}
		return nil, p.unexpected("')'")
	}
	p.advance()

	return FuncCall{
		Name:   name.Text,
		Field:  strings.ToLower(field.Text),
		Value:  value,
		Offset: name.Offset,
	}, nil
}

func (p *parser) parseValueList() (List, error) {
	if !p.match(TokLParen) {
		if p.match(TokEOF) {
			return List{}, &ParseError{Kind: ErrUnexpectedEnd, Expected: "'('", Offset: p.current().Offset}
		}
		return List{}, p.unexpected("'('")
	}
	p.advance()

	var values []Value
	for {
		v, err := p.parseValue()
		if err != nil {
			return List{}, err
		}
		values = append(values, v)

		if p.match(TokComma) {
			p.advance()
			continue
		}
		break
	}

	if !p.match(TokRParen) {
		if p.match(TokEOF) {
			return List{}, &ParseError{Kind: ErrUnexpectedEnd, Expected: "')' or ','", Offset: p.current().Offset}
		}
		return List{}, p.unexpected("')' or ','")
	}
	p.advance()

	return List{Values: values}, nil
}

func (p *parser) parseValue() (Value, error) {
	switch p.current().Kind {
	case TokString, TokIdent:
		v := Str{Text: p.current().Text}
		p.advance()
		return v, nil
	case TokNumber:
		v := Num{Val: p.current().Num}
		p.advance()
		return v, nil
	case TokEOF:
		return nil, &ParseError{Kind: ErrUnexpectedEnd, Expected: "value", Offset: p.current().Offset}
	default:
		return nil, p.unexpected("value")
	}
}

func (p *parser) current() Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return Token{Kind: TokEOF}
}

func (p *parser) peek(offset int) Token {
	pos := p.pos + offset
	if pos < len(p.tokens) {
		return p.tokens[pos]
	}
	return Token{Kind: TokEOF}
}

func (p *parser) advance() {
	if p.pos < len(p.tokens) {
		p.pos++
	}
}

func (p *parser) match(kind TokenKind) bool {
	return p.current().Kind == kind
}

func (p *parser) unexpected(expected string) *ParseError {
	return &ParseError{
		Kind:     ErrUnexpectedToken,
		Expected: expected,
		Got:      p.current(),
		Offset:   p.current().Offset,
	}
}
