package lang

import (
	"log/slog"
	"strconv"
	"strings"
)

// Parse builds an AST from a token sequence using one-token-lookahead
// recursive descent:
//
//	Program    → Statement*
//	Statement  → Definition | Assignment
//	Definition → 'def' NAME ':=' Value ';'
//	Assignment → NAME '=' Value ';'
//	Value      → Number | String | Array | Expr | NAME
//	Array      → '[' Value* ']'
//
// The first grammar violation aborts parsing; no partial tree is returned.
func Parse(tokens []Token) (*AST, error) {
	p := &parser{tokens: tokens}

	ast := new(AST)
	ast.Statements = make([]Statement, 0)

	for !p.eof() {
		st, err := p.parseStatement()
		if err != nil {
			return nil, err
		}

		ast.Statements = append(ast.Statements, st)
	}

	return ast, nil
}

// parser holds the parser state.
type parser struct {
	tokens []Token
	pos    int
}

// parseStatement parses a Definition or an Assignment.
func (p *parser) parseStatement() (Statement, error) {
	pos := p.peek().Pos

	if p.match(KindDef) {
		name, err := p.expect(KindName)
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(KindDefine); err != nil {
			return nil, err
		}

		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(KindSemicolon); err != nil {
			return nil, err
		}

		return &Definition{Name: name.Text, Value: val, Pos: pos}, nil
	}

	name, err := p.expect(KindName)
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(KindAssign); err != nil {
		return nil, err
	}

	val, err := p.parseValue()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(KindSemicolon); err != nil {
		return nil, err
	}

	return &Assignment{Name: name.Text, Value: val, Pos: pos}, nil
}

// parseValue parses: Number | String | Array | Expr | NAME.
func (p *parser) parseValue() (Value, error) {
	if p.eof() {
		return nil, p.unexpected("value")
	}

	tok := p.peek()

	switch tok.Kind {
	case KindNumber:
		p.pos++

		return parseNumber(tok)

	case KindString:
		p.pos++

		// q( ... ) -> text between the delimiters
		return String(tok.Text[2 : len(tok.Text)-1]), nil

	case KindLBracket:
		return p.parseArray()

	case KindExpr:
		p.pos++

		return parseExpr(tok)

	case KindName:
		p.pos++

		return NameRef(tok.Text), nil

	default:
		return nil, p.unexpected("value")
	}
}

// parseArray parses: '[' Value* ']'.
func (p *parser) parseArray() (Value, error) {
	if _, err := p.expect(KindLBracket); err != nil {
		return nil, err
	}

	values := make(Array, 0)

	for !p.match(KindRBracket) {
		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}

		values = append(values, val)
	}

	return values, nil
}

// parseExpr parses the body of an expression token:
//
//	ExprBody → ('+'|'-'|'*') ExprArg ExprArg | 'chr' ExprArg
//	ExprArg  → Number | NAME
func parseExpr(tok Token) (Value, error) {
	inner := strings.TrimSpace(tok.Text[1 : len(tok.Text)-1])
	fields := strings.Fields(inner)

	fail := func(reason string) error {
		return ErrExprSyntax.WithPosition(tok.Pos).With(
			slog.String("reason", reason),
			slog.String("expr", inner),
		)
	}

	if len(fields) == 0 {
		return nil, fail("empty expression")
	}

	switch head := fields[0]; head {
	case string(OpAdd), string(OpSub), string(OpMul):
		if len(fields) != 3 {
			return nil, fail("operator requires 2 arguments")
		}

		lhs, err := parseExprArg(tok, fields[1])
		if err != nil {
			return nil, err
		}

		rhs, err := parseExprArg(tok, fields[2])
		if err != nil {
			return nil, err
		}

		return &ExprOp{Op: Operator(head), Left: lhs, Right: rhs}, nil

	case "chr":
		if len(fields) != 2 {
			return nil, fail("chr requires 1 argument")
		}

		arg, err := parseExprArg(tok, fields[1])
		if err != nil {
			return nil, err
		}

		return &ExprChr{Arg: arg}, nil

	default:
		return nil, fail("unknown operation " + strconv.Quote(head))
	}
}

// parseExprArg classifies an expression field as Number or NameRef.
func parseExprArg(tok Token, field string) (ExprArg, error) {
	if !isInteger(field) {
		return NameRef(field), nil
	}

	return parseNumber(Token{Kind: KindNumber, Text: field, Pos: tok.Pos})
}

func parseNumber(tok Token) (Number, error) {
	n, err := strconv.ParseInt(tok.Text, 10, 64)
	if err != nil {
		return 0, ErrParse.WithPosition(tok.Pos).
			With(slog.String("invalid", tok.Text)).
			Wrap(err)
	}

	return Number(n), nil
}

// Helper methods

func (p *parser) eof() bool {
	return p.pos >= len(p.tokens)
}

// peek returns the current token, or the zero Token at end of input.
// The zero Token's position is the end of the last token.
func (p *parser) peek() Token {
	if p.eof() {
		var end Position

		if n := len(p.tokens); n > 0 {
			last := p.tokens[n-1]
			end = last.Pos
			end.Offset += len(last.Text)
			end.Column += len([]rune(last.Text))
		}

		return Token{Kind: -1, Pos: end}
	}

	return p.tokens[p.pos]
}

func (p *parser) match(kind Kind) bool {
	if !p.eof() && p.tokens[p.pos].Kind == kind {
		p.pos++

		return true
	}

	return false
}

func (p *parser) expect(kind Kind) (Token, error) {
	if p.eof() || p.tokens[p.pos].Kind != kind {
		return Token{}, p.unexpected(kind.String())
	}

	tok := p.tokens[p.pos]
	p.pos++

	return tok, nil
}

// unexpected reports the current token (or end of input) where expected was
// required.
func (p *parser) unexpected(expected string) error {
	got := "EOF"
	if !p.eof() {
		got = p.peek().String()
	}

	return ErrParse.WithPosition(p.peek().Pos).With(
		slog.String("expected", expected),
		slog.String("got", got),
	)
}
