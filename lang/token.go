package lang

import "strconv"

// Kind identifies the lexical class of a [Token].
type Kind int

const (
	KindDef       Kind = iota // def
	KindDefine                // :=
	KindAssign                // =
	KindSemicolon             // ;
	KindLBracket              // [
	KindRBracket              // ]
	KindString                // string
	KindExpr                  // expression
	KindName                  // name
	KindNumber                // number
)

var kindName = [...]string{
	KindDef:       "def",
	KindDefine:    ":=",
	KindAssign:    "=",
	KindSemicolon: ";",
	KindLBracket:  "[",
	KindRBracket:  "]",
	KindString:    "string",
	KindExpr:      "expression",
	KindName:      "name",
	KindNumber:    "number",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindName) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}

	return kindName[k]
}

// Position locates a token in the source text.
// Offset is a byte offset; Line and Column are 1-based, Column counts runes.
type Position struct {
	Offset int
	Line   int
	Column int
}

func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// Token is a single lexeme with its class, literal text, and position.
type Token struct {
	Kind Kind
	Text string
	Pos  Position
}

func (t Token) String() string {
	switch t.Kind {
	case KindName, KindNumber, KindString, KindExpr:
		return t.Kind.String() + " " + strconv.Quote(t.Text)
	default:
		return strconv.Quote(t.Text)
	}
}
