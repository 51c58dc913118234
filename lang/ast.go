package lang

import (
	"io"
	"iter"
	"strconv"
	"strings"
)

// AST is the ordered sequence of statements parsed from source text.
type AST struct {
	Statements []Statement
}

// All returns an iterator over all statements in source order.
func (ast *AST) All() iter.Seq[Statement] {
	return func(yield func(Statement) bool) {
		for _, st := range ast.Statements {
			if !yield(st) {
				return
			}
		}
	}
}

// Definitions returns an iterator over the constant definitions.
func (ast *AST) Definitions() iter.Seq[*Definition] {
	return func(yield func(*Definition) bool) {
		for _, st := range ast.Statements {
			if def, ok := st.(*Definition); ok && !yield(def) {
				return
			}
		}
	}
}

// Assignments returns an iterator over the output assignments.
func (ast *AST) Assignments() iter.Seq[*Assignment] {
	return func(yield func(*Assignment) bool) {
		for _, st := range ast.Statements {
			if asg, ok := st.(*Assignment); ok && !yield(asg) {
				return
			}
		}
	}
}

// Statement is either a [*Definition] or an [*Assignment].
type Statement interface {
	statement()
	Ident() string
	Expr() Value
}

// Definition is a constant declaration: def Name := Value ;
type Definition struct {
	Name  string
	Value Value
	Pos   Position
}

// Assignment is an output entry: Name = Value ;
type Assignment struct {
	Name  string
	Value Value
	Pos   Position
}

func (*Definition) statement() {}
func (*Assignment) statement() {}

func (d *Definition) Ident() string { return d.Name }
func (a *Assignment) Ident() string { return a.Name }

func (d *Definition) Expr() Value { return d.Value }
func (a *Assignment) Expr() Value { return a.Value }

// Value is the closed set of value forms:
// [Number], [String], [Array], [NameRef], [*ExprOp], and [*ExprChr].
type Value interface {
	value()
	Kind() string
}

// ExprArg is an operand of a constant expression: [Number] or [NameRef].
type ExprArg interface {
	Value
	exprArg()
}

// Number is an integer literal.
type Number int64

// String is the verbatim text of a q(...) literal.
type String string

// Array is an ordered sequence of values.
type Array []Value

// NameRef refers to a constant by name.
type NameRef string

// Operator is one of the binary arithmetic operators.
type Operator string

const (
	OpAdd Operator = "+"
	OpSub Operator = "-"
	OpMul Operator = "*"
)

// ExprOp is a binary constant expression: $op left right$.
type ExprOp struct {
	Op    Operator
	Left  ExprArg
	Right ExprArg
}

// ExprChr is a character-code expression: $chr arg$.
type ExprChr struct {
	Arg ExprArg
}

func (Number) value()   {}
func (String) value()   {}
func (Array) value()    {}
func (NameRef) value()  {}
func (*ExprOp) value()  {}
func (*ExprChr) value() {}

func (Number) exprArg()  {}
func (NameRef) exprArg() {}

func (Number) Kind() string   { return "Number" }
func (String) Kind() string   { return "String" }
func (Array) Kind() string    { return "Array" }
func (NameRef) Kind() string  { return "NameRef" }
func (*ExprOp) Kind() string  { return "ExprOp" }
func (*ExprChr) Kind() string { return "ExprChr" }

// Source renders v in the surface syntax it was parsed from.
func Source(v Value) string {
	var sb strings.Builder

	writeSource(&sb, v)

	return sb.String()
}

func writeSource(sb *strings.Builder, v Value) {
	switch v := v.(type) {
	case Number:
		sb.WriteString(strconv.FormatInt(int64(v), 10))

	case String:
		sb.WriteString("q(")
		sb.WriteString(string(v))
		sb.WriteString(")")

	case Array:
		sb.WriteString("[")

		for _, elem := range v {
			sb.WriteString(" ")
			writeSource(sb, elem)
		}

		sb.WriteString(" ]")

	case NameRef:
		sb.WriteString(string(v))

	case *ExprOp:
		sb.WriteString("$" + string(v.Op) + " ")
		writeSource(sb, v.Left)
		sb.WriteString(" ")
		writeSource(sb, v.Right)
		sb.WriteString("$")

	case *ExprChr:
		sb.WriteString("$chr ")
		writeSource(sb, v.Arg)
		sb.WriteString("$")
	}
}

func writer(w io.Writer) func(eol string, item ...string) {
	return func(eol string, item ...string) {
		_, err := io.WriteString(w, strings.Join(item, ": ")+eol)
		if err != nil {
			panic(err)
		}
	}
}

// Print writes an indented tree representation of the AST to w.
func (ast *AST) Print(w io.Writer) (err error) {
	// writer panics on write failure to keep the tree walk simple.
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if !ok {
				panic(r)
			}

			err = e
		}
	}()

	put := writer(w)

	for _, st := range ast.Statements {
		switch st := st.(type) {
		case *Definition:
			put("\n", "Definition", st.Name)
		case *Assignment:
			put("\n", "Assignment", st.Name)
		}

		printValue(put, st.Expr(), 1)
	}

	return nil
}

func printValue(put func(string, ...string), v Value, indent int) {
	prefix := strings.Repeat("  ", indent)

	switch v := v.(type) {
	case Number:
		put("\n", prefix+v.Kind(), strconv.FormatInt(int64(v), 10))

	case String:
		put("\n", prefix+v.Kind(), strconv.Quote(string(v)))

	case NameRef:
		put("\n", prefix+v.Kind(), string(v))

	case Array:
		if len(v) == 0 {
			put("\n", prefix+v.Kind(), "(empty)")

			return
		}

		put("\n", prefix+v.Kind())

		for _, elem := range v {
			printValue(put, elem, indent+1)
		}

	case *ExprOp:
		put("\n", prefix+v.Kind(), string(v.Op))
		printValue(put, v.Left, indent+1)
		printValue(put, v.Right, indent+1)

	case *ExprChr:
		put("\n", prefix+v.Kind(), "chr")
		printValue(put, v.Arg, indent+1)
	}
}
