package lang

import (
	"errors"
	"reflect"
	"testing"
)

func mustParse(t *testing.T, src string) *AST {
	t.Helper()

	tokens, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex(%q) error: %v", src, err)
	}

	ast, err := Parse(tokens)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", src, err)
	}

	return ast
}

func TestParse_Statements(t *testing.T) {
	tests := []struct {
		name  string
		input string
		def   bool
		ident string
		value Value
	}{
		{"number", "x = 42 ;", false, "x", Number(42)},
		{"negative number", "x = -7 ;", false, "x", Number(-7)},
		{"string", "x = q(hello world) ;", false, "x", String("hello world")},
		{"empty string", "x = q() ;", false, "x", String("")},
		{"name", "x = y ;", false, "x", NameRef("y")},
		{"empty array", "x = [ ] ;", false, "x", Array{}},
		{
			"nested array",
			"x = [ [ 1 2 ] q(a) k ] ;",
			false, "x",
			Array{Array{Number(1), Number(2)}, String("a"), NameRef("k")},
		},
		{
			"definition",
			"def k := 5 ;",
			true, "k",
			Number(5),
		},
		{
			"operator",
			"def k := $+ a -3$ ;",
			true, "k",
			&ExprOp{Op: OpAdd, Left: NameRef("a"), Right: Number(-3)},
		},
		{
			"padded operator",
			"def k := $  *   2 b $ ;",
			true, "k",
			&ExprOp{Op: OpMul, Left: Number(2), Right: NameRef("b")},
		},
		{
			"chr",
			"x = $chr 65$ ;",
			false, "x",
			&ExprChr{Arg: Number(65)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ast := mustParse(t, tt.input)

			if len(ast.Statements) != 1 {
				t.Fatalf("expected 1 statement, got %d", len(ast.Statements))
			}

			st := ast.Statements[0]

			_, isDef := st.(*Definition)
			if isDef != tt.def {
				t.Errorf("statement is %T", st)
			}

			if st.Ident() != tt.ident {
				t.Errorf("Ident() = %q, want %q", st.Ident(), tt.ident)
			}

			if !reflect.DeepEqual(st.Expr(), tt.value) {
				t.Errorf("Expr() = %#v, want %#v", st.Expr(), tt.value)
			}
		})
	}
}

func TestParse_Program(t *testing.T) {
	ast := mustParse(t, `
		a = 1 ;
		def b := 2 ;
		c = b ;
		def d := [ a ] ;
	`)

	var defs, asgs []string

	for d := range ast.Definitions() {
		defs = append(defs, d.Name)
	}

	for a := range ast.Assignments() {
		asgs = append(asgs, a.Name)
	}

	if !reflect.DeepEqual(defs, []string{"b", "d"}) {
		t.Errorf("definitions = %v", defs)
	}

	if !reflect.DeepEqual(asgs, []string{"a", "c"}) {
		t.Errorf("assignments = %v", asgs)
	}

	n := 0
	for range ast.All() {
		n++
	}

	if n != 4 {
		t.Errorf("All() yielded %d statements, want 4", n)
	}

	if pos := ast.Statements[1].(*Definition).Pos; pos.Line != 3 {
		t.Errorf("definition line = %d, want 3", pos.Line)
	}
}

func TestParse_Empty(t *testing.T) {
	ast, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) error: %v", err)
	}

	if len(ast.Statements) != 0 {
		t.Errorf("expected no statements, got %d", len(ast.Statements))
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     error
		expected string
		got      string
	}{
		{"definition with =", "def x = 1 ;", ErrParse, ":=", `"="`},
		{"assignment with :=", "x := 1 ;", ErrParse, "=", `":="`},
		{"missing semicolon", "x = 1", ErrParse, ";", "EOF"},
		{"missing value", "x = ;", ErrParse, "value", `";"`},
		{"value at eof", "x =", ErrParse, "value", "EOF"},
		{"unclosed array", "x = [ 1 2", ErrParse, "value", "EOF"},
		{"stray bracket", "x = ] ;", ErrParse, "value", `"]"`},
		{"missing name", "= 1 ;", ErrParse, "name", `"="`},
		{"keyword as name", "def def := 1 ;", ErrParse, "name", `"def"`},
		{"number overflow", "x = 99999999999999999999 ;", ErrParse, "", ""},
		{"empty expression", "x = $ $ ;", ErrExprSyntax, "", ""},
		{"missing argument", "x = $+ a$ ;", ErrExprSyntax, "", ""},
		{"extra argument", "x = $chr 1 2$ ;", ErrExprSyntax, "", ""},
		{"unknown operator", "x = $/ a b$ ;", ErrExprSyntax, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Lex(tt.input)
			if err != nil {
				t.Fatalf("Lex error: %v", err)
			}

			ast, err := Parse(tokens)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}

			if ast != nil {
				t.Error("expected no AST on error")
			}

			if tt.expected == "" {
				return
			}

			var pe *Error
			if !errors.As(err, &pe) {
				t.Fatalf("expected *Error, got %T", err)
			}

			if v, _ := pe.Attr("expected"); v.String() != tt.expected {
				t.Errorf("expected attr = %q, want %q", v.String(), tt.expected)
			}

			if v, _ := pe.Attr("got"); v.String() != tt.got {
				t.Errorf("got attr = %q, want %q", v.String(), tt.got)
			}
		})
	}
}

func TestSource(t *testing.T) {
	tests := []struct {
		value Value
		want  string
	}{
		{Number(-3), "-3"},
		{String("a b"), "q(a b)"},
		{NameRef("k"), "k"},
		{Array{}, "[ ]"},
		{Array{Number(1), Array{String("x")}}, "[ 1 [ q(x) ] ]"},
		{&ExprOp{Op: OpSub, Left: NameRef("a"), Right: Number(1)}, "$- a 1$"},
		{&ExprChr{Arg: Number(65)}, "$chr 65$"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := Source(tt.value); got != tt.want {
				t.Errorf("Source() = %q, want %q", got, tt.want)
			}
		})
	}
}
