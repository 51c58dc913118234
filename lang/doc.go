// Package lang compiles deflang source text into an ordered mapping of
// output keys to resolved values.
//
// # Language
//
// A program is a sequence of statements. Definitions introduce constants
// that other values may reference; assignments introduce output keys:
//
//	def base := 8000 ;            % constant
//	def next := $+ base 1$ ;      % constant expression
//	port = next ;                 % output key
//	name = q(hello world) ;       % string literal, no escapes
//	ports = [ base next 9000 ] ;  % array, no separators
//	letter = $chr 65$ ;           % "A"
//
// Comments run from % to the end of the line. Constant expressions are
// written between $ delimiters and are either a binary operator (+, -, *)
// followed by two arguments, or chr followed by one. Each argument is an
// integer literal or a constant name.
//
// Informal EBNF:
//
//	Program    → Statement*
//	Statement  → Definition | Assignment
//	Definition → 'def' NAME ':=' Value ';'
//	Assignment → NAME '=' Value ';'
//	Value      → Number | String | Array | Expr | NAME
//	Array      → '[' Value* ']'
//	Expr       → '$' ( ('+'|'-'|'*') Arg Arg | 'chr' Arg ) '$'
//	Arg        → Number | NAME
//
// # Resolution
//
// Definitions may appear in any order. The resolver makes repeated passes
// over the definitions not yet resolved until a pass makes no progress; any
// definition still pending at that point is reported with
// [ErrUnresolvedConstants]. Assignments are evaluated afterwards, in source
// order, and never become constants themselves.
//
// # Pipeline
//
// [Evaluate] runs the whole pipeline: [StripComments], [Lex], [Parse], and
// [Resolve]. The resulting [Mapping] can be written with
// [Mapping.FormatYAML], [Mapping.FormatJSON], or [Mapping.Format], and
// inspected with expr-lang expressions using [Query].
package lang
