package lang

import (
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"
)

// excerptLen is the number of runes of unconsumed input quoted in lex errors.
const excerptLen = 10

// Lex splits comment-free source text into tokens, skipping whitespace.
//
// Token classes are tried in a fixed priority order, so the keyword def wins
// over an identifier spelled the same way and := wins over =. An identifier
// can therefore never be named def.
func Lex(src string) ([]Token, error) {
	l := &lexer{
		input: src,
		line:  1,
		col:   1,
	}

	var tokens []Token

	for {
		l.skipWhitespace()

		if l.eof() {
			return tokens, nil
		}

		tok, ok := l.next()
		if !ok {
			return nil, ErrLex.WithPosition(l.position()).
				With(slog.String("near", l.excerpt()))
		}

		tokens = append(tokens, tok)
	}
}

// lexer holds the scanner state.
type lexer struct {
	input string
	pos   int
	line  int
	col   int
}

// next scans one token at the current position.
func (l *lexer) next() (Token, bool) {
	pos := l.position()

	emit := func(kind Kind, n int) (Token, bool) {
		text := l.input[l.pos : l.pos+n]
		l.advanceN(n)

		return Token{Kind: kind, Text: text, Pos: pos}, true
	}

	rest := l.input[l.pos:]

	switch {
	case l.atKeyword("def"):
		return emit(KindDef, len("def"))

	case strings.HasPrefix(rest, ":="):
		return emit(KindDefine, 2)

	case rest[0] == '=':
		return emit(KindAssign, 1)

	case rest[0] == ';':
		return emit(KindSemicolon, 1)

	case rest[0] == '[':
		return emit(KindLBracket, 1)

	case rest[0] == ']':
		return emit(KindRBracket, 1)
	}

	// q( ... ) and $ ... $ only match when the closing delimiter exists.
	// Otherwise scanning falls through to the remaining classes, which is
	// how a lone "q" still lexes as a name.
	if strings.HasPrefix(rest, "q(") {
		if end := strings.IndexByte(rest[2:], ')'); end >= 0 {
			return emit(KindString, end+3)
		}
	}

	if rest[0] == '$' {
		if end := strings.IndexByte(rest[1:], '$'); end >= 0 {
			return emit(KindExpr, end+2)
		}
	}

	if isNameStart(rest[0]) {
		n := 1
		for n < len(rest) && isNameContinue(rest[n]) {
			n++
		}

		return emit(KindName, n)
	}

	if n := numberLen(rest); n > 0 {
		return emit(KindNumber, n)
	}

	return Token{}, false
}

// atKeyword reports whether kw starts at the current position as a whole
// word, i.e. it is neither preceded nor followed by a word character.
func (l *lexer) atKeyword(kw string) bool {
	if !strings.HasPrefix(l.input[l.pos:], kw) {
		return false
	}

	if l.pos > 0 {
		r, _ := utf8.DecodeLastRuneInString(l.input[:l.pos])
		if isWordRune(r) {
			return false
		}
	}

	if end := l.pos + len(kw); end < len(l.input) {
		r, _ := utf8.DecodeRuneInString(l.input[end:])
		if isWordRune(r) {
			return false
		}
	}

	return true
}

func (l *lexer) eof() bool {
	return l.pos >= len(l.input)
}

func (l *lexer) position() Position {
	return Position{
		Offset: l.pos,
		Line:   l.line,
		Column: l.col,
	}
}

func (l *lexer) advance() {
	if l.eof() {
		return
	}

	r, size := utf8.DecodeRuneInString(l.input[l.pos:])

	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

// advanceN consumes n bytes, keeping line and column in sync.
func (l *lexer) advanceN(n int) {
	end := l.pos + n
	for l.pos < end {
		l.advance()
	}
}

func (l *lexer) skipWhitespace() {
	for !l.eof() {
		r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}

		l.advance()
	}
}

// excerpt returns up to excerptLen runes of unconsumed input.
func (l *lexer) excerpt() string {
	rest := l.input[l.pos:]

	n := 0
	for i := range rest {
		if n == excerptLen {
			return rest[:i]
		}

		n++
	}

	return rest
}

// Character classification

func isNameStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isNameContinue(c byte) bool {
	return isNameStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// numberLen returns the length of the integer literal (-?[0-9]+) at the
// start of s, or 0 if there is none.
func numberLen(s string) int {
	n := 0
	if n < len(s) && s[n] == '-' {
		n++
	}

	digits := n
	for n < len(s) && isDigit(s[n]) {
		n++
	}

	if n == digits {
		return 0
	}

	return n
}

// isInteger reports whether the whole of s is an integer literal.
func isInteger(s string) bool {
	return s != "" && numberLen(s) == len(s)
}
