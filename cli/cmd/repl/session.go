package repl

import (
	"context"
	"reflect"
	"strings"

	"github.com/ardnew/deflang/lang"
)

// Kind classifies a line of REPL input.
type Kind int

const (
	KindEmpty     Kind = iota
	KindCommand        // starts with ':'
	KindStatement      // ends with ';'
	KindQuery          // anything else
)

// Classify reports how a line of input is handled.
func Classify(line string) Kind {
	line = strings.TrimSpace(line)

	switch {
	case line == "":
		return KindEmpty
	case strings.HasPrefix(line, ":"):
		return KindCommand
	case strings.HasSuffix(line, ";"):
		return KindStatement
	default:
		return KindQuery
	}
}

// Session is the program built up over a REPL session. Statements are only
// committed when the whole program, including them, still resolves.
type Session struct {
	opts    []lang.Option
	chunks  []string // committed source, in entry order
	ast     *lang.AST
	mapping *lang.Mapping
}

// NewSession returns a session whose program is src.
func NewSession(ctx context.Context, src string, opts ...lang.Option) (*Session, error) {
	s := &Session{opts: opts}
	s.Reset()

	if strings.TrimSpace(src) == "" {
		return s, nil
	}

	if _, err := s.Apply(ctx, src); err != nil {
		return nil, err
	}

	return s, nil
}

// Source returns the committed program text.
func (s *Session) Source() string {
	return strings.Join(s.chunks, "\n")
}

// Mapping returns the resolved output of the committed program.
func (s *Session) Mapping() *lang.Mapping {
	return s.mapping
}

// AST returns the parsed committed program.
func (s *Session) AST() *lang.AST {
	return s.ast
}

// Reset discards the program.
func (s *Session) Reset() {
	s.chunks = nil
	s.ast = &lang.AST{}
	s.mapping = lang.NewMapping()
}

// Apply appends src to the program. If the extended program resolves, it is
// committed and the output keys that were added or changed are returned;
// otherwise the session is left unchanged.
func (s *Session) Apply(ctx context.Context, src string) (*lang.Mapping, error) {
	chunks := append(s.chunks[:len(s.chunks):len(s.chunks)], src)

	return s.commit(ctx, chunks)
}

// Replace swaps the whole program for src, under the same rules as
// [Session.Apply].
func (s *Session) Replace(ctx context.Context, src string) (*lang.Mapping, error) {
	return s.commit(ctx, []string{src})
}

func (s *Session) commit(ctx context.Context, chunks []string) (*lang.Mapping, error) {
	ast, err := lang.ParseString(ctx, strings.Join(chunks, "\n"), s.opts...)
	if err != nil {
		return nil, err
	}

	m, err := lang.Resolve(ctx, ast, s.opts...)
	if err != nil {
		return nil, err
	}

	changed := lang.NewMapping()

	for key, val := range m.All() {
		if old, ok := s.mapping.Get(key); !ok || !reflect.DeepEqual(old, val) {
			changed.Set(key, val)
		}
	}

	s.chunks, s.ast, s.mapping = chunks, ast, m

	return changed, nil
}

// Query evaluates an expression over the committed output keys.
func (s *Session) Query(ctx context.Context, expression string) (any, error) {
	return lang.Query(ctx, s.mapping, expression)
}

// Names returns every constant and output key of the committed program,
// in source order without repetition.
func (s *Session) Names() []string {
	var names []string

	seen := make(map[string]struct{})

	for st := range s.ast.All() {
		if _, ok := seen[st.Ident()]; ok {
			continue
		}

		seen[st.Ident()] = struct{}{}
		names = append(names, st.Ident())
	}

	return names
}
