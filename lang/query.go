package lang

// This file defines expr-lang queries over a resolved Mapping. Every output
// key is visible as a variable, alongside the built-ins of [BuiltinEnv].
// Output keys shadow built-ins of the same name.

import (
	"context"
	"log/slog"
	"maps"
	"strings"

	"github.com/expr-lang/expr"
)

// Query evaluates an expr-lang expression with the keys of m bound as
// variables and returns the result.
func Query(ctx context.Context, m *Mapping, expression string) (any, error) {
	env := BuiltinEnv()
	maps.Copy(env, m.ToMap())

	fail := func(err error) error {
		return ErrQuery.Wrap(err).With(slog.String("query", expression))
	}

	program, err := expr.Compile(strings.TrimSpace(expression), expr.Env(env))
	if err != nil {
		return nil, fail(err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fail(err)
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return nil, fail(err)
	}

	return result, nil
}
