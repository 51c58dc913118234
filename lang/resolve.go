package lang

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"slices"
	"unicode/utf8"
)

// Resolve evaluates the statements of ast into the output [Mapping].
//
// Definitions are resolved first by repeated passes over the ones still
// pending, each pass evaluating against the constants known so far, until a
// pass makes no progress. Assignments are then evaluated in source order
// against the final constants. Assignments never become constants.
func Resolve(ctx context.Context, ast *AST, opts ...Option) (*Mapping, error) {
	o := makeOptions(opts...)

	constants, err := resolveConstants(ctx, ast, o)
	if err != nil {
		return nil, err
	}

	out := NewMapping()

	for asg := range ast.Assignments() {
		val, err := evaluate(asg.Value, constants)
		if err != nil {
			return nil, WrapError(err).With(slog.String("assignment", asg.Name))
		}

		out.Set(asg.Name, val)
	}

	o.logger.TraceContext(ctx, "assignments resolved",
		slog.Int("key_count", out.Len()))

	return out, nil
}

// resolveConstants runs the fixed-point loop over the definitions of ast and
// returns the resulting constants.
func resolveConstants(
	ctx context.Context,
	ast *AST,
	o options,
) (map[string]any, error) {
	// Worklist of definition names in order of first appearance. A repeated
	// definition replaces the value but keeps the first position.
	var pending []string

	defs := make(map[string]*Definition)

	for def := range ast.Definitions() {
		prev, seen := defs[def.Name]
		if seen && o.strict {
			return nil, ErrDuplicateDefinition.WithPosition(def.Pos).With(
				slog.String("name", def.Name),
				slog.String("previous", prev.Pos.String()),
			)
		}

		if !seen {
			pending = append(pending, def.Name)
		}

		defs[def.Name] = def
	}

	constants := make(map[string]any, len(defs))

	for pass := 1; len(pending) > 0; pass++ {
		remain := make([]string, 0, len(pending))

		for _, name := range pending {
			val, err := evaluate(defs[name].Value, constants)
			if errors.Is(err, ErrUndefinedConstant) {
				remain = append(remain, name)

				continue
			}

			if err != nil {
				return nil, WrapError(err).With(slog.String("definition", name))
			}

			constants[name] = val
		}

		o.logger.TraceContext(ctx, "constant pass",
			slog.Int("pass", pass),
			slog.Int("resolved", len(pending)-len(remain)),
			slog.Int("pending", len(remain)))

		if len(remain) == len(pending) {
			return nil, unresolvedError(remain, defs)
		}

		pending = remain
	}

	return constants, nil
}

// unresolvedError reports the definitions left pending when the fixed point
// stalls. It names any referenced constants that are never defined and one
// dependency cycle among the pending definitions, if there is one.
func unresolvedError(pending []string, defs map[string]*Definition) error {
	names := slices.Sorted(slices.Values(pending))

	err := ErrUnresolvedConstants.With(slog.Any("names", names))

	var missing []string

	deps := make(map[string][]string, len(pending))

	for _, name := range names {
		for _, ref := range references(defs[name].Value) {
			if _, ok := defs[ref]; !ok {
				if !slices.Contains(missing, ref) {
					missing = append(missing, ref)
				}

				continue
			}

			deps[name] = append(deps[name], ref)
		}
	}

	if len(missing) > 0 {
		slices.Sort(missing)
		err = err.With(slog.Any("missing", missing))
	}

	if cycle := findCycle(names, deps); len(cycle) > 0 {
		err = err.With(slog.Any("cycle", cycle))
	}

	return err
}

// findCycle returns the names along one cycle in the dependency graph deps,
// starting and ending with the same name, or nil if the graph is acyclic.
func findCycle(names []string, deps map[string][]string) []string {
	const (
		unvisited = iota
		visiting
		done
	)

	state := make(map[string]int, len(names))

	var (
		stack []string
		visit func(string) []string
	)

	visit = func(name string) []string {
		state[name] = visiting
		stack = append(stack, name)

		for _, dep := range deps[name] {
			switch state[dep] {
			case visiting:
				start := slices.Index(stack, dep)

				return append(slices.Clone(stack[start:]), dep)

			case unvisited:
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[name] = done

		return nil
	}

	for _, name := range names {
		if state[name] == unvisited {
			if cycle := visit(name); cycle != nil {
				return cycle
			}
		}
	}

	return nil
}

// references returns the constant names referenced by v, in order.
func references(v Value) []string {
	switch v := v.(type) {
	case NameRef:
		return []string{string(v)}

	case Array:
		var refs []string
		for _, elem := range v {
			refs = append(refs, references(elem)...)
		}

		return refs

	case *ExprOp:
		return append(references(v.Left), references(v.Right)...)

	case *ExprChr:
		return references(v.Arg)

	default:
		return nil
	}
}

// evaluate computes the resolved form of v against constants.
// It does not modify constants.
func evaluate(v Value, constants map[string]any) (any, error) {
	switch v := v.(type) {
	case Number:
		return int64(v), nil

	case String:
		return string(v), nil

	case Array:
		result := make([]any, 0, len(v))

		for _, elem := range v {
			val, err := evaluate(elem, constants)
			if err != nil {
				return nil, err
			}

			result = append(result, val)
		}

		return result, nil

	case NameRef:
		val, ok := constants[string(v)]
		if !ok {
			return nil, ErrUndefinedConstant.With(slog.String("name", string(v)))
		}

		return val, nil

	case *ExprOp:
		// Both operands are evaluated before either is type-checked, so an
		// unknown name takes precedence over a type error.
		left, err := evaluate(v.Left, constants)
		if err != nil {
			return nil, err
		}

		right, err := evaluate(v.Right, constants)
		if err != nil {
			return nil, err
		}

		lhs, err := requireInt(left, v.Left, string(v.Op))
		if err != nil {
			return nil, err
		}

		rhs, err := requireInt(right, v.Right, string(v.Op))
		if err != nil {
			return nil, err
		}

		return arithmetic(v.Op, lhs, rhs)

	case *ExprChr:
		code, err := evaluateInt(v.Arg, constants, "chr")
		if err != nil {
			return nil, err
		}

		if code < 0 || code > math.MaxInt32 || !utf8.ValidRune(rune(code)) {
			return nil, ErrType.With(
				slog.String("reason", "invalid code point"),
				slog.Int64("value", code),
			)
		}

		return string(rune(code)), nil

	default:
		return nil, ErrInternal.With(slog.String("value", resultTypeName(v)))
	}
}

// evaluateInt evaluates an operand that must produce an integer.
func evaluateInt(
	arg ExprArg,
	constants map[string]any,
	operation string,
) (int64, error) {
	val, err := evaluate(arg, constants)
	if err != nil {
		return 0, err
	}

	return requireInt(val, arg, operation)
}

// requireInt asserts that val, the evaluated form of arg, is an integer.
func requireInt(val any, arg ExprArg, operation string) (int64, error) {
	n, ok := val.(int64)
	if !ok {
		return 0, ErrType.With(
			slog.String("reason", "operand is not an integer"),
			slog.String("operation", operation),
			slog.String("operand", Source(arg)),
			slog.String("type", resultTypeName(val)),
		)
	}

	return n, nil
}

// arithmetic applies op to a and b, reporting int64 overflow.
func arithmetic(op Operator, a, b int64) (int64, error) {
	var (
		c        int64
		overflow bool
	)

	switch op {
	case OpAdd:
		c = a + b
		overflow = (a^c)&(b^c) < 0

	case OpSub:
		c = a - b
		overflow = (a^b)&(a^c) < 0

	case OpMul:
		c = a * b
		overflow = a != 0 && (c/a != b || (a == -1 && b == math.MinInt64))

	default:
		return 0, ErrInternal.With(slog.String("operator", string(op)))
	}

	if overflow {
		return 0, ErrIntegerOverflow.With(
			slog.String("operation", string(op)),
			slog.Int64("lhs", a),
			slog.Int64("rhs", b),
		)
	}

	return c, nil
}
