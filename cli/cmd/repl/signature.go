package repl

import (
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/deflang/lang"
)

// exprLangBuiltins defines signatures for the expr-lang builtin functions
// most useful over a mapping of integers, strings, and arrays.
// Source: https://expr-lang.org/docs/language-definition
var exprLangBuiltins = map[string]struct {
	signature string
	params    []string
}{
	"len":    {"len(v)", []string{"v"}},
	"all":    {"all(array, predicate)", []string{"array", "predicate"}},
	"any":    {"any(array, predicate)", []string{"array", "predicate"}},
	"none":   {"none(array, predicate)", []string{"array", "predicate"}},
	"map":    {"map(array, mapper)", []string{"array", "mapper"}},
	"filter": {"filter(array, predicate)", []string{"array", "predicate"}},
	"find":   {"find(array, predicate)", []string{"array", "predicate"}},
	"count":  {"count(array, predicate)", []string{"array", "predicate"}},
	"sum":    {"sum(array)", []string{"array"}},
	"min":    {"min(array)", []string{"array"}},
	"max":    {"max(array)", []string{"array"}},
	"join":   {"join(array, separator)", []string{"array", "separator"}},
	"split": {
		"split(string, separator)",
		[]string{"string", "separator"},
	},
	"replace": {
		"replace(string, old, new)",
		[]string{"string", "old", "new"},
	},
	"trim":   {"trim(string)", []string{"string"}},
	"upper":  {"upper(string)", []string{"string"}},
	"lower":  {"lower(string)", []string{"string"}},
	"int":    {"int(v)", []string{"v"}},
	"string": {"string(v)", []string{"v"}},
	"type":   {"type(v)", []string{"v"}},
}

// ExprLangBuiltinNames returns the names of the described expr-lang builtin
// functions.
func ExprLangBuiltinNames() []string {
	names := make([]string, 0, len(exprLangBuiltins))
	for name := range exprLangBuiltins {
		names = append(names, name)
	}

	return names
}

// signatureHintStyle styles for parameter hints.
var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
	signatureSeparatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// functionCall represents a detected function call in the input.
type functionCall struct {
	name     string // fully qualified function name (e.g., "path.cat")
	argIndex int    // current argument index (0-based)
	inCall   bool   // true if cursor is inside parameter list
}

// detectFunctionCall analyzes the input to determine if the cursor is inside
// a function call's parameter list. It returns the function name, current
// argument index, and whether we're inside a call.
func detectFunctionCall(input string, cursor int) functionCall {
	if cursor > len(input) {
		cursor = len(input)
	}

	// Scan backward from cursor to find the unmatched opening paren.
	openParenPos := -1
	parenDepth := 0

	for i := cursor; i > 0 && openParenPos < 0; {
		r, size := utf8.DecodeLastRuneInString(input[:i])
		i -= size

		switch r {
		case ')':
			parenDepth++
		case '(':
			if parenDepth == 0 {
				openParenPos = i
			} else {
				parenDepth--
			}
		}
	}

	if openParenPos < 0 {
		return functionCall{}
	}

	// Extract the dotted name before the '('.
	nameStart := openParenPos

	for nameStart > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:nameStart])
		if r != '.' && isWordBoundary(r) {
			break
		}

		nameStart -= size
	}

	funcName := input[nameStart:openParenPos]
	if funcName == "" {
		return functionCall{}
	}

	// Count arguments by counting commas at depth 0 in the parameter list
	argIndex := 0
	depth := 0

	for _, r := range input[openParenPos+1 : cursor] {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				argIndex++
			}
		}
	}

	return functionCall{
		name:     funcName,
		argIndex: argIndex,
		inCall:   true,
	}
}

// getSignature retrieves the function signature for a given function name
// from the expr-lang builtins or the query built-ins. Returns an empty
// signature if the function is unknown.
func getSignature(funcName string) (signature string, params []string) {
	if builtin, ok := exprLangBuiltins[funcName]; ok {
		return builtin.signature, builtin.params
	}

	if sig, params, ok := builtinSignature(funcName); ok {
		return sig, params
	}

	return "", nil
}

// builtinSignature uses reflection to describe a function of the query
// built-in environment. Returns (signature, params, true) if found,
// ("", nil, false) otherwise.
func builtinSignature(funcName string) (string, []string, bool) {
	var current any = lang.BuiltinEnv()

	// Navigate through nested maps
	for seg := range strings.SplitSeq(funcName, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return "", nil, false
		}

		val, exists := m[seg]
		if !exists {
			return "", nil, false
		}

		current = val
	}

	t := reflect.TypeOf(current)
	if t == nil || t.Kind() != reflect.Func {
		return "", nil, false
	}

	numParams := t.NumIn()
	params := make([]string, 0, numParams)

	for i := range numParams {
		paramType := t.In(i)

		if t.IsVariadic() && i == numParams-1 {
			params = append(params, "..."+formatTypeName(paramType.Elem()))
		} else {
			params = append(params, formatTypeName(paramType))
		}
	}

	return funcName + "(" + strings.Join(params, ", ") + ")", params, true
}

// formatTypeName converts a reflect.Type to a readable parameter name.
func formatTypeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"
	case reflect.Slice:
		return "array"
	case reflect.Pointer:
		return formatTypeName(t.Elem())
	default:
		if t.Name() != "" {
			return t.Name()
		}

		return "arg"
	}
}

// renderSignatureHint renders the function signature with the current
// parameter highlighted.
func renderSignatureHint(
	signature string,
	params []string,
	currentArgIdx int,
) string {
	if signature == "" {
		return ""
	}

	openParen := strings.Index(signature, "(")
	if openParen == -1 {
		return signatureStyle.Render(signature)
	}

	funcName := signature[:openParen]

	if len(params) == 0 {
		return signatureNameStyle.Render(funcName) +
			signatureStyle.Render("()")
	}

	var b strings.Builder
	b.WriteString(signatureNameStyle.Render(funcName))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range params {
		if i > 0 {
			b.WriteString(signatureSeparatorStyle.Render(", "))
		}

		// A variadic parameter stays highlighted for every later argument.
		isVariadic := strings.HasPrefix(param, "...")

		if (isVariadic && currentArgIdx >= i) ||
			(!isVariadic && currentArgIdx == i) {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
