package lang

import (
	"reflect"
	"sort"
)

// resultTypeName names the type of a resolved value for diagnostics.
func resultTypeName(value any) string {
	switch v := value.(type) {
	case nil:
		return "nil"
	case int64:
		return "integer"
	case string:
		return "string"
	case []any:
		return "array"
	case Value:
		return v.Kind()
	default:
		return reflect.TypeOf(value).String()
	}
}

func sortedKeys[T any](m map[string]T) []string {
	if len(m) == 0 {
		return nil
	}

	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
