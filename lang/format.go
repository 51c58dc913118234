package lang

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/goccy/go-yaml"
)

// MapSlice converts the mapping to an ordered YAML map.
func (m *Mapping) MapSlice() yaml.MapSlice {
	ms := make(yaml.MapSlice, 0, m.Len())

	for key, val := range m.All() {
		ms = append(ms, yaml.MapItem{Key: key, Value: YAMLValue(val)})
	}

	return ms
}

// quotedString is a string always encoded as a double-quoted YAML scalar.
type quotedString string

// MarshalYAML implements yaml.BytesMarshaler.
func (s quotedString) MarshalYAML() ([]byte, error) {
	return []byte(strconv.Quote(string(s))), nil
}

// YAMLValue prepares val for YAML encoding. Strings holding non-printable
// characters, line breaks included, are encoded double-quoted.
func YAMLValue(val any) any {
	switch v := val.(type) {
	case string:
		if strings.ContainsFunc(v, func(r rune) bool { return !unicode.IsPrint(r) }) {
			return quotedString(v)
		}

		return v

	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = YAMLValue(elem)
		}

		return out

	case map[string]any:
		out := make(map[string]any, len(v))
		for key, elem := range v {
			out[key] = YAMLValue(elem)
		}

		return out

	default:
		return val
	}
}

// FormatYAML writes the mapping as YAML, keys in assignment order.
// An indent of 0 selects flow style.
func (m *Mapping) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	yamlData, err := yaml.MarshalContext(ctx, m.MapSlice(), opts...)
	if err != nil {
		return err
	}

	_, err = w.Write(yamlData)

	return err
}

// MarshalJSON implements json.Marshaler, preserving key order.
func (m *Mapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')

	first := true
	for key, val := range m.All() {
		if !first {
			buf.WriteByte(',')
		}

		first = false

		if err := enc.Encode(key); err != nil {
			return nil, err
		}

		buf.Truncate(buf.Len() - 1) // Encode appends a newline
		buf.WriteByte(':')

		if err := enc.Encode(val); err != nil {
			return nil, err
		}

		buf.Truncate(buf.Len() - 1)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// FormatJSON writes the mapping as JSON, keys in assignment order.
// An indent of 0 selects compact output.
func (m *Mapping) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	jsonData, err := m.MarshalJSON()
	if err != nil {
		return err
	}

	if indent > 0 {
		var buf bytes.Buffer

		err = json.Indent(&buf, jsonData, "", strings.Repeat(" ", indent))
		if err != nil {
			return err
		}

		jsonData = buf.Bytes()
	}

	_, err = fmt.Fprintln(w, string(jsonData))

	return err
}

// Format writes the mapping as assignments in native syntax, one per line.
// Parsing and resolving the output yields an equal mapping.
func (m *Mapping) Format(_ context.Context, w io.Writer) error {
	for key, val := range m.All() {
		src, err := nativeSource(val)
		if err != nil {
			return WrapError(err).With(slog.String("key", key))
		}

		if _, err := fmt.Fprintf(w, "%s = %s ;\n", key, src); err != nil {
			return err
		}
	}

	return nil
}

// nativeSource renders a resolved value as a value in native syntax.
func nativeSource(val any) (string, error) {
	switch v := val.(type) {
	case int64:
		return strconv.FormatInt(v, 10), nil

	case string:
		if !strings.ContainsRune(v, ')') &&
			!strings.ContainsRune(v, DefaultCommentMarker) {
			return Source(String(v)), nil
		}

		// A q(...) literal cannot hold these characters, but chr can
		// produce any single one of them.
		if r, size := utf8.DecodeRuneInString(v); size == len(v) {
			return Source(&ExprChr{Arg: Number(r)}), nil
		}

		return "", ErrType.With(
			slog.String("reason", "string has no literal form"),
			slog.String("value", v),
		)

	case []any:
		elems := make([]string, 0, len(v)+2)
		elems = append(elems, "[")

		for _, elem := range v {
			src, err := nativeSource(elem)
			if err != nil {
				return "", err
			}

			elems = append(elems, src)
		}

		elems = append(elems, "]")

		return strings.Join(elems, " "), nil

	default:
		return "", ErrInternal.With(slog.String("value", resultTypeName(val)))
	}
}
