package cmd

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ardnew/deflang/lang"
)

// failWriter rejects every write.
type failWriter struct{}

var errWrite = errors.New("disk full")

func (failWriter) Write([]byte) (int, error) { return 0, errWrite }

func testMapping() *lang.Mapping {
	m := lang.NewMapping()
	m.Set("port", int64(8001))
	m.Set("tags", []any{"a", int64(2)})

	return m
}

func TestWriteMapping(t *testing.T) {
	tests := []struct {
		format string
		indent int
		want   string
	}{
		{FormatYAML, 0, "{port: 8001, tags: [a, 2]}\n"},
		{FormatJSON, 0, "{\"port\":8001,\"tags\":[\"a\",2]}\n"},
		{FormatNative, 0, "port = 8001 ;\ntags = [ q(a) 2 ] ;\n"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer

			err := writeMapping(t.Context(), &buf, testMapping(), tt.format, tt.indent)
			if err != nil {
				t.Fatalf("writeMapping() error: %v", err)
			}

			if got := buf.String(); got != tt.want {
				t.Errorf("writeMapping() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteMapping_Errors(t *testing.T) {
	noLiteral := lang.NewMapping()
	noLiteral.Set("s", "a) %b")

	tests := []struct {
		name   string
		m      *lang.Mapping
		format string
		fail   bool
		want   error
	}{
		{"unknown format", testMapping(), "xml", false, ErrOutputFormat},
		{"string without literal form", noLiteral, FormatNative, false, ErrWriteOutput},
		{"json write", testMapping(), FormatJSON, true, ErrJSONMarshal},
		{"yaml write", testMapping(), FormatYAML, true, ErrYAMLMarshal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error

			if tt.fail {
				err = writeMapping(t.Context(), failWriter{}, tt.m, tt.format, 2)
			} else {
				err = writeMapping(t.Context(), &bytes.Buffer{}, tt.m, tt.format, 2)
			}

			if !errors.Is(err, tt.want) {
				t.Errorf("writeMapping() error = %v, want %v", err, tt.want)
			}
		})
	}

	err := writeMapping(t.Context(), &bytes.Buffer{}, noLiteral, FormatNative, 2)
	if !errors.Is(err, lang.ErrType) {
		t.Errorf("native error = %v, want wrapped ErrType", err)
	}
}

func TestWriteValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"integer", int64(42), "42\n"},
		{"string", "web", "web\n"},
		{"list", []any{int64(1), "x"}, "- 1\n- x\n"},
		{"bool", true, "true\n"},
		{"line break", "\n", "\"\\n\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			if err := writeValue(t.Context(), &buf, tt.value); err != nil {
				t.Fatalf("writeValue() error: %v", err)
			}

			if got := buf.String(); got != tt.want {
				t.Errorf("writeValue() = %q, want %q", got, tt.want)
			}
		})
	}

	if err := writeValue(t.Context(), failWriter{}, int64(1)); !errors.Is(err, errWrite) {
		t.Errorf("writeValue() error = %v, want %v", err, errWrite)
	}
}
