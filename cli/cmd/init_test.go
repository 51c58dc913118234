package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/ardnew/deflang/lang"
)

// initCLI mirrors the shape of the application command line.
type initCLI struct {
	Globals `embed:""`

	LogLevel  string   `default:"warn"    name:"log-level"`
	Includes  []string `default:"a,b"`
	Retries   int      `default:"3"`
	Secret    string   `default:"hidden"  hidden:""`
	PprofMode string   `default:"cpu"     name:"pprof-mode"`

	Init Init `cmd:""`
}

// initContext parses "init" with the configuration file set to confPath.
func initContext(t *testing.T, confPath string, args ...string) context.Context {
	t.Helper()

	var cli initCLI

	parser, err := kong.New(&cli,
		kong.Vars{ConfigIdentifier: confPath},
		kong.Exit(func(int) { t.Fatal("unexpected exit") }),
	)
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse(append([]string{"init"}, args...))
	if err != nil {
		t.Fatal(err)
	}

	return WithContext(t.Context(), ktx)
}

func TestInitRun(t *testing.T) {
	tests := []struct {
		name    string
		force   bool
		exists  bool
		wantErr error
	}{
		{name: "create", force: false, exists: false},
		{name: "overwrite with force", force: true, exists: true},
		{name: "refuse without force", force: false, exists: true, wantErr: ErrFileExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			confPath := filepath.Join(t.TempDir(), "config")

			if tt.exists {
				if err := os.WriteFile(confPath, []byte("old = 1 ;"), 0o600); err != nil {
					t.Fatal(err)
				}
			}

			ctx := initContext(t, confPath, "--comment=#")

			err := (&Init{Force: tt.force}).Run(ctx)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) || !errors.Is(err, ErrWriteConfig) {
					t.Fatalf("Init.Run() error = %v, want %v", err, tt.wantErr)
				}

				data, _ := os.ReadFile(confPath)
				if string(data) != "old = 1 ;" {
					t.Errorf("existing file was modified: %q", data)
				}

				return
			}

			if err != nil {
				t.Fatalf("Init.Run() error: %v", err)
			}

			f, err := os.Open(confPath)
			if err != nil {
				t.Fatal(err)
			}
			defer f.Close()

			m, err := lang.EvaluateReader(t.Context(), f)
			if err != nil {
				t.Fatalf("generated configuration does not evaluate: %v", err)
			}

			want := map[string]any{
				"strict":    "false",
				"comment":   "#",
				"log_level": "warn",
				"includes":  []any{"a", "b"},
				"retries":   int64(3),
			}

			if got := m.ToMap(); !reflect.DeepEqual(got, want) {
				t.Errorf("configuration = %v, want %v", got, want)
			}
		})
	}
}

func TestInitRun_Header(t *testing.T) {
	confPath := filepath.Join(t.TempDir(), "config")

	if err := (&Init{}).Run(initContext(t, confPath)); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(confPath)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(string(data), "% deflang configuration\n") {
		t.Errorf("missing header:\n%s", data)
	}

	// "%" has no q(...) form, so it round-trips through chr.
	if !strings.Contains(string(data), "comment = $chr 37$ ;") {
		t.Errorf("comment marker not written as chr:\n%s", data)
	}
}

func TestInitRun_BadPath(t *testing.T) {
	confPath := filepath.Join(t.TempDir(), "missing", "dir", "config")

	err := (&Init{}).Run(initContext(t, confPath))
	if !errors.Is(err, ErrWriteConfig) {
		t.Errorf("Init.Run() error = %v, want ErrWriteConfig", err)
	}
}

func TestConfigKey(t *testing.T) {
	for flag, want := range map[string]string{
		"strict":          "strict",
		"log-level":       "log_level",
		"log-time-layout": "log_time_layout",
	} {
		if got := ConfigKey(flag); got != want {
			t.Errorf("ConfigKey(%q) = %q, want %q", flag, got, want)
		}
	}
}

func TestFlagValue(t *testing.T) {
	type level int8

	tests := []struct {
		name   string
		val    any
		want   any
		wantOK bool
	}{
		{"nil", nil, nil, false},
		{"true", true, "true", true},
		{"false", false, "false", true},
		{"string", "debug", "debug", true},
		{"empty string", "", nil, false},
		{"int", 3, int64(3), true},
		{"int64", int64(-7), int64(-7), true},
		{"named int", level(2), int64(2), true},
		{"strings", []string{"a", "", "b"}, []any{"a", "b"}, true},
		{"empty slice", []string{}, nil, false},
		{"ints", []int{1, 2}, []any{int64(1), int64(2)}, true},
		{"other", 1.5, "1.5", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := flagValue(tt.val)
			if ok != tt.wantOK {
				t.Fatalf("flagValue(%v) ok = %v, want %v", tt.val, ok, tt.wantOK)
			}

			if ok && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("flagValue(%v) = %s, want %s",
					tt.val, fmt.Sprintf("%#v", got), fmt.Sprintf("%#v", tt.want))
			}
		})
	}
}
