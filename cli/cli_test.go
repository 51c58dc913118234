package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/deflang/cli/cmd"
	"github.com/ardnew/deflang/lang"
	"github.com/ardnew/deflang/pkg"
)

// exitCode is raised by the exit function given to [RunIO] in tests.
type exitCode int

type result struct {
	out, err string
	exited   bool
	code     int
	runErr   error
}

// isolate points the user directories at temporary directories and
// returns the application configuration directory.
func isolate(t *testing.T) string {
	t.Helper()

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	return userPaths().config
}

func run(t *testing.T, stdin string, args ...string) (res result) {
	t.Helper()

	var out, errOut bytes.Buffer

	stdio := cmd.IO{In: strings.NewReader(stdin), Out: &out, Err: &errOut}

	defer func() {
		res.out, res.err = out.String(), errOut.String()

		if r := recover(); r != nil {
			code, ok := r.(exitCode)
			if !ok {
				panic(r)
			}

			res.exited, res.code = true, int(code)
		}
	}()

	res.runErr = RunIO(t.Context(), stdio, func(code int) { panic(exitCode(code)) }, args...)

	return res
}

func TestRun_Commands(t *testing.T) {
	const program = "def base := 8000 ;\nport = $+ base 1$ ;\nname = q(web) ;\n"

	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{
			name:  "default command",
			stdin: program,
			want:  "port: 8001\nname: web\n",
		},
		{
			name:  "eval json",
			stdin: program,
			args:  []string{"eval", "-o", "json", "-i", "0"},
			want:  "{\"port\":8001,\"name\":\"web\"}\n",
		},
		{
			name:  "default command with flags",
			stdin: program,
			args:  []string{"-o", "native"},
			want:  "port = 8001 ;\nname = q(web) ;\n",
		},
		{
			name:  "query",
			stdin: program,
			args:  []string{"query", "port - 1"},
			want:  "8000\n",
		},
		{
			name:  "tokens",
			stdin: "a = 1 ;",
			args:  []string{"tokens"},
			want:  "name\ta\t1:1\n=\t=\t1:3\nnumber\t1\t1:5\n;\t;\t1:7\n",
		},
		{
			name:  "ast",
			stdin: "a = 1 ;",
			args:  []string{"ast"},
			want:  "Assignment: a\n  Number: 1\n",
		},
		{
			name:  "comment marker",
			stdin: "a = q(50%) ; # note",
			args:  []string{"--comment", "#", "-o", "json", "-i", "0"},
			want:  "{\"a\":\"50%\"}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)

			res := run(t, tt.stdin, tt.args...)

			if res.runErr != nil {
				t.Fatalf("RunIO() error: %v\nstderr: %s", res.runErr, res.err)
			}

			if res.out != tt.want {
				t.Errorf("RunIO() output = %q, want %q", res.out, tt.want)
			}
		})
	}
}

func TestRun_Files(t *testing.T) {
	isolate(t)

	dir := t.TempDir()
	first := filepath.Join(dir, "first.def")
	second := filepath.Join(dir, "second.def")

	if err := os.WriteFile(first, []byte("def n := 2 ; % constants\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(second, []byte("twice = $* n 2$ ;\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	res := run(t, "", "query", "-f", first, "-f", second, "twice * 10")
	if res.runErr != nil {
		t.Fatalf("RunIO() error: %v", res.runErr)
	}

	if res.out != "40\n" {
		t.Errorf("RunIO() output = %q, want %q", res.out, "40\n")
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		want  error
	}{
		{"undefined constant", "a = b ;", nil, lang.ErrUndefinedConstant},
		{"lex", "a = 1 ! ;", nil, lang.ErrLex},
		{"strict", "def a := 1 ; def a := 2 ;", []string{"--strict"}, lang.ErrDuplicateDefinition},
		{"comment marker", "a = 1 ;", []string{"--comment", "%%"}, cmd.ErrCommentMark},
		{"missing file", "", []string{"-f", "/nonexistent/x.def"}, cmd.ErrOpenSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)

			res := run(t, tt.stdin, tt.args...)
			if !errors.Is(res.runErr, tt.want) {
				t.Errorf("RunIO() error = %v, want %v", res.runErr, tt.want)
			}

			if res.out != "" {
				t.Errorf("RunIO() wrote output on error: %q", res.out)
			}
		})
	}
}

func TestRun_Version(t *testing.T) {
	isolate(t)

	res := run(t, "", "--version")

	if !res.exited || res.code != 0 {
		t.Fatalf("exited = %v, code = %d; want exit 0", res.exited, res.code)
	}

	if !strings.Contains(res.out, pkg.Version) {
		t.Errorf("output %q does not contain version %q", res.out, pkg.Version)
	}
}

func TestRun_ConfigFile(t *testing.T) {
	confDir := isolate(t)

	if err := os.MkdirAll(confDir, 0o700); err != nil {
		t.Fatal(err)
	}

	conf := "def fmt := q(json) ;\noutput = fmt ;\nindent = 0 ;\n"
	if err := os.WriteFile(filepath.Join(confDir, configBase), []byte(conf), 0o600); err != nil {
		t.Fatal(err)
	}

	res := run(t, "a = 1 ;")
	if res.runErr != nil {
		t.Fatalf("RunIO() error: %v", res.runErr)
	}

	if res.out != "{\"a\":1}\n" {
		t.Errorf("configured output = %q, want JSON", res.out)
	}

	// Flags override the configuration file.
	res = run(t, "a = 1 ;", "-o", "yaml")
	if res.runErr != nil {
		t.Fatalf("RunIO() error: %v", res.runErr)
	}

	if res.out != "{a: 1}\n" {
		t.Errorf("overridden output = %q, want flow YAML", res.out)
	}
}

func TestRun_Init(t *testing.T) {
	confDir := isolate(t)
	confFile := filepath.Join(confDir, configBase)

	res := run(t, "", "--log-level", "debug", "--comment", "#", "init")
	if res.runErr != nil {
		t.Fatalf("init error: %v", res.runErr)
	}

	f, err := os.Open(confFile)
	if err != nil {
		t.Fatalf("configuration file not written: %v", err)
	}
	defer f.Close()

	m, err := lang.EvaluateReader(t.Context(), f)
	if err != nil {
		t.Fatalf("configuration does not evaluate: %v", err)
	}

	for key, want := range map[string]any{
		"log_level":  "debug",
		"log_format": "text",
		"comment":    "#",
		"strict":     "false",
	} {
		if got, _ := m.Get(key); got != want {
			t.Errorf("%s = %v, want %v", key, got, want)
		}
	}

	// A second init refuses to overwrite.
	res = run(t, "", "init")
	if !errors.Is(res.runErr, cmd.ErrFileExists) {
		t.Errorf("second init error = %v, want ErrFileExists", res.runErr)
	}

	// The written configuration is applied to later runs.
	res = run(t, "a = 1 ; # comment", "--log-level", "warn")
	if res.runErr != nil {
		t.Fatalf("RunIO() error: %v", res.runErr)
	}

	if res.out != "a: 1\n" {
		t.Errorf("output = %q", res.out)
	}
}

func TestLogConfigScan(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want logConfig
	}{
		{
			name: "separate values",
			args: []string{"--log-level", "debug", "--log-format", "json"},
			want: logConfig{Level: "debug", Format: "json", Pretty: true},
		},
		{
			name: "inline values",
			args: []string{"eval", "--log-level=error", "-f", "x"},
			want: logConfig{Level: "error", Pretty: true},
		},
		{
			name: "booleans",
			args: []string{"--log-caller", "--no-log-pretty"},
			want: logConfig{Caller: true, Pretty: false},
		},
		{
			name: "assigned booleans",
			args: []string{"--log-caller=false", "--no-log-pretty=false"},
			want: logConfig{Caller: false, Pretty: true},
		},
		{
			name: "stops at terminator",
			args: []string{"--", "--log-level", "debug"},
			want: logConfig{Pretty: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer

			cfg := logConfig{Pretty: true, out: &out}
			cfg.scan(tt.args)

			cfg.out = nil
			if cfg != tt.want {
				t.Errorf("scan(%q) = %+v, want %+v", tt.args, cfg, tt.want)
			}
		})
	}
}
