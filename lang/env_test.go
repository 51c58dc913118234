package lang

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"
)

func TestBuiltinNames(t *testing.T) {
	want := []string{"cwd", "env", "file", "hostname", "mung", "path", "platform"}

	if got := BuiltinNames(); !slices.Equal(got, want) {
		t.Errorf("BuiltinNames() = %v, want %v", got, want)
	}
}

func TestBuiltinEnv_Fresh(t *testing.T) {
	env := BuiltinEnv()
	delete(env, "path")

	if _, ok := BuiltinEnv()["path"]; !ok {
		t.Error("mutating one environment changed another")
	}
}

func TestQuery_FileBuiltins(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	link := filepath.Join(dir, "l")

	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	if err := os.Symlink(file, link); err != nil {
		t.Fatal(err)
	}

	m := NewMapping()
	m.Set("dir", dir)
	m.Set("file", file) // shadows the file built-ins
	m.Set("link", link)

	// Without the shadowing key.
	env := NewMapping()
	env.Set("dir", dir)
	env.Set("f", file)
	env.Set("l", link)

	tests := []struct {
		query string
		want  string
	}{
		{"file.exists(f)", "true"},
		{`file.exists(dir + "/missing")`, "false"},
		{"file.isDir(dir)", "true"},
		{"file.isDir(f)", "false"},
		{"file.isRegular(f)", "true"},
		{"file.isSymlink(l)", "true"},
		{"file.isSymlink(f)", "false"},
		{"path.rel(dir, f)", "f"},
		{`path.abs(".") == cwd()`, "true"},
		{"platform.os", runtime.GOOS},
		{"platform.arch", runtime.GOARCH},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := Query(t.Context(), env, tt.query)
			if err != nil {
				t.Fatalf("Query(%q) error: %v", tt.query, err)
			}

			if s := fmt.Sprint(got); s != tt.want {
				t.Errorf("Query(%q) = %s, want %s", tt.query, s, tt.want)
			}
		})
	}

	got, err := Query(t.Context(), m, "file")
	if err != nil || got != file {
		t.Errorf("shadowed file = %v, %v; want %q", got, err, file)
	}
}

func TestMungPrefixIf(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing")
	sep := string(os.PathListSeparator)

	got := mungPrefixIf("/usr/bin", fileIsDir, dir, missing)

	items := strings.Split(got, sep)
	if !slices.Contains(items, dir) {
		t.Errorf("mungPrefixIf() = %q, missing %q", got, dir)
	}

	if slices.Contains(items, missing) {
		t.Errorf("mungPrefixIf() = %q, kept rejected %q", got, missing)
	}
}
