package lang

// This file defines the built-in environment of queries. Every call builds
// a fresh map, so callers may mutate the result.
//
// Built-in names can be shadowed by output keys.

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/ardnew/mung"
)

// BuiltinEnv returns the built-in query environment. Nested maps group
// related functions under a common prefix ("path.cat").
func BuiltinEnv() map[string]any {
	return map[string]any{
		// Process environment lookup.
		"env": os.Getenv,

		// Host information.
		"platform": map[string]any{
			"os":   runtime.GOOS,
			"arch": runtime.GOARCH,
		},
		"hostname": hostname(),
		"cwd":      cwd,

		// Filesystem predicates.
		"file": map[string]any{
			"exists":    fileExists,
			"isDir":     fileIsDir,
			"isRegular": fileIsRegular,
			"isSymlink": fileIsSymlink,
		},

		// Path manipulation functions.
		"path": map[string]any{
			"abs":  pathAbs,
			"base": filepath.Base,
			"cat":  pathCat,
			"dir":  filepath.Dir,
			"rel":  pathRel,
		},

		// PATH-like string manipulation via mung.
		"mung": map[string]any{
			"prefix":   mungPrefix,
			"prefixif": mungPrefixIf,
		},
	}
}

// BuiltinNames returns the sorted top-level names of [BuiltinEnv].
func BuiltinNames() []string {
	return sortedKeys(BuiltinEnv())
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return ""
	}

	return name
}

func cwd() string {
	dir, err := os.Getwd()
	if err != nil {
		return pathAbs(".")
	}

	return dir
}

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return !os.IsNotExist(err)
}

func fileIsDir(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}

func fileIsRegular(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

func fileIsSymlink(path string) bool {
	info, err := os.Lstat(path)

	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// pathAbs returns path unchanged if it cannot be made absolute.
func pathAbs(path string) string {
	p, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return p
}

func pathCat(elem ...string) string {
	return filepath.Join(elem...)
}

// pathRel returns the path of to relative to from. If no relative path
// exists, the two are joined.
func pathRel(from, to string) string {
	p, err := filepath.Rel(pathAbs(from), pathAbs(to))
	if err != nil {
		return pathCat(from, to)
	}

	return p
}

// mungPrefix prepends the prefix items to the path list key, removing
// duplicates.
func mungPrefix(key string, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(key),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
	).String()
}

// mungPrefixIf is like mungPrefix but keeps only the items accepted by
// predicate.
func mungPrefixIf(
	key string,
	predicate func(string) bool,
	prefix ...string,
) string {
	return mung.Make(
		mung.WithSubjectItems(key),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
		mung.WithFilter(predicate),
	).String()
}
