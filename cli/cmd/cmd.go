package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/alecthomas/kong"

	"github.com/ardnew/deflang/lang"
	"github.com/ardnew/deflang/log"
)

// ContextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// IO holds the streams a command reads from and writes to.
type IO struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// StdIO returns the process's standard streams.
func StdIO() IO {
	return IO{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// Globals are the language options shared by every command.
type Globals struct {
	Strict  bool   `help:"Reject a second definition of the same constant." negatable:""`
	Comment string `help:"Character that starts a line comment."            default:"%"`
}

// CommentMarker returns the comment character, which must be exactly one
// rune.
func (g *Globals) CommentMarker() (rune, error) {
	marker, size := utf8.DecodeRuneInString(g.Comment)
	if size == 0 || size != len(g.Comment) || marker == utf8.RuneError {
		return 0, ErrCommentMark.With(slog.String("comment", g.Comment))
	}

	return marker, nil
}

// Options returns the lang options selected by g, logging through the
// package-level logger.
func (g *Globals) Options() ([]lang.Option, error) {
	marker, err := g.CommentMarker()
	if err != nil {
		return nil, err
	}

	return []lang.Option{
		lang.WithLogger(log.Default()),
		lang.WithCommentMarker(marker),
		lang.WithStrictDefinitions(g.Strict),
	}, nil
}

// Input selects the source files a command reads its program from.
type Input struct {
	Source []string `help:"Source input file(s) or '-' for stdin" default:"-" short:"f"`
}

// read returns the concatenated text of every selected source. Files are
// separated by a line break so a trailing comment cannot swallow the next
// file's first line.
func (in Input) read(stdio IO) (string, error) {
	srcs, err := buildSourceFiles(in.Source, stdio.In)
	if err != nil {
		return "", err
	}
	defer srcs.Close()

	if srcs.IsZero() {
		return "", ErrNoSource
	}

	var sb strings.Builder

	for i, r := range srcs.readers() {
		text, err := lang.ReadSource(r)
		if err != nil {
			return "", err
		}

		if i > 0 {
			sb.WriteByte('\n')
		}

		sb.WriteString(text)
	}

	return sb.String(), nil
}

type sourceFiles struct {
	read  []io.Reader
	stdin io.Reader // nil unless "-" was selected
}

// IsZero reports whether there are no source files.
func (s *sourceFiles) IsZero() bool {
	return len(s.read) == 0 && s.stdin == nil
}

// readers returns the regular files in order, followed by stdin if present.
func (s *sourceFiles) readers() []io.Reader {
	if s.stdin == nil {
		return s.read
	}

	return append(s.read[:len(s.read):len(s.read)], s.stdin)
}

// Close closes every opened file.
func (s *sourceFiles) Close() error {
	var first error

	for _, r := range s.read {
		if c, ok := r.(io.Closer); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}

	return first
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev  uint64
	ino  uint64
	path string // set only when the platform has no inode information
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// buildSourceFiles opens the given source paths.
//
// Files are deduplicated by resolving symlinks and comparing device/inode
// pairs. All occurrences of "-", and any path naming the same file as stdin,
// are replaced with a single stdin reader placed last so it reads after all
// regular files.
func buildSourceFiles(sources []string, stdin io.Reader) (*sourceFiles, error) {
	var srcs sourceFiles

	srcs.read = make([]io.Reader, 0, len(sources))
	seen := make(map[fileKey]struct{})

	stdinKey, stdinKeyOK := readerFileKey(stdin)
	hasStdin := false

	for _, src := range sources {
		if src == stdinSource {
			hasStdin = true

			continue
		}

		key, err := statFileKey(src)
		if err != nil {
			srcs.Close()

			return nil, ErrOpenSource.With(slog.String("file", src)).Wrap(err)
		}

		if stdinKeyOK && key == stdinKey {
			hasStdin = true

			continue
		}

		if _, exists := seen[key]; exists {
			continue
		}

		seen[key] = struct{}{}

		file, err := os.Open(src)
		if err != nil {
			srcs.Close()

			return nil, ErrOpenSource.With(slog.String("file", src)).Wrap(err)
		}

		srcs.read = append(srcs.read, file)
	}

	if hasStdin && stdin != nil {
		srcs.stdin = stdin
	}

	return &srcs, nil
}

// statFileKey resolves path to its target file and returns its identity.
func statFileKey(path string) (fileKey, error) {
	// Resolve to absolute path to handle relative path duplicates.
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fileKey{}, err
	}

	// Resolve symlinks to their target.
	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return fileKey{}, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return fileKey{}, err
	}

	key, ok := makeFileKey(info)
	if !ok {
		// No inode information; fall back to the resolved path.
		return fileKey{path: resolved}, nil
	}

	return key, nil
}

// readerFileKey returns the identity of r when it is an open file.
func readerFileKey(r io.Reader) (fileKey, bool) {
	f, ok := r.(*os.File)
	if !ok || f == nil {
		return fileKey{}, false
	}

	info, err := f.Stat()
	if err != nil {
		return fileKey{}, false
	}

	return makeFileKey(info)
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true
}
