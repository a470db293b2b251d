package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
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

// Source is one program file loaded before a command runs.
type Source struct {
	Name string
	io.Reader
}

// Sources is an ordered list of program files with duplicates removed.
type Sources []Source

type sourcesKey struct{}

// IsZero reports whether there are no sources.
func (s Sources) IsZero() bool { return len(s) == 0 }

// Reader returns a reader over all sources in order, separated by newlines
// so that the last line of one file never joins the first line of the next.
func (s Sources) Reader() io.Reader {
	readers := make([]io.Reader, 0, 2*len(s))

	for i, src := range s {
		if i > 0 {
			readers = append(readers, strings.NewReader("\n"))
		}

		readers = append(readers, src.Reader)
	}

	return io.MultiReader(readers...)
}

// Close closes every source that is a file other than stdin.
func (s Sources) Close() error {
	var first error

	for _, src := range s {
		f, ok := src.Reader.(*os.File)
		if !ok || f == os.Stdin {
			continue
		}

		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}

	return first
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// WithSources returns a new context.Context containing the program files
// named by paths.
//
// Paths are deduplicated by resolving symlinks and comparing device/inode
// pairs. All occurrences of "-" collapse into a single stdin source placed
// last so it reads after all regular files. Paths that cannot be opened are
// skipped.
func WithSources(ctx context.Context, paths []string) context.Context {
	return context.WithValue(ctx, sourcesKey{}, buildSources(paths))
}

func buildSources(paths []string) Sources {
	if len(paths) == 0 {
		return nil
	}

	srcs := make(Sources, 0, len(paths))
	seen := make(map[fileKey]struct{})

	stdinInfo, _ := os.Stdin.Stat()
	stdinKey, _ := makeFileKey(stdinInfo)

	for _, path := range paths {
		if path == stdinSource {
			seen[stdinKey] = struct{}{}

			continue
		}

		file, ok := openUniqueFile(path, seen)
		if !ok {
			continue
		}

		srcs = append(srcs, Source{Name: path, Reader: file})
	}

	// Stdin may have been included via "-" or as a named file.
	// Both of which will be represented by stdinKey in seen.
	if _, ok := seen[stdinKey]; ok {
		srcs = append(srcs, Source{Name: stdinSource, Reader: os.Stdin})
	}

	if len(srcs) == 0 {
		return nil
	}

	return srcs
}

// openUniqueFile opens the file at path if it hasn't been seen before.
// It resolves symlinks and uses device/inode to detect duplicates.
func openUniqueFile(path string, seen map[fileKey]struct{}) (*os.File, bool) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return nil, false
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, false
	}

	key, ok := makeFileKey(info)
	if !ok {
		return nil, false
	}

	if _, exists := seen[key]; exists {
		return nil, false
	}

	seen[key] = struct{}{}

	file, err := os.Open(resolved)
	if err != nil {
		return nil, false
	}

	return file, true
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	if info == nil {
		return key, false
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true
}

// sourcesFrom retrieves the sources stored in ctx by WithSources.
func sourcesFrom(ctx context.Context) Sources {
	s, _ := ctx.Value(sourcesKey{}).(Sources)

	return s
}
