package cmd

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/ardnew/pebble/lang"
	"github.com/ardnew/pebble/log"
)

// Run executes a program file.
type Run struct {
	MaxDepth int `default:"${maxDepth}" help:"Maximum depth of nested function calls" name:"max-depth"`

	Path string `arg:"" help:"Program file or '-' for stdin" name:"path"`
}

// Run executes the run command.
func (r *Run) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	var source io.Reader = os.Stdin

	if r.Path != stdinSource {
		file, err := os.Open(r.Path)
		if err != nil {
			return lang.ErrReadSource.
				With(log.File(r.Path)).
				Wrap(err)
		}
		defer file.Close()

		source = file
	}

	in := lang.New(
		lang.WithLogger(log.Default()),
		lang.WithMaxDepth(r.MaxDepth),
	)

	if err := preload(ctx, in); err != nil {
		return err
	}

	log.DebugContext(ctx, "run program", log.File(r.Path))

	_, err = in.RunReader(ctx, source)

	return located(err, r.Path)
}

// located names the program file in an interpreter error, so that its
// diagnostic points at file:line.
func located(err error, path string) error {
	var e *lang.Error
	if path == stdinSource || !errors.As(err, &e) {
		return err
	}

	if _, ok := e.Attr(log.KeyFile); ok {
		return err
	}

	return e.With(log.File(path))
}

// preload runs each source file in ctx in order, so that the functions and
// variables they define are visible to the program that follows.
func preload(ctx context.Context, in *lang.Interpreter) error {
	srcs := sourcesFrom(ctx)
	defer srcs.Close()

	for _, src := range srcs {
		log.DebugContext(ctx, "load source", log.File(src.Name))

		if _, err := in.RunReader(ctx, src); err != nil {
			return ErrLoadSource.Wrap(located(err, src.Name))
		}
	}

	return nil
}
