package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/ardnew/pebble/lang"
	"github.com/ardnew/pebble/log"
)

// Tree prints the segmented structure of a program without running it.
type Tree struct {
	Format string `default:"yaml" enum:"yaml,json" help:"Output format (${enum})"          short:"f"`
	Indent int    `default:"2"                     help:"Indent width, or 0 for compact output" short:"i"`

	Path string `arg:"" default:"-" help:"Program file or '-' for stdin" name:"path"`
}

// Run executes the tree command.
func (t *Tree) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	var source io.Reader = os.Stdin

	if t.Path != stdinSource {
		file, err := os.Open(t.Path)
		if err != nil {
			return lang.ErrReadSource.
				With(log.File(t.Path)).
				Wrap(err)
		}
		defer file.Close()

		source = file
	}

	return t.write(ctx, os.Stdout, source)
}

func (t *Tree) write(ctx context.Context, w io.Writer, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return lang.ErrReadSource.
			With(log.File(t.Path)).
			Wrap(err)
	}

	stmts := lang.Tree(string(data))

	switch t.Format {
	case "json":
		err = lang.FormatJSON(w, stmts, t.Indent)
	default:
		err = lang.FormatYAML(ctx, w, stmts, t.Indent)
	}

	if err != nil {
		return ErrWriteTree.
			With(slog.String("format", t.Format)).
			Wrap(err)
	}

	return nil
}
