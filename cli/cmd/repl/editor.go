package repl

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/ardnew/pebble/log"
)

const defaultEditor = "vi"

// editCommand implements [tea.ExecCommand]. It opens the user's editor on a
// temporary file seeded with the previous buffer and keeps whatever was
// saved as the program to run.
type editCommand struct {
	ctxFunc func() context.Context
	logger  log.Logger
	initial string
	source  string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run writes the buffer to a temporary file, waits for the editor to exit,
// and reads the file back into c.source.
func (c *editCommand) Run() error {
	ctx := c.ctxFunc()

	f, err := os.CreateTemp(os.TempDir(), "pebble-repl-*.peb")
	if err != nil {
		return err
	}

	path := f.Name()

	defer os.Remove(path)

	_, err = f.WriteString(c.initial)
	if cerr := f.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		return err
	}

	if err := runEditor(ctx, c.stdin, c.stdout, c.stderr, path); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c.source = string(data)

	c.logger.TraceContext(
		ctx,
		"repl edit complete",
		slog.String("path", path),
		slog.Int("content_length", len(data)),
	)

	return nil
}

// runEditor runs $EDITOR (or vi) on path with the given standard streams.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}
