package repl

import (
	"context"
	"errors"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/pebble/lang"
)

// outputMsg carries text written by the interpreter.
type outputMsg string

// inputRequestMsg is sent when the interpreter blocks reading a line for inp.
type inputRequestMsg struct{}

// evalDoneMsg is sent when an evaluation finishes.
type evalDoneMsg struct {
	value lang.Value
	err   error
}

// inputLine is one line delivered from the UI to a pending inp read.
type inputLine struct {
	text string
	eof  bool
}

// bridge connects an interpreter running in a command goroutine to the UI.
//
// Writes are forwarded to the program as [outputMsg]. Reads announce
// themselves with [inputRequestMsg] and then block until the UI delivers a
// line, or until done is closed.
type bridge struct {
	send  func(tea.Msg)
	lines chan inputLine
	done  <-chan struct{}
	buf   []byte
}

func newBridge(done <-chan struct{}) *bridge {
	return &bridge{
		send:  func(tea.Msg) {},
		lines: make(chan inputLine, 1),
		done:  done,
	}
}

func (b *bridge) Write(p []byte) (int, error) {
	b.send(outputMsg(p))

	return len(p), nil
}

func (b *bridge) Read(p []byte) (int, error) {
	if len(b.buf) == 0 {
		b.send(inputRequestMsg{})

		select {
		case line := <-b.lines:
			if line.eof {
				return 0, io.EOF
			}

			b.buf = append(b.buf, line.text...)
			b.buf = append(b.buf, '\n')

		case <-b.done:
			return 0, io.EOF
		}
	}

	n := copy(p, b.buf)
	b.buf = b.buf[n:]

	return n, nil
}

// deliver hands a line to the pending read. It never blocks since at most
// one read is outstanding.
func (b *bridge) deliver(line inputLine) {
	select {
	case b.lines <- line:
	default:
	}
}

// evaluate runs src as a program. A single line that is not a statement is
// retried as an expression so that its value can be shown.
func evaluate(
	ctx context.Context,
	in *lang.Interpreter,
	src string,
) (lang.Value, error) {
	v, err := in.Run(ctx, src)
	if err == nil || !errors.Is(err, lang.ErrSyntax) ||
		strings.Contains(strings.TrimSpace(src), "\n") {
		return v, err
	}

	if w, exprErr := in.Eval(ctx, strings.TrimSpace(src)); exprErr == nil {
		return w, nil
	}

	return v, err
}

// evalCmd returns a command that evaluates src off the UI goroutine.
func evalCmd(
	ctx context.Context,
	in *lang.Interpreter,
	src string,
) tea.Cmd {
	return func() tea.Msg {
		v, err := evaluate(ctx, in, src)

		return evalDoneMsg{value: v, err: err}
	}
}
