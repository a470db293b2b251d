package lang

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// Statement is a header and its fully segmented body.
type Statement struct {
	Line   int         `json:"line"           yaml:"line"`
	Header string      `json:"header"         yaml:"header"`
	Body   []Statement `json:"body,omitempty" yaml:"body,omitempty"`
}

// Tree segments source recursively for display.
//
// Execution never uses the result: bodies are segmented again, lazily, each
// time they run.
func Tree(source string) []Statement {
	return tree(Segment(SplitLines(source)))
}

func tree(blocks []Block) []Statement {
	stmts := make([]Statement, len(blocks))

	for i, b := range blocks {
		stmts[i] = Statement{
			Line:   b.Header.No,
			Header: b.Header.Text,
		}

		if len(b.Body) > 0 {
			stmts[i].Body = tree(Segment(b.Body))
		}
	}

	return stmts
}

// FormatJSON writes stmts as JSON with the given indent width.
// An indent of zero writes compact JSON.
func FormatJSON(w io.Writer, stmts []Statement, indent int) error {
	var (
		data []byte
		err  error
	)

	if indent > 0 {
		data, err = json.MarshalIndent(stmts, "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(stmts)
	}

	if err != nil {
		return err
	}

	_, err = w.Write(append(data, '\n'))

	return err
}

// FormatYAML writes stmts as YAML with the given indent width.
// An indent of zero writes flow-style YAML.
func FormatYAML(
	ctx context.Context,
	w io.Writer,
	stmts []Statement,
	indent int,
) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent), yaml.IndentSequence(true))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, stmts, opts...)
	if err != nil {
		return err
	}

	_, err = w.Write(data)

	return err
}
