package lang

import (
	"strings"
)

// IndentStep is the number of columns a body is indented past its header.
const IndentStep = 4

// Line is one line of source text and its 1-based line number.
type Line struct {
	No   int
	Text string
}

// Block is a header line and the raw lines of its body.
//
// Body lines have had exactly one indentation step removed and are not
// segmented further until the block is executed.
type Block struct {
	Header Line
	Body   []Line
}

// Opens reports whether the header introduces a body.
func (b Block) Opens() bool {
	return strings.HasSuffix(b.Header.Text, ":")
}

// SplitLines splits source text into numbered lines.
func SplitLines(source string) []Line {
	raw := strings.Split(source, "\n")
	lines := make([]Line, len(raw))

	for i, s := range raw {
		lines[i] = Line{No: i + 1, Text: strings.TrimRight(s, " \t\r")}
	}

	return lines
}

// Segment groups lines into blocks by indentation.
//
// Blank lines and comment lines are skipped at any depth. A header that ends
// in ':' takes every following line indented deeper than itself as its body,
// up to the first line at or below its own indentation.
func Segment(lines []Line) []Block {
	var blocks []Block

	for i := 0; i < len(lines); i++ {
		if insignificant(lines[i].Text) {
			continue
		}

		depth := indent(lines[i].Text)
		block := Block{
			Header: Line{No: lines[i].No, Text: strings.TrimSpace(lines[i].Text)},
		}

		if block.Opens() {
			for i+1 < len(lines) {
				next := lines[i+1]
				if insignificant(next.Text) {
					i++

					continue
				}

				if indent(next.Text) <= depth {
					break
				}

				block.Body = append(block.Body, Line{No: next.No, Text: dedent(next.Text)})
				i++
			}
		}

		blocks = append(blocks, block)
	}

	return blocks
}

// insignificant reports whether s is blank or a comment.
func insignificant(s string) bool {
	t := strings.TrimSpace(s)

	return t == "" || t[0] == '#'
}

// indent returns the number of leading spaces of s.
func indent(s string) int {
	return len(s) - len(strings.TrimLeft(s, " "))
}

// dedent strips one indentation step from s.
func dedent(s string) string {
	n := min(indent(s), IndentStep)

	return s[n:]
}
