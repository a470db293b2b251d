package repl

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/pebble/lang"
)

// builtinParams are the parameter hints for builtin functions.
// A leading "..." marks a variadic parameter.
var builtinParams = map[string][]string{
	"say": {"...values"},
	"inp": {"prompt"},
}

var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// functionCall describes the call whose argument list contains the cursor.
type functionCall struct {
	name     string // called function name
	argIndex int    // current argument index (0-based)
	inCall   bool   // true if cursor is inside an argument list
}

// detectFunctionCall reports the innermost call whose argument list contains
// the cursor. Text literals are skipped.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(cursor, len(input))

	type open struct {
		pos    int
		closer rune
		commas int
	}

	var (
		stack []open
		quote rune
	)

	for i, r := range input[:cursor] {
		if quote != 0 {
			if r == quote {
				quote = 0
			}

			continue
		}

		switch r {
		case '"', '\'':
			quote = r
		case '(':
			stack = append(stack, open{pos: i, closer: ')'})
		case '[':
			stack = append(stack, open{pos: i, closer: ']'})
		case '{':
			stack = append(stack, open{pos: i, closer: '}'})
		case ')', ']', '}':
			if n := len(stack); n > 0 && stack[n-1].closer == r {
				stack = stack[:n-1]
			}
		case ',':
			if n := len(stack); n > 0 {
				stack[n-1].commas++
			}
		}
	}

	if len(stack) == 0 || stack[len(stack)-1].closer == '}' {
		return functionCall{}
	}

	top := stack[len(stack)-1]

	// Brackets only form a call in the inp[prompt] spelling.
	name, _, _ := wordBounds(input[:top.pos], top.pos)
	if name == "" || (top.closer == ']' && name != "inp") {
		return functionCall{}
	}

	return functionCall{name: name, argIndex: top.commas, inCall: true}
}

// getSignature returns the display signature and parameter names of the
// named function, preferring user definitions over builtins. It returns ""
// if the name is not callable.
func getSignature(
	in *lang.Interpreter,
	name string,
) (signature string, params []string) {
	if fn, ok := in.Func(name); ok {
		params = fn.Params
	} else if params, ok = builtinParams[name]; !ok {
		return "", nil
	}

	return name + "(" + strings.Join(params, ", ") + ")", params
}

// isCallable reports whether name is a user function or builtin.
func isCallable(in *lang.Interpreter, name string) bool {
	if _, ok := in.Func(name); ok {
		return true
	}

	_, ok := builtinParams[name]

	return ok
}

// renderSignatureHint renders the function signature with the current
// parameter highlighted. Variadic parameters stay highlighted for every
// argument at or beyond their position.
func renderSignatureHint(
	signature string,
	params []string,
	currentArgIdx int,
) string {
	name, _, ok := strings.Cut(signature, "(")
	if !ok {
		return signatureStyle.Render(signature)
	}

	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(name))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(", "))
		}

		variadic := strings.HasPrefix(param, "...")
		if currentArgIdx == i || (variadic && currentArgIdx > i) {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
