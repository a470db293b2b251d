package lang

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// splitTopLevel splits s on sep wherever sep occurs outside quotes and at
// bracket depth zero. Items are trimmed; blank items are dropped.
func splitTopLevel(s string, sep byte) []string {
	items := splitItems(s, sep)

	return slices.DeleteFunc(items, func(item string) bool { return item == "" })
}

// splitItems is splitTopLevel keeping blank items, so s always yields at
// least one item.
func splitItems(s string, sep byte) []string {
	var (
		items []string
		depth int
		quote byte
		start int
	)

	push := func(item string) {
		items = append(items, strings.TrimSpace(item))
	}

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			if strings.IndexByte(s[i+1:], c) >= 0 {
				quote = c
			}
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case c == sep && depth == 0:
			push(s[start:i])
			start = i + 1
		}
	}

	push(s[start:])

	return items
}

// indexTopLevel returns the index of the first sep in s that is outside
// quotes and at bracket depth zero, or -1.
func indexTopLevel(s string, sep byte) int {
	depth := 0

	var quote byte

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			if strings.IndexByte(s[i+1:], c) >= 0 {
				quote = c
			}
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case c == sep && depth == 0:
			return i
		}
	}

	return -1
}

// closers maps each opening bracket to its closing bracket.
var closers = map[byte]byte{'(': ')', '[': ']', '{': '}'}

// matchOpen returns the index of the opening bracket matching the closing
// bracket that ends s, or -1 when s does not end in a closing bracket or the
// brackets are unbalanced.
func matchOpen(s string) int {
	if s == "" {
		return -1
	}

	// Scan forward so quotes are recognized the same way as when splitting.
	var (
		stack []int
		quote byte
	)

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			if strings.IndexByte(s[i+1:], c) >= 0 {
				quote = c
			}
		case c == '(' || c == '[' || c == '{':
			stack = append(stack, i)
		case c == ')' || c == ']' || c == '}':
			if len(stack) == 0 || closers[s[stack[len(stack)-1]]] != c {
				return -1
			}

			if i == len(s)-1 {
				return stack[len(stack)-1]
			}

			stack = stack[:len(stack)-1]
		}
	}

	return -1
}

// enclosed reports whether s is wrapped by open and its matching closer.
func enclosed(s string, open byte) bool {
	return len(s) >= 2 && s[0] == open && s[len(s)-1] == closers[open] &&
		matchOpen(s) == 0
}

// unquote returns the contents of s when it is a single quoted literal.
func unquote(s string) (string, bool) {
	if len(s) < 2 || (s[0] != '"' && s[0] != '\'') || s[len(s)-1] != s[0] {
		return "", false
	}

	inner := s[1 : len(s)-1]
	if strings.IndexByte(inner, s[0]) >= 0 {
		return "", false
	}

	return inner, true
}

// isDigits reports whether s is a non-empty run of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}

	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}

// isDecimal reports whether s is a decimal real number:
// [+-] digits [. digits] [e [+-] digits], with at least one digit before or
// after the point.
func isDecimal(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}

	digits := 0
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		digits++
	}

	if i < len(s) && s[i] == '.' {
		i++

		for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
			digits++
		}
	}

	if digits == 0 {
		return false
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}

		exp := 0
		for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
			exp++
		}

		if exp == 0 {
			return false
		}
	}

	return i == len(s)
}

// isIdentifier reports whether s is a valid variable or function name.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}

		return false
	}

	return true
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// replaceWords substitutes whole words outside quotes according to repl.
func replaceWords(s string, repl map[string]string) string {
	var (
		sb    strings.Builder
		quote byte
	)

	for i := 0; i < len(s); {
		c := s[i]

		if quote != 0 {
			if c == quote {
				quote = 0
			}

			sb.WriteByte(c)
			i++

			continue
		}

		if c == '"' || c == '\'' {
			if strings.IndexByte(s[i+1:], c) >= 0 {
				quote = c
			}

			sb.WriteByte(c)
			i++

			continue
		}

		r, size := utf8.DecodeRuneInString(s[i:])
		if !isIdentRune(r) {
			sb.WriteString(s[i : i+size])
			i += size

			continue
		}

		j := i
		for j < len(s) {
			r, size := utf8.DecodeRuneInString(s[j:])
			if !isIdentRune(r) {
				break
			}

			j += size
		}

		word := s[i:j]
		if sub, ok := repl[word]; ok {
			word = sub
		}

		sb.WriteString(word)
		i = j
	}

	return sb.String()
}
