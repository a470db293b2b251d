package repl

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/pebble/lang"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{
	"help", "vars", "funcs", "load", "edit", "reset", "clear", "quit",
}

// keywords are the statement and operator words offered in eval mode.
var keywords = []string{
	"is", "if", "until", "go", "in", "fnc", "out",
	"bigger", "smaller", "equal",
	"and", "or", "not", "true", "false",
}

// isWordRune reports whether r can be part of an identifier.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// wordBounds returns the identifier at the cursor position and its byte
// boundaries within input. The word is empty when the cursor is not touching
// an identifier.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(cursor, len(input))

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if !isWordRune(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if !isWordRune(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// inText reports whether offset falls inside a quoted text literal.
func inText(input string, offset int) bool {
	var quote rune

	for i, r := range input {
		if i >= offset {
			break
		}

		switch {
		case quote == 0 && (r == '"' || r == '\''):
			quote = r
		case r == quote:
			quote = 0
		}
	}

	return quote != 0
}

// evalCandidates returns the names offered for completion in eval mode:
// keywords, builtins, then the interpreter's functions and variables.
func evalCandidates(in *lang.Interpreter) []string {
	names := slices.Concat(keywords, lang.Builtins(), in.Funcs(), in.Vars())
	seen := make(map[string]bool, len(names))

	return slices.DeleteFunc(names, func(s string) bool {
		dup := seen[s]
		seen[s] = true

		return dup
	})
}

// computeMatches calculates the fuzzy match results for the word at the
// cursor. It returns the matches (ranked best-first) and the word boundaries.
// No matches are returned for an empty word or a word inside a text literal.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	wordStart, wordEnd int,
) {
	input := m.input.Value()
	cursor := m.input.Position()

	word, wordStart, wordEnd := wordBounds(input, cursor)
	if word == "" || inText(input, wordStart) {
		return nil, wordStart, wordEnd
	}

	candidates := ctrlCommands
	if m.mode == modeEval {
		candidates = evalCandidates(m.interp)
	}

	return fuzzy.Find(word, candidates), wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within the given terminal width. The selected candidate (when tabbing) uses
// the selected style.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	isFunc func(string) bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	ellipsis := hintStyle.Render("...")
	reserve := lipgloss.Width(sep) + lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx, isFunc)
		w := lipgloss.Width(rendered)

		if i > 0 {
			if i < len(matches)-1 && used+w+reserve > width {
				b.WriteString(sep + ellipsis)

				break
			}

			b.WriteString(sep)

			w += lipgloss.Width(sep)
		}

		b.WriteString(rendered)

		used += w
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted. Functions are displayed with a "()" suffix.
func renderCandidate(
	match fuzzy.Match,
	selected bool,
	isFunc func(string) bool,
) string {
	base, highlight := suggestionStyle, matchStyle
	if selected {
		base, highlight = selectedStyle, selectedMatchStyle
	}

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	if isFunc != nil && isFunc(match.Str) {
		b.WriteString(base.Render("()"))
	}

	return b.String()
}
