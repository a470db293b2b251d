package lang

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ardnew/pebble/log"
)

// Env is a variable environment mapping identifiers to values.
type Env map[string]Value

// frame is the evaluation context of one executing block: the variables it
// sees and the interpreter that owns the function registry and I/O.
type frame struct {
	ctx    context.Context
	interp *Interpreter
	env    Env
	depth  int
}

// eval resolves expression text to a value. The first matching rule wins.
func (f *frame) eval(text string) (Value, error) {
	s := strings.TrimSpace(text)

	if s == "" {
		return Null(), nil
	}

	if inner, ok := unquote(s); ok {
		return Text(inner), nil
	}

	if isDigits(s) {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(i), nil
		}
	}

	if isDecimal(s) {
		if x, err := strconv.ParseFloat(s, 64); err == nil {
			return Float(x), nil
		}
	}

	switch s {
	case "true":
		return Bool(true), nil
	case "false":
		return Bool(false), nil
	case "null":
		return Null(), nil
	}

	if enclosed(s, '{') {
		return f.list(s[1 : len(s)-1])
	}

	if enclosed(s, '[') {
		return f.mapping(s[1 : len(s)-1])
	}

	if v, ok := f.env[s]; ok {
		return v, nil
	}

	switch s[len(s)-1] {
	case ']':
		open := matchOpen(s)
		if open <= 0 {
			break
		}

		base := strings.TrimSpace(s[:open])

		if base == "inp" {
			prompt, err := f.eval(s[open+1 : len(s)-1])
			if err != nil {
				return Value{}, err
			}

			return f.interp.input(prompt)
		}

		// A base holding top-level operators is left to the operator
		// evaluator so that indexing binds tighter than arithmetic.
		if base != "" && !hasTopLevelOperator(base) {
			v, err := f.eval(base)
			if err != nil {
				return Value{}, err
			}

			return f.index(v, base, s[open+1:len(s)-1])
		}

	case ')':
		open := matchOpen(s)
		if open <= 0 {
			break
		}

		if name := strings.TrimSpace(s[:open]); isIdentifier(name) {
			return f.call(name, s[open+1:len(s)-1])
		}
	}

	return evalOperators(s, f)
}

// evalAll evaluates each top-level comma-separated item of text, left to
// right.
func (f *frame) evalAll(text string) ([]Value, error) {
	items := splitTopLevel(text, ',')
	values := make([]Value, 0, len(items))

	for _, item := range items {
		v, err := f.eval(item)
		if err != nil {
			return nil, err
		}

		values = append(values, v)
	}

	return values, nil
}

func (f *frame) list(inner string) (Value, error) {
	elems, err := f.evalAll(inner)
	if err != nil {
		return Value{}, err
	}

	return List(elems...), nil
}

func (f *frame) mapping(inner string) (Value, error) {
	if strings.TrimSpace(inner) == "" {
		return Map(nil), nil
	}

	items := splitItems(inner, ',')
	entries := make(map[Key]Value, len(items))

	for _, item := range items {
		colon := indexTopLevel(item, ':')
		if colon < 0 {
			return Value{}, ErrMalformedContainer.With(
				slog.String("item", item),
			).Wrap(errors.New("map entry has no ':'"))
		}

		v, err := f.eval(item[colon+1:])
		if err != nil {
			return Value{}, err
		}

		entries[parseKey(strings.TrimSpace(item[:colon]))] = v
	}

	return Map(entries), nil
}

// parseKey interprets the left side of a map entry. Keys are never
// evaluated: a bare word is its own Text key.
func parseKey(s string) Key {
	if inner, ok := unquote(s); ok {
		return TextKey(inner)
	}

	if isDigits(s) {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return IntKey(i)
		}
	}

	return TextKey(s)
}

// index applies container indexing to base.
func (f *frame) index(base Value, baseText, indexText string) (Value, error) {
	idx, err := f.eval(indexText)
	if err != nil {
		return Value{}, err
	}

	fail := func(format string, args ...any) error {
		return ErrIndex.With(
			slog.String("base", baseText),
			slog.String("index", strings.TrimSpace(indexText)),
		).Wrap(fmt.Errorf(format, args...))
	}

	switch base.Kind() {
	case KindList:
		i, ok := idx.AsInt()
		if !ok {
			return Value{}, fail("list index must be %s, got %s", KindInt, idx.Kind())
		}

		n := int64(len(base.list))
		if i < 0 {
			i += n
		}

		if i < 0 || i >= n {
			return Value{}, fail("index %d out of range [0:%d]", i, n)
		}

		return base.list[i], nil

	case KindMap:
		var key Key

		switch idx.Kind() {
		case KindInt:
			key = IntKey(idx.i)
		case KindText:
			key = TextKey(idx.s)
		default:
			return Value{}, fail("map key must be %s or %s, got %s", KindInt, KindText, idx.Kind())
		}

		v, ok := base.m[key]
		if !ok {
			return Value{}, fail("key %s not found", idx.Literal())
		}

		return v, nil

	case KindText:
		i, ok := idx.AsInt()
		if !ok {
			return Value{}, fail("text index must be %s, got %s", KindInt, idx.Kind())
		}

		chars := []rune(base.s)

		n := int64(len(chars))
		if i < 0 {
			i += n
		}

		if i < 0 || i >= n {
			return Value{}, fail("index %d out of range [0:%d]", i, n)
		}

		return Text(string(chars[i])), nil

	default:
		return Value{}, fail("cannot index %s", base.Kind())
	}
}

// call evaluates the arguments in argText and invokes the named user
// function or builtin.
func (f *frame) call(name, argText string) (Value, error) {
	args, err := f.evalAll(argText)
	if err != nil {
		return Value{}, err
	}

	if fn, ok := f.interp.funcs[name]; ok {
		return f.invoke(fn, args)
	}

	if b, ok := builtins[name]; ok {
		return b(f, args)
	}

	attrs := []slog.Attr{log.Function(name)}
	if s := f.interp.suggest(name); s != "" {
		attrs = append(attrs, slog.String("suggestion", s))
	}

	return Value{}, ErrUnknownFunction.With(attrs...)
}

// variable implements operands.
func (f *frame) variable(name string) (Value, bool) {
	v, ok := f.env[name]

	return v, ok
}

// evaluate implements operands.
func (f *frame) evaluate(text string) (Value, error) { return f.eval(text) }

// hasTopLevelOperator reports whether s contains whitespace or an operator
// character outside quotes and brackets.
func hasTopLevelOperator(s string) bool {
	var (
		depth int
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
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case depth == 0 && strings.IndexByte(" \t+-*/^=!<>", c) >= 0:
			return true
		}
	}

	return false
}

// sequence returns the elements a go loop iterates over.
func sequence(v Value) ([]Value, bool) {
	switch v.Kind() {
	case KindList:
		return v.list, true

	case KindMap:
		keys := v.Keys()
		elems := make([]Value, len(keys))

		for i, k := range keys {
			elems[i] = k.Value()
		}

		return elems, true

	case KindText:
		elems := make([]Value, 0, utf8.RuneCountInString(v.s))
		for _, r := range v.s {
			elems = append(elems, Text(string(r)))
		}

		return elems, true

	default:
		return nil, false
	}
}
