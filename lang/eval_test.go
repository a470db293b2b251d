package lang

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// newTestInterpreter returns an Interpreter reading input and writing to the
// returned buffer, with vars bound at top level.
func newTestInterpreter(input string, vars map[string]Value) (*Interpreter, *bytes.Buffer) {
	var out bytes.Buffer

	in := New(WithInput(strings.NewReader(input)), WithOutput(&out))
	for k, v := range vars {
		in.env[k] = v
	}

	return in, &out
}

func TestEval(t *testing.T) {
	vars := map[string]Value{
		"x":  Int(5),
		"f":  Float(1.5),
		"s":  Text("abc"),
		"xs": List(Int(10), Int(20), Int(30)),
		"m": Map(map[Key]Value{
			TextKey("a"): Int(1),
			IntKey(2):    Text("two"),
		}),
		"ok": Bool(true),
	}

	tests := []struct {
		expr string
		want Value
	}{
		// literals
		{"", Null()},
		{"   ", Null()},
		{`"hello world"`, Text("hello world")},
		{`'single'`, Text("single")},
		{`"x + 1"`, Text("x + 1")},
		{"42", Int(42)},
		{"007", Int(7)},
		{"3.25", Float(3.25)},
		{"-2", Float(-2)},
		{"1e3", Float(1000)},
		{"99999999999999999999", Float(1e20)},
		{"true", Bool(true)},
		{"false", Bool(false)},
		{"null", Null()},
		{"x == null", Bool(false)},
		{"say() == null", Bool(true)},

		// containers
		{"{1, 2, 3}", List(Int(1), Int(2), Int(3))},
		{"{x, x + 1}", List(Int(5), Int(6))},
		{"{}", List()},
		{"[]", Map(nil)},
		{"[ ]", Map(nil)},
		{"[a: ]", Map(map[Key]Value{TextKey("a"): Null()})},
		{`{"a,b", {1, 2}}`, List(Text("a,b"), List(Int(1), Int(2)))},
		{
			`[ "k": {1,2} ]`,
			Map(map[Key]Value{TextKey("k"): List(Int(1), Int(2))}),
		},
		{
			`[a: x, 3: "three", 'q': f]`,
			Map(map[Key]Value{
				TextKey("a"): Int(5),
				IntKey(3):    Text("three"),
				TextKey("q"): Float(1.5),
			}),
		},

		// variables and indexing
		{"x", Int(5)},
		{" s ", Text("abc")},
		{"xs[0]", Int(10)},
		{"xs[-1]", Int(30)},
		{"xs[x - 4]", Int(20)},
		{`m["a"]`, Int(1)},
		{"m[2]", Text("two")},
		{"s[1]", Text("b")},
		{`"xyz"[2]`, Text("z")},
		{"{7, 8}[1]", Int(8)},
		{`[1: "one"][1]`, Text("one")},
		{"xs[0] + xs[1]", Int(30)},

		// builtins
		{"say()", Null()},

		// operators
		{"1 + 2 * 3", Int(7)},
		{"(1 + 2) * 3", Int(9)},
		{"(x)", Int(5)},
		{"x - 10", Int(-5)},
		{"7 / 2", Float(3.5)},
		{"6 / 3", Float(2)},
		{"2 ^ 10", Int(1024)},
		{"2 ^ 3 ^ 2", Int(512)},
		{"2 ^ -1", Float(0.5)},
		{"-x", Int(-5)},
		{"-2 ^ 2", Int(-4)},
		{"x + f", Float(6.5)},
		{`"ab" + "cd"`, Text("abcd")},
		{`s + "d"`, Text("abcd")},
		{"{1} + {2, 3}", List(Int(1), Int(2), Int(3))},
		{"x == 5", Bool(true)},
		{"x != 5", Bool(false)},
		{"x > 3", Bool(true)},
		{"x <= 4", Bool(false)},
		{"1 < 2 < 3", Bool(true)},
		{"3 > 2 > 1", Bool(true)},
		{"1 == 1.0", Bool(true)},
		{`"a" < "b"`, Bool(true)},
		{"xs == {10, 20, 30}", Bool(true)},
		{"not ok", Bool(false)},
		{"not not ok", Bool(true)},
		{"ok and x > 10", Bool(false)},
		{"x > 10 or ok", Bool(true)},
		{"true or false and false", Bool(true)},
		{"not x == 5", Bool(false)},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			in, _ := newTestInterpreter("", vars)

			got, err := in.Eval(t.Context(), tt.expr)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got.Kind() != tt.want.Kind() || !got.Equal(tt.want) {
				t.Errorf("expected %s (%s), got %s (%s)",
					tt.want.Literal(), tt.want.Kind(), got.Literal(), got.Kind())
			}
		})
	}
}

func TestEvalShortCircuit(t *testing.T) {
	in, _ := newTestInterpreter("", nil)

	// The right side would fail if it were evaluated.
	for _, expr := range []string{"false and missing(1)", "true or missing(1)"} {
		if _, err := in.Eval(t.Context(), expr); err != nil {
			t.Errorf("%s: unexpected error: %v", expr, err)
		}
	}
}

func TestEvalInput(t *testing.T) {
	in, out := newTestInterpreter("bob\r\nalice\n", map[string]Value{"q": Text("? ")})

	got, err := in.Eval(t.Context(), `inp["name: "]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !got.Equal(Text("bob")) {
		t.Errorf("expected bob, got %q", got)
	}

	got, err = in.Eval(t.Context(), "inp(q)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !got.Equal(Text("alice")) {
		t.Errorf("expected alice, got %q", got)
	}

	if out.String() != "name: ? " {
		t.Errorf("expected prompts to be echoed, got %q", out.String())
	}

	_, err = in.Eval(t.Context(), "inp()")
	if !errors.Is(err, ErrInput) {
		t.Errorf("expected ErrInput at end of input, got %v", err)
	}
}

func TestEvalInputWithoutNewline(t *testing.T) {
	in, _ := newTestInterpreter("last", nil)

	got, err := in.Eval(t.Context(), "inp()")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !got.Equal(Text("last")) {
		t.Errorf("expected last, got %q", got)
	}
}

func TestEvalErrors(t *testing.T) {
	vars := map[string]Value{
		"xs": List(Int(1)),
		"m":  Map(map[Key]Value{TextKey("a"): Int(1)}),
		"n":  Int(3),
	}

	tests := []struct {
		expr  string
		want  *Error
		attrs map[string]string
	}{
		{"xs[1]", ErrIndex, map[string]string{"base": "xs", "index": "1"}},
		{`xs["a"]`, ErrIndex, map[string]string{"base": "xs", "index": `"a"`}},
		{`m["b"]`, ErrIndex, map[string]string{"base": "m", "index": `"b"`}},
		{"m[1.5]", ErrIndex, map[string]string{"base": "m", "index": "1.5"}},
		{"n[0]", ErrIndex, map[string]string{"base": "n", "index": "0"}},
		{"missing[0]", ErrExpression, map[string]string{"text": "missing"}},
		{`["a" 1]`, ErrMalformedContainer, map[string]string{"item": `"a" 1`}},
		{"{[x]}", ErrMalformedContainer, map[string]string{"item": "x"}},
		{"[a: 1, ]", ErrMalformedContainer, map[string]string{"item": ""}},
		{"[, a: 1]", ErrMalformedContainer, map[string]string{"item": ""}},
		{"[a: 1,, b: 2]", ErrMalformedContainer, map[string]string{"item": ""}},
		{"nope(1)", ErrUnknownFunction, map[string]string{"function": "nope"}},
		{"sy(1)", ErrUnknownFunction, map[string]string{"function": "sy", "suggestion": "say"}},
		{"sya(1)", ErrUnknownFunction, map[string]string{"function": "sya", "suggestion": "say"}},
		{"ipn(1)", ErrUnknownFunction, map[string]string{"function": "ipn", "suggestion": "inp"}},
		{"inp(1, 2)", ErrArity, map[string]string{"function": "inp", "expected": "1", "received": "2"}},
		{"y + 1", ErrExpression, map[string]string{"text": "y + 1"}},
		{"1 / 0", ErrExpression, map[string]string{"text": "1 / 0"}},
		{`"a" < 1`, ErrExpression, map[string]string{"text": `"a" < 1`}},
		{"1 +", ErrExpression, map[string]string{"text": "1 +"}},
		{"(1 + 2", ErrExpression, map[string]string{"text": "(1 + 2"}},
		{"x y", ErrExpression, map[string]string{"text": "x y"}},
		{"@@@", ErrExpression, map[string]string{"text": "@@@"}},
		{"-{1}", ErrExpression, map[string]string{"text": "-{1}"}},
		{"1 + nope(2)", ErrUnknownFunction, map[string]string{"function": "nope"}},
		{"1 + xs[5]", ErrIndex, map[string]string{"base": "xs", "index": "5"}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			in, _ := newTestInterpreter("", vars)

			_, err := in.Eval(t.Context(), tt.expr)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}

			assertAttrs(t, err, tt.attrs)
		})
	}
}

// assertAttrs checks that err is an *Error carrying attrs.
func assertAttrs(t *testing.T, err error, attrs map[string]string) {
	t.Helper()

	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %T", err)
	}

	for k, want := range attrs {
		got, ok := e.Attr(k)
		if !ok {
			t.Errorf("missing attribute %q in %v", k, err)

			continue
		}

		if got.String() != want {
			t.Errorf("attribute %q: expected %q, got %q", k, want, got.String())
		}
	}
}
