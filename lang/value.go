package lang

//go:generate go tool stringer --linecomment --type Kind --output kind_string.go

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a [Value].
type Kind uint8

const (
	KindNull  Kind = iota // null
	KindBool              // boolean
	KindInt               // integer
	KindFloat             // float
	KindText              // text
	KindList              // list
	KindMap               // map
)

// Value is a Pebble runtime value.
//
// The zero Value is Null. Values are immutable once constructed: the
// language has no operation that mutates a List or Map in place, so copies
// of a Value may share their backing storage.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	list []Value
	m    map[Key]Value
}

// Key is a Map key, either an Integer or a Text.
type Key struct {
	Int    int64
	Text   string
	IsText bool
}

// IntKey returns an Integer map key.
func IntKey(i int64) Key { return Key{Int: i} }

// TextKey returns a Text map key.
func TextKey(s string) Key { return Key{Text: s, IsText: true} }

// Value returns the key as a [Value].
func (k Key) Value() Value {
	if k.IsText {
		return Text(k.Text)
	}

	return Int(k.Int)
}

func compareKeys(a, b Key) int {
	switch {
	case a.IsText == b.IsText && a.IsText:
		return strings.Compare(a.Text, b.Text)
	case a.IsText == b.IsText:
		return cmp.Compare(a.Int, b.Int)
	case b.IsText:
		return -1
	default:
		return 1
	}
}

// Null returns the Null value.
func Null() Value { return Value{} }

// Bool returns a Boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an Integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a Float value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Text returns a Text value.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// List returns a List value holding elems in order.
func List(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}

	return Value{kind: KindList, list: elems}
}

// Map returns a Map value holding entries.
func Map(entries map[Key]Value) Value {
	if entries == nil {
		entries = map[Key]Value{}
	}

	return Value{kind: KindMap, m: entries}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the Boolean payload of v.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the Integer payload of v.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns the Float payload of v.
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

// AsText returns the Text payload of v.
func (v Value) AsText() (string, bool) { return v.s, v.kind == KindText }

// AsList returns the elements of a List value.
// The returned slice must not be modified.
func (v Value) AsList() ([]Value, bool) { return v.list, v.kind == KindList }

// AsMap returns the entries of a Map value.
// The returned map must not be modified.
func (v Value) AsMap() (map[Key]Value, bool) { return v.m, v.kind == KindMap }

// Len returns the number of elements of a List, entries of a Map, or bytes
// of a Text. It returns 0 for any other kind.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindMap:
		return len(v.m)
	case KindText:
		return len(v.s)
	default:
		return 0
	}
}

// Keys returns the keys of a Map value in display order: Integer keys
// ascending, then Text keys lexically.
func (v Value) Keys() []Key {
	if v.kind != KindMap {
		return nil
	}

	keys := make([]Key, 0, len(v.m))
	for k := range v.m {
		keys = append(keys, k)
	}

	slices.SortFunc(keys, compareKeys)

	return keys
}

// number returns the numeric payload of an Integer or Float.
func (v Value) number() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// Truthy reports whether v counts as true in a condition.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindText, KindList, KindMap:
		return v.Len() > 0
	default:
		return false
	}
}

// Equal reports whether v and w hold the same value.
// Integers and Floats compare numerically.
func (v Value) Equal(w Value) bool {
	if v.kind != w.kind {
		a, aok := v.number()
		b, bok := w.number()

		return aok && bok && a == b
	}

	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == w.b
	case KindInt:
		return v.i == w.i
	case KindFloat:
		return v.f == w.f
	case KindText:
		return v.s == w.s
	case KindList:
		return slices.EqualFunc(v.list, w.list, Value.Equal)
	case KindMap:
		if len(v.m) != len(w.m) {
			return false
		}

		for k, x := range v.m {
			y, ok := w.m[k]
			if !ok || !x.Equal(y) {
				return false
			}
		}

		return true
	default:
		return false
	}
}

// String returns the display form of v, as written by say.
// Text is rendered verbatim; every other kind uses its literal form.
func (v Value) String() string {
	if v.kind == KindText {
		return v.s
	}

	return v.Literal()
}

// Literal returns the source form of v. For values built only from
// literals, evaluating the result yields a value equal to v.
func (v Value) Literal() string {
	var sb strings.Builder

	v.writeLiteral(&sb)

	return sb.String()
}

func (v Value) writeLiteral(sb *strings.Builder) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")

	case KindBool:
		sb.WriteString(strconv.FormatBool(v.b))

	case KindInt:
		sb.WriteString(strconv.FormatInt(v.i, 10))

	case KindFloat:
		sb.WriteString(formatFloat(v.f))

	case KindText:
		quote := byte('"')
		if strings.IndexByte(v.s, '"') >= 0 {
			quote = '\''
		}

		sb.WriteByte(quote)
		sb.WriteString(v.s)
		sb.WriteByte(quote)

	case KindList:
		sb.WriteByte('{')

		for i, e := range v.list {
			if i > 0 {
				sb.WriteString(", ")
			}

			e.writeLiteral(sb)
		}

		sb.WriteByte('}')

	case KindMap:
		sb.WriteByte('[')

		for i, k := range v.Keys() {
			if i > 0 {
				sb.WriteString(", ")
			}

			k.Value().writeLiteral(sb)
			sb.WriteString(": ")
			v.m[k].writeLiteral(sb)
		}

		sb.WriteByte(']')
	}
}

// formatFloat renders f so that it never reads back as an Integer.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	case math.IsNaN(f):
		return "NaN"
	}

	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}

	return s
}
