package lang

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ardnew/pebble/log"
)

// This file implements the fallback evaluator for arithmetic, comparison and
// logical expressions. The grammar is fixed:
//
//	expr    → or
//	or      → and ("or" and)*
//	and     → not ("and" not)*
//	not     → "not" not | cmp
//	cmp     → sum (("=="|"!="|"<"|">"|"<="|">=") sum)*
//	sum     → term (("+"|"-") term)*
//	term    → unary (("*"|"/") unary)*
//	unary   → ("-"|"+") unary | power
//	power   → postfix ("^" unary)?
//	postfix → primary ("[" raw "]")*
//	primary → number | string | "true" | "false" | "null" | "(" expr ")"
//	        | ident "(" raw ")" | ident | "{" raw "}" | "[" raw "]"
//
// Raw segments are handed back to the expression evaluator through the
// operands interface, so calls, container literals and indexing behave the
// same inside an operator expression as they do on their own.

// operands resolves the leaves of an operator expression.
type operands interface {
	variable(name string) (Value, bool)
	call(name, args string) (Value, error)
	evaluate(text string) (Value, error)
	index(base Value, baseText, indexText string) (Value, error)
}

// delegated marks an error raised by an operand evaluation. It is passed
// through to the caller instead of being reported as an expression error.
type delegated struct{ err error }

func (d delegated) Error() string { return d.err.Error() }

func (d delegated) Unwrap() error { return d.err }

// evalOperators parses and evaluates src.
func evalOperators(src string, ops operands) (Value, error) {
	n, err := parseOperators(src)
	if err == nil {
		var v Value

		v, err = n.eval(ops)
		if err == nil {
			return v, nil
		}
	}

	var d delegated
	if errors.As(err, &d) {
		return Value{}, d.err
	}

	return Value{}, ErrExpression.With(log.Text(src)).Wrap(err)
}

// parseOperators parses src into an expression tree.
func parseOperators(src string) (node, error) {
	p := &opParser{src: src}

	err := p.advance()
	if err != nil {
		return nil, err
	}

	n, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if p.tok.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %q at column %d", p.tok.text, p.tok.pos+1)
	}

	return n, nil
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokLBracket
	tokLBrace
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

type opParser struct {
	src string
	pos int // offset just past tok
	tok token
}

func (p *opParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

// advance reads the next token into p.tok.
func (p *opParser) advance() error {
	p.skipSpace()

	start := p.pos
	if start >= len(p.src) {
		p.tok = token{kind: tokEOF, pos: start}

		return nil
	}

	c := p.src[start]

	switch {
	case c >= '0' && c <= '9' ||
		c == '.' && start+1 < len(p.src) && p.src[start+1] >= '0' && p.src[start+1] <= '9':
		return p.lexNumber(start)

	case c == '"' || c == '\'':
		end := strings.IndexByte(p.src[start+1:], c)
		if end < 0 {
			return fmt.Errorf("unterminated string at column %d", start+1)
		}

		p.pos = start + end + 2
		p.tok = token{kind: tokString, text: p.src[start+1 : start+end+1], pos: start}

		return nil

	case c == '(':
		p.pos++
		p.tok = token{kind: tokLParen, text: "(", pos: start}

		return nil

	case c == ')':
		p.pos++
		p.tok = token{kind: tokRParen, text: ")", pos: start}

		return nil

	case c == '[':
		p.pos++
		p.tok = token{kind: tokLBracket, text: "[", pos: start}

		return nil

	case c == '{':
		p.pos++
		p.tok = token{kind: tokLBrace, text: "{", pos: start}

		return nil
	}

	if r, _ := utf8.DecodeRuneInString(p.src[start:]); isIdentRune(r) {
		end := start
		for end < len(p.src) {
			r, size := utf8.DecodeRuneInString(p.src[end:])
			if !isIdentRune(r) {
				break
			}

			end += size
		}

		p.pos = end
		p.tok = token{kind: tokIdent, text: p.src[start:end], pos: start}

		return nil
	}

	for _, op := range []string{"==", "!=", "<=", ">=", "+", "-", "*", "/", "^", "<", ">"} {
		if strings.HasPrefix(p.src[start:], op) {
			p.pos = start + len(op)
			p.tok = token{kind: tokOp, text: op, pos: start}

			return nil
		}
	}

	return fmt.Errorf("unexpected character %q at column %d", c, start+1)
}

func (p *opParser) lexNumber(start int) error {
	end := start
	digits := func() {
		for end < len(p.src) && p.src[end] >= '0' && p.src[end] <= '9' {
			end++
		}
	}

	digits()

	if end < len(p.src) && p.src[end] == '.' {
		end++

		digits()
	}

	if end < len(p.src) && (p.src[end] == 'e' || p.src[end] == 'E') {
		exp := end + 1
		if exp < len(p.src) && (p.src[exp] == '+' || p.src[exp] == '-') {
			exp++
		}

		if exp < len(p.src) && p.src[exp] >= '0' && p.src[exp] <= '9' {
			end = exp

			digits()
		}
	}

	p.pos = end
	p.tok = token{kind: tokNumber, text: p.src[start:end], pos: start}

	return nil
}

// raw consumes the bracketed segment that starts at the current token and
// returns its text including the brackets.
func (p *opParser) raw() (string, error) {
	start := p.tok.pos

	end := balancedEnd(p.src, start)
	if end < 0 {
		return "", fmt.Errorf("unbalanced %q at column %d", p.src[start], start+1)
	}

	p.pos = end + 1

	return p.src[start : end+1], p.advance()
}

// balancedEnd returns the index of the bracket closing the one at start, or
// -1 when it is never closed.
func balancedEnd(s string, start int) int {
	var (
		stack []byte
		quote byte
	)

	for i := start; i < len(s); i++ {
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
			stack = append(stack, closers[c])
		case c == ')' || c == ']' || c == '}':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return -1
			}

			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}

	return -1
}

func (p *opParser) isWord(w string) bool {
	return p.tok.kind == tokIdent && p.tok.text == w
}

func (p *opParser) isOp(ops ...string) bool {
	if p.tok.kind != tokOp {
		return false
	}

	for _, op := range ops {
		if p.tok.text == op {
			return true
		}
	}

	return false
}

func (p *opParser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.isWord("or") {
		if err := p.advance(); err != nil {
			return nil, err
		}

		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}

		left = logicNode{and: false, l: left, r: right}
	}

	return left, nil
}

func (p *opParser) parseAnd() (node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	for p.isWord("and") {
		if err := p.advance(); err != nil {
			return nil, err
		}

		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}

		left = logicNode{and: true, l: left, r: right}
	}

	return left, nil
}

func (p *opParser) parseNot() (node, error) {
	if p.isWord("not") {
		if err := p.advance(); err != nil {
			return nil, err
		}

		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}

		return notNode{x: x}, nil
	}

	return p.parseCompare()
}

func (p *opParser) parseCompare() (node, error) {
	first, err := p.parseSum()
	if err != nil {
		return nil, err
	}

	c := compareNode{operands: []node{first}}

	for p.isOp("==", "!=", "<", ">", "<=", ">=") {
		c.ops = append(c.ops, p.tok.text)

		if err := p.advance(); err != nil {
			return nil, err
		}

		next, err := p.parseSum()
		if err != nil {
			return nil, err
		}

		c.operands = append(c.operands, next)
	}

	if len(c.ops) == 0 {
		return first, nil
	}

	return c, nil
}

func (p *opParser) parseSum() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	for p.isOp("+", "-") {
		op := p.tok.text

		if err := p.advance(); err != nil {
			return nil, err
		}

		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}

		left = binaryNode{op: op, l: left, r: right}
	}

	return left, nil
}

func (p *opParser) parseTerm() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for p.isOp("*", "/") {
		op := p.tok.text

		if err := p.advance(); err != nil {
			return nil, err
		}

		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		left = binaryNode{op: op, l: left, r: right}
	}

	return left, nil
}

func (p *opParser) parseUnary() (node, error) {
	if p.isOp("-", "+") {
		op := p.tok.text

		if err := p.advance(); err != nil {
			return nil, err
		}

		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		return unaryNode{op: op, x: x}, nil
	}

	return p.parsePower()
}

func (p *opParser) parsePower() (node, error) {
	base, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}

	if !p.isOp("^") {
		return base, nil
	}

	if err := p.advance(); err != nil {
		return nil, err
	}

	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	return binaryNode{op: "^", l: base, r: exp}, nil
}

func (p *opParser) parsePostfix() (node, error) {
	start := p.tok.pos

	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for p.tok.kind == tokLBracket {
		baseText := strings.TrimSpace(p.src[start:p.tok.pos])

		seg, err := p.raw()
		if err != nil {
			return nil, err
		}

		n = indexNode{base: n, baseText: baseText, index: seg[1 : len(seg)-1]}
	}

	return n, nil
}

func (p *opParser) parsePrimary() (node, error) {
	tok := p.tok

	switch tok.kind {
	case tokNumber:
		v, err := parseNumber(tok.text)
		if err != nil {
			return nil, err
		}

		return literalNode{v: v}, p.advance()

	case tokString:
		return literalNode{v: Text(tok.text)}, p.advance()

	case tokIdent:
		switch tok.text {
		case "true", "false":
			return literalNode{v: Bool(tok.text == "true")}, p.advance()
		case "null":
			return literalNode{v: Null()}, p.advance()
		case "and", "or", "not":
			return nil, fmt.Errorf("unexpected %q at column %d", tok.text, tok.pos+1)
		}

		p.skipSpace()

		if p.pos < len(p.src) && p.src[p.pos] == '(' {
			p.tok = token{kind: tokLParen, text: "(", pos: p.pos}

			seg, err := p.raw()
			if err != nil {
				return nil, err
			}

			return callNode{name: tok.text, args: seg[1 : len(seg)-1]}, nil
		}

		return variableNode{name: tok.text}, p.advance()

	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}

		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}

		if p.tok.kind != tokRParen {
			return nil, fmt.Errorf("expected ')' at column %d", p.tok.pos+1)
		}

		return n, p.advance()

	case tokLBracket, tokLBrace:
		seg, err := p.raw()
		if err != nil {
			return nil, err
		}

		return rawNode{text: seg}, nil

	case tokEOF:
		return nil, errors.New("unexpected end of expression")

	default:
		return nil, fmt.Errorf("unexpected %q at column %d", tok.text, tok.pos+1)
	}
}

// parseNumber converts a numeric token. Digit runs that overflow an Integer
// become Floats.
func parseNumber(s string) (Value, error) {
	if isDigits(s) {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(i), nil
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, fmt.Errorf("invalid number %q", s)
	}

	return Float(f), nil
}

// node is an operator expression tree node.
type node interface {
	eval(ops operands) (Value, error)
}

type literalNode struct{ v Value }

func (n literalNode) eval(operands) (Value, error) { return n.v, nil }

type variableNode struct{ name string }

func (n variableNode) eval(ops operands) (Value, error) {
	v, ok := ops.variable(n.name)
	if !ok {
		return Value{}, fmt.Errorf("undefined variable %q", n.name)
	}

	return v, nil
}

type callNode struct{ name, args string }

func (n callNode) eval(ops operands) (Value, error) {
	v, err := ops.call(n.name, n.args)
	if err != nil {
		return Value{}, delegated{err}
	}

	return v, nil
}

type rawNode struct{ text string }

func (n rawNode) eval(ops operands) (Value, error) {
	v, err := ops.evaluate(n.text)
	if err != nil {
		return Value{}, delegated{err}
	}

	return v, nil
}

type indexNode struct {
	base     node
	baseText string
	index    string
}

func (n indexNode) eval(ops operands) (Value, error) {
	base, err := n.base.eval(ops)
	if err != nil {
		return Value{}, err
	}

	v, err := ops.index(base, n.baseText, n.index)
	if err != nil {
		return Value{}, delegated{err}
	}

	return v, nil
}

type unaryNode struct {
	op string
	x  node
}

func (n unaryNode) eval(ops operands) (Value, error) {
	x, err := n.x.eval(ops)
	if err != nil {
		return Value{}, err
	}

	switch x.Kind() {
	case KindInt:
		if n.op == "-" {
			if x.i == math.MinInt64 {
				return Float(-float64(x.i)), nil
			}

			return Int(-x.i), nil
		}

		return x, nil

	case KindFloat:
		if n.op == "-" {
			return Float(-x.f), nil
		}

		return x, nil

	default:
		return Value{}, fmt.Errorf("unary %s on %s", n.op, x.Kind())
	}
}

type notNode struct{ x node }

func (n notNode) eval(ops operands) (Value, error) {
	x, err := n.x.eval(ops)
	if err != nil {
		return Value{}, err
	}

	return Bool(!x.Truthy()), nil
}

type logicNode struct {
	and  bool
	l, r node
}

func (n logicNode) eval(ops operands) (Value, error) {
	l, err := n.l.eval(ops)
	if err != nil {
		return Value{}, err
	}

	// Short-circuit: the right side is not evaluated when l decides.
	if l.Truthy() != n.and {
		return Bool(l.Truthy()), nil
	}

	r, err := n.r.eval(ops)
	if err != nil {
		return Value{}, err
	}

	return Bool(r.Truthy()), nil
}

type compareNode struct {
	ops      []string
	operands []node
}

func (n compareNode) eval(ops operands) (Value, error) {
	left, err := n.operands[0].eval(ops)
	if err != nil {
		return Value{}, err
	}

	for i, op := range n.ops {
		right, err := n.operands[i+1].eval(ops)
		if err != nil {
			return Value{}, err
		}

		ok, err := compare(op, left, right)
		if err != nil {
			return Value{}, err
		}

		if !ok {
			return Bool(false), nil
		}

		left = right
	}

	return Bool(true), nil
}

func compare(op string, a, b Value) (bool, error) {
	switch op {
	case "==":
		return a.Equal(b), nil
	case "!=":
		return !a.Equal(b), nil
	}

	var c int

	x, xok := a.number()
	y, yok := b.number()

	switch {
	case xok && yok:
		switch {
		case x < y:
			c = -1
		case x > y:
			c = 1
		}

	case a.Kind() == KindText && b.Kind() == KindText:
		c = strings.Compare(a.s, b.s)

	default:
		return false, fmt.Errorf("cannot compare %s %s %s", a.Kind(), op, b.Kind())
	}

	switch op {
	case "<":
		return c < 0, nil
	case ">":
		return c > 0, nil
	case "<=":
		return c <= 0, nil
	default:
		return c >= 0, nil
	}
}

type binaryNode struct {
	op   string
	l, r node
}

func (n binaryNode) eval(ops operands) (Value, error) {
	l, err := n.l.eval(ops)
	if err != nil {
		return Value{}, err
	}

	r, err := n.r.eval(ops)
	if err != nil {
		return Value{}, err
	}

	return arithmetic(n.op, l, r)
}

func arithmetic(op string, a, b Value) (Value, error) {
	if op == "+" {
		switch {
		case a.Kind() == KindText && b.Kind() == KindText:
			return Text(a.s + b.s), nil
		case a.Kind() == KindList && b.Kind() == KindList:
			return List(append(append(make([]Value, 0, a.Len()+b.Len()), a.list...), b.list...)...), nil
		}
	}

	if a.Kind() == KindInt && b.Kind() == KindInt {
		x, y := a.i, b.i

		// An Integer result that does not fit in int64 is computed as a
		// Float below instead of wrapping.
		switch op {
		case "+":
			if z, ok := addInt(x, y); ok {
				return Int(z), nil
			}
		case "-":
			if z, ok := subInt(x, y); ok {
				return Int(z), nil
			}
		case "*":
			if z, ok := mulInt(x, y); ok {
				return Int(z), nil
			}
		case "^":
			if y >= 0 {
				if z, ok := ipow(x, y); ok {
					return Int(z), nil
				}
			}
		}
	}

	x, xok := a.number()
	y, yok := b.number()

	if !xok || !yok {
		return Value{}, fmt.Errorf("unsupported operands %s %s %s", a.Kind(), op, b.Kind())
	}

	switch op {
	case "+":
		return Float(x + y), nil
	case "-":
		return Float(x - y), nil
	case "*":
		return Float(x * y), nil
	case "/":
		if y == 0 {
			return Value{}, errors.New("division by zero")
		}

		return Float(x / y), nil
	default:
		return Float(math.Pow(x, y)), nil
	}
}

// ipow computes x**y for y >= 0 by repeated squaring. It reports false if
// the result overflows int64.
func ipow(x, y int64) (int64, bool) {
	result := int64(1)

	for {
		if y&1 == 1 {
			r, ok := mulInt(result, x)
			if !ok {
				return 0, false
			}

			result = r
		}

		y >>= 1
		if y == 0 {
			return result, true
		}

		sq, ok := mulInt(x, x)
		if !ok {
			return 0, false
		}

		x = sq
	}
}

func addInt(x, y int64) (int64, bool) {
	z := x + y

	return z, (z > x) == (y > 0)
}

func subInt(x, y int64) (int64, bool) {
	z := x - y

	return z, (z < x) == (y > 0)
}

func mulInt(x, y int64) (int64, bool) {
	if x == 0 || y == 0 {
		return 0, true
	}

	z := x * y
	if (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
		return 0, false
	}

	return z, z/y == x
}
