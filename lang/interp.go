package lang

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/xrash/smetrics"

	"github.com/ardnew/pebble/log"
)

// DefaultMaxDepth is the default limit on nested function calls.
// Users may modify this before calling [New] to change the default.
var DefaultMaxDepth = 1000

// Function is a user-defined function.
//
// The body is kept as raw lines and segmented only when the function is
// called.
type Function struct {
	Name   string
	Params []string
	Body   []Line
	Line   int
}

// Interpreter runs Pebble programs.
//
// Each Interpreter owns its variable environment and function registry, so
// independent instances never observe each other's state. An Interpreter is
// not safe for concurrent use.
type Interpreter struct {
	env      Env
	funcs    map[string]*Function
	in       *bufio.Reader
	out      io.Writer
	logger   log.Logger
	maxDepth int
}

// Option configures an [Interpreter].
type Option func(*Interpreter)

// WithInput sets the reader consumed by the inp builtin.
// The default is os.Stdin.
func WithInput(r io.Reader) Option {
	return func(in *Interpreter) {
		in.in = bufio.NewReader(r)
	}
}

// WithOutput sets the writer used by say and inp prompts.
// The default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(in *Interpreter) {
		in.out = w
	}
}

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(in *Interpreter) {
		in.logger = logger
	}
}

// WithMaxDepth sets the maximum depth of nested function calls.
func WithMaxDepth(depth int) Option {
	return func(in *Interpreter) {
		in.maxDepth = depth
	}
}

// New returns an Interpreter with an empty environment and registry.
func New(opts ...Option) *Interpreter {
	in := &Interpreter{
		env:      Env{},
		funcs:    map[string]*Function{},
		maxDepth: DefaultMaxDepth,
	}

	for _, opt := range opts {
		opt(in)
	}

	if in.in == nil {
		in.in = bufio.NewReader(os.Stdin)
	}

	if in.out == nil {
		in.out = os.Stdout
	}

	return in
}

// Run executes source as a program.
//
// Every top-level function definition is registered first, in order; the
// remaining top-level statements then run in order. Run returns the value of
// the last out executed at top level, or Null if there was none.
//
// Variables and functions persist in the Interpreter across calls to Run.
func (in *Interpreter) Run(ctx context.Context, source string) (Value, error) {
	blocks := Segment(SplitLines(source))

	in.logger.TraceContext(
		ctx,
		"program segmented",
		slog.Int("source_length", len(source)),
		slog.Int("block_count", len(blocks)),
	)

	f := &frame{ctx: ctx, interp: in, env: in.env}

	rest := make([]Block, 0, len(blocks))

	for _, b := range blocks {
		if !isDefinition(b.Header.Text) {
			rest = append(rest, b)

			continue
		}

		if err := in.define(ctx, b); err != nil {
			return Value{}, atLine(err, b.Header.No)
		}
	}

	v, ok, err := f.execBlocks(rest)
	if err != nil {
		return Value{}, err
	}

	if !ok {
		return Null(), nil
	}

	return v, nil
}

// RunReader reads all of r and executes it with [Interpreter.Run].
func (in *Interpreter) RunReader(ctx context.Context, r io.Reader) (Value, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return Value{}, ErrReadSource.Wrap(err)
	}

	return in.Run(ctx, string(src))
}

// Eval evaluates a single expression against the top-level environment.
func (in *Interpreter) Eval(ctx context.Context, expr string) (Value, error) {
	f := &frame{ctx: ctx, interp: in, env: in.env}

	return f.eval(expr)
}

// Var returns the top-level variable name.
func (in *Interpreter) Var(name string) (Value, bool) {
	v, ok := in.env[name]

	return v, ok
}

// Vars returns the names of all top-level variables, sorted.
func (in *Interpreter) Vars() []string {
	return slices.Sorted(maps.Keys(in.env))
}

// Func returns the registered function name.
func (in *Interpreter) Func(name string) (*Function, bool) {
	fn, ok := in.funcs[name]

	return fn, ok
}

// Funcs returns the names of all registered functions, sorted.
func (in *Interpreter) Funcs() []string {
	return slices.Sorted(maps.Keys(in.funcs))
}

// Builtins returns the names of the builtin functions, sorted.
func Builtins() []string {
	return slices.Sorted(maps.Keys(builtins))
}

// define registers the function declared by a fnc header and its body.
// A later definition of the same name replaces the earlier one.
func (in *Interpreter) define(ctx context.Context, b Block) error {
	fn, err := parseDefinition(b.Header.Text)
	if err != nil {
		return err
	}

	fn.Body = b.Body
	fn.Line = b.Header.No

	_, replaced := in.funcs[fn.Name]
	in.funcs[fn.Name] = fn

	in.logger.TraceContext(
		ctx,
		"function defined",
		log.Function(fn.Name),
		slog.Int("params", len(fn.Params)),
		slog.Bool("replaced", replaced),
	)

	return nil
}

// isDefinition reports whether header declares a function.
func isDefinition(header string) bool {
	return strings.HasPrefix(header, "fnc ")
}

// parseDefinition parses "fnc name(a, b):".
func parseDefinition(header string) (*Function, error) {
	decl := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(header, "fnc "), ":"))

	open := strings.IndexByte(decl, '(')
	if open < 0 || !strings.HasSuffix(decl, ")") {
		return nil, syntaxError(header, "function declaration needs a parameter list")
	}

	name := strings.TrimSpace(decl[:open])
	if !isIdentifier(name) {
		return nil, syntaxError(header, "invalid function name")
	}

	if _, ok := builtins[name]; ok {
		return nil, syntaxError(header, "cannot redefine builtin " + name)
	}

	fn := &Function{Name: name}

	for p := range strings.SplitSeq(decl[open+1:len(decl)-1], ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if !isIdentifier(p) {
			return nil, syntaxError(header, "invalid parameter name " + p)
		}

		fn.Params = append(fn.Params, p)
	}

	return fn, nil
}

// invoke calls fn with args in an isolated copy of the caller's environment.
func (f *frame) invoke(fn *Function, args []Value) (Value, error) {
	if len(args) != len(fn.Params) {
		return Value{}, ErrArity.With(
			log.Function(fn.Name),
			slog.Int("expected", len(fn.Params)),
			slog.Int("received", len(args)),
		)
	}

	if f.depth >= f.interp.maxDepth {
		return Value{}, ErrDepth.With(
			log.Function(fn.Name),
			slog.Int("depth", f.depth),
		)
	}

	env := maps.Clone(f.env)
	for i, p := range fn.Params {
		env[p] = args[i]
	}

	f.interp.logger.TraceContext(
		f.ctx,
		"call",
		log.Function(fn.Name),
		slog.Int("depth", f.depth+1),
	)

	callee := &frame{ctx: f.ctx, interp: f.interp, env: env, depth: f.depth + 1}

	v, ok, err := callee.execBlocks(Segment(fn.Body))
	if err != nil {
		return Value{}, err
	}

	if !ok {
		return Null(), nil
	}

	return v, nil
}

// Jaro-Winkler parameters for typo suggestions. A name scoring below
// minSimilarity is not offered.
const (
	boostThreshold = 0.7
	prefixSize     = 4
	minSimilarity  = 0.8
)

// suggest returns the known function name closest to name, if any.
//
// Names containing name as a subsequence are preferred. Otherwise the most
// similar name is chosen, which catches transposed and mistyped letters.
func (in *Interpreter) suggest(name string) string {
	names := append(in.Funcs(), Builtins()...)

	if matches := fuzzy.Find(name, names); len(matches) > 0 {
		return matches[0].Str
	}

	best, score := "", minSimilarity

	for _, n := range names {
		if s := smetrics.JaroWinkler(name, n, boostThreshold, prefixSize); s >= score {
			best, score = n, s
		}
	}

	return best
}

// input echoes prompt and reads one line.
func (in *Interpreter) input(prompt Value) (Value, error) {
	if s := prompt.String(); !prompt.IsNull() && s != "" {
		if _, err := io.WriteString(in.out, s); err != nil {
			return Value{}, ErrInput.Wrap(err)
		}
	}

	line, err := in.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return Value{}, ErrInput.Wrap(err)
	}

	return Text(strings.TrimRight(line, "\r\n")), nil
}

// output writes values on one line separated by single spaces.
func (in *Interpreter) output(values []Value) error {
	var sb strings.Builder

	for i, v := range values {
		if i > 0 {
			sb.WriteByte(' ')
		}

		sb.WriteString(v.String())
	}

	sb.WriteByte('\n')

	if _, err := io.WriteString(in.out, sb.String()); err != nil {
		return ErrOutput.Wrap(err)
	}

	return nil
}

type builtin func(f *frame, args []Value) (Value, error)

// builtins holds the fixed builtin functions. User functions may not reuse
// these names.
var builtins = map[string]builtin{
	"say": func(f *frame, args []Value) (Value, error) {
		return Null(), f.interp.output(args)
	},
	"inp": func(f *frame, args []Value) (Value, error) {
		switch len(args) {
		case 0:
			return f.interp.input(Null())
		case 1:
			return f.interp.input(args[0])
		default:
			return Value{}, ErrArity.With(
				log.Function("inp"),
				slog.Int("expected", 1),
				slog.Int("received", len(args)),
			)
		}
	},
}
