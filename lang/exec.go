package lang

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/ardnew/pebble/log"
)

// signal is the out-of-band instruction a header yields to the block
// executor.
type signal uint8

const (
	signalNone signal = iota
	signalEnter
	signalRepeat
	signalForEach
)

// outcome is the result of executing one header.
type outcome struct {
	signal signal
	value  Value
	set    bool    // value is the block's new result
	cond   string  // signalRepeat
	name   string  // signalForEach
	seq    []Value // signalForEach
}

// comparisonWords are the condition keywords accepted by if and until.
var comparisonWords = map[string]string{
	"bigger":  ">",
	"smaller": "<",
	"equal":   "==",
}

// execBlocks runs blocks in order and returns the last result produced, if
// any. A result does not end the sequence: later statements still run.
func (f *frame) execBlocks(blocks []Block) (Value, bool, error) {
	var (
		result Value
		set    bool
	)

	for _, b := range blocks {
		out, err := f.exec(b)
		if err != nil {
			return Value{}, false, atLine(err, b.Header.No)
		}

		switch out.signal {
		case signalNone:
			if out.set {
				result, set = out.value, true
			}

		case signalEnter:
			v, ok, err := f.execBlocks(Segment(b.Body))
			if err != nil {
				return Value{}, false, err
			}

			if ok {
				result, set = v, true
			}

		case signalRepeat:
			for {
				done, err := f.condition(out.cond)
				if err != nil {
					return Value{}, false, atLine(err, b.Header.No)
				}

				if done {
					break
				}

				v, ok, err := f.execBlocks(Segment(b.Body))
				if err != nil {
					return Value{}, false, err
				}

				if ok {
					result, set = v, true
				}
			}

		case signalForEach:
			for _, elem := range out.seq {
				f.env[out.name] = elem

				v, ok, err := f.execBlocks(Segment(b.Body))
				if err != nil {
					return Value{}, false, err
				}

				if ok {
					result, set = v, true
				}
			}
		}
	}

	return result, set, nil
}

// exec classifies one header and performs its immediate action.
// The first matching form wins.
func (f *frame) exec(b Block) (outcome, error) {
	h := b.Header.Text

	f.interp.logger.TraceContext(
		f.ctx,
		"exec",
		log.Line(b.Header.No),
		slog.String("header", h),
		slog.Int("depth", f.depth),
	)

	switch {
	case strings.HasPrefix(h, "say "):
		values, err := f.evalAll(h[len("say "):])
		if err != nil {
			return outcome{}, err
		}

		return outcome{}, f.interp.output(values)

	case strings.HasPrefix(h, "inp[") && matchOpen(h) == len("inp"):
		_, err := f.eval(h)

		return outcome{}, err

	case strings.HasPrefix(h, "inp ") && strings.Contains(h, " is "):
		name, prompt, _ := strings.Cut(h[len("inp "):], " is ")

		name = strings.TrimSpace(name)
		if !isIdentifier(name) {
			return outcome{}, syntaxError(h, "invalid variable name")
		}

		p, err := f.eval(prompt)
		if err != nil {
			return outcome{}, err
		}

		v, err := f.interp.input(p)
		if err != nil {
			return outcome{}, err
		}

		f.env[name] = v

		return outcome{}, nil
	}

	if name, expr, ok := strings.Cut(h, " is "); ok && isIdentifier(strings.TrimSpace(name)) {
		v, err := f.eval(expr)
		if err != nil {
			return outcome{}, err
		}

		f.env[strings.TrimSpace(name)] = v

		return outcome{}, nil
	}

	switch {
	case isDefinition(h):
		return outcome{}, f.interp.define(f.ctx, b)

	case h == "out" || strings.HasPrefix(h, "out "):
		v, err := f.eval(h[len("out"):])
		if err != nil {
			return outcome{}, err
		}

		return outcome{value: v, set: true}, nil

	case strings.HasPrefix(h, "if ") && b.Opens():
		ok, err := f.condition(opening(h, "if "))
		if err != nil || !ok {
			return outcome{}, err
		}

		return outcome{signal: signalEnter}, nil

	case strings.HasPrefix(h, "until ") && b.Opens():
		return outcome{signal: signalRepeat, cond: opening(h, "until ")}, nil

	case strings.HasPrefix(h, "go ") && strings.Contains(h, " in ") && b.Opens():
		name, expr, _ := strings.Cut(opening(h, "go "), " in ")

		name = strings.TrimSpace(name)
		if !isIdentifier(name) {
			return outcome{}, syntaxError(h, "invalid loop variable")
		}

		v, err := f.eval(expr)
		if err != nil {
			return outcome{}, err
		}

		seq, ok := sequence(v)
		if !ok {
			return outcome{}, ErrIndex.With(
				slog.String("base", strings.TrimSpace(expr)),
			).Wrap(errors.New("cannot iterate " + v.Kind().String()))
		}

		return outcome{signal: signalForEach, name: name, seq: seq}, nil

	case strings.Contains(h, "(") && strings.HasSuffix(h, ")"):
		_, err := f.eval(h)

		return outcome{}, err
	}

	return outcome{}, ErrSyntax.With(log.Text(h))
}

// condition evaluates an if or until condition after keyword substitution.
func (f *frame) condition(cond string) (bool, error) {
	v, err := f.eval(replaceWords(cond, comparisonWords))
	if err != nil {
		return false, err
	}

	return v.Truthy(), nil
}

// opening returns the text of header between keyword and the trailing ':'.
func opening(header, keyword string) string {
	return strings.TrimSuffix(strings.TrimPrefix(header, keyword), ":")
}

func syntaxError(header, reason string) error {
	return ErrSyntax.With(log.Text(header)).Wrap(errors.New(reason))
}
