package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// paint colors a string. It returns s unchanged when color is unavailable.
type paint func(s string) string

// palette holds the colors of a pretty log record.
type palette struct {
	key, str, num, yes, no, dur, when, loc paint
	trace, debug, info, warn, err          paint
}

// newPalette selects colors for w. Output that is not a color terminal, or
// that NO_COLOR disables, gets plain text.
func newPalette(w io.Writer) palette {
	profile := lipgloss.NewRenderer(w).ColorProfile()

	fg := func(code string) paint {
		c := profile.Color(code)

		return func(s string) string { return profile.String(s).Foreground(c).String() }
	}

	return palette{
		key:   fg("8"),
		str:   fg("6"),
		num:   fg("3"),
		yes:   fg("2"),
		no:    fg("1"),
		dur:   fg("5"),
		when:  fg("4"),
		loc:   fg("5"),
		trace: fg("8"),
		debug: fg("4"),
		info:  fg("2"),
		warn:  fg("3"),
		err:   fg("1"),
	}
}

func (p palette) level(l slog.Level) paint {
	switch {
	case l >= slog.LevelError:
		return p.err
	case l >= slog.LevelWarn:
		return p.warn
	case l >= slog.LevelInfo:
		return p.info
	case l >= slog.LevelDebug:
		return p.debug
	default:
		return p.trace
	}
}

func (p palette) value(v slog.Value) paint {
	switch v.Kind() {
	case slog.KindInt64, slog.KindUint64, slog.KindFloat64:
		return p.num
	case slog.KindBool:
		if v.Bool() {
			return p.yes
		}

		return p.no
	case slog.KindDuration:
		return p.dur
	case slog.KindTime:
		return p.when
	default:
		return p.str
	}
}

// scoped is a set of attributes added with WithAttrs under the groups open
// at that time.
type scoped struct {
	groups []string
	attrs  []slog.Attr
}

// prettyHandler is the state shared by the pretty text and JSON handlers.
type prettyHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	colors palette
	groups []string
	scopes []scoped
}

func newPrettyHandler(w io.Writer, opts *slog.HandlerOptions) prettyHandler {
	return prettyHandler{opts: *opts, mu: &sync.Mutex{}, w: w, colors: newPalette(w)}
}

func (h prettyHandler) enabled(level slog.Level) bool {
	threshold := slog.LevelInfo
	if h.opts.Level != nil {
		threshold = h.opts.Level.Level()
	}

	return level >= threshold
}

func (h prettyHandler) withAttrs(attrs []slog.Attr) prettyHandler {
	if len(attrs) > 0 {
		h.scopes = append(h.scopes[:len(h.scopes):len(h.scopes)], scoped{groups: h.groups, attrs: attrs})
	}

	return h
}

func (h prettyHandler) withGroup(name string) prettyHandler {
	if name != "" {
		h.groups = append(h.groups[:len(h.groups):len(h.groups)], name)
	}

	return h
}

// replace resolves a and passes leaf attributes through ReplaceAttr.
func (h prettyHandler) replace(groups []string, a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if h.opts.ReplaceAttr != nil && a.Value.Kind() != slog.KindGroup {
		a = h.opts.ReplaceAttr(groups, a)
		a.Value = a.Value.Resolve()
	}

	return a
}

// builtins returns the time, level, source and message of r after
// ReplaceAttr. Attributes it removes are dropped.
func (h prettyHandler) builtins(r slog.Record) []slog.Attr {
	attrs := make([]slog.Attr, 0, 4)

	if !r.Time.IsZero() {
		attrs = append(attrs, slog.Time(slog.TimeKey, r.Time))
	}

	attrs = append(attrs, slog.Any(slog.LevelKey, r.Level))

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			attrs = append(attrs, slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", src.File, src.Line)))
		}
	}

	attrs = append(attrs, slog.String(slog.MessageKey, r.Message))

	out := attrs[:0]

	for _, a := range attrs {
		if a = h.replace(nil, a); a.Key != "" {
			out = append(out, a)
		}
	}

	return out
}

// each calls fn for every leaf of a, flattening groups. Empty groups are
// dropped and a group with an empty key is inlined.
func (h prettyHandler) each(groups []string, a slog.Attr, fn func([]string, slog.Attr)) {
	a = h.replace(groups, a)

	switch {
	case a.Value.Kind() == slog.KindGroup:
		if a.Key != "" {
			groups = append(groups[:len(groups):len(groups)], a.Key)
		}

		for _, ga := range a.Value.Group() {
			h.each(groups, ga, fn)
		}

	case a.Key != "":
		fn(groups, a)
	}
}

func (h prettyHandler) write(buf *bytes.Buffer) error {
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

// prettyTextHandler writes one line of unquoted key=value pairs per record,
// followed by the source location of any interpreter error it carries.
type prettyTextHandler struct{ prettyHandler }

func newPrettyTextHandler(w io.Writer, opts *slog.HandlerOptions) *prettyTextHandler {
	return &prettyTextHandler{newPrettyHandler(w, opts)}
}

func (h *prettyTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.enabled(level)
}

func (h *prettyTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyTextHandler{h.withAttrs(attrs)}
}

func (h *prettyTextHandler) WithGroup(name string) slog.Handler {
	return &prettyTextHandler{h.withGroup(name)}
}

func (h *prettyTextHandler) Handle(_ context.Context, r slog.Record) error {
	var (
		buf   bytes.Buffer
		diags []diagnostic
	)

	for _, a := range h.builtins(r) {
		color := h.colors.value(a.Value)
		if a.Key == slog.LevelKey {
			color = h.colors.level(r.Level)
		}

		h.writePair(&buf, a.Key, a.Value.String(), color)
	}

	for _, s := range h.scopes {
		for _, a := range s.attrs {
			h.writeAttr(&buf, s.groups, a, &diags)
		}
	}

	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&buf, h.groups, a, &diags)

		return true
	})

	for _, d := range diags {
		d.writeTo(&buf, h.colors)
	}

	return h.write(&buf)
}

func (h *prettyTextHandler) writeAttr(buf *bytes.Buffer, groups []string, a slog.Attr, diags *[]diagnostic) {
	if v := a.Value.Resolve(); v.Kind() == slog.KindGroup && a.Key != "" {
		if d, ok := diagnose(v); ok {
			h.writePair(buf, qualify(groups, a.Key), d.message, h.colors.err)

			for _, e := range d.extra {
				h.each(nil, e, func(g []string, e slog.Attr) {
					h.writePair(buf, qualify(g, e.Key), e.Value.String(), h.colors.value(e.Value))
				})
			}

			*diags = append(*diags, d)

			return
		}
	}

	h.each(groups, a, func(g []string, a slog.Attr) {
		h.writePair(buf, qualify(g, a.Key), a.Value.String(), h.colors.value(a.Value))
	})
}

func (h *prettyTextHandler) writePair(buf *bytes.Buffer, key, value string, color paint) {
	if buf.Len() > 0 {
		buf.WriteByte(' ')
	}

	buf.WriteString(h.colors.key(key))
	buf.WriteByte('=')
	buf.WriteString(color(value))
}

func qualify(groups []string, key string) string {
	if len(groups) == 0 {
		return key
	}

	return strings.Join(groups, ".") + "." + key
}

// prettyJSONHandler writes each record as an indented JSON object. Groups
// become nested objects.
type prettyJSONHandler struct{ prettyHandler }

func newPrettyJSONHandler(w io.Writer, opts *slog.HandlerOptions) *prettyJSONHandler {
	return &prettyJSONHandler{newPrettyHandler(w, opts)}
}

func (h *prettyJSONHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.enabled(level)
}

func (h *prettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyJSONHandler{h.withAttrs(attrs)}
}

func (h *prettyJSONHandler) WithGroup(name string) slog.Handler {
	return &prettyJSONHandler{h.withGroup(name)}
}

func (h *prettyJSONHandler) Handle(_ context.Context, r slog.Record) error {
	var root object

	set := func(groups []string, a slog.Attr) { root.set(groups, a) }

	for _, a := range h.builtins(r) {
		root.set(nil, a)
	}

	for _, s := range h.scopes {
		for _, a := range s.attrs {
			h.each(s.groups, a, set)
		}
	}

	r.Attrs(func(a slog.Attr) bool {
		h.each(h.groups, a, set)

		return true
	})

	var buf bytes.Buffer

	h.writeObject(&buf, &root, 0, r.Level)

	return h.write(&buf)
}

func (h *prettyJSONHandler) writeObject(buf *bytes.Buffer, o *object, depth int, level slog.Level) {
	indent := strings.Repeat("  ", depth)

	buf.WriteString("{\n")

	for i, f := range o.fields {
		if i > 0 {
			buf.WriteString(",\n")
		}

		buf.WriteString(indent + "  ")
		buf.WriteString(h.colors.key(jsonString(f.key)))
		buf.WriteString(": ")

		if f.child != nil {
			h.writeObject(buf, f.child, depth+1, level)

			continue
		}

		color := h.colors.value(f.value)
		if depth == 0 && f.key == slog.LevelKey {
			color = h.colors.level(level)
		}

		buf.WriteString(color(jsonValue(f.value)))
	}

	buf.WriteString("\n" + indent + "}")
}

// object is an ordered JSON object under construction.
type object struct {
	fields []field
}

type field struct {
	key   string
	value slog.Value
	child *object
}

// set stores a under the nested objects named by groups.
func (o *object) set(groups []string, a slog.Attr) {
	for _, g := range groups {
		o = o.child(g)
	}

	o.fields = append(o.fields, field{key: a.Key, value: a.Value})
}

func (o *object) child(key string) *object {
	for _, f := range o.fields {
		if f.key == key && f.child != nil {
			return f.child
		}
	}

	c := &object{}
	o.fields = append(o.fields, field{key: key, child: c})

	return c
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)

	return string(b)
}

// jsonValue encodes a leaf value. Values JSON cannot represent are written
// as strings.
func jsonValue(v slog.Value) string {
	var x any

	switch v.Kind() {
	case slog.KindDuration:
		x = v.Duration().String()
	case slog.KindTime:
		x = v.Time().Format(time.RFC3339Nano)
	case slog.KindAny:
		x = v.Any()
		if err, ok := x.(error); ok {
			x = err.Error()
		}
	default:
		x = v.Any()
	}

	b, err := json.Marshal(x)
	if err != nil {
		return jsonString(fmt.Sprint(x))
	}

	return string(b)
}
