package log

import (
	"bytes"
	"log/slog"
	"strconv"
	"strings"
)

// diagnostic is the source location of an interpreter error, recovered from
// the structured value the error logs itself as.
type diagnostic struct {
	message string      // messages of each nested error, outermost first
	file    string
	text    string
	line    int64
	extra   []slog.Attr // everything other than the location
}

// diagnose reports the diagnostic carried by the group value v. Errors log
// their message under [KeyError] and their cause under [KeyCause], ahead of
// their other attributes, so the walk reaches inner errors first and the
// first file, line and text it finds win. v describes a diagnostic only if
// some level names a line.
func diagnose(v slog.Value) (diagnostic, bool) {
	var (
		d    diagnostic
		msgs []string
	)

	d.walk(v, &msgs)
	d.message = strings.Join(msgs, ": ")

	return d, d.line > 0
}

func (d *diagnostic) walk(v slog.Value, msgs *[]string) {
	v = v.Resolve()

	if v.Kind() != slog.KindGroup {
		if s := v.String(); s != "" {
			*msgs = append(*msgs, s)
		}

		return
	}

	for _, a := range v.Group() {
		switch a.Key {
		case KeyError:
			*msgs = append(*msgs, a.Value.Resolve().String())
		case KeyCause:
			d.walk(a.Value, msgs)
		case KeyFile:
			if d.file == "" {
				d.file = a.Value.String()
			}
		case KeyLine:
			if n, ok := lineOf(a.Value.Resolve()); ok && d.line == 0 {
				d.line = n
			}
		case KeyText:
			if d.text == "" {
				d.text = a.Value.String()
			}
		default:
			d.extra = append(d.extra, a)
		}
	}
}

func lineOf(v slog.Value) (int64, bool) {
	switch v.Kind() {
	case slog.KindInt64:
		return v.Int64(), v.Int64() > 0
	case slog.KindUint64:
		return int64(v.Uint64()), v.Uint64() > 0
	case slog.KindString:
		n, err := strconv.ParseInt(v.String(), 10, 64)

		return n, err == nil && n > 0
	default:
		return 0, false
	}
}

// writeTo appends the location lines of d:
//
//	  --> prog.peb:3
//	   |  total / count
func (d diagnostic) writeTo(buf *bytes.Buffer, colors palette) {
	where := "line " + strconv.FormatInt(d.line, 10)
	if d.file != "" {
		where = d.file + ":" + strconv.FormatInt(d.line, 10)
	}

	buf.WriteString("\n  ")
	buf.WriteString(colors.key("-->"))
	buf.WriteByte(' ')
	buf.WriteString(colors.loc(where))

	if d.text != "" {
		buf.WriteString("\n   ")
		buf.WriteString(colors.key("|"))
		buf.WriteString("  ")
		buf.WriteString(d.text)
	}
}
