package log

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"trace", LevelTrace},
		{" TRACE ", LevelTrace},
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"info+2", Level(slog.LevelInfo + 2)},
		{"", DefaultLevel},
		{"loud", DefaultLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"text", FormatText},
		{"JSON", FormatJSON},
		{" json ", FormatJSON},
		{"yaml", DefaultFormat},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseFormat(tt.in); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestLevelsAndFormats(t *testing.T) {
	if got, want := slices.Collect(Levels()), []string{"trace", "debug", "info", "warn", "error"}; !slices.Equal(got, want) {
		t.Errorf("expected levels %v, got %v", want, got)
	}

	if got, want := slices.Collect(Formats()), []string{"text", "json"}; !slices.Equal(got, want) {
		t.Errorf("expected formats %v, got %v", want, got)
	}

	// Every name parses back to itself.
	for name := range Levels() {
		if got := ParseLevel(name).String(); got != name {
			t.Errorf("expected level %q to round-trip, got %q", name, got)
		}
	}

	for name := range Formats() {
		if got := ParseFormat(name).String(); got != name {
			t.Errorf("expected format %q to round-trip, got %q", name, got)
		}
	}
}

func TestOptions(t *testing.T) {
	c := makeConfig(nil,
		WithLevel(LevelTrace),
		WithFormat(FormatJSON),
		WithCaller(true),
		WithPretty(false),
	)

	if c.output != io.Discard {
		t.Errorf("expected nil output to discard, got %T", c.output)
	}

	if c.level != LevelTrace || c.format != FormatJSON || !c.caller || c.pretty {
		t.Errorf("expected every option applied, got %+v", c)
	}

	d := apply(c, WithDefaults(io.Discard))
	if d.level != DefaultLevel || d.format != DefaultFormat || d.caller != DefaultCaller || d.pretty != DefaultPretty {
		t.Errorf("expected defaults restored, got %+v", d)
	}

	if c.level != LevelTrace {
		t.Error("expected options to leave the original config unchanged")
	}
}

func TestHandlerSelection(t *testing.T) {
	tests := []struct {
		format Format
		pretty bool
		want   string
	}{
		{FormatText, true, "*log.prettyTextHandler"},
		{FormatJSON, true, "*log.prettyJSONHandler"},
		{FormatText, false, "*slog.TextHandler"},
		{FormatJSON, false, "*slog.JSONHandler"},
		{Format(9), false, "slog.discardHandler"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			h := makeConfig(io.Discard, WithFormat(tt.format), WithPretty(tt.pretty)).handler()

			if got := fmt.Sprintf("%T", h); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestTimeLayout(t *testing.T) {
	now := time.Date(2026, 3, 14, 15, 9, 26, 535897932, time.UTC)

	tests := []struct {
		layout string
		want   string
	}{
		{"RFC3339", "2026-03-14T15:09:26Z"},
		{"rfc-3339-nano", "2026-03-14T15:09:26.535897932Z"},
		{"Kitchen", "3:09PM"},
		{"DateTime", "2026-03-14 15:09:26"},
		{"15:04:05.000", "15:09:26.535"},
		{"none", ""},
		{"", ""},
		{"  \t", ""},
	}

	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			c := WithTimeLayout(tt.layout)(config{})

			if got := c.formatTime(now); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestReplaceAttr(t *testing.T) {
	replace := makeConfig(io.Discard, WithTimeLayout("none")).handlerOptions().ReplaceAttr

	if a := replace(nil, slog.Time(slog.TimeKey, time.Now())); a.Key != "" {
		t.Errorf("expected time to be dropped, got %v", a)
	}

	if a := replace(nil, slog.Any(slog.LevelKey, slog.Level(LevelTrace))); a.Value.String() != "TRACE" {
		t.Errorf("expected TRACE, got %v", a.Value)
	}

	if a := replace([]string{"g"}, slog.Any(slog.LevelKey, slog.LevelWarn)); a.Value.String() != "WARN" {
		t.Errorf("expected grouped attribute untouched, got %v", a.Value)
	}
}

func BenchmarkFormatTime(b *testing.B) {
	c := WithTimeLayout("RFC3339Nano")(config{})
	now := time.Now()

	for b.Loop() {
		_ = c.formatTime(now)
	}
}
