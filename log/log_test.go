package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestMakeDefaults(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf)

	if logger.Level() != DefaultLevel {
		t.Errorf("expected level %s, got %s", DefaultLevel, logger.Level())
	}

	if logger.Format() != DefaultFormat {
		t.Errorf("expected format %s, got %s", DefaultFormat, logger.Format())
	}

	if logger.caller != DefaultCaller || logger.pretty != DefaultPretty {
		t.Errorf("expected caller=%t pretty=%t, got caller=%t pretty=%t",
			DefaultCaller, DefaultPretty, logger.caller, logger.pretty)
	}
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		name  string
		level Level
		log   func(Logger)
		want  bool
	}{
		{"trace at trace", LevelTrace, func(l Logger) { l.TraceContext(t.Context(), "msg") }, true},
		{"trace at debug", LevelDebug, func(l Logger) { l.TraceContext(t.Context(), "msg") }, false},
		{"debug at debug", LevelDebug, func(l Logger) { l.DebugContext(t.Context(), "msg") }, true},
		{"debug at info", LevelInfo, func(l Logger) { l.DebugContext(t.Context(), "msg") }, false},
		{"info at info", LevelInfo, func(l Logger) { l.InfoContext(t.Context(), "msg") }, true},
		{"info at warn", LevelWarn, func(l Logger) { l.InfoContext(t.Context(), "msg") }, false},
		{"warn at warn", LevelWarn, func(l Logger) { l.WarnContext(t.Context(), "msg") }, true},
		{"warn at error", LevelError, func(l Logger) { l.WarnContext(t.Context(), "msg") }, false},
		{"error at error", LevelError, func(l Logger) { l.ErrorContext(t.Context(), "msg") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			tt.log(Make(&buf, WithLevel(tt.level)))

			if got := buf.Len() > 0; got != tt.want {
				t.Errorf("expected written=%t, got %t: %q", tt.want, got, buf.String())
			}
		})
	}
}

func TestTraceLevelName(t *testing.T) {
	for _, pretty := range []bool{true, false} {
		var buf bytes.Buffer

		Make(&buf, WithLevel(LevelTrace), WithPretty(pretty)).TraceContext(t.Context(), "step")

		if !strings.Contains(buf.String(), "level=TRACE") {
			t.Errorf("expected level=TRACE (pretty=%t), got %q", pretty, buf.String())
		}
	}
}

func TestCallerNamesCallSite(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		pretty bool
	}{
		{"text", FormatText, false},
		{"json", FormatJSON, false},
		{"pretty text", FormatText, true},
		{"pretty json", FormatJSON, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			logger := Make(&buf, WithCaller(true), WithFormat(tt.format), WithPretty(tt.pretty))
			logger.InfoContext(t.Context(), "here")

			if !strings.Contains(buf.String(), "log_test.go") {
				t.Errorf("expected source in log_test.go, got %q", buf.String())
			}
		})
	}
}

func TestCallerDisabled(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithPretty(false)).InfoContext(t.Context(), "here")

	if strings.Contains(buf.String(), slog.SourceKey+"=") {
		t.Errorf("expected no source, got %q", buf.String())
	}
}

func TestTimeLayoutInOutput(t *testing.T) {
	tests := []struct {
		layout string
		want   func(string) bool
	}{
		{"RFC3339", func(s string) bool { return strings.Contains(s, "time=") && strings.Contains(s, "T") }},
		{"none", func(s string) bool { return !strings.Contains(s, "time=") }},
		{"", func(s string) bool { return !strings.Contains(s, "time=") }},
	}

	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			var buf bytes.Buffer

			Make(&buf, WithTimeLayout(tt.layout), WithPretty(false)).InfoContext(t.Context(), "tick")

			if !tt.want(buf.String()) {
				t.Errorf("unexpected output for layout %q: %q", tt.layout, buf.String())
			}
		})
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithFormat(FormatJSON), WithPretty(false)).
		WarnContext(t.Context(), "slow", Function("fib"), Line(4))

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("expected JSON, got %q: %v", buf.String(), err)
	}

	if got[slog.MessageKey] != "slow" || got[KeyFunction] != "fib" || got[KeyLine] != float64(4) {
		t.Errorf("unexpected record %v", got)
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithPretty(false)).With(File("prog.peb"))
	logger.InfoContext(t.Context(), "loaded")

	if !strings.Contains(buf.String(), "file=prog.peb") {
		t.Errorf("expected file attribute, got %q", buf.String())
	}

	if logger.Level() != DefaultLevel {
		t.Errorf("expected With to keep the level, got %s", logger.Level())
	}
}

func TestWrap(t *testing.T) {
	var buf bytes.Buffer

	base := Make(&buf, WithPretty(false))
	quiet := base.Wrap(WithLevel(LevelError))

	quiet.WarnContext(t.Context(), "dropped")

	if buf.Len() > 0 {
		t.Errorf("expected wrapped logger to filter warnings, got %q", buf.String())
	}

	base.WarnContext(t.Context(), "kept")

	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("expected base logger unchanged, got %q", buf.String())
	}
}

func TestZeroLogger(t *testing.T) {
	var logger Logger

	// Logging through the zero value discards.
	logger.ErrorContext(t.Context(), "nothing")
	logger = logger.With(Line(1))

	if logger.Level() != DefaultLevel || logger.Format() != DefaultFormat {
		t.Errorf("expected defaults, got %s %s", logger.Level(), logger.Format())
	}

	var buf bytes.Buffer

	logger = logger.Wrap(WithOutput(&buf), WithPretty(false))
	logger.InfoContext(t.Context(), "now written")

	if !strings.Contains(buf.String(), "now written") {
		t.Errorf("expected wrapped zero logger to write, got %q", buf.String())
	}
}

func TestConcurrentLogging(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithTimeLayout("none"))

	var wg sync.WaitGroup

	for range 16 {
		wg.Go(func() {
			for range 10 {
				logger.InfoContext(t.Context(), "tick", Line(1))
			}
		})
	}

	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 160 {
		t.Fatalf("expected 160 lines, got %d", len(lines))
	}

	for _, line := range lines {
		if line != "level=INFO msg=tick line=1" {
			t.Fatalf("expected whole records, got %q", line)
		}
	}
}
