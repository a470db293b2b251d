package cli

import (
	"os"
	"testing"

	"github.com/ardnew/pebble/log"
)

func TestLogScan(t *testing.T) {
	t.Cleanup(func() { log.Config(log.WithDefaults(os.Stderr)) })

	tests := []struct {
		name   string
		args   []string
		level  log.Level
		format log.Format
		pretty bool
		caller bool
	}{
		{
			name:   "defaults",
			args:   []string{"run", "prog.peb"},
			level:  log.DefaultLevel,
			format: log.DefaultFormat,
			pretty: true,
		},
		{
			name:   "separate values",
			args:   []string{"--log-level", "trace", "run", "--log-format", "json", "prog.peb"},
			level:  log.LevelTrace,
			format: log.FormatJSON,
			pretty: true,
		},
		{
			name:   "assigned values",
			args:   []string{"--log-level=warn", "--log-format=text", "--log-caller"},
			level:  log.LevelWarn,
			format: log.FormatText,
			pretty: true,
			caller: true,
		},
		{
			name:   "negated booleans",
			args:   []string{"repl", "--no-log-pretty", "--log-caller=false"},
			level:  log.DefaultLevel,
			format: log.DefaultFormat,
		},
		{
			name:   "value not consumed from a flag",
			args:   []string{"--log-level", "--source", "lib.peb"},
			level:  log.DefaultLevel,
			format: log.DefaultFormat,
			pretty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log.Config(log.WithDefaults(os.Stderr))

			cfg := logConfig{Pretty: log.DefaultPretty}
			cfg.scan(tt.args)

			if got := log.Default().Level(); got != tt.level {
				t.Errorf("expected level %s, got %s", tt.level, got)
			}

			if got := log.Default().Format(); got != tt.format {
				t.Errorf("expected format %s, got %s", tt.format, got)
			}

			if cfg.Pretty != tt.pretty || cfg.Caller != tt.caller {
				t.Errorf("expected pretty=%v caller=%v, got pretty=%v caller=%v",
					tt.pretty, tt.caller, cfg.Pretty, cfg.Caller)
			}
		})
	}
}

func TestLogVars(t *testing.T) {
	var cfg logConfig

	vars := cfg.vars()

	want := map[string]string{
		"logLevel":      "info",
		"logLevelEnum":  "trace,debug,info,warn,error",
		"logFormat":     "text",
		"logFormatEnum": "text,json",
	}

	for k, w := range want {
		if vars[k] != w {
			t.Errorf("%s: expected %q, got %q", k, w, vars[k])
		}
	}
}
