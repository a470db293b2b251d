// Package cli contains the command line interface for pebble.
//
// # Usage
//
//	pebble [flags] <path>          # run a program (default command)
//	pebble run [flags] <path>
//	pebble tree [--format yaml|json] [--indent N] <path>
//	pebble repl [--no-history]
//	pebble init [--force]
//
// A path of "-" reads the program from stdin. Files given with --source are
// run first, in order and without duplicates, in the same interpreter, so
// their functions and variables are available to the program or the
// interactive session.
//
// # Configuration
//
// Flag defaults are read from a YAML file in the user configuration
// directory, for example $XDG_CONFIG_HOME/pebble/config.yaml. Keys are flag
// names; nested mappings join their keys with a hyphen:
//
//	log:
//	  level: debug
//	  pretty: false
//	source:
//	  - lib.peb
//
// Command-line flags override the file. The init command writes the current
// flag values to it.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output
//
// Logs are written to stderr; program output goes to stdout.
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default:
//     ~/.cache/pebble/pprof)
package cli
