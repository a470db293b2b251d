// Package log is the structured logger of the pebble interpreter and CLI,
// built on [log/slog].
//
// A [Logger] is immutable: [Make] builds one from functional options and
// [Logger.Wrap] derives a reconfigured copy, so loggers can be shared across
// goroutines without locking. The package-level logger returned by [Default]
// writes to standard error and is reconfigured with [Config] as the CLI
// parses its --log-* flags.
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelTrace),
//		log.WithTimeLayout("kitchen"))
//
//	logger.TraceContext(ctx, "call", log.Function("fib"), log.Line(4))
//
// # Levels
//
// Below the four slog levels sits [LevelTrace], at which the interpreter
// reports every statement it executes and every function it calls. Level
// names, including "trace", are parsed with [ParseLevel].
//
// # Attributes
//
// [Line], [Text], [Function] and [File] build the attributes interpreter
// errors carry. An error value logged under any key, whose structured form
// (or that of one of its causes) names a [KeyLine], is a diagnostic: the
// pretty text format writes its message chain inline and its location
// below the record.
//
//	time=3:04PM level=ERROR msg=run failed error=could not evaluate expression: division by zero
//	  --> prog.peb:3
//	   |  total / count
//
// # Formats
//
// [FormatText] and [FormatJSON] select slog's text and JSON handlers. With
// [WithPretty], text values are left unquoted and JSON is indented, and both
// are colorized when writing to a color terminal that NO_COLOR does not
// disable.
package log
