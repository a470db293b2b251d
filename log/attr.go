package log

import "log/slog"

// Attribute keys shared by the interpreter and the CLI.
//
// Errors that carry a [KeyLine] attribute are rendered as source-located
// diagnostics by the pretty text handler.
const (
	KeyError    = "error"
	KeyCause    = "cause"
	KeyFile     = "file"
	KeyLine     = "line"
	KeyText     = "text"
	KeyFunction = "function"
)

// Line returns an attribute naming a 1-based program line number.
func Line(n int) slog.Attr { return slog.Int(KeyLine, n) }

// Text returns an attribute holding the program text an error refers to.
func Text(s string) slog.Attr { return slog.String(KeyText, s) }

// Function returns an attribute naming a Pebble function.
func Function(name string) slog.Attr { return slog.String(KeyFunction, name) }

// File returns an attribute naming a program file.
func File(path string) slog.Attr { return slog.String(KeyFile, path) }
