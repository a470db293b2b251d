package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/ardnew/pebble/cli/cmd/repl"
	"github.com/ardnew/pebble/log"
)

// Repl starts an interactive session.
type Repl struct {
	NoHistory bool `help:"Do not read or write the history file" name:"no-history"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	var cache string
	if ktx := kongContextFrom(ctx); ktx != nil && !r.NoHistory {
		cache = ktx.Model.Vars()[CacheIdentifier]
	}

	srcs := sourcesFrom(ctx)
	defer srcs.Close()

	var source io.Reader
	if !srcs.IsZero() {
		source = srcs.Reader()
	}

	log.DebugContext(
		ctx,
		"start interactive session",
		slog.Int("source_count", len(srcs)),
		slog.Bool("history", cache != ""),
	)

	return repl.Run(ctx, source, cache, log.Default())
}
