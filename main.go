package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/pebble/cli"
	"github.com/ardnew/pebble/log"
)

func main() {
	err := cli.Run(context.Background(), os.Exit, os.Args[1:]...)
	if err != nil {
		// Interpreter errors log their source location as a diagnostic.
		log.Error("run failed", slog.Any(log.KeyError, err))
		os.Exit(1)
	}
}
