// Command textcorpus builds a deduplicated plain-text corpus from a list of
// URLs, and inspects or merges the resulting dataset directories.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/textcorpus/internal/app"
)

// Exit codes.
const (
	exitOK       = 0
	exitError    = 1
	exitNoURLs   = 2
	exitCanceled = 130
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newCLI(os.Stdout).RunContext(ctx, os.Args)
	if err != nil {
		log.Error().Err(err).Msg("textcorpus failed")
	}
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, app.ErrNoURLs):
		return exitNoURLs
	case errors.Is(err, context.Canceled):
		return exitCanceled
	default:
		return exitError
	}
}
