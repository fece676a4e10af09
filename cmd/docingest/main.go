package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"docingest/internal/services"
)

// Exit codes. Per-file failures and interrupted runs still exit 0.
const (
	exitOK    = 0
	exitFatal = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCommand().ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
	}
	if code := exitCode(err); code != exitOK {
		stop()
		os.Exit(code)
	}
}

// exitCode maps a command error to the process status: fatal startup failures
// exit 1, anything else that stopped the command (bad flags, invalid
// configuration) exits 2.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case services.IsFatal(err):
		return exitFatal
	default:
		return exitUsage
	}
}
