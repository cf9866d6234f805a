// Package main provides the qplens CLI entry point.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/qplens/qplens/internal/adapters/driving/cli"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(Version)
	cli.SetBootstrap(bootstrap)

	// Cobra has already printed the error.
	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
