// Package main is the entrypoint for the timekeeper daemon. It serves the
// countdown, stopwatch and alarm control API over HTTP and reports health
// over gRPC.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aelexs/timekeeper/internal/server"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx := context.Background()
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	return server.Run(ctx, server.Params{
		Name:    "timekeeperd",
		Version: version,
		Setup:   setup,
	}, server.Listeners{})
}
