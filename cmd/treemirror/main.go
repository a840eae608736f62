package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Exit codes
const (
	ExitSuccess        = 0
	ExitGeneralError   = 1
	ExitInvalidArgs    = 2
	ExitPartialFailure = 3
	ExitStorageError   = 5
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\n[treemirror] Received interrupt, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return execute(ctx, args, os.Stdout, os.Stderr)
}
