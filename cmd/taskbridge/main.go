// Package main is the entry point for the taskbridge server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"taskbridge/internal/cli"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	code := cli.Execute(ctx, os.Args[1:], cli.Streams{
		In:  os.Stdin,
		Out: os.Stdout,
		Err: os.Stderr,
	}, cli.DefaultFactory)

	cancel()
	os.Exit(code)
}
