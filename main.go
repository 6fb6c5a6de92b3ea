package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/stensonb/cloud-agent/cmd"
)

func main() {
	// Create context that cancels on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		cmd.Printer.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
