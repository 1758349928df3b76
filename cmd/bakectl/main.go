package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bakehouse/internal/cli"
	applog "bakehouse/internal/log"
)

func main() {
	applog.SetOutput(os.Stderr)
	if err := applog.SetLevel(os.Getenv("LOG_LEVEL")); err != nil {
		fmt.Fprintf(os.Stderr, "bakectl: %v\n", err)
		os.Exit(cli.ExitCommandError)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "bakectl: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
