package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"repo2pipe/internal/config"
	"repo2pipe/internal/console"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printer := console.New()
	cfg, err := config.Load()
	if err != nil {
		printer.Error("Failed to load configuration: %v", err)
		os.Exit(2)
	}
	code := exitCode(ctx, newRootCmd(cfg, printer), printer)
	stop()
	os.Exit(code)
}

// exitCode runs cmd and prints errors cobra and run have not reported, such
// as a missing argument or an unknown flag.
func exitCode(ctx context.Context, cmd *cobra.Command, printer *console.Printer) int {
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	if !errors.Is(err, errFailed) {
		printer.Error("%v", err)
		printer.Error("Run '%s --help' for usage.", cmd.CommandPath())
	}
	return 1
}
