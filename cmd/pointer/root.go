// Package cli implements the pointer command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pointerlabs/pointer/internal/app"
	"github.com/pointerlabs/pointer/internal/config"
	"github.com/pointerlabs/pointer/internal/events"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// SetupRootCmd builds the root command. The default action runs the
// assistant core in headless mode; the desktop shell calls into
// internal/app directly instead.
func SetupRootCmd(settings *config.Settings) *cobra.Command {
	root := &cobra.Command{
		Use:   "pointer",
		Short: "Pointer desktop assistant core",
		Long:  "Runs the Pointer core: the backend event bridge and the chat/memory relay.",
		Run: func(cmd *cobra.Command, args []string) {
			runCore(settings)
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("pointer %s\n", Version)
		},
	})

	return root
}

func runCore(settings *config.Settings) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("\nReceived signal: %v - shutting down...\n", sig)
		cancel()
	}()

	// Headless sink: events that would go to the webview get logged.
	sink := events.SinkFunc(func(name string, payload any) {
		slog.Info("event", "name", name, "payload", payload)
	})

	core := app.New(*settings, sink)

	if err := core.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
