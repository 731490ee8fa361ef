package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/invoice-printer/internal/config"
	"github.com/mikey/invoice-printer/internal/core"
	"github.com/mikey/invoice-printer/internal/di"
)

var configPath string

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if core.IsAuthError(err) {
			fmt.Fprintln(os.Stderr, "hint: run `invoice-printer auth` (or `invoice-printer auth imap`) first")
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "invoice-printer",
		Short:         "Print PDF invoices arriving in a mailbox",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to config file")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", "json", "Log format (json, console)")
	flags.String("provider", "gmail", "Mailbox provider (gmail, imap, mbox)")

	rootCmd.AddCommand(
		newScanCmd(),
		newAuthCmd(),
		newLedgerCmd(),
		newClassifyCmd(),
	)
	return rootCmd
}

// buildContainer loads the configuration with the command's flags applied
func buildContainer(cmd *cobra.Command) (*dig.Container, error) {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, err
	}
	return di.BuildContainer(cmd.Context(), cfg)
}

// closeAll closes every argument that holds a connection or file
func closeAll(logger *zap.Logger, resources ...interface{}) {
	for _, r := range resources {
		if closer, ok := r.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				logger.Warn("Failed to close resource", zap.Error(err))
			}
		}
	}
}
