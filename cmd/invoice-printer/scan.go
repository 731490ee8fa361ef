package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/invoice-printer/internal/core"
	"github.com/mikey/invoice-printer/internal/metrics"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the mailbox once and print approved invoices",
		Args:  cobra.NoArgs,
		RunE:  runScan,
	}
	cmd.Flags().Bool("dry-run", false, "Classify and report without printing or saving the ledger")
	cmd.Flags().Int("concurrency", 0, "Maximum messages processed in parallel (0 = unbounded)")
	cmd.Flags().Duration("timeout", 0, "Abort the scan after this long (0 = config value)")
	return cmd
}

func runScan(cmd *cobra.Command, _ []string) error {
	container, err := buildContainer(cmd)
	if err != nil {
		return err
	}

	return container.Invoke(func(
		logger *zap.Logger,
		mailbox core.Mailbox,
		store core.LedgerStore,
		runner *core.ScanRunner,
		m *metrics.Metrics,
	) error {
		defer logger.Sync()
		defer closeAll(logger, mailbox, store)

		ctx := cmd.Context()
		report, err := runner.Run(ctx)
		if flushErr := m.Flush(ctx); flushErr != nil {
			logger.Warn("Failed to export metrics", zap.Error(flushErr))
		}
		if err != nil {
			return err
		}

		printReport(cmd.OutOrStdout(), report)
		return nil
	})
}

func printReport(w io.Writer, report *core.ScanReport) {
	fmt.Fprintf(w, "Scan %s finished in %v\n", report.ScanID, report.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Listed: %d (empty ids: %d)\n", report.Listed, report.EmptyIDs)

	outcomes := make([]string, 0, len(report.Outcomes))
	for o := range report.Outcomes {
		outcomes = append(outcomes, string(o))
	}
	sort.Strings(outcomes)
	for _, o := range outcomes {
		fmt.Fprintf(w, "  %-18s %d\n", o, report.Outcomes[core.Outcome(o)])
	}

	fmt.Fprintf(w, "Ledger: %d records, %d new", report.LedgerSize, report.Added)
	switch {
	case report.DryRun:
		fmt.Fprintln(w, " (dry run, not saved)")
	case report.Persisted:
		fmt.Fprintln(w, " (saved)")
	default:
		fmt.Fprintln(w)
	}
}
