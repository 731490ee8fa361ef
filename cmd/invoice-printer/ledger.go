package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mikey/invoice-printer/internal/core"
	"github.com/mikey/invoice-printer/internal/utils"
)

func newLedgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the processed-attachment ledger",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List ledger records in the order they were recorded",
		Args:  cobra.NoArgs,
		RunE:  runLedgerList,
	}
	list.Flags().String("format", "table", "Output format (table, json, yaml)")
	cmd.AddCommand(list)
	return cmd
}

func runLedgerList(cmd *cobra.Command, _ []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}

	container, err := buildContainer(cmd)
	if err != nil {
		return err
	}

	return container.Invoke(func(logger *zap.Logger, store core.LedgerStore, text *utils.TextProcessor) error {
		defer logger.Sync()
		defer closeAll(logger, store)

		records, err := store.Load(cmd.Context())
		if err != nil {
			return err
		}

		return writeRecords(cmd.OutOrStdout(), format, records, text)
	})
}

// ledgerEntry is the YAML shape of a record
type ledgerEntry struct {
	AttachmentID string    `yaml:"attachment_id"`
	MessageID    string    `yaml:"message_id"`
	Subject      string    `yaml:"subject"`
	From         string    `yaml:"from"`
	FileName     string    `yaml:"file_name"`
	SentAt       time.Time `yaml:"sent_at"`
	RecordedAt   time.Time `yaml:"recorded_at"`
	PageRange    string    `yaml:"page_range,omitempty"`
	Reason       string    `yaml:"reason,omitempty"`
}

func writeRecords(out io.Writer, format string, records []core.AttachmentRecord, text *utils.TextProcessor) error {
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "yaml":
		entries := make([]ledgerEntry, 0, len(records))
		for _, rec := range records {
			entries = append(entries, ledgerEntry(rec))
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	case "table":
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RECORDED\tSENT\tFILE\tFROM\tDECISION")
	for _, rec := range records {
		decision := "print " + rec.PageRange
		if rec.PageRange == "" {
			decision = rec.Reason
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			rec.RecordedAt.Local().Format(time.DateTime),
			rec.SentAt.Local().Format(time.DateTime),
			text.TruncateText(rec.FileName, 40),
			text.TruncateText(rec.From, 40),
			decision)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d records\n", len(records))
	return nil
}
