package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/invoice-printer/internal/adapters/mime"
	"github.com/mikey/invoice-printer/internal/core"
	"github.com/mikey/invoice-printer/internal/utils"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [file.eml]",
		Short: "Show how a single message would be handled (reads stdin without a file)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runClassify,
	}
}

func runClassify(cmd *cobra.Command, args []string) error {
	container, err := buildContainer(cmd)
	if err != nil {
		return err
	}

	return container.Invoke(func(logger *zap.Logger, classifier core.Classifier, text *utils.TextProcessor) error {
		defer logger.Sync()

		var r io.Reader = cmd.InOrStdin()
		name := "stdin"
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open input file: %w", err)
			}
			defer f.Close()
			r = f
			name = args[0]
		}

		parsed, err := mime.Parse(name, r)
		if err != nil {
			return fmt.Errorf("failed to parse message: %w", err)
		}
		return printClassification(cmd.OutOrStdout(), parsed.Raw, classifier, text)
	})
}

func printClassification(w io.Writer, raw *core.RawMessage, classifier core.Classifier, text *utils.TextProcessor) error {
	facts, ok := core.ExtractFacts(raw)

	fmt.Fprintf(w, "\n=== Message Summary ===\n")
	fmt.Fprintf(w, "From: %s\n", facts.From)
	fmt.Fprintf(w, "To: %s\n", facts.To)
	fmt.Fprintf(w, "Subject: %s\n", facts.Subject)
	if !facts.SentAt.IsZero() {
		fmt.Fprintf(w, "Sent: %s\n", facts.SentAt.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(w, "Attachment: %s\n", facts.AttachmentFileName)

	fmt.Fprintf(w, "\n=== Result ===\n")
	if !ok {
		fmt.Fprintf(w, "Outcome: %s (incomplete message facts)\n", core.OutcomeDropped)
		return nil
	}

	outcome := classifier.Classify(facts.Subject, facts.AttachmentFileName, facts.From, facts.To)
	if !outcome.Approved() {
		fmt.Fprintf(w, "Outcome: %s\nReason: %s\n", core.OutcomeSkipped, outcome.Reason)
		return nil
	}
	fmt.Fprintf(w, "Outcome: print\nPages: %s\nDocument: %s\n",
		outcome.PageRange, text.SpoolFileName(facts.SentAt, facts.AttachmentFileName))
	return nil
}
