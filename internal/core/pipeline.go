package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikey/invoice-printer/internal/utils"
	"go.uber.org/zap"
)

const (
	// StatusOK is written to the success log for every dispatched document
	StatusOK = "OK"

	// NoAttachmentDataReason is recorded when an approved attachment has no bytes
	NoAttachmentDataReason = "ERROR: no attachment data"

	// partialPrintReason is recorded when only part of a printer chain accepted the job
	partialPrintReason = "PARTIAL: %d of %d printers failed"
)

// PipelineOptions configures an AttachmentPipeline
type PipelineOptions struct {
	// DryRun skips printer dispatch and the success log
	DryRun bool
	// Now is the clock used for RecordedAt; time.Now when nil
	Now func() time.Time
}

// AttachmentPipeline takes one message from extraction to a recorded outcome
type AttachmentPipeline struct {
	mailbox    Mailbox
	classifier Classifier
	printer    Printer
	journal    SuccessLog
	text       *utils.TextProcessor
	logger     *zap.Logger
	opts       PipelineOptions
}

// NewAttachmentPipeline creates a new attachment pipeline
func NewAttachmentPipeline(
	mailbox Mailbox,
	classifier Classifier,
	printer Printer,
	journal SuccessLog,
	text *utils.TextProcessor,
	logger *zap.Logger,
	opts PipelineOptions,
) *AttachmentPipeline {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &AttachmentPipeline{
		mailbox:    mailbox,
		classifier: classifier,
		printer:    printer,
		journal:    journal,
		text:       text,
		logger:     logger,
		opts:       opts,
	}
}

// Process runs one message through the pipeline. Mailbox failures are
// returned; print failures are logged and yield a result without a record.
// A job that part of a printer chain accepted is recorded with a PARTIAL reason.
func (p *AttachmentPipeline) Process(ctx context.Context, ledger LedgerView, messageID string) (Result, error) {
	result := Result{MessageID: messageID, Outcome: OutcomeDropped}

	raw, err := p.mailbox.GetMessage(ctx, messageID)
	if err != nil {
		return result, &MailboxError{Op: "get message", MessageID: messageID, Err: err}
	}

	facts, ok := ExtractFacts(raw)
	if !ok {
		p.logger.Debug("Dropping message with incomplete facts",
			zap.String("message_id", messageID),
			zap.Bool("has_attachment", facts.AttachmentID != ""))
		return result, nil
	}

	logger := p.logger.With(
		zap.String("message_id", messageID),
		zap.String("attachment", facts.AttachmentFileName),
		zap.String("subject", p.text.TruncateText(facts.Subject, 120)))

	if cached, ok := ledger.Lookup(facts.AttachmentID); ok {
		logger.Debug("Attachment already processed", zap.Time("recorded_at", cached.RecordedAt))
		result.Outcome = OutcomeCached
		result.Record = &cached
		return result, nil
	}

	outcome := p.classifier.Classify(facts.Subject, facts.AttachmentFileName, facts.From, facts.To)
	if !outcome.Approved() {
		logger.Info("Attachment skipped", zap.String("reason", outcome.Reason))
		result.Outcome = OutcomeSkipped
		result.Record = p.record(facts, outcome)
		return result, nil
	}

	data, err := p.mailbox.GetAttachment(ctx, messageID, facts.AttachmentID)
	if err != nil {
		return result, &MailboxError{Op: "get attachment", MessageID: messageID, Err: err}
	}
	if len(data) == 0 {
		logger.Warn("Attachment has no data")
		result.Outcome = OutcomeNoData
		result.Record = p.record(facts, ClassificationOutcome{Reason: NoAttachmentDataReason})
		return result, nil
	}

	docName := p.text.SpoolFileName(facts.SentAt, facts.AttachmentFileName)
	result.Outcome = OutcomeRecorded
	if p.opts.DryRun {
		logger.Info("Dry run, not printing",
			zap.String("document", docName),
			zap.String("page_range", outcome.PageRange))
	} else {
		if err := p.dispatch(ctx, docName, data, outcome, facts); err != nil {
			var partial *PartialPrintError
			if !errors.As(err, &partial) {
				logger.Error("Failed to print attachment", zap.Error(err))
				result.Outcome = OutcomePrintFailed
				return result, nil
			}
			logger.Warn("Attachment printed by part of the printer chain", zap.Error(err))
			result.Outcome = OutcomePartial
			outcome.Reason = fmt.Sprintf(partialPrintReason, partial.Failed, partial.Accepted+partial.Failed)
		} else {
			logger.Info("Attachment printed",
				zap.String("document", docName),
				zap.String("page_range", outcome.PageRange),
				zap.Int("size", len(data)))
		}

		if p.journal != nil {
			if err := p.journal.Append(ctx, StatusOK, docName); err != nil {
				logger.Warn("Failed to append success log entry", zap.Error(err))
			}
		}
	}

	result.Record = p.record(facts, outcome)
	return result, nil
}

func (p *AttachmentPipeline) dispatch(ctx context.Context, docName string, data []byte, outcome ClassificationOutcome, facts MessageFacts) error {
	err := p.printer.Print(ctx, PrintJob{
		DocumentName: docName,
		Document:     data,
		PageRange:    outcome.PageRange,
		Subject:      facts.Subject,
		From:         facts.From,
	})
	if err != nil {
		return &PrintError{DocumentName: docName, Err: err}
	}
	return nil
}

func (p *AttachmentPipeline) record(facts MessageFacts, outcome ClassificationOutcome) *AttachmentRecord {
	return &AttachmentRecord{
		AttachmentID: facts.AttachmentID,
		MessageID:    facts.MessageID,
		Subject:      facts.Subject,
		From:         facts.From,
		FileName:     facts.AttachmentFileName,
		SentAt:       facts.SentAt,
		RecordedAt:   p.opts.Now().UTC(),
		PageRange:    outcome.PageRange,
		Reason:       outcome.Reason,
	}
}
