package core

import (
	"context"
)

// Mailbox gives read access to the messages of a single mailbox
type Mailbox interface {
	// ListMessageIDs returns the ids of the current messages, one page only
	ListMessageIDs(ctx context.Context) ([]string, error)

	// GetMessage fetches headers and top-level parts of one message
	GetMessage(ctx context.Context, id string) (*RawMessage, error)

	// GetAttachment fetches the decoded bytes of an attachment.
	// An empty result without error means the provider had no data.
	GetAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error)
}

// Classifier decides whether an attachment should be printed
type Classifier interface {
	Classify(subject, fileName, from, to string) ClassificationOutcome
}

// Printer dispatches an approved document
type Printer interface {
	Print(ctx context.Context, job PrintJob) error
}

// LedgerStore persists the processed-attachment ledger
type LedgerStore interface {
	// Load returns the stored records in their stored order.
	// A store that does not exist yet yields no records and no error.
	Load(ctx context.Context) ([]AttachmentRecord, error)

	// Save replaces the stored contents with records
	Save(ctx context.Context, records []AttachmentRecord) error
}

// SuccessLog is the append-only log of dispatched documents
type SuccessLog interface {
	Append(ctx context.Context, status, message string) error
}

// ScanObserver receives pipeline outcomes and scan summaries
type ScanObserver interface {
	ObserveOutcome(outcome Outcome)
	ObserveScan(report *ScanReport, err error)
}
