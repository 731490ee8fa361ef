package core

import (
	"time"
)

// Header is a single decoded message header as delivered by the mailbox provider
type Header struct {
	Name  string
	Value string
}

// Part describes one top-level body part of a message
type Part struct {
	Filename     string
	MimeType     string
	AttachmentID string
}

// RawMessage is a provider-neutral view of one mailbox message.
// Headers and Parts keep the order the provider returned them in.
type RawMessage struct {
	ID      string
	Headers []Header
	Parts   []Part
}

// MessageFacts are the normalized fields pulled out of a RawMessage
type MessageFacts struct {
	MessageID          string
	Subject            string
	From               string
	To                 string
	SentAt             time.Time
	AttachmentFileName string
	AttachmentID       string
}

// Complete reports whether the facts are actionable
func (f MessageFacts) Complete() bool {
	return f.Subject != "" &&
		f.From != "" &&
		f.To != "" &&
		!f.SentAt.IsZero() &&
		f.AttachmentFileName != "" &&
		f.AttachmentID != ""
}

// ClassificationOutcome is the print decision for one attachment.
// Exactly one of PageRange and Reason is set.
type ClassificationOutcome struct {
	PageRange string
	Reason    string
}

// Approved reports whether the attachment should be printed
func (o ClassificationOutcome) Approved() bool {
	return o.PageRange != ""
}

// AttachmentRecord is a ledger entry, keyed by AttachmentID
type AttachmentRecord struct {
	AttachmentID string    `json:"attachment_id"`
	MessageID    string    `json:"message_id"`
	Subject      string    `json:"subject"`
	From         string    `json:"from"`
	FileName     string    `json:"file_name"`
	SentAt       time.Time `json:"sent_at"`
	RecordedAt   time.Time `json:"recorded_at"`
	PageRange    string    `json:"page_range,omitempty"`
	Reason       string    `json:"reason,omitempty"`
}

// PrintJob is handed to a Printer once an attachment is approved
type PrintJob struct {
	DocumentName string
	Document     []byte
	PageRange    string
	Subject      string
	From         string
}

// Outcome names the terminal state an attachment pipeline run ended in
type Outcome string

const (
	OutcomeDropped     Outcome = "dropped"
	OutcomeCached      Outcome = "already_processed"
	OutcomeSkipped     Outcome = "skipped"
	OutcomeNoData      Outcome = "error"
	OutcomeRecorded    Outcome = "recorded"
	OutcomePrintFailed Outcome = "print_failed"
	OutcomePartial     Outcome = "partially_printed"
)

// Result is what one pipeline run yields. Record is nil for dropped messages.
type Result struct {
	MessageID string
	Outcome   Outcome
	Record    *AttachmentRecord
}

// ScanReport summarizes a single scan
type ScanReport struct {
	ScanID     string
	StartedAt  time.Time
	Duration   time.Duration
	Listed     int
	EmptyIDs   int
	Outcomes   map[Outcome]int
	Added      int
	LedgerSize int
	Persisted  bool
	DryRun     bool
}
