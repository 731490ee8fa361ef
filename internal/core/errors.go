package core

import (
	"errors"
	"fmt"
)

// ErrLedgerCorrupt is returned when a ledger store exists but cannot be decoded
var ErrLedgerCorrupt = errors.New("ledger is corrupt")

// AuthError indicates that no usable credential is available for a provider
type AuthError struct {
	Provider string
	Message  string
	Err      error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s auth error: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s auth error: %s", e.Provider, e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// MailboxError wraps a failed mailbox call. It always aborts the scan.
type MailboxError struct {
	Op        string
	MessageID string
	Err       error
}

func (e *MailboxError) Error() string {
	if e.MessageID != "" {
		return fmt.Sprintf("mailbox %s %s: %v", e.Op, e.MessageID, e.Err)
	}
	return fmt.Sprintf("mailbox %s: %v", e.Op, e.Err)
}

func (e *MailboxError) Unwrap() error {
	return e.Err
}

// IsMailboxError reports whether err (or any error in its chain) is a MailboxError.
func IsMailboxError(err error) bool {
	var mbErr *MailboxError
	return errors.As(err, &mbErr)
}

// PrintError wraps a failed dispatch of one document
type PrintError struct {
	DocumentName string
	Err          error
}

func (e *PrintError) Error() string {
	return fmt.Sprintf("print %s: %v", e.DocumentName, e.Err)
}

func (e *PrintError) Unwrap() error {
	return e.Err
}

// IsPrintError reports whether err (or any error in its chain) is a PrintError.
func IsPrintError(err error) bool {
	var printErr *PrintError
	return errors.As(err, &printErr)
}

// PartialPrintError is returned by a printer chain when some printers accepted
// the job and others failed. The document counts as printed.
type PartialPrintError struct {
	Accepted int
	Failed   int
	Err      error
}

func (e *PartialPrintError) Error() string {
	return fmt.Sprintf("%d of %d printers failed: %v", e.Failed, e.Accepted+e.Failed, e.Err)
}

func (e *PartialPrintError) Unwrap() error {
	return e.Err
}
