package ledger

import (
	"context"
	"sync"

	"github.com/mikey/invoice-printer/internal/core"
)

// MemoryLedger is an in-process ledger store. Its contents are lost on exit.
type MemoryLedger struct {
	records []core.AttachmentRecord
	mu      sync.RWMutex
}

// NewMemoryLedger creates a new in-memory ledger seeded with records
func NewMemoryLedger(records ...core.AttachmentRecord) *MemoryLedger {
	return &MemoryLedger{records: append([]core.AttachmentRecord(nil), records...)}
}

// Load returns a copy of the stored records
func (l *MemoryLedger) Load(ctx context.Context) ([]core.AttachmentRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return append([]core.AttachmentRecord(nil), l.records...), nil
}

// Save replaces the stored records
func (l *MemoryLedger) Save(ctx context.Context, records []core.AttachmentRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append([]core.AttachmentRecord(nil), records...)
	return nil
}
