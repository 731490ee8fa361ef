package core

// LedgerView is the read side of the ledger used by pipelines during fan-out
type LedgerView interface {
	Lookup(attachmentID string) (AttachmentRecord, bool)
}

// Ledger is the in-memory processed-attachment ledger. It is not safe for
// concurrent writes: a scan only reads it while pipelines run and merges
// once they have all finished.
type Ledger struct {
	records map[string]AttachmentRecord
	order   []string
}

// NewLedger builds a ledger from stored records. If a key repeats, the first
// occurrence wins.
func NewLedger(records []AttachmentRecord) *Ledger {
	l := &Ledger{
		records: make(map[string]AttachmentRecord, len(records)),
		order:   make([]string, 0, len(records)),
	}
	l.Merge(records)
	return l
}

// Lookup returns the record stored for an attachment
func (l *Ledger) Lookup(attachmentID string) (AttachmentRecord, bool) {
	rec, ok := l.records[attachmentID]
	return rec, ok
}

// Len returns the number of distinct attachments in the ledger
func (l *Ledger) Len() int {
	return len(l.order)
}

// Merge adds records whose keys are not present yet and returns how many
// were added. Existing keys are never overwritten and records without a key
// are ignored.
func (l *Ledger) Merge(records []AttachmentRecord) int {
	added := 0
	for _, rec := range records {
		if rec.AttachmentID == "" {
			continue
		}
		if _, exists := l.records[rec.AttachmentID]; exists {
			continue
		}
		l.records[rec.AttachmentID] = rec
		l.order = append(l.order, rec.AttachmentID)
		added++
	}
	return added
}

// Records returns all records in insertion order
func (l *Ledger) Records() []AttachmentRecord {
	out := make([]AttachmentRecord, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.records[id])
	}
	return out
}
