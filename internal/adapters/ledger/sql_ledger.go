package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/mikey/invoice-printer/internal/core"
)

const timeLayout = time.RFC3339Nano

type recordRow struct {
	AttachmentID string `db:"attachment_id"`
	MessageID    string `db:"message_id"`
	Subject      string `db:"subject"`
	Sender       string `db:"sender"`
	FileName     string `db:"file_name"`
	SentAt       string `db:"sent_at"`
	RecordedAt   string `db:"recorded_at"`
	PageRange    string `db:"page_range"`
	Reason       string `db:"reason"`
}

func toRow(r core.AttachmentRecord) recordRow {
	return recordRow{
		AttachmentID: r.AttachmentID,
		MessageID:    r.MessageID,
		Subject:      r.Subject,
		Sender:       r.From,
		FileName:     r.FileName,
		SentAt:       r.SentAt.UTC().Format(timeLayout),
		RecordedAt:   r.RecordedAt.UTC().Format(timeLayout),
		PageRange:    r.PageRange,
		Reason:       r.Reason,
	}
}

func (row recordRow) toRecord() (core.AttachmentRecord, error) {
	sentAt, err := time.Parse(timeLayout, row.SentAt)
	if err != nil {
		return core.AttachmentRecord{}, fmt.Errorf("%w: attachment %s: sent_at: %v", core.ErrLedgerCorrupt, row.AttachmentID, err)
	}
	recordedAt, err := time.Parse(timeLayout, row.RecordedAt)
	if err != nil {
		return core.AttachmentRecord{}, fmt.Errorf("%w: attachment %s: recorded_at: %v", core.ErrLedgerCorrupt, row.AttachmentID, err)
	}
	return core.AttachmentRecord{
		AttachmentID: row.AttachmentID,
		MessageID:    row.MessageID,
		Subject:      row.Subject,
		From:         row.Sender,
		FileName:     row.FileName,
		SentAt:       sentAt,
		RecordedAt:   recordedAt,
		PageRange:    row.PageRange,
		Reason:       row.Reason,
	}, nil
}

// sqlLedger holds what the SQLite and MySQL stores share. The dialects
// differ only in DDL, the insert-if-absent statement and row ordering.
type sqlLedger struct {
	db        *sqlx.DB
	logger    *zap.Logger
	selectAll string
	insert    string
}

// Load returns all rows in insertion order
func (l *sqlLedger) Load(ctx context.Context) ([]core.AttachmentRecord, error) {
	var rows []recordRow
	if err := l.db.SelectContext(ctx, &rows, l.selectAll); err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}

	records := make([]core.AttachmentRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Save inserts every record not stored yet in a single transaction.
// Stored rows are never rewritten.
func (l *sqlLedger) Save(ctx context.Context, records []core.AttachmentRecord) error {
	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin ledger transaction: %w", err)
	}
	defer tx.Rollback()

	var inserted int64
	for _, rec := range records {
		res, err := tx.NamedExecContext(ctx, l.insert, toRow(rec))
		if err != nil {
			return fmt.Errorf("failed to insert ledger record %s: %w", rec.AttachmentID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += n
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ledger: %w", err)
	}
	l.logger.Debug("Ledger saved", zap.Int("records", len(records)), zap.Int64("inserted", inserted))
	return nil
}

// Close closes the database connection
func (l *sqlLedger) Close() error {
	return l.db.Close()
}
