package ledger

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteLedger is a SQLite implementation of the LedgerStore interface
type SQLiteLedger struct {
	sqlLedger
}

// NewSQLiteLedger opens (or creates) the ledger database at dbPath
func NewSQLiteLedger(dbPath string, logger *zap.Logger) (*SQLiteLedger, error) {
	db, err := sqlx.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS processed_attachments (
			attachment_id TEXT PRIMARY KEY,
			message_id TEXT NOT NULL DEFAULT '',
			subject TEXT NOT NULL DEFAULT '',
			sender TEXT NOT NULL DEFAULT '',
			file_name TEXT NOT NULL DEFAULT '',
			sent_at TEXT NOT NULL,
			recorded_at TEXT NOT NULL,
			page_range TEXT NOT NULL DEFAULT '',
			reason TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLiteLedger{sqlLedger{
		db:     db,
		logger: logger,
		selectAll: `
			SELECT attachment_id, message_id, subject, sender, file_name, sent_at, recorded_at, page_range, reason
			FROM processed_attachments
			ORDER BY rowid`,
		insert: `
			INSERT OR IGNORE INTO processed_attachments
				(attachment_id, message_id, subject, sender, file_name, sent_at, recorded_at, page_range, reason)
			VALUES
				(:attachment_id, :message_id, :subject, :sender, :file_name, :sent_at, :recorded_at, :page_range, :reason)`,
	}}, nil
}
