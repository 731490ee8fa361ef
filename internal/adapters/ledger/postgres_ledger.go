package ledger

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// PostgresLedger is a PostgreSQL implementation of the LedgerStore interface
type PostgresLedger struct {
	sqlLedger
}

// NewPostgresLedger connects through the pgx driver and creates the table if needed
func NewPostgresLedger(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresLedger, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS processed_attachments (
			id BIGSERIAL PRIMARY KEY,
			attachment_id TEXT NOT NULL UNIQUE,
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

	return &PostgresLedger{sqlLedger{
		db:     db,
		logger: logger,
		selectAll: `
			SELECT attachment_id, message_id, subject, sender, file_name, sent_at, recorded_at, page_range, reason
			FROM processed_attachments
			ORDER BY id`,
		insert: `
			INSERT INTO processed_attachments
				(attachment_id, message_id, subject, sender, file_name, sent_at, recorded_at, page_range, reason)
			VALUES
				(:attachment_id, :message_id, :subject, :sender, :file_name, :sent_at, :recorded_at, :page_range, :reason)
			ON CONFLICT (attachment_id) DO NOTHING`,
	}}, nil
}
