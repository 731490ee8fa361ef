package ledger

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// MySQLLedger is a MySQL implementation of the LedgerStore interface
type MySQLLedger struct {
	sqlLedger
}

// NewMySQLLedger connects to the database and creates the table if needed
func NewMySQLLedger(dsn string, logger *zap.Logger) (*MySQLLedger, error) {
	db, err := sqlx.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS processed_attachments (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			attachment_id VARCHAR(512) NOT NULL,
			message_id VARCHAR(255) NOT NULL DEFAULT '',
			subject TEXT NOT NULL,
			sender VARCHAR(512) NOT NULL DEFAULT '',
			file_name VARCHAR(512) NOT NULL DEFAULT '',
			sent_at VARCHAR(64) NOT NULL,
			recorded_at VARCHAR(64) NOT NULL,
			page_range VARCHAR(64) NOT NULL DEFAULT '',
			reason VARCHAR(255) NOT NULL DEFAULT '',
			UNIQUE INDEX idx_attachment_id (attachment_id)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MySQLLedger{sqlLedger{
		db:     db,
		logger: logger,
		selectAll: `
			SELECT attachment_id, message_id, subject, sender, file_name, sent_at, recorded_at, page_range, reason
			FROM processed_attachments
			ORDER BY id`,
		insert: `
			INSERT IGNORE INTO processed_attachments
				(attachment_id, message_id, subject, sender, file_name, sent_at, recorded_at, page_range, reason)
			VALUES
				(:attachment_id, :message_id, :subject, :sender, :file_name, :sent_at, :recorded_at, :page_range, :reason)`,
	}}, nil
}
