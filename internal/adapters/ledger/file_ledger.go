package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/mikey/invoice-printer/internal/core"
)

// FileLedger keeps the ledger as a JSON array in a single file
type FileLedger struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewFileLedger creates a new file ledger
func NewFileLedger(path string, logger *zap.Logger) *FileLedger {
	return &FileLedger{path: path, logger: logger}
}

// Load reads all records. A missing file is an empty ledger.
func (l *FileLedger) Load(ctx context.Context) ([]core.AttachmentRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		l.logger.Debug("Ledger file does not exist yet", zap.String("path", l.path))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger file: %w", err)
	}

	var records []core.AttachmentRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrLedgerCorrupt, l.path, err)
	}
	return records, nil
}

// Save replaces the file contents. The file is written to a temporary
// sibling first and renamed into place.
func (l *FileLedger) Save(ctx context.Context, records []core.AttachmentRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if records == nil {
		records = []core.AttachmentRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(l.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary ledger file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close ledger: %w", err)
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		return fmt.Errorf("failed to replace ledger file: %w", err)
	}

	l.logger.Debug("Ledger saved", zap.String("path", l.path), zap.Int("records", len(records)))
	return nil
}
