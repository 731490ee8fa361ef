package printer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mikey/invoice-printer/internal/core"
)

// SpoolPrinter writes approved documents into a directory that a print
// daemon or a human picks up from
type SpoolPrinter struct {
	dir    string
	logger *zap.Logger
}

// NewSpoolPrinter creates a new spool printer
func NewSpoolPrinter(dir string, logger *zap.Logger) *SpoolPrinter {
	return &SpoolPrinter{dir: dir, logger: logger}
}

// Print writes the document as <dir>/<DocumentName>
func (p *SpoolPrinter) Print(ctx context.Context, job core.PrintJob) error {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create spool directory: %w", err)
	}

	path := filepath.Join(p.dir, filepath.Base(job.DocumentName))
	if err := os.WriteFile(path, job.Document, 0o644); err != nil {
		return fmt.Errorf("failed to write spool file: %w", err)
	}

	p.logger.Debug("Document spooled",
		zap.String("path", path),
		zap.String("page_range", job.PageRange))
	return nil
}
