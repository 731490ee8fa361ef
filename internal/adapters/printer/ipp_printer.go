package printer

import (
	"bytes"
	"context"
	"fmt"

	"github.com/phin1x/go-ipp"
	"go.uber.org/zap"

	"github.com/mikey/invoice-printer/internal/core"
)

// IPPOptions configures the IPP printer
type IPPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
	Printer  string
}

// IPPPrinter submits Print-Job requests to an IPP server such as CUPS
type IPPPrinter struct {
	client  *ipp.IPPClient
	printer string
	logger  *zap.Logger
}

// NewIPPPrinter creates a new IPP printer
func NewIPPPrinter(opts IPPOptions, logger *zap.Logger) *IPPPrinter {
	if opts.Port == 0 {
		opts.Port = 631
	}
	return &IPPPrinter{
		client:  ipp.NewIPPClient(opts.Host, opts.Port, opts.Username, opts.Password, opts.UseTLS),
		printer: opts.Printer,
		logger:  logger,
	}
}

// Print submits the document as a PDF job
func (p *IPPPrinter) Print(ctx context.Context, job core.PrintJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := ipp.Document{
		Document: bytes.NewReader(job.Document),
		Size:     len(job.Document),
		Name:     job.DocumentName,
		MimeType: "application/pdf",
	}
	// TODO: send page-ranges once the client can encode rangeOfInteger values
	jobID, err := p.client.PrintJob(doc, p.printer, map[string]interface{}{
		"job-name": job.DocumentName,
	})
	if err != nil {
		return fmt.Errorf("IPP print job failed: %w", err)
	}

	p.logger.Info("IPP job submitted",
		zap.String("printer", p.printer),
		zap.Int("job_id", jobID),
		zap.String("page_range", job.PageRange))
	return nil
}
