package printer

import (
	"context"
	"errors"

	"github.com/mikey/invoice-printer/internal/core"
)

// MultiPrinter hands every job to each printer in order. When only some of
// them fail it returns a *core.PartialPrintError.
type MultiPrinter struct {
	printers []core.Printer
}

// NewMultiPrinter creates a printer that fans jobs out to printers
func NewMultiPrinter(printers ...core.Printer) *MultiPrinter {
	return &MultiPrinter{printers: printers}
}

// Print runs job through every printer
func (m *MultiPrinter) Print(ctx context.Context, job core.PrintJob) error {
	var errs []error
	accepted := 0
	for _, p := range m.printers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := p.Print(ctx, job); err != nil {
			errs = append(errs, err)
			continue
		}
		accepted++
	}

	if len(errs) == 0 {
		return nil
	}
	if accepted == 0 {
		return errors.Join(errs...)
	}
	return &core.PartialPrintError{
		Accepted: accepted,
		Failed:   len(errs),
		Err:      errors.Join(errs...),
	}
}
