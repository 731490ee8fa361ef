package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/invoice-printer/internal/adapters/journal"
	"github.com/mikey/invoice-printer/internal/adapters/printer"
	"github.com/mikey/invoice-printer/internal/config"
	"github.com/mikey/invoice-printer/internal/core"
)

// PrinterFactory creates the document dispatch chain based on configuration
type PrinterFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewPrinterFactory creates a new printer factory
func NewPrinterFactory(cfg *config.Config, logger *zap.Logger) *PrinterFactory {
	return &PrinterFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreatePrinter creates one printer per configured backend, in order
func (f *PrinterFactory) CreatePrinter() (core.Printer, error) {
	pc, err := f.cfg.GetPrinter()
	if err != nil {
		return nil, err
	}
	if len(pc.Backends) == 0 {
		return nil, fmt.Errorf("no printer backends configured")
	}

	printers := make([]core.Printer, 0, len(pc.Backends))
	for _, backend := range pc.Backends {
		switch backend {
		case "spool":
			printers = append(printers, printer.NewSpoolPrinter(pc.SpoolDir, f.logger))
		case "ipp":
			if pc.IPP.Printer == "" {
				return nil, fmt.Errorf("printer.ipp.printer is required for the ipp backend")
			}
			printers = append(printers, printer.NewIPPPrinter(printer.IPPOptions{
				Host:     pc.IPP.Host,
				Port:     pc.IPP.Port,
				Username: pc.IPP.Username,
				Password: pc.IPP.Password,
				UseTLS:   pc.IPP.TLS,
				Printer:  pc.IPP.Printer,
			}, f.logger))
		case "smtp":
			if pc.SMTP.From == "" || len(pc.SMTP.To) == 0 {
				return nil, fmt.Errorf("printer.smtp.from and printer.smtp.to are required for the smtp backend")
			}
			printers = append(printers, printer.NewSMTPPrinter(printer.SMTPOptions{
				Host:     pc.SMTP.Host,
				Port:     pc.SMTP.Port,
				Username: pc.SMTP.Username,
				Password: pc.SMTP.Password,
				StartTLS: pc.SMTP.StartTLS,
				From:     pc.SMTP.From,
				To:       pc.SMTP.To,
				Timeout:  pc.SMTP.Timeout,
			}, f.logger))
		default:
			return nil, fmt.Errorf("unsupported printer backend: %s", backend)
		}
	}

	f.logger.Debug("Printer backends configured", zap.Strings("backends", pc.Backends))
	if len(printers) == 1 {
		return printers[0], nil
	}
	return printer.NewMultiPrinter(printers...), nil
}

// CreateSuccessLog creates the success journal
func (f *PrinterFactory) CreateSuccessLog() core.SuccessLog {
	return journal.NewFileJournal(f.cfg.GetString("journal.path"))
}
