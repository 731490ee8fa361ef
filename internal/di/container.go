package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/invoice-printer/internal/config"
	"github.com/mikey/invoice-printer/internal/core"
	"github.com/mikey/invoice-printer/internal/factory"
	"github.com/mikey/invoice-printer/internal/logging"
	"github.com/mikey/invoice-printer/internal/metrics"
	"github.com/mikey/invoice-printer/internal/rules"
	"github.com/mikey/invoice-printer/internal/utils"
)

// BuildContainer creates and configures a dependency injection container.
// Collaborators are built lazily, so commands only pay for what they invoke.
func BuildContainer(ctx context.Context, cfg *config.Config) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewCredentialFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewMailboxFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewLedgerFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewPrinterFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) (*utils.TextProcessor, error) {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register mailbox
	if err := container.Provide(func(f *factory.MailboxFactory) (core.Mailbox, error) {
		return f.CreateMailbox(ctx)
	}); err != nil {
		return nil, err
	}

	// Register ledger store
	if err := container.Provide(func(f *factory.LedgerFactory) (core.LedgerStore, error) {
		return f.CreateLedgerStore(ctx)
	}); err != nil {
		return nil, err
	}

	// Register printer and success log
	if err := container.Provide(func(f *factory.PrinterFactory) (core.Printer, error) {
		return f.CreatePrinter()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.PrinterFactory) core.SuccessLog {
		return f.CreateSuccessLog()
	}); err != nil {
		return nil, err
	}

	// Register classifier
	if err := container.Provide(func(logger *zap.Logger) core.Classifier {
		return rules.NewDefaultChecker(logger)
	}); err != nil {
		return nil, err
	}

	// Register metrics
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *metrics.Metrics {
		mc := cfg.GetMetrics()
		return metrics.New(metrics.Options{
			PushURL:      mc.PushURL,
			Job:          mc.Job,
			TextfilePath: mc.TextfilePath,
		}, logger)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(m *metrics.Metrics) core.ScanObserver {
		return m
	}); err != nil {
		return nil, err
	}

	// Register scan options
	if err := container.Provide(func(cfg *config.Config) (core.ScanOptions, error) {
		sc, err := cfg.GetScan()
		if err != nil {
			return core.ScanOptions{}, err
		}
		return core.ScanOptions{
			DryRun:      sc.DryRun,
			Concurrency: sc.Concurrency,
			Timeout:     sc.Timeout,
		}, nil
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(opts core.ScanOptions) core.PipelineOptions {
		return core.PipelineOptions{DryRun: opts.DryRun}
	}); err != nil {
		return nil, err
	}

	// Register pipeline and scan runner
	if err := container.Provide(core.NewAttachmentPipeline); err != nil {
		return nil, err
	}
	if err := container.Provide(core.NewScanRunner); err != nil {
		return nil, err
	}

	return container, nil
}
