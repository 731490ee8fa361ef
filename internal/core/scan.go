package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ScanOptions configures a ScanRunner
type ScanOptions struct {
	// DryRun leaves the stored ledger untouched
	DryRun bool
	// Concurrency caps the number of pipelines in flight; 0 means unbounded
	Concurrency int
	// Timeout bounds the whole scan; 0 means no deadline
	Timeout time.Duration
}

// ScanRunner performs one scan: load, list, fan out, merge, persist
type ScanRunner struct {
	mailbox  Mailbox
	store    LedgerStore
	pipeline *AttachmentPipeline
	observer ScanObserver
	logger   *zap.Logger
	opts     ScanOptions
}

// NewScanRunner creates a new scan runner. observer may be nil.
func NewScanRunner(
	mailbox Mailbox,
	store LedgerStore,
	pipeline *AttachmentPipeline,
	observer ScanObserver,
	logger *zap.Logger,
	opts ScanOptions,
) *ScanRunner {
	return &ScanRunner{
		mailbox:  mailbox,
		store:    store,
		pipeline: pipeline,
		observer: observer,
		logger:   logger,
		opts:     opts,
	}
}

// Run performs a single scan. Any mailbox error aborts the scan before the
// ledger is written.
func (r *ScanRunner) Run(ctx context.Context) (*ScanReport, error) {
	report := &ScanReport{
		ScanID:    uuid.NewString(),
		StartedAt: time.Now(),
		Outcomes:  make(map[Outcome]int),
		DryRun:    r.opts.DryRun,
	}
	logger := r.logger.With(zap.String("scan_id", report.ScanID))

	err := r.run(ctx, logger, report)
	report.Duration = time.Since(report.StartedAt)
	if r.observer != nil {
		r.observer.ObserveScan(report, err)
	}
	if err != nil {
		logger.Error("Scan failed", zap.Error(err), zap.Duration("duration", report.Duration))
		return report, err
	}

	logger.Info("Scan complete",
		zap.Int("listed", report.Listed),
		zap.Int("added", report.Added),
		zap.Int("ledger_size", report.LedgerSize),
		zap.Bool("persisted", report.Persisted),
		zap.Duration("duration", report.Duration))
	return report, nil
}

func (r *ScanRunner) run(ctx context.Context, logger *zap.Logger, report *ScanReport) error {
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	stored, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}
	ledger := NewLedger(stored)
	logger.Debug("Ledger loaded", zap.Int("records", ledger.Len()))

	ids, err := r.mailbox.ListMessageIDs(ctx)
	if err != nil {
		return &MailboxError{Op: "list messages", Err: err}
	}
	report.Listed = len(ids)

	results, err := r.fanOut(ctx, ledger, ids, report)
	if err != nil {
		return err
	}

	// Merge in listing order so a duplicate attachment resolves to its first message.
	proposed := make([]AttachmentRecord, 0, len(results))
	for _, res := range results {
		if res.Outcome == "" {
			continue
		}
		report.Outcomes[res.Outcome]++
		if r.observer != nil {
			r.observer.ObserveOutcome(res.Outcome)
		}
		if res.Record != nil && res.Outcome != OutcomeCached {
			proposed = append(proposed, *res.Record)
		}
	}
	report.Added = ledger.Merge(proposed)
	report.LedgerSize = ledger.Len()

	if r.opts.DryRun {
		logger.Info("Dry run, ledger not persisted", zap.Int("would_add", report.Added))
		return nil
	}
	if err := r.store.Save(ctx, ledger.Records()); err != nil {
		return fmt.Errorf("failed to persist ledger: %w", err)
	}
	report.Persisted = true
	return nil
}

func (r *ScanRunner) fanOut(ctx context.Context, ledger LedgerView, ids []string, report *ScanReport) ([]Result, error) {
	results := make([]Result, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	if r.opts.Concurrency > 0 {
		g.SetLimit(r.opts.Concurrency)
	}
	for i, id := range ids {
		if id == "" {
			report.EmptyIDs++
			continue
		}
		g.Go(func() error {
			res, err := r.pipeline.Process(gctx, ledger, id)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
