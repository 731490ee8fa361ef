package core_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mikey/invoice-printer/internal/adapters/printer"
	"github.com/mikey/invoice-printer/internal/core"
	"github.com/mikey/invoice-printer/internal/rules"
	"github.com/mikey/invoice-printer/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type scanFixture struct {
	mailbox  *fakeMailbox
	printer  *fakePrinter
	store    *fakeStore
	observer *fakeObserver
	// dispatch replaces printer in the pipeline when set
	dispatch core.Printer
}

func newRunner(t *testing.T, opts core.ScanOptions, fx *scanFixture) *core.ScanRunner {
	t.Helper()
	logger := zaptest.NewLogger(t)
	var dispatch core.Printer = fx.printer
	if fx.dispatch != nil {
		dispatch = fx.dispatch
	}
	pipeline := core.NewAttachmentPipeline(
		fx.mailbox,
		rules.NewDefaultChecker(logger),
		dispatch,
		&fakeJournal{},
		utils.NewTextProcessor(logger),
		logger,
		core.PipelineOptions{DryRun: opts.DryRun, Now: func() time.Time { return fixedNow }},
	)
	return core.NewScanRunner(fx.mailbox, fx.store, pipeline, fx.observer, logger, opts)
}

func newScanFixture() *scanFixture {
	return &scanFixture{
		mailbox:  newFakeMailbox(),
		printer:  &fakePrinter{},
		store:    &fakeStore{},
		observer: &fakeObserver{},
	}
}

func seedMailbox(mb *fakeMailbox) {
	mb.add(message("m1", "Faktura 1", "biuro@firma.pl", "Faktura_1.pdf", "att-1"), []byte("%PDF-1"))
	mb.add(message("m2", "Re: Faktura 1", "biuro@firma.pl", "Faktura_1b.pdf", "att-2"), []byte("%PDF-2"))
	mb.add(message("m3", "Raport", "biuro@firma.pl", "raport.pdf", "att-3"), []byte("%PDF-3"))
	mb.add(message("m4", "Faktura 4", "biuro@firma.pl", "Faktura_4.pdf", "att-4"), nil)
	mb.add(&core.RawMessage{ID: "m5", Headers: []core.Header{{Name: "Subject", Value: "no attachment"}}}, nil)
}

func TestScanRunner_Run(t *testing.T) {
	fx := newScanFixture()
	seedMailbox(fx.mailbox)

	report, err := newRunner(t, core.ScanOptions{}, fx).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 5, report.Listed)
	assert.Equal(t, 4, report.Added)
	assert.True(t, report.Persisted)
	assert.Equal(t, 1, report.Outcomes[core.OutcomeRecorded])
	assert.Equal(t, 2, report.Outcomes[core.OutcomeSkipped])
	assert.Equal(t, 1, report.Outcomes[core.OutcomeNoData])
	assert.Equal(t, 1, report.Outcomes[core.OutcomeDropped])

	assert.Equal(t, 1, fx.store.saves)
	require.Len(t, fx.store.records, 4)
	assert.Equal(t, []string{"att-1", "att-2", "att-3", "att-4"}, attachmentIDs(fx.store.records))
	assert.Equal(t, 1, fx.printer.count())
	assert.Equal(t, 1, fx.observer.scans)
	assert.Equal(t, 1, fx.observer.outcomes[core.OutcomeRecorded])
}

func TestScanRunner_Idempotent(t *testing.T) {
	fx := newScanFixture()
	seedMailbox(fx.mailbox)
	runner := newRunner(t, core.ScanOptions{Concurrency: 2}, fx)

	_, err := runner.Run(context.Background())
	require.NoError(t, err)
	first := append([]core.AttachmentRecord(nil), fx.store.records...)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, fx.store.records)
	assert.Zero(t, report.Added)
	assert.Equal(t, 4, report.Outcomes[core.OutcomeCached])
	assert.Equal(t, 1, fx.printer.count(), "second scan must not print again")
}

func TestScanRunner_DuplicateAttachmentWithinScan(t *testing.T) {
	fx := newScanFixture()
	fx.mailbox.add(message("m1", "Faktura 9", "biuro@firma.pl", "Faktura_9.pdf", "shared"), []byte("%PDF"))
	fx.mailbox.add(message("m2", "Fwd: Faktura 9", "biuro@firma.pl", "Faktura_9.pdf", "shared"), []byte("%PDF"))

	report, err := newRunner(t, core.ScanOptions{}, fx).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Added)
	require.Len(t, fx.store.records, 1)
	assert.Equal(t, "shared", fx.store.records[0].AttachmentID)
	assert.Equal(t, "m1", fx.store.records[0].MessageID, "first message in listing order wins")
}

func TestScanRunner_SkipsEmptyIDs(t *testing.T) {
	fx := newScanFixture()
	fx.mailbox.add(message("m1", "Faktura 1", "biuro@firma.pl", "Faktura_1.pdf", "att-1"), []byte("%PDF"))
	fx.mailbox.ids = append([]string{""}, fx.mailbox.ids...)

	report, err := newRunner(t, core.ScanOptions{}, fx).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.EmptyIDs)
	assert.Equal(t, 1, report.Added)
}

func TestScanRunner_NetworkErrorAbortsWithoutPersisting(t *testing.T) {
	fx := newScanFixture()
	seedMailbox(fx.mailbox)
	fx.mailbox.getErr["m3"] = errNetwork

	_, err := newRunner(t, core.ScanOptions{}, fx).Run(context.Background())

	require.Error(t, err)
	assert.True(t, core.IsMailboxError(err))
	assert.ErrorIs(t, err, errNetwork)
	assert.Zero(t, fx.store.saves)
	assert.Equal(t, errNetwork, unwrapAll(fx.observer.lastErr))
}

func TestScanRunner_ListErrorAborts(t *testing.T) {
	fx := newScanFixture()
	fx.mailbox.listErr = errNetwork

	_, err := newRunner(t, core.ScanOptions{}, fx).Run(context.Background())

	require.Error(t, err)
	assert.True(t, core.IsMailboxError(err))
	assert.Zero(t, fx.store.saves)
}

func TestScanRunner_CorruptLedgerAborts(t *testing.T) {
	fx := newScanFixture()
	seedMailbox(fx.mailbox)
	fx.store.loadErr = fmt.Errorf("%w: unexpected end of JSON input", core.ErrLedgerCorrupt)

	_, err := newRunner(t, core.ScanOptions{}, fx).Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrLedgerCorrupt)
	assert.Zero(t, fx.printer.count())
	assert.Zero(t, fx.store.saves)
}

func TestScanRunner_DryRunDoesNotPersist(t *testing.T) {
	fx := newScanFixture()
	seedMailbox(fx.mailbox)

	report, err := newRunner(t, core.ScanOptions{DryRun: true}, fx).Run(context.Background())

	require.NoError(t, err)
	assert.False(t, report.Persisted)
	assert.Equal(t, 4, report.Added)
	assert.Zero(t, fx.store.saves)
	assert.Zero(t, fx.printer.count())
}

func TestScanRunner_PrintFailureDoesNotAbort(t *testing.T) {
	fx := newScanFixture()
	seedMailbox(fx.mailbox)
	fx.printer.err = fmt.Errorf("ipp: client-error-not-possible")

	report, err := newRunner(t, core.ScanOptions{}, fx).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Outcomes[core.OutcomePrintFailed])
	assert.Equal(t, 3, report.Added)
	assert.NotContains(t, attachmentIDs(fx.store.records), "att-1")
}

func TestScanRunner_PartialChainFailureIsNotReprinted(t *testing.T) {
	fx := newScanFixture()
	relay := &fakePrinter{err: errors.New("relay down")}
	fx.dispatch = printer.NewMultiPrinter(fx.printer, relay)
	fx.mailbox.add(message("m1", "Faktura 1", "biuro@firma.pl", "Faktura_1.pdf", "att-1"), []byte("%PDF-1"))
	runner := newRunner(t, core.ScanOptions{}, fx)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Outcomes[core.OutcomePartial])
	require.Len(t, fx.store.records, 1)
	assert.Equal(t, "PARTIAL: 1 of 2 printers failed", fx.store.records[0].Reason)

	relay.err = nil
	report, err = runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Outcomes[core.OutcomeCached])
	assert.Equal(t, 1, fx.printer.count())
	assert.Zero(t, relay.count())
}

func attachmentIDs(records []core.AttachmentRecord) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.AttachmentID
	}
	return ids
}

func unwrapAll(err error) error {
	for {
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return err
		}
		next := u.Unwrap()
		if next == nil {
			return err
		}
		err = next
	}
}
