package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mikey/invoice-printer/internal/core"
	"github.com/mikey/invoice-printer/internal/rules"
	"github.com/mikey/invoice-printer/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var fixedNow = time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)

type pipelineFixture struct {
	mailbox *fakeMailbox
	printer *fakePrinter
	journal *fakeJournal
}

func newPipeline(t *testing.T, dryRun bool) (*core.AttachmentPipeline, *pipelineFixture) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	fx := &pipelineFixture{
		mailbox: newFakeMailbox(),
		printer: &fakePrinter{},
		journal: &fakeJournal{},
	}
	p := core.NewAttachmentPipeline(
		fx.mailbox,
		rules.NewDefaultChecker(logger),
		fx.printer,
		fx.journal,
		utils.NewTextProcessor(logger),
		logger,
		core.PipelineOptions{DryRun: dryRun, Now: func() time.Time { return fixedNow }},
	)
	return p, fx
}

func TestPipeline_ApprovedInvoiceIsPrinted(t *testing.T) {
	p, fx := newPipeline(t, false)
	fx.mailbox.add(message("m1", "Faktura 123", "biuro@firma.pl", "Faktura_123.pdf", "att-1"), []byte("%PDF-1.4"))

	res, err := p.Process(context.Background(), core.NewLedger(nil), "m1")

	require.NoError(t, err)
	assert.Equal(t, core.OutcomeRecorded, res.Outcome)
	require.NotNil(t, res.Record)
	assert.Equal(t, "1-3", res.Record.PageRange)
	assert.Empty(t, res.Record.Reason)
	assert.Equal(t, "att-1", res.Record.AttachmentID)
	assert.Equal(t, "m1", res.Record.MessageID)
	assert.Equal(t, fixedNow, res.Record.RecordedAt)

	require.Equal(t, 1, fx.printer.count())
	job := fx.printer.jobs[0]
	assert.Equal(t, "2024_03_01_02_30_00-Faktura_123.pdf", job.DocumentName)
	assert.Equal(t, "1-3", job.PageRange)
	assert.Equal(t, []byte("%PDF-1.4"), job.Document)
	assert.Equal(t, []string{"OK;2024_03_01_02_30_00-Faktura_123.pdf"}, fx.journal.entries)
}

func TestPipeline_ReplyIsSkippedWithoutFetching(t *testing.T) {
	p, fx := newPipeline(t, false)
	fx.mailbox.add(message("m1", "Re: Faktura 123", "biuro@firma.pl", "Faktura_123.pdf", "att-1"), []byte("%PDF"))

	res, err := p.Process(context.Background(), core.NewLedger(nil), "m1")

	require.NoError(t, err)
	assert.Equal(t, core.OutcomeSkipped, res.Outcome)
	require.NotNil(t, res.Record)
	assert.Empty(t, res.Record.PageRange)
	assert.Equal(t, "SUBJECT: re:", res.Record.Reason)
	assert.Zero(t, fx.mailbox.attCalls)
	assert.Zero(t, fx.printer.count())
}

func TestPipeline_NonInvoiceFileIsSkipped(t *testing.T) {
	p, fx := newPipeline(t, false)
	fx.mailbox.add(message("m1", "Faktura 123", "biuro@firma.pl", "raport.pdf", "att-1"), []byte("%PDF"))

	res, err := p.Process(context.Background(), core.NewLedger(nil), "m1")

	require.NoError(t, err)
	require.NotNil(t, res.Record)
	assert.Equal(t, "SUBJECT NOT: faktura", res.Record.Reason)
	assert.Empty(t, res.Record.PageRange)
}

func TestPipeline_EmptyAttachmentIsRecordedAsError(t *testing.T) {
	p, fx := newPipeline(t, false)
	fx.mailbox.add(message("m1", "Faktura 123", "biuro@firma.pl", "Faktura_123.pdf", "att-1"), nil)

	res, err := p.Process(context.Background(), core.NewLedger(nil), "m1")

	require.NoError(t, err)
	assert.Equal(t, core.OutcomeNoData, res.Outcome)
	require.NotNil(t, res.Record)
	assert.Empty(t, res.Record.PageRange)
	assert.Contains(t, res.Record.Reason, "ERROR")
	assert.Zero(t, fx.printer.count())
}

func TestPipeline_IncompleteMessageIsDropped(t *testing.T) {
	p, fx := newPipeline(t, false)
	msg := message("m1", "Faktura 123", "biuro@firma.pl", "Faktura_123.pdf", "att-1")
	msg.Parts = msg.Parts[:1]
	fx.mailbox.add(msg, nil)

	res, err := p.Process(context.Background(), core.NewLedger(nil), "m1")

	require.NoError(t, err)
	assert.Equal(t, core.OutcomeDropped, res.Outcome)
	assert.Nil(t, res.Record)
}

func TestPipeline_AlreadyProcessedReturnsCachedRecord(t *testing.T) {
	p, fx := newPipeline(t, false)
	fx.mailbox.add(message("m1", "Faktura 123", "biuro@firma.pl", "Faktura_123.pdf", "att-1"), []byte("%PDF"))
	cached := core.AttachmentRecord{AttachmentID: "att-1", MessageID: "old", Reason: "SUBJECT: odp:"}

	res, err := p.Process(context.Background(), core.NewLedger([]core.AttachmentRecord{cached}), "m1")

	require.NoError(t, err)
	assert.Equal(t, core.OutcomeCached, res.Outcome)
	require.NotNil(t, res.Record)
	assert.Equal(t, cached, *res.Record)
	assert.Zero(t, fx.mailbox.attCalls)
	assert.Zero(t, fx.printer.count())
}

func TestPipeline_PrintErrorDropsMessage(t *testing.T) {
	p, fx := newPipeline(t, false)
	fx.printer.err = errors.New("printer offline")
	fx.mailbox.add(message("m1", "Faktura 123", "biuro@firma.pl", "Faktura_123.pdf", "att-1"), []byte("%PDF"))

	res, err := p.Process(context.Background(), core.NewLedger(nil), "m1")

	require.NoError(t, err)
	assert.Equal(t, core.OutcomePrintFailed, res.Outcome)
	assert.Nil(t, res.Record)
	assert.Empty(t, fx.journal.entries)
}

func TestPipeline_PartialPrintIsRecorded(t *testing.T) {
	p, fx := newPipeline(t, false)
	fx.printer.err = &core.PartialPrintError{Accepted: 1, Failed: 1, Err: errors.New("relay down")}
	fx.mailbox.add(message("m1", "Faktura 123", "biuro@firma.pl", "Faktura_123.pdf", "att-1"), []byte("%PDF"))

	res, err := p.Process(context.Background(), core.NewLedger(nil), "m1")

	require.NoError(t, err)
	assert.Equal(t, core.OutcomePartial, res.Outcome)
	require.NotNil(t, res.Record)
	assert.Equal(t, "1-3", res.Record.PageRange)
	assert.Equal(t, "PARTIAL: 1 of 2 printers failed", res.Record.Reason)
	assert.Equal(t, []string{"OK;2024_03_01_02_30_00-Faktura_123.pdf"}, fx.journal.entries)
}

func TestPipeline_MailboxErrorPropagates(t *testing.T) {
	p, fx := newPipeline(t, false)
	fx.mailbox.getErr["m1"] = errNetwork

	_, err := p.Process(context.Background(), core.NewLedger(nil), "m1")

	require.Error(t, err)
	assert.True(t, core.IsMailboxError(err))
	assert.ErrorIs(t, err, errNetwork)
}

func TestPipeline_DryRunRecordsWithoutPrinting(t *testing.T) {
	p, fx := newPipeline(t, true)
	fx.mailbox.add(message("m1", "Faktura 123", "biuro@firma.pl", "Faktura_123.pdf", "att-1"), []byte("%PDF"))

	res, err := p.Process(context.Background(), core.NewLedger(nil), "m1")

	require.NoError(t, err)
	assert.Equal(t, core.OutcomeRecorded, res.Outcome)
	assert.Equal(t, "1-3", res.Record.PageRange)
	assert.Zero(t, fx.printer.count())
	assert.Empty(t, fx.journal.entries)
}
