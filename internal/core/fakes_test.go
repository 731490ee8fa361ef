package core_test

import (
	"context"
	"errors"
	"sync"

	"github.com/mikey/invoice-printer/internal/core"
)

var errNetwork = errors.New("connection reset by peer")

type fakeMailbox struct {
	mu          sync.Mutex
	ids         []string
	messages    map[string]*core.RawMessage
	attachments map[string][]byte
	listErr     error
	getErr      map[string]error
	attCalls    int
}

func newFakeMailbox() *fakeMailbox {
	return &fakeMailbox{
		messages:    make(map[string]*core.RawMessage),
		attachments: make(map[string][]byte),
		getErr:      make(map[string]error),
	}
}

func (m *fakeMailbox) add(msg *core.RawMessage, data []byte) {
	m.ids = append(m.ids, msg.ID)
	m.messages[msg.ID] = msg
	for _, p := range msg.Parts {
		if p.AttachmentID != "" {
			m.attachments[p.AttachmentID] = data
		}
	}
}

func (m *fakeMailbox) ListMessageIDs(_ context.Context) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]string(nil), m.ids...), nil
}

func (m *fakeMailbox) GetMessage(_ context.Context, id string) (*core.RawMessage, error) {
	if err := m.getErr[id]; err != nil {
		return nil, err
	}
	msg, ok := m.messages[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return msg, nil
}

func (m *fakeMailbox) GetAttachment(_ context.Context, _ string, attachmentID string) ([]byte, error) {
	m.mu.Lock()
	m.attCalls++
	m.mu.Unlock()
	return m.attachments[attachmentID], nil
}

type fakePrinter struct {
	mu   sync.Mutex
	jobs []core.PrintJob
	err  error
}

func (p *fakePrinter) Print(_ context.Context, job core.PrintJob) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, job)
	return nil
}

func (p *fakePrinter) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.jobs)
}

type fakeStore struct {
	records []core.AttachmentRecord
	loadErr error
	saves   int
}

func (s *fakeStore) Load(_ context.Context) ([]core.AttachmentRecord, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return append([]core.AttachmentRecord(nil), s.records...), nil
}

func (s *fakeStore) Save(_ context.Context, records []core.AttachmentRecord) error {
	s.saves++
	s.records = append([]core.AttachmentRecord(nil), records...)
	return nil
}

type fakeJournal struct {
	mu      sync.Mutex
	entries []string
}

func (j *fakeJournal) Append(_ context.Context, status, message string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, status+";"+message)
	return nil
}

type fakeObserver struct {
	mu       sync.Mutex
	outcomes map[core.Outcome]int
	scans    int
	lastErr  error
}

func (o *fakeObserver) ObserveOutcome(outcome core.Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = make(map[core.Outcome]int)
	}
	o.outcomes[outcome]++
}

func (o *fakeObserver) ObserveScan(_ *core.ScanReport, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.scans++
	o.lastErr = err
}

func message(id, subject, to, fileName, attachmentID string) *core.RawMessage {
	return &core.RawMessage{
		ID: id,
		Headers: []core.Header{
			{Name: "Subject", Value: subject},
			{Name: "From", Value: "faktury@dostawca.pl"},
			{Name: "To", Value: to},
			{Name: "Date", Value: "Fri, 01 Mar 2024 14:30:00 +0000"},
		},
		Parts: []core.Part{
			{MimeType: "multipart/alternative"},
			{Filename: fileName, MimeType: "application/pdf", AttachmentID: attachmentID},
		},
	}
}
