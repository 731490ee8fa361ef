package mbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	mboxlib "github.com/emersion/go-mbox"
	"github.com/mikey/invoice-printer/internal/adapters/mime"
	"github.com/mikey/invoice-printer/internal/core"
	"go.uber.org/zap"
)

// Mailbox serves messages from a local mbox file. The file is read once, on
// the first listing.
type Mailbox struct {
	path       string
	maxResults int
	logger     *zap.Logger

	once     sync.Once
	loadErr  error
	ids      []string
	messages map[string]*mime.Message
}

// NewMailbox creates a new mbox mailbox
func NewMailbox(path string, maxResults int, logger *zap.Logger) (*Mailbox, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("mbox path is empty")
	}
	return &Mailbox{
		path:       path,
		maxResults: maxResults,
		logger:     logger,
		messages:   make(map[string]*mime.Message),
	}, nil
}

func (m *Mailbox) load() error {
	m.once.Do(func() {
		m.loadErr = m.readFile()
	})
	return m.loadErr
}

func (m *Mailbox) readFile() error {
	file, err := os.Open(m.path)
	if err != nil {
		return fmt.Errorf("open mbox: %w", err)
	}
	defer file.Close()

	reader := mboxlib.NewReader(file)
	for index := 1; ; index++ {
		r, err := reader.NextMessage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read mbox message %d: %w", index, err)
		}

		provisional := "mbox-" + strconv.Itoa(index)
		parsed, err := mime.Parse(provisional, r)
		if err != nil {
			m.logger.Warn("Skipping unparsable mbox message",
				zap.Int("index", index),
				zap.Error(err))
			continue
		}

		id := m.messageID(parsed, provisional)
		parsed.Raw.ID = id
		m.ids = append(m.ids, id)
		m.messages[id] = parsed
	}

	m.logger.Debug("Loaded mbox file",
		zap.String("path", m.path),
		zap.Int("messages", len(m.ids)))
	return nil
}

// messageID prefers the Message-Id header and falls back to the position
// in the file
func (m *Mailbox) messageID(parsed *mime.Message, fallback string) string {
	for _, h := range parsed.Raw.Headers {
		if h.Name == "Message-Id" {
			id := strings.Trim(strings.TrimSpace(h.Value), "<>")
			if id == "" {
				break
			}
			if _, dup := m.messages[id]; dup {
				return id + "#" + fallback
			}
			return id
		}
	}
	return fallback
}

// ListMessageIDs returns ids in file order, limited to the last maxResults
func (m *Mailbox) ListMessageIDs(_ context.Context) ([]string, error) {
	if err := m.load(); err != nil {
		return nil, err
	}
	ids := m.ids
	if m.maxResults > 0 && len(ids) > m.maxResults {
		ids = ids[len(ids)-m.maxResults:]
	}
	return append([]string(nil), ids...), nil
}

// GetMessage returns a parsed message
func (m *Mailbox) GetMessage(_ context.Context, id string) (*core.RawMessage, error) {
	if err := m.load(); err != nil {
		return nil, err
	}
	msg, ok := m.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %s not found in %s", id, m.path)
	}
	return msg.Raw, nil
}

// GetAttachment returns attachment bytes captured while reading the file
func (m *Mailbox) GetAttachment(_ context.Context, messageID, attachmentID string) ([]byte, error) {
	if err := m.load(); err != nil {
		return nil, err
	}
	msg, ok := m.messages[messageID]
	if !ok {
		return nil, fmt.Errorf("message %s not found in %s", messageID, m.path)
	}
	return msg.Attachments[attachmentID], nil
}
