package imap

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	imapv2 "github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/mikey/invoice-printer/internal/adapters/mime"
	"github.com/mikey/invoice-printer/internal/core"
	"go.uber.org/zap"
)

// Options configures the IMAP mailbox
type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	// Security is one of "tls", "starttls" or "none"
	Security string
	Mailbox  string
	// MaxResults limits listing to the most recent messages; 0 lists all
	MaxResults int
}

// Mailbox reads messages from one IMAP folder over a single session
type Mailbox struct {
	opts   Options
	logger *zap.Logger

	mu     sync.Mutex
	client *imapclient.Client

	attMu       sync.Mutex
	attachments map[string]map[string][]byte
}

// NewMailbox creates a new IMAP mailbox. The connection is opened lazily.
func NewMailbox(opts Options, logger *zap.Logger) *Mailbox {
	if opts.Mailbox == "" {
		opts.Mailbox = "INBOX"
	}
	return &Mailbox{
		opts:        opts,
		logger:      logger,
		attachments: make(map[string]map[string][]byte),
	}
}

// connect must be called with m.mu held
func (m *Mailbox) connect() (*imapclient.Client, error) {
	if m.client != nil {
		return m.client, nil
	}

	addr := fmt.Sprintf("%s:%d", m.opts.Host, m.opts.Port)

	var (
		client *imapclient.Client
		err    error
	)
	switch m.opts.Security {
	case "", "tls":
		client, err = imapclient.DialTLS(addr, nil)
	case "starttls":
		client, err = imapclient.DialStartTLS(addr, nil)
	case "none":
		client, err = imapclient.DialInsecure(addr, nil)
	default:
		return nil, fmt.Errorf("unsupported IMAP security mode: %s", m.opts.Security)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(m.opts.Username, m.opts.Password).Wait(); err != nil {
		_ = client.Close()
		return nil, &core.AuthError{
			Provider: "imap",
			Message:  fmt.Sprintf("login failed for %s", m.opts.Username),
			Err:      err,
		}
	}

	if _, err := client.Select(m.opts.Mailbox, &imapv2.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("selecting %s: %w", m.opts.Mailbox, err)
	}

	m.logger.Debug("Connected to IMAP server",
		zap.String("addr", addr),
		zap.String("mailbox", m.opts.Mailbox))
	m.client = client
	return client, nil
}

// session runs op on the shared session. When ctx ends first the
// connection is closed, which unblocks op, and the next call reconnects.
func (m *Mailbox) session(ctx context.Context, op func(*imapclient.Client) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	client, err := m.connect()
	if err != nil {
		return err
	}

	stop := context.AfterFunc(ctx, func() { _ = client.Close() })
	err = op(client)
	if !stop() {
		m.client = nil
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("IMAP session closed: %w", ctxErr)
		}
	}
	return err
}

// ListMessageIDs returns message UIDs as decimal strings
func (m *Mailbox) ListMessageIDs(ctx context.Context) ([]string, error) {
	var uids []imapv2.UID
	err := m.session(ctx, func(client *imapclient.Client) error {
		searchData, err := client.UIDSearch(&imapv2.SearchCriteria{}, nil).Wait()
		if err != nil {
			return fmt.Errorf("searching messages: %w", err)
		}
		uids = searchData.AllUIDs()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if m.opts.MaxResults > 0 && len(uids) > m.opts.MaxResults {
		uids = uids[len(uids)-m.opts.MaxResults:]
	}

	ids := make([]string, len(uids))
	for i, uid := range uids {
		ids[i] = strconv.FormatUint(uint64(uid), 10)
	}
	return ids, nil
}

// GetMessage fetches and parses the full message body. Attachment bytes are
// kept until GetAttachment hands them out.
func (m *Mailbox) GetMessage(ctx context.Context, id string) (*core.RawMessage, error) {
	parsed, err := m.fetchParsed(ctx, id)
	if err != nil {
		return nil, err
	}

	m.attMu.Lock()
	m.attachments[id] = parsed.Attachments
	m.attMu.Unlock()

	return parsed.Raw, nil
}

// GetAttachment serves bytes captured by GetMessage, refetching if needed.
// Served messages are dropped from the cache.
func (m *Mailbox) GetAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	m.attMu.Lock()
	atts, ok := m.attachments[messageID]
	delete(m.attachments, messageID)
	m.attMu.Unlock()

	if !ok {
		parsed, err := m.fetchParsed(ctx, messageID)
		if err != nil {
			return nil, err
		}
		atts = parsed.Attachments
	}
	return atts[attachmentID], nil
}

func (m *Mailbox) fetchParsed(ctx context.Context, id string) (*mime.Message, error) {
	raw, err := m.fetchBody(ctx, id)
	if err != nil {
		return nil, err
	}
	return mime.ParseBytes(id, raw)
}

func (m *Mailbox) fetchBody(ctx context.Context, id string) ([]byte, error) {
	uid, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid IMAP UID %q: %w", id, err)
	}

	bodySection := &imapv2.FetchItemBodySection{Peek: true}
	fetchOpts := &imapv2.FetchOptions{
		UID:         true,
		BodySection: []*imapv2.FetchItemBodySection{bodySection},
	}

	var body []byte
	err = m.session(ctx, func(client *imapclient.Client) error {
		fetchCmd := client.Fetch(imapv2.UIDSetNum(imapv2.UID(uid)), fetchOpts)
		defer fetchCmd.Close()

		msg := fetchCmd.Next()
		if msg == nil {
			return fmt.Errorf("message UID %d not found", uid)
		}

		buf, err := msg.Collect()
		if err != nil {
			return fmt.Errorf("collecting message data: %w", err)
		}

		if err := fetchCmd.Close(); err != nil {
			return fmt.Errorf("fetching message: %w", err)
		}
		body = buf.FindBodySection(bodySection)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// Close logs out of the IMAP session
func (m *Mailbox) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		return nil
	}
	err := m.client.Logout().Wait()
	m.client = nil
	return err
}
