package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	gmailv1 "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/mikey/invoice-printer/internal/core"
)

// DefaultUser addresses the mailbox of the authenticated account
const DefaultUser = "me"

// Options configures the Gmail mailbox
type Options struct {
	User       string
	Query      string
	LabelIDs   []string
	MaxResults int64
}

// Mailbox reads messages through the Gmail REST API
type Mailbox struct {
	svc    *gmailv1.Service
	opts   Options
	logger *zap.Logger
}

// NewMailbox creates a Gmail mailbox authorized by ts
func NewMailbox(ctx context.Context, ts oauth2.TokenSource, opts Options, logger *zap.Logger) (*Mailbox, error) {
	svc, err := gmailv1.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return NewMailboxFromService(svc, opts, logger), nil
}

// NewMailboxFromService wraps an existing Gmail service
func NewMailboxFromService(svc *gmailv1.Service, opts Options, logger *zap.Logger) *Mailbox {
	if opts.User == "" {
		opts.User = DefaultUser
	}
	return &Mailbox{
		svc:    svc,
		opts:   opts,
		logger: logger,
	}
}

// ListMessageIDs returns the first page of the message listing
func (m *Mailbox) ListMessageIDs(ctx context.Context) ([]string, error) {
	call := m.svc.Users.Messages.List(m.opts.User)
	if m.opts.MaxResults > 0 {
		call = call.MaxResults(m.opts.MaxResults)
	}
	if m.opts.Query != "" {
		call = call.Q(m.opts.Query)
	}
	if len(m.opts.LabelIDs) > 0 {
		call = call.LabelIds(m.opts.LabelIDs...)
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, m.wrapError(err, "failed to list messages")
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		ids = append(ids, msg.Id)
	}

	m.logger.Debug("Listed Gmail messages",
		zap.Int("count", len(ids)),
		zap.Bool("has_more", resp.NextPageToken != ""))
	return ids, nil
}

// GetMessage fetches one message in full format
func (m *Mailbox) GetMessage(ctx context.Context, id string) (*core.RawMessage, error) {
	msg, err := m.svc.Users.Messages.Get(m.opts.User, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, m.wrapError(err, "failed to get message")
	}
	return toRawMessage(msg), nil
}

// GetAttachment downloads and decodes one attachment body
func (m *Mailbox) GetAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	att, err := m.svc.Users.Messages.Attachments.Get(m.opts.User, messageID, attachmentID).Context(ctx).Do()
	if err != nil {
		return nil, m.wrapError(err, "failed to get attachment")
	}
	if att.Data == "" {
		return nil, nil
	}

	data, err := base64.URLEncoding.DecodeString(att.Data)
	if err != nil {
		data, err = base64.RawURLEncoding.DecodeString(att.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode attachment %s: %w", attachmentID, err)
		}
	}
	return data, nil
}

// toRawMessage keeps only top-level payload parts
func toRawMessage(msg *gmailv1.Message) *core.RawMessage {
	raw := &core.RawMessage{ID: msg.Id}
	if msg.Payload == nil {
		return raw
	}

	for _, h := range msg.Payload.Headers {
		raw.Headers = append(raw.Headers, core.Header{Name: h.Name, Value: h.Value})
	}
	for _, p := range msg.Payload.Parts {
		part := core.Part{
			Filename: p.Filename,
			MimeType: p.MimeType,
		}
		if p.Body != nil {
			part.AttachmentID = p.Body.AttachmentId
		}
		raw.Parts = append(raw.Parts, part)
	}
	return raw
}

func (m *Mailbox) wrapError(err error, msg string) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized {
		return &core.AuthError{Provider: "gmail", Message: msg, Err: err}
	}
	var refreshErr *oauth2.RetrieveError
	if errors.As(err, &refreshErr) {
		return &core.AuthError{Provider: "gmail", Message: "token refresh failed", Err: err}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
