// Package mime turns RFC 5322 messages into core.RawMessage values for
// mailboxes that deliver whole messages (IMAP, mbox).
package mime

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/mikey/invoice-printer/internal/core"
	"golang.org/x/text/encoding/charmap"
)

func init() {
	// Invoices from Polish senders still arrive in legacy code pages
	charset.RegisterEncoding("windows-1250", charmap.Windows1250)
	charset.RegisterEncoding("windows-1252", charmap.Windows1252)
	charset.RegisterEncoding("iso-8859-1", charmap.ISO8859_1)
	charset.RegisterEncoding("iso-8859-2", charmap.ISO8859_2)
	charset.RegisterEncoding("iso-8859-15", charmap.ISO8859_15)
}

// AttachmentIDPrefix marks attachment ids derived from content hashes
const AttachmentIDPrefix = "sha256:"

// Message is a parsed message together with the bytes of its named parts
type Message struct {
	Raw         *core.RawMessage
	Attachments map[string][]byte
}

// Parse reads one message. Only parts carrying a file name keep their bytes.
// Attachment ids are content hashes, so the same document forwarded in two
// messages maps to the same ledger key.
func Parse(id string, r io.Reader) (*Message, error) {
	mr, err := mail.CreateReader(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("failed to read message %s: %w", id, err)
	}
	defer mr.Close()

	msg := &Message{
		Raw: &core.RawMessage{
			ID:      id,
			Headers: decodeHeaders(mr.Header.Header),
		},
		Attachments: make(map[string][]byte),
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if message.IsUnknownCharset(err) || message.IsUnknownEncoding(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read part of message %s: %w", id, err)
		}

		p, data, err := readPart(part)
		if err != nil {
			return nil, fmt.Errorf("failed to read part of message %s: %w", id, err)
		}
		if p.AttachmentID != "" {
			msg.Attachments[p.AttachmentID] = data
		}
		msg.Raw.Parts = append(msg.Raw.Parts, p)
	}

	return msg, nil
}

// ParseBytes is Parse over an in-memory message
func ParseBytes(id string, raw []byte) (*Message, error) {
	return Parse(id, bytes.NewReader(raw))
}

func decodeHeaders(h message.Header) []core.Header {
	var headers []core.Header
	fields := h.Fields()
	for fields.Next() {
		value, err := fields.Text()
		if err != nil {
			value = fields.Value()
		}
		headers = append(headers, core.Header{Name: fields.Key(), Value: value})
	}
	return headers
}

func readPart(part *mail.Part) (core.Part, []byte, error) {
	var (
		p        core.Part
		filename string
	)

	switch h := part.Header.(type) {
	case *mail.AttachmentHeader:
		p.MimeType, _, _ = h.ContentType()
		filename, _ = h.Filename()
	case *mail.InlineHeader:
		var params map[string]string
		p.MimeType, params, _ = h.ContentType()
		filename = inlineFilename(h, params)
	}

	if filename == "" {
		// Body text is not needed downstream.
		_, err := io.Copy(io.Discard, part.Body)
		return p, nil, err
	}

	data, err := io.ReadAll(part.Body)
	if err != nil {
		return p, nil, err
	}
	p.Filename = filename
	p.AttachmentID = ContentID(data)
	return p, data, nil
}

// inlineFilename covers PDFs sent with an inline disposition
func inlineFilename(h *mail.InlineHeader, contentTypeParams map[string]string) string {
	if _, params, err := h.ContentDisposition(); err == nil {
		if name := params["filename"]; name != "" {
			return name
		}
	}
	return contentTypeParams["name"]
}

// ContentID derives an attachment id from the attachment bytes
func ContentID(data []byte) string {
	sum := sha256.Sum256(data)
	return AttachmentIDPrefix + hex.EncodeToString(sum[:])
}
