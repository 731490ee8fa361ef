package printer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"github.com/mikey/invoice-printer/internal/core"
)

// SMTPOptions configures the email-to-print printer
type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	// StartTLS upgrades the connection before authenticating
	StartTLS bool
	// TLSConfig is used for STARTTLS; defaults to verifying Host
	TLSConfig *tls.Config
	From      string
	To        []string
	Timeout   time.Duration
}

// SMTPPrinter mails approved documents to an email-to-print address
type SMTPPrinter struct {
	opts   SMTPOptions
	logger *zap.Logger
}

// NewSMTPPrinter creates a new SMTP printer
func NewSMTPPrinter(opts SMTPOptions, logger *zap.Logger) *SMTPPrinter {
	if opts.Port == 0 {
		opts.Port = 25
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	return &SMTPPrinter{opts: opts, logger: logger}
}

// Print sends the document as a PDF attachment
func (p *SMTPPrinter) Print(ctx context.Context, job core.PrintJob) error {
	var msg bytes.Buffer
	if err := p.writeMessage(&msg, job); err != nil {
		return fmt.Errorf("failed to build print message: %w", err)
	}
	return p.send(ctx, msg.Bytes())
}

func (p *SMTPPrinter) writeMessage(w io.Writer, job core.PrintJob) error {
	var h mail.Header
	h.SetDate(time.Now())
	h.SetSubject(job.DocumentName)
	h.SetAddressList("From", []*mail.Address{{Address: p.opts.From}})
	to := make([]*mail.Address, 0, len(p.opts.To))
	for _, addr := range p.opts.To {
		to = append(to, &mail.Address{Address: addr})
	}
	h.SetAddressList("To", to)
	if err := h.GenerateMessageID(); err != nil {
		return err
	}

	mw, err := mail.CreateWriter(w, h)
	if err != nil {
		return err
	}

	tw, err := mw.CreateInline()
	if err != nil {
		return err
	}
	var th mail.InlineHeader
	th.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	pw, err := tw.CreatePart(th)
	if err != nil {
		return err
	}
	fmt.Fprintf(pw, "Pages: %s\r\nSubject: %s\r\nFrom: %s\r\n", job.PageRange, job.Subject, job.From)
	if err := pw.Close(); err != nil {
		return err
	}
	if err := tw.Close(); err != nil {
		return err
	}

	var ah mail.AttachmentHeader
	ah.SetContentType("application/pdf", nil)
	ah.SetFilename(job.DocumentName)
	ah.Set("Content-Transfer-Encoding", "base64")
	aw, err := mw.CreateAttachment(ah)
	if err != nil {
		return err
	}
	if _, err := aw.Write(job.Document); err != nil {
		return err
	}
	if err := aw.Close(); err != nil {
		return err
	}

	return mw.Close()
}

func (p *SMTPPrinter) send(ctx context.Context, data []byte) error {
	addr := net.JoinHostPort(p.opts.Host, strconv.Itoa(p.opts.Port))

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	dialer := net.Dialer{Timeout: p.opts.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}

	deadline := time.Now().Add(p.opts.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	var c *smtp.Client
	if p.opts.StartTLS {
		tlsConfig := p.opts.TLSConfig
		if tlsConfig == nil {
			tlsConfig = &tls.Config{ServerName: p.opts.Host}
		}
		c, err = smtp.NewClientStartTLS(conn, tlsConfig)
		if err != nil {
			return fmt.Errorf("STARTTLS failed: %w", err)
		}
	} else {
		c = smtp.NewClient(conn)
		if err := c.Hello(hostname); err != nil {
			c.Close()
			return fmt.Errorf("EHLO failed: %w", err)
		}
	}
	defer c.Close()

	if p.opts.Username != "" {
		if err := c.Auth(sasl.NewPlainClient("", p.opts.Username, p.opts.Password)); err != nil {
			return &core.AuthError{Provider: "smtp", Message: "authentication failed", Err: err}
		}
	}

	if err := c.Mail(p.opts.From, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range p.opts.To {
		if err := c.Rcpt(recipient, nil); err != nil {
			p.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
		} else {
			recipientOK = true
		}
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		p.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}
