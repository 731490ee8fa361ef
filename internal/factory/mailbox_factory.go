package factory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/invoice-printer/internal/adapters/gmail"
	"github.com/mikey/invoice-printer/internal/adapters/imap"
	"github.com/mikey/invoice-printer/internal/adapters/mbox"
	"github.com/mikey/invoice-printer/internal/config"
	"github.com/mikey/invoice-printer/internal/core"
)

// MailboxFactory creates mailboxes based on configuration
type MailboxFactory struct {
	cfg    *config.Config
	creds  *CredentialFactory
	logger *zap.Logger
}

// NewMailboxFactory creates a new mailbox factory
func NewMailboxFactory(cfg *config.Config, creds *CredentialFactory, logger *zap.Logger) *MailboxFactory {
	return &MailboxFactory{
		cfg:    cfg,
		creds:  creds,
		logger: logger,
	}
}

// CreateMailbox creates the mailbox of the configured provider
func (f *MailboxFactory) CreateMailbox(ctx context.Context) (core.Mailbox, error) {
	provider := f.cfg.GetMailbox().Provider
	f.logger.Debug("Creating mailbox", zap.String("provider", provider))

	switch provider {
	case "gmail":
		return f.createGmail(ctx)
	case "imap":
		return f.createIMAP()
	case "mbox":
		mc := f.cfg.GetMbox()
		if mc.Path == "" {
			return nil, fmt.Errorf("mbox.path is required for the mbox provider")
		}
		return mbox.NewMailbox(mc.Path, mc.MaxResults, f.logger)
	default:
		return nil, fmt.Errorf("unsupported mailbox provider: %s", provider)
	}
}

func (f *MailboxFactory) createGmail(ctx context.Context) (core.Mailbox, error) {
	auth, err := f.creds.CreateAuthorizer()
	if err != nil {
		return nil, err
	}
	ts, err := auth.TokenSource(ctx)
	if err != nil {
		return nil, err
	}

	gc := f.cfg.GetGmail()
	return gmail.NewMailbox(ctx, ts, gmail.Options{
		User:       gc.User,
		Query:      gc.Query,
		LabelIDs:   gc.LabelIDs,
		MaxResults: gc.MaxResults,
	}, f.logger)
}

func (f *MailboxFactory) createIMAP() (core.Mailbox, error) {
	ic := f.cfg.GetIMAP()
	if ic.Host == "" || ic.Username == "" {
		return nil, fmt.Errorf("imap.host and imap.username are required for the imap provider")
	}

	password := ic.Password
	if password == "" {
		secrets, err := f.creds.CreateSecrets()
		if err != nil {
			return nil, err
		}
		password, err = secrets.Get(f.cfg.GetCredentials().IMAPPasswordKey)
		if err != nil {
			return nil, err
		}
		if password == "" {
			return nil, &core.AuthError{
				Provider: "imap",
				Message:  "no password configured or stored, run the auth imap command first",
			}
		}
	}

	return imap.NewMailbox(imap.Options{
		Host:       ic.Host,
		Port:       ic.Port,
		Username:   ic.Username,
		Password:   password,
		Security:   ic.Security,
		Mailbox:    ic.Mailbox,
		MaxResults: ic.MaxResults,
	}, f.logger), nil
}
