package factory

import (
	"fmt"
	"sync"

	"github.com/99designs/keyring"
	"go.uber.org/zap"

	"github.com/mikey/invoice-printer/internal/config"
	"github.com/mikey/invoice-printer/internal/credential"
)

// CredentialFactory creates credential stores based on configuration.
// The keyring is opened on first use only.
type CredentialFactory struct {
	cfg    *config.Config
	logger *zap.Logger

	once    sync.Once
	ring    keyring.Keyring
	ringErr error
}

// NewCredentialFactory creates a new credential factory
func NewCredentialFactory(cfg *config.Config, logger *zap.Logger) *CredentialFactory {
	return &CredentialFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// Keyring opens the configured system keyring
func (f *CredentialFactory) Keyring() (keyring.Keyring, error) {
	f.once.Do(func() {
		kc := f.cfg.GetCredentials().Keyring
		f.ring, f.ringErr = credential.OpenKeyring(credential.KeyringConfig{
			ServiceName:  kc.Service,
			FileDir:      kc.FileDir,
			FilePassword: kc.FilePassword,
			Backends:     kc.Backends,
		})
		if f.ringErr == nil {
			f.logger.Debug("Keyring opened", zap.String("service", kc.Service))
		}
	})
	return f.ring, f.ringErr
}

// CreateTokenStore creates the OAuth token store
func (f *CredentialFactory) CreateTokenStore() (credential.TokenStore, error) {
	creds := f.cfg.GetCredentials()
	switch creds.TokenStore {
	case "file":
		return credential.NewFileTokenStore(creds.TokenFile), nil
	case "keyring":
		ring, err := f.Keyring()
		if err != nil {
			return nil, err
		}
		return credential.NewKeyringTokenStore(ring, creds.TokenKey), nil
	default:
		return nil, fmt.Errorf("unsupported token store: %s", creds.TokenStore)
	}
}

// CreateAuthorizer creates the Gmail OAuth authorizer
func (f *CredentialFactory) CreateAuthorizer() (*credential.Authorizer, error) {
	oauthCfg, err := credential.LoadOAuthConfig(f.cfg.GetCredentials().OAuthClientFile)
	if err != nil {
		return nil, err
	}
	store, err := f.CreateTokenStore()
	if err != nil {
		return nil, err
	}
	return credential.NewAuthorizer(oauthCfg, store, f.logger), nil
}

// CreateSecrets creates the keyring-backed secret accessor
func (f *CredentialFactory) CreateSecrets() (*credential.Secrets, error) {
	ring, err := f.Keyring()
	if err != nil {
		return nil, err
	}
	return credential.NewSecrets(ring), nil
}
