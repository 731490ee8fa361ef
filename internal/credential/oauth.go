package credential

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailv1 "google.golang.org/api/gmail/v1"

	"github.com/mikey/invoice-printer/internal/core"
)

// LoadOAuthConfig reads an installed-app client secret file downloaded from
// the Google Cloud console
func LoadOAuthConfig(path string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &core.AuthError{
			Provider: "gmail",
			Message:  fmt.Sprintf("client credentials file %s not found", path),
		}
	}
	if err != nil {
		return nil, fmt.Errorf("reading client credentials: %w", err)
	}

	cfg, err := google.ConfigFromJSON(data, gmailv1.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parsing client credentials: %w", err)
	}
	return cfg, nil
}

// Authorizer runs the OAuth consent flow and hands out token sources
type Authorizer struct {
	cfg    *oauth2.Config
	store  TokenStore
	logger *zap.Logger
}

// NewAuthorizer creates a new authorizer
func NewAuthorizer(cfg *oauth2.Config, store TokenStore, logger *zap.Logger) *Authorizer {
	return &Authorizer{cfg: cfg, store: store, logger: logger}
}

// AuthCodeURL returns the consent page the user has to visit
func (a *Authorizer) AuthCodeURL(state string) string {
	return a.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades the code shown on the consent page for a token and stores it
func (a *Authorizer) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := a.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, &core.AuthError{Provider: "gmail", Message: "error retrieving access token", Err: err}
	}
	if err := a.store.Save(token); err != nil {
		return nil, err
	}
	a.logger.Info("Token stored", zap.Time("expiry", token.Expiry))
	return token, nil
}

// TokenSource returns a source built on the stored token. It fails with an
// AuthError when no token has been stored yet. Refreshed tokens are written
// back to the store.
func (a *Authorizer) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	token, err := a.store.Load()
	if err != nil {
		return nil, err
	}
	return &persistingSource{
		base:   a.cfg.TokenSource(ctx, token),
		store:  a.store,
		last:   token.AccessToken,
		logger: a.logger,
	}, nil
}

type persistingSource struct {
	base   oauth2.TokenSource
	store  TokenStore
	logger *zap.Logger

	mu   sync.Mutex
	last string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token.AccessToken != s.last {
		s.last = token.AccessToken
		if err := s.store.Save(token); err != nil {
			s.logger.Warn("Failed to persist refreshed token", zap.Error(err))
		}
	}
	return token, nil
}
