package credential

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"
	"golang.org/x/oauth2"

	"github.com/mikey/invoice-printer/internal/core"
)

// TokenStore persists the OAuth token of the mailbox account
type TokenStore interface {
	Load() (*oauth2.Token, error)
	Save(token *oauth2.Token) error
}

func missingToken(where string, err error) error {
	return &core.AuthError{
		Provider: "gmail",
		Message:  fmt.Sprintf("no stored token in %s, run the auth command first", where),
		Err:      err,
	}
}

// FileTokenStore keeps the token as a JSON file
type FileTokenStore struct {
	path string
}

// NewFileTokenStore creates a new file token store
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Load reads the stored token
func (s *FileTokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, missingToken(s.path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, missingToken(s.path, err)
	}
	return &token, nil
}

// Save writes the token with owner-only permissions
func (s *FileTokenStore) Save(token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating token directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}

// KeyringTokenStore keeps the token in the system keyring
type KeyringTokenStore struct {
	ring keyring.Keyring
	key  string
}

// NewKeyringTokenStore creates a token store backed by ring
func NewKeyringTokenStore(ring keyring.Keyring, key string) *KeyringTokenStore {
	return &KeyringTokenStore{ring: ring, key: key}
}

// Load reads the stored token
func (s *KeyringTokenStore) Load() (*oauth2.Token, error) {
	item, err := s.ring.Get(s.key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, missingToken("keyring item "+s.key, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("getting credential %q: %w", s.key, err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(item.Data, &token); err != nil {
		return nil, missingToken("keyring item "+s.key, err)
	}
	return &token, nil
}

// Save stores the token
func (s *KeyringTokenStore) Save(token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	err = s.ring.Set(keyring.Item{
		Key:   s.key,
		Data:  data,
		Label: "invoice-printer OAuth token",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", s.key, err)
	}
	return nil
}
