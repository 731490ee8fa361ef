package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

// KeyringConfig selects and unlocks the keyring backend
type KeyringConfig struct {
	ServiceName  string
	FileDir      string
	FilePassword string
	// Backends restricts the allowed backends; empty allows the platform defaults
	Backends []string
}

// OpenKeyring returns a configured keyring instance.
func OpenKeyring(cfg KeyringConfig) (keyring.Keyring, error) {
	backends := []keyring.BackendType{
		keyring.KeychainBackend,
		keyring.SecretServiceBackend,
		keyring.WinCredBackend,
		keyring.PassBackend,
		keyring.FileBackend,
	}
	if len(cfg.Backends) > 0 {
		backends = backends[:0]
		for _, b := range cfg.Backends {
			backends = append(backends, keyring.BackendType(b))
		}
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:              cfg.ServiceName,
		AllowedBackends:          backends,
		FileDir:                  cfg.FileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt(cfg.FilePassword),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Secrets reads and writes plain secrets such as the IMAP password
type Secrets struct {
	ring keyring.Keyring
}

// NewSecrets creates a new secret accessor
func NewSecrets(ring keyring.Keyring) *Secrets {
	return &Secrets{ring: ring}
}

// Get retrieves a secret by key. A missing key yields an empty string.
func (s *Secrets) Get(key string) (string, error) {
	item, err := s.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores a secret by key
func (s *Secrets) Set(key, value string) error {
	if err := s.ring.Set(keyring.Item{Key: key, Data: []byte(value)}); err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}
