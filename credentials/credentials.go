// Package credentials provides secure secret storage for the lead-agent CLI.
// Secrets live in the system keyring:
//   - macOS: Keychain
//   - Windows: Credential Manager
//   - Linux: Secret Service (libsecret)
//
// For CI and headless environments the environment variables
// LEADAGENT_API_KEY and LEADAGENT_SMTP_PASSWORD take precedence over the
// keyring.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// keyringService is the service name used in the system keyring.
	keyringService = "lead-agent"

	// SecretAPIKey identifies the completion-API key.
	SecretAPIKey = "llm-api-key"
	// SecretSMTPPassword identifies the SMTP relay password.
	SecretSMTPPassword = "smtp-password"
)

// Environment fallbacks, checked before the keyring.
const (
	envAPIKey       = "LEADAGENT_API_KEY"
	envSMTPPassword = "LEADAGENT_SMTP_PASSWORD"
)

// Common errors.
var (
	// ErrNotStored is returned when a secret exists in neither the
	// environment nor the keyring.
	ErrNotStored = errors.New("secret not stored")
	// ErrKeyringUnavailable indicates the system keyring is not available.
	ErrKeyringUnavailable = errors.New("system keyring unavailable")
	// ErrUnknownSecret is returned for a secret name this store does not
	// manage.
	ErrUnknownSecret = errors.New("unknown secret name")
)

// Store reads and writes lead-agent secrets.
type Store struct {
	service string
}

// NewStore creates a credential store backed by the system keyring.
func NewStore() *Store {
	return &Store{service: keyringService}
}

// envFor maps a secret name to its environment fallback.
func envFor(name string) (string, error) {
	switch name {
	case SecretAPIKey:
		return envAPIKey, nil
	case SecretSMTPPassword:
		return envSMTPPassword, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSecret, name)
	}
}

// Get returns a secret. The environment variable wins over the keyring so
// CI runs never need a keyring at all.
func (s *Store) Get(name string) (string, error) {
	env, err := envFor(name)
	if err != nil {
		return "", err
	}
	if v := os.Getenv(env); v != "" {
		return v, nil
	}

	secret, err := keyring.Get(s.service, name)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("%s (set %s or run 'lead-agent auth set'): %w", name, env, ErrNotStored)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return secret, nil
}

// GetOptional returns a secret or empty when it is simply not stored.
// Keyring failures other than not-found still surface.
func (s *Store) GetOptional(name string) (string, error) {
	secret, err := s.Get(name)
	if errors.Is(err, ErrNotStored) {
		return "", nil
	}
	return secret, err
}

// Set stores a secret in the system keyring.
func (s *Store) Set(name, value string) error {
	if _, err := envFor(name); err != nil {
		return err
	}
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("empty secret for %s", name)
	}
	if err := keyring.Set(s.service, name, value); err != nil {
		return fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return nil
}

// Delete removes a secret from the system keyring. Deleting a secret that
// was never stored is not an error.
func (s *Store) Delete(name string) error {
	if _, err := envFor(name); err != nil {
		return err
	}
	err := keyring.Delete(s.service, name)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return nil
}
