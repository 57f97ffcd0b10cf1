package identity

import (
	"errors"
	"fmt"

	"github.com/aurora-planner/aurora/internal/settings"
	"github.com/zalando/go-keyring"
)

const keyringUser = "session-token"

// ErrNoToken is returned when no session token is stored.
var ErrNoToken = errors.New("identity: no session token stored")

// TokenStore persists the session token.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Delete() error
}

// KeyringTokenStore keeps the session token in the OS keyring.
type KeyringTokenStore struct {
	service string
}

// NewKeyringTokenStore constructs a KeyringTokenStore scoped to the Aurora service name.
func NewKeyringTokenStore() *KeyringTokenStore {
	return &KeyringTokenStore{service: settings.AppName}
}

// Load reads the token.
func (s *KeyringTokenStore) Load() (string, error) {
	token, err := keyring.Get(s.service, keyringUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("identity: read keyring: %w", err)
	}
	return token, nil
}

// Save stores the token.
func (s *KeyringTokenStore) Save(token string) error {
	if token == "" {
		return errors.New("identity: token cannot be empty")
	}
	if err := keyring.Set(s.service, keyringUser, token); err != nil {
		return fmt.Errorf("identity: write keyring: %w", err)
	}
	return nil
}

// Delete removes the token.
func (s *KeyringTokenStore) Delete() error {
	if err := keyring.Delete(s.service, keyringUser); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNoToken
		}
		return fmt.Errorf("identity: delete keyring: %w", err)
	}
	return nil
}
