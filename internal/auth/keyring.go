package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringService is the service name used for keyring entries.
const KeyringService = "csrv"

// ErrNoSecret is returned when no password is stored for an account.
var ErrNoSecret = errors.New("no stored password")

// Keyring stores panel passwords in the OS keyring (macOS Keychain, Linux
// Secret Service, Windows Credential Manager), keyed by email.
type Keyring struct {
	Service string
}

func NewKeyring() *Keyring {
	return &Keyring{Service: KeyringService}
}

func (k *Keyring) Save(email, password string) error {
	if err := keyring.Set(k.Service, email, password); err != nil {
		return fmt.Errorf("store password: %w", err)
	}
	return nil
}

func (k *Keyring) Load(email string) (string, error) {
	pw, err := keyring.Get(k.Service, email)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoSecret
	}
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return pw, nil
}

// Delete removes the stored password. Deleting a missing entry is not an error.
func (k *Keyring) Delete(email string) error {
	err := keyring.Delete(k.Service, email)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete password: %w", err)
	}
	return nil
}
