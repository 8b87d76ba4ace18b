// Package secret stores the hosted API key in the operating system keyring.
package secret

import (
	"os"
	"os/user"

	"github.com/pkg/errors"
	"github.com/zalando/go-keyring"
)

// Service is the keyring service name the key is filed under.
const Service = "BetterAdvancedPaste"

// Store reads and writes a single secret.
type Store interface {
	// Get returns the secret, or "" when none is stored.
	Get() (string, error)
	Set(value string) error
	Clear() error
}

// Keyring is a Store backed by the OS credential store, keyed by
// (Service, User).
type Keyring struct {
	Service string
	User    string
}

// NewKeyring returns a keyring store for the current OS user.
func NewKeyring() *Keyring {
	return &Keyring{Service: Service, User: CurrentUser()}
}

func (k *Keyring) Get() (string, error) {
	v, err := keyring.Get(k.Service, k.User)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "read keyring %s/%s", k.Service, k.User)
	}
	return v, nil
}

func (k *Keyring) Set(value string) error {
	if value == "" {
		return errors.New("refusing to store an empty secret")
	}
	if err := keyring.Set(k.Service, k.User, value); err != nil {
		return errors.Wrapf(err, "write keyring %s/%s", k.Service, k.User)
	}
	return nil
}

// Clear removes the secret. Clearing a missing secret is not an error.
func (k *Keyring) Clear() error {
	err := keyring.Delete(k.Service, k.User)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return errors.Wrapf(err, "delete keyring %s/%s", k.Service, k.User)
	}
	return nil
}

// CurrentUser returns the OS login name, falling back to $USER/$USERNAME.
func CurrentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if v := os.Getenv("USER"); v != "" {
		return v
	}
	if v := os.Getenv("USERNAME"); v != "" {
		return v
	}
	return "default"
}
