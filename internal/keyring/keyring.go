package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/lessfeed/internal/constants"
)

var (
	// ErrNotFound is returned when no credentials are found in the keyring
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Secret names a credential lessfeed keeps in the OS keyring.
type Secret string

const (
	// SecretDatabase is the Postgres connection string.
	SecretDatabase Secret = constants.DefaultKeyringUser
	// SecretContentKey is the content API (Supabase anon) key.
	SecretContentKey Secret = constants.ContentKeyringUser
)

// ParseSecret maps a CLI-facing name to a Secret.
func ParseSecret(name string) (Secret, error) {
	switch name {
	case "db", "database", string(SecretDatabase):
		return SecretDatabase, nil
	case "content", "content-key", string(SecretContentKey):
		return SecretContentKey, nil
	}
	return "", fmt.Errorf("unknown secret %q (expected db or content)", name)
}

// Get retrieves a secret from the OS keyring.
// Returns ErrNotFound if nothing is stored under that name.
func Get(secret Secret) (string, error) {
	value, err := keyring.Get(constants.AppName, string(secret))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return value, nil
}

// Set stores a secret in the OS keyring.
func Set(secret Secret, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", secret)
	}
	if err := keyring.Set(constants.AppName, string(secret), value); err != nil {
		return fmt.Errorf("failed to store credentials in keyring: %w", err)
	}
	return nil
}

// Delete removes a secret from the OS keyring.
func Delete(secret Secret) error {
	err := keyring.Delete(constants.AppName, string(secret))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}
	return nil
}

// GetConnectionString retrieves the database connection string from the OS keyring.
func GetConnectionString() (string, error) {
	return Get(SecretDatabase)
}

// SetConnectionString stores the database connection string in the OS keyring.
func SetConnectionString(connStr string) error {
	return Set(SecretDatabase, connStr)
}

// DeleteConnectionString removes the database connection string from the OS keyring.
func DeleteConnectionString() error {
	return Delete(SecretDatabase)
}

// GetContentKey retrieves the content API key from the OS keyring.
func GetContentKey() (string, error) {
	return Get(SecretContentKey)
}

// IsAvailable checks if the OS keyring is available on the current system.
// This is a best-effort check and may not catch all failure scenarios.
func IsAvailable() bool {
	// ErrNotFound still means the keyring answered.
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
