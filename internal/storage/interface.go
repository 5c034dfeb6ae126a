package storage

import (
	"context"
	"errors"
)

// ErrUnchanged may be returned by an UpdateFunc to leave the stored value as is.
var ErrUnchanged = errors.New("storage: value unchanged")

// UpdateFunc computes the next value of a key from its current value.
// Returning keep=false removes the key.
type UpdateFunc func(cur []byte, ok bool) (next []byte, keep bool, err error)

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Values
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error

	// Update runs a read-modify-write of one key. Calls for the same key are
	// serialized; fn must not call back into the provider.
	Update(ctx context.Context, key string, fn UpdateFunc) error

	// Keys lists the stored keys starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Utils
	GetConfigPath() string
}

// Migrator is implemented by the SQL-backed providers.
type Migrator interface {
	// Migrate applies pending schema migrations, reporting each to logFn.
	Migrate(logFn func(string)) (int, error)
	// SchemaVersion returns the applied and the latest known schema version.
	SchemaVersion() (current, latest int, err error)
}
