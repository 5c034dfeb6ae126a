package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/julianstephens/lessfeed/internal/analytics"
	"github.com/julianstephens/lessfeed/internal/backup"
	"github.com/julianstephens/lessfeed/internal/config"
	"github.com/julianstephens/lessfeed/internal/constants"
	"github.com/julianstephens/lessfeed/internal/content"
	"github.com/julianstephens/lessfeed/internal/feed"
	"github.com/julianstephens/lessfeed/internal/keyring"
	"github.com/julianstephens/lessfeed/internal/logger"
	"github.com/julianstephens/lessfeed/internal/models"
	"github.com/julianstephens/lessfeed/internal/settings"
	"github.com/julianstephens/lessfeed/internal/storage"
	"github.com/julianstephens/lessfeed/internal/storage/postgres"
	"github.com/julianstephens/lessfeed/internal/storage/sqlite"
)

// KeyringTarget selects the connection string stored in the OS keyring.
const KeyringTarget = "keyring"

type Context struct {
	Store  storage.Provider
	Config config.Config

	// Now overrides the wall clock. Nil means time.Now.
	Now func() time.Time
	// OpenBackends overrides Config.Open.
	OpenBackends func(ctx context.Context) (*config.Backends, error)
}

// Clock returns the time source commands should use.
func (c *Context) Clock() func() time.Time {
	if c.Now != nil {
		return c.Now
	}
	return time.Now
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	if _, ok := c.Store.(*sqlite.Store); !ok {
		logger.Debug("Skipping automatic backup for non-file storage")
		return
	}
	mgr := backup.NewManager(c.Store.GetConfigPath())
	if _, err := mgr.CreateBackup(); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// Backends opens the configured content source and analytics sink. When no
// content source is configured, the source fails with ErrNoContentSource so
// cached cards can still be served.
func (c *Context) Backends(ctx context.Context) (*config.Backends, error) {
	open := c.OpenBackends
	if open == nil {
		open = c.Config.Open
	}
	b, err := open(ctx)
	if errors.Is(err, config.ErrNoContentSource) {
		logger.Warn("No content source configured, serving cached cards only")
		return &config.Backends{
			Source: content.SourceFunc(func(context.Context, models.Lang) ([]models.Card, error) {
				return nil, config.ErrNoContentSource
			}),
			Sink: analytics.LogSink{},
		}, nil
	}
	return b, err
}

// NewEngine builds a feed engine over the store and the configured backends.
// The returned close func saves pending analytics and releases the backends.
func (c *Context) NewEngine(ctx context.Context) (*feed.Engine, func() error, error) {
	if lang, ok := c.Config.LangOverride(); ok {
		if _, err := settings.New(c.Store).SetLang(ctx, lang); err != nil {
			return nil, nil, fmt.Errorf("failed to apply language override: %w", err)
		}
	}

	b, err := c.Backends(ctx)
	if err != nil {
		return nil, nil, err
	}

	now := c.Clock()
	repo := content.NewRepository(b.Source, content.NewCache(c.Store, content.WithCacheClock(now)))
	tracker := analytics.NewTracker(c.Store, b.Sink)
	engine := feed.New(c.Store, repo, feed.WithClock(now), feed.WithAnalytics(tracker))

	closeFn := func() error {
		return errors.Join(engine.Close(), b.Close())
	}
	return engine, closeFn, nil
}

// IsPostgres reports whether target is a PostgreSQL connection string.
func IsPostgres(target string) bool {
	return strings.HasPrefix(target, "postgres://") || strings.HasPrefix(target, "postgresql://")
}

// OpenStore picks the storage provider for target: a PostgreSQL URL without
// credentials, "keyring" for the connection string kept in the OS keyring,
// or a SQLite file path. LESSFEED_DB_CONNECTION replaces the default path.
func OpenStore(target string, cfg config.Config) (storage.Provider, error) {
	switch {
	case IsPostgres(target):
		if valid, err := postgres.ValidateConnString(target); !valid {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("PostgreSQL connection strings with embedded credentials are not allowed: use %s, 'lessfeed keyring set' or a .pgpass file", config.EnvDBConnection)
			}
			return nil, err
		}
		return postgres.New(target), nil
	case target == KeyringTarget:
		connStr, err := keyring.GetConnectionString()
		if err != nil {
			return nil, fmt.Errorf("failed to read connection string from keyring: %w", err)
		}
		if !IsPostgres(connStr) && !strings.Contains(connStr, "host=") {
			return nil, fmt.Errorf("keyring connection string is not a PostgreSQL connection string")
		}
		return postgres.New(connStr), nil
	case cfg.DBConnection != "" && (target == "" || target == constants.DefaultConfigPath):
		if !IsPostgres(cfg.DBConnection) {
			return nil, fmt.Errorf("%s must be a PostgreSQL URL", config.EnvDBConnection)
		}
		return postgres.New(cfg.DBConnection), nil
	}

	if target == "" {
		target = constants.DefaultConfigPath
	}
	path, err := ExpandPath(target)
	if err != nil {
		return nil, err
	}
	return sqlite.NewStore(path), nil
}

// ExpandPath resolves a leading "~" to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// ConfigDir returns the directory holding logs and backups for store.
func ConfigDir(store storage.Provider) string {
	if _, ok := store.(*sqlite.Store); ok {
		return filepath.Dir(store.GetConfigPath())
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, constants.AppName)
	}
	return filepath.Join(os.TempDir(), constants.AppName)
}
