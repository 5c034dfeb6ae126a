package system

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/lessfeed/internal/cli"
	"github.com/julianstephens/lessfeed/internal/storage"
	"github.com/julianstephens/lessfeed/internal/storage/sqlite"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting existing database before initialization."`
	Source string `help:"Source database path or connection string to migrate data from."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	fmt.Printf("Initialized lessfeed storage at: %s\n", ctx.Store.GetConfigPath())

	if c.Source != "" {
		fmt.Printf("Migrating data from: %s\n", c.Source)
		n, err := c.migrateData(ctx)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Printf("Migration completed successfully! Copied %d keys.\n", n)
	}

	return nil
}

// reset deletes the destination database file. Only file storage can be reset.
func (c *InitCmd) reset(ctx *cli.Context) error {
	if _, ok := ctx.Store.(*sqlite.Store); !ok {
		return fmt.Errorf("--force is only supported for SQLite storage")
	}

	dbPath := ctx.Store.GetConfigPath()
	if absDbPath, err := filepath.Abs(dbPath); err == nil {
		dbPath = absDbPath
	}
	if c.Source != "" {
		absSource, err := filepath.Abs(c.Source)
		if err == nil && absSource == dbPath {
			return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
		}
	}

	if _, err := os.Stat(dbPath); err == nil {
		// Close first to release file locks
		if err := ctx.Store.Close(); err != nil {
			return fmt.Errorf("failed to close existing database: %w", err)
		}
		if err := os.Remove(dbPath); err != nil {
			return fmt.Errorf("failed to delete existing database: %w", err)
		}
		fmt.Printf("Deleted existing database at: %s\n", dbPath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access existing database: %w", err)
	}
	return nil
}

func (c *InitCmd) migrateData(ctx *cli.Context) (int, error) {
	var (
		source storage.Provider
		err    error
	)
	if cli.IsPostgres(c.Source) {
		source, err = cli.OpenStore(c.Source, ctx.Config)
		if err != nil {
			return 0, err
		}
	} else {
		source = sqlite.NewStore(c.Source)
	}

	if err := source.Load(); err != nil {
		return 0, fmt.Errorf("failed to load source database: %w", err)
	}
	defer source.Close()

	return storage.Copy(context.Background(), ctx.Store, source)
}
