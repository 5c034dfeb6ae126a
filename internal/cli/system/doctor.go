package system

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/julianstephens/lessfeed/internal/backup"
	"github.com/julianstephens/lessfeed/internal/cli"
	"github.com/julianstephens/lessfeed/internal/content"
	"github.com/julianstephens/lessfeed/internal/keyring"
	"github.com/julianstephens/lessfeed/internal/settings"
	"github.com/julianstephens/lessfeed/internal/storage"
	"github.com/julianstephens/lessfeed/internal/storage/sqlite"
	"github.com/julianstephens/lessfeed/internal/validation"
)

type DoctorCmd struct{}

type doctorCheck struct {
	name string
	// needsDB checks are skipped when the database is unreachable.
	needsDB bool
	// warn checks report a warning instead of failing.
	warn bool
	run  func(context.Context, *cli.Context) error
}

var doctorChecks = []doctorCheck{
	{name: "Schema version", needsDB: true, run: checkSchemaVersion},
	{name: "Migrations complete", needsDB: true, run: checkMigrationsComplete},
	{name: "Backups present", warn: true, run: checkBackupsPresent},
	{name: "Data validation", needsDB: true, run: checkValidation},
	{name: "Card cache", needsDB: true, warn: true, run: checkCardCache},
	{name: "Content source", warn: true, run: checkContentSource},
	{name: "Keyring", warn: true, run: checkKeyring},
	{name: "Clock/timezone", run: checkClockTimezone},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false
	dbReachable := false

	if err := checkDBReachable(ctx); err != nil {
		fmt.Printf("❌ Database reachable: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
	} else {
		fmt.Printf("✓ Database reachable: OK\n")
		dbReachable = true
	}

	for _, check := range doctorChecks {
		if check.needsDB && !dbReachable {
			fmt.Printf("⊘ %s: SKIPPED (database not reachable)\n", check.name)
			continue
		}
		err := check.run(bg, ctx)
		switch {
		case err == nil:
			fmt.Printf("✓ %s: OK\n", check.name)
		case check.warn:
			fmt.Printf("⚠ %s: WARNING\n", check.name)
			fmt.Printf("   %v\n", err)
		default:
			fmt.Printf("❌ %s: FAIL\n", check.name)
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}

	if sqliteStore, ok := ctx.Store.(*sqlite.Store); ok {
		db := sqliteStore.GetDB()
		if db == nil {
			return fmt.Errorf("database connection is nil")
		}
		var result int
		if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}

	return nil
}

func schemaVersions(ctx *cli.Context) (int, int, bool, error) {
	m, ok := ctx.Store.(storage.Migrator)
	if !ok {
		return 0, 0, false, nil
	}
	current, latest, err := m.SchemaVersion()
	if err != nil {
		return 0, 0, true, fmt.Errorf("failed to read schema version: %w", err)
	}
	return current, latest, true, nil
}

func checkSchemaVersion(_ context.Context, ctx *cli.Context) error {
	current, latest, ok, err := schemaVersions(ctx)
	if err != nil || !ok {
		return err
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	return nil
}

func checkMigrationsComplete(_ context.Context, ctx *cli.Context) error {
	current, latest, ok, err := schemaVersions(ctx)
	if err != nil || !ok {
		return err
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d (run 'lessfeed migrate')", current, latest)
	}
	return nil
}

func checkBackupsPresent(_ context.Context, ctx *cli.Context) error {
	if _, ok := ctx.Store.(*sqlite.Store); !ok {
		return nil
	}
	mgr := backup.NewManager(ctx.Store.GetConfigPath())
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'lessfeed backup create'")
	}

	return nil
}

func checkValidation(bg context.Context, ctx *cli.Context) error {
	result, err := validation.New(ctx.Store).Validate(bg)
	if err != nil {
		return err
	}
	if result.HasConflicts() {
		return fmt.Errorf("%d conflicts found (run 'lessfeed validate --fix')", len(result.Conflicts))
	}
	return nil
}

func checkCardCache(bg context.Context, ctx *cli.Context) error {
	s, err := settings.New(ctx.Store).Get(bg)
	if err != nil {
		return err
	}
	cache := content.NewCache(ctx.Store, content.WithCacheClock(ctx.Clock()))
	cached, ok := cache.Load(bg, s.LangValue())
	if !ok {
		return fmt.Errorf("no cached cards for %q - they will be fetched on next launch", s.Lang)
	}
	if !cache.IsFresh(cached) {
		return fmt.Errorf("cached cards for %q are stale (saved %s)", s.Lang, time.UnixMilli(cached.SavedAt).Format(time.RFC3339))
	}
	return nil
}

func checkContentSource(_ context.Context, ctx *cli.Context) error {
	cfg := ctx.Config
	switch {
	case cfg.ContentFile != "":
		if _, err := os.Stat(cfg.ContentFile); err != nil {
			return fmt.Errorf("content file unreadable: %w", err)
		}
	case cfg.SupabaseURL == "":
		return fmt.Errorf("no content source configured - only cached cards can be shown")
	}
	return nil
}

func checkKeyring(context.Context, *cli.Context) error {
	if !keyring.IsAvailable() {
		return fmt.Errorf("OS keyring is not available - secrets must come from the environment")
	}
	return nil
}

func checkClockTimezone(_ context.Context, ctx *cli.Context) error {
	now := ctx.Clock()()

	// Check if time is in a reasonable range (after 2020 and before 2100)
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}

	return nil
}
