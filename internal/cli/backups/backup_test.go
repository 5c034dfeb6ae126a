package backups

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/lessfeed/internal/backup"
	"github.com/julianstephens/lessfeed/internal/cli"
	"github.com/julianstephens/lessfeed/internal/constants"
	"github.com/julianstephens/lessfeed/internal/storage"
	"github.com/julianstephens/lessfeed/internal/storage/sqlite"
)

func setupTestDB(t *testing.T) (*cli.Context, *time.Time) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "lessfeed.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	now := time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)
	ctx := &cli.Context{
		Store: store,
		Now:   func() time.Time { return now },
	}
	return ctx, &now
}

func stubStdin(t *testing.T, input string) {
	t.Helper()
	orig := stdin
	stdin = strings.NewReader(input)
	t.Cleanup(func() { stdin = orig })
}

func TestBackupCreateAndList(t *testing.T) {
	ctx, _ := setupTestDB(t)

	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Errorf("list with no backups failed: %v", err)
	}
	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatalf("backup create failed: %v", err)
	}

	backups, err := backup.NewManager(ctx.Store.GetConfigPath()).ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 1 {
		t.Fatalf("got %d backups, want 1", len(backups))
	}
	if got := filepath.Base(backups[0].Path); got != "lessfeed-20250115-0800.db" {
		t.Errorf("backup name = %s", got)
	}
	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Errorf("list failed: %v", err)
	}
}

func TestBackupRejectsMemoryStore(t *testing.T) {
	ctx := &cli.Context{Store: storage.NewMemoryStore()}
	if err := (&BackupCreateCmd{}).Run(ctx); err == nil {
		t.Error("expected an error for non-file storage")
	}
}

func TestBackupRestore(t *testing.T) {
	bg := context.Background()
	ctx, now := setupTestDB(t)

	if _, err := storage.AddMembers(bg, ctx.Store, constants.KeyLearned, "card-01"); err != nil {
		t.Fatal(err)
	}
	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := storage.AddMembers(bg, ctx.Store, constants.KeyLearned, "card-02"); err != nil {
		t.Fatal(err)
	}
	*now = now.Add(time.Minute)

	// Declining leaves the database untouched
	stubStdin(t, "n\n")
	if err := (&BackupRestoreCmd{BackupFile: "lessfeed-20250115-0800.db"}).Run(ctx); err != nil {
		t.Fatalf("cancelled restore failed: %v", err)
	}
	learned, err := storage.GetSet(bg, ctx.Store, constants.KeyLearned)
	if err != nil {
		t.Fatal(err)
	}
	if len(learned) != 2 {
		t.Fatalf("cancelled restore changed data: %v", learned)
	}

	if err := (&BackupRestoreCmd{BackupFile: "lessfeed-20250115-0800.db", Yes: true}).Run(ctx); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if err := ctx.Store.Load(); err != nil {
		t.Fatalf("reload after restore failed: %v", err)
	}
	learned, err = storage.GetSet(bg, ctx.Store, constants.KeyLearned)
	if err != nil {
		t.Fatal(err)
	}
	if got := storage.SortedMembers(learned); len(got) != 1 || got[0] != "card-01" {
		t.Errorf("learned after restore = %v, want [card-01]", got)
	}
}

func TestBackupRestoreMissingFile(t *testing.T) {
	ctx, _ := setupTestDB(t)
	if err := (&BackupRestoreCmd{BackupFile: "nope.db", Yes: true}).Run(ctx); err == nil {
		t.Error("expected an error for a missing backup")
	}
}
