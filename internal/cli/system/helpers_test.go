package system

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/lessfeed/internal/cli"
	"github.com/julianstephens/lessfeed/internal/storage/sqlite"
)

var testNow = time.Date(2025, 1, 15, 8, 0, 0, 0, time.UTC)

func setupTestContext(t *testing.T) (*cli.Context, *sqlite.Store) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "lessfeed.db")

	store := sqlite.NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})

	ctx := &cli.Context{
		Store: store,
		Now:   func() time.Time { return testNow },
	}
	return ctx, store
}
