package postgres

import (
	"context"
	"fmt"
	"os"
	"slices"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/lessfeed/internal/constants"
	"github.com/julianstephens/lessfeed/internal/storage"
	"github.com/julianstephens/lessfeed/internal/storage/storagetest"
)

func openIntegrationStore(t *testing.T, connStr string) *Store {
	t.Helper()
	store := New(connStr)
	if err := store.Init(); err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// TestStore_Integration runs the provider suite against a real database.
// Set POSTGRES_TEST_URL environment variable to run this test
// Example: POSTGRES_TEST_URL="postgres://lessfeed_user@localhost:5432/lessfeed_test?sslmode=disable"
func TestStore_Integration(t *testing.T) {
	connStr := os.Getenv("POSTGRES_TEST_URL")
	if connStr == "" {
		t.Skip("POSTGRES_TEST_URL not set, skipping PostgreSQL integration test")
	}

	storagetest.Run(t, func(t *testing.T) storage.Provider {
		store := openIntegrationStore(t, connStr)
		if _, err := store.db.Exec("DELETE FROM kv"); err != nil {
			t.Fatalf("Failed to clear kv: %v", err)
		}
		return store
	})

	t.Run("Load", func(t *testing.T) {
		store := New(connStr)
		if err := store.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		defer store.Close()
		if _, _, err := store.Get(context.Background(), "settings_v1"); err != nil {
			t.Errorf("Get after Load failed: %v", err)
		}
	})
}

// Two processes sharing one database only have the row lock between them,
// so each store gets its own in-process key locks here.
func TestUpdateAcrossStoresLosesNothing(t *testing.T) {
	connStr := os.Getenv("POSTGRES_TEST_URL")
	if connStr == "" {
		t.Skip("POSTGRES_TEST_URL not set, skipping PostgreSQL integration test")
	}

	tests := []struct {
		name    string
		key     string
		workers int
	}{
		{name: "favorites set", key: constants.KeyFavorites, workers: 12},
		{name: "learned set", key: constants.KeyLearned, workers: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			stores := []*Store{openIntegrationStore(t, connStr), openIntegrationStore(t, connStr)}
			if err := stores[0].Remove(ctx, tt.key); err != nil {
				t.Fatalf("Remove failed: %v", err)
			}

			var g errgroup.Group
			want := make([]string, 0, tt.workers)
			for i := range tt.workers {
				id := fmt.Sprintf("card-%02d", i)
				want = append(want, id)
				p := stores[i%len(stores)]
				g.Go(func() error {
					_, err := storage.AddMembers(ctx, p, tt.key, id)
					return err
				})
			}
			if err := g.Wait(); err != nil {
				t.Fatalf("concurrent AddMembers failed: %v", err)
			}

			set, err := storage.GetSet(ctx, stores[1], tt.key)
			if err != nil {
				t.Fatalf("GetSet failed: %v", err)
			}
			if got := storage.SortedMembers(set); !slices.Equal(got, want) {
				t.Errorf("members = %v, want %v", got, want)
			}
		})
	}
}

func TestNewSetsSearchPath(t *testing.T) {
	s := New("postgres://user@localhost:5432/db")
	if s.connStr != "postgres://user@localhost:5432/db?search_path=lessfeed" {
		t.Errorf("connStr = %q", s.connStr)
	}
	dsn := New("host=localhost dbname=db")
	if dsn.connStr != "host=localhost dbname=db search_path=lessfeed" {
		t.Errorf("dsn connStr = %q", dsn.connStr)
	}
	if New("host=x search_path=custom").connStr != "host=x search_path=custom" {
		t.Error("existing search_path was overwritten")
	}
	if s.GetConfigPath() != "postgresql" {
		t.Errorf("GetConfigPath() = %q", s.GetConfigPath())
	}
}
