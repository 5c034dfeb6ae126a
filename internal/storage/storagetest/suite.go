// Package storagetest holds behaviour tests shared by every storage.Provider.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/julianstephens/lessfeed/internal/storage"
)

// Run exercises the Provider contract against stores built by newStore.
// Each subtest gets a fresh store.
func Run(t *testing.T, newStore func(t *testing.T) storage.Provider) {
	t.Run("GetSetRemove", func(t *testing.T) { testGetSetRemove(t, newStore(t)) })
	t.Run("Update", func(t *testing.T) { testUpdate(t, newStore(t)) })
	t.Run("UpdateUnchanged", func(t *testing.T) { testUpdateUnchanged(t, newStore(t)) })
	t.Run("UpdateError", func(t *testing.T) { testUpdateError(t, newStore(t)) })
	t.Run("Keys", func(t *testing.T) { testKeys(t, newStore(t)) })
	t.Run("ConcurrentToggles", func(t *testing.T) { testConcurrentToggles(t, newStore(t)) })
	t.Run("ConcurrentAdds", func(t *testing.T) { testConcurrentAdds(t, newStore(t)) })
}

func testGetSetRemove(t *testing.T, s storage.Provider) {
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v; want absent", ok, err)
	}

	if err := s.Set(ctx, "greeting", []byte("hello")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	v, ok, err := s.Get(ctx, "greeting")
	if err != nil || !ok || string(v) != "hello" {
		t.Fatalf("Get(greeting) = %q, %v, %v", v, ok, err)
	}

	if err := s.Set(ctx, "greeting", []byte("bonjour")); err != nil {
		t.Fatalf("Set overwrite failed: %v", err)
	}
	v, _, _ = s.Get(ctx, "greeting")
	if string(v) != "bonjour" {
		t.Errorf("Get after overwrite = %q, want bonjour", v)
	}

	if err := s.Remove(ctx, "greeting"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "greeting"); ok {
		t.Error("key still present after Remove")
	}
	if err := s.Remove(ctx, "greeting"); err != nil {
		t.Errorf("Remove of absent key returned %v", err)
	}
}

func testUpdate(t *testing.T, s storage.Provider) {
	ctx := context.Background()

	err := s.Update(ctx, "counter", func(cur []byte, ok bool) ([]byte, bool, error) {
		if ok {
			t.Errorf("first Update saw existing value %q", cur)
		}
		return []byte("1"), true, nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	err = s.Update(ctx, "counter", func(cur []byte, ok bool) ([]byte, bool, error) {
		if !ok || string(cur) != "1" {
			t.Errorf("second Update saw %q, %v", cur, ok)
		}
		return []byte("2"), true, nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	v, _, _ := s.Get(ctx, "counter")
	if string(v) != "2" {
		t.Errorf("Get after Update = %q, want 2", v)
	}

	err = s.Update(ctx, "counter", func(cur []byte, ok bool) ([]byte, bool, error) {
		return nil, false, nil
	})
	if err != nil {
		t.Fatalf("Update delete failed: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "counter"); ok {
		t.Error("key present after Update with keep=false")
	}
}

func testUpdateUnchanged(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	err := s.Update(ctx, "k", func(cur []byte, ok bool) ([]byte, bool, error) {
		return nil, false, storage.ErrUnchanged
	})
	if err != nil {
		t.Fatalf("Update returning ErrUnchanged = %v, want nil", err)
	}
	if v, ok, _ := s.Get(ctx, "k"); !ok || string(v) != "v" {
		t.Errorf("value changed to %q, %v", v, ok)
	}
}

func testUpdateError(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	err := s.Update(ctx, "k", func(cur []byte, ok bool) ([]byte, bool, error) {
		return []byte("other"), true, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update error = %v, want boom", err)
	}
	if v, _, _ := s.Get(ctx, "k"); string(v) != "v" {
		t.Errorf("failed Update wrote %q", v)
	}
}

func testKeys(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	for _, k := range []string{"daily_cards_viewed_2025-01-16", "daily_cards_viewed_2025-01-15", "seen_cards_fr", "daily"} {
		if err := s.Set(ctx, k, []byte("[]")); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.Keys(ctx, "daily_cards_viewed_")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	want := []string{"daily_cards_viewed_2025-01-15", "daily_cards_viewed_2025-01-16"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Keys(prefix) = %v, want %v", got, want)
	}

	all, err := s.Keys(ctx, "")
	if err != nil {
		t.Fatalf("Keys(\"\") failed: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("Keys(\"\") returned %d keys, want 4", len(all))
	}
}

// testConcurrentToggles flips distinct ids in one set from many goroutines.
// Without per-key serialization some flips are lost.
func testConcurrentToggles(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	const n = 40

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := storage.ToggleMember(ctx, s, "learned", fmt.Sprintf("card-%02d", i)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("ToggleMember failed: %v", err)
	}

	set, err := storage.GetSet(ctx, s, "learned")
	if err != nil {
		t.Fatal(err)
	}
	if len(set) != n {
		t.Errorf("set has %d members after %d concurrent toggles, want %d", len(set), n, n)
	}
}

func testConcurrentAdds(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	const n = 25

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = storage.UpdateJSON(ctx, s, "count", func(v *int, _ bool) (bool, error) {
				*v++
				return true, nil
			})
		}()
	}
	wg.Wait()

	var got int
	if _, err := storage.GetJSON(ctx, s, "count", &got); err != nil {
		t.Fatal(err)
	}
	if got != n {
		t.Errorf("count = %d after %d concurrent increments, want %d", got, n, n)
	}
}
