package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/julianstephens/lessfeed/internal/logger"
)

// GetJSON decodes the value at key into dst and reports whether it was found.
// dst must be a non-nil pointer. A value that fails to decode is logged,
// reported as not found, and leaves dst untouched.
func GetJSON(ctx context.Context, p Provider, key string, dst any) (bool, error) {
	raw, ok, err := p.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	// Decode into a scratch value first: Unmarshal fills dst partially
	// before it reports a type error.
	scratch := reflect.New(reflect.TypeOf(dst).Elem()).Interface()
	if err := json.Unmarshal(raw, scratch); err != nil {
		logger.Warn("Discarding corrupt stored value", "key", key, "error", err)
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		logger.Warn("Discarding corrupt stored value", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

// SetJSON encodes v and stores it at key.
func SetJSON(ctx context.Context, p Provider, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := p.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// UpdateJSON runs fn on the decoded value at key inside one serialized update.
// A corrupt value reaches fn as the zero value with found=false. Returning
// keep=false removes the key.
func UpdateJSON[T any](ctx context.Context, p Provider, key string, fn func(v *T, found bool) (keep bool, err error)) error {
	err := p.Update(ctx, key, func(cur []byte, ok bool) ([]byte, bool, error) {
		var v T
		found := false
		if ok {
			if err := json.Unmarshal(cur, &v); err != nil {
				logger.Warn("Discarding corrupt stored value", "key", key, "error", err)
				var zero T
				v = zero
			} else {
				found = true
			}
		}

		keep, err := fn(&v, found)
		if err != nil {
			return nil, false, err
		}
		if !keep {
			return nil, false, nil
		}
		next, err := json.Marshal(v)
		if err != nil {
			return nil, false, fmt.Errorf("failed to encode %s: %w", key, err)
		}
		return next, true, nil
	})
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", key, err)
	}
	return nil
}

// GetSet returns the string set stored at key. Missing or corrupt sets are empty.
func GetSet(ctx context.Context, p Provider, key string) (map[string]struct{}, error) {
	var members []string
	if _, err := GetJSON(ctx, p, key, &members); err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		set[m] = struct{}{}
	}
	return set, nil
}

// IsMember reports whether id is in the set at key.
func IsMember(ctx context.Context, p Provider, key, id string) (bool, error) {
	set, err := GetSet(ctx, p, key)
	if err != nil {
		return false, err
	}
	_, ok := set[id]
	return ok, nil
}

// ToggleMember flips membership of id in the set at key and returns the new state.
func ToggleMember(ctx context.Context, p Provider, key, id string) (bool, error) {
	var member bool
	err := updateSet(ctx, p, key, func(set map[string]struct{}) bool {
		if _, ok := set[id]; ok {
			delete(set, id)
			member = false
		} else {
			set[id] = struct{}{}
			member = true
		}
		return true
	})
	return member, err
}

// AddMembers adds ids to the set at key and returns how many were new.
func AddMembers(ctx context.Context, p Provider, key string, ids ...string) (int, error) {
	added := 0
	err := updateSet(ctx, p, key, func(set map[string]struct{}) bool {
		for _, id := range ids {
			if _, ok := set[id]; !ok {
				set[id] = struct{}{}
				added++
			}
		}
		return added > 0
	})
	return added, err
}

// RemoveMember deletes id from the set at key. Removing an absent id is not an error.
func RemoveMember(ctx context.Context, p Provider, key, id string) error {
	return updateSet(ctx, p, key, func(set map[string]struct{}) bool {
		if _, ok := set[id]; !ok {
			return false
		}
		delete(set, id)
		return true
	})
}

// updateSet applies fn to the set at key; fn reports whether it changed anything.
func updateSet(ctx context.Context, p Provider, key string, fn func(map[string]struct{}) bool) error {
	err := p.Update(ctx, key, func(cur []byte, ok bool) ([]byte, bool, error) {
		var members []string
		if ok {
			if err := json.Unmarshal(cur, &members); err != nil {
				logger.Warn("Discarding corrupt stored set", "key", key, "error", err)
				members = nil
			}
		}
		set := make(map[string]struct{}, len(members))
		for _, m := range members {
			set[m] = struct{}{}
		}

		if !fn(set) {
			return nil, false, ErrUnchanged
		}

		next, err := json.Marshal(SortedMembers(set))
		if err != nil {
			return nil, false, err
		}
		return next, true, nil
	})
	if err != nil {
		return fmt.Errorf("failed to update set %s: %w", key, err)
	}
	return nil
}

// SortedMembers returns the members of set in ascending order.
func SortedMembers(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Copy writes every key of src into dst and returns how many keys were copied.
func Copy(ctx context.Context, dst, src Provider) (int, error) {
	keys, err := src.Keys(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("failed to list source keys: %w", err)
	}
	copied := 0
	for _, k := range keys {
		v, ok, err := src.Get(ctx, k)
		if err != nil {
			return copied, fmt.Errorf("failed to read %s: %w", k, err)
		}
		if !ok {
			continue
		}
		if err := dst.Set(ctx, k, v); err != nil {
			return copied, fmt.Errorf("failed to write %s: %w", k, err)
		}
		copied++
	}
	return copied, nil
}
