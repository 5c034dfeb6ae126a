package settings

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/julianstephens/lessfeed/internal/cli"
	"github.com/julianstephens/lessfeed/internal/settings"
	"github.com/julianstephens/lessfeed/internal/storage/sqlite"
)

func setupTestDB(t *testing.T) *cli.Context {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return &cli.Context{Store: store}
}

func ptr[T any](v T) *T { return &v }

func TestSettingsCmd_List(t *testing.T) {
	ctx := setupTestDB(t)

	cmd := &SettingsCmd{List: true}
	if err := cmd.Run(ctx); err != nil {
		t.Errorf("settings list failed: %v", err)
	}
}

func TestSettingsCmd_Update(t *testing.T) {
	ctx := setupTestDB(t)

	cmd := &SettingsCmd{
		Lang:                 ptr("FR"),
		Mode:                 ptr("favorites"),
		TextScale:            ptr("large"),
		DarkMode:             ptr(true),
		NotificationsEnabled: ptr(true),
		NotificationTime:     ptr("21:45"),
	}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("settings update failed: %v", err)
	}

	s, err := settings.New(ctx.Store).Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if s.Lang != "fr" || s.ListMode != "favorites" || s.TextScale != "large" {
		t.Errorf("enum settings not saved: %+v", s)
	}
	if !s.DarkMode || !s.NotificationsEnabled {
		t.Errorf("bool settings not saved: %+v", s)
	}
	if s.NotificationHour != 21 || s.NotificationMinute != 45 {
		t.Errorf("reminder time = %02d:%02d, want 21:45", s.NotificationHour, s.NotificationMinute)
	}
}

func TestSettingsCmd_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		cmd  SettingsCmd
	}{
		{"language", SettingsCmd{Lang: ptr("de")}},
		{"mode", SettingsCmd{Mode: ptr("sideways")}},
		{"text scale", SettingsCmd{TextScale: ptr("huge")}},
		{"time without colon", SettingsCmd{NotificationTime: ptr("0930")}},
		{"hour out of range", SettingsCmd{NotificationTime: ptr("24:00")}},
		{"minute out of range", SettingsCmd{NotificationTime: ptr("09:60")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := setupTestDB(t)
			if err := tt.cmd.Run(ctx); err == nil {
				t.Error("expected an error")
			}
			s, err := settings.New(ctx.Store).Get(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if s.Lang != "en" || s.ListMode != "feed" {
				t.Errorf("settings changed after a rejected update: %+v", s)
			}
		})
	}
}

func TestSettingsCmd_NoChanges(t *testing.T) {
	ctx := setupTestDB(t)
	if err := (&SettingsCmd{}).Run(ctx); err != nil {
		t.Errorf("settings with no flags failed: %v", err)
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in        string
		hour, min int
		wantErr   bool
	}{
		{"09:00", 9, 0, false},
		{" 7:05 ", 7, 5, false},
		{"23:59", 23, 59, false},
		{"-1:00", 0, 0, true},
		{"ab:cd", 0, 0, true},
	}
	for _, tt := range tests {
		h, m, err := parseClock(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseClock(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && (h != tt.hour || m != tt.min) {
			t.Errorf("parseClock(%q) = %d:%d, want %d:%d", tt.in, h, m, tt.hour, tt.min)
		}
	}
}
