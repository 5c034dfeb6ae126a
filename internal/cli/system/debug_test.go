package system

import (
	"context"
	"testing"

	"github.com/julianstephens/lessfeed/internal/constants"
	"github.com/julianstephens/lessfeed/internal/daily"
	"github.com/julianstephens/lessfeed/internal/scheduler"
	"github.com/julianstephens/lessfeed/internal/storage"
)

func TestDebugDBPathCmd(t *testing.T) {
	ctx, _ := setupTestContext(t)

	cmd := &DebugDBPathCmd{}
	if err := cmd.Run(ctx); err != nil {
		t.Errorf("debug db-path command failed: %v", err)
	}
}

func TestDebugKeysCmd(t *testing.T) {
	ctx, _ := setupTestContext(t)
	bg := context.Background()

	if err := (&DebugKeysCmd{}).Run(ctx); err != nil {
		t.Errorf("debug keys on empty store failed: %v", err)
	}

	if _, err := storage.AddMembers(bg, ctx.Store, constants.KeyLearned, "card-01"); err != nil {
		t.Fatal(err)
	}
	if err := (&DebugKeysCmd{Prefix: "learned"}).Run(ctx); err != nil {
		t.Errorf("debug keys with prefix failed: %v", err)
	}
}

func TestDebugDumpCmd(t *testing.T) {
	ctx, _ := setupTestContext(t)
	bg := context.Background()

	if _, err := storage.AddMembers(bg, ctx.Store, constants.KeyFavorites, "card-02"); err != nil {
		t.Fatal(err)
	}

	if err := (&DebugDumpCmd{Key: constants.KeyFavorites}).Run(ctx); err != nil {
		t.Errorf("debug dump failed: %v", err)
	}
	if err := (&DebugDumpCmd{Key: "missing"}).Run(ctx); err == nil {
		t.Error("debug dump should fail for a missing key")
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"json array", `["a","b"]`, "[\n  \"a\",\n  \"b\"\n]"},
		{"json object", `{"current":2}`, "{\n  \"current\": 2\n}"},
		{"plain day", "2025-01-15", "2025-01-15"},
		{"broken json", "{oops", "{oops"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatValue([]byte(tt.raw)); got != tt.want {
				t.Errorf("formatValue(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDebugDumpSettingsAndReviews(t *testing.T) {
	ctx, _ := setupTestContext(t)

	if err := (&DebugDumpSettingsCmd{}).Run(ctx); err != nil {
		t.Errorf("debug dump-settings failed: %v", err)
	}

	if err := scheduler.New(ctx.Store, scheduler.WithClock(ctx.Clock())).Add(context.Background(), "card-03"); err != nil {
		t.Fatal(err)
	}
	if err := (&DebugDumpReviewsCmd{}).Run(ctx); err != nil {
		t.Errorf("debug dump-reviews failed: %v", err)
	}
}

func TestDebugDumpDailyCmd(t *testing.T) {
	ctx, _ := setupTestContext(t)
	bg := context.Background()

	tracker := daily.NewTracker(ctx.Store, ctx.Clock())
	if err := tracker.MarkStarted(bg); err != nil {
		t.Fatal(err)
	}
	if err := tracker.MarkCardViewed(bg, "card-04"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		day     string
		wantErr bool
	}{
		{"today", false},
		{"2025-01-15", false},
		{"2024-02-29", false},
		{"15/01/2025", true},
	}
	for _, tt := range tests {
		t.Run(tt.day, func(t *testing.T) {
			err := (&DebugDumpDailyCmd{Day: tt.day}).Run(ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("DebugDumpDailyCmd{%q}.Run() error = %v, wantErr %v", tt.day, err, tt.wantErr)
			}
		})
	}
}
