package system

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/julianstephens/lessfeed/internal/cli"
	"github.com/julianstephens/lessfeed/internal/daily"
	"github.com/julianstephens/lessfeed/internal/scheduler"
	"github.com/julianstephens/lessfeed/internal/settings"
	"github.com/julianstephens/lessfeed/internal/storage"
	"github.com/julianstephens/lessfeed/internal/utils"
)

type DebugCmd struct {
	DBPath       *DebugDBPathCmd       `cmd:"" help:"Show database path."`
	Keys         *DebugKeysCmd         `cmd:"" help:"List stored keys."`
	Dump         *DebugDumpCmd         `cmd:"" help:"Dump the raw value of a key."`
	DumpSettings *DebugDumpSettingsCmd `cmd:"" help:"Dump settings data as JSON."`
	DumpReviews  *DebugDumpReviewsCmd  `cmd:"" help:"Dump the review schedule as JSON."`
	DumpDaily    *DebugDumpDailyCmd    `cmd:"" help:"Dump daily ritual state for a day as JSON."`
}

func printJSON(v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Println(string(jsonBytes))
	return nil
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	return printJSON(map[string]string{
		"path": ctx.Store.GetConfigPath(),
	})
}

type DebugKeysCmd struct {
	Prefix string `arg:"" optional:"" help:"Only list keys starting with this prefix."`
}

func (cmd *DebugKeysCmd) Run(ctx *cli.Context) error {
	keys, err := ctx.Store.Keys(context.Background(), cmd.Prefix)
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}
	if len(keys) == 0 {
		fmt.Println("No keys found.")
		return nil
	}
	for _, k := range keys {
		fmt.Println(k)
	}
	return nil
}

type DebugDumpCmd struct {
	Key string `arg:"" help:"Key to dump."`
}

func (cmd *DebugDumpCmd) Run(ctx *cli.Context) error {
	raw, ok, err := ctx.Store.Get(context.Background(), cmd.Key)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cmd.Key, err)
	}
	if !ok {
		return fmt.Errorf("key not found: %s", cmd.Key)
	}
	fmt.Println(formatValue(raw))
	return nil
}

// formatValue indents JSON values and prints anything else verbatim.
func formatValue(raw []byte) string {
	var buf bytes.Buffer
	if json.Valid(raw) && json.Indent(&buf, raw, "", "  ") == nil {
		return buf.String()
	}
	return string(raw)
}

type DebugDumpSettingsCmd struct{}

func (cmd *DebugDumpSettingsCmd) Run(ctx *cli.Context) error {
	s, err := settings.New(ctx.Store).Get(context.Background())
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	return printJSON(s)
}

type DebugDumpReviewsCmd struct{}

func (cmd *DebugDumpReviewsCmd) Run(ctx *cli.Context) error {
	reviews, err := scheduler.New(ctx.Store, scheduler.WithClock(ctx.Clock())).All(context.Background())
	if err != nil {
		return fmt.Errorf("failed to get reviews: %w", err)
	}
	return printJSON(reviews)
}

type DebugDumpDailyCmd struct {
	Day string `arg:"" optional:"" default:"today" help:"Day to dump (YYYY-MM-DD or 'today')."`
}

type dailyDump struct {
	Day         string     `json:"day"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Viewed      []string   `json:"viewed"`
	Streak      int        `json:"streak"`
	LastDate    string     `json:"last_completion_date,omitempty"`
}

func (cmd *DebugDumpDailyCmd) Run(ctx *cli.Context) error {
	bg := context.Background()

	day := cmd.Day
	if day == "" || day == "today" {
		day = utils.DayUTC(ctx.Clock()())
	}
	date, err := utils.ParseDay(day)
	if err != nil {
		return fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD or 'today')", day)
	}

	// Read the day through a tracker pinned to noon of that day.
	pinned := func() time.Time { return date.Add(12 * time.Hour) }
	tracker := daily.NewTracker(ctx.Store, pinned)

	out := dailyDump{Day: day}
	started, ok, err := tracker.StartedAt(bg)
	if err != nil {
		return err
	}
	if ok {
		out.StartedAt = &started
	}
	completed, ok, err := tracker.CompletedAt(bg)
	if err != nil {
		return err
	}
	if ok {
		out.CompletedAt = &completed
	}
	viewed, err := tracker.ViewedToday(bg)
	if err != nil {
		return err
	}
	out.Viewed = storage.SortedMembers(viewed)

	state, err := daily.NewStreak(ctx.Store, ctx.Clock()).State(bg)
	if err != nil {
		return err
	}
	out.Streak = state.Current
	out.LastDate = state.LastCompletionDate

	return printJSON(out)
}
