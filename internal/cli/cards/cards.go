// Package cards holds the commands that read and mark cards outside the TUI.
package cards

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/lessfeed/internal/cli"
	"github.com/julianstephens/lessfeed/internal/daily"
	"github.com/julianstephens/lessfeed/internal/feed"
	"github.com/julianstephens/lessfeed/internal/logger"
	"github.com/julianstephens/lessfeed/internal/models"
)

// session opens an engine, prepares it and optionally loads cards before
// running fn. The engine is always closed so pending analytics are saved.
func session(ctx *cli.Context, load bool, fn func(context.Context, *feed.Engine) error) error {
	bg := context.Background()
	engine, closeFn, err := ctx.NewEngine(bg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeFn(); err != nil {
			logger.Warn("Failed to close feed engine", "error", err)
		}
	}()

	if err := engine.Prepare(bg); err != nil {
		return err
	}
	if load {
		if err := engine.Load(bg, false); err != nil {
			return fmt.Errorf("failed to load cards: %w", err)
		}
		engine.Wait()
	}
	return fn(bg, engine)
}

func parseListMode(v string) (models.ListMode, error) {
	for _, m := range models.ListModes {
		if string(m) == v {
			return m, nil
		}
	}
	return "", fmt.Errorf("invalid mode %q (expected one of %s)", v, joinModes())
}

func joinModes() string {
	names := make([]string, len(models.ListModes))
	for i, m := range models.ListModes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

func printItems(items []models.FeedItem, limit int) {
	if len(items) == 0 {
		fmt.Println("No cards to show.")
		return
	}
	for i, it := range items {
		if limit > 0 && i >= limit {
			fmt.Printf("... %d more\n", len(items)-limit)
			return
		}
		switch v := it.(type) {
		case models.ContentItem:
			fmt.Printf("%2d. [%s] %s (%s)\n", i+1, v.Card.ID, v.Card.Title, v.Card.Topic)
		case models.SystemItem:
			fmt.Printf("%2d. [support] %s\n", i+1, v.Card.Title)
		case models.OpeningItem:
			fmt.Printf("%2d. [opening] %s\n", i+1, v.Card.Title)
		}
	}
}

// FeedCmd prints the composed feed.
type FeedCmd struct {
	Mode  string `help:"List to show (feed, daily, learned, unuseful, review, favorites). Saved as the default." optional:""`
	Limit int    `help:"Maximum number of cards to print (0 for all)." default:"20"`
}

func (cmd *FeedCmd) Run(ctx *cli.Context) error {
	var mode models.ListMode
	if cmd.Mode != "" {
		m, err := parseListMode(cmd.Mode)
		if err != nil {
			return err
		}
		mode = m
	}

	return session(ctx, true, func(bg context.Context, engine *feed.Engine) error {
		if mode != "" && mode != engine.Settings().Mode() {
			if err := engine.SetListMode(bg, mode); err != nil {
				return err
			}
		}
		st := engine.State()
		if st.Err != nil {
			return st.Err
		}
		fmt.Printf("%s · %s · %d learned\n\n", st.Settings.Mode(), st.Settings.LangValue().Code(), st.LearnedCount)
		printItems(st.Items, cmd.Limit)
		return nil
	})
}

// DailyCmd shows today's ritual and optionally reads through it.
type DailyCmd struct {
	Read bool `help:"Mark every ritual card as viewed, in order."`
}

func (cmd *DailyCmd) Run(ctx *cli.Context) error {
	return session(ctx, true, func(bg context.Context, engine *feed.Engine) error {
		if err := engine.EnterDailyMode(bg); err != nil {
			return err
		}
		st := engine.State()
		if st.Err != nil {
			return st.Err
		}
		printItems(st.Items, 0)

		if cmd.Read {
			for _, it := range st.Items {
				if err := engine.CardBecameVisible(bg, it.ID()); err != nil {
					return fmt.Errorf("failed to record view of %s: %w", it.ID(), err)
				}
			}
			st = engine.State()
		}

		fmt.Println()
		printProgress(st.Daily, st.Streak)
		return nil
	})
}

func printProgress(p daily.Progress, streak int) {
	if p.Complete {
		fmt.Printf("✓ Daily ritual complete · streak %d\n", streak)
		return
	}
	fmt.Printf("Daily ritual %s: %d/%d viewed · streak %d\n", p.Phase, p.Viewed, p.Total, streak)
}

// ToggleCmd flips one membership of a card.
type ToggleCmd struct {
	Kind   string `arg:"" help:"Toggle to flip: learned, unuseful, review or favorite."`
	CardID string `arg:"" help:"Card id."`
}

func (cmd *ToggleCmd) Run(ctx *cli.Context) error {
	kind, err := feed.ParseToggleKind(cmd.Kind)
	if err != nil {
		return err
	}
	return session(ctx, false, func(bg context.Context, engine *feed.Engine) error {
		on, err := engine.Toggle(bg, kind, cmd.CardID)
		if err != nil {
			return err
		}
		if on {
			fmt.Printf("✓ %s marked %s\n", cmd.CardID, kind)
		} else {
			fmt.Printf("✓ %s no longer marked %s\n", cmd.CardID, kind)
		}
		return nil
	})
}

// ViewCmd records reading time for a card.
type ViewCmd struct {
	CardID   string        `arg:"" help:"Card id."`
	Duration time.Duration `help:"Time spent reading the card." default:"30s"`
}

func (cmd *ViewCmd) Run(ctx *cli.Context) error {
	if cmd.Duration <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	return session(ctx, false, func(bg context.Context, engine *feed.Engine) error {
		if err := engine.CardViewDuration(bg, cmd.CardID, cmd.Duration); err != nil {
			return err
		}
		fmt.Printf("✓ Recorded %s on %s\n", cmd.Duration, cmd.CardID)
		return nil
	})
}

// StatusCmd prints the memberships and review state of a card.
type StatusCmd struct {
	CardID string `arg:"" help:"Card id."`
}

func (cmd *StatusCmd) Run(ctx *cli.Context) error {
	return session(ctx, false, func(bg context.Context, engine *feed.Engine) error {
		st, err := engine.CardStatus(bg, cmd.CardID)
		if err != nil {
			return err
		}
		fmt.Printf("Card: %s\n", cmd.CardID)
		fmt.Printf("  New:       %s\n", yesNo(st.IsNew))
		fmt.Printf("  Learned:   %s\n", yesNo(st.Learned))
		fmt.Printf("  Unuseful:  %s\n", yesNo(st.Unuseful))
		fmt.Printf("  Favorite:  %s\n", yesNo(st.Favorite))
		if !st.InReview {
			fmt.Printf("  Review:    no\n")
			return nil
		}
		due := "not due"
		if st.Due {
			due = "due"
		}
		fmt.Printf("  Review:    stage %d, %s (next %s)\n", st.Stage, due, st.NextDueAt.Local().Format("2006-01-02 15:04"))
		return nil
	})
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// StreakCmd prints the daily streak.
type StreakCmd struct{}

func (cmd *StreakCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	now := ctx.Clock()

	streak := daily.NewStreak(ctx.Store, now)
	current, err := streak.CheckValidity(bg)
	if err != nil {
		return fmt.Errorf("failed to read streak: %w", err)
	}
	state, err := streak.State(bg)
	if err != nil {
		return fmt.Errorf("failed to read streak: %w", err)
	}
	done, err := daily.NewTracker(ctx.Store, now).IsCompleteToday(bg)
	if err != nil {
		return fmt.Errorf("failed to read daily completion: %w", err)
	}

	fmt.Printf("Current streak: %d\n", current)
	if state.LastCompletionDate != "" {
		fmt.Printf("Last completed: %s\n", state.LastCompletionDate)
	}
	if done {
		fmt.Println("Today's ritual: complete")
	} else {
		fmt.Println("Today's ritual: not yet")
	}
	return nil
}

// RefreshCmd fetches cards from the content source, bypassing the cache.
type RefreshCmd struct{}

func (cmd *RefreshCmd) Run(ctx *cli.Context) error {
	return session(ctx, false, func(bg context.Context, engine *feed.Engine) error {
		if err := engine.Refresh(bg); err != nil {
			return fmt.Errorf("failed to refresh cards: %w", err)
		}
		fmt.Printf("✓ Fetched %d cards for %s\n", len(engine.Cards()), engine.Settings().LangValue().Code())
		return nil
	})
}
