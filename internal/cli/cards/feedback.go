package cards

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/lessfeed/internal/cli"
	"github.com/julianstephens/lessfeed/internal/feed"
	"github.com/julianstephens/lessfeed/internal/models"
)

type FeedbackSendCmd struct {
	CardID  string `arg:"" help:"Card id."`
	Kind    string `help:"Report kind: typo, wrong, unclear or other." default:"other"`
	Message string `help:"What is wrong with the card." short:"m"`
}

func (cmd *FeedbackSendCmd) Run(ctx *cli.Context) error {
	kind, err := models.ParseFeedbackKind(cmd.Kind)
	if err != nil {
		return err
	}
	if models.IsSentinelID(cmd.CardID) {
		return fmt.Errorf("card %q cannot receive feedback", cmd.CardID)
	}
	return session(ctx, false, func(bg context.Context, engine *feed.Engine) error {
		item, err := engine.SubmitFeedback(bg, cmd.CardID, kind, cmd.Message)
		if err != nil {
			return fmt.Errorf("failed to queue feedback: %w", err)
		}
		fmt.Printf("✓ Feedback queued (%s)\n", item.ID)
		return nil
	})
}

type FeedbackListCmd struct{}

func (cmd *FeedbackListCmd) Run(ctx *cli.Context) error {
	return session(ctx, false, func(bg context.Context, engine *feed.Engine) error {
		items, err := engine.FeedbackQueue(bg)
		if err != nil {
			return fmt.Errorf("failed to read feedback queue: %w", err)
		}
		if len(items) == 0 {
			fmt.Println("No feedback queued.")
			return nil
		}
		for _, it := range items {
			created := time.UnixMilli(it.CreatedAt).Local().Format("2006-01-02 15:04")
			fmt.Printf("%s  %-8s %-10s %s\n", created, it.Kind, it.CardID, it.Message)
		}
		return nil
	})
}

// AnalyticsCmd sends pending analytics to the configured sink.
type AnalyticsCmd struct {
	DryRun bool `help:"List pending events without sending them."`
}

func (cmd *AnalyticsCmd) Run(ctx *cli.Context) error {
	return session(ctx, false, func(bg context.Context, engine *feed.Engine) error {
		tracker := engine.Analytics()
		pending := tracker.Pending()
		if len(pending) == 0 {
			fmt.Println("No pending analytics.")
			return nil
		}
		if cmd.DryRun {
			for _, e := range pending {
				fmt.Println(e)
			}
			return nil
		}
		res, err := tracker.Flush(bg)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Sent %d events", res.Sent)
		if res.Failed > 0 {
			fmt.Printf(", %d kept for retry", res.Failed)
		}
		fmt.Println()
		return nil
	})
}
