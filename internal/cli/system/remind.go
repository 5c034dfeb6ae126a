package system

import (
	"context"
	"fmt"

	"github.com/julianstephens/lessfeed/internal/cli"
	"github.com/julianstephens/lessfeed/internal/constants"
	"github.com/julianstephens/lessfeed/internal/daily"
	"github.com/julianstephens/lessfeed/internal/logger"
	"github.com/julianstephens/lessfeed/internal/notifier"
	"github.com/julianstephens/lessfeed/internal/settings"
	"github.com/julianstephens/lessfeed/internal/storage"
)

var sendReminder = func(ctx context.Context, text string) error {
	return notifier.New().Notify(ctx, text)
}

// RemindCmd sends the daily reminder through the tray app when it is due.
// It is meant to run every few minutes from a scheduler such as cron.
type RemindCmd struct {
	DryRun bool `help:"Print the reminder to stdout instead of sending it."`
	Force  bool `help:"Send even if a reminder already went out today."`
}

func (c *RemindCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	now := ctx.Clock()()

	s, err := settings.New(ctx.Store).Get(bg)
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if !s.NotificationsEnabled {
		if c.DryRun {
			fmt.Println("Notifications are disabled in settings.")
		}
		return nil
	}

	completed, err := daily.NewTracker(ctx.Store, ctx.Clock()).IsCompleteToday(bg)
	if err != nil {
		return fmt.Errorf("failed to read daily progress: %w", err)
	}
	if !notifier.ReminderDue(s, completed, now) {
		if c.DryRun {
			fmt.Println("No reminder due.")
		}
		return nil
	}

	today := now.Format(constants.DateFormat)
	if !c.Force {
		sent, ok, err := reminderSentOn(bg, ctx.Store)
		if err != nil {
			return err
		}
		if ok && sent == today {
			if c.DryRun {
				fmt.Println("Reminder already sent today.")
			}
			return nil
		}
	}

	text := notifier.ReminderText(s.LangValue())
	if c.DryRun {
		fmt.Println("[DryRun] " + text)
		return nil
	}

	if err := sendReminder(bg, text); err != nil {
		logger.Warn("Failed to send reminder", "error", err)
		return fmt.Errorf("failed to send reminder: %w", err)
	}
	return ctx.Store.Set(bg, constants.KeyReminderSentDay, []byte(today))
}

// reminderSentOn returns the day the last reminder went out.
func reminderSentOn(ctx context.Context, store storage.Provider) (string, bool, error) {
	raw, ok, err := store.Get(ctx, constants.KeyReminderSentDay)
	if err != nil || !ok {
		return "", false, err
	}
	return string(raw), true, nil
}
