package settings

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/julianstephens/lessfeed/internal/cli"
	"github.com/julianstephens/lessfeed/internal/models"
	"github.com/julianstephens/lessfeed/internal/settings"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	Lang                 *string `help:"Content language (fr, en, es)."`
	Mode                 *string `help:"Default list mode (feed, daily, learned, unuseful, review, favorites)."`
	TextScale            *string `help:"Reading size (normal, large)."`
	FocusMode            *bool   `help:"Hide everything but the current card."`
	ContinuousReading    *bool   `help:"Advance to the next card automatically."`
	DarkMode             *bool   `help:"Use the dark color scheme."`
	NotificationsEnabled *bool   `help:"Enable or disable the daily reminder."`
	NotificationTime     *string `help:"Local time of the daily reminder (HH:MM)."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	repo := settings.New(ctx.Store)

	s, err := repo.Get(bg)
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if c.List {
		printSettings(s)
		return nil
	}

	updated, err := c.apply(&s)
	if err != nil {
		return err
	}

	if updated {
		if err := repo.Save(bg, s); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		fmt.Println("Settings updated successfully.")
	} else {
		fmt.Println("No changes specified. Use --list to view settings or flags to update them.")
	}

	return nil
}

// apply copies the given flags onto s and reports whether anything was set.
func (c *SettingsCmd) apply(s *models.UISettings) (bool, error) {
	updated := false
	if c.Lang != nil {
		lang := strings.ToLower(*c.Lang)
		if models.LangFromCode(lang).Code() != lang {
			return false, fmt.Errorf("unsupported language %q (expected fr, en or es)", *c.Lang)
		}
		s.Lang = lang
		updated = true
	}
	if c.Mode != nil {
		mode := models.ListModeFromValue(*c.Mode)
		if string(mode) != *c.Mode {
			return false, fmt.Errorf("unknown list mode %q", *c.Mode)
		}
		s.ListMode = string(mode)
		updated = true
	}
	if c.TextScale != nil {
		scale := models.TextScaleFromValue(*c.TextScale)
		if string(scale) != *c.TextScale {
			return false, fmt.Errorf("unknown text scale %q (expected normal or large)", *c.TextScale)
		}
		s.TextScale = string(scale)
		updated = true
	}
	if c.FocusMode != nil {
		s.FocusMode = *c.FocusMode
		updated = true
	}
	if c.ContinuousReading != nil {
		s.ContinuousReading = *c.ContinuousReading
		updated = true
	}
	if c.DarkMode != nil {
		s.DarkMode = *c.DarkMode
		updated = true
	}
	if c.NotificationsEnabled != nil {
		s.NotificationsEnabled = *c.NotificationsEnabled
		updated = true
	}
	if c.NotificationTime != nil {
		hour, minute, err := parseClock(*c.NotificationTime)
		if err != nil {
			return false, err
		}
		s.NotificationHour = hour
		s.NotificationMinute = minute
		updated = true
	}
	return updated, nil
}

// parseClock parses HH:MM in 24-hour time.
func parseClock(v string) (int, int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(v), ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid time %q (expected HH:MM)", v)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", v)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", v)
	}
	return hour, minute, nil
}

func printSettings(s models.UISettings) {
	fmt.Println("Current Settings:")
	fmt.Printf("  Language:              %s\n", s.Lang)
	fmt.Printf("  List Mode:             %s\n", s.ListMode)
	fmt.Printf("  Text Scale:            %s\n", s.TextScale)
	fmt.Printf("  Focus Mode:            %v\n", s.FocusMode)
	fmt.Printf("  Continuous Reading:    %v\n", s.ContinuousReading)
	fmt.Printf("  Dark Mode:             %v\n", s.DarkMode)
	fmt.Println("\nReminder Settings:")
	fmt.Printf("  Notifications Enabled: %v\n", s.NotificationsEnabled)
	fmt.Printf("  Reminder Time:         %02d:%02d\n", s.NotificationHour, s.NotificationMinute)
}
