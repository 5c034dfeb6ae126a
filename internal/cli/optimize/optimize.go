package optimize

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/lessfeed/internal/cli"
	"github.com/julianstephens/lessfeed/internal/optimizer"
	"github.com/julianstephens/lessfeed/internal/tracker"
)

// OptimizeCmd turns queued reader feedback into card fix suggestions.
type OptimizeCmd struct {
	FeedbackLimit int    `help:"Number of recent reports to analyze per card." default:"20"`
	Interactive   bool   `help:"Review each suggestion and resolve the ones that were handled." default:"false"`
	AutoApply     bool   `help:"Resolve every suggestion without confirmation." default:"false"`
	Export        string `help:"Write the suggestions as JSON to this file." type:"path"`
}

const (
	choiceApply   = "apply"
	choiceSkip    = "skip"
	choiceSkipAll = "skip_all"
)

var promptChoice = func(title string) (string, error) {
	var choice string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(title).
				Options(
					huh.NewOption("Resolve", choiceApply),
					huh.NewOption("Skip", choiceSkip),
					huh.NewOption("Skip remaining", choiceSkipAll),
				).
				Value(&choice),
		),
	).WithTheme(huh.ThemeBase())
	if err := form.Run(); err != nil {
		return "", err
	}
	return choice, nil
}

func (c *OptimizeCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	analyzer := optimizer.NewFeedbackAnalyzer(tracker.NewFeedbackQueue(ctx.Store), tracker.NewUnuseful(ctx.Store))

	fmt.Println("Analyzing card feedback...")
	suggestions, err := analyzer.AnalyzeAll(bg, c.FeedbackLimit)
	if err != nil {
		return fmt.Errorf("failed to analyze feedback: %w", err)
	}

	if c.Export != "" {
		if err := export(c.Export, suggestions); err != nil {
			return err
		}
		fmt.Printf("Wrote %d suggestion(s) to %s\n", len(suggestions), c.Export)
	}

	if len(suggestions) == 0 {
		fmt.Println("✅ No suggestions. Reader feedback does not point at any card yet.")
		return nil
	}

	fmt.Printf("\n📊 Found %d suggestion(s):\n\n", len(suggestions))
	for i, s := range suggestions {
		displaySuggestion(i+1, s)
	}

	switch {
	case c.AutoApply:
		fmt.Println("\n🚀 Resolving all suggestions...")
		resolved := 0
		for _, s := range suggestions {
			if err := apply(bg, analyzer, s); err != nil {
				fmt.Printf("  ❌ Failed to resolve %s: %v\n", s.CardID, err)
				continue
			}
			resolved++
		}
		fmt.Printf("\n✨ Resolved %d/%d suggestions.\n", resolved, len(suggestions))
		return nil
	case c.Interactive:
		return c.runInteractive(bg, analyzer, suggestions)
	}

	fmt.Println("\n💡 To resolve these suggestions:")
	fmt.Println("  - Use --interactive to review and select which to resolve")
	fmt.Println("  - Use --auto-apply to resolve all of them")
	return nil
}

func (c *OptimizeCmd) runInteractive(ctx context.Context, analyzer *optimizer.FeedbackAnalyzer, suggestions []optimizer.Suggestion) error {
	fmt.Println("\n🎯 Interactive review")

	applied, skipped := 0, 0
	for i, s := range suggestions {
		fmt.Printf("\n[%d/%d] ", i+1, len(suggestions))
		displaySuggestion(0, s)

		choice, err := promptChoice("Resolve this suggestion?")
		if err != nil {
			return fmt.Errorf("interactive form error: %w", err)
		}

		switch choice {
		case choiceApply:
			if err := apply(ctx, analyzer, s); err != nil {
				fmt.Printf("  ❌ Failed to resolve: %v\n", err)
			} else {
				fmt.Printf("  ✅ Resolved\n")
				applied++
			}
		case choiceSkip:
			fmt.Println("  ⏭️  Skipped")
			skipped++
		case choiceSkipAll:
			fmt.Println("  ⏭️  Skipping all remaining suggestions")
			skipped += len(suggestions) - i
			fmt.Printf("\n✨ Completed: %d resolved, %d skipped\n", applied, skipped)
			return nil
		}
	}

	fmt.Printf("\n✨ Completed: %d resolved, %d skipped\n", applied, skipped)
	return nil
}

// apply resolves s. Several suggestions for one card share their reports, so
// a suggestion whose reports are already gone counts as resolved.
func apply(ctx context.Context, analyzer *optimizer.FeedbackAnalyzer, s optimizer.Suggestion) error {
	_, err := analyzer.Resolve(ctx, s)
	return err
}

func displaySuggestion(num int, s optimizer.Suggestion) {
	prefix := ""
	if num > 0 {
		prefix = fmt.Sprintf("%d. ", num)
	}

	var typeIcon string
	switch s.Type {
	case optimizer.SuggestFixTypo:
		typeIcon = "✏️  Fix Typo"
	case optimizer.SuggestVerifyFacts:
		typeIcon = "🔎 Verify Facts"
	case optimizer.SuggestClarify:
		typeIcon = "💬 Clarify"
	case optimizer.SuggestRetireCard:
		typeIcon = "🗑️  Retire Card"
	default:
		typeIcon = "🔧 Review"
	}

	fmt.Printf("%s%s\n", prefix, typeIcon)
	fmt.Printf("   Card: %s\n", s.CardID)
	fmt.Printf("   Reason: %s\n", s.Reason)
	fmt.Printf("   Reports: %d\n", s.Reports)
	fmt.Println()
}

func export(path string, suggestions []optimizer.Suggestion) error {
	if suggestions == nil {
		suggestions = []optimizer.Suggestion{}
	}
	data, err := json.MarshalIndent(suggestions, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode suggestions: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
