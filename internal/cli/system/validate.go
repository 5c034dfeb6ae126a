package system

import (
	"context"
	"fmt"

	"github.com/julianstephens/lessfeed/internal/cli"
	"github.com/julianstephens/lessfeed/internal/validation"
)

type ValidateCmd struct {
	Fix bool `help:"Repair the conflicts that were found."`
}

func (cmd *ValidateCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	validator := validation.New(ctx.Store)

	fmt.Println("Validating stored data...")
	result, err := validator.Validate(bg)
	if err != nil {
		return fmt.Errorf("failed to validate storage: %w", err)
	}

	fmt.Println()
	fmt.Println(result.FormatReport())

	if !result.HasConflicts() || !cmd.Fix {
		if result.HasConflicts() {
			fmt.Println("Run 'lessfeed validate --fix' to repair them.")
		}
		return nil
	}

	actions, err := validator.AutoFix(bg, result.Conflicts)
	if err != nil {
		return fmt.Errorf("auto-fix failed: %w", err)
	}
	fmt.Println("Applied fixes:")
	for _, a := range actions {
		fmt.Printf("- %s (%s)\n", a.Action, a.SourceConflict.Key)
	}

	after, err := validator.Validate(bg)
	if err != nil {
		return fmt.Errorf("failed to re-validate storage: %w", err)
	}
	if after.HasConflicts() {
		return fmt.Errorf("%d conflicts remain after auto-fix", len(after.Conflicts))
	}
	fmt.Println("\nAll conflicts resolved.")
	return nil
}
