package system

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/lessfeed/internal/cli"
	"github.com/julianstephens/lessfeed/internal/logger"
	"github.com/julianstephens/lessfeed/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	// Back up once per launch, after the store has loaded
	ctx.PerformAutomaticBackup()

	bg, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine, closeEngine, err := ctx.NewEngine(bg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeEngine(); err != nil {
			logger.Warn("Failed to close feed engine", "error", err)
		}
	}()

	p := tea.NewProgram(tui.NewModel(bg, engine), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("alas, there's been an error: %w", err)
	}
	return nil
}
