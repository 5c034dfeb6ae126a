package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/lessfeed/internal/cli"
	"github.com/julianstephens/lessfeed/internal/cli/backups"
	"github.com/julianstephens/lessfeed/internal/cli/cards"
	"github.com/julianstephens/lessfeed/internal/cli/optimize"
	"github.com/julianstephens/lessfeed/internal/cli/settings"
	"github.com/julianstephens/lessfeed/internal/cli/system"
	"github.com/julianstephens/lessfeed/internal/config"
	"github.com/julianstephens/lessfeed/internal/constants"
	apperrors "github.com/julianstephens/lessfeed/internal/errors"
	"github.com/julianstephens/lessfeed/internal/logger"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Database path, PostgreSQL connection string or 'keyring'. PostgreSQL credentials must NOT be embedded in the connection string. Use LESSFEED_DB_CONNECTION, .pgpass, or the OS keyring instead." type:"string" default:"~/.config/lessfeed/lessfeed.db"`
	EnvFile string `help:"Environment file to load before reading configuration." default:".env" name:"env-file"`
	Verbose bool   `help:"Log debug output to stderr." short:"v"`

	Init      system.InitCmd        `cmd:"" help:"Initialize lessfeed storage."`
	Migrate   system.MigrateCmd     `cmd:"" help:"Run database migrations."`
	Doctor    system.DoctorCmd      `cmd:"" help:"Run health checks and diagnostics."`
	Tui       system.TuiCmd         `cmd:"" help:"Launch the interactive reader." default:"1"`
	Feed      cards.FeedCmd         `cmd:"" help:"Print the card feed."`
	Daily     cards.DailyCmd        `cmd:"" help:"Show today's daily ritual."`
	Toggle    cards.ToggleCmd       `cmd:"" help:"Mark or unmark a card as learned, unuseful, review or favorite."`
	View      cards.ViewCmd         `cmd:"" help:"Record reading time for a card."`
	Status    cards.StatusCmd       `cmd:"" help:"Show the state of a card."`
	Streak    cards.StreakCmd       `cmd:"" help:"Show the daily streak."`
	Refresh   cards.RefreshCmd      `cmd:"" help:"Fetch cards from the content source."`
	Feedback  cards.FeedbackSendCmd `cmd:"" help:"Report a problem with a card."`
	Reports   cards.FeedbackListCmd `cmd:"" name:"feedback-list" help:"List queued card reports."`
	Analytics struct {
		Flush cards.AnalyticsCmd `cmd:"" help:"Send pending analytics to the configured sink."`
	} `cmd:"" help:"Manage anonymous usage analytics."`
	Optimize optimize.OptimizeCmd `cmd:"" help:"Suggest card fixes from reader feedback."`
	Debug    system.DebugCmd      `cmd:"" help:"Debug commands for troubleshooting."`
	Validate system.ValidateCmd   `cmd:"" help:"Validate stored data for conflicts."`
	Backup   struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store a secret in the OS keyring."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show a masked secret from the OS keyring."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Delete a secret from the OS keyring."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check OS keyring availability."`
	} `cmd:"" help:"Manage secrets in the OS keyring."`
	Settings settings.SettingsCmd `cmd:"" help:"Manage application settings."`
	Remind   system.RemindCmd     `cmd:"" help:"Send the daily reminder when it is due (run from cron)."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("A calm, finite card feed with spaced review"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load(CLI.EnvFile)
	if err != nil {
		apperrors.Fatal(err)
	}

	command := ctx.Command()
	appCtx := &cli.Context{Config: cfg}

	// Keyring commands manage the secrets the store may need, so they run
	// without opening it.
	if strings.HasPrefix(command, "keyring") {
		initLogger(cli.ConfigDir(nil))
		apperrors.Fatal(ctx.Run(appCtx))
		return
	}

	store, err := cli.OpenStore(CLI.Config, cfg)
	if err != nil {
		apperrors.Fatal(err)
	}
	appCtx.Store = store
	initLogger(cli.ConfigDir(store))

	if !strings.HasPrefix(command, "init") {
		if err := store.Load(); err != nil {
			apperrors.Fatal(err)
		}
	}

	runErr := ctx.Run(appCtx)
	if err := store.Close(); err != nil {
		logger.Warn("Failed to close storage", "error", err)
	}
	apperrors.Fatal(runErr)
}

func initLogger(dir string) {
	if err := logger.Init(logger.Config{Debug: CLI.Verbose, ConfigDir: dir}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}
}
