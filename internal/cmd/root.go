// Package cmd implements the lw command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/steveyegge/luckywheel/internal/account"
	"github.com/steveyegge/luckywheel/internal/config"
	"github.com/steveyegge/luckywheel/internal/logging"
	"github.com/steveyegge/luckywheel/internal/prize"
	"github.com/steveyegge/luckywheel/internal/slack"
	"github.com/steveyegge/luckywheel/internal/store"
	"github.com/steveyegge/luckywheel/internal/style"
)

// Command groups shown in help output.
const (
	GroupAccount     = "account"
	GroupWheel       = "wheel"
	GroupAdmin       = "admin"
	GroupDiagnostics = "diagnostics"
)

// annotationNoInit marks commands that must see the roster exactly as stored.
const annotationNoInit = "lw/no-init"

var (
	configPath string
	jsonOutput bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "lw",
	Short: "Lucky wheel: spin for prizes, manage players",
	Long: `lw runs the lucky wheel promotion from the terminal.

Players register or sign in with a social provider, spend spins on the
wheel and review their prize history. Administrators manage accounts,
grant spins and inspect the prize odds.

State lives in ~/.luckywheel by default; see 'lw doctor' when it looks wrong.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setupApp,
	PersistentPostRunE: teardownApp,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupAccount, Title: "Account Commands:"},
		&cobra.Group{ID: GroupWheel, Title: "Wheel Commands:"},
		&cobra.Group{ID: GroupAdmin, Title: "Admin Commands:"},
		&cobra.Group{ID: GroupDiagnostics, Title: "Diagnostics:"},
	)

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $LW_CONFIG or ~/.config/luckywheel/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print machine-readable JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
}

// app is everything a command needs, built once per invocation.
type app struct {
	cfg      *config.Config
	log      *logging.Logger
	store    store.Store
	dir      *account.Directory
	resolver *prize.Resolver
	notifier *slack.Client
}

var current *app

func setupApp(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "help" {
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	level := logging.ParseLevel(cfg.Log.Level)
	if verbose {
		level = zerolog.DebugLevel
	}
	log := logging.New(logging.Options{
		Service: "lw",
		Level:   level,
		Format:  cfg.Log.Format,
		Output:  cmd.ErrOrStderr(),
	})

	ctx := cmd.Context()
	s, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	dir := account.New(s, account.Config{
		RootAdminEmail: cfg.Accounts.RootAdminEmail,
		SeedEmail:      cfg.Accounts.SeedEmail,
		SeedSecret:     cfg.Accounts.SeedSecret,
		HistoryLimit:   cfg.Accounts.HistoryLimit,
		InitialSpins:   cfg.Accounts.InitialSpins,
	}, account.WithLogger(log))

	if cmd.Annotations[annotationNoInit] == "" {
		if err := dir.Init(ctx); err != nil {
			_ = s.Close()
			return fmt.Errorf("initializing roster: %w", err)
		}
	}

	current = &app{
		cfg:      cfg,
		log:      log,
		store:    s,
		dir:      dir,
		resolver: prize.NewResolver(),
		notifier: slack.NewClient(&cfg.Slack),
	}
	return nil
}

func teardownApp(*cobra.Command, []string) error {
	if current == nil {
		return nil
	}
	err := current.store.Close()
	current = nil
	return err
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return run(context.Background(), os.Args[1:])
}

func run(ctx context.Context, args []string) int {
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(ctx)
	if current != nil {
		_ = current.store.Close()
		current = nil
	}
	if err == nil {
		return 0
	}

	var silent silentError
	if errors.As(err, &silent) {
		return silent.code
	}
	if jsonOutput {
		_ = writeJSON(rootCmd.OutOrStdout(), account.ResultOf(nil, false, err))
	} else {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "%s %v\n", style.ErrorPrefix, err)
	}
	return 1
}

// silentError ends a command with an exit code and no further output.
type silentError struct {
	code int
}

func (e silentError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func requireSubcommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errors.New("requires a subcommand")
	}
	return fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath())
}
