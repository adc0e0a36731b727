package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/disaster-dashboard/internal/config"
	"github.com/couchcryptid/disaster-dashboard/internal/domain"
	"github.com/couchcryptid/disaster-dashboard/internal/observability"
	"github.com/couchcryptid/disaster-dashboard/internal/screen"
)

// Version is set at build time.
var Version = "dev"

// AppBuilder constructs the App for a command run.
type AppBuilder func() (*App, error)

// appKey is used to store the App in the command context.
type appKey struct{}

// NewRootCmd creates the root command. build is called once, before the
// first command that needs the backend.
func NewRootCmd(build AppBuilder) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Disaster and economic data dashboard",
		Long: `dashboard explores disaster and economic datasets by country and US state.

Pick countries, disaster types, indicators and a year range, then view the
map, compare countries side by side, or browse global statistics. Selections
can be saved as named views and reopened later.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip wiring for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			app, err := build()
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, app))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if app := appFrom(cmd); app != nil {
				return app.Close()
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newLoginCommand())
	rootCmd.AddCommand(newSignupCommand())
	rootCmd.AddCommand(newLogoutCommand())
	rootCmd.AddCommand(newWhoamiCommand())
	rootCmd.AddCommand(newMapCommand())
	rootCmd.AddCommand(newCompareCommand())
	rootCmd.AddCommand(newStatsCommand())
	rootCmd.AddCommand(newCountryCommand())
	rootCmd.AddCommand(newStateCommand())
	rootCmd.AddCommand(newViewsCommand())
	rootCmd.AddCommand(newShellCommand())

	return rootCmd
}

// Execute runs the root command with the environment configuration.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd(loadApp)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", errorText(err))
		return err
	}
	return nil
}

func loadApp() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	return NewApp(cfg, logger, metrics)
}

// errorText prefers the user-facing banner for errors that have one.
func errorText(err error) string {
	var nerr *domain.NetworkError
	if errors.As(err, &nerr) {
		return screen.NetworkBanner
	}
	if b := screen.Banner(err); b != "" && b != screen.NetworkBanner {
		return b
	}
	return err.Error()
}

func appFrom(cmd *cobra.Command) *App {
	if cmd.Context() == nil {
		return nil
	}
	app, _ := cmd.Context().Value(appKey{}).(*App)
	return app
}
