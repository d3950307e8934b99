package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/urbandao/urbandao/internal/app"
	"github.com/urbandao/urbandao/internal/cli/render"
	"github.com/urbandao/urbandao/internal/config"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
	// cleanupKey holds the func releasing the app's resources
	cleanupKey contextKey = "cleanup"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "urbandao",
		Short: "Civic governance engine for taxes, grievances and public projects",
		Long: `urbandao runs a municipal governance system locally: role-based access,
tax assessment and payment with soulbound receipts, grievance handling,
public project tracking, token governance and signed meta-transactions.

State lives in the data directory (.urbandao by default).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip for help/version commands
			if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			v := config.SetupViper(cmd)
			appInstance, cleanup, err := app.InitApp(v)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			if appInstance.Config.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
				inner := cleanup
				cleanup = func() {
					cancel()
					inner()
				}
			}
			ctx = context.WithValue(ctx, cleanupKey, cleanup)
			cmd.SetContext(ctx)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return nil
			}
			defer runCleanup(cmd)
			return a.WriteMetrics()
		},
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.String("data-dir", "", "Directory holding state, events and config (default .urbandao)")
	flags.String("genesis", "", "Genesis file used by init (default <data-dir>/genesis.toml)")
	flags.String("from", "", "Key name or raw private key calls are sent from")
	flags.Bool("debug", false, "Enable debug output")
	flags.Bool("non-interactive", false, "Disable interactive prompts")
	flags.Bool("json", false, "Output in JSON format")
	flags.String("metrics-file", "", "Write command metrics in Prometheus text format to this file")
	flags.Duration("timeout", 0, "Abort the command after this long")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Main Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "query",
		Title: "Query Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands",
	})

	for _, c := range []*cobra.Command{NewInitCmd(), NewCallCmd(), NewRelayCmd(), NewGovCmd()} {
		c.GroupID = "main"
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{NewShowCmd(), NewListCmd(), NewAccountCmd(), NewStatusCmd(), NewEventsCmd()} {
		c.GroupID = "query"
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{NewRoleCmd(), NewAreaCmd(), NewModuleCmd()} {
		c.GroupID = "management"
		rootCmd.AddCommand(c)
	}

	rootCmd.AddCommand(NewVersionCmd())
	return rootCmd
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	if cmd.Context() == nil {
		return nil, fmt.Errorf("app not initialized")
	}
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	a, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}
	return a, nil
}

// runCleanup releases the app's resources. Cobra skips post-run hooks when
// RunE fails, so Execute calls it again; the stored func is idempotent.
func runCleanup(cmd *cobra.Command) {
	if cmd.Context() == nil {
		return
	}
	if cleanup, ok := cmd.Context().Value(cleanupKey).(func()); ok && cleanup != nil {
		cleanup()
	}
}

// Execute runs the root command and returns the process exit code
func Execute() int {
	rootCmd := NewRootCmd()
	cmd, err := rootCmd.ExecuteC()
	if cmd != nil {
		runCleanup(cmd)
	}
	if err != nil {
		verbose, _ := rootCmd.PersistentFlags().GetBool("debug")
		fmt.Fprintln(os.Stderr, render.FormatError(err, verbose))
		return 1
	}
	return 0
}
