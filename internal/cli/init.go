package cli

import (
	"github.com/spf13/cobra"
	"github.com/urbandao/urbandao/internal/cli/render"
	"github.com/urbandao/urbandao/internal/usecase"
)

// NewInitCmd creates the init command
func NewInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new system from a genesis file",
		Long: `Bootstrap the admin, hand the governor its executor role and apply the
grants and mints listed in the genesis file.

The genesis file defaults to <data-dir>/genesis.toml and may also be YAML.

Examples:
  urbandao init
  urbandao init --genesis ./city.yaml
  urbandao init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.InitSystem.Execute(cmd.Context(), usecase.InitParams{Force: force})
			if err != nil {
				return err
			}

			if app.Config.JSON {
				return render.JSON(cmd.OutOrStdout(), result)
			}
			render.RenderInit(cmd.OutOrStdout(), result, app.Config.StatePath())
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace existing state and drop the event history")
	return cmd
}
