package cli

import (
	"github.com/spf13/cobra"
	"github.com/urbandao/urbandao/internal/cli/render"
	"github.com/urbandao/urbandao/internal/usecase"
)

// NewModuleCmd creates the module command group
func NewModuleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "module",
		Short: "Inspect and re-point the module registry",
	}
	cmd.AddCommand(newModuleListCmd(), newModuleRegisterCmd())
	return cmd
}

func newModuleListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List live modules and installed implementations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			result, err := app.ListModules.Execute(cmd.Context())
			if err != nil {
				return err
			}
			if app.Config.JSON {
				return render.JSON(cmd.OutOrStdout(), result)
			}
			render.RenderModules(cmd.OutOrStdout(), result.Live, result.Implementations)
			return nil
		},
	}
}

func newModuleRegisterCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "register <module> [implementation|version]",
		Short: "Point a module id at another implementation",
		Long: `Switch the implementation behind a module id. Stored state is kept.
Without a target, pick one of the installed implementations interactively.

Examples:
  urbandao module register tax v1 --from admin --yes
  urbandao module register grievance 0x1234... --from admin
  urbandao module register project --from admin`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			params := usecase.RegisterModuleParams{
				From:   app.Config.From,
				Module: args[0],
				Yes:    yes,
			}
			if len(args) == 2 {
				params.Target = args[1]
			}
			result, err := app.RegisterModule.Execute(cmd.Context(), params)
			if err != nil {
				return err
			}
			if app.Config.JSON {
				return render.JSON(cmd.OutOrStdout(), result)
			}
			render.RenderRegister(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
