package cli

import (
	"github.com/spf13/cobra"
	"github.com/urbandao/urbandao/internal/cli/render"
	"github.com/urbandao/urbandao/internal/usecase"
)

// NewCallCmd creates the call command
func NewCallCmd() *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "call <module> <method> [args...]",
		Short: "Send a call to a module through the core",
		Long: `Encode a method call against the module's ABI and run it through the
core as the --from account. Arguments use their ABI form: addresses as hex,
integers in decimal, bools as true/false, bytes as 0x-hex and arrays as
comma separated lists.

Examples:
  urbandao call tax assess 0xabc... 2025 1200 0 bafy-doc --from collector
  urbandao call tax payTax 1 --from alice
  urbandao call grievance fileGrievance 7 "Broken streetlight" ipfs://photo --from alice
  urbandao call token mint 0xabc... 100 --from admin --role ADMIN_GOVT_ROLE`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			params := usecase.CallParams{
				From:   app.Config.From,
				Role:   role,
				Module: args[0],
				Method: args[1],
				Args:   args[2:],
			}
			result, err := app.CallModule.Execute(cmd.Context(), params)
			if err != nil {
				return err
			}
			return renderOutcome(cmd, app.Config.JSON, result)
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "Role to act under when the caller holds several")
	return cmd
}

func renderOutcome(cmd *cobra.Command, asJSON bool, result *usecase.CallResult) error {
	if asJSON {
		return render.JSON(cmd.OutOrStdout(), result)
	}
	out := result.Outcome
	render.NewOutcomeRenderer(cmd.OutOrStdout()).RenderCall(result.Caller, out.Module, out.Method, out)
	return nil
}
