package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/urbandao/urbandao/internal/cli/render"
	"github.com/urbandao/urbandao/internal/domain"
)

// NewAccountCmd creates the account command
func NewAccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "account [address|key]",
		Aliases: []string{"balance"},
		Short:   "Show an account's balance, roles, assessments and receipts",
		Long: `Summarize one account. Without an argument the --from account is shown.

Examples:
  urbandao account 0xabc...
  urbandao account --from alice`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			who := app.Config.From
			if len(args) == 1 {
				who = args[0]
			}
			if who == "" {
				return fmt.Errorf("%w: give an account or --from", domain.ErrInvalidInput)
			}
			addr, err := app.CallModule.Resolve(who)
			if err != nil {
				return err
			}

			result, err := app.ShowAccount.Execute(cmd.Context(), addr)
			if err != nil {
				return err
			}
			if app.Config.JSON {
				return render.JSON(cmd.OutOrStdout(), result)
			}
			render.RenderAccount(cmd.OutOrStdout(), result)
			return nil
		},
	}
}
