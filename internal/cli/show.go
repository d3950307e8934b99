package cli

import (
	"github.com/spf13/cobra"
	"github.com/urbandao/urbandao/internal/cli/render"
	"github.com/urbandao/urbandao/internal/usecase"
)

// NewShowCmd creates the show command
func NewShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <kind> <id>",
		Short: "Show one assessment, receipt, grievance, project or proposal",
		Example: `  urbandao show grievance 3
  urbandao show assessment 1
  urbandao show receipt 1 --json`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{usecase.KindAssessment, usecase.KindReceipt, usecase.KindGrievance, usecase.KindProject, usecase.KindProposal},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0], args[1])
		},
	}
}

func runShow(cmd *cobra.Command, kind, rawID string) error {
	app, err := getApp(cmd)
	if err != nil {
		return err
	}
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	result, err := app.ShowEntity.Execute(cmd.Context(), kind, id)
	if err != nil {
		return err
	}
	if app.Config.JSON {
		return render.JSON(cmd.OutOrStdout(), result)
	}
	render.NewEntityRenderer(cmd.OutOrStdout()).Render(result)
	return nil
}

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	var (
		account string
		status  string
		area    uint64
	)

	cmd := &cobra.Command{
		Use:   "list <kind>",
		Short: "List grievances, projects, assessments or proposals",
		Long: `List stored entities of one kind.

--account filters by filer (grievances) or manager (projects) and is
required for assessments.

Examples:
  urbandao list grievance --status filed --area 7
  urbandao list project --account 0xabc...
  urbandao list assessment --account alice`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{usecase.KindAssessment, usecase.KindGrievance, usecase.KindProject, usecase.KindProposal},
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			params := usecase.ListEntitiesParams{Kind: args[0], Status: status, AreaID: area}
			if account != "" {
				if params.Account, err = app.CallModule.Resolve(account); err != nil {
					return err
				}
			}
			return runList(cmd, params)
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "Filter by account (address or key name)")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().Uint64Var(&area, "area", 0, "Filter by area id")
	return cmd
}

func runList(cmd *cobra.Command, params usecase.ListEntitiesParams) error {
	app, err := getApp(cmd)
	if err != nil {
		return err
	}
	result, err := app.ListEntities.Execute(cmd.Context(), params)
	if err != nil {
		return err
	}
	if app.Config.JSON {
		return render.JSON(cmd.OutOrStdout(), result)
	}
	render.NewEntityRenderer(cmd.OutOrStdout()).RenderList(result)
	return nil
}
