package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/urbandao/urbandao/internal/cli/render"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
	"github.com/urbandao/urbandao/internal/usecase"
)

// NewGovCmd creates the governance command group
func NewGovCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "gov",
		Aliases: []string{"governance"},
		Short:   "Propose, vote on and execute governance proposals",
	}
	cmd.AddCommand(
		newGovProposeCmd(),
		newGovShowCmd(),
		newGovListCmd(),
		newGovVoteCmd(),
		newGovStepCmd("queue", "Queue a succeeded proposal into the timelock"),
		newGovStepCmd("execute", "Execute a queued proposal once its timelock passed"),
		newGovStepCmd("cancel", "Cancel a proposal before it executes"),
	)
	return cmd
}

func newGovProposeCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "propose",
		Short: "Create a proposal from a proposal file",
		Long: `Create a proposal whose actions are module calls. The YAML file lists a
description and the actions:

  description: Add a validator
  actions:
    - module: access
      method: grantRole
      args: ["0xabc...", "2"]

Examples:
  urbandao gov propose -f proposal.yaml --from alice`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			result, err := app.ProposeFromFile.Execute(cmd.Context(), usecase.ProposeParams{
				From: app.Config.From,
				Path: file,
			})
			if err != nil {
				return err
			}
			if app.Config.JSON {
				return render.JSON(cmd.OutOrStdout(), result)
			}
			render.NewOutcomeRenderer(cmd.OutOrStdout()).RenderCall(result.Proposal.Proposer, models.ModuleGovernor, "propose", result.Outcome)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Proposal file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newGovShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <proposal-id>",
		Short: "Show a proposal with its tally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, usecase.KindProposal, args[0])
		},
	}
}

func newGovListCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List proposals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, usecase.ListEntitiesParams{Kind: usecase.KindProposal, Status: status})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only proposals in this state")
	return cmd
}

func newGovVoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vote <proposal-id> <for|against|abstain>",
		Short: "Cast a vote weighted by the voter's token balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			support, err := models.ParseVoteSupport(args[1])
			if err != nil {
				return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
			}
			return runGovCall(cmd, "castVote", strconv.FormatUint(id, 10), strconv.Itoa(int(support)))
		},
	}
}

func newGovStepCmd(method, short string) *cobra.Command {
	return &cobra.Command{
		Use:   method + " <proposal-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runGovCall(cmd, method, strconv.FormatUint(id, 10))
		},
	}
}

func runGovCall(cmd *cobra.Command, method string, args ...string) error {
	app, err := getApp(cmd)
	if err != nil {
		return err
	}
	result, err := app.CallModule.Execute(cmd.Context(), usecase.CallParams{
		From:   app.Config.From,
		Module: models.ModuleGovernor,
		Method: method,
		Args:   args,
	})
	if err != nil {
		return err
	}
	return renderOutcome(cmd, app.Config.JSON, result)
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid id %q", domain.ErrInvalidInput, s)
	}
	return id, nil
}
