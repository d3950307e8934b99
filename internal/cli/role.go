package cli

import (
	"strconv"

	"github.com/spf13/cobra"
	"github.com/urbandao/urbandao/internal/app"
	"github.com/urbandao/urbandao/internal/cli/render"
	"github.com/urbandao/urbandao/internal/domain"
	"github.com/urbandao/urbandao/internal/domain/models"
	"github.com/urbandao/urbandao/internal/usecase"
)

// NewRoleCmd creates the role command group
func NewRoleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Grant, revoke, request and list civic roles",
		Long: `Manage the access table. Roles may be given by full name
(VALIDATOR_ROLE) or short name (validator). Accounts may be given as an
address or a key name.

Residents ask for a role in an area with "role request"; the area's admin
head, or any AdminGovt holder, then approves or rejects the request.`,
	}
	cmd.AddCommand(
		newRoleGrantCmd(),
		newRoleChangeCmd("revoke <account> <role>", "Revoke a role from an account", "revokeRole"),
		newRoleRenounceCmd(),
		newRoleListCmd(),
		newRoleRequestCmd(),
		newRoleApproveCmd(),
		newRoleRejectCmd(),
	)
	return cmd
}

func newRoleGrantCmd() *cobra.Command {
	var metadata string

	cmd := &cobra.Command{
		Use:   "grant <account> <role>",
		Short: "Grant a role to an account",
		Example: `  urbandao role grant 0xabc... citizen --from admin
  urbandao role grant bob validator --metadata ipfs://cv --from admin`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			method, extra := "grantRole", []string(nil)
			if metadata != "" {
				method, extra = "grantRoleWithMetadata", []string{metadata}
			}
			return runRoleChange(cmd, method, args[0], args[1], extra...)
		},
	}

	cmd.Flags().StringVar(&metadata, "metadata", "", "Metadata URI attached to the membership")
	return cmd
}

func newRoleChangeCmd(use, short, method string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoleChange(cmd, method, args[0], args[1])
		},
	}
}

func newRoleRenounceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "renounce <role>",
		Short: "Give up a role held by the --from account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			role, err := domain.ParseRole(args[0])
			if err != nil {
				return err
			}
			return callAccess(cmd, app, "renounceRole", strconv.Itoa(int(role)))
		},
	}
}

func runRoleChange(cmd *cobra.Command, method, account, roleName string, extra ...string) error {
	app, err := getApp(cmd)
	if err != nil {
		return err
	}
	role, err := domain.ParseRole(roleName)
	if err != nil {
		return err
	}
	addr, err := app.CallModule.Resolve(account)
	if err != nil {
		return err
	}
	return callAccess(cmd, app, method, append([]string{addr.Hex(), strconv.Itoa(int(role))}, extra...)...)
}

// callAccess runs one access-module method as the --from account.
func callAccess(cmd *cobra.Command, a *app.App, method string, args ...string) error {
	result, err := a.CallModule.Execute(cmd.Context(), usecase.CallParams{
		From:   a.Config.From,
		Module: models.ModuleAccess,
		Method: method,
		Args:   args,
	})
	if err != nil {
		return err
	}
	return renderOutcome(cmd, a.Config.JSON, result)
}

func newRoleRequestCmd() *cobra.Command {
	var (
		area     uint64
		metadata string
	)

	cmd := &cobra.Command{
		Use:   "request <role>",
		Short: "Ask for a role in an area",
		Example: `  urbandao role request citizen --area 1 --metadata ipfs://kyc --from resident
  urbandao relay sign access requestRole 1 1 ipfs://kyc --from resident`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			role, err := domain.ParseRole(args[0])
			if err != nil {
				return err
			}
			return callAccess(cmd, app, "requestRole",
				strconv.Itoa(int(role)), strconv.FormatUint(area, 10), metadata)
		},
	}

	cmd.Flags().Uint64Var(&area, "area", 0, "Area to request the role in")
	cmd.Flags().StringVar(&metadata, "metadata", "", "Metadata URI supporting the request")
	_ = cmd.MarkFlagRequired("area")
	return cmd
}

func newRoleApproveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <request-id>",
		Short: "Approve a pending role request and grant the role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return callAccess(cmd, app, "approveRoleRequest", strconv.FormatUint(id, 10))
		},
	}
}

func newRoleRejectCmd() *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "reject <request-id>",
		Short: "Reject a pending role request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return callAccess(cmd, app, "rejectRoleRequest", strconv.FormatUint(id, 10), reason)
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Why the request is rejected")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func newRoleListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [role]",
		Short: "List role holders",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			role := ""
			if len(args) == 1 {
				role = args[0]
			}
			groups, err := app.ListRoleHolders.Execute(cmd.Context(), role)
			if err != nil {
				return err
			}
			if app.Config.JSON {
				return render.JSON(cmd.OutOrStdout(), groups)
			}
			render.RenderRoleHolders(cmd.OutOrStdout(), groups)
			return nil
		},
	}
}
