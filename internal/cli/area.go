package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// NewAreaCmd creates the area command group
func NewAreaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "area",
		Short: "Create areas and assign their admin heads",
		Long: `Areas are the wards grievances and projects are filed against. Only
AdminGovt holders create areas and assign admin heads; a head runs one area.
Use "list area" and "show area <id>" to inspect them.`,
	}
	cmd.AddCommand(newAreaCreateCmd(), newAreaAssignCmd())
	return cmd
}

func newAreaCreateCmd() *cobra.Command {
	var metadata string

	cmd := &cobra.Command{
		Use:     "create <name>",
		Short:   "Register a new area",
		Example: `  urbandao area create "Old Town" --metadata ipfs://boundary --from admin`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			return callAccess(cmd, app, "createArea", args[0], metadata)
		},
	}

	cmd.Flags().StringVar(&metadata, "metadata", "", "Metadata URI describing the area")
	return cmd
}

func newAreaAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <area-id> <account>",
		Short: "Make an admin head the head of an area",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			head, err := app.CallModule.Resolve(args[1])
			if err != nil {
				return err
			}
			return callAccess(cmd, app, "assignAreaAdminHead", strconv.FormatUint(id, 10), head.Hex())
		},
	}
}
