package cli

import (
	"github.com/spf13/cobra"
	"github.com/urbandao/urbandao/internal/cli/render"
	"github.com/urbandao/urbandao/internal/domain"
)

// NewEventsCmd creates the events command
func NewEventsCmd() *cobra.Command {
	var (
		module    string
		eventType string
		entity    uint64
		actor     string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List the stored event stream",
		Example: `  urbandao events --module grievance --entity 3
  urbandao events --type TaxPaid --limit 20
  urbandao events --actor alice`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			filter := domain.EventFilter{
				Module:   module,
				Type:     domain.EventType(eventType),
				EntityID: entity,
				Limit:    limit,
			}
			if actor != "" {
				if filter.Actor, err = app.CallModule.Resolve(actor); err != nil {
					return err
				}
			}

			events, err := app.ListEvents.Execute(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if app.Config.JSON {
				return render.JSON(cmd.OutOrStdout(), events)
			}
			render.RenderEventTable(cmd.OutOrStdout(), events)
			return nil
		},
	}

	cmd.Flags().StringVar(&module, "module", "", "Only events from this module")
	cmd.Flags().StringVar(&eventType, "type", "", "Only events of this type")
	cmd.Flags().Uint64Var(&entity, "entity", 0, "Only events about this entity id")
	cmd.Flags().StringVar(&actor, "actor", "", "Only events caused by this account")
	cmd.Flags().IntVar(&limit, "limit", 50, "Show at most this many of the latest events (0 for all)")
	return cmd
}
