package cli

import (
	"fmt"

	"github.com/alexanderramin/budgetops/internal/cli/formatter"
	"github.com/alexanderramin/budgetops/internal/domain"
	"github.com/spf13/cobra"
)

func newHistoryCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "history <class> <id>",
		Short: "Show the change history of an entity",
		Example: `  budgetops history BudgetLineItem <id>
  budgetops history ChangeRequest <id>`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := app.History.ListByTarget(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatHistory(records))
			return nil
		},
	}
}

func newEventsCmd(app *App) *cobra.Command {
	var failedOnly bool

	cmd := &cobra.Command{
		Use:   "events <type>",
		Short: "List operational events of one type",
		Example: `  budgetops events CREATE_PROCUREMENT_TRACKER
  budgetops events UPDATE_PROCUREMENT_TRACKER_STEP --failed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := app.History.ListEvents(cmd.Context(), domain.OpsEventType(args[0]))
			if err != nil {
				return err
			}
			if failedOnly {
				kept := events[:0]
				for _, e := range events {
					if e.EventStatus == domain.EventFailed {
						kept = append(kept, e)
					}
				}
				events = kept
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatEvents(events))
			return nil
		},
	}

	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Only show failed events")

	return cmd
}

func newNotificationsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "notifications",
		Short: "List review notifications for the acting user",
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.actor(cmd)
			if err != nil {
				return err
			}
			notes, err := app.History.ListNotifications(cmd.Context(), actor.UserID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatNotifications(notes))
			return nil
		},
	}
}
