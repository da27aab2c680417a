package cli

import (
	"fmt"

	"github.com/alexanderramin/budgetops/internal/cli/formatter"
	"github.com/alexanderramin/budgetops/internal/contract"
	"github.com/spf13/cobra"
)

func newTrackerCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tracker",
		Short: "Follow an agreement's procurement tracker",
	}

	cmd.AddCommand(
		newTrackerShowCmd(app),
		newTrackerStepCmd(app),
		newTrackerDeactivateCmd(app),
	)

	return cmd
}

func newTrackerShowCmd(app *App) *cobra.Command {
	var agreementID string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the latest tracker of an agreement",
		RunE: func(cmd *cobra.Command, args []string) error {
			tracker, err := app.Trackers.GetByAgreement(cmd.Context(), agreementID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatTracker(tracker))
			return nil
		},
	}

	cmd.Flags().StringVar(&agreementID, "agreement", "", "Agreement ID")
	_ = cmd.MarkFlagRequired("agreement")

	return cmd
}

func newTrackerStepCmd(app *App) *cobra.Command {
	fields := fieldValues{}

	cmd := &cobra.Command{
		Use:   "step <step-id>",
		Short: "Show or update a tracker step",
		Example: `  budgetops tracker step <id>
  budgetops tracker step <id> -s status=COMPLETED -s date_completed=2031-02-01 -s task_completed_by=<user>`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(fields) == 0 {
				step, err := app.Trackers.GetStep(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, formatter.FormatStep(step))
				return nil
			}

			actor, err := app.actor(cmd)
			if err != nil {
				return err
			}
			resp, err := app.updateStepUseCase().UpdateStep(cmd.Context(), contract.UpdateStepRequest{
				StepID: args[0],
				Fields: fields,
				Actor:  actor,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(out, formatter.FormatStep(resp.Step))
			if resp.TrackerAdvanced {
				fmt.Fprintln(out, formatter.FormatTracker(resp.Tracker))
			}
			return nil
		},
	}

	addFieldFlag(cmd.Flags(), fields, "Step field value (repeatable)")

	return cmd
}

func newTrackerDeactivateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <tracker-id>",
		Short: "Take an active tracker out of use",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.actor(cmd)
			if err != nil {
				return err
			}
			tracker, err := app.Trackers.Deactivate(cmd.Context(), args[0], actor)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatTracker(tracker))
			return nil
		},
	}
}
