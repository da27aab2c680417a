package cli

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/budgetops/internal/cli/formatter"
	"github.com/alexanderramin/budgetops/internal/contract"
	"github.com/alexanderramin/budgetops/internal/domain"
	"github.com/spf13/cobra"
)

func newChangeRequestCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cr",
		Aliases: []string{"change-request"},
		Short:   "Inspect and review change requests",
	}

	cmd.AddCommand(
		newChangeRequestShowCmd(app),
		newChangeRequestQueueCmd(app),
		newChangeRequestReviewCmd(app),
	)

	return cmd
}

func newChangeRequestShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a change request and its proposed diff",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cr, err := app.Reviews.GetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatChangeRequest(cr))
			return nil
		},
	}
}

func newChangeRequestQueueCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "List the change requests you can review",
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.actor(cmd)
			if err != nil {
				return err
			}
			pending, err := app.Reviews.ListPending(cmd.Context(), actor)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatReviewQueue(pending))
			return nil
		},
	}
}

func newChangeRequestReviewCmd(app *App) *cobra.Command {
	var approve, reject bool
	var notes string

	cmd := &cobra.Command{
		Use:   "review <id>",
		Short: "Approve or reject a change request",
		Long: `Approve or reject a change request.

Without --approve or --reject, an interactive form asks for the decision
when running in a terminal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.actor(cmd)
			if err != nil {
				return err
			}

			decision := &ReviewDecision{Notes: notes}
			switch {
			case approve:
				decision.Action = domain.ReviewApprove
			case reject:
				decision.Action = domain.ReviewReject
			case app.interactive():
				cr, err := app.Reviews.GetByID(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				decision, err = app.reviewForm(cr)
				if errors.Is(err, errReviewCancelled) {
					fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Cancelled."))
					return nil
				}
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("pass --approve or --reject")
			}

			resp, err := app.reviewUseCase().Review(cmd.Context(), contract.ReviewRequest{
				ChangeRequestID: args[0],
				Action:          decision.Action,
				Reviewer:        actor,
				Notes:           decision.Notes,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, formatter.FormatChangeRequest(resp.ChangeRequest))
			if resp.BudgetLine != nil {
				fmt.Fprintln(out, formatter.FormatBudgetLine(resp.BudgetLine))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&approve, "approve", false, "Approve the request")
	cmd.Flags().BoolVar(&reject, "reject", false, "Reject the request")
	cmd.Flags().StringVar(&notes, "notes", "", "Reviewer notes")
	cmd.MarkFlagsMutuallyExclusive("approve", "reject")

	return cmd
}
