package cli

import (
	"fmt"

	"github.com/alexanderramin/budgetops/internal/cli/formatter"
	"github.com/alexanderramin/budgetops/internal/contract"
	"github.com/spf13/cobra"
)

func newBudgetLineCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bli",
		Aliases: []string{"budget-line"},
		Short:   "Create, inspect and change budget lines",
	}

	cmd.AddCommand(
		newBudgetLineCreateCmd(app),
		newBudgetLineShowCmd(app),
		newBudgetLineListCmd(app),
		newBudgetLineSubmitCmd(app),
		newBudgetLineDeleteCmd(app),
	)

	return cmd
}

func newBudgetLineCreateCmd(app *App) *cobra.Command {
	var agreementID string
	fields := fieldValues{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a budget line on an agreement",
		Example: `  budgetops bli create --agreement <id> -s can_id=<can> -s amount=1500.00 -s date_needed=2031-10-01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.actor(cmd)
			if err != nil {
				return err
			}
			bli, err := app.BudgetLines.Create(cmd.Context(), contract.CreateBudgetLineRequest{
				AgreementID: agreementID,
				Fields:      fields,
				Actor:       actor,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatBudgetLine(bli))
			return nil
		},
	}

	cmd.Flags().StringVar(&agreementID, "agreement", "", "Agreement ID")
	addFieldFlag(cmd.Flags(), fields, "Initial field value (repeatable)")
	_ = cmd.MarkFlagRequired("agreement")

	return cmd
}

func newBudgetLineShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a budget line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bli, err := app.BudgetLines.GetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatBudgetLine(bli))
			return nil
		},
	}
}

func newBudgetLineListCmd(app *App) *cobra.Command {
	var agreementID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the budget lines of an agreement",
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := app.BudgetLines.ListByAgreement(cmd.Context(), agreementID)
			if err != nil {
				return err
			}
			if len(lines) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No budget lines found.")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatBudgetLineList(lines))
			return nil
		},
	}

	cmd.Flags().StringVar(&agreementID, "agreement", "", "Agreement ID")
	_ = cmd.MarkFlagRequired("agreement")

	return cmd
}

func newBudgetLineSubmitCmd(app *App) *cobra.Command {
	var notes string
	changes := fieldValues{}

	cmd := &cobra.Command{
		Use:   "submit <id>",
		Short: "Propose changes to a budget line",
		Long: `Propose changes to a budget line.

Budget fields of a line beyond DRAFT and any status change go to review as
change requests. Free-text fields apply immediately.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(changes) == 0 {
				return fmt.Errorf("nothing to submit: pass at least one --set field=value")
			}
			actor, err := app.actor(cmd)
			if err != nil {
				return err
			}
			resp, err := app.submitChangeUseCase().SubmitChange(cmd.Context(), contract.SubmitChangeRequest{
				BudgetLineID:   args[0],
				Changes:        changes,
				Actor:          actor,
				RequestorNotes: notes,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, formatter.FormatSubmitResult(resp.Status, resp.AppliedFields, resp.PendingChangeRequestIDs))
			if resp.BudgetLine != nil {
				fmt.Fprintln(out, formatter.FormatBudgetLine(resp.BudgetLine))
			}
			return nil
		},
	}

	addFieldFlag(cmd.Flags(), changes, "Proposed field value (repeatable)")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes for the reviewer")

	return cmd
}

func newBudgetLineDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a budget line with no financial activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := app.actor(cmd)
			if err != nil {
				return err
			}
			if err := app.BudgetLines.Delete(cmd.Context(), args[0], actor); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted budget line %s\n", args[0])
			return nil
		},
	}
}
