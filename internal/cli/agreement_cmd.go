package cli

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/budgetops/internal/cli/formatter"
	"github.com/alexanderramin/budgetops/internal/contract"
	"github.com/alexanderramin/budgetops/internal/domain"
	"github.com/spf13/cobra"
)

func newAgreementCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agreement",
		Short: "Inspect and update agreements",
	}

	cmd.AddCommand(
		newAgreementShowCmd(app),
		newAgreementUpdateCmd(app),
	)

	return cmd
}

func formatAgreement(a *domain.Agreement) string {
	reason := ""
	if a.AgreementReason != nil {
		reason = string(*a.AgreementReason)
	}
	return formatter.RenderBox("Agreement "+a.Name, strings.TrimRight(formatter.RenderKV([][2]string{
		{"ID", a.ID},
		{"Type", string(a.Type)},
		{"Description", formatter.Opt(&a.Description)},
		{"Project", formatter.Opt(a.ProjectID)},
		{"PSC", formatter.Opt(a.ProductServiceCodeID)},
		{"Awarding entity", formatter.Opt(a.AwardingEntityID)},
		{"Reason", formatter.Opt(&reason)},
		{"Project officer", formatter.Opt(a.ProjectOfficerID)},
		{"Vendor", formatter.Opt(a.Vendor)},
		{"Team", strings.Join(a.TeamMemberIDs, ", ")},
	}), "\n"))
}

func newAgreementShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an agreement and its budget lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Agreements.GetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			lines, err := app.BudgetLines.ListByAgreement(cmd.Context(), a.ID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, formatAgreement(a))
			if len(lines) > 0 {
				fmt.Fprint(out, formatter.FormatBudgetLineList(lines))
			}
			return nil
		},
	}
}

func newAgreementUpdateCmd(app *App) *cobra.Command {
	var notes string
	changes := fieldValues{}

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change agreement fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(changes) == 0 {
				return fmt.Errorf("nothing to update: pass at least one --set field=value")
			}
			actor, err := app.actor(cmd)
			if err != nil {
				return err
			}
			resp, err := app.updateAgreementUseCase().Update(cmd.Context(), contract.UpdateAgreementRequest{
				AgreementID:    args[0],
				Changes:        changes,
				Actor:          actor,
				RequestorNotes: notes,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, formatter.FormatSubmitResult(resp.Status, resp.AppliedFields, resp.PendingChangeRequestIDs))
			fmt.Fprintln(out, formatAgreement(resp.Agreement))
			return nil
		},
	}

	addFieldFlag(cmd.Flags(), changes, "Agreement field value (repeatable)")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes for the reviewer")

	return cmd
}
