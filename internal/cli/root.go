package cli

import (
	"fmt"

	"github.com/alexanderramin/budgetops/internal/cli/formatter"
	"github.com/alexanderramin/budgetops/internal/contract"
	"github.com/alexanderramin/budgetops/internal/domain"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the top-level "budgetops" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "budgetops",
		Short:         "Budget line approvals and procurement tracking",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("as", "", "User ID to act as (defaults to the configured actor)")

	root.AddCommand(
		newBudgetLineCmd(app),
		newChangeRequestCmd(app),
		newTrackerCmd(app),
		newAgreementCmd(app),
		newHistoryCmd(app),
		newEventsCmd(app),
		newNotificationsCmd(app),
	)

	return root
}

// actor resolves the acting user from --as, falling back to the default.
func (a *App) actor(cmd *cobra.Command) (domain.Actor, error) {
	id, _ := cmd.Flags().GetString("as")
	if id == "" {
		id = a.DefaultActor
	}
	if id == "" {
		return domain.Actor{}, fmt.Errorf("no actor: pass --as <user-id> or set BUDGETOPS_ACTOR")
	}
	return a.resolveActorUseCase().ResolveActor(cmd.Context(), id)
}

// RenderError formats a command error for the terminal.
func RenderError(err error) string {
	kind, issues := contract.Classify(err)
	return formatter.FormatError(kind, issues, err)
}

// ExitCode maps an error onto the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	kind, _ := contract.Classify(err)
	switch kind {
	case contract.KindValidation:
		return 2
	case contract.KindStateConflict:
		return 3
	case contract.KindNotFound:
		return 4
	case contract.KindUnauthorized:
		return 5
	default:
		return 1
	}
}
