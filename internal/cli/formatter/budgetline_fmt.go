package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/budgetops/internal/contract"
	"github.com/alexanderramin/budgetops/internal/domain"
)

// FormatBudgetLine renders one budget line as a titled box.
func FormatBudgetLine(b *domain.BudgetLineItem) string {
	pairs := [][2]string{
		{"ID", b.ID},
		{"Status", BudgetLineStatusPill(b.Status, b.InReview)},
		{"Agreement", b.AgreementID},
		{"CAN", Opt(b.CANID)},
		{"Amount", Money(b.Amount)},
		{"Date needed", Date(b.DateNeeded)},
		{"Services component", Opt(b.ServicesComponentID)},
		{"Shop fee", Opt(b.ProcurementShopFeeID)},
		{"Procurement action", Opt(b.ProcurementActionID)},
	}
	if b.LineDescription != "" {
		pairs = append(pairs, [2]string{"Description", b.LineDescription})
	}
	if b.Comments != "" {
		pairs = append(pairs, [2]string{"Comments", b.Comments})
	}
	return RenderBox("Budget line", strings.TrimRight(RenderKV(pairs), "\n"))
}

// FormatBudgetLineList renders the lines of one agreement as a table.
func FormatBudgetLineList(lines []*domain.BudgetLineItem) string {
	rows := make([][]string, 0, len(lines))
	for _, b := range lines {
		rows = append(rows, []string{
			TruncID(b.ID),
			BudgetLineStatusPill(b.Status, b.InReview),
			Money(b.Amount),
			Date(b.DateNeeded),
			Opt(b.CANID),
		})
	}
	return RenderTable([]string{"ID", "STATUS", "AMOUNT", "NEEDED", "CAN"}, rows)
}

// FormatSubmitResult summarizes what a submission applied and what went to review.
func FormatSubmitResult(status contract.SubmitStatus, applied, pending []string) string {
	var b strings.Builder
	switch status {
	case contract.SubmitPending:
		b.WriteString(StylePurple.Render("Submitted for review."))
	default:
		b.WriteString(StyleGreen.Render("Applied."))
	}
	b.WriteString("\n")
	if len(applied) > 0 {
		fmt.Fprintf(&b, "  %s %s\n", Dim("applied:"), strings.Join(applied, ", "))
	}
	for _, id := range pending {
		fmt.Fprintf(&b, "  %s %s\n", Dim("change request:"), id)
	}
	if len(applied) == 0 && len(pending) == 0 {
		b.WriteString(Dim("  nothing changed") + "\n")
	}
	return b.String()
}
