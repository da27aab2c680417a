package formatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alexanderramin/budgetops/internal/domain"
)

// FormatChangeRequest renders a change request with its proposed diff.
func FormatChangeRequest(cr *domain.ChangeRequest) string {
	target := "agreement " + domain.Deref(cr.AgreementID)
	if cr.BudgetLineItemID != nil {
		target = "budget line " + *cr.BudgetLineItemID
	}
	pairs := [][2]string{
		{"ID", cr.ID},
		{"Status", ChangeRequestStatusPill(cr.Status)},
		{"Target", target},
		{"Group", cr.FieldGroup},
		{"Division", Opt(cr.ManagingDivisionID)},
		{"Requested by", cr.CreatedBy},
		{"Requested on", cr.CreatedAt.Format(domain.DateLayout)},
	}
	if cr.RequestorNotes != "" {
		pairs = append(pairs, [2]string{"Notes", cr.RequestorNotes})
	}
	if cr.ReviewedBy != nil {
		pairs = append(pairs, [2]string{"Reviewed by", *cr.ReviewedBy})
		pairs = append(pairs, [2]string{"Reviewed on", Date(cr.ReviewedOn)})
	}
	if cr.ReviewerNotes != "" {
		pairs = append(pairs, [2]string{"Reviewer notes", cr.ReviewerNotes})
	}

	var b strings.Builder
	b.WriteString(RenderKV(pairs))
	b.WriteString("\n")
	b.WriteString(FormatDiff(cr.RequestedChangeDiff))
	return RenderBox("Change request", strings.TrimRight(b.String(), "\n"))
}

// FormatDiff renders field diffs sorted by field name.
func FormatDiff(diff map[string]domain.FieldDiff) string {
	keys := make([]string, 0, len(diff))
	for k := range diff {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		d := diff[k]
		rows = append(rows, []string{k, StyleRed.Render(Opt(d.Old)), "→", StyleGreen.Render(Opt(d.New))})
	}
	return RenderTable([]string{"FIELD", "FROM", "", "TO"}, rows)
}

// FormatReviewQueue renders the change requests waiting on a reviewer.
func FormatReviewQueue(requests []*domain.ChangeRequest) string {
	if len(requests) == 0 {
		return Dim("Nothing to review.") + "\n"
	}
	rows := make([][]string, 0, len(requests))
	for _, cr := range requests {
		target := domain.Deref(cr.BudgetLineItemID)
		if target == "" {
			target = domain.Deref(cr.AgreementID)
		}
		rows = append(rows, []string{
			TruncID(cr.ID),
			cr.FieldGroup,
			TruncID(target),
			cr.CreatedBy,
			cr.CreatedAt.Format(domain.DateLayout),
		})
	}
	return fmt.Sprintf("%s\n%s", Header(fmt.Sprintf("Review queue (%d)", len(requests))), RenderTable(
		[]string{"ID", "GROUP", "TARGET", "REQUESTED BY", "SUBMITTED"}, rows))
}
