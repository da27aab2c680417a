package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/budgetops/internal/domain"
)

// FormatTracker renders a procurement tracker and its steps in order.
func FormatTracker(t *domain.ProcurementTracker) string {
	var b strings.Builder
	b.WriteString(RenderKV([][2]string{
		{"ID", t.ID},
		{"Status", TrackerStatusPill(t.Status)},
		{"Type", string(t.TrackerType)},
		{"Active step", fmt.Sprintf("%d of %d", t.ActiveStepNumber, t.StepCount())},
		{"Action", Opt(t.ProcurementActionID)},
	}))
	b.WriteString("\n")

	rows := make([][]string, 0, len(t.Steps))
	for _, s := range t.Steps {
		marker := " "
		if s.StepNumber == t.ActiveStepNumber && t.Status == domain.TrackerActive {
			marker = StyleHeader.Render("▸")
		}
		rows = append(rows, []string{
			marker + fmt.Sprint(s.StepNumber),
			string(s.StepType),
			StepStatusPill(s.Status),
			Date(s.StepStartDate),
			Date(s.StepCompletedDate),
			s.ID,
		})
	}
	b.WriteString(RenderTable([]string{"#", "STEP", "STATUS", "STARTED", "COMPLETED", "STEP ID"}, rows))
	return RenderBox("Procurement tracker", strings.TrimRight(b.String(), "\n"))
}

// FormatStep renders a single tracker step with every field its type carries.
func FormatStep(s *domain.ProcurementTrackerStep) string {
	pairs := [][2]string{
		{"ID", s.ID},
		{"Step", fmt.Sprintf("%d %s", s.StepNumber, s.StepType)},
		{"Status", StepStatusPill(s.Status)},
	}
	for _, f := range stepFieldOrder {
		if f == domain.StepFieldStatus || !s.StepType.AllowsField(f) {
			continue
		}
		v, err := s.FieldValue(f)
		if err != nil {
			continue
		}
		pairs = append(pairs, [2]string{f, Opt(v)})
	}
	return RenderBox("Tracker step", strings.TrimRight(RenderKV(pairs), "\n"))
}

var stepFieldOrder = []string{
	domain.StepFieldStatus,
	domain.StepFieldTaskCompletedBy,
	domain.StepFieldDateCompleted,
	domain.StepFieldNotes,
	domain.StepFieldTargetCompletionDate,
	domain.StepFieldDraftSolicitationDate,
	domain.StepFieldSolicitationPeriodStartDate,
	domain.StepFieldSolicitationPeriodEndDate,
	domain.StepFieldApprovalRequested,
	domain.StepFieldApprovalRequestedDate,
}
