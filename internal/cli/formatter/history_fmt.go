package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/budgetops/internal/contract"
	"github.com/alexanderramin/budgetops/internal/domain"
)

const timestampLayout = "2006-01-02 15:04"

// FormatHistory renders history records oldest first. Property records
// show the before/after values of the one field they describe.
func FormatHistory(records []*domain.HistoryRecord) string {
	if len(records) == 0 {
		return Dim("No history.") + "\n"
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		change := ""
		if r.PropertyKey != nil && r.Change != nil {
			change = fmt.Sprintf("%s: %s → %s", *r.PropertyKey, Opt(r.Change.Old), Opt(r.Change.New))
		}
		rows = append(rows, []string{
			r.Timestamp.Format(timestampLayout),
			string(r.EventType),
			r.EventClass,
			change,
			r.ActorID,
		})
	}
	return RenderTable([]string{"WHEN", "EVENT", "VIA", "CHANGE", "BY"}, rows)
}

func FormatEvents(events []*domain.OpsEvent) string {
	if len(events) == 0 {
		return Dim("No events.") + "\n"
	}
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{
			e.CreatedAt.Format(timestampLayout),
			string(e.EventType),
			EventStatusPill(e.EventStatus),
			e.ErrorMessage,
		})
	}
	return RenderTable([]string{"WHEN", "TYPE", "STATUS", "ERROR"}, rows)
}

func FormatNotifications(notes []*domain.Notification) string {
	if len(notes) == 0 {
		return Dim("No notifications.") + "\n"
	}
	var b strings.Builder
	for _, n := range notes {
		fmt.Fprintf(&b, "%s  %s  %s\n", n.CreatedAt.Format(timestampLayout),
			ChangeRequestStatusPill(n.Outcome), n.Message)
	}
	return b.String()
}

// FormatError renders a classified service error. Validation failures list
// every violated rule.
func FormatError(kind contract.ErrorKind, issues []contract.ValidationIssue, err error) string {
	var b strings.Builder
	b.WriteString(StyleRed.Render(string(kind)))
	if len(issues) == 0 {
		b.WriteString(" " + err.Error() + "\n")
		return b.String()
	}
	b.WriteString("\n")
	for _, is := range issues {
		fmt.Fprintf(&b, "  %s %s\n", StyleBold.Render(is.Field), is.Message)
	}
	return b.String()
}
