package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/budgetops/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// BudgetLineStatusPill returns a colored indicator such as "● PLANNED".
// A line with open change requests is marked as in review.
func BudgetLineStatusPill(status domain.BudgetLineStatus, inReview bool) string {
	var pill string
	switch status {
	case domain.BudgetLineDraft:
		pill = StyleDim.Render("○ DRAFT")
	case domain.BudgetLinePlanned:
		pill = StyleBlue.Render("● PLANNED")
	case domain.BudgetLineInExecution:
		pill = StyleYellow.Render("● IN EXECUTION")
	case domain.BudgetLineObligated:
		pill = StyleGreen.Render("✔ OBLIGATED")
	default:
		pill = StyleDim.Render(string(status))
	}
	if inReview {
		pill += " " + StylePurple.Render("(in review)")
	}
	return pill
}

func ChangeRequestStatusPill(status domain.ChangeRequestStatus) string {
	switch status {
	case domain.ChangeRequestInReview:
		return StylePurple.Render("◐ IN REVIEW")
	case domain.ChangeRequestApproved:
		return StyleGreen.Render("✔ APPROVED")
	case domain.ChangeRequestRejected:
		return StyleRed.Render("✖ REJECTED")
	default:
		return StyleDim.Render(string(status))
	}
}

func StepStatusPill(status domain.StepStatus) string {
	switch status {
	case domain.StepPending:
		return StyleDim.Render("○ Pending")
	case domain.StepActive:
		return StyleYellow.Render("● Active")
	case domain.StepCompleted:
		return StyleGreen.Render("✔ Completed")
	case domain.StepSkipped:
		return StyleDim.Render("⊘ Skipped")
	default:
		return StyleDim.Render(string(status))
	}
}

func TrackerStatusPill(status domain.TrackerStatus) string {
	switch status {
	case domain.TrackerActive:
		return StyleGreen.Render("● ACTIVE")
	case domain.TrackerCompleted:
		return StyleBlue.Render("✔ COMPLETED")
	case domain.TrackerInactive:
		return StyleDim.Render("✖ INACTIVE")
	default:
		return StyleDim.Render(string(status))
	}
}

func EventStatusPill(status domain.OpsEventStatus) string {
	if status == domain.EventFailed {
		return StyleRed.Render("FAILED")
	}
	return StyleGreen.Render(string(status))
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", len(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
