package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/alexanderramin/budgetops/internal/cli/formatter"
	"github.com/alexanderramin/budgetops/internal/domain"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// ReviewDecision is what a reviewer chose for one change request.
type ReviewDecision struct {
	Action domain.ReviewAction
	Notes  string
}

var errReviewCancelled = errors.New("review cancelled")

func budgetopsHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// reviewFormModel runs the review form as a program of its own so a
// cancel key ends it cleanly.
type reviewFormModel struct {
	form      *huh.Form
	cancel    key.Binding
	cancelled bool
	done      bool
}

func newReviewFormModel(cr *domain.ChangeRequest, decision *ReviewDecision) *reviewFormModel {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title(fmt.Sprintf("Change request %s", cr.ID)).
				Description(describeChange(cr)),
			huh.NewSelect[domain.ReviewAction]().
				Title("Decision").
				Options(
					huh.NewOption("Approve", domain.ReviewApprove),
					huh.NewOption("Reject", domain.ReviewReject),
				).
				Value(&decision.Action),
			huh.NewText().
				Title("Notes (optional)").
				CharLimit(2000).
				Value(&decision.Notes),
		),
	).WithTheme(budgetopsHuhTheme()).WithShowHelp(false)

	return &reviewFormModel{
		form:   form,
		cancel: key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "cancel")),
	}
}

// describeChange lists the proposed field changes, one per line.
func describeChange(cr *domain.ChangeRequest) string {
	keys := make([]string, 0, len(cr.RequestedChangeDiff))
	for k := range cr.RequestedChangeDiff {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		d := cr.RequestedChangeDiff[k]
		lines = append(lines, fmt.Sprintf("%s: %s → %s", k, orNone(d.Old), orNone(d.New)))
	}
	if cr.RequestorNotes != "" {
		lines = append(lines, "", "Notes: "+cr.RequestorNotes)
	}
	return strings.Join(lines, "\n")
}

func orNone(v *string) string {
	if v == nil {
		return "(none)"
	}
	return *v
}

func (m *reviewFormModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m *reviewFormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && key.Matches(k, m.cancel) {
		m.cancelled = true
		return m, tea.Quit
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.done = true
		return m, tea.Quit
	case huh.StateAborted:
		m.cancelled = true
		return m, tea.Quit
	}
	return m, cmd
}

func (m *reviewFormModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	return m.form.View() + "\n" + formatter.Dim(m.cancel.Help().Key+" "+m.cancel.Help().Desc)
}

func runReviewForm(cr *domain.ChangeRequest) (*ReviewDecision, error) {
	decision := &ReviewDecision{Action: domain.ReviewApprove}
	final, err := tea.NewProgram(newReviewFormModel(cr, decision)).Run()
	if err != nil {
		return nil, fmt.Errorf("running review form: %w", err)
	}
	if m, ok := final.(*reviewFormModel); ok && m.cancelled {
		return nil, errReviewCancelled
	}
	return decision, nil
}
