package formatter

import (
	"strings"
	"time"

	"github.com/alexanderramin/budgetops/internal/domain"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2)

	if title != "" {
		return boxStyle.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

// Opt renders an optional value, or a dim placeholder.
func Opt(v *string) string {
	if v == nil || *v == "" {
		return StyleDim.Render("--")
	}
	return *v
}

func Date(t *time.Time) string {
	if t == nil {
		return StyleDim.Render("--")
	}
	return t.Format(domain.DateLayout)
}

// Money renders an amount with two decimals and thousands separators.
func Money(d *decimal.Decimal) string {
	if d == nil {
		return StyleDim.Render("--")
	}
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := "$" + b.String() + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}
