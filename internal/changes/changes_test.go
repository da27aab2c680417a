package changes

import (
	"testing"

	"github.com/alexanderramin/budgetops/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plannedLine() *domain.BudgetLineItem {
	amount := decimal.RequireFromString("111.11")
	return &domain.BudgetLineItem{
		ID:          "bli-1",
		AgreementID: "agr-1",
		Amount:      &amount,
		CANID:       domain.StrPtr("500"),
		Status:      domain.BudgetLinePlanned,
	}
}

func TestChangedFields_DropsUnchanged(t *testing.T) {
	changed, err := ChangedFields(plannedLine(), domain.FieldValues{
		domain.FieldAmount:     domain.StrPtr("111.11"),
		domain.FieldCANID:      domain.StrPtr("501"),
		domain.FieldDateNeeded: nil,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{domain.FieldCANID}, changed.Keys())
}

func TestChangedFields_UnknownField(t *testing.T) {
	_, err := ChangedFields(plannedLine(), domain.FieldValues{"color": domain.StrPtr("red")})
	assert.Error(t, err)
}

func TestDiff_RoundTrip(t *testing.T) {
	line := plannedLine()
	proposals := []domain.FieldValues{
		{domain.FieldAmount: domain.StrPtr("222.22")},
		{domain.FieldCANID: domain.StrPtr("501"), domain.FieldDateNeeded: domain.StrPtr("2032-02-02")},
		{domain.FieldCANID: nil, domain.FieldStatus: domain.StrPtr("IN_EXECUTION"), domain.FieldComments: domain.StrPtr("c")},
		{},
	}
	for _, p := range proposals {
		diff, err := Diff(line, p)
		require.NoError(t, err)
		require.Len(t, diff, len(p))
		for k, v := range p {
			d, ok := diff[k]
			require.True(t, ok, k)
			old, err := line.FieldValue(k)
			require.NoError(t, err)
			assert.Equal(t, old, d.Old, k)
			assert.Equal(t, v, d.New, k)
		}
	}
}

func TestPartition_OneGroupPerBudgetField(t *testing.T) {
	p := Partition(domain.FieldValues{
		domain.FieldAmount:     domain.StrPtr("222.22"),
		domain.FieldCANID:      domain.StrPtr("501"),
		domain.FieldDateNeeded: domain.StrPtr("2032-02-02"),
	})
	require.Len(t, p.Groups, 3)
	assert.Equal(t, domain.FieldAmount, p.Groups[0].Name)
	assert.Equal(t, domain.FieldCANID, p.Groups[1].Name)
	assert.Equal(t, domain.FieldDateNeeded, p.Groups[2].Name)
	for _, g := range p.Groups {
		assert.Equal(t, []string{g.Name}, g.Data.Keys())
	}
	assert.Empty(t, p.Direct)
	assert.False(t, p.HasStatusChange())
}

func TestPartition_StatusAndDirectFields(t *testing.T) {
	p := Partition(domain.FieldValues{
		domain.FieldStatus:          domain.StrPtr("IN_EXECUTION"),
		domain.FieldLineDescription: domain.StrPtr("desc"),
		domain.FieldComments:        nil,
	})
	require.Len(t, p.Groups, 1)
	assert.Equal(t, domain.StatusFieldGroup, p.Groups[0].Name)
	assert.True(t, p.HasStatusChange())
	assert.Equal(t, []string{domain.FieldComments, domain.FieldLineDescription}, p.Direct.Keys())
	assert.Equal(t, []string{domain.FieldStatus}, p.Reviewed().Keys())
}
