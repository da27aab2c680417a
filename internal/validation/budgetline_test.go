package validation

import (
	"testing"
	"time"

	"github.com/alexanderramin/budgetops/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2030, 6, 15, 10, 30, 0, 0, time.UTC)

func completeAgreement(typ domain.AgreementType) *domain.Agreement {
	reason := domain.ReasonNewRequirement
	return &domain.Agreement{
		ID:                   "agr-1",
		Type:                 typ,
		Name:                 "Evaluation support",
		Description:          "Program evaluation",
		ProjectID:            domain.StrPtr("proj-1"),
		ProductServiceCodeID: domain.StrPtr("psc-1"),
		AwardingEntityID:     domain.StrPtr("shop-1"),
		AgreementReason:      &reason,
		ProjectOfficerID:     domain.StrPtr("po-1"),
	}
}

func draftLine(amount string, needed *time.Time, canID *string) *domain.BudgetLineItem {
	b := &domain.BudgetLineItem{ID: "bli-1", AgreementID: "agr-1", Status: domain.BudgetLineDraft, CANID: canID, DateNeeded: needed}
	if amount != "" {
		d := decimal.RequireFromString(amount)
		b.Amount = &d
	}
	return b
}

func toPlanned() domain.FieldValues {
	return domain.FieldValues{domain.FieldStatus: domain.StrPtr(string(domain.BudgetLinePlanned))}
}

func TestValidateBudgetLineItem_DraftSkipsStatusRules(t *testing.T) {
	errs := ValidateBudgetLineItem(BudgetLineInput{
		Current:  draftLine("", nil, nil),
		Proposed: domain.FieldValues{domain.FieldComments: domain.StrPtr("x")},
		Mode:     ModePatch,
		Today:    today,
	})
	assert.Empty(t, errs)
}

func TestValidateBudgetLineItem_PlanningNeedsCANAndDateNeeded(t *testing.T) {
	errs := ValidateBudgetLineItem(BudgetLineInput{
		Agreement: completeAgreement(domain.AgreementContract),
		Current:   draftLine("100.12", nil, nil),
		Proposed:  toPlanned(),
		Mode:      ModePatch,
		Today:     today,
	})
	assert.ElementsMatch(t, []string{domain.FieldCANID, domain.FieldDateNeeded}, errs.Fields())
}

func TestValidateBudgetLineItem_PlanningWithDateStillNeedsCAN(t *testing.T) {
	needed := time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC)
	errs := ValidateBudgetLineItem(BudgetLineInput{
		Agreement: completeAgreement(domain.AgreementContract),
		Current:   draftLine("100.12", &needed, nil),
		Proposed:  toPlanned(),
		Mode:      ModePatch,
		Today:     today,
	})
	require.Len(t, errs, 1)
	assert.Equal(t, domain.FieldCANID, errs[0].Field)
}

func TestValidateBudgetLineItem_ReplaceIgnoresStoredValues(t *testing.T) {
	needed := time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC)
	errs := ValidateBudgetLineItem(BudgetLineInput{
		Agreement: completeAgreement(domain.AgreementContract),
		Current:   draftLine("100.12", &needed, domain.StrPtr("can-1")),
		Proposed:  toPlanned(),
		Mode:      ModeReplace,
		Today:     today,
	})
	assert.ElementsMatch(t, []string{domain.FieldCANID, domain.FieldAmount, domain.FieldDateNeeded}, errs.Fields())
}

func TestValidateBudgetLineItem_AmountAndDateDirection(t *testing.T) {
	errs := ValidateBudgetLineItem(BudgetLineInput{
		Agreement: completeAgreement(domain.AgreementGrant),
		Proposed: domain.FieldValues{
			domain.FieldStatus:     domain.StrPtr("PLANNED"),
			domain.FieldCANID:      domain.StrPtr("can-1"),
			domain.FieldAmount:     domain.StrPtr("0"),
			domain.FieldDateNeeded: domain.StrPtr(today.Format(domain.DateLayout)),
		},
		Mode:  ModeCreate,
		Today: today,
	})
	require.Len(t, errs, 2)
	assert.True(t, errs.Has(domain.FieldAmount))
	assert.True(t, errs.Has(domain.FieldDateNeeded), "today is not strictly in the future")
}

func TestValidateBudgetLineItem_StatusGateCompleteness(t *testing.T) {
	needed := time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, typ := range domain.AgreementTypes {
		variant, err := domain.VariantFor(typ)
		require.NoError(t, err)

		t.Run(string(typ)+"/complete", func(t *testing.T) {
			errs := ValidateBudgetLineItem(BudgetLineInput{
				Agreement: completeAgreement(typ),
				Current:   draftLine("10", &needed, domain.StrPtr("can-1")),
				Proposed:  toPlanned(),
				Mode:      ModePatch,
				Today:     today,
			})
			assert.Empty(t, errs)
		})

		for _, field := range variant.RequiredFieldsForStatusChange() {
			t.Run(string(typ)+"/missing_"+field, func(t *testing.T) {
				agreement := completeAgreement(typ)
				require.NoError(t, agreement.ApplyField(field, nil))
				errs := ValidateBudgetLineItem(BudgetLineInput{
					Agreement: agreement,
					Current:   draftLine("10", &needed, domain.StrPtr("can-1")),
					Proposed:  toPlanned(),
					Mode:      ModePatch,
					Today:     today,
				})
				assert.True(t, errs.Has(field), "expected an error naming %s, got %v", field, errs)
			})
		}

		for _, field := range []string{domain.FieldCANID, domain.FieldAmount, domain.FieldDateNeeded} {
			t.Run(string(typ)+"/missing_"+field, func(t *testing.T) {
				proposed := toPlanned()
				proposed[field] = nil
				errs := ValidateBudgetLineItem(BudgetLineInput{
					Agreement: completeAgreement(typ),
					Current:   draftLine("10", &needed, domain.StrPtr("can-1")),
					Proposed:  proposed,
					Mode:      ModePatch,
					Today:     today,
				})
				assert.Equal(t, []string{field}, errs.Fields())
			})
		}
	}
}

func TestValidateBudgetLineItem_MissingAgreement(t *testing.T) {
	needed := time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC)
	errs := ValidateBudgetLineItem(BudgetLineInput{
		Current:  draftLine("10", &needed, domain.StrPtr("can-1")),
		Proposed: toPlanned(),
		Mode:     ModePatch,
		Today:    today,
	})
	assert.Equal(t, []string{domain.FieldAgreementID}, errs.Fields())
}

func TestValidateBudgetLineItem_VendorRule(t *testing.T) {
	needed := time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC)
	run := func(a *domain.Agreement) domain.ValidationErrors {
		return ValidateBudgetLineItem(BudgetLineInput{
			Agreement: a,
			Current:   draftLine("10", &needed, domain.StrPtr("can-1")),
			Proposed:  toPlanned(),
			Mode:      ModePatch,
			Today:     today,
		})
	}

	recompete := completeAgreement(domain.AgreementContract)
	r := domain.ReasonRecompete
	recompete.AgreementReason = &r
	assert.True(t, run(recompete).Has(domain.FieldVendor))

	recompete.Vendor = domain.StrPtr("Acme")
	assert.Empty(t, run(recompete))

	newReq := completeAgreement(domain.AgreementAA)
	newReq.Vendor = domain.StrPtr("Acme")
	assert.True(t, run(newReq).Has(domain.FieldVendor))

	grant := completeAgreement(domain.AgreementGrant)
	grant.AgreementReason = &r
	assert.Empty(t, run(grant), "grants carry no vendor rule")
}

func TestCheckVendor(t *testing.T) {
	tests := []struct {
		name    string
		reason  *domain.AgreementReason
		vendor  *string
		wantErr bool
	}{
		{name: "no reason", vendor: domain.StrPtr("Acme")},
		{name: "new requirement without vendor", reason: reasonPtr(domain.ReasonNewRequirement)},
		{name: "new requirement with vendor", reason: reasonPtr(domain.ReasonNewRequirement), vendor: domain.StrPtr("Acme"), wantErr: true},
		{name: "recompete without vendor", reason: reasonPtr(domain.ReasonRecompete), wantErr: true},
		{name: "recompete with blank vendor", reason: reasonPtr(domain.ReasonRecompete), vendor: domain.StrPtr(""), wantErr: true},
		{name: "follow-on with vendor", reason: reasonPtr(domain.ReasonLogicalFollowOn), vendor: domain.StrPtr("Acme")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := CheckVendor(&domain.Agreement{AgreementReason: tt.reason, Vendor: tt.vendor})
			assert.Equal(t, tt.wantErr, errs.Has(domain.FieldVendor))
		})
	}
}

func reasonPtr(r domain.AgreementReason) *domain.AgreementReason { return &r }

func TestValidateBudgetLineItem_ServicesComponentCheckedInDraft(t *testing.T) {
	errs := ValidateBudgetLineItem(BudgetLineInput{
		Agreement:         completeAgreement(domain.AgreementContract),
		Current:           draftLine("", nil, nil),
		Proposed:          domain.FieldValues{domain.FieldServicesComponentID: domain.StrPtr("sc-9")},
		ServicesComponent: &domain.ServicesComponent{ID: "sc-9", AgreementID: "agr-other"},
		Mode:              ModePatch,
		Today:             today,
	})
	require.Len(t, errs, 1)
	assert.Equal(t, domain.FieldServicesComponentID, errs[0].Field)

	errs = ValidateBudgetLineItem(BudgetLineInput{
		Agreement: completeAgreement(domain.AgreementContract),
		Current:   draftLine("", nil, nil),
		Proposed:  domain.FieldValues{domain.FieldServicesComponentID: domain.StrPtr("sc-missing")},
		Mode:      ModePatch,
		Today:     today,
	})
	assert.True(t, errs.Has(domain.FieldServicesComponentID))
}

func TestValidateBudgetLineItem_RejectsIllegalTransition(t *testing.T) {
	needed := time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC)
	current := draftLine("10", &needed, domain.StrPtr("can-1"))
	errs := ValidateBudgetLineItem(BudgetLineInput{
		Agreement: completeAgreement(domain.AgreementContract),
		Current:   current,
		Proposed:  domain.FieldValues{domain.FieldStatus: domain.StrPtr("OBLIGATED")},
		Mode:      ModePatch,
		Today:     today,
	})
	assert.Equal(t, []string{domain.FieldStatus}, errs.Fields())
}
