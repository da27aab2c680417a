// Package validation holds the side-effect-free rule checks run before any
// budget line or procurement step mutation.
package validation

import (
	"fmt"
	"time"

	"github.com/alexanderramin/budgetops/internal/domain"
	"github.com/shopspring/decimal"
)

// Mode says how proposed values combine with the stored entity.
type Mode int

const (
	// ModeCreate and ModeReplace take every governed value from the proposal.
	ModeCreate Mode = iota
	ModeReplace
	// ModePatch falls back to the stored value for fields the proposal omits.
	ModePatch
)

// BudgetLineInput is everything the budget line rules look at.
type BudgetLineInput struct {
	// Agreement is the owning agreement, nil when it does not exist.
	Agreement *domain.Agreement
	// Current is the stored line, nil on create.
	Current *domain.BudgetLineItem
	// Proposed holds canonical values keyed by field name.
	Proposed domain.FieldValues
	// ServicesComponent is the component the target services_component_id
	// resolves to, nil when unset or not found.
	ServicesComponent *domain.ServicesComponent
	Mode              Mode
	Today             time.Time
}

// ValidateBudgetLineItem returns every rule the proposed budget line state
// violates. Agreement and budget field requirements apply only when the
// effective status is not DRAFT.
func ValidateBudgetLineItem(in BudgetLineInput) domain.ValidationErrors {
	var errs domain.ValidationErrors

	errs = append(errs, checkServicesComponent(in)...)

	target := targetStatus(in)
	if in.Current != nil && in.Proposed.Has(domain.FieldStatus) &&
		!domain.CanTransitionBudgetLine(in.Current.Status, target) {
		errs = append(errs, domain.ValidationError{
			Field:   domain.FieldStatus,
			Message: fmt.Sprintf("cannot change from %s to %s", in.Current.Status, target),
		})
	}

	if target == domain.BudgetLineDraft {
		return errs
	}

	errs = append(errs, checkAgreement(in.Agreement)...)

	if targetValue(in, domain.FieldCANID) == nil {
		errs = append(errs, required(domain.FieldCANID))
	}

	if amount := targetValue(in, domain.FieldAmount); amount == nil {
		errs = append(errs, required(domain.FieldAmount))
	} else if d, err := decimal.NewFromString(*amount); err != nil || !d.IsPositive() {
		errs = append(errs, domain.ValidationError{
			Field:   domain.FieldAmount,
			Message: "must be greater than zero",
		})
	}

	if needed := targetValue(in, domain.FieldDateNeeded); needed == nil {
		errs = append(errs, required(domain.FieldDateNeeded))
	} else if d, err := time.Parse(domain.DateLayout, *needed); err != nil || !d.After(domain.TodayUTC(in.Today)) {
		errs = append(errs, domain.ValidationError{
			Field:   domain.FieldDateNeeded,
			Message: "must be in the future",
		})
	}

	return errs
}

func checkAgreement(a *domain.Agreement) domain.ValidationErrors {
	if a == nil {
		return domain.ValidationErrors{required(domain.FieldAgreementID)}
	}
	variant, err := domain.VariantFor(a.Type)
	if err != nil {
		return domain.ValidationErrors{{Field: domain.FieldAgreementID, Message: err.Error()}}
	}

	var errs domain.ValidationErrors
	for _, f := range variant.RequiredFieldsForStatusChange() {
		v, err := a.FieldValue(f)
		if err != nil || v == nil {
			errs = append(errs, domain.ValidationError{
				Field:   f,
				Message: "must be set on the agreement before budget lines leave DRAFT",
			})
		}
	}

	if variant.RequiresVendorRule() {
		errs = append(errs, CheckVendor(a)...)
	}
	return errs
}

// CheckVendor reports a vendor that disagrees with the agreement reason:
// recompetes and follow-ons name one, new requirements do not.
func CheckVendor(a *domain.Agreement) domain.ValidationErrors {
	if a.AgreementReason == nil {
		return nil
	}
	hasVendor := a.Vendor != nil && *a.Vendor != ""
	switch *a.AgreementReason {
	case domain.ReasonRecompete, domain.ReasonLogicalFollowOn:
		if !hasVendor {
			return domain.ValidationErrors{{
				Field:   domain.FieldVendor,
				Message: fmt.Sprintf("is required when the agreement reason is %s", *a.AgreementReason),
			}}
		}
	case domain.ReasonNewRequirement:
		if hasVendor {
			return domain.ValidationErrors{{
				Field:   domain.FieldVendor,
				Message: "must be empty when the agreement reason is NEW_REQ",
			}}
		}
	}
	return nil
}

func checkServicesComponent(in BudgetLineInput) domain.ValidationErrors {
	id := targetValue(in, domain.FieldServicesComponentID)
	if id == nil {
		return nil
	}
	if in.ServicesComponent == nil || in.ServicesComponent.ID != *id {
		return domain.ValidationErrors{{
			Field:   domain.FieldServicesComponentID,
			Message: "does not exist",
		}}
	}
	if in.ServicesComponent.AgreementID != agreementID(in) {
		return domain.ValidationErrors{{
			Field:   domain.FieldServicesComponentID,
			Message: "must belong to the same agreement as the budget line",
		}}
	}
	return nil
}

func agreementID(in BudgetLineInput) string {
	if in.Agreement != nil {
		return in.Agreement.ID
	}
	if in.Current != nil {
		return in.Current.AgreementID
	}
	return domain.Deref(in.Proposed[domain.FieldAgreementID])
}

func targetStatus(in BudgetLineInput) domain.BudgetLineStatus {
	if v := in.Proposed[domain.FieldStatus]; v != nil {
		return domain.BudgetLineStatus(*v)
	}
	if in.Current != nil {
		return in.Current.Status
	}
	return domain.BudgetLineDraft
}

// targetValue resolves the value a field will hold once the proposal lands.
func targetValue(in BudgetLineInput, field string) *string {
	if v, ok := in.Proposed[field]; ok || in.Mode != ModePatch || in.Current == nil {
		return v
	}
	v, err := in.Current.FieldValue(field)
	if err != nil {
		return nil
	}
	return v
}

func required(field string) domain.ValidationError {
	return domain.ValidationError{Field: field, Message: "is required"}
}
