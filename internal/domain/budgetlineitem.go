package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	FieldAgreementID          = "agreement_id"
	FieldAmount               = "amount"
	FieldCANID                = "can_id"
	FieldDateNeeded           = "date_needed"
	FieldServicesComponentID  = "services_component_id"
	FieldProcurementShopFeeID = "procurement_shop_fee_id"
	FieldStatus               = "status"
	FieldLineDescription      = "line_description"
	FieldComments             = "comments"
)

// BudgetFields are the fields whose edits on a non-draft line need review,
// in the order their change requests are created.
var BudgetFields = []string{
	FieldAmount,
	FieldCANID,
	FieldDateNeeded,
	FieldServicesComponentID,
	FieldProcurementShopFeeID,
}

// DirectFields never need review.
var DirectFields = []string{
	FieldLineDescription,
	FieldComments,
}

// IsBudgetField reports whether name belongs to the reviewable budget group.
func IsBudgetField(name string) bool {
	for _, f := range BudgetFields {
		if f == name {
			return true
		}
	}
	return false
}

// IsDirectField reports whether name is a free-text field applied without review.
func IsDirectField(name string) bool {
	for _, f := range DirectFields {
		if f == name {
			return true
		}
	}
	return false
}

type BudgetLineItem struct {
	ID                   string
	AgreementID          string
	CANID                *string
	Amount               *decimal.Decimal
	Status               BudgetLineStatus
	DateNeeded           *time.Time
	ServicesComponentID  *string
	ProcurementShopFeeID *string
	ProcurementActionID  *string
	LineDescription      string
	Comments             string
	IsObe                bool
	CreatedBy            string
	CreatedAt            time.Time
	UpdatedAt            time.Time

	// InReview is derived from open change requests and never persisted.
	InReview bool
}

// IsDraft reports whether the line still accepts direct edits of budget fields.
func (b *BudgetLineItem) IsDraft() bool {
	return b.Status == BudgetLineDraft
}

// HasFinancialActivity reports whether money has been committed against the line.
func (b *BudgetLineItem) HasFinancialActivity() bool {
	return b.ProcurementActionID != nil ||
		b.Status == BudgetLineInExecution ||
		b.Status == BudgetLineObligated
}

// FieldValue returns the canonical serialized value of an editable field.
func (b *BudgetLineItem) FieldValue(name string) (*string, error) {
	switch name {
	case FieldAgreementID:
		return StrPtr(b.AgreementID), nil
	case FieldAmount:
		return formatDecimal(b.Amount), nil
	case FieldCANID:
		return b.CANID, nil
	case FieldDateNeeded:
		return formatDate(b.DateNeeded), nil
	case FieldServicesComponentID:
		return b.ServicesComponentID, nil
	case FieldProcurementShopFeeID:
		return b.ProcurementShopFeeID, nil
	case FieldStatus:
		return StrPtr(string(b.Status)), nil
	case FieldLineDescription:
		return nonEmpty(StrPtr(b.LineDescription)), nil
	case FieldComments:
		return nonEmpty(StrPtr(b.Comments)), nil
	default:
		return nil, fmt.Errorf("budget line item has no field %q", name)
	}
}

// ApplyField sets a field from its canonical serialized value.
func (b *BudgetLineItem) ApplyField(name string, v *string) error {
	switch name {
	case FieldAmount:
		d, err := parseDecimal(name, v)
		if err != nil {
			return err
		}
		b.Amount = d
	case FieldCANID:
		b.CANID = v
	case FieldDateNeeded:
		t, err := parseDate(name, v)
		if err != nil {
			return err
		}
		b.DateNeeded = t
	case FieldServicesComponentID:
		b.ServicesComponentID = v
	case FieldProcurementShopFeeID:
		b.ProcurementShopFeeID = v
	case FieldStatus:
		if v == nil {
			return fmt.Errorf("%s: cannot be cleared", name)
		}
		b.Status = BudgetLineStatus(*v)
	case FieldLineDescription:
		b.LineDescription = Deref(v)
	case FieldComments:
		b.Comments = Deref(v)
	default:
		return fmt.Errorf("budget line item field %q is not editable", name)
	}
	return nil
}

// NormalizeBudgetLineField validates the raw value of an editable field and
// returns its canonical form, so equal values always serialize identically.
func NormalizeBudgetLineField(name string, v *string) (*string, error) {
	switch name {
	case FieldAmount:
		return normalizeDecimal(name, v)
	case FieldDateNeeded:
		return normalizeDate(name, v)
	case FieldCANID, FieldServicesComponentID, FieldProcurementShopFeeID:
		return nonEmpty(v), nil
	case FieldStatus:
		s := nonEmpty(v)
		if s == nil {
			return nil, fmt.Errorf("%s: cannot be cleared", name)
		}
		if !ValidBudgetLineStatuses[BudgetLineStatus(*s)] {
			return nil, fmt.Errorf("%s: unknown status %q", name, *s)
		}
		return s, nil
	case FieldLineDescription, FieldComments:
		return nonEmpty(v), nil
	default:
		return nil, fmt.Errorf("%s: not an editable budget line item field", name)
	}
}
