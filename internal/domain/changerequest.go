package domain

import "time"

// StatusFieldGroup is the field group of status change requests. Budget field
// change requests use the field name itself as their group.
const StatusFieldGroup = FieldStatus

type ChangeRequest struct {
	ID                  string
	Type                ChangeRequestType
	Status              ChangeRequestStatus
	AgreementID         *string
	BudgetLineItemID    *string
	FieldGroup          string
	RequestedChangeData FieldValues
	RequestedChangeDiff map[string]FieldDiff
	RequestorNotes      string
	ReviewerNotes       string
	ManagingDivisionID  *string
	CreatedBy           string
	ReviewedBy          *string
	ReviewedOn          *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (c *ChangeRequest) IsOpen() bool {
	return c.Status == ChangeRequestInReview
}

// HasStatusChange reports whether the request proposes a new status.
func (c *ChangeRequest) HasStatusChange() bool {
	return c.RequestedChangeData.Has(FieldStatus)
}

// HasBudgetChange reports whether the request proposes any budget field.
func (c *ChangeRequest) HasBudgetChange() bool {
	for k := range c.RequestedChangeData {
		if IsBudgetField(k) {
			return true
		}
	}
	return false
}

// RequestedStatus returns the proposed status, or "" when none is proposed.
func (c *ChangeRequest) RequestedStatus() BudgetLineStatus {
	v := c.RequestedChangeData[FieldStatus]
	if v == nil {
		return ""
	}
	return BudgetLineStatus(*v)
}

// TargetID returns the id of the entity the request edits.
func (c *ChangeRequest) TargetID() string {
	if c.BudgetLineItemID != nil {
		return *c.BudgetLineItemID
	}
	return Deref(c.AgreementID)
}
