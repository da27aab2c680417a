package app

import "github.com/alexanderramin/budgetops/internal/domain"

// SubmitStatus tells whether a submission was applied now or waits for review.
type SubmitStatus string

const (
	SubmitApplied SubmitStatus = "APPLIED"
	SubmitPending SubmitStatus = "PENDING"
)

type CreateBudgetLineRequest struct {
	AgreementID string
	// Fields holds raw values keyed by budget line field name.
	Fields map[string]*string
	Actor  domain.Actor
}

type SubmitChangeRequest struct {
	BudgetLineID   string
	Changes        map[string]*string
	Actor          domain.Actor
	RequestorNotes string
}

type SubmitChangeResponse struct {
	Status                  SubmitStatus
	AppliedFields           []string
	PendingChangeRequestIDs []string
	BudgetLine              *domain.BudgetLineItem
}

type UpdateAgreementRequest struct {
	AgreementID    string
	Changes        map[string]*string
	Actor          domain.Actor
	RequestorNotes string
}

type UpdateAgreementResponse struct {
	Status                  SubmitStatus
	AppliedFields           []string
	PendingChangeRequestIDs []string
	Agreement               *domain.Agreement
}
