package app

import "github.com/alexanderramin/budgetops/internal/domain"

type ReviewStatus string

const (
	ReviewOK    ReviewStatus = "OK"
	ReviewError ReviewStatus = "ERROR"
)

type ReviewRequest struct {
	ChangeRequestID string
	Action          domain.ReviewAction
	Reviewer        domain.Actor
	Notes           string
}

// ReviewResponse carries the reviewed request and a snapshot of its target
// after the decision. Exactly one of BudgetLine and Agreement is set.
type ReviewResponse struct {
	Status        ReviewStatus
	ChangeRequest *domain.ChangeRequest
	BudgetLine    *domain.BudgetLineItem
	Agreement     *domain.Agreement
}
