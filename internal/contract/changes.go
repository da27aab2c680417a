package contract

import "github.com/alexanderramin/budgetops/internal/app"

type SubmitStatus = app.SubmitStatus

const (
	SubmitApplied SubmitStatus = app.SubmitApplied
	SubmitPending SubmitStatus = app.SubmitPending
)

type CreateBudgetLineRequest = app.CreateBudgetLineRequest

type SubmitChangeRequest = app.SubmitChangeRequest

type SubmitChangeResponse = app.SubmitChangeResponse

type UpdateAgreementRequest = app.UpdateAgreementRequest

type UpdateAgreementResponse = app.UpdateAgreementResponse

// ValidationIssue is the caller-facing form of one violated rule.
type ValidationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
