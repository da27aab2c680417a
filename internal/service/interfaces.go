package service

import (
	"context"

	"github.com/alexanderramin/budgetops/internal/contract"
	"github.com/alexanderramin/budgetops/internal/domain"
)

type BudgetLineService interface {
	Create(ctx context.Context, req contract.CreateBudgetLineRequest) (*domain.BudgetLineItem, error)
	GetByID(ctx context.Context, id string) (*domain.BudgetLineItem, error)
	ListByAgreement(ctx context.Context, agreementID string) ([]*domain.BudgetLineItem, error)
	SubmitChange(ctx context.Context, req contract.SubmitChangeRequest) (*contract.SubmitChangeResponse, error)
	Delete(ctx context.Context, id string, actor domain.Actor) error
}

type ReviewService interface {
	Review(ctx context.Context, req contract.ReviewRequest) (*contract.ReviewResponse, error)
	GetByID(ctx context.Context, id string) (*domain.ChangeRequest, error)
	// ListPending returns the open change requests reviewer may decide.
	ListPending(ctx context.Context, reviewer domain.Actor) ([]*domain.ChangeRequest, error)
}

type ProcurementTrackerService interface {
	UpdateStep(ctx context.Context, req contract.UpdateStepRequest) (*contract.UpdateStepResponse, error)
	GetByAgreement(ctx context.Context, agreementID string) (*domain.ProcurementTracker, error)
	GetStep(ctx context.Context, stepID string) (*domain.ProcurementTrackerStep, error)
	Deactivate(ctx context.Context, trackerID string, actor domain.Actor) (*domain.ProcurementTracker, error)
}

type AgreementService interface {
	GetByID(ctx context.Context, id string) (*domain.Agreement, error)
	Update(ctx context.Context, req contract.UpdateAgreementRequest) (*contract.UpdateAgreementResponse, error)
}

type HistoryService interface {
	ListByTarget(ctx context.Context, targetClass, targetID string) ([]*domain.HistoryRecord, error)
	ListEvents(ctx context.Context, eventType domain.OpsEventType) ([]*domain.OpsEvent, error)
	ListNotifications(ctx context.Context, recipientID string) ([]*domain.Notification, error)
}

type ActorService interface {
	ResolveActor(ctx context.Context, userID string) (domain.Actor, error)
}
