package repository

import (
	"context"

	"github.com/alexanderramin/budgetops/internal/domain"
)

type UserRepo interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type DivisionRepo interface {
	Create(ctx context.Context, d *domain.Division) error
	GetByID(ctx context.Context, id string) (*domain.Division, error)
	// ListLedBy returns the divisions whose director or deputy director is userID.
	ListLedBy(ctx context.Context, userID string) ([]*domain.Division, error)
}

type CANRepo interface {
	Create(ctx context.Context, c *domain.CAN) error
	GetByID(ctx context.Context, id string) (*domain.CAN, error)
	Update(ctx context.Context, c *domain.CAN) error
}

type ProcurementShopRepo interface {
	CreateShop(ctx context.Context, s *domain.ProcurementShop) error
	CreateFee(ctx context.Context, f *domain.ProcurementShopFee) error
	GetShopByID(ctx context.Context, id string) (*domain.ProcurementShop, error)
	GetFeeByID(ctx context.Context, id string) (*domain.ProcurementShopFee, error)
}

type AgreementRepo interface {
	Create(ctx context.Context, a *domain.Agreement) error
	GetByID(ctx context.Context, id string) (*domain.Agreement, error)
	// GetByIDForUpdate loads the agreement holding its row lock until the
	// transaction ends, where the dialect supports row locks.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Agreement, error)
	Update(ctx context.Context, a *domain.Agreement) error
	AddTeamMember(ctx context.Context, agreementID, userID string) error
}

type ServicesComponentRepo interface {
	Create(ctx context.Context, sc *domain.ServicesComponent) error
	GetByID(ctx context.Context, id string) (*domain.ServicesComponent, error)
}

type BudgetLineRepo interface {
	Create(ctx context.Context, b *domain.BudgetLineItem) error
	GetByID(ctx context.Context, id string) (*domain.BudgetLineItem, error)
	GetByIDForUpdate(ctx context.Context, id string) (*domain.BudgetLineItem, error)
	ListByAgreement(ctx context.Context, agreementID string) ([]*domain.BudgetLineItem, error)
	Update(ctx context.Context, b *domain.BudgetLineItem) error
	LinkProcurementAction(ctx context.Context, id, actionID string) error
	Delete(ctx context.Context, id string) error
}

type ChangeRequestRepo interface {
	Create(ctx context.Context, cr *domain.ChangeRequest) error
	GetByID(ctx context.Context, id string) (*domain.ChangeRequest, error)
	GetByIDForUpdate(ctx context.Context, id string) (*domain.ChangeRequest, error)
	// Review stores the terminal status and reviewer fields of cr.
	Review(ctx context.Context, cr *domain.ChangeRequest) error
	ListOpenByBudgetLine(ctx context.Context, budgetLineID string) ([]*domain.ChangeRequest, error)
	ListOpenByAgreement(ctx context.Context, agreementID string) ([]*domain.ChangeRequest, error)
	// ListInReview returns open requests of the given divisions, or of every
	// division when divisionIDs is nil.
	ListInReview(ctx context.Context, divisionIDs []string) ([]*domain.ChangeRequest, error)
	DeleteByBudgetLine(ctx context.Context, budgetLineID string) error
}

type ProcurementTrackerRepo interface {
	// Create inserts the tracker together with its steps.
	Create(ctx context.Context, t *domain.ProcurementTracker) error
	GetByID(ctx context.Context, id string) (*domain.ProcurementTracker, error)
	// GetLatestByAgreement returns the most recently created tracker of any status.
	GetLatestByAgreement(ctx context.Context, agreementID string) (*domain.ProcurementTracker, error)
	GetActiveByAgreementForUpdate(ctx context.Context, agreementID string) (*domain.ProcurementTracker, error)
	Update(ctx context.Context, t *domain.ProcurementTracker) error
	GetStep(ctx context.Context, stepID string) (*domain.ProcurementTrackerStep, error)
	GetStepForUpdate(ctx context.Context, stepID string) (*domain.ProcurementTrackerStep, error)
	UpdateStep(ctx context.Context, s *domain.ProcurementTrackerStep) error
}

type ProcurementActionRepo interface {
	Create(ctx context.Context, a *domain.ProcurementAction) error
	GetByID(ctx context.Context, id string) (*domain.ProcurementAction, error)
	// GetOpenNewAwardByAgreementForUpdate returns the non-terminal NEW_AWARD action.
	GetOpenNewAwardByAgreementForUpdate(ctx context.Context, agreementID string) (*domain.ProcurementAction, error)
	HasAwarded(ctx context.Context, agreementID string) (bool, error)
	Update(ctx context.Context, a *domain.ProcurementAction) error
}

type HistoryRepo interface {
	Create(ctx context.Context, h *domain.HistoryRecord) error
	ListByTarget(ctx context.Context, targetClass, targetID string) ([]*domain.HistoryRecord, error)
}

type OpsEventRepo interface {
	Create(ctx context.Context, e *domain.OpsEvent) error
	ListByType(ctx context.Context, eventType domain.OpsEventType) ([]*domain.OpsEvent, error)
}

type NotificationRepo interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByRecipient(ctx context.Context, recipientID string) ([]*domain.Notification, error)
}
