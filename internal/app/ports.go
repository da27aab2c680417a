package app

import (
	"context"

	"github.com/alexanderramin/budgetops/internal/domain"
)

type SubmitChangeUseCase interface {
	SubmitChange(ctx context.Context, req SubmitChangeRequest) (*SubmitChangeResponse, error)
}

type ReviewUseCase interface {
	Review(ctx context.Context, req ReviewRequest) (*ReviewResponse, error)
}

type UpdateStepUseCase interface {
	UpdateStep(ctx context.Context, req UpdateStepRequest) (*UpdateStepResponse, error)
}

type UpdateAgreementUseCase interface {
	Update(ctx context.Context, req UpdateAgreementRequest) (*UpdateAgreementResponse, error)
}

type ResolveActorUseCase interface {
	ResolveActor(ctx context.Context, userID string) (domain.Actor, error)
}
