package cli

import (
	"github.com/alexanderramin/budgetops/internal/app"
	"github.com/alexanderramin/budgetops/internal/domain"
	"github.com/alexanderramin/budgetops/internal/service"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	BudgetLines service.BudgetLineService
	Reviews     service.ReviewService
	Trackers    service.ProcurementTrackerService
	Agreements  service.AgreementService
	History     service.HistoryService
	Actors      service.ActorService

	// Optional use-case overrides. When nil, the services above serve them.
	SubmitChange    app.SubmitChangeUseCase
	Review          app.ReviewUseCase
	UpdateStep      app.UpdateStepUseCase
	UpdateAgreement app.UpdateAgreementUseCase
	ResolveActor    app.ResolveActorUseCase

	// DefaultActor is the user id commands act as when --as is not given.
	DefaultActor string

	// IsInteractive reports whether stdin is a terminal. Nil means never.
	IsInteractive func() bool

	// ReviewForm collects a review decision interactively. Nil runs the
	// terminal form.
	ReviewForm func(cr *domain.ChangeRequest) (*ReviewDecision, error)
}

func (a *App) submitChangeUseCase() app.SubmitChangeUseCase {
	if a.SubmitChange != nil {
		return a.SubmitChange
	}
	return a.BudgetLines
}

func (a *App) reviewUseCase() app.ReviewUseCase {
	if a.Review != nil {
		return a.Review
	}
	return a.Reviews
}

func (a *App) updateStepUseCase() app.UpdateStepUseCase {
	if a.UpdateStep != nil {
		return a.UpdateStep
	}
	return a.Trackers
}

func (a *App) updateAgreementUseCase() app.UpdateAgreementUseCase {
	if a.UpdateAgreement != nil {
		return a.UpdateAgreement
	}
	return a.Agreements
}

func (a *App) resolveActorUseCase() app.ResolveActorUseCase {
	if a.ResolveActor != nil {
		return a.ResolveActor
	}
	return a.Actors
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) reviewForm(cr *domain.ChangeRequest) (*ReviewDecision, error) {
	if a.ReviewForm != nil {
		return a.ReviewForm(cr)
	}
	return runReviewForm(cr)
}
