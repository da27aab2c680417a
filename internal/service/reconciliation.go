package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alexanderramin/budgetops/internal/db"
	"github.com/alexanderramin/budgetops/internal/domain"
	"github.com/alexanderramin/budgetops/internal/repository"
	"github.com/google/uuid"
)

// ChangeRequestEvent announces that a change request was reviewed.
type ChangeRequestEvent struct {
	ChangeRequest *domain.ChangeRequest
	ActorID       string
}

// ReconciliationError reports a failed procurement reconciliation. Failed
// holds one FAILED event per entity that was being created; callers record
// them after rolling back.
type ReconciliationError struct {
	Err    error
	Failed []*domain.OpsEvent
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconciling procurement records: %v", e.Err)
}

func (e *ReconciliationError) Unwrap() error {
	return e.Err
}

// ReconciliationCoordinator makes sure an agreement whose budget line moved
// to IN_EXECUTION has exactly one active tracker and one open NEW_AWARD
// action, linked to each other and to the line.
type ReconciliationCoordinator struct {
	logger      *slog.Logger
	trackerType domain.TrackerType
}

func NewReconciliationCoordinator(logger *slog.Logger, trackerType domain.TrackerType) *ReconciliationCoordinator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if trackerType == "" {
		trackerType = domain.TrackerDefault
	}
	return &ReconciliationCoordinator{logger: logger, trackerType: trackerType}
}

// OnChangeRequestUpdated reconciles procurement records inside tx. Events
// other than an approved move of a budget line to IN_EXECUTION are ignored.
// Running it twice for the same event creates nothing new.
//
// The work runs under a savepoint: a uniqueness violation from a concurrent
// reconciliation undoes only this work, is logged and is not returned.
func (c *ReconciliationCoordinator) OnChangeRequestUpdated(ctx context.Context, tx db.DBTX, ev ChangeRequestEvent, now time.Time) error {
	cr := ev.ChangeRequest
	if cr == nil || cr.Type != domain.ChangeRequestBudgetLine || cr.Status != domain.ChangeRequestApproved ||
		!cr.HasStatusChange() || cr.RequestedStatus() != domain.BudgetLineInExecution || cr.BudgetLineItemID == nil {
		return nil
	}

	repos := repository.New(tx)
	r := &reconciliation{
		repos:       repos,
		rec:         NewHistoryRecorder(repos, ev.ActorID, now),
		trackerType: c.trackerType,
		actorID:     ev.ActorID,
		now:         now,
	}
	err := db.WithinSavepoint(ctx, tx, "reconcile_procurement", func() error {
		return r.run(ctx, *cr.BudgetLineItemID)
	})
	if errors.Is(err, domain.ErrReconciliationRace) {
		c.logger.WarnContext(ctx, "procurement reconciliation lost a race",
			"change_request_id", cr.ID,
			"budget_line_item_id", *cr.BudgetLineItemID,
			"error", err)
		return nil
	}
	return err
}

type reconciliation struct {
	repos       *repository.Repositories
	rec         *HistoryRecorder
	trackerType domain.TrackerType
	actorID     string
	now         time.Time
}

func (r *reconciliation) run(ctx context.Context, budgetLineID string) error {
	bli, err := r.repos.BudgetLines.GetByID(ctx, budgetLineID)
	if err != nil {
		return err
	}
	// Serializes reconciliations of the same agreement.
	agreement, err := r.repos.Agreements.GetByIDForUpdate(ctx, bli.AgreementID)
	if err != nil {
		return err
	}

	awarded, err := r.repos.Actions.HasAwarded(ctx, agreement.ID)
	if err != nil {
		return err
	}
	if awarded {
		return nil
	}

	tracker, err := r.repos.Trackers.GetActiveByAgreementForUpdate(ctx, agreement.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	action, err := r.repos.Actions.GetOpenNewAwardByAgreementForUpdate(ctx, agreement.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	var creating []domain.OpsEventType
	switch {
	case tracker == nil && action == nil:
		creating = []domain.OpsEventType{domain.EventCreateProcurementAction, domain.EventCreateProcurementTracker}
		action, err = r.createAction(ctx, agreement.ID)
		if err == nil {
			tracker, err = r.createTracker(ctx, agreement.ID, &action.ID)
		}
	case tracker == nil:
		creating = []domain.OpsEventType{domain.EventCreateProcurementTracker}
		tracker, err = r.createTracker(ctx, agreement.ID, &action.ID)
	case action == nil:
		creating = []domain.OpsEventType{domain.EventCreateProcurementAction}
		action, err = r.createAction(ctx, agreement.ID)
	}
	if err != nil {
		return r.creationFailed(agreement.ID, creating, err)
	}

	if tracker.ProcurementActionID == nil || *tracker.ProcurementActionID != action.ID {
		tracker.ProcurementActionID = domain.StrPtr(action.ID)
		tracker.UpdatedAt = r.now
		if err := r.repos.Trackers.Update(ctx, tracker); err != nil {
			return err
		}
	}
	if bli.ProcurementActionID == nil || *bli.ProcurementActionID != action.ID {
		if err := r.repos.BudgetLines.LinkProcurementAction(ctx, bli.ID, action.ID); err != nil {
			return err
		}
		return r.rec.Properties(ctx, domain.ClassProcurementAction, domain.ClassBudgetLineItem, bli.ID, domain.HistoryUpdated,
			map[string]domain.FieldDiff{"procurement_action_id": {Old: bli.ProcurementActionID, New: domain.StrPtr(action.ID)}})
	}
	return nil
}

func (r *reconciliation) createAction(ctx context.Context, agreementID string) (*domain.ProcurementAction, error) {
	a := &domain.ProcurementAction{
		ID:          uuid.New().String(),
		AgreementID: agreementID,
		AwardType:   domain.AwardNew,
		Status:      domain.ActionPlanned,
		CreatedBy:   r.actorID,
		CreatedAt:   r.now,
		UpdatedAt:   r.now,
	}
	if err := r.repos.Actions.Create(ctx, a); err != nil {
		return nil, err
	}
	if err := r.rec.Object(ctx, domain.ClassProcurementAction, domain.ClassProcurementAction, a.ID, domain.HistoryNew); err != nil {
		return nil, err
	}
	err := r.rec.Event(ctx, domain.EventCreateProcurementAction, domain.EventSuccess, map[string]any{
		"id": a.ID, "agreement_id": agreementID, "award_type": a.AwardType, "status": a.Status,
	}, "")
	return a, err
}

func (r *reconciliation) createTracker(ctx context.Context, agreementID string, actionID *string) (*domain.ProcurementTracker, error) {
	t, err := NewTracker(agreementID, r.trackerType, actionID, r.actorID, r.now)
	if err != nil {
		return nil, err
	}
	if err := r.repos.Trackers.Create(ctx, t); err != nil {
		return nil, err
	}
	if err := r.rec.Object(ctx, domain.ClassProcurementTracker, domain.ClassProcurementTracker, t.ID, domain.HistoryNew); err != nil {
		return nil, err
	}
	err = r.rec.Event(ctx, domain.EventCreateProcurementTracker, domain.EventSuccess, map[string]any{
		"id": t.ID, "agreement_id": agreementID, "tracker_type": t.TrackerType,
		"procurement_action_id": actionID, "steps": t.StepCount(),
	}, "")
	return t, err
}

// creationFailed classifies a creation error: uniqueness violations mean a
// concurrent reconciliation won, anything else fails the review.
func (r *reconciliation) creationFailed(agreementID string, creating []domain.OpsEventType, err error) error {
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %v", domain.ErrReconciliationRace, err)
	}
	failed := make([]*domain.OpsEvent, 0, len(creating))
	for _, t := range creating {
		failed = append(failed, failedEvent(t, map[string]any{"agreement_id": agreementID}, err, r.actorID, r.now))
	}
	return &ReconciliationError{Err: err, Failed: failed}
}

// NewTracker builds an ACTIVE tracker whose first step is active from today.
func NewTracker(agreementID string, trackerType domain.TrackerType, actionID *string, actorID string, now time.Time) (*domain.ProcurementTracker, error) {
	types, err := domain.StepTypesFor(trackerType)
	if err != nil {
		return nil, err
	}
	today := domain.TodayUTC(now)
	t := &domain.ProcurementTracker{
		ID:                  uuid.New().String(),
		AgreementID:         agreementID,
		TrackerType:         trackerType,
		Status:              domain.TrackerActive,
		ActiveStepNumber:    1,
		ProcurementActionID: actionID,
		CreatedBy:           actorID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	for i, st := range types {
		step := &domain.ProcurementTrackerStep{
			ID:         uuid.New().String(),
			TrackerID:  t.ID,
			StepNumber: i + 1,
			StepType:   st,
			Status:     domain.StepPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if i == 0 {
			step.Status = domain.StepActive
			step.StepStartDate = &today
		}
		t.Steps = append(t.Steps, step)
	}
	return t, nil
}
