package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/budgetops/internal/changes"
	"github.com/alexanderramin/budgetops/internal/contract"
	"github.com/alexanderramin/budgetops/internal/db"
	"github.com/alexanderramin/budgetops/internal/domain"
	"github.com/alexanderramin/budgetops/internal/repository"
	"github.com/alexanderramin/budgetops/internal/validation"
	"github.com/google/uuid"
)

type trackerService struct {
	conn db.DBTX
	uow  db.UnitOfWork
	opts options
}

func NewProcurementTrackerService(conn db.DBTX, uow db.UnitOfWork, opts ...Option) ProcurementTrackerService {
	return &trackerService{conn: conn, uow: uow, opts: newOptions(opts)}
}

func (s *trackerService) GetByAgreement(ctx context.Context, agreementID string) (*domain.ProcurementTracker, error) {
	return repository.New(s.conn).Trackers.GetLatestByAgreement(ctx, agreementID)
}

func (s *trackerService) GetStep(ctx context.Context, stepID string) (*domain.ProcurementTrackerStep, error) {
	return repository.New(s.conn).Trackers.GetStep(ctx, stepID)
}

// UpdateStep edits one tracker step. Completing or skipping the active step
// activates the next one; completing the final step completes the tracker
// and awards its procurement action. Every call leaves an ops event, FAILED
// ones written after the rollback.
func (s *trackerService) UpdateStep(ctx context.Context, req contract.UpdateStepRequest) (resp *contract.UpdateStepResponse, err error) {
	startedAt := time.Now()
	fields := map[string]any{"step_id": req.StepID, "fields": len(req.Fields)}
	defer func() {
		if resp != nil {
			fields["tracker_advanced"] = resp.TrackerAdvanced
		}
		s.opts.observe(ctx, "tracker-update-step", startedAt, fields, err)
	}()

	now := s.opts.now()
	proposed, err := normalizeFields(req.Fields, domain.NormalizeStepField)
	if err == nil {
		err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
			resp, err = s.updateStep(ctx, repository.New(tx), req, proposed, now)
			return err
		})
	}
	if err != nil {
		recordFailures(ctx, s.uow, s.opts, []*domain.OpsEvent{
			failedEvent(domain.EventUpdateProcurementTrackerStep,
				map[string]any{"step_id": req.StepID, "fields": req.Fields}, err, req.Actor.UserID, now),
		})
		return nil, err
	}
	return resp, nil
}

func (s *trackerService) updateStep(ctx context.Context, repos *repository.Repositories, req contract.UpdateStepRequest, proposed domain.FieldValues, now time.Time) (*contract.UpdateStepResponse, error) {
	step, err := repos.Trackers.GetStepForUpdate(ctx, req.StepID)
	if err != nil {
		return nil, err
	}
	tracker, err := repos.Trackers.GetByID(ctx, step.TrackerID)
	if err != nil {
		return nil, err
	}
	agreement, err := repos.Agreements.GetByID(ctx, tracker.AgreementID)
	if err != nil {
		return nil, err
	}
	if !agreement.IsTeamMember(req.Actor.UserID) {
		return nil, domain.Unauthorized("actor is not on the agreement team")
	}
	if step.IsFinished() {
		return nil, domain.StateConflict(fmt.Sprintf("step %d is already %s", step.StepNumber, step.Status))
	}
	if tracker.Status != domain.TrackerActive {
		return nil, domain.StateConflict("tracker is not active")
	}

	completedBy, err := s.completedBy(ctx, repos, step, proposed)
	if err != nil {
		return nil, err
	}
	errs := validation.ValidateProcurementStep(validation.StepInput{
		Step:           step,
		Proposed:       proposed,
		IsActive:       step.StepNumber == tracker.ActiveStepNumber,
		IsFinal:        step.StepNumber == tracker.StepCount(),
		CompletedBy:    completedBy,
		NotesMaxLength: s.opts.notesMaxLength,
		Today:          now,
	})
	if len(errs) > 0 {
		return nil, errs
	}

	changed, err := changes.ChangedFields(step, proposed)
	if err != nil {
		return nil, err
	}
	diff, err := changes.Diff(step, changed)
	if err != nil {
		return nil, err
	}
	if err := applyFields(changed, step.ApplyField); err != nil {
		return nil, err
	}

	rec := NewHistoryRecorder(repos, req.Actor.UserID, now)
	today := domain.TodayUTC(now)
	advanced := false
	if step.IsFinished() {
		if step.Status == domain.StepCompleted {
			step.StepCompletedDate = &today
			diff["step_completed_date"] = domain.FieldDiff{New: domain.StrPtr(today.Format(domain.DateLayout))}
		}
		if err := s.advance(ctx, repos, rec, tracker, step, today, now); err != nil {
			return nil, err
		}
		advanced = true
	}

	step.UpdatedAt = now
	if err := repos.Trackers.UpdateStep(ctx, step); err != nil {
		return nil, err
	}
	if err := rec.Properties(ctx, domain.ClassTrackerStep, domain.ClassTrackerStep, step.ID, domain.HistoryUpdated, diff); err != nil {
		return nil, err
	}
	if err := rec.Event(ctx, domain.EventUpdateProcurementTrackerStep, domain.EventSuccess, map[string]any{
		"step_id": step.ID, "tracker_id": tracker.ID, "step_number": step.StepNumber, "changes": diff,
	}, ""); err != nil {
		return nil, err
	}

	tracker, err = repos.Trackers.GetByID(ctx, tracker.ID)
	if err != nil {
		return nil, err
	}
	return &contract.UpdateStepResponse{Step: step, Tracker: tracker, TrackerAdvanced: advanced}, nil
}

func (s *trackerService) completedBy(ctx context.Context, repos *repository.Repositories, step *domain.ProcurementTrackerStep, proposed domain.FieldValues) (*domain.User, error) {
	id := step.TaskCompletedBy
	if proposed.Has(domain.StepFieldTaskCompletedBy) {
		id = proposed[domain.StepFieldTaskCompletedBy]
	}
	if id == nil {
		return nil, nil
	}
	u, err := repos.Users.GetByID(ctx, *id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return u, err
}

// advance moves the tracker past a step that was just finished.
func (s *trackerService) advance(ctx context.Context, repos *repository.Repositories, rec *HistoryRecorder, tracker *domain.ProcurementTracker, step *domain.ProcurementTrackerStep, today, now time.Time) error {
	before := map[string]string{
		"status":             string(tracker.Status),
		"active_step_number": fmt.Sprint(tracker.ActiveStepNumber),
	}

	if step.StepNumber < tracker.StepCount() {
		next := tracker.Step(step.StepNumber + 1)
		if next == nil {
			return fmt.Errorf("tracker %s has no step %d", tracker.ID, step.StepNumber+1)
		}
		next.Status = domain.StepActive
		next.StepStartDate = &today
		next.UpdatedAt = now
		if err := repos.Trackers.UpdateStep(ctx, next); err != nil {
			return err
		}
		tracker.ActiveStepNumber = next.StepNumber
	} else {
		tracker.Status = domain.TrackerCompleted
		if err := s.award(ctx, repos, rec, tracker, today, now); err != nil {
			return err
		}
	}

	tracker.UpdatedAt = now
	if err := repos.Trackers.Update(ctx, tracker); err != nil {
		return err
	}
	diff := map[string]domain.FieldDiff{}
	if after := string(tracker.Status); after != before["status"] {
		diff["status"] = domain.FieldDiff{Old: domain.StrPtr(before["status"]), New: domain.StrPtr(after)}
	}
	if after := fmt.Sprint(tracker.ActiveStepNumber); after != before["active_step_number"] {
		diff["active_step_number"] = domain.FieldDiff{Old: domain.StrPtr(before["active_step_number"]), New: domain.StrPtr(after)}
	}
	if err := rec.Properties(ctx, domain.ClassTrackerStep, domain.ClassProcurementTracker, tracker.ID, domain.HistoryUpdated, diff); err != nil {
		return err
	}
	return rec.Event(ctx, domain.EventUpdateProcurementTracker, domain.EventSuccess, map[string]any{
		"id": tracker.ID, "status": tracker.Status, "active_step_number": tracker.ActiveStepNumber,
	}, "")
}

// award marks the tracker's procurement action AWARDED. A tracker without an
// action falls back to the agreement's open NEW_AWARD action, creating one
// when there is none.
func (s *trackerService) award(ctx context.Context, repos *repository.Repositories, rec *HistoryRecorder, tracker *domain.ProcurementTracker, today, now time.Time) error {
	var action *domain.ProcurementAction
	var err error
	if tracker.ProcurementActionID != nil {
		action, err = repos.Actions.GetByID(ctx, *tracker.ProcurementActionID)
	} else {
		action, err = repos.Actions.GetOpenNewAwardByAgreementForUpdate(ctx, tracker.AgreementID)
	}
	if errors.Is(err, domain.ErrNotFound) && tracker.ProcurementActionID == nil {
		action = &domain.ProcurementAction{
			ID:                   uuid.New().String(),
			AgreementID:          tracker.AgreementID,
			AwardType:            domain.AwardNew,
			Status:               domain.ActionAwarded,
			DateAwardedObligated: &today,
			CreatedBy:            rec.actorID,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if err := repos.Actions.Create(ctx, action); err != nil {
			return err
		}
		tracker.ProcurementActionID = domain.StrPtr(action.ID)
		if err := rec.Object(ctx, domain.ClassProcurementTracker, domain.ClassProcurementAction, action.ID, domain.HistoryNew); err != nil {
			return err
		}
		return rec.Event(ctx, domain.EventCreateProcurementAction, domain.EventSuccess, map[string]any{
			"id": action.ID, "agreement_id": action.AgreementID, "award_type": action.AwardType, "status": action.Status,
		}, "")
	}
	if err != nil {
		return err
	}
	if action.IsTerminal() {
		return domain.StateConflict("procurement action is already closed")
	}

	old := string(action.Status)
	action.Status = domain.ActionAwarded
	action.DateAwardedObligated = &today
	action.UpdatedAt = now
	if err := repos.Actions.Update(ctx, action); err != nil {
		return err
	}
	tracker.ProcurementActionID = domain.StrPtr(action.ID)
	return rec.Properties(ctx, domain.ClassProcurementTracker, domain.ClassProcurementAction, action.ID, domain.HistoryUpdated,
		map[string]domain.FieldDiff{
			"status":                 {Old: domain.StrPtr(old), New: domain.StrPtr(string(domain.ActionAwarded))},
			"date_awarded_obligated": {New: domain.StrPtr(today.Format(domain.DateLayout))},
		})
}

// Deactivate takes an active tracker out of use. Only actors with
// direct-edit capability may do this.
func (s *trackerService) Deactivate(ctx context.Context, trackerID string, actor domain.Actor) (tracker *domain.ProcurementTracker, err error) {
	startedAt := time.Now()
	defer func() {
		s.opts.observe(ctx, "tracker-deactivate", startedAt, map[string]any{"tracker_id": trackerID}, err)
	}()

	now := s.opts.now()
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if !actor.Can(domain.CapabilityDirectEdit) {
			return domain.Unauthorized("actor cannot deactivate trackers")
		}
		repos := repository.New(tx)
		t, err := repos.Trackers.GetByID(ctx, trackerID)
		if err != nil {
			return err
		}
		if t.Status != domain.TrackerActive {
			return domain.StateConflict("tracker is not active")
		}
		t.Status = domain.TrackerInactive
		t.UpdatedAt = now
		if err := repos.Trackers.Update(ctx, t); err != nil {
			return err
		}
		rec := NewHistoryRecorder(repos, actor.UserID, now)
		if err := rec.Properties(ctx, domain.ClassProcurementTracker, domain.ClassProcurementTracker, t.ID, domain.HistoryUpdated,
			map[string]domain.FieldDiff{"status": {
				Old: domain.StrPtr(string(domain.TrackerActive)),
				New: domain.StrPtr(string(domain.TrackerInactive)),
			}}); err != nil {
			return err
		}
		if err := rec.Event(ctx, domain.EventUpdateProcurementTracker, domain.EventSuccess,
			map[string]any{"id": t.ID, "status": t.Status}, ""); err != nil {
			return err
		}
		tracker = t
		return nil
	})
	if err != nil {
		recordFailures(ctx, s.uow, s.opts, []*domain.OpsEvent{
			failedEvent(domain.EventUpdateProcurementTracker, map[string]any{"id": trackerID}, err, actor.UserID, now),
		})
		return nil, err
	}
	return tracker, nil
}
