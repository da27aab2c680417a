package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/budgetops/internal/contract"
	"github.com/alexanderramin/budgetops/internal/db"
	"github.com/alexanderramin/budgetops/internal/domain"
	"github.com/alexanderramin/budgetops/internal/repository"
	"github.com/alexanderramin/budgetops/internal/validation"
)

type reviewService struct {
	conn        db.DBTX
	uow         db.UnitOfWork
	opts        options
	coordinator *ReconciliationCoordinator
}

func NewReviewService(conn db.DBTX, uow db.UnitOfWork, opts ...Option) ReviewService {
	o := newOptions(opts)
	return &reviewService{
		conn:        conn,
		uow:         uow,
		opts:        o,
		coordinator: NewReconciliationCoordinator(o.logger, o.trackerType),
	}
}

func (s *reviewService) GetByID(ctx context.Context, id string) (*domain.ChangeRequest, error) {
	return repository.New(s.conn).ChangeRequests.GetByID(ctx, id)
}

func (s *reviewService) ListPending(ctx context.Context, reviewer domain.Actor) ([]*domain.ChangeRequest, error) {
	repos := repository.New(s.conn)
	divisions, err := NewRoutingResolver(repos).ReviewableDivisions(ctx, reviewer)
	if err != nil {
		return nil, err
	}
	return repos.ChangeRequests.ListInReview(ctx, divisions)
}

// Review decides an open change request. Approval merges the requested data
// into the target's current state, so of two approved requests on the same
// field the later one wins. Review, history, notification and procurement
// reconciliation commit together or not at all.
func (s *reviewService) Review(ctx context.Context, req contract.ReviewRequest) (resp *contract.ReviewResponse, err error) {
	startedAt := time.Now()
	fields := map[string]any{"change_request_id": req.ChangeRequestID, "action": string(req.Action)}
	defer func() {
		s.opts.observe(ctx, "change-request-review", startedAt, fields, err)
	}()

	if req.Action != domain.ReviewApprove && req.Action != domain.ReviewReject {
		return nil, domain.ValidationErrors{{Field: "action", Message: "must be APPROVE or REJECT"}}
	}

	now := s.opts.now()
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := repository.New(tx)
		cr, err := repos.ChangeRequests.GetByIDForUpdate(ctx, req.ChangeRequestID)
		if err != nil {
			return err
		}
		if !cr.IsOpen() {
			return fmt.Errorf("change request %s already reviewed: %w", cr.ID, domain.ErrNotFound)
		}
		ok, err := NewRoutingResolver(repos).CanReview(ctx, req.Reviewer, cr)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Unauthorized("actor cannot review change requests of this division")
		}

		rec := NewHistoryRecorder(repos, req.Reviewer.UserID, now)
		outcome := domain.HistoryRejected
		cr.Status = domain.ChangeRequestRejected
		if req.Action == domain.ReviewApprove {
			if err := applyApprovedChange(ctx, repos, rec, cr, now); err != nil {
				return err
			}
			outcome = domain.HistoryApproved
			cr.Status = domain.ChangeRequestApproved
		}
		cr.ReviewerNotes = req.Notes
		cr.ReviewedBy = domain.StrPtr(req.Reviewer.UserID)
		cr.ReviewedOn = &now
		cr.UpdatedAt = now
		if err := repos.ChangeRequests.Review(ctx, cr); err != nil {
			return err
		}

		if err := rec.Object(ctx, domain.ClassChangeRequest, domain.ClassChangeRequest, cr.ID, outcome); err != nil {
			return err
		}
		if err := rec.Event(ctx, domain.EventUpdateChangeRequest, domain.EventSuccess, changeRequestDetails(cr), ""); err != nil {
			return err
		}
		if err := NewNotifier(repos, now).ReviewDecided(ctx, cr); err != nil {
			return err
		}
		if err := s.coordinator.OnChangeRequestUpdated(ctx, tx, ChangeRequestEvent{
			ChangeRequest: cr,
			ActorID:       req.Reviewer.UserID,
		}, now); err != nil {
			return err
		}

		resp = &contract.ReviewResponse{Status: contract.ReviewOK, ChangeRequest: cr}
		if cr.BudgetLineItemID != nil {
			resp.BudgetLine, err = repos.BudgetLines.GetByID(ctx, *cr.BudgetLineItemID)
		} else {
			resp.Agreement, err = repos.Agreements.GetByID(ctx, cr.TargetID())
		}
		return err
	})
	if err != nil {
		var rerr *ReconciliationError
		if errors.As(err, &rerr) {
			recordFailures(ctx, s.uow, s.opts, rerr.Failed)
		}
		return nil, err
	}
	fields["outcome"] = string(resp.ChangeRequest.Status)
	return resp, nil
}

// applyApprovedChange merges the request's data into its target. Status
// changes and award-locked agreement fields are checked again against the
// target's state at approval time.
func applyApprovedChange(ctx context.Context, repos *repository.Repositories, rec *HistoryRecorder, cr *domain.ChangeRequest, now time.Time) error {
	if cr.BudgetLineItemID == nil {
		agreement, err := repos.Agreements.GetByIDForUpdate(ctx, cr.TargetID())
		if err != nil {
			return err
		}
		variant, err := domain.VariantFor(agreement.Type)
		if err != nil {
			return err
		}
		if err := checkAwardFreeze(ctx, repos, agreement, variant, cr.RequestedChangeData); err != nil {
			return err
		}
		return applyAgreementChanges(ctx, repos, rec, domain.ClassChangeRequest, agreement, cr.RequestedChangeData, now)
	}

	bli, err := repos.BudgetLines.GetByIDForUpdate(ctx, *cr.BudgetLineItemID)
	if err != nil {
		return err
	}
	if cr.HasStatusChange() {
		agreement, err := repos.Agreements.GetByID(ctx, bli.AgreementID)
		if err != nil {
			return err
		}
		if err := validateBudgetLine(ctx, repos, agreement, bli, cr.RequestedChangeData, validation.ModePatch, now); err != nil {
			return err
		}
	}
	return applyBudgetLineChanges(ctx, repos, rec, domain.ClassChangeRequest, bli, cr.RequestedChangeData, now)
}
