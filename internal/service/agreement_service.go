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

type agreementService struct {
	conn db.DBTX
	uow  db.UnitOfWork
	opts options
}

func NewAgreementService(conn db.DBTX, uow db.UnitOfWork, opts ...Option) AgreementService {
	return &agreementService{conn: conn, uow: uow, opts: newOptions(opts)}
}

func (s *agreementService) GetByID(ctx context.Context, id string) (*domain.Agreement, error) {
	return repository.New(s.conn).Agreements.GetByID(ctx, id)
}

// Update edits agreement fields. Fields frozen by an award are refused. A new
// awarding entity goes through review once any budget line has left DRAFT,
// routed to the division of that line's CAN; everything else applies directly.
func (s *agreementService) Update(ctx context.Context, req contract.UpdateAgreementRequest) (resp *contract.UpdateAgreementResponse, err error) {
	startedAt := time.Now()
	fields := map[string]any{"agreement_id": req.AgreementID, "fields": len(req.Changes)}
	defer func() {
		if resp != nil {
			fields["status"] = string(resp.Status)
		}
		s.opts.observe(ctx, "agreement-update", startedAt, fields, err)
	}()

	proposed, err := normalizeFields(req.Changes, domain.NormalizeAgreementField)
	if err != nil {
		return nil, err
	}

	now := s.opts.now()
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := repository.New(tx)
		agreement, err := repos.Agreements.GetByIDForUpdate(ctx, req.AgreementID)
		if err != nil {
			return err
		}
		if err := requireTeamAccess(req.Actor, agreement); err != nil {
			return err
		}
		if err := checkAgreementReferences(ctx, repos, proposed); err != nil {
			return err
		}
		changed, err := changes.ChangedFields(agreement, proposed)
		if err != nil {
			return err
		}
		if len(changed) == 0 {
			resp = &contract.UpdateAgreementResponse{Status: contract.SubmitApplied, Agreement: agreement}
			return nil
		}

		variant, err := domain.VariantFor(agreement.Type)
		if err != nil {
			return err
		}
		if err := checkAwardFreeze(ctx, repos, agreement, variant, changed); err != nil {
			return err
		}

		lines, err := repos.BudgetLines.ListByAgreement(ctx, agreement.ID)
		if err != nil {
			return err
		}
		var planned *domain.BudgetLineItem
		for _, l := range lines {
			if !l.IsDraft() {
				planned = l
				break
			}
		}
		if planned != nil {
			var errs domain.ValidationErrors
			for _, f := range variant.RequiredFieldsForStatusChange() {
				if v, ok := changed[f]; ok && v == nil {
					errs = append(errs, domain.ValidationError{Field: f, Message: "is required while budget lines are beyond DRAFT"})
				}
			}
			if variant.RequiresVendorRule() && (changed.Has(domain.FieldAgreementReason) || changed.Has(domain.FieldVendor)) {
				after := *agreement
				if err := applyFields(changed, after.ApplyField); err != nil {
					return err
				}
				errs = append(errs, validation.CheckVendor(&after)...)
			}
			if len(errs) > 0 {
				return errs
			}
		}

		open, err := repos.ChangeRequests.ListOpenByAgreement(ctx, agreement.ID)
		if err != nil {
			return err
		}
		direct := changed.Clone()
		var reviewed domain.FieldValues
		switch {
		case req.Actor.Can(domain.CapabilityDirectEdit):
			if len(open) > 0 {
				return domain.StateConflict("entity not in an editable state")
			}
		case planned != nil && changed.Has(domain.FieldAwardingEntityID):
			for _, cr := range open {
				if cr.FieldGroup == domain.FieldAwardingEntityID {
					return domain.StateConflict(fmt.Sprintf("a change to %s is already in review", domain.FieldAwardingEntityID))
				}
			}
			reviewed = domain.FieldValues{domain.FieldAwardingEntityID: changed[domain.FieldAwardingEntityID]}
			delete(direct, domain.FieldAwardingEntityID)
		}

		rec := NewHistoryRecorder(repos, req.Actor.UserID, now)
		if err := applyAgreementChanges(ctx, repos, rec, domain.ClassAgreement, agreement, direct, now); err != nil {
			return err
		}

		var pending []string
		if len(reviewed) > 0 {
			var division *string
			if planned.CANID != nil {
				division, err = NewRoutingResolver(repos).ResolveManagingDivision(ctx, *planned.CANID)
				if err != nil {
					return err
				}
			}
			diff, err := changes.Diff(agreement, reviewed)
			if err != nil {
				return err
			}
			cr := &domain.ChangeRequest{
				ID:                  uuid.New().String(),
				Type:                domain.ChangeRequestAgreement,
				Status:              domain.ChangeRequestInReview,
				AgreementID:         domain.StrPtr(agreement.ID),
				FieldGroup:          domain.FieldAwardingEntityID,
				RequestedChangeData: reviewed,
				RequestedChangeDiff: diff,
				RequestorNotes:      req.RequestorNotes,
				ManagingDivisionID:  division,
				CreatedBy:           req.Actor.UserID,
				CreatedAt:           now,
				UpdatedAt:           now,
			}
			if err := repos.ChangeRequests.Create(ctx, cr); err != nil {
				if db.IsUniqueViolation(err) {
					return domain.StateConflict(fmt.Sprintf("a change to %s is already in review", domain.FieldAwardingEntityID))
				}
				return err
			}
			if err := recordChangeRequestOpened(ctx, rec, cr, domain.ClassAgreement); err != nil {
				return err
			}
			pending = append(pending, cr.ID)
		}

		resp = &contract.UpdateAgreementResponse{
			Status:                  contract.SubmitApplied,
			AppliedFields:           direct.Keys(),
			PendingChangeRequestIDs: pending,
			Agreement:               agreement,
		}
		if len(pending) > 0 {
			resp.Status = contract.SubmitPending
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func applyAgreementChanges(ctx context.Context, repos *repository.Repositories, rec *HistoryRecorder, eventClass string, a *domain.Agreement, data domain.FieldValues, now time.Time) error {
	if len(data) == 0 {
		return nil
	}
	diff, err := changes.Diff(a, data)
	if err != nil {
		return err
	}
	if err := applyFields(data, a.ApplyField); err != nil {
		return err
	}
	a.UpdatedAt = now
	if err := repos.Agreements.Update(ctx, a); err != nil {
		return err
	}
	if err := rec.Properties(ctx, eventClass, domain.ClassAgreement, a.ID, domain.HistoryUpdated, diff); err != nil {
		return err
	}
	return rec.Event(ctx, domain.EventUpdateAgreement, domain.EventSuccess,
		map[string]any{"id": a.ID, "changes": diff}, "")
}

// checkAwardFreeze refuses changes to fields the agreement's award locked.
func checkAwardFreeze(ctx context.Context, repos *repository.Repositories, a *domain.Agreement, variant domain.AgreementVariant, changed domain.FieldValues) error {
	awarded, err := repos.Actions.HasAwarded(ctx, a.ID)
	if err != nil || !awarded {
		return err
	}
	for _, f := range variant.RequiredFieldsForAward() {
		if changed.Has(f) {
			return domain.StateConflict(fmt.Sprintf("%s cannot change after award", f))
		}
	}
	return nil
}

func checkAgreementReferences(ctx context.Context, repos *repository.Repositories, proposed domain.FieldValues) error {
	var errs domain.ValidationErrors
	if v := proposed[domain.FieldAwardingEntityID]; v != nil {
		if _, err := repos.Shops.GetShopByID(ctx, *v); errors.Is(err, domain.ErrNotFound) {
			errs = append(errs, domain.ValidationError{Field: domain.FieldAwardingEntityID, Message: "does not exist"})
		} else if err != nil {
			return err
		}
	}
	if v := proposed[domain.FieldProjectOfficerID]; v != nil {
		if _, err := repos.Users.GetByID(ctx, *v); errors.Is(err, domain.ErrNotFound) {
			errs = append(errs, domain.ValidationError{Field: domain.FieldProjectOfficerID, Message: "does not exist"})
		} else if err != nil {
			return err
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
