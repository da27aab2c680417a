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

type budgetLineService struct {
	conn db.DBTX
	uow  db.UnitOfWork
	opts options
}

func NewBudgetLineService(conn db.DBTX, uow db.UnitOfWork, opts ...Option) BudgetLineService {
	return &budgetLineService{conn: conn, uow: uow, opts: newOptions(opts)}
}

func (s *budgetLineService) GetByID(ctx context.Context, id string) (*domain.BudgetLineItem, error) {
	return repository.New(s.conn).BudgetLines.GetByID(ctx, id)
}

func (s *budgetLineService) ListByAgreement(ctx context.Context, agreementID string) ([]*domain.BudgetLineItem, error) {
	return repository.New(s.conn).BudgetLines.ListByAgreement(ctx, agreementID)
}

func (s *budgetLineService) Create(ctx context.Context, req contract.CreateBudgetLineRequest) (bli *domain.BudgetLineItem, err error) {
	startedAt := time.Now()
	fields := map[string]any{"agreement_id": req.AgreementID}
	defer func() {
		if bli != nil {
			fields["budget_line_id"] = bli.ID
		}
		s.opts.observe(ctx, "budget-line-create", startedAt, fields, err)
	}()

	proposed, err := normalizeFields(req.Fields, domain.NormalizeBudgetLineField)
	if err != nil {
		return nil, err
	}
	if st := proposed[domain.FieldStatus]; st != nil && domain.BudgetLineStatus(*st) != domain.BudgetLineDraft &&
		!req.Actor.Can(domain.CapabilityDirectEdit) {
		return nil, domain.ValidationErrors{{Field: domain.FieldStatus, Message: "new budget lines start in DRAFT"}}
	}
	proposed[domain.FieldAgreementID] = domain.StrPtr(req.AgreementID)

	now := s.opts.now()
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := repository.New(tx)
		agreement, err := repos.Agreements.GetByID(ctx, req.AgreementID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ValidationErrors{{Field: domain.FieldAgreementID, Message: "does not exist"}}
		}
		if err != nil {
			return err
		}
		if err := requireTeamAccess(req.Actor, agreement); err != nil {
			return err
		}
		if err := validateBudgetLine(ctx, repos, agreement, nil, proposed, validation.ModeCreate, now); err != nil {
			return err
		}

		item := &domain.BudgetLineItem{
			ID:          uuid.New().String(),
			AgreementID: agreement.ID,
			Status:      domain.BudgetLineDraft,
			CreatedBy:   req.Actor.UserID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		data := proposed.Clone()
		delete(data, domain.FieldAgreementID)
		if err := applyFields(data, item.ApplyField); err != nil {
			return err
		}
		if err := repos.BudgetLines.Create(ctx, item); err != nil {
			return err
		}

		rec := NewHistoryRecorder(repos, req.Actor.UserID, now)
		if err := rec.Object(ctx, domain.ClassBudgetLineItem, domain.ClassBudgetLineItem, item.ID, domain.HistoryNew); err != nil {
			return err
		}
		if err := rec.Event(ctx, domain.EventCreateBudgetLine, domain.EventSuccess,
			map[string]any{"id": item.ID, "agreement_id": item.AgreementID, "fields": data}, ""); err != nil {
			return err
		}
		bli = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bli, nil
}

// SubmitChange applies free-text fields and draft budget edits directly and
// opens one change request per reviewed field group for everything else.
// Actors with direct-edit capability skip review, but only while nothing on
// the line is under review.
func (s *budgetLineService) SubmitChange(ctx context.Context, req contract.SubmitChangeRequest) (resp *contract.SubmitChangeResponse, err error) {
	startedAt := time.Now()
	fields := map[string]any{"budget_line_id": req.BudgetLineID, "fields": len(req.Changes)}
	defer func() {
		if resp != nil {
			fields["status"] = string(resp.Status)
			fields["pending"] = len(resp.PendingChangeRequestIDs)
		}
		s.opts.observe(ctx, "budget-line-submit-change", startedAt, fields, err)
	}()

	proposed, err := normalizeFields(req.Changes, domain.NormalizeBudgetLineField)
	if err != nil {
		return nil, err
	}

	now := s.opts.now()
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := repository.New(tx)
		bli, err := repos.BudgetLines.GetByIDForUpdate(ctx, req.BudgetLineID)
		if err != nil {
			return err
		}
		agreement, err := repos.Agreements.GetByID(ctx, bli.AgreementID)
		if err != nil {
			return err
		}
		if err := requireTeamAccess(req.Actor, agreement); err != nil {
			return err
		}
		if err := validateBudgetLine(ctx, repos, agreement, bli, proposed, validation.ModePatch, now); err != nil {
			return err
		}

		changed, err := changes.ChangedFields(bli, proposed)
		if err != nil {
			return err
		}
		if len(changed) == 0 {
			resp = &contract.SubmitChangeResponse{Status: contract.SubmitApplied, BudgetLine: bli}
			return nil
		}

		open, err := repos.ChangeRequests.ListOpenByBudgetLine(ctx, bli.ID)
		if err != nil {
			return err
		}
		direct, groups, err := routeChanges(req.Actor, bli, changes.Partition(changed), open)
		if err != nil {
			return err
		}

		rec := NewHistoryRecorder(repos, req.Actor.UserID, now)
		if err := applyBudgetLineChanges(ctx, repos, rec, domain.ClassBudgetLineItem, bli, direct, now); err != nil {
			return err
		}
		var pending []string
		if len(groups) > 0 {
			divisions, err := groupDivisions(ctx, NewRoutingResolver(repos), bli.CANID, groups)
			if err != nil {
				return err
			}
			pending, err = openBudgetLineChangeRequests(ctx, repos, rec, bli, groups, divisions, req, now)
			if err != nil {
				return err
			}
		}

		snapshot, err := repos.BudgetLines.GetByID(ctx, bli.ID)
		if err != nil {
			return err
		}
		resp = &contract.SubmitChangeResponse{
			Status:                  contract.SubmitApplied,
			AppliedFields:           direct.Keys(),
			PendingChangeRequestIDs: pending,
			BudgetLine:              snapshot,
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

// routeChanges decides which changed fields apply now and which become
// change requests, refusing edits that collide with open requests.
func routeChanges(actor domain.Actor, bli *domain.BudgetLineItem, part changes.Partitioned, open []*domain.ChangeRequest) (domain.FieldValues, []changes.Group, error) {
	direct := part.Direct.Clone()
	var groups []changes.Group

	switch {
	case actor.Can(domain.CapabilityDirectEdit):
		if len(open) > 0 {
			return nil, nil, domain.StateConflict("entity not in an editable state")
		}
		for k, v := range part.Reviewed() {
			direct[k] = v
		}
		return direct, nil, nil
	case bli.IsDraft():
		for _, g := range part.Groups {
			if g.Name == domain.StatusFieldGroup {
				groups = append(groups, g)
				continue
			}
			for k, v := range g.Data {
				direct[k] = v
			}
		}
	default:
		groups = part.Groups
	}

	if len(open) == 0 {
		return direct, groups, nil
	}
	for k := range direct {
		if !domain.IsDirectField(k) {
			return nil, nil, domain.StateConflict("budget line is in review")
		}
	}
	inReview := make(map[string]bool, len(open))
	for _, cr := range open {
		inReview[cr.FieldGroup] = true
	}
	for _, g := range groups {
		if inReview[g.Name] {
			return nil, nil, domain.StateConflict(fmt.Sprintf("a change to %s is already in review", g.Name))
		}
	}
	return direct, groups, nil
}

// applyBudgetLineChanges writes data onto bli with one history record per
// changed field and an UPDATE_BLI event.
func applyBudgetLineChanges(ctx context.Context, repos *repository.Repositories, rec *HistoryRecorder, eventClass string, bli *domain.BudgetLineItem, data domain.FieldValues, now time.Time) error {
	if len(data) == 0 {
		return nil
	}
	diff, err := changes.Diff(bli, data)
	if err != nil {
		return err
	}
	if err := applyFields(data, bli.ApplyField); err != nil {
		return err
	}
	bli.UpdatedAt = now
	if err := repos.BudgetLines.Update(ctx, bli); err != nil {
		return err
	}
	if err := rec.Properties(ctx, eventClass, domain.ClassBudgetLineItem, bli.ID, domain.HistoryUpdated, diff); err != nil {
		return err
	}
	return rec.Event(ctx, domain.EventUpdateBudgetLine, domain.EventSuccess,
		map[string]any{"id": bli.ID, "changes": diff}, "")
}

// groupDivisions maps each group to the division that reviews it. A group
// proposing a CAN goes to that CAN's division; the rest follow the line's
// CAN as stored when the requests open.
func groupDivisions(ctx context.Context, resolver *RoutingResolver, lineCAN *string, groups []changes.Group) (map[string]*string, error) {
	byCAN := make(map[string]*string)
	out := make(map[string]*string, len(groups))
	for _, g := range groups {
		canID := lineCAN
		if v, ok := g.Data[domain.FieldCANID]; ok && v != nil {
			canID = v
		}
		if canID == nil {
			out[g.Name] = nil
			continue
		}
		division, ok := byCAN[*canID]
		if !ok {
			var err error
			division, err = resolver.ResolveManagingDivision(ctx, *canID)
			if err != nil {
				return nil, err
			}
			byCAN[*canID] = division
		}
		out[g.Name] = division
	}
	return out, nil
}

func openBudgetLineChangeRequests(ctx context.Context, repos *repository.Repositories, rec *HistoryRecorder, bli *domain.BudgetLineItem, groups []changes.Group, divisions map[string]*string, req contract.SubmitChangeRequest, now time.Time) ([]string, error) {
	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		diff, err := changes.Diff(bli, g.Data)
		if err != nil {
			return nil, err
		}
		cr := &domain.ChangeRequest{
			ID:                  uuid.New().String(),
			Type:                domain.ChangeRequestBudgetLine,
			Status:              domain.ChangeRequestInReview,
			AgreementID:         domain.StrPtr(bli.AgreementID),
			BudgetLineItemID:    domain.StrPtr(bli.ID),
			FieldGroup:          g.Name,
			RequestedChangeData: g.Data,
			RequestedChangeDiff: diff,
			RequestorNotes:      req.RequestorNotes,
			ManagingDivisionID:  divisions[g.Name],
			CreatedBy:           req.Actor.UserID,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if err := repos.ChangeRequests.Create(ctx, cr); err != nil {
			if db.IsUniqueViolation(err) {
				return nil, domain.StateConflict(fmt.Sprintf("a change to %s is already in review", g.Name))
			}
			return nil, err
		}
		if err := recordChangeRequestOpened(ctx, rec, cr, domain.ClassBudgetLineItem); err != nil {
			return nil, err
		}
		ids = append(ids, cr.ID)
	}
	return ids, nil
}

func recordChangeRequestOpened(ctx context.Context, rec *HistoryRecorder, cr *domain.ChangeRequest, targetClass string) error {
	if err := rec.Object(ctx, domain.ClassChangeRequest, domain.ClassChangeRequest, cr.ID, domain.HistoryNew); err != nil {
		return err
	}
	if err := rec.Properties(ctx, domain.ClassChangeRequest, targetClass, cr.TargetID(), domain.HistoryInReview, cr.RequestedChangeDiff); err != nil {
		return err
	}
	return rec.Event(ctx, domain.EventCreateChangeRequest, domain.EventSuccess, changeRequestDetails(cr), "")
}

// Delete removes a line that has no financial activity and nothing in
// review, together with its closed change requests.
func (s *budgetLineService) Delete(ctx context.Context, id string, actor domain.Actor) (err error) {
	startedAt := time.Now()
	defer func() {
		s.opts.observe(ctx, "budget-line-delete", startedAt, map[string]any{"budget_line_id": id}, err)
	}()

	now := s.opts.now()
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := repository.New(tx)
		bli, err := repos.BudgetLines.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		agreement, err := repos.Agreements.GetByID(ctx, bli.AgreementID)
		if err != nil {
			return err
		}
		if err := requireTeamAccess(actor, agreement); err != nil {
			return err
		}
		if bli.HasFinancialActivity() {
			return domain.StateConflict("budget line has financial activity")
		}
		if bli.InReview {
			return domain.StateConflict("budget line is in review")
		}

		if err := repos.ChangeRequests.DeleteByBudgetLine(ctx, id); err != nil {
			return err
		}
		if err := repos.BudgetLines.Delete(ctx, id); err != nil {
			return err
		}
		rec := NewHistoryRecorder(repos, actor.UserID, now)
		if err := rec.Object(ctx, domain.ClassBudgetLineItem, domain.ClassBudgetLineItem, id, domain.HistoryDeleted); err != nil {
			return err
		}
		return rec.Event(ctx, domain.EventDeleteBudgetLine, domain.EventSuccess,
			map[string]any{"id": id, "agreement_id": bli.AgreementID, "status": bli.Status}, "")
	})
}

// validateBudgetLine runs the budget line rules plus the checks that need
// the database: referenced CANs and fees must exist.
func validateBudgetLine(ctx context.Context, repos *repository.Repositories, agreement *domain.Agreement, current *domain.BudgetLineItem, proposed domain.FieldValues, mode validation.Mode, now time.Time) error {
	scID := proposed[domain.FieldServicesComponentID]
	if !proposed.Has(domain.FieldServicesComponentID) && mode == validation.ModePatch && current != nil {
		scID = current.ServicesComponentID
	}
	var sc *domain.ServicesComponent
	if scID != nil {
		found, err := repos.ServicesComponents.GetByID(ctx, *scID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		sc = found
	}

	errs := validation.ValidateBudgetLineItem(validation.BudgetLineInput{
		Agreement:         agreement,
		Current:           current,
		Proposed:          proposed,
		ServicesComponent: sc,
		Mode:              mode,
		Today:             now,
	})

	if v := proposed[domain.FieldCANID]; v != nil {
		if _, err := repos.CANs.GetByID(ctx, *v); errors.Is(err, domain.ErrNotFound) {
			errs = append(errs, domain.ValidationError{Field: domain.FieldCANID, Message: "does not exist"})
		} else if err != nil {
			return err
		}
	}
	if v := proposed[domain.FieldProcurementShopFeeID]; v != nil {
		if _, err := repos.Shops.GetFeeByID(ctx, *v); errors.Is(err, domain.ErrNotFound) {
			errs = append(errs, domain.ValidationError{Field: domain.FieldProcurementShopFeeID, Message: "does not exist"})
		} else if err != nil {
			return err
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
