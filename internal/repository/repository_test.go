package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/budgetops/internal/db"
	"github.com/alexanderramin/budgetops/internal/domain"
	"github.com/alexanderramin/budgetops/internal/repository"
	"github.com/alexanderramin/budgetops/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetLineRepo_CreateAndGetByID(t *testing.T) {
	w := testutil.NewWorld(t, testutil.NewTestDB(t))
	ctx := context.Background()

	needed := time.Date(2032, 2, 2, 0, 0, 0, 0, time.UTC)
	b := w.AddBudgetLine(t,
		testutil.WithAmount("111.11"),
		testutil.WithCAN(w.CAN.ID),
		testutil.WithDateNeeded(needed),
		testutil.WithStatus(domain.BudgetLinePlanned),
	)

	fetched, err := w.Repos.BudgetLines.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BudgetLinePlanned, fetched.Status)
	assert.Equal(t, "111.11", fetched.Amount.String())
	assert.Equal(t, w.CAN.ID, domain.Deref(fetched.CANID))
	require.NotNil(t, fetched.DateNeeded)
	assert.Equal(t, "2032-02-02", fetched.DateNeeded.Format(domain.DateLayout))
	assert.False(t, fetched.InReview)
	assert.Equal(t, w.Submitter.ID, fetched.CreatedBy)
}

func TestBudgetLineRepo_GetByID_NotFound(t *testing.T) {
	repos := repository.New(testutil.NewTestDB(t))
	_, err := repos.BudgetLines.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBudgetLineRepo_UpdateClearsFields(t *testing.T) {
	w := testutil.NewWorld(t, testutil.NewTestDB(t))
	ctx := context.Background()

	b := w.AddBudgetLine(t, testutil.WithAmount("5"), testutil.WithCAN(w.CAN.ID))
	b.Amount = nil
	b.CANID = nil
	b.Comments = "cleared"
	require.NoError(t, w.Repos.BudgetLines.Update(ctx, b))

	fetched, err := w.Repos.BudgetLines.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, fetched.Amount)
	assert.Nil(t, fetched.CANID)
	assert.Equal(t, "cleared", fetched.Comments)
}

func TestAgreementRepo_TeamMembersAndLock(t *testing.T) {
	w := testutil.NewWorld(t, testutil.NewTestDB(t))
	ctx := context.Background()

	a := w.AddAgreement(t, testutil.WithTeamMembers(w.Outsider.ID))
	uow := testutil.NewTestUoW(w.DB)
	err := uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		locked, err := repository.New(tx).Agreements.GetByIDForUpdate(ctx, a.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, []string{w.Outsider.ID}, locked.TeamMemberIDs)
		assert.True(t, locked.IsTeamMember(w.Submitter.ID), "project officer counts as team member")
		return nil
	})
	require.NoError(t, err)
}

func TestChangeRequestRepo_JSONRoundTripAndOpenUniqueness(t *testing.T) {
	w := testutil.NewWorld(t, testutil.NewTestDB(t))
	ctx := context.Background()
	b := w.AddBudgetLine(t, testutil.WithStatus(domain.BudgetLinePlanned), testutil.WithAmount("111.11"))

	newCR := func() *domain.ChangeRequest {
		now := time.Now().UTC()
		return &domain.ChangeRequest{
			ID:                  uuid.New().String(),
			Type:                domain.ChangeRequestBudgetLine,
			Status:              domain.ChangeRequestInReview,
			AgreementID:         &b.AgreementID,
			BudgetLineItemID:    &b.ID,
			FieldGroup:          domain.FieldAmount,
			RequestedChangeData: domain.FieldValues{domain.FieldAmount: domain.StrPtr("222.22")},
			RequestedChangeDiff: map[string]domain.FieldDiff{
				domain.FieldAmount: {Old: domain.StrPtr("111.11"), New: domain.StrPtr("222.22")},
			},
			ManagingDivisionID: &w.Division.ID,
			CreatedBy:          w.Submitter.ID,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
	}

	cr := newCR()
	require.NoError(t, w.Repos.ChangeRequests.Create(ctx, cr))

	fetched, err := w.Repos.ChangeRequests.GetByID(ctx, cr.ID)
	require.NoError(t, err)
	assert.Equal(t, "222.22", *fetched.RequestedChangeData[domain.FieldAmount])
	assert.Equal(t, "111.11", *fetched.RequestedChangeDiff[domain.FieldAmount].Old)
	assert.Equal(t, w.Division.ID, *fetched.ManagingDivisionID)

	err = w.Repos.ChangeRequests.Create(ctx, newCR())
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err), "second open request on the same field group")

	line, err := w.Repos.BudgetLines.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, line.InReview)

	reviewedOn := time.Now().UTC()
	fetched.Status = domain.ChangeRequestApproved
	fetched.ReviewedBy = &w.Director.ID
	fetched.ReviewedOn = &reviewedOn
	fetched.ReviewerNotes = "ok"
	require.NoError(t, w.Repos.ChangeRequests.Review(ctx, fetched))
	require.NoError(t, w.Repos.ChangeRequests.Create(ctx, newCR()), "closed requests free the field group")

	open, err := w.Repos.ChangeRequests.ListOpenByBudgetLine(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	queue, err := w.Repos.ChangeRequests.ListInReview(ctx, []string{w.Division.ID})
	require.NoError(t, err)
	assert.Len(t, queue, 1)
	queue, err = w.Repos.ChangeRequests.ListInReview(ctx, []string{w.OtherDivision.ID})
	require.NoError(t, err)
	assert.Empty(t, queue)
	queue, err = w.Repos.ChangeRequests.ListInReview(ctx, []string{})
	require.NoError(t, err)
	assert.Empty(t, queue)
}

func TestDivisionRepo_ListLedBy(t *testing.T) {
	w := testutil.NewWorld(t, testutil.NewTestDB(t))
	ctx := context.Background()

	led, err := w.Repos.Divisions.ListLedBy(ctx, w.Deputy.ID)
	require.NoError(t, err)
	require.Len(t, led, 1)
	assert.Equal(t, w.Division.ID, led[0].ID)

	led, err = w.Repos.Divisions.ListLedBy(ctx, w.Submitter.ID)
	require.NoError(t, err)
	assert.Empty(t, led)
}

func TestTrackerRepo_CreateWithStepsAndActiveUniqueness(t *testing.T) {
	w := testutil.NewWorld(t, testutil.NewTestDB(t))
	ctx := context.Background()

	newTracker := func() *domain.ProcurementTracker {
		now := time.Now().UTC()
		tr := &domain.ProcurementTracker{
			ID:               uuid.New().String(),
			AgreementID:      w.Agreement.ID,
			TrackerType:      domain.TrackerDefault,
			Status:           domain.TrackerActive,
			ActiveStepNumber: 1,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		for i, st := range domain.DefaultStepTypes {
			tr.Steps = append(tr.Steps, &domain.ProcurementTrackerStep{
				ID:         uuid.New().String(),
				StepNumber: i + 1,
				StepType:   st,
				Status:     domain.StepPending,
				CreatedAt:  now,
				UpdatedAt:  now,
			})
		}
		return tr
	}

	tr := newTracker()
	require.NoError(t, w.Repos.Trackers.Create(ctx, tr))

	active, err := w.Repos.Trackers.GetActiveByAgreementForUpdate(ctx, w.Agreement.ID)
	require.NoError(t, err)
	assert.Equal(t, tr.ID, active.ID)
	require.Len(t, active.Steps, 6)
	assert.Equal(t, domain.StepAward, active.Steps[5].StepType)

	err = w.Repos.Trackers.Create(ctx, newTracker())
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err))

	step := active.Steps[0]
	step.Notes = "kickoff"
	step.ApprovalRequested = true
	require.NoError(t, w.Repos.Trackers.UpdateStep(ctx, step))
	fetched, err := w.Repos.Trackers.GetStep(ctx, step.ID)
	require.NoError(t, err)
	assert.Equal(t, "kickoff", fetched.Notes)
	assert.True(t, fetched.ApprovalRequested)

	_, err = w.Repos.Trackers.GetStep(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestActionRepo_OpenAndAwarded(t *testing.T) {
	w := testutil.NewWorld(t, testutil.NewTestDB(t))
	ctx := context.Background()

	_, err := w.Repos.Actions.GetOpenNewAwardByAgreementForUpdate(ctx, w.Agreement.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	now := time.Now().UTC()
	action := &domain.ProcurementAction{
		ID:          uuid.New().String(),
		AgreementID: w.Agreement.ID,
		AwardType:   domain.AwardNew,
		Status:      domain.ActionPlanned,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, w.Repos.Actions.Create(ctx, action))

	awarded, err := w.Repos.Actions.HasAwarded(ctx, w.Agreement.ID)
	require.NoError(t, err)
	assert.False(t, awarded)

	action.Status = domain.ActionAwarded
	action.DateAwardedObligated = &now
	require.NoError(t, w.Repos.Actions.Update(ctx, action))

	awarded, err = w.Repos.Actions.HasAwarded(ctx, w.Agreement.ID)
	require.NoError(t, err)
	assert.True(t, awarded)

	dup := *action
	dup.ID = uuid.New().String()
	dup.Status = domain.ActionPlanned
	err = w.Repos.Actions.Create(ctx, &dup)
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err))
}

func TestHistoryRepo_ListByTarget(t *testing.T) {
	repos := repository.New(testutil.NewTestDB(t))
	ctx := context.Background()

	base := time.Now().UTC()
	key := domain.FieldAmount
	records := []*domain.HistoryRecord{
		{ID: uuid.New().String(), EventClass: "BudgetLineItem", TargetClass: domain.ClassBudgetLineItem, TargetID: "b1",
			EventType: domain.HistoryNew, Scope: domain.ScopeObject, ActorID: "u", Timestamp: base},
		{ID: uuid.New().String(), EventClass: "BudgetLineItem", TargetClass: domain.ClassBudgetLineItem, TargetID: "b1",
			EventType: domain.HistoryUpdated, Scope: domain.ScopeProperty, PropertyKey: &key,
			Change: &domain.FieldDiff{Old: nil, New: domain.StrPtr("1")}, ActorID: "u", Timestamp: base.Add(time.Second)},
		{ID: uuid.New().String(), EventClass: "BudgetLineItem", TargetClass: domain.ClassBudgetLineItem, TargetID: "b2",
			EventType: domain.HistoryNew, Scope: domain.ScopeObject, ActorID: "u", Timestamp: base},
	}
	for _, r := range records {
		require.NoError(t, repos.History.Create(ctx, r))
	}

	got, err := repos.History.ListByTarget(ctx, domain.ClassBudgetLineItem, "b1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.HistoryNew, got[0].EventType)
	require.NotNil(t, got[1].Change)
	assert.Nil(t, got[1].Change.Old)
	assert.Equal(t, "1", *got[1].Change.New)
}
