package service

import (
	"testing"

	"github.com/alexanderramin/budgetops/internal/contract"
	"github.com/alexanderramin/budgetops/internal/domain"
	"github.com/alexanderramin/budgetops/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReview_ApproveMergesIntoCurrentState(t *testing.T) {
	h := newHarness(t)
	line := h.plannedLine()
	crID := h.submit(line, h.w.Submitter, vals(domain.FieldAmount, "2500")).PendingChangeRequestIDs[0]

	resp, err := h.review(crID, h.w.Director, domain.ReviewApprove)
	require.NoError(t, err)

	assert.Equal(t, contract.ReviewOK, resp.Status)
	assert.Equal(t, domain.ChangeRequestApproved, resp.ChangeRequest.Status)
	require.NotNil(t, resp.BudgetLine)
	assert.Equal(t, "2500", resp.BudgetLine.Amount.String())
	assert.False(t, resp.BudgetLine.InReview)
	assert.Nil(t, resp.Agreement)

	cr := h.changeRequest(crID)
	assert.Equal(t, domain.ChangeRequestApproved, cr.Status)
	require.NotNil(t, cr.ReviewedBy)
	assert.Equal(t, h.w.Director.ID, *cr.ReviewedBy)
	assert.Equal(t, "reviewed", cr.ReviewerNotes)
	require.NotNil(t, cr.ReviewedOn)

	crHistory, err := h.history.ListByTarget(h.ctx, domain.ClassChangeRequest, crID)
	require.NoError(t, err)
	var types []domain.HistoryEventType
	for _, r := range crHistory {
		types = append(types, r.EventType)
	}
	assert.Contains(t, types, domain.HistoryApproved)

	notes, err := h.history.ListNotifications(h.ctx, h.w.Submitter.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, domain.ChangeRequestApproved, notes[0].Outcome)
	assert.Equal(t, crID, *notes[0].ChangeRequestID)

	assert.Len(t, h.eventsWithStatus(domain.EventUpdateChangeRequest, domain.EventSuccess), 1)
}

func TestReview_RejectLeavesTargetUnchanged(t *testing.T) {
	h := newHarness(t)
	line := h.plannedLine()
	crID := h.submit(line, h.w.Submitter, vals(domain.FieldAmount, "2500")).PendingChangeRequestIDs[0]

	resp, err := h.review(crID, h.w.Deputy, domain.ReviewReject)
	require.NoError(t, err)

	assert.Equal(t, domain.ChangeRequestRejected, resp.ChangeRequest.Status)
	assert.Equal(t, "1000", h.line(line.ID).Amount.String())

	notes, err := h.history.ListNotifications(h.ctx, h.w.Submitter.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, domain.ChangeRequestRejected, notes[0].Outcome)
	assert.Contains(t, notes[0].Message, "rejected")
}

func TestReview_ApprovedStatusChangeMovesLine(t *testing.T) {
	h := newHarness(t)
	line := h.w.AddBudgetLine(t,
		testutil.WithCAN(h.w.CAN.ID),
		testutil.WithAmount("500"),
		testutil.WithDateNeeded(dateNeeded),
	)
	crID := h.submit(line, h.w.Submitter, vals(domain.FieldStatus, string(domain.BudgetLinePlanned))).PendingChangeRequestIDs[0]

	resp, err := h.review(crID, h.w.Director, domain.ReviewApprove)
	require.NoError(t, err)
	assert.Equal(t, domain.BudgetLinePlanned, resp.BudgetLine.Status)
}

func TestReview_StatusChangeRevalidatedAtApproval(t *testing.T) {
	h := newHarness(t)
	line := h.w.AddBudgetLine(t,
		testutil.WithCAN(h.w.CAN.ID),
		testutil.WithAmount("500"),
		testutil.WithDateNeeded(dateNeeded),
	)
	crID := h.submit(line, h.w.Submitter, vals(domain.FieldStatus, string(domain.BudgetLinePlanned))).PendingChangeRequestIDs[0]

	// The agreement loses a required field while the request waits.
	agreement := h.w.Agreement
	agreement.ProjectID = nil
	require.NoError(t, h.w.Repos.Agreements.Update(h.ctx, agreement))

	_, err := h.review(crID, h.w.Director, domain.ReviewApprove)
	verrs, ok := domain.AsValidationErrors(err)
	require.True(t, ok, "expected validation errors, got %v", err)
	assert.True(t, verrs.Has(domain.FieldProjectID))

	assert.Equal(t, domain.ChangeRequestInReview, h.changeRequest(crID).Status)
	assert.Equal(t, domain.BudgetLineDraft, h.line(line.ID).Status)
}

func TestReview_UsesDivisionFrozenAtSubmission(t *testing.T) {
	h := newHarness(t)
	line := h.plannedLine()
	crID := h.submit(line, h.w.Submitter, vals(domain.FieldAmount, "2500")).PendingChangeRequestIDs[0]

	// The CAN moves to another division after submission.
	can := h.w.CAN
	can.DivisionID = &h.w.OtherDivision.ID
	require.NoError(t, h.w.Repos.CANs.Update(h.ctx, can))

	_, err := h.review(crID, h.w.OtherDirector, domain.ReviewApprove)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = h.review(crID, h.w.Director, domain.ReviewApprove)
	assert.NoError(t, err)
}

func TestReview_Authorization(t *testing.T) {
	h := newHarness(t)
	line := h.plannedLine()
	resp := h.submit(line, h.w.Submitter, vals(domain.FieldAmount, "2500", domain.FieldDateNeeded, "2033-03-01"))
	require.Len(t, resp.PendingChangeRequestIDs, 2)

	for _, u := range []*domain.User{h.w.Submitter, h.w.Outsider, h.w.OtherDirector, h.w.Elevated} {
		_, err := h.review(resp.PendingChangeRequestIDs[0], u, domain.ReviewApprove)
		assert.ErrorIs(t, err, domain.ErrUnauthorized, u.FullName)
	}

	_, err := h.review(resp.PendingChangeRequestIDs[0], h.w.GlobalReviewer, domain.ReviewApprove)
	assert.NoError(t, err)
	_, err = h.review(resp.PendingChangeRequestIDs[1], h.w.Deputy, domain.ReviewApprove)
	assert.NoError(t, err)
}

func TestReview_AlreadyReviewedIsNotFound(t *testing.T) {
	h := newHarness(t)
	line := h.plannedLine()
	crID := h.submit(line, h.w.Submitter, vals(domain.FieldAmount, "2500")).PendingChangeRequestIDs[0]

	_, err := h.review(crID, h.w.Director, domain.ReviewApprove)
	require.NoError(t, err)

	_, err = h.review(crID, h.w.Director, domain.ReviewReject)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, domain.ChangeRequestApproved, h.changeRequest(crID).Status)

	_, err = h.review("missing", h.w.Director, domain.ReviewApprove)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReview_InvalidAction(t *testing.T) {
	h := newHarness(t)
	line := h.plannedLine()
	crID := h.submit(line, h.w.Submitter, vals(domain.FieldAmount, "2500")).PendingChangeRequestIDs[0]

	_, err := h.review(crID, h.w.Director, domain.ReviewAction("MAYBE"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReview_NewSubmissionAfterApprovalAppliesToLatestState(t *testing.T) {
	h := newHarness(t)
	line := h.plannedLine()

	first := h.submit(line, h.w.Submitter, vals(domain.FieldAmount, "2000")).PendingChangeRequestIDs[0]
	_, err := h.review(first, h.w.Director, domain.ReviewApprove)
	require.NoError(t, err)

	second := h.submit(line, h.w.Submitter, vals(domain.FieldAmount, "3000")).PendingChangeRequestIDs[0]
	assert.Equal(t, "2000", *h.changeRequest(second).RequestedChangeDiff[domain.FieldAmount].Old)

	_, err = h.review(second, h.w.Director, domain.ReviewApprove)
	require.NoError(t, err)
	assert.Equal(t, "3000", h.line(line.ID).Amount.String())
}

func TestListPending_RoutesByDivision(t *testing.T) {
	h := newHarness(t)
	mine := h.plannedLine()
	theirs := h.plannedLine(testutil.WithCAN(h.w.OtherCAN.ID))
	h.submit(mine, h.w.Submitter, vals(domain.FieldAmount, "2000"))
	h.submit(theirs, h.w.Submitter, vals(domain.FieldAmount, "2000"))

	pending, err := h.reviews.ListPending(h.ctx, actorOf(h.w.Director))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, mine.ID, *pending[0].BudgetLineItemID)

	pending, err = h.reviews.ListPending(h.ctx, actorOf(h.w.OtherDirector))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, theirs.ID, *pending[0].BudgetLineItemID)

	pending, err = h.reviews.ListPending(h.ctx, actorOf(h.w.GlobalReviewer))
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	pending, err = h.reviews.ListPending(h.ctx, actorOf(h.w.Outsider))
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRoutingResolver(t *testing.T) {
	h := newHarness(t)
	r := NewRoutingResolver(h.w.Repos)

	division, err := r.ResolveManagingDivision(h.ctx, h.w.OtherCAN.ID)
	require.NoError(t, err)
	assert.Equal(t, h.w.OtherDivision.ID, *division)

	reviewers, err := r.ResolveDivisionReviewers(h.ctx, h.w.Division.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{h.w.Director.ID, h.w.Deputy.ID}, reviewers)

	_, err = r.ResolveManagingDivision(h.ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	orphan := &domain.ChangeRequest{ManagingDivisionID: nil}
	ok, err := r.CanReview(h.ctx, actorOf(h.w.Director), orphan)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = r.CanReview(h.ctx, actorOf(h.w.GlobalReviewer), orphan)
	require.NoError(t, err)
	assert.True(t, ok)
}
