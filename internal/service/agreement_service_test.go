package service

import (
	"testing"

	"github.com/alexanderramin/budgetops/internal/contract"
	"github.com/alexanderramin/budgetops/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) updateAgreement(by *domain.User, changes map[string]*string) (*contract.UpdateAgreementResponse, error) {
	return h.agreements.Update(h.ctx, contract.UpdateAgreementRequest{
		AgreementID: h.w.Agreement.ID,
		Changes:     changes,
		Actor:       actorOf(by),
	})
}

func (h *harness) newShop(name string) *domain.ProcurementShop {
	h.t.Helper()
	shop := &domain.ProcurementShop{ID: uuid.New().String(), Name: name, Abbr: name[:3]}
	require.NoError(h.t, h.w.Repos.Shops.CreateShop(h.ctx, shop))
	return shop
}

func TestUpdateAgreement_DirectWhileAllLinesDraft(t *testing.T) {
	h := newHarness(t)
	h.w.AddBudgetLine(t)
	shop := h.newShop("Interior Business Center")

	resp, err := h.updateAgreement(h.w.Submitter, vals(
		domain.FieldAwardingEntityID, shop.ID,
		domain.FieldDescription, "updated scope",
	))
	require.NoError(t, err)

	assert.Equal(t, contract.SubmitApplied, resp.Status)
	assert.ElementsMatch(t, []string{domain.FieldAwardingEntityID, domain.FieldDescription}, resp.AppliedFields)
	assert.Empty(t, resp.PendingChangeRequestIDs)

	stored, err := h.agreements.GetByID(h.ctx, h.w.Agreement.ID)
	require.NoError(t, err)
	assert.Equal(t, shop.ID, *stored.AwardingEntityID)
	assert.Equal(t, "updated scope", stored.Description)

	records, err := h.history.ListByTarget(h.ctx, domain.ClassAgreement, h.w.Agreement.ID)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Len(t, h.eventsWithStatus(domain.EventUpdateAgreement, domain.EventSuccess), 1)
}

func TestUpdateAgreement_AwardingEntityReviewedOncePlanned(t *testing.T) {
	h := newHarness(t)
	h.plannedLine()
	original := *h.w.Agreement.AwardingEntityID
	shop := h.newShop("Interior Business Center")

	resp, err := h.updateAgreement(h.w.Submitter, vals(
		domain.FieldAwardingEntityID, shop.ID,
		domain.FieldDescription, "updated scope",
	))
	require.NoError(t, err)

	assert.Equal(t, contract.SubmitPending, resp.Status)
	assert.Equal(t, []string{domain.FieldDescription}, resp.AppliedFields)
	require.Len(t, resp.PendingChangeRequestIDs, 1)
	assert.Equal(t, original, *resp.Agreement.AwardingEntityID)
	assert.Equal(t, "updated scope", resp.Agreement.Description)

	cr := h.changeRequest(resp.PendingChangeRequestIDs[0])
	assert.Equal(t, domain.ChangeRequestAgreement, cr.Type)
	assert.Equal(t, h.w.Division.ID, *cr.ManagingDivisionID)
	assert.Equal(t, original, *cr.RequestedChangeDiff[domain.FieldAwardingEntityID].Old)

	_, err = h.updateAgreement(h.w.Submitter, vals(domain.FieldAwardingEntityID, h.w.Shop.ID+"x"))
	assert.ErrorIs(t, err, domain.ErrValidation, "unknown shop")

	other := h.newShop("Second Shop")
	_, err = h.updateAgreement(h.w.Submitter, vals(domain.FieldAwardingEntityID, other.ID))
	assert.ErrorIs(t, err, domain.ErrStateConflict)

	review, err := h.review(cr.ID, h.w.Director, domain.ReviewApprove)
	require.NoError(t, err)
	require.NotNil(t, review.Agreement)
	assert.Equal(t, shop.ID, *review.Agreement.AwardingEntityID)
	assert.Nil(t, review.BudgetLine)
}

func TestUpdateAgreement_ElevatedActorAppliesDirectly(t *testing.T) {
	h := newHarness(t)
	h.plannedLine()
	shop := h.newShop("Interior Business Center")

	resp, err := h.updateAgreement(h.w.Elevated, vals(domain.FieldAwardingEntityID, shop.ID))
	require.NoError(t, err)
	assert.Equal(t, contract.SubmitApplied, resp.Status)
	assert.Equal(t, shop.ID, *resp.Agreement.AwardingEntityID)
}

func TestUpdateAgreement_AwardFreezesFields(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.w.Repos.Actions.Create(h.ctx, &domain.ProcurementAction{
		ID:          uuid.New().String(),
		AgreementID: h.w.Agreement.ID,
		AwardType:   domain.AwardNew,
		Status:      domain.ActionAwarded,
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	}))

	_, err := h.updateAgreement(h.w.Submitter, vals(domain.FieldName, "Renamed"))
	assert.ErrorIs(t, err, domain.ErrStateConflict)

	resp, err := h.updateAgreement(h.w.Submitter, vals(domain.FieldDescription, "still editable"))
	require.NoError(t, err)
	assert.Equal(t, "still editable", resp.Agreement.Description)
}

func TestApproveAgreementChange_RefusedOnceAwarded(t *testing.T) {
	h := newHarness(t)
	h.plannedLine()
	original := *h.w.Agreement.AwardingEntityID
	shop := h.newShop("Interior Business Center")

	resp, err := h.updateAgreement(h.w.Submitter, vals(domain.FieldAwardingEntityID, shop.ID))
	require.NoError(t, err)
	require.Len(t, resp.PendingChangeRequestIDs, 1)
	crID := resp.PendingChangeRequestIDs[0]

	// The award lands while the change request waits for review.
	require.NoError(t, h.w.Repos.Actions.Create(h.ctx, &domain.ProcurementAction{
		ID:          uuid.New().String(),
		AgreementID: h.w.Agreement.ID,
		AwardType:   domain.AwardNew,
		Status:      domain.ActionAwarded,
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	}))

	_, err = h.review(crID, h.w.Director, domain.ReviewApprove)
	assert.ErrorIs(t, err, domain.ErrStateConflict)

	stored, err := h.agreements.GetByID(h.ctx, h.w.Agreement.ID)
	require.NoError(t, err)
	assert.Equal(t, original, *stored.AwardingEntityID)
	assert.Equal(t, domain.ChangeRequestInReview, h.changeRequest(crID).Status)

	// Rejecting is still possible.
	review, err := h.review(crID, h.w.Director, domain.ReviewReject)
	require.NoError(t, err)
	assert.Equal(t, domain.ChangeRequestRejected, review.ChangeRequest.Status)
}

func TestUpdateAgreement_VendorMustMatchReasonWhileLinesPlanned(t *testing.T) {
	h := newHarness(t)
	h.plannedLine()

	_, err := h.updateAgreement(h.w.Submitter, vals(domain.FieldAgreementReason, string(domain.ReasonRecompete)))
	verrs, ok := domain.AsValidationErrors(err)
	require.True(t, ok, "expected validation errors, got %v", err)
	assert.True(t, verrs.Has(domain.FieldVendor))

	_, err = h.updateAgreement(h.w.Submitter, vals(domain.FieldVendor, "Acme Research"))
	verrs, ok = domain.AsValidationErrors(err)
	require.True(t, ok, "expected validation errors, got %v", err)
	assert.True(t, verrs.Has(domain.FieldVendor))

	stored, err := h.agreements.GetByID(h.ctx, h.w.Agreement.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonNewRequirement, *stored.AgreementReason)
	assert.Nil(t, stored.Vendor)

	resp, err := h.updateAgreement(h.w.Submitter, vals(
		domain.FieldAgreementReason, string(domain.ReasonRecompete),
		domain.FieldVendor, "Acme Research",
	))
	require.NoError(t, err)
	assert.Equal(t, contract.SubmitApplied, resp.Status)
	assert.Equal(t, domain.ReasonRecompete, *resp.Agreement.AgreementReason)
	assert.Equal(t, "Acme Research", *resp.Agreement.Vendor)
}

func TestUpdateAgreement_VendorFreeWhileAllLinesDraft(t *testing.T) {
	h := newHarness(t)
	h.w.AddBudgetLine(t)

	resp, err := h.updateAgreement(h.w.Submitter, vals(domain.FieldVendor, "Acme Research"))
	require.NoError(t, err)
	assert.Equal(t, "Acme Research", *resp.Agreement.Vendor)
}

func TestUpdateAgreement_RequiredFieldsStayWhileLinesPlanned(t *testing.T) {
	h := newHarness(t)
	h.plannedLine()

	_, err := h.updateAgreement(h.w.Submitter, vals(domain.FieldProjectID, ""))
	verrs, ok := domain.AsValidationErrors(err)
	require.True(t, ok, "expected validation errors, got %v", err)
	assert.True(t, verrs.Has(domain.FieldProjectID))

	stored, err := h.agreements.GetByID(h.ctx, h.w.Agreement.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.ProjectID)
}

func TestUpdateAgreement_Rejections(t *testing.T) {
	h := newHarness(t)

	_, err := h.updateAgreement(h.w.Outsider, vals(domain.FieldDescription, "x"))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = h.updateAgreement(h.w.Submitter, vals("budget", "x"))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.updateAgreement(h.w.Submitter, vals(domain.FieldProjectOfficerID, "ghost"))
	verrs, ok := domain.AsValidationErrors(err)
	require.True(t, ok)
	assert.True(t, verrs.Has(domain.FieldProjectOfficerID))

	resp, err := h.updateAgreement(h.w.Submitter, vals(domain.FieldName, h.w.Agreement.Name))
	require.NoError(t, err)
	assert.Equal(t, contract.SubmitApplied, resp.Status)
	assert.Empty(t, resp.AppliedFields)
}
