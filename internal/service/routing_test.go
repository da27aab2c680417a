package service

import (
	"testing"

	"github.com/alexanderramin/budgetops/internal/domain"
	"github.com/alexanderramin/budgetops/internal/repository"
	"github.com/alexanderramin/budgetops/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoutingResolver_ManagingDivisionFollowsCAN(t *testing.T) {
	h := newHarness(t)
	r := NewRoutingResolver(repository.New(h.db))

	got, err := r.ResolveManagingDivision(h.ctx, h.w.CAN.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, h.w.Division.ID, *got)

	orphan := testutil.NewTestCAN("599", nil)
	require.NoError(t, h.w.Repos.CANs.Create(h.ctx, orphan))
	got, err = r.ResolveManagingDivision(h.ctx, orphan.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = r.ResolveManagingDivision(h.ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRoutingResolver_DivisionReviewers(t *testing.T) {
	h := newHarness(t)
	r := NewRoutingResolver(repository.New(h.db))

	got, err := r.ResolveDivisionReviewers(h.ctx, h.w.Division.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{h.w.Director.ID, h.w.Deputy.ID}, got)

	got, err = r.ResolveDivisionReviewers(h.ctx, h.w.OtherDivision.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{h.w.OtherDirector.ID}, got)
}

func TestRoutingResolver_CanReview(t *testing.T) {
	h := newHarness(t)
	r := NewRoutingResolver(repository.New(h.db))
	cr := &domain.ChangeRequest{ManagingDivisionID: &h.w.Division.ID}
	unrouted := &domain.ChangeRequest{}
	unknown := &domain.ChangeRequest{ManagingDivisionID: domain.StrPtr("gone")}

	tests := []struct {
		name string
		by   *domain.User
		cr   *domain.ChangeRequest
		want bool
	}{
		{"director", h.w.Director, cr, true},
		{"deputy", h.w.Deputy, cr, true},
		{"other division director", h.w.OtherDirector, cr, false},
		{"submitter", h.w.Submitter, cr, false},
		{"global reviewer", h.w.GlobalReviewer, cr, true},
		{"no division", h.w.Director, unrouted, false},
		{"global reviewer without division", h.w.GlobalReviewer, unrouted, true},
		{"unknown division", h.w.Director, unknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.CanReview(h.ctx, actorOf(tt.by), tt.cr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoutingResolver_ReviewableDivisions(t *testing.T) {
	h := newHarness(t)
	r := NewRoutingResolver(repository.New(h.db))

	got, err := r.ReviewableDivisions(h.ctx, actorOf(h.w.Deputy))
	require.NoError(t, err)
	assert.Equal(t, []string{h.w.Division.ID}, got)

	got, err = r.ReviewableDivisions(h.ctx, actorOf(h.w.Submitter))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = r.ReviewableDivisions(h.ctx, actorOf(h.w.GlobalReviewer))
	require.NoError(t, err)
	assert.Nil(t, got)
}
