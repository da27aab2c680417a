package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/budgetops/internal/domain"
	"github.com/alexanderramin/budgetops/internal/repository"
)

// RoutingResolver decides which division owns a change and who may review it.
type RoutingResolver struct {
	repos *repository.Repositories
}

func NewRoutingResolver(repos *repository.Repositories) *RoutingResolver {
	return &RoutingResolver{repos: repos}
}

// ResolveManagingDivision returns the division that manages the given CAN,
// or nil when the CAN has none.
func (r *RoutingResolver) ResolveManagingDivision(ctx context.Context, canID string) (*string, error) {
	can, err := r.repos.CANs.GetByID(ctx, canID)
	if err != nil {
		return nil, fmt.Errorf("resolving managing division of can %s: %w", canID, err)
	}
	return can.DivisionID, nil
}

// ResolveDivisionReviewers returns the user ids allowed to review the
// division's change requests: its director and deputy director.
func (r *RoutingResolver) ResolveDivisionReviewers(ctx context.Context, divisionID string) ([]string, error) {
	d, err := r.repos.Divisions.GetByID(ctx, divisionID)
	if err != nil {
		return nil, fmt.Errorf("resolving reviewers of division %s: %w", divisionID, err)
	}
	return d.Leaders(), nil
}

// CanReview reports whether actor may decide cr. The division used is the one
// frozen on the request at submission time.
func (r *RoutingResolver) CanReview(ctx context.Context, actor domain.Actor, cr *domain.ChangeRequest) (bool, error) {
	if actor.Can(domain.CapabilityReviewAll) {
		return true, nil
	}
	if cr.ManagingDivisionID == nil {
		return false, nil
	}
	reviewers, err := r.ResolveDivisionReviewers(ctx, *cr.ManagingDivisionID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	for _, id := range reviewers {
		if id == actor.UserID {
			return true, nil
		}
	}
	return false, nil
}

// ReviewableDivisions returns the divisions whose queue actor sees, or nil
// when actor sees every division.
func (r *RoutingResolver) ReviewableDivisions(ctx context.Context, actor domain.Actor) ([]string, error) {
	if actor.Can(domain.CapabilityReviewAll) {
		return nil, nil
	}
	divisions, err := r.repos.Divisions.ListLedBy(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(divisions))
	for _, d := range divisions {
		ids = append(ids, d.ID)
	}
	return ids, nil
}
