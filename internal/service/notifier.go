package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/budgetops/internal/domain"
	"github.com/alexanderramin/budgetops/internal/repository"
	"github.com/google/uuid"
)

// Notifier queues review outcome messages for submitters.
type Notifier struct {
	repos *repository.Repositories
	now   time.Time
}

func NewNotifier(repos *repository.Repositories, now time.Time) *Notifier {
	return &Notifier{repos: repos, now: now}
}

// ReviewDecided tells the submitter of cr how it was decided.
func (n *Notifier) ReviewDecided(ctx context.Context, cr *domain.ChangeRequest) error {
	verb := "approved"
	if cr.Status == domain.ChangeRequestRejected {
		verb = "rejected"
	}
	msg := fmt.Sprintf("Your change to %s of %s was %s.", cr.FieldGroup, cr.TargetID(), verb)
	if cr.ReviewerNotes != "" {
		msg += " Reviewer notes: " + cr.ReviewerNotes
	}
	return n.repos.Notifications.Create(ctx, &domain.Notification{
		ID:              uuid.New().String(),
		RecipientID:     cr.CreatedBy,
		ChangeRequestID: domain.StrPtr(cr.ID),
		Outcome:         cr.Status,
		Title:           fmt.Sprintf("Change request %s", verb),
		Message:         msg,
		CreatedAt:       n.now,
	})
}
