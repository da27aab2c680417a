package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alexanderramin/budgetops/internal/domain"
	"github.com/alexanderramin/budgetops/internal/repository"
	"github.com/google/uuid"
)

// HistoryRecorder appends audit history and ops events through the
// repositories of the caller's transaction, so records commit or roll back
// together with the mutation they describe.
type HistoryRecorder struct {
	repos   *repository.Repositories
	actorID string
	now     time.Time
}

func NewHistoryRecorder(repos *repository.Repositories, actorID string, now time.Time) *HistoryRecorder {
	return &HistoryRecorder{repos: repos, actorID: actorID, now: now}
}

// Object records an object-scope event such as NEW or DELETED.
func (h *HistoryRecorder) Object(ctx context.Context, eventClass, targetClass, targetID string, eventType domain.HistoryEventType) error {
	return h.repos.History.Create(ctx, &domain.HistoryRecord{
		ID:          uuid.New().String(),
		EventClass:  eventClass,
		TargetClass: targetClass,
		TargetID:    targetID,
		EventType:   eventType,
		Scope:       domain.ScopeObject,
		ActorID:     h.actorID,
		Timestamp:   h.now,
	})
}

// Properties records one property-scope event per changed field, in field name order.
func (h *HistoryRecorder) Properties(ctx context.Context, eventClass, targetClass, targetID string, eventType domain.HistoryEventType, diff map[string]domain.FieldDiff) error {
	keys := make(domain.FieldValues, len(diff))
	for k := range diff {
		keys[k] = nil
	}
	for _, k := range keys.Keys() {
		change := diff[k]
		rec := &domain.HistoryRecord{
			ID:          uuid.New().String(),
			EventClass:  eventClass,
			TargetClass: targetClass,
			TargetID:    targetID,
			EventType:   eventType,
			Scope:       domain.ScopeProperty,
			PropertyKey: domain.StrPtr(k),
			Change:      &change,
			ActorID:     h.actorID,
			Timestamp:   h.now,
		}
		if err := h.repos.History.Create(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// Event records an ops event with its outcome.
func (h *HistoryRecorder) Event(ctx context.Context, eventType domain.OpsEventType, status domain.OpsEventStatus, details any, errMsg string) error {
	ev, err := newOpsEvent(eventType, status, details, errMsg, h.actorID, h.now)
	if err != nil {
		return err
	}
	return h.repos.OpsEvents.Create(ctx, ev)
}

func newOpsEvent(eventType domain.OpsEventType, status domain.OpsEventStatus, details any, errMsg, actorID string, now time.Time) (*domain.OpsEvent, error) {
	raw, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("encoding %s event details: %w", eventType, err)
	}
	return &domain.OpsEvent{
		ID:           uuid.New().String(),
		EventType:    eventType,
		EventStatus:  status,
		Details:      raw,
		ErrorMessage: errMsg,
		CreatedBy:    actorID,
		CreatedAt:    now,
	}, nil
}

// changeRequestDetails is the serialized form of a change request carried by ops events.
func changeRequestDetails(cr *domain.ChangeRequest) map[string]any {
	return map[string]any{
		"id":                    cr.ID,
		"change_request_type":   cr.Type,
		"status":                cr.Status,
		"agreement_id":          cr.AgreementID,
		"budget_line_item_id":   cr.BudgetLineItemID,
		"field_group":           cr.FieldGroup,
		"requested_change_data": cr.RequestedChangeData,
		"requested_change_diff": cr.RequestedChangeDiff,
		"managing_division_id":  cr.ManagingDivisionID,
		"created_by":            cr.CreatedBy,
		"reviewed_by":           cr.ReviewedBy,
		"reviewer_notes":        cr.ReviewerNotes,
	}
}
