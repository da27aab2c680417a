package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/alexanderramin/budgetops/internal/db"
	"github.com/alexanderramin/budgetops/internal/domain"
	"github.com/alexanderramin/budgetops/internal/repository"
)

// normalizeFields canonicalizes raw input, collecting one validation error
// per malformed field.
func normalizeFields(raw map[string]*string, normalize func(string, *string) (*string, error)) (domain.FieldValues, error) {
	out := make(domain.FieldValues, len(raw))
	var errs domain.ValidationErrors
	names := make([]string, 0, len(raw))
	for k := range raw {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		v, err := normalize(k, raw[k])
		if err != nil {
			errs = append(errs, domain.ValidationError{Field: k, Message: err.Error()})
			continue
		}
		out[k] = v
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

// applyFields sets every value of data on the entity.
func applyFields(data domain.FieldValues, apply func(string, *string) error) error {
	for _, k := range data.Keys() {
		if err := apply(k, data[k]); err != nil {
			return err
		}
	}
	return nil
}

// requireTeamAccess allows agreement team members and direct editors.
func requireTeamAccess(actor domain.Actor, a *domain.Agreement) error {
	if actor.Can(domain.CapabilityDirectEdit) || a.IsTeamMember(actor.UserID) {
		return nil
	}
	return domain.Unauthorized("actor is not on the agreement team")
}

// recordFailures writes FAILED ops events in their own transaction after the
// operation they describe rolled back. A failure here is logged, never
// returned, so the caller still sees the original error.
func recordFailures(ctx context.Context, uow db.UnitOfWork, o options, events []*domain.OpsEvent) {
	if len(events) == 0 {
		return
	}
	err := uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := repository.New(tx)
		for _, ev := range events {
			if err := repos.OpsEvents.Create(ctx, ev); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		o.logger.ErrorContext(ctx, "recording failed events", "error", err, "count", len(events))
	}
}

// failedEvent builds a FAILED ops event for err; encoding problems fall back
// to empty details.
func failedEvent(eventType domain.OpsEventType, details any, err error, actorID string, now time.Time) *domain.OpsEvent {
	ev, encErr := newOpsEvent(eventType, domain.EventFailed, details, err.Error(), actorID, now)
	if encErr != nil {
		ev, _ = newOpsEvent(eventType, domain.EventFailed, nil, fmt.Sprintf("%v (details: %v)", err, encErr), actorID, now)
	}
	return ev
}
