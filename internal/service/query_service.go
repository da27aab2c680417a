package service

import (
	"context"
	"fmt"

	"github.com/alexanderramin/budgetops/internal/db"
	"github.com/alexanderramin/budgetops/internal/domain"
	"github.com/alexanderramin/budgetops/internal/repository"
)

type historyService struct {
	conn db.DBTX
}

func NewHistoryService(conn db.DBTX) HistoryService {
	return &historyService{conn: conn}
}

func (s *historyService) ListByTarget(ctx context.Context, targetClass, targetID string) ([]*domain.HistoryRecord, error) {
	return repository.New(s.conn).History.ListByTarget(ctx, targetClass, targetID)
}

func (s *historyService) ListEvents(ctx context.Context, eventType domain.OpsEventType) ([]*domain.OpsEvent, error) {
	return repository.New(s.conn).OpsEvents.ListByType(ctx, eventType)
}

func (s *historyService) ListNotifications(ctx context.Context, recipientID string) ([]*domain.Notification, error) {
	return repository.New(s.conn).Notifications.ListByRecipient(ctx, recipientID)
}

type actorService struct {
	conn db.DBTX
}

func NewActorService(conn db.DBTX) ActorService {
	return &actorService{conn: conn}
}

// ResolveActor builds the actor context of a stored user.
func (s *actorService) ResolveActor(ctx context.Context, userID string) (domain.Actor, error) {
	u, err := repository.New(s.conn).Users.GetByID(ctx, userID)
	if err != nil {
		return domain.Actor{}, fmt.Errorf("resolving actor %s: %w", userID, err)
	}
	return domain.ActorFor(u), nil
}
