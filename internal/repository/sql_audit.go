package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/alexanderramin/budgetops/internal/db"
	"github.com/alexanderramin/budgetops/internal/domain"
)

// SQLHistoryRepo implements HistoryRepo over the append-only history table.
type SQLHistoryRepo struct {
	db db.DBTX
}

func NewSQLHistoryRepo(conn db.DBTX) *SQLHistoryRepo {
	return &SQLHistoryRepo{db: conn}
}

const historyColumns = `id, event_class, target_class, target_id, event_type, scope, property_key, change, actor_id, created_at`

func (r *SQLHistoryRepo) Create(ctx context.Context, h *domain.HistoryRecord) error {
	var change any
	if h.Change != nil {
		b, err := json.Marshal(h.Change)
		if err != nil {
			return fmt.Errorf("encoding history change: %w", err)
		}
		change = string(b)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO history (`+historyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID,
		h.EventClass,
		h.TargetClass,
		h.TargetID,
		string(h.EventType),
		string(h.Scope),
		nullableStringValue(h.PropertyKey),
		change,
		h.ActorID,
		formatTimestamp(h.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("inserting history record: %w", err)
	}
	return nil
}

func (r *SQLHistoryRepo) ListByTarget(ctx context.Context, targetClass, targetID string) ([]*domain.HistoryRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+historyColumns+` FROM history WHERE target_class = ? AND target_id = ?
		ORDER BY created_at, scope, property_key`, targetClass, targetID)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var out []*domain.HistoryRecord
	for rows.Next() {
		var h domain.HistoryRecord
		var eventType, scope, createdAt string
		var key, change sql.NullString
		err := rows.Scan(&h.ID, &h.EventClass, &h.TargetClass, &h.TargetID, &eventType, &scope,
			&key, &change, &h.ActorID, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		h.EventType = domain.HistoryEventType(eventType)
		h.Scope = domain.HistoryScope(scope)
		h.PropertyKey = nullableString(key)
		if change.Valid {
			var d domain.FieldDiff
			if err := json.Unmarshal([]byte(change.String), &d); err != nil {
				return nil, fmt.Errorf("decoding history change: %w", err)
			}
			h.Change = &d
		}
		if h.Timestamp, err = parseTimestamp("created_at", createdAt); err != nil {
			return nil, err
		}
		out = append(out, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}
	return out, nil
}

// SQLOpsEventRepo implements OpsEventRepo.
type SQLOpsEventRepo struct {
	db db.DBTX
}

func NewSQLOpsEventRepo(conn db.DBTX) *SQLOpsEventRepo {
	return &SQLOpsEventRepo{db: conn}
}

func (r *SQLOpsEventRepo) Create(ctx context.Context, e *domain.OpsEvent) error {
	details := string(e.Details)
	if details == "" {
		details = "{}"
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ops_events (id, event_type, event_status, details, error_message, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.EventType), string(e.EventStatus), details, e.ErrorMessage, e.CreatedBy,
		formatTimestamp(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting ops event: %w", err)
	}
	return nil
}

func (r *SQLOpsEventRepo) ListByType(ctx context.Context, eventType domain.OpsEventType) ([]*domain.OpsEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, event_type, event_status, details, error_message, created_by, created_at
		FROM ops_events WHERE event_type = ? ORDER BY created_at, id`, string(eventType))
	if err != nil {
		return nil, fmt.Errorf("listing ops events: %w", err)
	}
	defer rows.Close()

	var out []*domain.OpsEvent
	for rows.Next() {
		var e domain.OpsEvent
		var typ, status, details, createdAt string
		if err := rows.Scan(&e.ID, &typ, &status, &details, &e.ErrorMessage, &e.CreatedBy, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning ops event row: %w", err)
		}
		e.EventType = domain.OpsEventType(typ)
		e.EventStatus = domain.OpsEventStatus(status)
		e.Details = json.RawMessage(details)
		if e.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ops events: %w", err)
	}
	return out, nil
}

// SQLNotificationRepo implements NotificationRepo.
type SQLNotificationRepo struct {
	db db.DBTX
}

func NewSQLNotificationRepo(conn db.DBTX) *SQLNotificationRepo {
	return &SQLNotificationRepo{db: conn}
}

func (r *SQLNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (id, recipient_id, change_request_id, outcome, title, message, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.RecipientID, nullableStringValue(n.ChangeRequestID), string(n.Outcome),
		n.Title, n.Message, boolToInt(n.IsRead), formatTimestamp(n.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}
	return nil
}

func (r *SQLNotificationRepo) ListByRecipient(ctx context.Context, recipientID string) ([]*domain.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, recipient_id, change_request_id, outcome, title, message, is_read, created_at
		FROM notifications WHERE recipient_id = ? ORDER BY created_at, id`, recipientID)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var out []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		var crID sql.NullString
		var outcome, createdAt string
		var isRead int
		if err := rows.Scan(&n.ID, &n.RecipientID, &crID, &outcome, &n.Title, &n.Message, &isRead, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning notification row: %w", err)
		}
		n.ChangeRequestID = nullableString(crID)
		n.Outcome = domain.ChangeRequestStatus(outcome)
		n.IsRead = intToBool(isRead)
		if n.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
			return nil, err
		}
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notifications: %w", err)
	}
	return out, nil
}
