package domain

import (
	"encoding/json"
	"time"
)

// HistoryRecord is one append-only audit trail entry.
type HistoryRecord struct {
	ID          string
	EventClass  string
	TargetClass string
	TargetID    string
	EventType   HistoryEventType
	Scope       HistoryScope
	PropertyKey *string
	Change      *FieldDiff
	ActorID     string
	Timestamp   time.Time
}

// Target class names used in history records.
const (
	ClassBudgetLineItem     = "BudgetLineItem"
	ClassAgreement          = "Agreement"
	ClassChangeRequest      = "ChangeRequest"
	ClassProcurementTracker = "ProcurementTracker"
	ClassTrackerStep        = "ProcurementTrackerStep"
	ClassProcurementAction  = "ProcurementAction"
)

// OpsEvent is a domain event with its outcome, kept for operational audit.
type OpsEvent struct {
	ID           string
	EventType    OpsEventType
	EventStatus  OpsEventStatus
	Details      json.RawMessage
	ErrorMessage string
	CreatedBy    string
	CreatedAt    time.Time
}

// Notification is a message queued for a user; delivery happens elsewhere.
type Notification struct {
	ID              string
	RecipientID     string
	ChangeRequestID *string
	Outcome         ChangeRequestStatus
	Title           string
	Message         string
	IsRead          bool
	CreatedAt       time.Time
}
