package domain

import (
	"fmt"
	"time"
)

const (
	StepFieldStatus                      = "status"
	StepFieldTaskCompletedBy             = "task_completed_by"
	StepFieldDateCompleted               = "date_completed"
	StepFieldNotes                       = "notes"
	StepFieldTargetCompletionDate        = "target_completion_date"
	StepFieldDraftSolicitationDate       = "draft_solicitation_date"
	StepFieldSolicitationPeriodStartDate = "solicitation_period_start_date"
	StepFieldSolicitationPeriodEndDate   = "solicitation_period_end_date"
	StepFieldApprovalRequested           = "approval_requested"
	StepFieldApprovalRequestedDate       = "approval_requested_date"
)

// DefaultStepTypes is the ordered step set of a DEFAULT tracker.
var DefaultStepTypes = []StepType{
	StepAcquisitionPlanning,
	StepPreSolicitation,
	StepSolicitation,
	StepEvaluation,
	StepPreAward,
	StepAward,
}

var baseStepFields = []string{
	StepFieldStatus, StepFieldTaskCompletedBy, StepFieldDateCompleted, StepFieldNotes,
}

var stepTypeFields = map[StepType][]string{
	StepAcquisitionPlanning: nil,
	StepPreSolicitation:     {StepFieldTargetCompletionDate, StepFieldDraftSolicitationDate},
	StepSolicitation: {
		StepFieldTargetCompletionDate,
		StepFieldSolicitationPeriodStartDate,
		StepFieldSolicitationPeriodEndDate,
	},
	StepEvaluation: {StepFieldTargetCompletionDate},
	StepPreAward: {
		StepFieldTargetCompletionDate,
		StepFieldApprovalRequested,
		StepFieldApprovalRequestedDate,
	},
	StepAward: {StepFieldTargetCompletionDate},
}

// AllowsField reports whether a step of this type carries the given field.
func (t StepType) AllowsField(name string) bool {
	for _, f := range baseStepFields {
		if f == name {
			return true
		}
	}
	for _, f := range stepTypeFields[t] {
		if f == name {
			return true
		}
	}
	return false
}

// StepTypesFor returns the ordered step set of a tracker variant.
func StepTypesFor(t TrackerType) ([]StepType, error) {
	switch t {
	case TrackerDefault:
		return DefaultStepTypes, nil
	default:
		return nil, fmt.Errorf("unknown tracker type %q", t)
	}
}

type ProcurementTracker struct {
	ID                  string
	AgreementID         string
	TrackerType         TrackerType
	Status              TrackerStatus
	ActiveStepNumber    int
	ProcurementActionID *string
	CreatedBy           string
	CreatedAt           time.Time
	UpdatedAt           time.Time

	Steps []*ProcurementTrackerStep
}

// StepCount returns the number of steps loaded with the tracker.
func (t *ProcurementTracker) StepCount() int {
	return len(t.Steps)
}

// Step returns the step with the given number, or nil.
func (t *ProcurementTracker) Step(number int) *ProcurementTrackerStep {
	for _, s := range t.Steps {
		if s.StepNumber == number {
			return s
		}
	}
	return nil
}

type ProcurementTrackerStep struct {
	ID                          string
	TrackerID                   string
	StepNumber                  int
	StepType                    StepType
	Status                      StepStatus
	StepStartDate               *time.Time
	StepCompletedDate           *time.Time
	TaskCompletedBy             *string
	DateCompleted               *time.Time
	Notes                       string
	TargetCompletionDate        *time.Time
	DraftSolicitationDate       *time.Time
	SolicitationPeriodStartDate *time.Time
	SolicitationPeriodEndDate   *time.Time
	ApprovalRequested           bool
	ApprovalRequestedDate       *time.Time
	CreatedAt                   time.Time
	UpdatedAt                   time.Time
}

// IsFinished reports whether the step can no longer change.
func (s *ProcurementTrackerStep) IsFinished() bool {
	return s.Status == StepCompleted || s.Status == StepSkipped
}

// FieldValue returns the canonical serialized value of a step field.
func (s *ProcurementTrackerStep) FieldValue(name string) (*string, error) {
	switch name {
	case StepFieldStatus:
		return StrPtr(string(s.Status)), nil
	case StepFieldTaskCompletedBy:
		return s.TaskCompletedBy, nil
	case StepFieldDateCompleted:
		return formatDate(s.DateCompleted), nil
	case StepFieldNotes:
		return nonEmpty(StrPtr(s.Notes)), nil
	case StepFieldTargetCompletionDate:
		return formatDate(s.TargetCompletionDate), nil
	case StepFieldDraftSolicitationDate:
		return formatDate(s.DraftSolicitationDate), nil
	case StepFieldSolicitationPeriodStartDate:
		return formatDate(s.SolicitationPeriodStartDate), nil
	case StepFieldSolicitationPeriodEndDate:
		return formatDate(s.SolicitationPeriodEndDate), nil
	case StepFieldApprovalRequested:
		return formatBool(s.ApprovalRequested), nil
	case StepFieldApprovalRequestedDate:
		return formatDate(s.ApprovalRequestedDate), nil
	default:
		return nil, fmt.Errorf("procurement tracker step has no field %q", name)
	}
}

// ApplyField sets a step field from its canonical serialized value.
func (s *ProcurementTrackerStep) ApplyField(name string, v *string) error {
	var err error
	switch name {
	case StepFieldStatus:
		if v == nil {
			return fmt.Errorf("%s: cannot be cleared", name)
		}
		s.Status = StepStatus(*v)
	case StepFieldTaskCompletedBy:
		s.TaskCompletedBy = v
	case StepFieldDateCompleted:
		s.DateCompleted, err = parseDate(name, v)
	case StepFieldNotes:
		s.Notes = Deref(v)
	case StepFieldTargetCompletionDate:
		s.TargetCompletionDate, err = parseDate(name, v)
	case StepFieldDraftSolicitationDate:
		s.DraftSolicitationDate, err = parseDate(name, v)
	case StepFieldSolicitationPeriodStartDate:
		s.SolicitationPeriodStartDate, err = parseDate(name, v)
	case StepFieldSolicitationPeriodEndDate:
		s.SolicitationPeriodEndDate, err = parseDate(name, v)
	case StepFieldApprovalRequested:
		s.ApprovalRequested, err = parseBool(name, v)
	case StepFieldApprovalRequestedDate:
		s.ApprovalRequestedDate, err = parseDate(name, v)
	default:
		return fmt.Errorf("procurement tracker step field %q is not editable", name)
	}
	return err
}

// NormalizeStepField validates a raw step field value and returns its canonical form.
func NormalizeStepField(name string, v *string) (*string, error) {
	switch name {
	case StepFieldStatus:
		s := nonEmpty(v)
		if s == nil {
			return nil, fmt.Errorf("%s: cannot be cleared", name)
		}
		switch StepStatus(*s) {
		case StepPending, StepActive, StepCompleted, StepSkipped:
			return s, nil
		}
		return nil, fmt.Errorf("%s: unknown step status %q", name, *s)
	case StepFieldTaskCompletedBy, StepFieldNotes:
		return nonEmpty(v), nil
	case StepFieldDateCompleted, StepFieldTargetCompletionDate, StepFieldDraftSolicitationDate,
		StepFieldSolicitationPeriodStartDate, StepFieldSolicitationPeriodEndDate,
		StepFieldApprovalRequestedDate:
		return normalizeDate(name, v)
	case StepFieldApprovalRequested:
		return normalizeBool(name, v)
	default:
		return nil, fmt.Errorf("%s: not a procurement tracker step field", name)
	}
}

type ProcurementAction struct {
	ID                   string
	AgreementID          string
	AwardType            AwardType
	Status               ProcurementActionStatus
	DateAwardedObligated *time.Time
	CreatedBy            string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// IsTerminal reports whether the action can no longer progress.
func (a *ProcurementAction) IsTerminal() bool {
	return a.Status == ActionCertified || a.Status == ActionCancelled
}

// IsAwarded reports whether the action records a completed award.
func (a *ProcurementAction) IsAwarded() bool {
	return a.Status == ActionAwarded || a.Status == ActionCertified
}
