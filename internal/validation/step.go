package validation

import (
	"fmt"
	"time"

	"github.com/alexanderramin/budgetops/internal/domain"
)

// StepInput is everything the procurement step rules look at.
type StepInput struct {
	Step     *domain.ProcurementTrackerStep
	Proposed domain.FieldValues
	// IsActive reports whether Step is the tracker's active step.
	IsActive bool
	// IsFinal reports whether Step is the last step of its tracker.
	IsFinal bool
	// CompletedBy is the user the target task_completed_by resolves to.
	CompletedBy    *domain.User
	NotesMaxLength int
	Today          time.Time
}

// ValidateProcurementStep returns every rule a proposed step update violates.
// Whether the step may be edited at all is decided by the caller.
func ValidateProcurementStep(in StepInput) domain.ValidationErrors {
	var errs domain.ValidationErrors
	today := domain.TodayUTC(in.Today)

	for _, f := range in.Proposed.Keys() {
		if !in.Step.StepType.AllowsField(f) {
			errs = append(errs, domain.ValidationError{
				Field:   f,
				Message: fmt.Sprintf("is not a field of %s steps", in.Step.StepType),
			})
		}
	}

	completing := false
	if v, ok := in.Proposed[domain.StepFieldStatus]; ok && v != nil {
		next := domain.StepStatus(*v)
		switch {
		case next == in.Step.Status:
		case next == domain.StepCompleted || next == domain.StepSkipped:
			if !in.IsActive {
				errs = append(errs, domain.ValidationError{
					Field:   domain.StepFieldStatus,
					Message: "only the active step can be completed or skipped",
				})
			} else if next == domain.StepSkipped && in.IsFinal {
				errs = append(errs, domain.ValidationError{
					Field:   domain.StepFieldStatus,
					Message: "the final step cannot be skipped",
				})
			}
			completing = next == domain.StepCompleted
		default:
			errs = append(errs, domain.ValidationError{
				Field:   domain.StepFieldStatus,
				Message: fmt.Sprintf("cannot be set to %s", next),
			})
		}
	}

	if notes := in.Proposed[domain.StepFieldNotes]; notes != nil && in.NotesMaxLength > 0 &&
		len([]rune(*notes)) > in.NotesMaxLength {
		errs = append(errs, domain.ValidationError{
			Field:   domain.StepFieldNotes,
			Message: fmt.Sprintf("must be at most %d characters", in.NotesMaxLength),
		})
	}

	completedBy := stepTarget(in, domain.StepFieldTaskCompletedBy)
	if completedBy != nil && (in.CompletedBy == nil || in.CompletedBy.ID != *completedBy) {
		errs = append(errs, domain.ValidationError{
			Field:   domain.StepFieldTaskCompletedBy,
			Message: "must reference an existing user",
		})
	}

	dateCompleted := stepTarget(in, domain.StepFieldDateCompleted)
	if dateCompleted != nil && changed(in, domain.StepFieldDateCompleted) && after(*dateCompleted, today) {
		errs = append(errs, domain.ValidationError{
			Field:   domain.StepFieldDateCompleted,
			Message: "cannot be in the future",
		})
	}
	if completing {
		if dateCompleted == nil {
			errs = append(errs, domain.ValidationError{
				Field:   domain.StepFieldDateCompleted,
				Message: "is required to complete the step",
			})
		}
		if completedBy == nil {
			errs = append(errs, domain.ValidationError{
				Field:   domain.StepFieldTaskCompletedBy,
				Message: "is required to complete the step",
			})
		}
	}

	// Forward-looking dates are checked only when newly set or changed, so a
	// value that was valid when saved does not block later edits.
	for _, f := range []string{domain.StepFieldTargetCompletionDate, domain.StepFieldDraftSolicitationDate} {
		v := in.Proposed[f]
		if v != nil && changed(in, f) && before(*v, today) {
			errs = append(errs, domain.ValidationError{Field: f, Message: "cannot be in the past"})
		}
	}

	if v := in.Proposed[domain.StepFieldApprovalRequestedDate]; v != nil &&
		changed(in, domain.StepFieldApprovalRequestedDate) && after(*v, today) {
		errs = append(errs, domain.ValidationError{
			Field:   domain.StepFieldApprovalRequestedDate,
			Message: "cannot be in the future",
		})
	}

	start := stepTarget(in, domain.StepFieldSolicitationPeriodStartDate)
	end := stepTarget(in, domain.StepFieldSolicitationPeriodEndDate)
	if start != nil && end != nil && *end < *start {
		errs = append(errs, domain.ValidationError{
			Field:   domain.StepFieldSolicitationPeriodEndDate,
			Message: "cannot be before the solicitation period start date",
		})
	}

	return errs
}

// stepTarget resolves the value a step field will hold after the update.
func stepTarget(in StepInput, field string) *string {
	if v, ok := in.Proposed[field]; ok {
		return v
	}
	v, err := in.Step.FieldValue(field)
	if err != nil {
		return nil
	}
	return v
}

func changed(in StepInput, field string) bool {
	v, ok := in.Proposed[field]
	if !ok {
		return false
	}
	current, err := in.Step.FieldValue(field)
	if err != nil {
		return true
	}
	return !domain.PtrEqual(current, v)
}

// Canonical dates compare lexically.
func after(date string, today time.Time) bool {
	return date > today.Format(domain.DateLayout)
}

func before(date string, today time.Time) bool {
	return date < today.Format(domain.DateLayout)
}
