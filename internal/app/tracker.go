package app

import "github.com/alexanderramin/budgetops/internal/domain"

type UpdateStepRequest struct {
	StepID string
	Fields map[string]*string
	Actor  domain.Actor
}

type UpdateStepResponse struct {
	Step    *domain.ProcurementTrackerStep
	Tracker *domain.ProcurementTracker
	// TrackerAdvanced is true when the update moved the active step or
	// completed the tracker.
	TrackerAdvanced bool
}
