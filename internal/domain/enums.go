package domain

type BudgetLineStatus string

const (
	BudgetLineDraft       BudgetLineStatus = "DRAFT"
	BudgetLineUnderReview BudgetLineStatus = "UNDER_REVIEW"
	BudgetLinePlanned     BudgetLineStatus = "PLANNED"
	BudgetLineInExecution BudgetLineStatus = "IN_EXECUTION"
	BudgetLineObligated   BudgetLineStatus = "OBLIGATED"
)

// ValidBudgetLineStatuses is the canonical set of accepted budget line status strings.
var ValidBudgetLineStatuses = map[BudgetLineStatus]bool{
	BudgetLineDraft: true, BudgetLineUnderReview: true, BudgetLinePlanned: true,
	BudgetLineInExecution: true, BudgetLineObligated: true,
}

// budgetLineTransitions lists the statuses reachable from each status.
// UNDER_REVIEW only exists on legacy rows; review state is derived from open change requests.
var budgetLineTransitions = map[BudgetLineStatus][]BudgetLineStatus{
	BudgetLineDraft:       {BudgetLinePlanned},
	BudgetLineUnderReview: {BudgetLineDraft, BudgetLinePlanned},
	BudgetLinePlanned:     {BudgetLineDraft, BudgetLineInExecution},
	BudgetLineInExecution: {BudgetLineObligated},
}

// CanTransitionBudgetLine reports whether a budget line may move from one status to another.
func CanTransitionBudgetLine(from, to BudgetLineStatus) bool {
	if from == to {
		return true
	}
	for _, s := range budgetLineTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type AgreementType string

const (
	AgreementContract         AgreementType = "CONTRACT"
	AgreementGrant            AgreementType = "GRANT"
	AgreementDirectObligation AgreementType = "DIRECT_OBLIGATION"
	AgreementIAA              AgreementType = "IAA"
	AgreementAA               AgreementType = "AA"
)

type AgreementReason string

const (
	ReasonNewRequirement  AgreementReason = "NEW_REQ"
	ReasonRecompete       AgreementReason = "RECOMPETE"
	ReasonLogicalFollowOn AgreementReason = "LOGICAL_FOLLOW_ON"
)

type ChangeRequestType string

const (
	ChangeRequestGeneric    ChangeRequestType = "CHANGE_REQUEST"
	ChangeRequestAgreement  ChangeRequestType = "AGREEMENT_CHANGE_REQUEST"
	ChangeRequestBudgetLine ChangeRequestType = "BUDGET_LINE_ITEM_CHANGE_REQUEST"
)

type ChangeRequestStatus string

const (
	ChangeRequestInReview ChangeRequestStatus = "IN_REVIEW"
	ChangeRequestApproved ChangeRequestStatus = "APPROVED"
	ChangeRequestRejected ChangeRequestStatus = "REJECTED"
)

type ReviewAction string

const (
	ReviewApprove ReviewAction = "APPROVE"
	ReviewReject  ReviewAction = "REJECT"
)

type TrackerStatus string

const (
	TrackerActive    TrackerStatus = "ACTIVE"
	TrackerCompleted TrackerStatus = "COMPLETED"
	TrackerInactive  TrackerStatus = "INACTIVE"
)

type TrackerType string

const (
	TrackerDefault TrackerType = "DEFAULT"
)

type StepStatus string

const (
	StepPending   StepStatus = "PENDING"
	StepActive    StepStatus = "ACTIVE"
	StepCompleted StepStatus = "COMPLETED"
	StepSkipped   StepStatus = "SKIPPED"
)

type StepType string

const (
	StepAcquisitionPlanning StepType = "ACQUISITION_PLANNING"
	StepPreSolicitation     StepType = "PRE_SOLICITATION"
	StepSolicitation        StepType = "SOLICITATION"
	StepEvaluation          StepType = "EVALUATION"
	StepPreAward            StepType = "PRE_AWARD"
	StepAward               StepType = "AWARD"
)

type ProcurementActionStatus string

const (
	ActionPlanned   ProcurementActionStatus = "PLANNED"
	ActionAwarded   ProcurementActionStatus = "AWARDED"
	ActionCertified ProcurementActionStatus = "CERTIFIED"
	ActionCancelled ProcurementActionStatus = "CANCELLED"
)

type AwardType string

const (
	AwardNew AwardType = "NEW_AWARD"
	AwardMod AwardType = "MOD"
)

type Capability string

const (
	// CapabilityDirectEdit lets an actor apply budget line changes without review.
	CapabilityDirectEdit Capability = "BUDGET_LINE_DIRECT_EDIT"
	// CapabilityReviewAll lets an actor review change requests of any division.
	CapabilityReviewAll Capability = "CHANGE_REQUEST_REVIEW_ALL"
)

type HistoryEventType string

const (
	HistoryNew      HistoryEventType = "NEW"
	HistoryUpdated  HistoryEventType = "UPDATED"
	HistoryDeleted  HistoryEventType = "DELETED"
	HistoryInReview HistoryEventType = "IN_REVIEW"
	HistoryApproved HistoryEventType = "APPROVED"
	HistoryRejected HistoryEventType = "REJECTED"
)

type HistoryScope string

const (
	ScopeObject   HistoryScope = "OBJECT"
	ScopeProperty HistoryScope = "PROPERTY"
)

type OpsEventType string

const (
	EventCreateBudgetLine             OpsEventType = "CREATE_BLI"
	EventUpdateBudgetLine             OpsEventType = "UPDATE_BLI"
	EventDeleteBudgetLine             OpsEventType = "DELETE_BLI"
	EventUpdateAgreement              OpsEventType = "UPDATE_AGREEMENT"
	EventCreateChangeRequest          OpsEventType = "CREATE_CHANGE_REQUEST"
	EventUpdateChangeRequest          OpsEventType = "UPDATE_CHANGE_REQUEST"
	EventUpdateProcurementTrackerStep OpsEventType = "UPDATE_PROCUREMENT_TRACKER_STEP"
	EventUpdateProcurementTracker     OpsEventType = "UPDATE_PROCUREMENT_TRACKER"
	EventCreateProcurementTracker     OpsEventType = "CREATE_PROCUREMENT_TRACKER"
	EventCreateProcurementAction      OpsEventType = "CREATE_PROCUREMENT_ACTION"
)

type OpsEventStatus string

const (
	EventSuccess OpsEventStatus = "SUCCESS"
	EventFailed  OpsEventStatus = "FAILED"
)
