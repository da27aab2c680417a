package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/budgetops/internal/db"
	"github.com/alexanderramin/budgetops/internal/domain"
)

const trackerColumns = `id, agreement_id, tracker_type, status, active_step_number,
		procurement_action_id, created_by, created_at, updated_at`

const stepColumns = `id, tracker_id, step_number, step_type, status, step_start_date, step_completed_date,
		task_completed_by, date_completed, notes, target_completion_date, draft_solicitation_date,
		solicitation_period_start_date, solicitation_period_end_date,
		approval_requested, approval_requested_date, created_at, updated_at`

// SQLProcurementTrackerRepo implements ProcurementTrackerRepo. Trackers are
// always loaded with their steps in step order.
type SQLProcurementTrackerRepo struct {
	db db.DBTX
}

func NewSQLProcurementTrackerRepo(conn db.DBTX) *SQLProcurementTrackerRepo {
	return &SQLProcurementTrackerRepo{db: conn}
}

func (r *SQLProcurementTrackerRepo) Create(ctx context.Context, t *domain.ProcurementTracker) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO procurement_trackers (`+trackerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.AgreementID,
		string(t.TrackerType),
		string(t.Status),
		t.ActiveStepNumber,
		nullableStringValue(t.ProcurementActionID),
		t.CreatedBy,
		formatTimestamp(t.CreatedAt),
		formatTimestamp(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting procurement tracker: %w", err)
	}

	for _, s := range t.Steps {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO procurement_tracker_steps (`+stepColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.ID,
			t.ID,
			s.StepNumber,
			string(s.StepType),
			string(s.Status),
			nullableTimeToString(s.StepStartDate, dateLayout),
			nullableTimeToString(s.StepCompletedDate, dateLayout),
			nullableStringValue(s.TaskCompletedBy),
			nullableTimeToString(s.DateCompleted, dateLayout),
			s.Notes,
			nullableTimeToString(s.TargetCompletionDate, dateLayout),
			nullableTimeToString(s.DraftSolicitationDate, dateLayout),
			nullableTimeToString(s.SolicitationPeriodStartDate, dateLayout),
			nullableTimeToString(s.SolicitationPeriodEndDate, dateLayout),
			boolToInt(s.ApprovalRequested),
			nullableTimeToString(s.ApprovalRequestedDate, dateLayout),
			formatTimestamp(s.CreatedAt),
			formatTimestamp(s.UpdatedAt),
		)
		if err != nil {
			return fmt.Errorf("inserting procurement tracker step %d: %w", s.StepNumber, err)
		}
	}
	return nil
}

func (r *SQLProcurementTrackerRepo) GetByID(ctx context.Context, id string) (*domain.ProcurementTracker, error) {
	return r.get(ctx, `SELECT `+trackerColumns+` FROM procurement_trackers WHERE id = ?`, id)
}

func (r *SQLProcurementTrackerRepo) GetLatestByAgreement(ctx context.Context, agreementID string) (*domain.ProcurementTracker, error) {
	return r.get(ctx, `SELECT `+trackerColumns+` FROM procurement_trackers
		WHERE agreement_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`, agreementID)
}

func (r *SQLProcurementTrackerRepo) GetActiveByAgreementForUpdate(ctx context.Context, agreementID string) (*domain.ProcurementTracker, error) {
	return r.get(ctx, `SELECT `+trackerColumns+` FROM procurement_trackers
		WHERE agreement_id = ? AND status = 'ACTIVE'`+db.ForUpdate(r.db), agreementID)
}

func (r *SQLProcurementTrackerRepo) get(ctx context.Context, query string, arg string) (*domain.ProcurementTracker, error) {
	t, err := scanTracker(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, notFound(err, "procurement tracker")
	}
	if t.Steps, err = r.listSteps(ctx, t.ID); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *SQLProcurementTrackerRepo) Update(ctx context.Context, t *domain.ProcurementTracker) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE procurement_trackers SET status = ?, active_step_number = ?, procurement_action_id = ?, updated_at = ?
		WHERE id = ?`,
		string(t.Status),
		t.ActiveStepNumber,
		nullableStringValue(t.ProcurementActionID),
		formatTimestamp(t.UpdatedAt),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating procurement tracker: %w", err)
	}
	return nil
}

func (r *SQLProcurementTrackerRepo) GetStep(ctx context.Context, stepID string) (*domain.ProcurementTrackerStep, error) {
	s, err := scanStep(r.db.QueryRowContext(ctx,
		`SELECT `+stepColumns+` FROM procurement_tracker_steps WHERE id = ?`, stepID))
	if err != nil {
		return nil, notFound(err, "procurement tracker step")
	}
	return s, nil
}

func (r *SQLProcurementTrackerRepo) GetStepForUpdate(ctx context.Context, stepID string) (*domain.ProcurementTrackerStep, error) {
	s, err := scanStep(r.db.QueryRowContext(ctx,
		`SELECT `+stepColumns+` FROM procurement_tracker_steps WHERE id = ?`+db.ForUpdate(r.db), stepID))
	if err != nil {
		return nil, notFound(err, "procurement tracker step")
	}
	return s, nil
}

func (r *SQLProcurementTrackerRepo) UpdateStep(ctx context.Context, s *domain.ProcurementTrackerStep) error {
	query := `UPDATE procurement_tracker_steps SET status = ?, step_start_date = ?, step_completed_date = ?,
		task_completed_by = ?, date_completed = ?, notes = ?, target_completion_date = ?,
		draft_solicitation_date = ?, solicitation_period_start_date = ?, solicitation_period_end_date = ?,
		approval_requested = ?, approval_requested_date = ?, updated_at = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		string(s.Status),
		nullableTimeToString(s.StepStartDate, dateLayout),
		nullableTimeToString(s.StepCompletedDate, dateLayout),
		nullableStringValue(s.TaskCompletedBy),
		nullableTimeToString(s.DateCompleted, dateLayout),
		s.Notes,
		nullableTimeToString(s.TargetCompletionDate, dateLayout),
		nullableTimeToString(s.DraftSolicitationDate, dateLayout),
		nullableTimeToString(s.SolicitationPeriodStartDate, dateLayout),
		nullableTimeToString(s.SolicitationPeriodEndDate, dateLayout),
		boolToInt(s.ApprovalRequested),
		nullableTimeToString(s.ApprovalRequestedDate, dateLayout),
		formatTimestamp(s.UpdatedAt),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("updating procurement tracker step: %w", err)
	}
	return nil
}

func (r *SQLProcurementTrackerRepo) listSteps(ctx context.Context, trackerID string) ([]*domain.ProcurementTrackerStep, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+stepColumns+` FROM procurement_tracker_steps WHERE tracker_id = ? ORDER BY step_number`, trackerID)
	if err != nil {
		return nil, fmt.Errorf("listing procurement tracker steps: %w", err)
	}
	defer rows.Close()

	var steps []*domain.ProcurementTrackerStep
	for rows.Next() {
		s, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning procurement tracker step row: %w", err)
		}
		steps = append(steps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating procurement tracker steps: %w", err)
	}
	return steps, nil
}

func scanTracker(s rowScanner) (*domain.ProcurementTracker, error) {
	var t domain.ProcurementTracker
	var typ, status, createdAt, updatedAt string
	var actionID sql.NullString

	err := s.Scan(&t.ID, &t.AgreementID, &typ, &status, &t.ActiveStepNumber,
		&actionID, &t.CreatedBy, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	t.TrackerType = domain.TrackerType(typ)
	t.Status = domain.TrackerStatus(status)
	t.ProcurementActionID = nullableString(actionID)
	if t.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTimestamp("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func scanStep(s rowScanner) (*domain.ProcurementTrackerStep, error) {
	var st domain.ProcurementTrackerStep
	var typ, status, createdAt, updatedAt string
	var start, completed, completedBy, dateCompleted, target, draft, solStart, solEnd, approvalDate sql.NullString
	var approval int

	err := s.Scan(
		&st.ID, &st.TrackerID, &st.StepNumber, &typ, &status, &start, &completed,
		&completedBy, &dateCompleted, &st.Notes, &target, &draft,
		&solStart, &solEnd,
		&approval, &approvalDate, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	st.StepType = domain.StepType(typ)
	st.Status = domain.StepStatus(status)
	st.StepStartDate = parseNullableTime(start, dateLayout)
	st.StepCompletedDate = parseNullableTime(completed, dateLayout)
	st.TaskCompletedBy = nullableString(completedBy)
	st.DateCompleted = parseNullableTime(dateCompleted, dateLayout)
	st.TargetCompletionDate = parseNullableTime(target, dateLayout)
	st.DraftSolicitationDate = parseNullableTime(draft, dateLayout)
	st.SolicitationPeriodStartDate = parseNullableTime(solStart, dateLayout)
	st.SolicitationPeriodEndDate = parseNullableTime(solEnd, dateLayout)
	st.ApprovalRequested = intToBool(approval)
	st.ApprovalRequestedDate = parseNullableTime(approvalDate, dateLayout)

	if st.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return nil, err
	}
	if st.UpdatedAt, err = parseTimestamp("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &st, nil
}

const actionColumns = `id, agreement_id, award_type, status, date_awarded_obligated, created_by, created_at, updated_at`

// SQLProcurementActionRepo implements ProcurementActionRepo.
type SQLProcurementActionRepo struct {
	db db.DBTX
}

func NewSQLProcurementActionRepo(conn db.DBTX) *SQLProcurementActionRepo {
	return &SQLProcurementActionRepo{db: conn}
}

func (r *SQLProcurementActionRepo) Create(ctx context.Context, a *domain.ProcurementAction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO procurement_actions (`+actionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.AgreementID,
		string(a.AwardType),
		string(a.Status),
		nullableTimeToString(a.DateAwardedObligated, dateLayout),
		a.CreatedBy,
		formatTimestamp(a.CreatedAt),
		formatTimestamp(a.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting procurement action: %w", err)
	}
	return nil
}

func (r *SQLProcurementActionRepo) GetByID(ctx context.Context, id string) (*domain.ProcurementAction, error) {
	a, err := scanAction(r.db.QueryRowContext(ctx,
		`SELECT `+actionColumns+` FROM procurement_actions WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "procurement action")
	}
	return a, nil
}

func (r *SQLProcurementActionRepo) GetOpenNewAwardByAgreementForUpdate(ctx context.Context, agreementID string) (*domain.ProcurementAction, error) {
	a, err := scanAction(r.db.QueryRowContext(ctx,
		`SELECT `+actionColumns+` FROM procurement_actions
		WHERE agreement_id = ? AND award_type = 'NEW_AWARD' AND status IN ('PLANNED','AWARDED')`+db.ForUpdate(r.db),
		agreementID))
	if err != nil {
		return nil, notFound(err, "procurement action")
	}
	return a, nil
}

func (r *SQLProcurementActionRepo) HasAwarded(ctx context.Context, agreementID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM procurement_actions
		WHERE agreement_id = ? AND award_type = 'NEW_AWARD' AND status IN ('AWARDED','CERTIFIED')`,
		agreementID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("counting awarded actions: %w", err)
	}
	return n > 0, nil
}

func (r *SQLProcurementActionRepo) Update(ctx context.Context, a *domain.ProcurementAction) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE procurement_actions SET status = ?, date_awarded_obligated = ?, updated_at = ? WHERE id = ?`,
		string(a.Status),
		nullableTimeToString(a.DateAwardedObligated, dateLayout),
		formatTimestamp(a.UpdatedAt),
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("updating procurement action: %w", err)
	}
	return nil
}

func scanAction(s rowScanner) (*domain.ProcurementAction, error) {
	var a domain.ProcurementAction
	var awardType, status, createdAt, updatedAt string
	var awarded sql.NullString

	err := s.Scan(&a.ID, &a.AgreementID, &awardType, &status, &awarded, &a.CreatedBy, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	a.AwardType = domain.AwardType(awardType)
	a.Status = domain.ProcurementActionStatus(status)
	a.DateAwardedObligated = parseNullableTime(awarded, dateLayout)
	if a.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTimestamp("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
