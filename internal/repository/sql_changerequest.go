package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/alexanderramin/budgetops/internal/db"
	"github.com/alexanderramin/budgetops/internal/domain"
)

// changeRequestColumns is the canonical SELECT column list for change_requests.
const changeRequestColumns = `id, change_request_type, status, agreement_id, budget_line_item_id, field_group,
		requested_change_data, requested_change_diff, requestor_notes, reviewer_notes,
		managing_division_id, created_by, reviewed_by, reviewed_on, created_at, updated_at`

// SQLChangeRequestRepo implements ChangeRequestRepo. Requested data and diffs
// are stored as JSON documents.
type SQLChangeRequestRepo struct {
	db db.DBTX
}

func NewSQLChangeRequestRepo(conn db.DBTX) *SQLChangeRequestRepo {
	return &SQLChangeRequestRepo{db: conn}
}

func (r *SQLChangeRequestRepo) Create(ctx context.Context, cr *domain.ChangeRequest) error {
	data, err := json.Marshal(cr.RequestedChangeData)
	if err != nil {
		return fmt.Errorf("encoding requested change data: %w", err)
	}
	diff, err := json.Marshal(cr.RequestedChangeDiff)
	if err != nil {
		return fmt.Errorf("encoding requested change diff: %w", err)
	}

	query := `INSERT INTO change_requests (` + changeRequestColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		cr.ID,
		string(cr.Type),
		string(cr.Status),
		nullableStringValue(cr.AgreementID),
		nullableStringValue(cr.BudgetLineItemID),
		cr.FieldGroup,
		string(data),
		string(diff),
		cr.RequestorNotes,
		cr.ReviewerNotes,
		nullableStringValue(cr.ManagingDivisionID),
		cr.CreatedBy,
		nullableStringValue(cr.ReviewedBy),
		nullableTimeToString(cr.ReviewedOn, timestampLayout),
		formatTimestamp(cr.CreatedAt),
		formatTimestamp(cr.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting change request: %w", err)
	}
	return nil
}

func (r *SQLChangeRequestRepo) GetByID(ctx context.Context, id string) (*domain.ChangeRequest, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+changeRequestColumns+` FROM change_requests WHERE id = ?`, id)
	cr, err := scanChangeRequest(row)
	if err != nil {
		return nil, notFound(err, "change request")
	}
	return cr, nil
}

func (r *SQLChangeRequestRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.ChangeRequest, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+changeRequestColumns+` FROM change_requests WHERE id = ?`+db.ForUpdate(r.db), id)
	cr, err := scanChangeRequest(row)
	if err != nil {
		return nil, notFound(err, "change request")
	}
	return cr, nil
}

func (r *SQLChangeRequestRepo) Review(ctx context.Context, cr *domain.ChangeRequest) error {
	query := `UPDATE change_requests SET status = ?, reviewer_notes = ?, reviewed_by = ?, reviewed_on = ?, updated_at = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		string(cr.Status),
		cr.ReviewerNotes,
		nullableStringValue(cr.ReviewedBy),
		nullableTimeToString(cr.ReviewedOn, timestampLayout),
		formatTimestamp(cr.UpdatedAt),
		cr.ID,
	)
	if err != nil {
		return fmt.Errorf("reviewing change request: %w", err)
	}
	return nil
}

func (r *SQLChangeRequestRepo) ListOpenByBudgetLine(ctx context.Context, budgetLineID string) ([]*domain.ChangeRequest, error) {
	return r.list(ctx, `SELECT `+changeRequestColumns+` FROM change_requests
		WHERE budget_line_item_id = ? AND status = 'IN_REVIEW' ORDER BY created_at, id`, budgetLineID)
}

func (r *SQLChangeRequestRepo) ListOpenByAgreement(ctx context.Context, agreementID string) ([]*domain.ChangeRequest, error) {
	return r.list(ctx, `SELECT `+changeRequestColumns+` FROM change_requests
		WHERE agreement_id = ? AND budget_line_item_id IS NULL AND status = 'IN_REVIEW' ORDER BY created_at, id`,
		agreementID)
}

func (r *SQLChangeRequestRepo) ListInReview(ctx context.Context, divisionIDs []string) ([]*domain.ChangeRequest, error) {
	if divisionIDs == nil {
		return r.list(ctx, `SELECT `+changeRequestColumns+` FROM change_requests
			WHERE status = 'IN_REVIEW' ORDER BY created_at, id`)
	}
	if len(divisionIDs) == 0 {
		return nil, nil
	}
	args := make([]any, len(divisionIDs))
	for i, id := range divisionIDs {
		args[i] = id
	}
	return r.list(ctx, `SELECT `+changeRequestColumns+` FROM change_requests
		WHERE status = 'IN_REVIEW' AND managing_division_id IN (`+placeholders(len(args))+`)
		ORDER BY created_at, id`, args...)
}

func (r *SQLChangeRequestRepo) DeleteByBudgetLine(ctx context.Context, budgetLineID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM change_requests WHERE budget_line_item_id = ?`, budgetLineID)
	if err != nil {
		return fmt.Errorf("deleting change requests: %w", err)
	}
	return nil
}

func (r *SQLChangeRequestRepo) list(ctx context.Context, query string, args ...any) ([]*domain.ChangeRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing change requests: %w", err)
	}
	defer rows.Close()

	var out []*domain.ChangeRequest
	for rows.Next() {
		cr, err := scanChangeRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning change request row: %w", err)
		}
		out = append(out, cr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating change requests: %w", err)
	}
	return out, nil
}

func scanChangeRequest(s rowScanner) (*domain.ChangeRequest, error) {
	var cr domain.ChangeRequest
	var typ, status, data, diff, createdAt, updatedAt string
	var agreementID, bliID, divisionID, reviewedBy, reviewedOn sql.NullString

	err := s.Scan(
		&cr.ID, &typ, &status, &agreementID, &bliID, &cr.FieldGroup,
		&data, &diff, &cr.RequestorNotes, &cr.ReviewerNotes,
		&divisionID, &cr.CreatedBy, &reviewedBy, &reviewedOn, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	cr.Type = domain.ChangeRequestType(typ)
	cr.Status = domain.ChangeRequestStatus(status)
	cr.AgreementID = nullableString(agreementID)
	cr.BudgetLineItemID = nullableString(bliID)
	cr.ManagingDivisionID = nullableString(divisionID)
	cr.ReviewedBy = nullableString(reviewedBy)
	cr.ReviewedOn = parseNullableTime(reviewedOn, timestampLayout)

	if err := json.Unmarshal([]byte(data), &cr.RequestedChangeData); err != nil {
		return nil, fmt.Errorf("decoding requested change data: %w", err)
	}
	if err := json.Unmarshal([]byte(diff), &cr.RequestedChangeDiff); err != nil {
		return nil, fmt.Errorf("decoding requested change diff: %w", err)
	}
	if cr.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return nil, err
	}
	if cr.UpdatedAt, err = parseTimestamp("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &cr, nil
}

