package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/budgetops/internal/db"
	"github.com/alexanderramin/budgetops/internal/domain"
)

// budgetLineColumns is the canonical SELECT column list for budget_line_items.
const budgetLineColumns = `id, agreement_id, can_id, amount, status, date_needed,
		services_component_id, procurement_shop_fee_id, procurement_action_id,
		line_description, comments, is_obe, created_by, created_at, updated_at`

// SQLBudgetLineRepo implements BudgetLineRepo.
type SQLBudgetLineRepo struct {
	db db.DBTX
}

func NewSQLBudgetLineRepo(conn db.DBTX) *SQLBudgetLineRepo {
	return &SQLBudgetLineRepo{db: conn}
}

func (r *SQLBudgetLineRepo) Create(ctx context.Context, b *domain.BudgetLineItem) error {
	query := `INSERT INTO budget_line_items (` + budgetLineColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		b.ID,
		b.AgreementID,
		nullableStringValue(b.CANID),
		nullableDecimalValue(b.Amount),
		string(b.Status),
		nullableTimeToString(b.DateNeeded, dateLayout),
		nullableStringValue(b.ServicesComponentID),
		nullableStringValue(b.ProcurementShopFeeID),
		nullableStringValue(b.ProcurementActionID),
		b.LineDescription,
		b.Comments,
		boolToInt(b.IsObe),
		b.CreatedBy,
		formatTimestamp(b.CreatedAt),
		formatTimestamp(b.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting budget line item: %w", err)
	}
	return nil
}

func (r *SQLBudgetLineRepo) GetByID(ctx context.Context, id string) (*domain.BudgetLineItem, error) {
	return r.get(ctx, `SELECT `+budgetLineColumns+` FROM budget_line_items WHERE id = ?`, id)
}

func (r *SQLBudgetLineRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.BudgetLineItem, error) {
	return r.get(ctx, `SELECT `+budgetLineColumns+` FROM budget_line_items WHERE id = ?`+db.ForUpdate(r.db), id)
}

func (r *SQLBudgetLineRepo) get(ctx context.Context, query, id string) (*domain.BudgetLineItem, error) {
	b, err := scanBudgetLine(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "budget line item")
	}
	if b.InReview, err = r.hasOpenChangeRequest(ctx, b.ID); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *SQLBudgetLineRepo) ListByAgreement(ctx context.Context, agreementID string) ([]*domain.BudgetLineItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+budgetLineColumns+` FROM budget_line_items WHERE agreement_id = ? ORDER BY created_at, id`,
		agreementID)
	if err != nil {
		return nil, fmt.Errorf("listing budget line items: %w", err)
	}
	defer rows.Close()

	var items []*domain.BudgetLineItem
	for rows.Next() {
		b, err := scanBudgetLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning budget line item row: %w", err)
		}
		items = append(items, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating budget line items: %w", err)
	}
	return items, nil
}

func (r *SQLBudgetLineRepo) Update(ctx context.Context, b *domain.BudgetLineItem) error {
	query := `UPDATE budget_line_items SET can_id = ?, amount = ?, status = ?, date_needed = ?,
		services_component_id = ?, procurement_shop_fee_id = ?, procurement_action_id = ?,
		line_description = ?, comments = ?, is_obe = ?, updated_at = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		nullableStringValue(b.CANID),
		nullableDecimalValue(b.Amount),
		string(b.Status),
		nullableTimeToString(b.DateNeeded, dateLayout),
		nullableStringValue(b.ServicesComponentID),
		nullableStringValue(b.ProcurementShopFeeID),
		nullableStringValue(b.ProcurementActionID),
		b.LineDescription,
		b.Comments,
		boolToInt(b.IsObe),
		formatTimestamp(b.UpdatedAt),
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("updating budget line item: %w", err)
	}
	return nil
}

func (r *SQLBudgetLineRepo) LinkProcurementAction(ctx context.Context, id, actionID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE budget_line_items SET procurement_action_id = ? WHERE id = ?`, actionID, id)
	if err != nil {
		return fmt.Errorf("linking procurement action: %w", err)
	}
	return nil
}

func (r *SQLBudgetLineRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM budget_line_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting budget line item: %w", err)
	}
	return nil
}

func (r *SQLBudgetLineRepo) hasOpenChangeRequest(ctx context.Context, id string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM change_requests WHERE budget_line_item_id = ? AND status = 'IN_REVIEW'`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("counting open change requests: %w", err)
	}
	return n > 0, nil
}

func scanBudgetLine(s rowScanner) (*domain.BudgetLineItem, error) {
	var b domain.BudgetLineItem
	var status, createdAt, updatedAt string
	var canID, amount, dateNeeded, scID, feeID, actionID sql.NullString
	var isObe int

	err := s.Scan(
		&b.ID, &b.AgreementID, &canID, &amount, &status, &dateNeeded,
		&scID, &feeID, &actionID,
		&b.LineDescription, &b.Comments, &isObe, &b.CreatedBy, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	return populateBudgetLine(&b, status, canID, amount, dateNeeded, scID, feeID, actionID, isObe, createdAt, updatedAt)
}

// populateBudgetLine fills in parsed fields after scanning raw values.
func populateBudgetLine(
	b *domain.BudgetLineItem,
	status string,
	canID, amount, dateNeeded, scID, feeID, actionID sql.NullString,
	isObe int,
	createdAt, updatedAt string,
) (*domain.BudgetLineItem, error) {
	b.Status = domain.BudgetLineStatus(status)
	b.CANID = nullableString(canID)
	b.DateNeeded = parseNullableTime(dateNeeded, dateLayout)
	b.ServicesComponentID = nullableString(scID)
	b.ProcurementShopFeeID = nullableString(feeID)
	b.ProcurementActionID = nullableString(actionID)
	b.IsObe = intToBool(isObe)

	var err error
	if b.Amount, err = nullableDecimal(amount); err != nil {
		return nil, err
	}
	if b.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTimestamp("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return b, nil
}
