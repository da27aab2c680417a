package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/budgetops/internal/db"
	"github.com/alexanderramin/budgetops/internal/domain"
)

// agreementColumns is the canonical SELECT column list for agreements.
const agreementColumns = `id, agreement_type, name, description, project_id, product_service_code_id,
		awarding_entity_id, agreement_reason, project_officer_id, vendor, created_at, updated_at`

// SQLAgreementRepo implements AgreementRepo.
type SQLAgreementRepo struct {
	db db.DBTX
}

func NewSQLAgreementRepo(conn db.DBTX) *SQLAgreementRepo {
	return &SQLAgreementRepo{db: conn}
}

func (r *SQLAgreementRepo) Create(ctx context.Context, a *domain.Agreement) error {
	query := `INSERT INTO agreements (` + agreementColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		string(a.Type),
		a.Name,
		a.Description,
		nullableStringValue(a.ProjectID),
		nullableStringValue(a.ProductServiceCodeID),
		nullableStringValue(a.AwardingEntityID),
		reasonValue(a.AgreementReason),
		nullableStringValue(a.ProjectOfficerID),
		nullableStringValue(a.Vendor),
		formatTimestamp(a.CreatedAt),
		formatTimestamp(a.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting agreement: %w", err)
	}
	for _, userID := range a.TeamMemberIDs {
		if err := r.AddTeamMember(ctx, a.ID, userID); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLAgreementRepo) GetByID(ctx context.Context, id string) (*domain.Agreement, error) {
	return r.get(ctx, `SELECT `+agreementColumns+` FROM agreements WHERE id = ?`, id)
}

func (r *SQLAgreementRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Agreement, error) {
	return r.get(ctx, `SELECT `+agreementColumns+` FROM agreements WHERE id = ?`+db.ForUpdate(r.db), id)
}

func (r *SQLAgreementRepo) get(ctx context.Context, query, id string) (*domain.Agreement, error) {
	a, err := scanAgreement(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "agreement")
	}
	if a.TeamMemberIDs, err = r.listTeamMembers(ctx, a.ID); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *SQLAgreementRepo) Update(ctx context.Context, a *domain.Agreement) error {
	query := `UPDATE agreements SET name = ?, description = ?, project_id = ?, product_service_code_id = ?,
		awarding_entity_id = ?, agreement_reason = ?, project_officer_id = ?, vendor = ?, updated_at = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		a.Name,
		a.Description,
		nullableStringValue(a.ProjectID),
		nullableStringValue(a.ProductServiceCodeID),
		nullableStringValue(a.AwardingEntityID),
		reasonValue(a.AgreementReason),
		nullableStringValue(a.ProjectOfficerID),
		nullableStringValue(a.Vendor),
		formatTimestamp(a.UpdatedAt),
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("updating agreement: %w", err)
	}
	return nil
}

func (r *SQLAgreementRepo) AddTeamMember(ctx context.Context, agreementID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO agreement_team_members (agreement_id, user_id) VALUES (?, ?)`, agreementID, userID)
	if err != nil {
		return fmt.Errorf("adding team member: %w", err)
	}
	return nil
}

func (r *SQLAgreementRepo) listTeamMembers(ctx context.Context, agreementID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id FROM agreement_team_members WHERE agreement_id = ? ORDER BY user_id`, agreementID)
	if err != nil {
		return nil, fmt.Errorf("listing team members: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning team member: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating team members: %w", err)
	}
	return ids, nil
}

func scanAgreement(s rowScanner) (*domain.Agreement, error) {
	var a domain.Agreement
	var typ, createdAt, updatedAt string
	var project, psc, awarding, reason, officer, vendor sql.NullString

	err := s.Scan(
		&a.ID, &typ, &a.Name, &a.Description, &project, &psc,
		&awarding, &reason, &officer, &vendor, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Type = domain.AgreementType(typ)
	a.ProjectID = nullableString(project)
	a.ProductServiceCodeID = nullableString(psc)
	a.AwardingEntityID = nullableString(awarding)
	if reason.Valid {
		r := domain.AgreementReason(reason.String)
		a.AgreementReason = &r
	}
	a.ProjectOfficerID = nullableString(officer)
	a.Vendor = nullableString(vendor)

	if a.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTimestamp("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func reasonValue(r *domain.AgreementReason) any {
	if r == nil {
		return nil
	}
	return string(*r)
}
