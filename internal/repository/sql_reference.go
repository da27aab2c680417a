package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/alexanderramin/budgetops/internal/db"
	"github.com/alexanderramin/budgetops/internal/domain"
	"github.com/shopspring/decimal"
)

// SQLUserRepo implements UserRepo.
type SQLUserRepo struct {
	db db.DBTX
}

func NewSQLUserRepo(conn db.DBTX) *SQLUserRepo {
	return &SQLUserRepo{db: conn}
}

func (r *SQLUserRepo) Create(ctx context.Context, u *domain.User) error {
	caps := make([]string, 0, len(u.Capabilities))
	for _, c := range u.Capabilities {
		caps = append(caps, string(c))
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, full_name, email, capabilities, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.FullName, u.Email, strings.Join(caps, ","), formatTimestamp(u.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (r *SQLUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, full_name, email, capabilities, created_at FROM users WHERE id = ?`, id)

	var u domain.User
	var caps, createdAt string
	if err := row.Scan(&u.ID, &u.FullName, &u.Email, &caps, &createdAt); err != nil {
		return nil, notFound(err, "user")
	}
	for _, c := range strings.Split(caps, ",") {
		if c = strings.TrimSpace(c); c != "" {
			u.Capabilities = append(u.Capabilities, domain.Capability(c))
		}
	}
	var err error
	if u.CreatedAt, err = parseTimestamp("created_at", createdAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// SQLDivisionRepo implements DivisionRepo.
type SQLDivisionRepo struct {
	db db.DBTX
}

func NewSQLDivisionRepo(conn db.DBTX) *SQLDivisionRepo {
	return &SQLDivisionRepo{db: conn}
}

const divisionColumns = `id, name, abbreviation, director_id, deputy_director_id`

func (r *SQLDivisionRepo) Create(ctx context.Context, d *domain.Division) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO divisions (`+divisionColumns+`) VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.Abbreviation,
		nullableStringValue(d.DirectorID), nullableStringValue(d.DeputyDirectorID),
	)
	if err != nil {
		return fmt.Errorf("inserting division: %w", err)
	}
	return nil
}

func (r *SQLDivisionRepo) GetByID(ctx context.Context, id string) (*domain.Division, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+divisionColumns+` FROM divisions WHERE id = ?`, id)
	d, err := scanDivision(row)
	if err != nil {
		return nil, notFound(err, "division")
	}
	return d, nil
}

func (r *SQLDivisionRepo) ListLedBy(ctx context.Context, userID string) ([]*domain.Division, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+divisionColumns+` FROM divisions
		WHERE director_id = ? OR deputy_director_id = ? ORDER BY name`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("listing divisions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Division
	for rows.Next() {
		d, err := scanDivision(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning division row: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating divisions: %w", err)
	}
	return out, nil
}

func scanDivision(s rowScanner) (*domain.Division, error) {
	var d domain.Division
	var director, deputy sql.NullString
	if err := s.Scan(&d.ID, &d.Name, &d.Abbreviation, &director, &deputy); err != nil {
		return nil, err
	}
	d.DirectorID = nullableString(director)
	d.DeputyDirectorID = nullableString(deputy)
	return &d, nil
}

// SQLCANRepo implements CANRepo.
type SQLCANRepo struct {
	db db.DBTX
}

func NewSQLCANRepo(conn db.DBTX) *SQLCANRepo {
	return &SQLCANRepo{db: conn}
}

func (r *SQLCANRepo) Create(ctx context.Context, c *domain.CAN) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cans (id, number, division_id) VALUES (?, ?, ?)`,
		c.ID, c.Number, nullableStringValue(c.DivisionID),
	)
	if err != nil {
		return fmt.Errorf("inserting can: %w", err)
	}
	return nil
}

func (r *SQLCANRepo) GetByID(ctx context.Context, id string) (*domain.CAN, error) {
	var c domain.CAN
	var division sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT id, number, division_id FROM cans WHERE id = ?`, id).
		Scan(&c.ID, &c.Number, &division)
	if err != nil {
		return nil, notFound(err, "can")
	}
	c.DivisionID = nullableString(division)
	return &c, nil
}

func (r *SQLCANRepo) Update(ctx context.Context, c *domain.CAN) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE cans SET number = ?, division_id = ? WHERE id = ?`,
		c.Number, nullableStringValue(c.DivisionID), c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating can: %w", err)
	}
	return nil
}

// SQLProcurementShopRepo implements ProcurementShopRepo.
type SQLProcurementShopRepo struct {
	db db.DBTX
}

func NewSQLProcurementShopRepo(conn db.DBTX) *SQLProcurementShopRepo {
	return &SQLProcurementShopRepo{db: conn}
}

func (r *SQLProcurementShopRepo) CreateShop(ctx context.Context, s *domain.ProcurementShop) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO procurement_shops (id, name, abbr) VALUES (?, ?, ?)`, s.ID, s.Name, s.Abbr)
	if err != nil {
		return fmt.Errorf("inserting procurement shop: %w", err)
	}
	return nil
}

func (r *SQLProcurementShopRepo) CreateFee(ctx context.Context, f *domain.ProcurementShopFee) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO procurement_shop_fees (id, procurement_shop_id, fee) VALUES (?, ?, ?)`,
		f.ID, f.ProcurementShopID, f.Fee.String())
	if err != nil {
		return fmt.Errorf("inserting procurement shop fee: %w", err)
	}
	return nil
}

func (r *SQLProcurementShopRepo) GetShopByID(ctx context.Context, id string) (*domain.ProcurementShop, error) {
	var s domain.ProcurementShop
	err := r.db.QueryRowContext(ctx, `SELECT id, name, abbr FROM procurement_shops WHERE id = ?`, id).
		Scan(&s.ID, &s.Name, &s.Abbr)
	if err != nil {
		return nil, notFound(err, "procurement shop")
	}
	return &s, nil
}

func (r *SQLProcurementShopRepo) GetFeeByID(ctx context.Context, id string) (*domain.ProcurementShopFee, error) {
	var f domain.ProcurementShopFee
	var fee string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, procurement_shop_id, fee FROM procurement_shop_fees WHERE id = ?`, id).
		Scan(&f.ID, &f.ProcurementShopID, &fee)
	if err != nil {
		return nil, notFound(err, "procurement shop fee")
	}
	if f.Fee, err = decimal.NewFromString(fee); err != nil {
		return nil, fmt.Errorf("parsing fee: %w", err)
	}
	return &f, nil
}

// SQLServicesComponentRepo implements ServicesComponentRepo.
type SQLServicesComponentRepo struct {
	db db.DBTX
}

func NewSQLServicesComponentRepo(conn db.DBTX) *SQLServicesComponentRepo {
	return &SQLServicesComponentRepo{db: conn}
}

func (r *SQLServicesComponentRepo) Create(ctx context.Context, sc *domain.ServicesComponent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO services_components (id, agreement_id, number, optional, description) VALUES (?, ?, ?, ?, ?)`,
		sc.ID, sc.AgreementID, sc.Number, boolToInt(sc.Optional), sc.Description)
	if err != nil {
		return fmt.Errorf("inserting services component: %w", err)
	}
	return nil
}

func (r *SQLServicesComponentRepo) GetByID(ctx context.Context, id string) (*domain.ServicesComponent, error) {
	var sc domain.ServicesComponent
	var optional int
	err := r.db.QueryRowContext(ctx,
		`SELECT id, agreement_id, number, optional, description FROM services_components WHERE id = ?`, id).
		Scan(&sc.ID, &sc.AgreementID, &sc.Number, &optional, &sc.Description)
	if err != nil {
		return nil, notFound(err, "services component")
	}
	sc.Optional = intToBool(optional)
	return &sc, nil
}
