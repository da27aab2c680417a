package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/alexanderramin/budgetops/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ts = "2030-06-15T10:30:00Z"

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func insertAgreement(ctx context.Context, tx db.DBTX, id string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO agreements (id, agreement_type, name, created_at, updated_at) VALUES (?, 'CONTRACT', ?, ?, ?)`,
		id, "Agreement "+id, ts, ts)
	return err
}

func insertTracker(ctx context.Context, tx db.DBTX, id, agreementID, status string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO procurement_trackers (id, agreement_id, tracker_type, status, active_step_number, created_at, updated_at)
		 VALUES (?, ?, 'DEFAULT', ?, 1, ?, ?)`,
		id, agreementID, status, ts, ts)
	return err
}

func agreementExists(t *testing.T, database *sql.DB, id string) bool {
	t.Helper()
	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM agreements WHERE id = ?`, id).Scan(&n))
	return n == 1
}

func TestWithinTx(t *testing.T) {
	boom := errors.New("late write failed")
	tests := []struct {
		name    string
		fn      func(ctx context.Context, tx db.DBTX) error
		wantErr error
		kept    bool
	}{
		{
			name: "commits on success",
			fn: func(ctx context.Context, tx db.DBTX) error {
				return insertAgreement(ctx, tx, "a1")
			},
			kept: true,
		},
		{
			name: "rolls back on error",
			fn: func(ctx context.Context, tx db.DBTX) error {
				if err := insertAgreement(ctx, tx, "a1"); err != nil {
					return err
				}
				return boom
			},
			wantErr: boom,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			database := openTestDB(t)
			err := db.NewSQLiteUnitOfWork(database).WithinTx(context.Background(), tt.fn)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.kept, agreementExists(t, database, "a1"))
		})
	}
}

func TestWithinTx_RollsBackAndRepanics(t *testing.T) {
	database := openTestDB(t)

	assert.PanicsWithValue(t, "boom", func() {
		_ = db.NewSQLiteUnitOfWork(database).WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
			_ = insertAgreement(ctx, tx, "a1")
			panic("boom")
		})
	})
	assert.False(t, agreementExists(t, database, "a1"))
}

func TestWithinSavepoint_UndoesOnlyInnerWork(t *testing.T) {
	database := openTestDB(t)
	inner := errors.New("inner failure")

	err := db.NewSQLiteUnitOfWork(database).WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if err := insertAgreement(ctx, tx, "outer"); err != nil {
			return err
		}
		spErr := db.WithinSavepoint(ctx, tx, "reconcile_procurement", func() error {
			if err := insertAgreement(ctx, tx, "inner"); err != nil {
				return err
			}
			return inner
		})
		assert.ErrorIs(t, spErr, inner)
		// The enclosing transaction stays usable after the rollback.
		return insertAgreement(ctx, tx, "after")
	})
	require.NoError(t, err)

	assert.True(t, agreementExists(t, database, "outer"))
	assert.False(t, agreementExists(t, database, "inner"))
	assert.True(t, agreementExists(t, database, "after"))
}

func TestWithinSavepoint_KeepsWorkOnSuccess(t *testing.T) {
	database := openTestDB(t)

	err := db.NewSQLiteUnitOfWork(database).WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		return db.WithinSavepoint(ctx, tx, "sp", func() error {
			return insertAgreement(ctx, tx, "a1")
		})
	})
	require.NoError(t, err)
	assert.True(t, agreementExists(t, database, "a1"))
}

func TestIsUniqueViolation_SecondActiveTracker(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	uow := db.NewSQLiteUnitOfWork(database)
	require.NoError(t, uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := insertAgreement(ctx, tx, "a1"); err != nil {
			return err
		}
		if err := insertTracker(ctx, tx, "t1", "a1", "ACTIVE"); err != nil {
			return err
		}
		// Inactive trackers do not count against the active one.
		return insertTracker(ctx, tx, "t0", "a1", "INACTIVE")
	}))

	err := uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return insertTracker(ctx, tx, "t2", "a1", "ACTIVE")
	})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err))
	assert.False(t, db.IsUniqueViolation(errors.New("some other failure")))
	assert.False(t, db.IsUniqueViolation(nil))
}
