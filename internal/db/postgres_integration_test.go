//go:build integration

package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/budgetops/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("budgetops"),
		postgres.WithUsername("budgetops"),
		postgres.WithPassword("budgetops"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestPostgres_MigrateIsIdempotent(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	database, err := db.OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, db.Migrate(ctx, database), "second migration run should be a no-op")
}

func TestPostgres_UniqueViolationAndRowLocks(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	database, err := db.OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	defer database.Close()

	uow := db.NewPostgresUnitOfWork(database)
	now := time.Now().UTC().Format(time.RFC3339)

	err = uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		assert.Equal(t, " FOR UPDATE", db.ForUpdate(tx))
		_, err := tx.ExecContext(ctx, `INSERT INTO agreements (id, agreement_type, name, created_at, updated_at)
			VALUES (?, 'CONTRACT', 'pg', ?, ?)`, "a1", now, now)
		if err != nil {
			return err
		}
		for _, id := range []string{"t1", "t2"} {
			_, err = tx.ExecContext(ctx, `INSERT INTO procurement_trackers
				(id, agreement_id, tracker_type, status, active_step_number, created_at, updated_at)
				VALUES (?, 'a1', 'DEFAULT', 'ACTIVE', 1, ?, ?)`, id, now, now)
			if err != nil {
				return err
			}
		}
		return nil
	})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err))
}
