package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/alexanderramin/budgetops/internal/db"
)

// FailOnNthExecUoW returns Err from the Nth write (ExecContext, counted from
// 1) of each transaction. Reads pass through. Use it to prove a multi-write
// operation leaves nothing behind when a late write fails.
type FailOnNthExecUoW struct {
	DB     *sql.DB
	FailOn int32
	Err    error
}

func (u *FailOnNthExecUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	return runWrapped(ctx, u.DB, func(tx db.DBTX) db.DBTX {
		return &failOnNthExec{DBTX: tx, failOn: u.FailOn, err: u.Err}
	}, fn)
}

type failOnNthExec struct {
	db.DBTX
	count  atomic.Int32
	failOn int32
	err    error
}

func (f *failOnNthExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if f.count.Add(1) == f.failOn {
		return nil, f.err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}

// FailOnQueryUoW returns Err from every write whose SQL contains Match, for
// reproducing driver errors such as uniqueness violations at one statement.
type FailOnQueryUoW struct {
	DB    *sql.DB
	Match string
	Err   error
}

func (u *FailOnQueryUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	return runWrapped(ctx, u.DB, func(tx db.DBTX) db.DBTX {
		return &failOnQuery{DBTX: tx, match: u.Match, err: u.Err}
	}, fn)
}

type failOnQuery struct {
	db.DBTX
	match string
	err   error
}

func (f *failOnQuery) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if strings.Contains(query, f.match) {
		return nil, f.err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}

func runWrapped(ctx context.Context, database *sql.DB, wrap func(db.DBTX) db.DBTX, fn func(ctx context.Context, tx db.DBTX) error) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(ctx, wrap(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
