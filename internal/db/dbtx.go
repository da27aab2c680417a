package db

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
)

// DBTX is the common interface satisfied by both *sql.DB and *sql.Tx.
// Repository implementations depend on this interface instead of the
// concrete *sql.DB, enabling transactional composition.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Compile-time verification that *sql.DB and *sql.Tx satisfy DBTX.
var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
	_ DBTX = (*postgresConn)(nil)
)

// rowLocker is implemented by connections whose dialect supports SELECT ... FOR UPDATE.
type rowLocker interface {
	SupportsRowLocks() bool
}

// ForUpdate returns the row-lock clause for conn's dialect. SQLite has no
// row locks; its writers are serialized by immediate transactions instead.
func ForUpdate(conn DBTX) string {
	if l, ok := conn.(rowLocker); ok && l.SupportsRowLocks() {
		return " FOR UPDATE"
	}
	return ""
}

// postgresConn adapts the repositories' "?" placeholders to Postgres "$n".
type postgresConn struct {
	conn DBTX
}

// NewPostgresConn wraps a Postgres *sql.DB or *sql.Tx for use by repositories.
func NewPostgresConn(conn DBTX) DBTX {
	if pc, ok := conn.(*postgresConn); ok {
		return pc
	}
	return &postgresConn{conn: conn}
}

func (p *postgresConn) SupportsRowLocks() bool { return true }

func (p *postgresConn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return p.conn.ExecContext(ctx, Rebind(query), args...)
}

func (p *postgresConn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return p.conn.QueryContext(ctx, Rebind(query), args...)
}

func (p *postgresConn) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return p.conn.QueryRowContext(ctx, Rebind(query), args...)
}

// Rebind rewrites "?" placeholders to "$1", "$2", ... outside quoted literals.
func Rebind(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
