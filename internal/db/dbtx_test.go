package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no placeholders", "SELECT 1", "SELECT 1"},
		{"sequential", "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{"quoted question mark kept", "SELECT '?' FROM t WHERE a = ?", "SELECT '?' FROM t WHERE a = $1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rebind(tt.in))
		})
	}
}

func TestForUpdate(t *testing.T) {
	database, err := OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer database.Close()

	assert.Equal(t, "", ForUpdate(database), "sqlite has no row locks")
	assert.Equal(t, " FOR UPDATE", ForUpdate(NewPostgresConn(database)))
}

func TestNewPostgresConn_DoesNotDoubleWrap(t *testing.T) {
	database, err := OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer database.Close()

	once := NewPostgresConn(database)
	assert.Same(t, once, NewPostgresConn(once))
}
