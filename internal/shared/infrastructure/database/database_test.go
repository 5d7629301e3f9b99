package database

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDriver(t *testing.T) {
	tests := map[string]Driver{
		"":                                      DriverSQLite,
		"postgres://layoutrack@db:5432/layouts": DriverPostgres,
		"postgresql://db/layouts":               DriverPostgres,
		"sqlite:///var/lib/layoutrack/l.sqlite": DriverSQLite,
		"file:layouts?mode=memory":              DriverSQLite,
		"/home/alice/.layoutrack/layouts.db":    DriverSQLite,
		"layouts.sqlite3":                       DriverSQLite,
		"mysql://db/layouts":                    DriverPostgres,
	}
	for url, want := range tests {
		t.Run(url, func(t *testing.T) {
			assert.Equal(t, want, DetectDriver(url))
		})
	}
}

func TestDriver_Rebind(t *testing.T) {
	q := "UPDATE layouts SET designer = ?, rework_note = 'why?' WHERE project_id = ? AND ip_name = ?"

	assert.Equal(t, q, DriverSQLite.Rebind(q))
	assert.Equal(t,
		"UPDATE layouts SET designer = $1, rework_note = 'why?' WHERE project_id = $2 AND ip_name = $3",
		DriverPostgres.Rebind(q))
	assert.Equal(t, "SELECT 1", DriverPostgres.Rebind("SELECT 1"))
}

func TestIsNoRows(t *testing.T) {
	assert.True(t, IsNoRows(ErrNoRows))
	assert.True(t, IsNoRows(fmt.Errorf("find layout: %w", sql.ErrNoRows)))
	assert.True(t, IsNoRows(pgx.ErrNoRows))
	assert.False(t, IsNoRows(nil))
	assert.False(t, IsNoRows(sql.ErrConnDone))
}

func TestNewConnection_UnregisteredDriver(t *testing.T) {
	_, err := NewConnection(context.Background(), Config{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"oracle" not registered`)
}

func TestUnitOfWork_NoTransaction(t *testing.T) {
	u := NewUnitOfWork(nil)
	assert.ErrorIs(t, u.Commit(context.Background()), ErrNoTransaction)
	assert.ErrorIs(t, u.Rollback(context.Background()), ErrNoTransaction)
	assert.False(t, InTx(context.Background()))
}
