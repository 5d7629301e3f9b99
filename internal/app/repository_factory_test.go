package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/layoutrack/internal/layouts/infrastructure/persistence"
	"github.com/felixgeelhaar/layoutrack/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/layoutrack/internal/shared/infrastructure/database/sqlite"
)

func TestRepositoryFactory_SQLite(t *testing.T) {
	conn, err := database.NewConnection(context.Background(), database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: sqlite.MemoryPath,
	})
	require.NoError(t, err)
	defer conn.Close()

	f := NewRepositoryFactory(conn)
	assert.Equal(t, database.DriverSQLite, f.Driver())
	assert.Same(t, conn, f.Connection())

	repo, err := f.LayoutRepository()
	require.NoError(t, err)
	assert.IsType(t, &persistence.SQLiteLayoutRepository{}, repo)
	assert.NotNil(t, f.OutboxRepository())
	assert.NotNil(t, f.UnitOfWork())
}

type fakeConn struct {
	database.Connection
	driver database.Driver
}

func (c fakeConn) Driver() database.Driver { return c.driver }

func TestRepositoryFactory_Drivers(t *testing.T) {
	tests := []struct {
		name    string
		driver  database.Driver
		want    any
		wantErr bool
	}{
		{"postgres", database.DriverPostgres, &persistence.PostgresLayoutRepository{}, false},
		{"sqlite", database.DriverSQLite, &persistence.SQLiteLayoutRepository{}, false},
		{"unknown", database.Driver("mysql"), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, err := NewRepositoryFactory(fakeConn{driver: tt.driver}).LayoutRepository()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, repo)
		})
	}
}
