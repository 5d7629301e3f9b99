package app

import (
	"fmt"

	"github.com/felixgeelhaar/layoutrack/internal/layouts/domain"
	"github.com/felixgeelhaar/layoutrack/internal/layouts/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/layoutrack/internal/shared/application"
	"github.com/felixgeelhaar/layoutrack/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/layoutrack/internal/shared/infrastructure/outbox"
)

// RepositoryFactory creates repositories based on the database driver.
type RepositoryFactory struct {
	conn   database.Connection
	driver database.Driver
}

// NewRepositoryFactory creates a new repository factory.
func NewRepositoryFactory(conn database.Connection) *RepositoryFactory {
	return &RepositoryFactory{
		conn:   conn,
		driver: conn.Driver(),
	}
}

// LayoutRepository creates a layout repository for the configured driver.
func (f *RepositoryFactory) LayoutRepository() (domain.Repository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return persistence.NewPostgresLayoutRepository(f.conn), nil
	case database.DriverSQLite:
		return persistence.NewSQLiteLayoutRepository(f.conn), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// OutboxRepository creates an outbox repository. One implementation serves
// both drivers.
func (f *RepositoryFactory) OutboxRepository() outbox.Repository {
	return outbox.NewSQLRepository(f.conn)
}

// UnitOfWork returns a unit of work bound to the connection.
func (f *RepositoryFactory) UnitOfWork() sharedApplication.UnitOfWork {
	return database.NewUnitOfWork(f.conn)
}

// Driver returns the database driver type.
func (f *RepositoryFactory) Driver() database.Driver {
	return f.driver
}

// Connection returns the underlying database connection.
func (f *RepositoryFactory) Connection() database.Connection {
	return f.conn
}
