package app

import (
	"database/sql"
	"fmt"

	availabilityDomain "github.com/domicare/rota/internal/availability/domain"
	availabilityPersistence "github.com/domicare/rota/internal/availability/infrastructure/persistence"
	directoryDomain "github.com/domicare/rota/internal/directory/domain"
	directoryPersistence "github.com/domicare/rota/internal/directory/infrastructure/persistence"
	schedulingDomain "github.com/domicare/rota/internal/scheduling/domain"
	schedulingPersistence "github.com/domicare/rota/internal/scheduling/infrastructure/persistence"
	settingsDomain "github.com/domicare/rota/internal/settings/domain"
	settingsPersistence "github.com/domicare/rota/internal/settings/infrastructure/persistence"
	sharedApplication "github.com/domicare/rota/internal/shared/application"
	"github.com/domicare/rota/internal/shared/infrastructure/database"
	"github.com/domicare/rota/internal/shared/infrastructure/outbox"
	sharedPersistence "github.com/domicare/rota/internal/shared/infrastructure/persistence"
	"github.com/jackc/pgx/v5/pgxpool"
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

// CareGiverRepository creates a care giver repository for the configured
// driver.
func (f *RepositoryFactory) CareGiverRepository() (directoryDomain.CareGiverRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		pool, err := f.getPostgresPool()
		if err != nil {
			return nil, err
		}
		return directoryPersistence.NewPostgresCareGiverRepository(pool), nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return nil, err
		}
		return directoryPersistence.NewSQLiteCareGiverRepository(db), nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// CareReceiverRepository creates a care receiver repository for the
// configured driver.
func (f *RepositoryFactory) CareReceiverRepository() (directoryDomain.CareReceiverRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		pool, err := f.getPostgresPool()
		if err != nil {
			return nil, err
		}
		return directoryPersistence.NewPostgresCareReceiverRepository(pool), nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return nil, err
		}
		return directoryPersistence.NewSQLiteCareReceiverRepository(db), nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// AppointmentRepository creates an appointment repository for the
// configured driver.
func (f *RepositoryFactory) AppointmentRepository() (schedulingDomain.AppointmentRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		pool, err := f.getPostgresPool()
		if err != nil {
			return nil, err
		}
		return schedulingPersistence.NewPostgresAppointmentRepository(pool), nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return nil, err
		}
		return schedulingPersistence.NewSQLiteAppointmentRepository(db), nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// VersionRepository creates an availability version repository for the
// configured driver.
func (f *RepositoryFactory) VersionRepository() (availabilityDomain.Repository, error) {
	switch f.driver {
	case database.DriverPostgres:
		pool, err := f.getPostgresPool()
		if err != nil {
			return nil, err
		}
		return availabilityPersistence.NewPostgresVersionRepository(pool), nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return nil, err
		}
		return availabilityPersistence.NewSQLiteVersionRepository(db), nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// SettingsRepository creates a settings repository for the configured
// driver.
func (f *RepositoryFactory) SettingsRepository() (settingsDomain.Repository, error) {
	switch f.driver {
	case database.DriverPostgres:
		pool, err := f.getPostgresPool()
		if err != nil {
			return nil, err
		}
		return settingsPersistence.NewPostgresSettingsRepository(pool), nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return nil, err
		}
		return settingsPersistence.NewSQLiteSettingsRepository(db), nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// OutboxRepository creates an outbox repository for the configured
// driver.
func (f *RepositoryFactory) OutboxRepository() (outbox.Repository, error) {
	switch f.driver {
	case database.DriverPostgres:
		pool, err := f.getPostgresPool()
		if err != nil {
			return nil, err
		}
		return outbox.NewPostgresRepository(pool), nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return nil, err
		}
		return outbox.NewSQLiteRepository(db), nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// UnitOfWork creates a unit of work for the configured driver.
func (f *RepositoryFactory) UnitOfWork() (sharedApplication.UnitOfWork, error) {
	switch f.driver {
	case database.DriverPostgres:
		pool, err := f.getPostgresPool()
		if err != nil {
			return nil, err
		}
		return sharedPersistence.NewPostgresUnitOfWork(pool), nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return nil, err
		}
		return sharedPersistence.NewSQLiteUnitOfWork(db), nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// Helper methods to get underlying database connections

func (f *RepositoryFactory) getPostgresPool() (*pgxpool.Pool, error) {
	pgConn, ok := f.conn.(interface{ Pool() *pgxpool.Pool })
	if !ok {
		return nil, fmt.Errorf("postgres connection does not expose Pool()")
	}
	return pgConn.Pool(), nil
}

func (f *RepositoryFactory) getSQLiteDB() (*sql.DB, error) {
	sqliteConn, ok := f.conn.(interface{ DB() *sql.DB })
	if !ok {
		return nil, fmt.Errorf("sqlite connection does not expose DB()")
	}
	return sqliteConn.DB(), nil
}

// Driver returns the database driver type.
func (f *RepositoryFactory) Driver() database.Driver {
	return f.driver
}

// Connection returns the underlying database connection.
func (f *RepositoryFactory) Connection() database.Connection {
	return f.conn
}
