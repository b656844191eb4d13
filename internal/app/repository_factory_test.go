package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domicare/rota/internal/shared/infrastructure/database"
	"github.com/domicare/rota/internal/shared/infrastructure/database/sqlite"
)

// fakeConnection implements database.Connection without exposing a
// native handle, to exercise the factory's guard paths.
type fakeConnection struct {
	driver database.Driver
}

func (f *fakeConnection) Driver() database.Driver      { return f.driver }
func (f *fakeConnection) Ping(_ context.Context) error { return nil }
func (f *fakeConnection) Close() error                 { return nil }

func TestRepositoryFactorySQLite(t *testing.T) {
	ctx := context.Background()

	conn, err := sqlite.NewConnection(ctx, database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: ":memory:",
	})
	require.NoError(t, err)
	defer conn.Close()

	factory := NewRepositoryFactory(conn)
	assert.Equal(t, database.DriverSQLite, factory.Driver())
	assert.Equal(t, database.Connection(conn), factory.Connection())

	careGivers, err := factory.CareGiverRepository()
	require.NoError(t, err)
	assert.NotNil(t, careGivers)

	careReceivers, err := factory.CareReceiverRepository()
	require.NoError(t, err)
	assert.NotNil(t, careReceivers)

	appointments, err := factory.AppointmentRepository()
	require.NoError(t, err)
	assert.NotNil(t, appointments)

	versions, err := factory.VersionRepository()
	require.NoError(t, err)
	assert.NotNil(t, versions)

	settings, err := factory.SettingsRepository()
	require.NoError(t, err)
	assert.NotNil(t, settings)

	outboxRepo, err := factory.OutboxRepository()
	require.NoError(t, err)
	assert.NotNil(t, outboxRepo)

	uow, err := factory.UnitOfWork()
	require.NoError(t, err)
	assert.NotNil(t, uow)
}

func TestRepositoryFactoryUnsupportedDriver(t *testing.T) {
	factory := NewRepositoryFactory(&fakeConnection{driver: database.Driver("oracle")})

	_, err := factory.CareGiverRepository()
	assert.ErrorContains(t, err, "unsupported driver")

	_, err = factory.AppointmentRepository()
	assert.ErrorContains(t, err, "unsupported driver")

	_, err = factory.UnitOfWork()
	assert.ErrorContains(t, err, "unsupported driver")
}

func TestRepositoryFactoryMissingNativeHandle(t *testing.T) {
	// A connection claiming postgres without a Pool() accessor must be
	// rejected instead of panicking.
	factory := NewRepositoryFactory(&fakeConnection{driver: database.DriverPostgres})

	_, err := factory.CareGiverRepository()
	assert.ErrorContains(t, err, "Pool()")

	factory = NewRepositoryFactory(&fakeConnection{driver: database.DriverSQLite})

	_, err = factory.SettingsRepository()
	assert.ErrorContains(t, err, "DB()")
}
