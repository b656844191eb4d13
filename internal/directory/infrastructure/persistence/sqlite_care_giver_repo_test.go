package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/domicare/rota/internal/directory/domain"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/domicare/rota/internal/shared/infrastructure/migrations"
	"github.com/domicare/rota/pkg/geo"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// setupDirectoryTestDB creates an in-memory SQLite database with the
// schema applied.
func setupDirectoryTestDB(t *testing.T) *sql.DB {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	require.NoError(t, migrations.RunSQLiteMigrations(context.Background(), sqlDB))

	return sqlDB
}

func buildCareGiver(t *testing.T, firstName, lastName string) *domain.CareGiver {
	t.Helper()

	cg, err := domain.NewCareGiver(firstName, lastName, firstName+"."+lastName+"@domicare.test",
		sharedDomain.GenderFemale,
		[]sharedDomain.Skill{sharedDomain.SkillPersonalCare, sharedDomain.SkillDementiaCare})
	require.NoError(t, err)

	require.NoError(t, cg.SetContact(cg.Email(), "+44 113 496 0101"))
	cg.SetAddress("12 Harbour Lane", "Leeds", "LS1 4AB")
	cg.SetLocation(geo.Coordinates{Latitude: 53.7997, Longitude: -1.5492})
	cg.SetCanDrive(true)
	require.NoError(t, cg.SetMaxReceivers(6))
	require.NoError(t, cg.SetWeeklySchedule(sharedDomain.WeeklySchedule{
		sharedDomain.Monday:    {sharedDomain.MustTimeRange("08:00", "16:00")},
		sharedDomain.Wednesday: {sharedDomain.MustTimeRange("08:00", "12:00"), sharedDomain.MustTimeRange("13:00", "18:00")},
	}))

	holiday, err := sharedDomain.NewTimeOffInterval(
		time.Date(2026, time.August, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.August, 14, 0, 0, 0, 0, time.UTC),
		"summer break",
	)
	require.NoError(t, err)
	cg.SetHolidays([]sharedDomain.TimeOffInterval{holiday})

	return cg
}

func TestSQLiteCareGiverRepository_SaveAndFindByID(t *testing.T) {
	sqlDB := setupDirectoryTestDB(t)
	defer sqlDB.Close()

	repo := NewSQLiteCareGiverRepository(sqlDB)
	ctx := context.Background()

	cg := buildCareGiver(t, "Amara", "Okafor")
	require.NoError(t, repo.Save(ctx, cg))

	retrieved, err := repo.FindByID(ctx, cg.ID())
	require.NoError(t, err)
	require.NotNil(t, retrieved)

	assert.Equal(t, cg.ID(), retrieved.ID())
	assert.Equal(t, "Amara", retrieved.FirstName())
	assert.Equal(t, "Okafor", retrieved.LastName())
	assert.Equal(t, "+44 113 496 0101", retrieved.Phone())
	assert.Equal(t, "LS1 4AB", retrieved.Postcode())
	assert.InDelta(t, 53.7997, retrieved.Location().Latitude, 1e-9)
	assert.Equal(t, sharedDomain.GenderFemale, retrieved.Gender())
	assert.Equal(t, []sharedDomain.Skill{sharedDomain.SkillPersonalCare, sharedDomain.SkillDementiaCare}, retrieved.Skills())
	assert.True(t, retrieved.CanDrive())
	assert.False(t, retrieved.SingleHandedOnly())
	assert.Equal(t, 6, retrieved.MaxReceivers())
	assert.True(t, retrieved.IsActive())

	require.Len(t, retrieved.WeeklySchedule()[sharedDomain.Wednesday], 2)
	assert.Equal(t, "13:00-18:00", retrieved.WeeklySchedule()[sharedDomain.Wednesday][1].String())

	require.Len(t, retrieved.Holidays(), 1)
	assert.True(t, retrieved.IsOnHoliday(time.Date(2026, time.August, 12, 0, 0, 0, 0, time.UTC)))
	assert.False(t, retrieved.IsOnHoliday(time.Date(2026, time.August, 17, 0, 0, 0, 0, time.UTC)))
}

func TestSQLiteCareGiverRepository_FindByID_NotFound(t *testing.T) {
	sqlDB := setupDirectoryTestDB(t)
	defer sqlDB.Close()

	repo := NewSQLiteCareGiverRepository(sqlDB)

	retrieved, err := repo.FindByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, retrieved)
}

func TestSQLiteCareGiverRepository_Update(t *testing.T) {
	sqlDB := setupDirectoryTestDB(t)
	defer sqlDB.Close()

	repo := NewSQLiteCareGiverRepository(sqlDB)
	ctx := context.Background()

	cg := buildCareGiver(t, "Amara", "Okafor")
	require.NoError(t, repo.Save(ctx, cg))

	require.NoError(t, cg.SetName("Amara", "Adeyemi"))
	cg.SetSingleHandedOnly(true)
	require.NoError(t, repo.Save(ctx, cg))

	retrieved, err := repo.FindByID(ctx, cg.ID())
	require.NoError(t, err)
	require.NotNil(t, retrieved)

	assert.Equal(t, "Adeyemi", retrieved.LastName())
	assert.True(t, retrieved.SingleHandedOnly())
	assert.Equal(t, 1, retrieved.Version())
}

func TestSQLiteCareGiverRepository_FindActive(t *testing.T) {
	sqlDB := setupDirectoryTestDB(t)
	defer sqlDB.Close()

	repo := NewSQLiteCareGiverRepository(sqlDB)
	ctx := context.Background()

	okafor := buildCareGiver(t, "Amara", "Okafor")
	clarke := buildCareGiver(t, "Amara", "Clarke")
	adams := buildCareGiver(t, "Beatrice", "Adams")
	retired := buildCareGiver(t, "Zainab", "Hussain")
	retired.Deactivate()

	for _, cg := range []*domain.CareGiver{okafor, clarke, adams, retired} {
		require.NoError(t, repo.Save(ctx, cg))
	}

	active, err := repo.FindActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 3)

	// Name order keeps candidate iteration reproducible.
	assert.Equal(t, "Clarke", active[0].LastName())
	assert.Equal(t, "Okafor", active[1].LastName())
	assert.Equal(t, "Adams", active[2].LastName())

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestSQLiteCareGiverRepository_Delete(t *testing.T) {
	sqlDB := setupDirectoryTestDB(t)
	defer sqlDB.Close()

	repo := NewSQLiteCareGiverRepository(sqlDB)
	ctx := context.Background()

	cg := buildCareGiver(t, "Amara", "Okafor")
	require.NoError(t, repo.Save(ctx, cg))

	require.NoError(t, repo.Delete(ctx, cg.ID()))

	retrieved, err := repo.FindByID(ctx, cg.ID())
	require.NoError(t, err)
	assert.Nil(t, retrieved)

	assert.ErrorIs(t, repo.Delete(ctx, cg.ID()), ErrCareGiverNotFound)
}
