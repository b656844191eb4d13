package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	availQueries "github.com/domicare/rota/internal/availability/application/queries"
	dirCommands "github.com/domicare/rota/internal/directory/application/commands"
	dirQueries "github.com/domicare/rota/internal/directory/application/queries"
	schedCommands "github.com/domicare/rota/internal/scheduling/application/commands"
	schedQueries "github.com/domicare/rota/internal/scheduling/application/queries"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/domicare/rota/internal/shared/infrastructure/database"
	"github.com/domicare/rota/pkg/config"
	"github.com/domicare/rota/pkg/geo"
)

func newLocalTestContainer(t *testing.T) *Container {
	t.Helper()

	cfg := &config.Config{
		AppEnv:     "test",
		SQLitePath: filepath.Join(t.TempDir(), "rota.db"),
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	container, err := NewLocalContainer(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(container.Close)

	return container
}

func allWeekSchedule() sharedDomain.WeeklySchedule {
	schedule := sharedDomain.WeeklySchedule{}
	for _, day := range sharedDomain.AllDaysOfWeek() {
		schedule[day] = []sharedDomain.TimeRange{sharedDomain.MustTimeRange("08:00", "18:00")}
	}
	return schedule
}

func TestLocalModeContainer(t *testing.T) {
	container := newLocalTestContainer(t)
	ctx := context.Background()

	assert.Equal(t, database.DriverSQLite, container.Driver)
	require.NoError(t, container.Ready(ctx))

	// Every adapter-facing handler must come out wired.
	require.NotNil(t, container.GenerateScheduleHandler)
	require.NotNil(t, container.CreateAppointmentHandler)
	require.NotNil(t, container.ValidateScheduleHandler)
	require.NotNil(t, container.UnscheduledVisitsHandler)
	require.NotNil(t, container.CreateCareGiverHandler)
	require.NotNil(t, container.CreateVersionHandler)
	require.NotNil(t, container.GetSettingsHandler)
	require.NotNil(t, container.OutboxProcessor)
}

func TestLocalModeDirectoryRoundTrip(t *testing.T) {
	container := newLocalTestContainer(t)
	ctx := context.Background()

	result, err := container.CreateCareGiverHandler.Handle(ctx, dirCommands.CreateCareGiverCommand{
		FirstName:      "Nina",
		LastName:       "Okafor",
		Email:          "nina.okafor@example.org",
		Gender:         "Female",
		Location:       geo.Coordinates{Longitude: -0.1276, Latitude: 51.5072},
		Skills:         []string{"medication_management", "personal_care"},
		CanDrive:       true,
		WeeklySchedule: allWeekSchedule(),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, result.CareGiverID)

	dto, err := container.GetCareGiverHandler.Handle(ctx, dirQueries.GetCareGiverQuery{
		CareGiverID: result.CareGiverID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Nina", dto.FirstName)
	assert.Equal(t, "Okafor", dto.LastName)
	assert.ElementsMatch(t, []string{"medication_management", "personal_care"}, dto.Skills)

	// Registration seeds version 1 of the availability history.
	history, err := container.GetHistoryHandler.Handle(ctx, availQueries.GetHistoryQuery{
		CareGiverID: result.CareGiverID,
	})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 1, history[0].VersionNumber)
}

func TestLocalModeSettingsDefaults(t *testing.T) {
	container := newLocalTestContainer(t)

	dto, err := container.GetSettingsHandler.Handle(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 20.0, dto.MaxDistanceKm, 0.001)
	assert.Equal(t, "08:00", dto.WorkingHoursStart)
	assert.Equal(t, "22:00", dto.WorkingHoursEnd)
}

func TestLocalModeGenerateSchedule(t *testing.T) {
	container := newLocalTestContainer(t)
	ctx := context.Background()

	_, err := container.CreateCareGiverHandler.Handle(ctx, dirCommands.CreateCareGiverCommand{
		FirstName:      "Tom",
		LastName:       "Hale",
		Email:          "tom.hale@example.org",
		Gender:         "Male",
		Location:       geo.Coordinates{Longitude: -0.12, Latitude: 51.50},
		Skills:         []string{"personal_care"},
		WeeklySchedule: allWeekSchedule(),
	})
	require.NoError(t, err)

	receiver, err := container.CreateCareReceiverHandler.Handle(ctx, dirCommands.CreateCareReceiverCommand{
		FirstName: "Edith",
		LastName:  "Marsh",
		Gender:    "Female",
		Location:  geo.Coordinates{Longitude: -0.13, Latitude: 51.51},
		VisitTemplates: []dirCommands.VisitTemplateInput{
			{
				PreferredTime:   "10:00",
				DurationMinutes: 60,
				Requirements:    []string{"personal_care"},
				Recurrence:      "weekly",
			},
		},
	})
	require.NoError(t, err)

	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 2)

	run, err := container.GenerateScheduleHandler.Handle(ctx, schedCommands.GenerateScheduleCommand{
		StartDate: start,
		EndDate:   end,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, run.CareReceiversProcessed)
	assert.Equal(t, 3, run.TotalScheduled)
	assert.Equal(t, 0, run.TotalFailed)

	page, err := container.ListAppointmentsHandler.Handle(ctx, schedQueries.ListAppointmentsQuery{
		From:           &start,
		To:             &end,
		CareReceiverID: &receiver.CareReceiverID,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)

	// The noop publisher drains whatever the run left in the outbox.
	require.NoError(t, container.OutboxProcessor.ProcessOnce(ctx))
	stats := container.OutboxProcessor.GetStats()
	assert.Greater(t, stats.PublishedCount, uint64(0))
}
