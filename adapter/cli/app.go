package cli

import (
	"github.com/domicare/rota/internal/app"
	availQueries "github.com/domicare/rota/internal/availability/application/queries"
	dirQueries "github.com/domicare/rota/internal/directory/application/queries"
	schedCommands "github.com/domicare/rota/internal/scheduling/application/commands"
	schedQueries "github.com/domicare/rota/internal/scheduling/application/queries"
	settingsCommands "github.com/domicare/rota/internal/settings/application/commands"
	settingsQueries "github.com/domicare/rota/internal/settings/application/queries"
	"github.com/domicare/rota/pkg/config"
)

// App holds the CLI application dependencies.
type App struct {
	// Schedule Command Handlers
	GenerateScheduleHandler *schedCommands.GenerateScheduleHandler
	ValidateScheduleHandler *schedCommands.ValidateScheduleHandler

	// Schedule Query Handlers
	ListAppointmentsHandler  *schedQueries.ListAppointmentsHandler
	UnscheduledVisitsHandler *schedQueries.UnscheduledVisitsHandler
	ScheduleStatsHandler     *schedQueries.ScheduleStatsHandler

	// Directory Query Handlers
	GetCareGiverHandler      *dirQueries.GetCareGiverHandler
	ListCareGiversHandler    *dirQueries.ListCareGiversHandler
	GetCareReceiverHandler   *dirQueries.GetCareReceiverHandler
	ListCareReceiversHandler *dirQueries.ListCareReceiversHandler

	// Availability Query Handlers
	GetHistoryHandler *availQueries.GetHistoryHandler

	// Settings Handlers
	GetSettingsHandler    *settingsQueries.GetSettingsHandler
	UpdateSettingsHandler *settingsCommands.UpdateSettingsHandler

	// Container provides the full dependency graph for commands that
	// need more than the handlers above (serve, health).
	Container *app.Container

	// Config is the loaded runtime configuration.
	Config *config.Config
}

// NewApp creates a new CLI application backed by the given container.
func NewApp(container *app.Container, cfg *config.Config) *App {
	return &App{
		GenerateScheduleHandler:  container.GenerateScheduleHandler,
		ValidateScheduleHandler:  container.ValidateScheduleHandler,
		ListAppointmentsHandler:  container.ListAppointmentsHandler,
		UnscheduledVisitsHandler: container.UnscheduledVisitsHandler,
		ScheduleStatsHandler:     container.ScheduleStatsHandler,
		GetCareGiverHandler:      container.GetCareGiverHandler,
		ListCareGiversHandler:    container.ListCareGiversHandler,
		GetCareReceiverHandler:   container.GetCareReceiverHandler,
		ListCareReceiversHandler: container.ListCareReceiversHandler,
		GetHistoryHandler:        container.GetHistoryHandler,
		GetSettingsHandler:       container.GetSettingsHandler,
		UpdateSettingsHandler:    container.UpdateSettingsHandler,
		Container:                container,
		Config:                   cfg,
	}
}

// cliApp is the global CLI application instance
var cliApp *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	cliApp = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return cliApp
}
