package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/domicare/rota/adapter/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduling HTTP API",
	Long: `Starts the REST API server and blocks until interrupted.

All scheduling, directory, availability and settings endpoints are
served from a single process backed by the configured database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Container == nil {
			return fmt.Errorf("serve requires a database connection; check your configuration")
		}
		c := app.Container

		log := logger
		if log == nil {
			log = slog.Default()
		}

		handlers := api.Handlers{
			Scheduling: api.NewSchedulingHandler(api.SchedulingHandlerConfig{
				Generate:          c.GenerateScheduleHandler,
				CreateAppointment: c.CreateAppointmentHandler,
				UpdateStatus:      c.UpdateAppointmentStatusHandler,
				DeleteAppointment: c.DeleteAppointmentHandler,
				Validate:          c.ValidateScheduleHandler,
				ListAppointments:  c.ListAppointmentsHandler,
				GetAppointment:    c.GetAppointmentHandler,
				Unscheduled:       c.UnscheduledVisitsHandler,
				Analyze:           c.AnalyzeUnscheduledHandler,
				FindAvailable:     c.FindAvailableHandler,
				Stats:             c.ScheduleStatsHandler,
				CareGivers:        c.CareGiverRepo,
				CareReceivers:     c.CareReceiverRepo,
				Logger:            log,
			}),
			Directory: api.NewDirectoryHandler(api.DirectoryHandlerConfig{
				CreateCareGiver:        c.CreateCareGiverHandler,
				UpdateCareGiver:        c.UpdateCareGiverHandler,
				DeactivateCareGiver:    c.DeactivateCareGiverHandler,
				CreateCareReceiver:     c.CreateCareReceiverHandler,
				UpdateCareReceiver:     c.UpdateCareReceiverHandler,
				DeactivateCareReceiver: c.DeactivateCareReceiverHandler,
				GetCareGiver:           c.GetCareGiverHandler,
				ListCareGivers:         c.ListCareGiversHandler,
				GetCareReceiver:        c.GetCareReceiverHandler,
				ListCareReceivers:      c.ListCareReceiversHandler,
				Logger:                 log,
			}),
			Availability: api.NewAvailabilityHandler(api.AvailabilityHandlerConfig{
				CreateVersion: c.CreateVersionHandler,
				GetCurrent:    c.GetCurrentVersionHandler,
				GetHistory:    c.GetHistoryHandler,
				Logger:        log,
			}),
			Settings: api.NewSettingsHandler(api.SettingsHandlerConfig{
				Update: c.UpdateSettingsHandler,
				Get:    c.GetSettingsHandler,
				Logger: log,
			}),
		}

		srvCfg := api.DefaultServerConfig()
		if app.Config != nil {
			srvCfg.Addr = app.Config.HTTPAddr
			srvCfg.JWTSecret = app.Config.JWTSecret
			srvCfg.ExposePanics = app.Config.IsDevelopment()
		}
		if serveAddr != "" {
			srvCfg.Addr = serveAddr
		}

		monitor := api.Monitor{
			Ready:   c.Ready,
			Health:  c.Health,
			Metrics: c.Metrics,
		}
		srv := api.NewServer(srvCfg, handlers, monitor, log)

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-cmd.Context().Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down API server: %w", err)
		}
		log.Info("API server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
