package api

import (
	"log/slog"
	"net/http"

	settingsCommands "github.com/domicare/rota/internal/settings/application/commands"
	settingsQueries "github.com/domicare/rota/internal/settings/application/queries"
	"github.com/go-chi/chi/v5"
)

// SettingsHandler handles the scheduling settings API requests.
type SettingsHandler struct {
	update *settingsCommands.UpdateSettingsHandler
	get    *settingsQueries.GetSettingsHandler
	logger *slog.Logger
}

// SettingsHandlerConfig holds dependencies for the settings handler.
type SettingsHandlerConfig struct {
	Update *settingsCommands.UpdateSettingsHandler
	Get    *settingsQueries.GetSettingsHandler
	Logger *slog.Logger
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(cfg SettingsHandlerConfig) *SettingsHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &SettingsHandler{
		update: cfg.Update,
		get:    cfg.Get,
		logger: cfg.Logger,
	}
}

// Routes mounts the settings endpoints on the given router.
func (h *SettingsHandler) Routes(r chi.Router) {
	r.Get("/", h.Get)
	r.Put("/", h.Update)
}

// Get handles GET /settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	dto, err := h.get.Handle(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, dto)
}

type updateSettingsRequest struct {
	MaxDistanceKm            float64 `json:"max_distance_km"`
	TravelTimeBufferMinutes  int     `json:"travel_time_buffer_minutes"`
	MaxAppointmentsPerDay    int     `json:"max_appointments_per_day"`
	WorkingHoursStart        string  `json:"working_hours_start"`
	WorkingHoursEnd          string  `json:"working_hours_end"`
	PreferredCareGiverWeight float64 `json:"preferred_caregiver_weight"`
	DistanceWeight           float64 `json:"distance_weight"`
	AvailabilityWeight       float64 `json:"availability_weight"`
}

// Update handles PUT /settings. The document is replaced wholesale, so
// every field must be supplied.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid request body")
		return
	}
	if req.WorkingHoursStart == "" || req.WorkingHoursEnd == "" {
		writeError(w, http.StatusBadRequest, codeMissingFields, "working_hours_start and working_hours_end are required")
		return
	}

	_, err := h.update.Handle(r.Context(), settingsCommands.UpdateSettingsCommand{
		MaxDistanceKm:            req.MaxDistanceKm,
		TravelTimeBufferMinutes:  req.TravelTimeBufferMinutes,
		MaxAppointmentsPerDay:    req.MaxAppointmentsPerDay,
		WorkingHoursStart:        req.WorkingHoursStart,
		WorkingHoursEnd:          req.WorkingHoursEnd,
		PreferredCareGiverWeight: req.PreferredCareGiverWeight,
		DistanceWeight:           req.DistanceWeight,
		AvailabilityWeight:       req.AvailabilityWeight,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	dto, err := h.get.Handle(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, dto)
}
