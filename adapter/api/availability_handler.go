package api

import (
	"log/slog"
	"net/http"
	"time"

	availCommands "github.com/domicare/rota/internal/availability/application/commands"
	availQueries "github.com/domicare/rota/internal/availability/application/queries"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/go-chi/chi/v5"
)

// AvailabilityHandler handles the care giver availability API requests.
type AvailabilityHandler struct {
	createVersion *availCommands.CreateVersionHandler
	getCurrent    *availQueries.GetCurrentVersionHandler
	getHistory    *availQueries.GetHistoryHandler
	logger        *slog.Logger
}

// AvailabilityHandlerConfig holds dependencies for the availability
// handler.
type AvailabilityHandlerConfig struct {
	CreateVersion *availCommands.CreateVersionHandler
	GetCurrent    *availQueries.GetCurrentVersionHandler
	GetHistory    *availQueries.GetHistoryHandler
	Logger        *slog.Logger
}

// NewAvailabilityHandler creates a new availability handler.
func NewAvailabilityHandler(cfg AvailabilityHandlerConfig) *AvailabilityHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &AvailabilityHandler{
		createVersion: cfg.CreateVersion,
		getCurrent:    cfg.GetCurrent,
		getHistory:    cfg.GetHistory,
		logger:        cfg.Logger,
	}
}

// Routes mounts the availability endpoints under a care giver subtree.
func (h *AvailabilityHandler) Routes(r chi.Router) {
	r.Route("/{careGiverID}/availability", func(r chi.Router) {
		r.Post("/", h.CreateVersion)
		r.Get("/", h.History)
		r.Get("/current", h.Current)
	})
}

type createVersionRequest struct {
	Schedule      sharedDomain.WeeklySchedule `json:"schedule"`
	TimeOff       []timeOffInput              `json:"time_off"`
	EffectiveFrom string                      `json:"effective_from"`
}

// CreateVersion handles POST /care-givers/{careGiverID}/availability.
// An omitted effective_from starts the version now.
func (h *AvailabilityHandler) CreateVersion(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "careGiverID")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	var req createVersionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid request body")
		return
	}
	if len(req.Schedule) == 0 {
		writeError(w, http.StatusBadRequest, codeMissingFields, "schedule is required")
		return
	}
	if err := req.Schedule.Validate(); err != nil {
		respondError(w, h.logger, err)
		return
	}
	timeOff, err := parseTimeOffInputs(req.TimeOff)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	effectiveFrom := time.Now().UTC()
	if req.EffectiveFrom != "" {
		effectiveFrom, err = parseDate(req.EffectiveFrom)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, err.Error())
			return
		}
	}

	result, err := h.createVersion.Handle(r.Context(), availCommands.CreateVersionCommand{
		CareGiverID:   id,
		Schedule:      req.Schedule,
		TimeOff:       timeOff,
		EffectiveFrom: effectiveFrom,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]any{
		"version_id":     result.VersionID,
		"version_number": result.VersionNumber,
	})
}

// History handles GET /care-givers/{careGiverID}/availability.
func (h *AvailabilityHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "careGiverID")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	versions, err := h.getHistory.Handle(r.Context(), availQueries.GetHistoryQuery{CareGiverID: id})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, versions)
}

// Current handles GET /care-givers/{careGiverID}/availability/current.
// The optional at parameter resolves the version in force on that day.
func (h *AvailabilityHandler) Current(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "careGiverID")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	var at time.Time
	if raw := r.URL.Query().Get("at"); raw != "" {
		at, err = parseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, err.Error())
			return
		}
	}

	version, err := h.getCurrent.Handle(r.Context(), availQueries.GetCurrentVersionQuery{
		CareGiverID: id,
		At:          at,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, version)
}
