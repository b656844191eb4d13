package api

import (
	"log/slog"
	"net/http"
	"time"

	dirCommands "github.com/domicare/rota/internal/directory/application/commands"
	dirQueries "github.com/domicare/rota/internal/directory/application/queries"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/domicare/rota/pkg/geo"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// DirectoryHandler handles the care giver and care receiver API requests.
type DirectoryHandler struct {
	createCareGiver        *dirCommands.CreateCareGiverHandler
	updateCareGiver        *dirCommands.UpdateCareGiverHandler
	deactivateCareGiver    *dirCommands.DeactivateCareGiverHandler
	createCareReceiver     *dirCommands.CreateCareReceiverHandler
	updateCareReceiver     *dirCommands.UpdateCareReceiverHandler
	deactivateCareReceiver *dirCommands.DeactivateCareReceiverHandler

	getCareGiver      *dirQueries.GetCareGiverHandler
	listCareGivers    *dirQueries.ListCareGiversHandler
	getCareReceiver   *dirQueries.GetCareReceiverHandler
	listCareReceivers *dirQueries.ListCareReceiversHandler

	logger *slog.Logger
}

// DirectoryHandlerConfig holds dependencies for the directory handler.
type DirectoryHandlerConfig struct {
	CreateCareGiver        *dirCommands.CreateCareGiverHandler
	UpdateCareGiver        *dirCommands.UpdateCareGiverHandler
	DeactivateCareGiver    *dirCommands.DeactivateCareGiverHandler
	CreateCareReceiver     *dirCommands.CreateCareReceiverHandler
	UpdateCareReceiver     *dirCommands.UpdateCareReceiverHandler
	DeactivateCareReceiver *dirCommands.DeactivateCareReceiverHandler

	GetCareGiver      *dirQueries.GetCareGiverHandler
	ListCareGivers    *dirQueries.ListCareGiversHandler
	GetCareReceiver   *dirQueries.GetCareReceiverHandler
	ListCareReceivers *dirQueries.ListCareReceiversHandler

	Logger *slog.Logger
}

// NewDirectoryHandler creates a new directory handler.
func NewDirectoryHandler(cfg DirectoryHandlerConfig) *DirectoryHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &DirectoryHandler{
		createCareGiver:        cfg.CreateCareGiver,
		updateCareGiver:        cfg.UpdateCareGiver,
		deactivateCareGiver:    cfg.DeactivateCareGiver,
		createCareReceiver:     cfg.CreateCareReceiver,
		updateCareReceiver:     cfg.UpdateCareReceiver,
		deactivateCareReceiver: cfg.DeactivateCareReceiver,
		getCareGiver:           cfg.GetCareGiver,
		listCareGivers:         cfg.ListCareGivers,
		getCareReceiver:        cfg.GetCareReceiver,
		listCareReceivers:      cfg.ListCareReceivers,
		logger:                 cfg.Logger,
	}
}

// CareGiverRoutes mounts the care giver endpoints on the given router.
func (h *DirectoryHandler) CareGiverRoutes(r chi.Router) {
	r.Post("/", h.CreateCareGiver)
	r.Get("/", h.ListCareGivers)
	r.Get("/{careGiverID}", h.GetCareGiver)
	r.Put("/{careGiverID}", h.UpdateCareGiver)
	r.Delete("/{careGiverID}", h.DeactivateCareGiver)
}

// CareReceiverRoutes mounts the care receiver endpoints on the given
// router.
func (h *DirectoryHandler) CareReceiverRoutes(r chi.Router) {
	r.Post("/", h.CreateCareReceiver)
	r.Get("/", h.ListCareReceivers)
	r.Get("/{careReceiverID}", h.GetCareReceiver)
	r.Put("/{careReceiverID}", h.UpdateCareReceiver)
	r.Delete("/{careReceiverID}", h.DeactivateCareReceiver)
}

// timeOffInput is the wire form of a time off interval. Dates arrive as
// "2006-01-02" or RFC 3339 strings.
type timeOffInput struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Reason string `json:"reason"`
}

// parseTimeOffInputs converts wire intervals into domain ones. A nil
// input stays nil so update commands can tell absent from empty.
func parseTimeOffInputs(inputs []timeOffInput) ([]sharedDomain.TimeOffInterval, error) {
	if inputs == nil {
		return nil, nil
	}
	out := make([]sharedDomain.TimeOffInterval, 0, len(inputs))
	for _, in := range inputs {
		start, err := parseDate(in.Start)
		if err != nil {
			return nil, err
		}
		end, err := parseDate(in.End)
		if err != nil {
			return nil, err
		}
		interval, err := sharedDomain.NewTimeOffInterval(start, end, in.Reason)
		if err != nil {
			return nil, err
		}
		out = append(out, interval)
	}
	return out, nil
}

type visitTemplateBody struct {
	PreferredTime       string   `json:"preferred_time"`
	DurationMinutes     int      `json:"duration_minutes"`
	Requirements        []string `json:"requirements"`
	DoubleHanded        bool     `json:"double_handed"`
	Priority            int      `json:"priority"`
	DaysOfWeek          []string `json:"days_of_week"`
	Recurrence          string   `json:"recurrence"`
	RecurrenceInterval  int      `json:"recurrence_interval"`
	RecurrenceStartDate string   `json:"recurrence_start_date"`
}

func parseVisitTemplates(bodies []visitTemplateBody) ([]dirCommands.VisitTemplateInput, error) {
	if bodies == nil {
		return nil, nil
	}
	out := make([]dirCommands.VisitTemplateInput, 0, len(bodies))
	for _, body := range bodies {
		var recurrenceStart *time.Time
		if body.RecurrenceStartDate != "" {
			t, err := parseDate(body.RecurrenceStartDate)
			if err != nil {
				return nil, err
			}
			recurrenceStart = &t
		}
		out = append(out, dirCommands.VisitTemplateInput{
			PreferredTime:       body.PreferredTime,
			DurationMinutes:     body.DurationMinutes,
			Requirements:        body.Requirements,
			DoubleHanded:        body.DoubleHanded,
			Priority:            body.Priority,
			DaysOfWeek:          body.DaysOfWeek,
			Recurrence:          body.Recurrence,
			RecurrenceInterval:  body.RecurrenceInterval,
			RecurrenceStartDate: recurrenceStart,
		})
	}
	return out, nil
}

type careGiverCreateRequest struct {
	FirstName        string                      `json:"first_name"`
	LastName         string                      `json:"last_name"`
	Email            string                      `json:"email"`
	Phone            string                      `json:"phone"`
	AddressLine      string                      `json:"address_line"`
	City             string                      `json:"city"`
	Postcode         string                      `json:"postcode"`
	Location         *geo.Coordinates            `json:"location"`
	Gender           string                      `json:"gender"`
	Skills           []string                    `json:"skills"`
	CanDrive         bool                        `json:"can_drive"`
	SingleHandedOnly bool                        `json:"single_handed_only"`
	MaxReceivers     int                         `json:"max_receivers"`
	WeeklySchedule   sharedDomain.WeeklySchedule `json:"weekly_schedule"`
	Holidays         []timeOffInput              `json:"holidays"`
}

// CreateCareGiver handles POST /care-givers.
func (h *DirectoryHandler) CreateCareGiver(w http.ResponseWriter, r *http.Request) {
	var req careGiverCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid request body")
		return
	}
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Gender == "" {
		writeError(w, http.StatusBadRequest, codeMissingFields, "first_name, last_name, email and gender are required")
		return
	}
	if req.WeeklySchedule != nil {
		if err := req.WeeklySchedule.Validate(); err != nil {
			respondError(w, h.logger, err)
			return
		}
	}
	holidays, err := parseTimeOffInputs(req.Holidays)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	var location geo.Coordinates
	if req.Location != nil {
		location = *req.Location
	}

	result, err := h.createCareGiver.Handle(r.Context(), dirCommands.CreateCareGiverCommand{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Email:            req.Email,
		Phone:            req.Phone,
		AddressLine:      req.AddressLine,
		City:             req.City,
		Postcode:         req.Postcode,
		Location:         location,
		Gender:           req.Gender,
		Skills:           req.Skills,
		CanDrive:         req.CanDrive,
		SingleHandedOnly: req.SingleHandedOnly,
		MaxReceivers:     req.MaxReceivers,
		WeeklySchedule:   req.WeeklySchedule,
		Holidays:         holidays,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]any{"id": result.CareGiverID})
}

// ListCareGivers handles GET /care-givers.
func (h *DirectoryHandler) ListCareGivers(w http.ResponseWriter, r *http.Request) {
	dtos, err := h.listCareGivers.Handle(r.Context(), dirQueries.ListCareGiversQuery{
		IncludeInactive: boolQuery(r, "include_inactive", false),
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, dtos)
}

// GetCareGiver handles GET /care-givers/{careGiverID}.
func (h *DirectoryHandler) GetCareGiver(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "careGiverID")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	dto, err := h.getCareGiver.Handle(r.Context(), dirQueries.GetCareGiverQuery{CareGiverID: id})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, dto)
}

type careGiverUpdateRequest struct {
	FirstName        *string                     `json:"first_name"`
	LastName         *string                     `json:"last_name"`
	Email            *string                     `json:"email"`
	Phone            *string                     `json:"phone"`
	AddressLine      *string                     `json:"address_line"`
	City             *string                     `json:"city"`
	Postcode         *string                     `json:"postcode"`
	Location         *geo.Coordinates            `json:"location"`
	Skills           []string                    `json:"skills"`
	CanDrive         *bool                       `json:"can_drive"`
	SingleHandedOnly *bool                       `json:"single_handed_only"`
	MaxReceivers     *int                        `json:"max_receivers"`
	WeeklySchedule   sharedDomain.WeeklySchedule `json:"weekly_schedule"`
	Holidays         *[]timeOffInput             `json:"holidays"`
	Active           *bool                       `json:"is_active"`
}

// UpdateCareGiver handles PUT /care-givers/{careGiverID}. Absent fields
// are left unchanged.
func (h *DirectoryHandler) UpdateCareGiver(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "careGiverID")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	var req careGiverUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid request body")
		return
	}
	if req.WeeklySchedule != nil {
		if err := req.WeeklySchedule.Validate(); err != nil {
			respondError(w, h.logger, err)
			return
		}
	}

	var holidays []sharedDomain.TimeOffInterval
	if req.Holidays != nil {
		holidays, err = parseTimeOffInputs(*req.Holidays)
		if err != nil {
			respondError(w, h.logger, err)
			return
		}
		if holidays == nil {
			holidays = []sharedDomain.TimeOffInterval{}
		}
	}

	err = h.updateCareGiver.Handle(r.Context(), dirCommands.UpdateCareGiverCommand{
		CareGiverID:      id,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Email:            req.Email,
		Phone:            req.Phone,
		AddressLine:      req.AddressLine,
		City:             req.City,
		Postcode:         req.Postcode,
		Location:         req.Location,
		Skills:           req.Skills,
		CanDrive:         req.CanDrive,
		SingleHandedOnly: req.SingleHandedOnly,
		MaxReceivers:     req.MaxReceivers,
		WeeklySchedule:   req.WeeklySchedule,
		Holidays:         holidays,
		Active:           req.Active,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	dto, err := h.getCareGiver.Handle(r.Context(), dirQueries.GetCareGiverQuery{CareGiverID: id})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, dto)
}

// DeactivateCareGiver handles DELETE /care-givers/{careGiverID}. The
// record is deactivated, not removed, so history stays intact.
func (h *DirectoryHandler) DeactivateCareGiver(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "careGiverID")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	if err := h.deactivateCareGiver.Handle(r.Context(), dirCommands.DeactivateCareGiverCommand{CareGiverID: id}); err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"id": id, "deactivated": true})
}

type careReceiverCreateRequest struct {
	FirstName            string              `json:"first_name"`
	LastName             string              `json:"last_name"`
	Phone                string              `json:"phone"`
	AddressLine          string              `json:"address_line"`
	City                 string              `json:"city"`
	Postcode             string              `json:"postcode"`
	Location             *geo.Coordinates    `json:"location"`
	Gender               string              `json:"gender"`
	GenderPreference     string              `json:"gender_preference"`
	PreferredCareGiverID *uuid.UUID          `json:"preferred_care_giver_id"`
	VisitTemplates       []visitTemplateBody `json:"visit_templates"`
}

// CreateCareReceiver handles POST /care-receivers.
func (h *DirectoryHandler) CreateCareReceiver(w http.ResponseWriter, r *http.Request) {
	var req careReceiverCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid request body")
		return
	}
	if req.FirstName == "" || req.LastName == "" || req.Gender == "" {
		writeError(w, http.StatusBadRequest, codeMissingFields, "first_name, last_name and gender are required")
		return
	}
	templates, err := parseVisitTemplates(req.VisitTemplates)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	var location geo.Coordinates
	if req.Location != nil {
		location = *req.Location
	}

	result, err := h.createCareReceiver.Handle(r.Context(), dirCommands.CreateCareReceiverCommand{
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		Phone:                req.Phone,
		AddressLine:          req.AddressLine,
		City:                 req.City,
		Postcode:             req.Postcode,
		Location:             location,
		Gender:               req.Gender,
		GenderPreference:     req.GenderPreference,
		PreferredCareGiverID: req.PreferredCareGiverID,
		VisitTemplates:       templates,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]any{"id": result.CareReceiverID})
}

// ListCareReceivers handles GET /care-receivers.
func (h *DirectoryHandler) ListCareReceivers(w http.ResponseWriter, r *http.Request) {
	dtos, err := h.listCareReceivers.Handle(r.Context(), dirQueries.ListCareReceiversQuery{
		IncludeInactive: boolQuery(r, "include_inactive", false),
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, dtos)
}

// GetCareReceiver handles GET /care-receivers/{careReceiverID}.
func (h *DirectoryHandler) GetCareReceiver(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "careReceiverID")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	dto, err := h.getCareReceiver.Handle(r.Context(), dirQueries.GetCareReceiverQuery{CareReceiverID: id})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, dto)
}

type careReceiverUpdateRequest struct {
	FirstName               *string              `json:"first_name"`
	LastName                *string              `json:"last_name"`
	Phone                   *string              `json:"phone"`
	AddressLine             *string              `json:"address_line"`
	City                    *string              `json:"city"`
	Postcode                *string              `json:"postcode"`
	Location                *geo.Coordinates     `json:"location"`
	GenderPreference        *string              `json:"gender_preference"`
	PreferredCareGiverID    *uuid.UUID           `json:"preferred_care_giver_id"`
	ClearPreferredCareGiver bool                 `json:"clear_preferred_care_giver"`
	VisitTemplates          *[]visitTemplateBody `json:"visit_templates"`
	Active                  *bool                `json:"is_active"`
}

// UpdateCareReceiver handles PUT /care-receivers/{careReceiverID}.
// Absent fields are left unchanged; a present visit_templates array
// replaces the whole template list.
func (h *DirectoryHandler) UpdateCareReceiver(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "careReceiverID")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	var req careReceiverUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid request body")
		return
	}

	var templates []dirCommands.VisitTemplateInput
	if req.VisitTemplates != nil {
		templates, err = parseVisitTemplates(*req.VisitTemplates)
		if err != nil {
			respondError(w, h.logger, err)
			return
		}
		if templates == nil {
			templates = []dirCommands.VisitTemplateInput{}
		}
	}

	err = h.updateCareReceiver.Handle(r.Context(), dirCommands.UpdateCareReceiverCommand{
		CareReceiverID:          id,
		FirstName:               req.FirstName,
		LastName:                req.LastName,
		Phone:                   req.Phone,
		AddressLine:             req.AddressLine,
		City:                    req.City,
		Postcode:                req.Postcode,
		Location:                req.Location,
		GenderPreference:        req.GenderPreference,
		PreferredCareGiverID:    req.PreferredCareGiverID,
		ClearPreferredCareGiver: req.ClearPreferredCareGiver,
		VisitTemplates:          templates,
		Active:                  req.Active,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	dto, err := h.getCareReceiver.Handle(r.Context(), dirQueries.GetCareReceiverQuery{CareReceiverID: id})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, dto)
}

// DeactivateCareReceiver handles DELETE /care-receivers/{careReceiverID}.
func (h *DirectoryHandler) DeactivateCareReceiver(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "careReceiverID")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	if err := h.deactivateCareReceiver.Handle(r.Context(), dirCommands.DeactivateCareReceiverCommand{CareReceiverID: id}); err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"id": id, "deactivated": true})
}
