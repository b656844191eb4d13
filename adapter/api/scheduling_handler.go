package api

import (
	"log/slog"
	"net/http"

	dirDomain "github.com/domicare/rota/internal/directory/domain"
	schedCommands "github.com/domicare/rota/internal/scheduling/application/commands"
	schedQueries "github.com/domicare/rota/internal/scheduling/application/queries"
	"github.com/domicare/rota/internal/scheduling/application/services"
	schedDomain "github.com/domicare/rota/internal/scheduling/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// SchedulingHandler handles the /schedule API requests.
type SchedulingHandler struct {
	generate     *schedCommands.GenerateScheduleHandler
	createManual *schedCommands.CreateAppointmentHandler
	updateStatus *schedCommands.UpdateAppointmentStatusHandler
	deleteAppt   *schedCommands.DeleteAppointmentHandler
	validate     *schedCommands.ValidateScheduleHandler

	listAppointments *schedQueries.ListAppointmentsHandler
	getAppointment   *schedQueries.GetAppointmentHandler
	unscheduled      *schedQueries.UnscheduledVisitsHandler
	analyze          *schedQueries.AnalyzeUnscheduledHandler
	findAvailable    *schedQueries.FindAvailableHandler
	stats            *schedQueries.ScheduleStatsHandler

	careGivers    dirDomain.CareGiverRepository
	careReceivers dirDomain.CareReceiverRepository
	logger        *slog.Logger
}

// SchedulingHandlerConfig holds dependencies for the scheduling handler.
type SchedulingHandlerConfig struct {
	Generate          *schedCommands.GenerateScheduleHandler
	CreateAppointment *schedCommands.CreateAppointmentHandler
	UpdateStatus      *schedCommands.UpdateAppointmentStatusHandler
	DeleteAppointment *schedCommands.DeleteAppointmentHandler
	Validate          *schedCommands.ValidateScheduleHandler

	ListAppointments *schedQueries.ListAppointmentsHandler
	GetAppointment   *schedQueries.GetAppointmentHandler
	Unscheduled      *schedQueries.UnscheduledVisitsHandler
	Analyze          *schedQueries.AnalyzeUnscheduledHandler
	FindAvailable    *schedQueries.FindAvailableHandler
	Stats            *schedQueries.ScheduleStatsHandler

	CareGivers    dirDomain.CareGiverRepository
	CareReceivers dirDomain.CareReceiverRepository
	Logger        *slog.Logger
}

// NewSchedulingHandler creates a new scheduling handler.
func NewSchedulingHandler(cfg SchedulingHandlerConfig) *SchedulingHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &SchedulingHandler{
		generate:         cfg.Generate,
		createManual:     cfg.CreateAppointment,
		updateStatus:     cfg.UpdateStatus,
		deleteAppt:       cfg.DeleteAppointment,
		validate:         cfg.Validate,
		listAppointments: cfg.ListAppointments,
		getAppointment:   cfg.GetAppointment,
		unscheduled:      cfg.Unscheduled,
		analyze:          cfg.Analyze,
		findAvailable:    cfg.FindAvailable,
		stats:            cfg.Stats,
		careGivers:       cfg.CareGivers,
		careReceivers:    cfg.CareReceivers,
		logger:           cfg.Logger,
	}
}

// Routes mounts the scheduling endpoints on the given router.
func (h *SchedulingHandler) Routes(r chi.Router) {
	r.Post("/generate", h.Generate)
	r.Get("/appointments", h.ListAppointments)
	r.Get("/unscheduled", h.Unscheduled)
	r.Post("/analyze-unscheduled", h.Analyze)
	r.Post("/validate", h.Validate)
	r.Post("/find-available", h.FindAvailable)
	r.Post("/appointments/manual", h.CreateManual)
	r.Get("/appointments/{appointmentID}", h.GetAppointment)
	r.Patch("/appointments/{appointmentID}/status", h.UpdateStatus)
	r.Delete("/appointments/{appointmentID}", h.Delete)
	r.Get("/stats", h.Stats)
}

type generateRequest struct {
	StartDate       string      `json:"start_date"`
	EndDate         string      `json:"end_date"`
	CareReceiverID  *uuid.UUID  `json:"care_receiver_id"`
	CareReceiverIDs []uuid.UUID `json:"care_receiver_ids"`
}

type failedVisitDTO struct {
	Date        string `json:"date"`
	VisitNumber int    `json:"visit_number"`
	Reason      string `json:"reason"`
}

type receiverScheduleDTO struct {
	CareReceiverID uuid.UUID                     `json:"care_receiver_id"`
	Scheduled      []schedQueries.AppointmentDTO `json:"scheduled"`
	Failed         []failedVisitDTO              `json:"failed"`
	Skipped        int                           `json:"skipped"`
}

type generateSummaryDTO struct {
	StartDate              string `json:"start_date"`
	EndDate                string `json:"end_date"`
	CareReceiversProcessed int    `json:"care_receivers_processed"`
	TotalScheduled         int    `json:"total_scheduled"`
	TotalFailed            int    `json:"total_failed"`
	TotalSkipped           int    `json:"total_skipped"`
}

type generateResponse struct {
	Results []receiverScheduleDTO `json:"results"`
	Summary generateSummaryDTO    `json:"summary"`
}

// Generate handles POST /schedule/generate.
func (h *SchedulingHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid request body")
		return
	}
	if req.StartDate == "" || req.EndDate == "" {
		writeError(w, http.StatusBadRequest, codeMissingDates, "start_date and end_date are required")
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	ids := req.CareReceiverIDs
	if req.CareReceiverID != nil {
		ids = append([]uuid.UUID{*req.CareReceiverID}, ids...)
	}

	result, err := h.generate.Handle(r.Context(), schedCommands.GenerateScheduleCommand{
		StartDate:       start,
		EndDate:         end,
		CareReceiverIDs: ids,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	resp, err := h.buildGenerateResponse(r, result)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, resp)
}

func (h *SchedulingHandler) buildGenerateResponse(r *http.Request, result *schedCommands.GenerateScheduleResult) (*generateResponse, error) {
	var all []*schedDomain.Appointment
	for _, schedule := range result.Schedules {
		all = append(all, schedule.Scheduled...)
	}
	names, err := schedQueries.BuildNameIndex(r.Context(), h.careGivers, h.careReceivers, all)
	if err != nil {
		return nil, err
	}

	results := make([]receiverScheduleDTO, 0, len(result.Schedules))
	for _, schedule := range result.Schedules {
		scheduled := make([]schedQueries.AppointmentDTO, 0, len(schedule.Scheduled))
		for _, appt := range schedule.Scheduled {
			scheduled = append(scheduled, schedQueries.NewAppointmentDTO(appt, names))
		}
		failed := make([]failedVisitDTO, 0, len(schedule.Failed))
		for _, visit := range schedule.Failed {
			failed = append(failed, failedVisitDTO{
				Date:        visit.Date.Format("2006-01-02"),
				VisitNumber: visit.VisitNumber,
				Reason:      visit.Reason,
			})
		}
		results = append(results, receiverScheduleDTO{
			CareReceiverID: schedule.CareReceiverID,
			Scheduled:      scheduled,
			Failed:         failed,
			Skipped:        schedule.Skipped,
		})
	}

	return &generateResponse{
		Results: results,
		Summary: generateSummaryDTO{
			StartDate:              result.StartDate.Format("2006-01-02"),
			EndDate:                result.EndDate.Format("2006-01-02"),
			CareReceiversProcessed: result.CareReceiversProcessed,
			TotalScheduled:         result.TotalScheduled,
			TotalFailed:            result.TotalFailed,
			TotalSkipped:           result.TotalSkipped,
		},
	}, nil
}

// ListAppointments handles GET /schedule/appointments.
func (h *SchedulingHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	query := schedQueries.ListAppointmentsQuery{
		Page:  intQuery(r, "page", 1),
		Limit: intQuery(r, "limit", 0),
	}

	if raw := r.URL.Query().Get("start_date"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, err.Error())
			return
		}
		query.From = &t
	}
	if raw := r.URL.Query().Get("end_date"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, err.Error())
			return
		}
		query.To = &t
	}
	if raw := r.URL.Query().Get("care_giver_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, "invalid care_giver_id")
			return
		}
		query.CareGiverID = &id
	}
	if raw := r.URL.Query().Get("care_receiver_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeValidation, "invalid care_receiver_id")
			return
		}
		query.CareReceiverID = &id
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		query.Status = &raw
	}

	page, err := h.listAppointments.Handle(r.Context(), query)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, page)
}

// GetAppointment handles GET /schedule/appointments/{appointmentID}.
func (h *SchedulingHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "appointmentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	dto, err := h.getAppointment.Handle(r.Context(), schedQueries.GetAppointmentQuery{AppointmentID: id})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, dto)
}

// Unscheduled handles GET /schedule/unscheduled.
func (h *SchedulingHandler) Unscheduled(w http.ResponseWriter, r *http.Request) {
	startRaw, endRaw := r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date")
	if startRaw == "" || endRaw == "" {
		writeError(w, http.StatusBadRequest, codeMissingDates, "start_date and end_date are required")
		return
	}
	start, err := parseDate(startRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	end, err := parseDate(endRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	report, err := h.unscheduled.Handle(r.Context(), schedQueries.UnscheduledVisitsQuery{
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, report)
}

type analyzeRequest struct {
	CareReceiverID uuid.UUID `json:"care_receiver_id"`
	VisitNumber    int       `json:"visit_number"`
	Date           string    `json:"date"`
}

// Analyze handles POST /schedule/analyze-unscheduled.
func (h *SchedulingHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid request body")
		return
	}
	if req.CareReceiverID == uuid.Nil || req.VisitNumber < 1 || req.Date == "" {
		writeError(w, http.StatusBadRequest, codeMissingFields, "care_receiver_id, visit_number and date are required")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	report, err := h.analyze.Handle(r.Context(), schedQueries.AnalyzeUnscheduledQuery{
		CareReceiverID: req.CareReceiverID,
		VisitNumber:    req.VisitNumber,
		Date:           date,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, report)
}

type validateRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type validateSummaryDTO struct {
	Checked  int `json:"checked"`
	Valid    int `json:"valid"`
	Invalid  int `json:"invalid"`
	Restored int `json:"restored"`
}

type invalidAppointmentDTO struct {
	Appointment schedQueries.AppointmentDTO `json:"appointment"`
	Issues      []string                    `json:"issues"`
}

type validateResponse struct {
	Summary validateSummaryDTO            `json:"summary"`
	Invalid []invalidAppointmentDTO       `json:"invalid"`
	Valid   []schedQueries.AppointmentDTO `json:"valid"`
}

// Validate handles POST /schedule/validate.
func (h *SchedulingHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid request body")
		return
	}
	if req.StartDate == "" || req.EndDate == "" {
		writeError(w, http.StatusBadRequest, codeMissingDates, "start_date and end_date are required")
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	report, err := h.validate.Handle(r.Context(), schedCommands.ValidateScheduleCommand{
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	resp, err := h.buildValidateResponse(r, report)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, resp)
}

func (h *SchedulingHandler) buildValidateResponse(r *http.Request, report *services.ValidationReport) (*validateResponse, error) {
	all := make([]*schedDomain.Appointment, 0, len(report.Valid)+len(report.Invalid))
	all = append(all, report.Valid...)
	for _, invalid := range report.Invalid {
		all = append(all, invalid.Appointment)
	}
	names, err := schedQueries.BuildNameIndex(r.Context(), h.careGivers, h.careReceivers, all)
	if err != nil {
		return nil, err
	}

	valid := make([]schedQueries.AppointmentDTO, 0, len(report.Valid))
	for _, appt := range report.Valid {
		valid = append(valid, schedQueries.NewAppointmentDTO(appt, names))
	}
	invalid := make([]invalidAppointmentDTO, 0, len(report.Invalid))
	for _, item := range report.Invalid {
		invalid = append(invalid, invalidAppointmentDTO{
			Appointment: schedQueries.NewAppointmentDTO(item.Appointment, names),
			Issues:      item.Issues,
		})
	}

	return &validateResponse{
		Summary: validateSummaryDTO{
			Checked:  report.Checked,
			Valid:    len(report.Valid),
			Invalid:  len(report.Invalid),
			Restored: report.Restored,
		},
		Invalid: invalid,
		Valid:   valid,
	}, nil
}

type findAvailableRequest struct {
	CareReceiverID uuid.UUID `json:"care_receiver_id"`
	Date           string    `json:"date"`
	StartTime      string    `json:"start_time"`
	EndTime        string    `json:"end_time"`
	Requirements   []string  `json:"requirements"`
	DoubleHanded   bool      `json:"double_handed"`
}

// FindAvailable handles POST /schedule/find-available.
func (h *SchedulingHandler) FindAvailable(w http.ResponseWriter, r *http.Request) {
	var req findAvailableRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid request body")
		return
	}
	if req.CareReceiverID == uuid.Nil || req.Date == "" || req.StartTime == "" || req.EndTime == "" {
		writeError(w, http.StatusBadRequest, codeMissingFields, "care_receiver_id, date, start_time and end_time are required")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	result, err := h.findAvailable.Handle(r.Context(), schedQueries.FindAvailableQuery{
		CareReceiverID: req.CareReceiverID,
		Date:           date,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Requirements:   req.Requirements,
		DoubleHanded:   req.DoubleHanded,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, result)
}

type manualAppointmentRequest struct {
	CareReceiverID       uuid.UUID  `json:"care_receiver_id"`
	CareGiverID          uuid.UUID  `json:"care_giver_id"`
	SecondaryCareGiverID *uuid.UUID `json:"secondary_care_giver_id"`
	Date                 string     `json:"date"`
	StartTime            string     `json:"start_time"`
	DurationMinutes      int        `json:"duration_minutes"`
	VisitNumber          int        `json:"visit_number"`
	Requirements         []string   `json:"requirements"`
	DoubleHanded         bool       `json:"double_handed"`
	Priority             int        `json:"priority"`
}

// CreateManual handles POST /schedule/appointments/manual.
func (h *SchedulingHandler) CreateManual(w http.ResponseWriter, r *http.Request) {
	var req manualAppointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid request body")
		return
	}
	if req.CareReceiverID == uuid.Nil || req.CareGiverID == uuid.Nil ||
		req.Date == "" || req.StartTime == "" || req.DurationMinutes == 0 || req.VisitNumber == 0 {
		writeError(w, http.StatusBadRequest, codeMissingFields,
			"care_receiver_id, care_giver_id, date, start_time, duration_minutes and visit_number are required")
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	result, err := h.createManual.Handle(r.Context(), schedCommands.CreateAppointmentCommand{
		CareReceiverID:       req.CareReceiverID,
		CareGiverID:          req.CareGiverID,
		SecondaryCareGiverID: req.SecondaryCareGiverID,
		Date:                 date,
		StartTime:            req.StartTime,
		DurationMinutes:      req.DurationMinutes,
		VisitNumber:          req.VisitNumber,
		Requirements:         req.Requirements,
		DoubleHanded:         req.DoubleHanded,
		Priority:             req.Priority,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	dto, err := h.appointmentDTO(r, result.Appointment)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusCreated, dto)
}

type updateStatusRequest struct {
	Status             string `json:"status"`
	CancellationReason string `json:"cancellation_reason"`
}

// UpdateStatus handles PATCH /schedule/appointments/{appointmentID}/status.
func (h *SchedulingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "appointmentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, "invalid request body")
		return
	}
	if req.Status == "" {
		writeError(w, http.StatusBadRequest, codeMissingFields, "status is required")
		return
	}

	result, err := h.updateStatus.Handle(r.Context(), schedCommands.UpdateAppointmentStatusCommand{
		AppointmentID:      id,
		Status:             req.Status,
		CancellationReason: req.CancellationReason,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	dto, err := h.appointmentDTO(r, result.Appointment)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, dto)
}

// Delete handles DELETE /schedule/appointments/{appointmentID}.
func (h *SchedulingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "appointmentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	if err := h.deleteAppt.Handle(r.Context(), schedCommands.DeleteAppointmentCommand{AppointmentID: id}); err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}

// Stats handles GET /schedule/stats.
func (h *SchedulingHandler) Stats(w http.ResponseWriter, r *http.Request) {
	startRaw, endRaw := r.URL.Query().Get("start_date"), r.URL.Query().Get("end_date")
	if startRaw == "" || endRaw == "" {
		writeError(w, http.StatusBadRequest, codeMissingDates, "start_date and end_date are required")
		return
	}
	start, err := parseDate(startRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	end, err := parseDate(endRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	stats, err := h.stats.Handle(r.Context(), schedQueries.ScheduleStatsQuery{
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusOK, stats)
}

// appointmentDTO maps a single appointment with resolved names.
func (h *SchedulingHandler) appointmentDTO(r *http.Request, appt *schedDomain.Appointment) (schedQueries.AppointmentDTO, error) {
	names, err := schedQueries.BuildNameIndex(r.Context(), h.careGivers, h.careReceivers,
		[]*schedDomain.Appointment{appt})
	if err != nil {
		return schedQueries.AppointmentDTO{}, err
	}
	return schedQueries.NewAppointmentDTO(appt, names), nil
}
