package queries

import (
	"context"
	"time"

	directoryDomain "github.com/domicare/rota/internal/directory/domain"
	"github.com/domicare/rota/internal/scheduling/domain"
	"github.com/google/uuid"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// ListAppointmentsQuery lists appointments with optional filters.
// Nil filters are ignored.
type ListAppointmentsQuery struct {
	From           *time.Time
	To             *time.Time
	CareGiverID    *uuid.UUID
	CareReceiverID *uuid.UUID
	Status         *string
	Page           int
	Limit          int
}

// AppointmentPage is one page of appointment listings.
type AppointmentPage struct {
	Appointments []AppointmentDTO `json:"appointments"`
	Total        int              `json:"total"`
	Page         int              `json:"page"`
	Limit        int              `json:"limit"`
	TotalPages   int              `json:"total_pages"`
}

// ListAppointmentsHandler handles the ListAppointmentsQuery.
type ListAppointmentsHandler struct {
	appointments  domain.AppointmentRepository
	careGivers    directoryDomain.CareGiverRepository
	careReceivers directoryDomain.CareReceiverRepository
}

// NewListAppointmentsHandler creates a new ListAppointmentsHandler.
func NewListAppointmentsHandler(
	appointments domain.AppointmentRepository,
	careGivers directoryDomain.CareGiverRepository,
	careReceivers directoryDomain.CareReceiverRepository,
) *ListAppointmentsHandler {
	return &ListAppointmentsHandler{
		appointments:  appointments,
		careGivers:    careGivers,
		careReceivers: careReceivers,
	}
}

// Handle executes the ListAppointmentsQuery.
func (h *ListAppointmentsHandler) Handle(ctx context.Context, query ListAppointmentsQuery) (*AppointmentPage, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	filter := domain.AppointmentFilter{
		From:           query.From,
		To:             query.To,
		CareGiverID:    query.CareGiverID,
		CareReceiverID: query.CareReceiverID,
		Page:           page,
		Limit:          limit,
	}
	if query.Status != nil {
		status, err := domain.ParseAppointmentStatus(*query.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = &status
	}

	appointments, total, err := h.appointments.Search(ctx, filter)
	if err != nil {
		return nil, err
	}

	names, err := BuildNameIndex(ctx, h.careGivers, h.careReceivers, appointments)
	if err != nil {
		return nil, err
	}

	dtos := make([]AppointmentDTO, 0, len(appointments))
	for _, appt := range appointments {
		dtos = append(dtos, NewAppointmentDTO(appt, names))
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return &AppointmentPage{
		Appointments: dtos,
		Total:        total,
		Page:         page,
		Limit:        limit,
		TotalPages:   totalPages,
	}, nil
}
