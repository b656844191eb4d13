package queries

import (
	"context"
	"errors"
	"time"

	directoryDomain "github.com/domicare/rota/internal/directory/domain"
	"github.com/domicare/rota/internal/scheduling/domain"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/google/uuid"
)

var ErrAppointmentNotFound = errors.New("appointment not found")

// AppointmentDTO is the query-side representation of an appointment.
// Names are denormalized so lists render without extra lookups.
type AppointmentDTO struct {
	ID                     uuid.UUID                   `json:"id"`
	CareReceiverID         uuid.UUID                   `json:"care_receiver_id"`
	CareReceiverName       string                      `json:"care_receiver_name,omitempty"`
	CareGiverID            uuid.UUID                   `json:"care_giver_id"`
	CareGiverName          string                      `json:"care_giver_name,omitempty"`
	SecondaryCareGiverID   *uuid.UUID                  `json:"secondary_care_giver_id,omitempty"`
	SecondaryCareGiverName string                      `json:"secondary_care_giver_name,omitempty"`
	Date                   time.Time                   `json:"date"`
	StartTime              string                      `json:"start_time"`
	EndTime                string                      `json:"end_time"`
	DurationMinutes        int                         `json:"duration_minutes"`
	VisitNumber            int                         `json:"visit_number"`
	Requirements           []string                    `json:"requirements"`
	DoubleHanded           bool                        `json:"double_handed"`
	Priority               int                         `json:"priority"`
	Status                 string                      `json:"status"`
	CancellationReason     string                      `json:"cancellation_reason,omitempty"`
	InvalidationReason     string                      `json:"invalidation_reason,omitempty"`
	InvalidatedAt          *time.Time                  `json:"invalidated_at,omitempty"`
	Snapshot               domain.AvailabilitySnapshot `json:"availability_snapshot"`
	CreatedAt              time.Time                   `json:"created_at"`
	UpdatedAt              time.Time                   `json:"updated_at"`
}

// NewAppointmentDTO maps a domain appointment to its DTO. The name
// resolver may be nil when names are not needed.
func NewAppointmentDTO(appt *domain.Appointment, names *NameIndex) AppointmentDTO {
	dto := AppointmentDTO{
		ID:                   appt.ID(),
		CareReceiverID:       appt.CareReceiverID(),
		CareGiverID:          appt.CareGiverID(),
		SecondaryCareGiverID: appt.SecondaryCareGiverID(),
		Date:                 appt.Date(),
		StartTime:            appt.StartTime().String(),
		EndTime:              appt.EndTime().String(),
		DurationMinutes:      appt.DurationMinutes(),
		VisitNumber:          appt.VisitNumber(),
		Requirements:         sharedDomain.SkillStrings(appt.Requirements()),
		DoubleHanded:         appt.DoubleHanded(),
		Priority:             appt.Priority(),
		Status:               appt.Status().String(),
		CancellationReason:   appt.CancellationReason(),
		InvalidationReason:   appt.InvalidationReason(),
		InvalidatedAt:        appt.InvalidatedAt(),
		Snapshot:             appt.Snapshot(),
		CreatedAt:            appt.CreatedAt(),
		UpdatedAt:            appt.UpdatedAt(),
	}
	if names != nil {
		dto.CareReceiverName = names.receiverNames[appt.CareReceiverID()]
		dto.CareGiverName = names.careGiverNames[appt.CareGiverID()]
		if id := appt.SecondaryCareGiverID(); id != nil {
			dto.SecondaryCareGiverName = names.careGiverNames[*id]
		}
	}
	return dto
}

// NameIndex caches the display names referenced by a batch of
// appointments so each person is looked up once.
type NameIndex struct {
	careGiverNames map[uuid.UUID]string
	receiverNames  map[uuid.UUID]string
}

// BuildNameIndex loads the names for every care giver and care receiver
// referenced by the given appointments. Unknown ids resolve to "".
func BuildNameIndex(
	ctx context.Context,
	careGivers directoryDomain.CareGiverRepository,
	careReceivers directoryDomain.CareReceiverRepository,
	appointments []*domain.Appointment,
) (*NameIndex, error) {
	index := &NameIndex{
		careGiverNames: make(map[uuid.UUID]string),
		receiverNames:  make(map[uuid.UUID]string),
	}

	for _, appt := range appointments {
		if _, ok := index.receiverNames[appt.CareReceiverID()]; !ok {
			receiver, err := careReceivers.FindByID(ctx, appt.CareReceiverID())
			if err != nil {
				return nil, err
			}
			name := ""
			if receiver != nil {
				name = receiver.FullName()
			}
			index.receiverNames[appt.CareReceiverID()] = name
		}

		ids := []uuid.UUID{appt.CareGiverID()}
		if secondary := appt.SecondaryCareGiverID(); secondary != nil {
			ids = append(ids, *secondary)
		}
		for _, id := range ids {
			if _, ok := index.careGiverNames[id]; ok {
				continue
			}
			cg, err := careGivers.FindByID(ctx, id)
			if err != nil {
				return nil, err
			}
			name := ""
			if cg != nil {
				name = cg.FullName()
			}
			index.careGiverNames[id] = name
		}
	}

	return index, nil
}

// GetAppointmentQuery fetches a single appointment by ID.
type GetAppointmentQuery struct {
	AppointmentID uuid.UUID
}

// GetAppointmentHandler handles the GetAppointmentQuery.
type GetAppointmentHandler struct {
	appointments  domain.AppointmentRepository
	careGivers    directoryDomain.CareGiverRepository
	careReceivers directoryDomain.CareReceiverRepository
}

// NewGetAppointmentHandler creates a new GetAppointmentHandler.
func NewGetAppointmentHandler(
	appointments domain.AppointmentRepository,
	careGivers directoryDomain.CareGiverRepository,
	careReceivers directoryDomain.CareReceiverRepository,
) *GetAppointmentHandler {
	return &GetAppointmentHandler{
		appointments:  appointments,
		careGivers:    careGivers,
		careReceivers: careReceivers,
	}
}

// Handle executes the GetAppointmentQuery.
func (h *GetAppointmentHandler) Handle(ctx context.Context, query GetAppointmentQuery) (*AppointmentDTO, error) {
	appt, err := h.appointments.FindByID(ctx, query.AppointmentID)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, ErrAppointmentNotFound
	}

	names, err := BuildNameIndex(ctx, h.careGivers, h.careReceivers, []*domain.Appointment{appt})
	if err != nil {
		return nil, err
	}

	dto := NewAppointmentDTO(appt, names)
	return &dto, nil
}
