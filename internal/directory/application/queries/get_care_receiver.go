package queries

import (
	"context"
	"errors"
	"time"

	"github.com/domicare/rota/internal/directory/domain"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/domicare/rota/pkg/geo"
	"github.com/google/uuid"
)

var ErrCareReceiverNotFound = errors.New("care receiver not found")

// VisitTemplateDTO is the query-side representation of one recurring
// visit.
type VisitTemplateDTO struct {
	ID                  uuid.UUID  `json:"id"`
	VisitNumber         int        `json:"visit_number"`
	PreferredTime       string     `json:"preferred_time"`
	DurationMinutes     int        `json:"duration_minutes"`
	Requirements        []string   `json:"requirements"`
	DoubleHanded        bool       `json:"double_handed"`
	Priority            int        `json:"priority"`
	DaysOfWeek          []string   `json:"days_of_week"`
	Recurrence          string     `json:"recurrence"`
	RecurrenceInterval  int        `json:"recurrence_interval"`
	RecurrenceStartDate *time.Time `json:"recurrence_start_date,omitempty"`
}

// NewVisitTemplateDTO maps a visit template to its DTO.
func NewVisitTemplateDTO(vt *domain.VisitTemplate) VisitTemplateDTO {
	return VisitTemplateDTO{
		ID:                  vt.ID(),
		VisitNumber:         vt.VisitNumber(),
		PreferredTime:       vt.PreferredTime().String(),
		DurationMinutes:     vt.DurationMinutes(),
		Requirements:        sharedDomain.SkillStrings(vt.Requirements()),
		DoubleHanded:        vt.DoubleHanded(),
		Priority:            vt.Priority(),
		DaysOfWeek:          sharedDomain.DayOfWeekStrings(vt.DaysOfWeek()),
		Recurrence:          vt.Recurrence().String(),
		RecurrenceInterval:  vt.RecurrenceInterval(),
		RecurrenceStartDate: vt.RecurrenceStartDate(),
	}
}

// CareReceiverDTO is the query-side representation of a care receiver
// and their visit templates.
type CareReceiverDTO struct {
	ID                    uuid.UUID          `json:"id"`
	FirstName             string             `json:"first_name"`
	LastName              string             `json:"last_name"`
	Phone                 string             `json:"phone,omitempty"`
	AddressLine           string             `json:"address_line,omitempty"`
	City                  string             `json:"city,omitempty"`
	Postcode              string             `json:"postcode,omitempty"`
	Location              geo.Coordinates    `json:"location"`
	Gender                string             `json:"gender"`
	GenderPreference      string             `json:"gender_preference"`
	PreferredCareGiverID  *uuid.UUID         `json:"preferred_care_giver_id,omitempty"`
	VisitTemplates        []VisitTemplateDTO `json:"visit_templates"`
	TotalDailyCareMinutes int                `json:"total_daily_care_minutes"`
	IsActive              bool               `json:"is_active"`
	CreatedAt             time.Time          `json:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at"`
}

// NewCareReceiverDTO maps a domain care receiver to its DTO.
func NewCareReceiverDTO(cr *domain.CareReceiver) CareReceiverDTO {
	templates := make([]VisitTemplateDTO, 0, len(cr.VisitTemplates()))
	for _, vt := range cr.VisitTemplates() {
		templates = append(templates, NewVisitTemplateDTO(vt))
	}

	return CareReceiverDTO{
		ID:                    cr.ID(),
		FirstName:             cr.FirstName(),
		LastName:              cr.LastName(),
		Phone:                 cr.Phone(),
		AddressLine:           cr.AddressLine(),
		City:                  cr.City(),
		Postcode:              cr.Postcode(),
		Location:              cr.Location(),
		Gender:                cr.Gender().String(),
		GenderPreference:      cr.GenderPreference().String(),
		PreferredCareGiverID:  cr.PreferredCareGiverID(),
		VisitTemplates:        templates,
		TotalDailyCareMinutes: cr.TotalDailyCareMinutes(),
		IsActive:              cr.IsActive(),
		CreatedAt:             cr.CreatedAt(),
		UpdatedAt:             cr.UpdatedAt(),
	}
}

// GetCareReceiverQuery fetches a single care receiver by ID.
type GetCareReceiverQuery struct {
	CareReceiverID uuid.UUID
}

// GetCareReceiverHandler handles the GetCareReceiverQuery.
type GetCareReceiverHandler struct {
	repo domain.CareReceiverRepository
}

// NewGetCareReceiverHandler creates a new GetCareReceiverHandler.
func NewGetCareReceiverHandler(repo domain.CareReceiverRepository) *GetCareReceiverHandler {
	return &GetCareReceiverHandler{repo: repo}
}

// Handle executes the GetCareReceiverQuery.
func (h *GetCareReceiverHandler) Handle(ctx context.Context, query GetCareReceiverQuery) (*CareReceiverDTO, error) {
	cr, err := h.repo.FindByID(ctx, query.CareReceiverID)
	if err != nil {
		return nil, err
	}
	if cr == nil {
		return nil, ErrCareReceiverNotFound
	}

	dto := NewCareReceiverDTO(cr)
	return &dto, nil
}
