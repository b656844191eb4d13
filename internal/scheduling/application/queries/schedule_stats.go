package queries

import (
	"context"
	"time"

	"github.com/domicare/rota/internal/scheduling/domain"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
)

// ScheduleStatsQuery summarizes appointments in a date range.
type ScheduleStatsQuery struct {
	StartDate time.Time
	EndDate   time.Time
}

// ScheduleStatsDTO carries per-status counts plus the completion
// rate: completed appointments over all appointments in the range,
// zero when the range is empty.
type ScheduleStatsDTO struct {
	StartDate      time.Time      `json:"start_date"`
	EndDate        time.Time      `json:"end_date"`
	Total          int            `json:"total"`
	ByStatus       map[string]int `json:"by_status"`
	CompletionRate float64        `json:"completion_rate"`
}

// ScheduleStatsHandler handles the ScheduleStatsQuery.
type ScheduleStatsHandler struct {
	appointments domain.AppointmentRepository
}

// NewScheduleStatsHandler creates a new ScheduleStatsHandler.
func NewScheduleStatsHandler(appointments domain.AppointmentRepository) *ScheduleStatsHandler {
	return &ScheduleStatsHandler{appointments: appointments}
}

// Handle executes the ScheduleStatsQuery.
func (h *ScheduleStatsHandler) Handle(ctx context.Context, query ScheduleStatsQuery) (*ScheduleStatsDTO, error) {
	from := sharedDomain.UTCDay(query.StartDate)
	to := sharedDomain.UTCDay(query.EndDate)
	if to.Before(from) {
		return nil, ErrInvalidDateRange
	}

	counts, err := h.appointments.CountByStatus(ctx, from, to)
	if err != nil {
		return nil, err
	}

	stats := &ScheduleStatsDTO{
		StartDate: from,
		EndDate:   to,
		ByStatus:  make(map[string]int, len(counts)),
	}
	for status, count := range counts {
		stats.ByStatus[status.String()] = count
		stats.Total += count
	}
	if stats.Total > 0 {
		stats.CompletionRate = float64(counts[domain.StatusCompleted]) / float64(stats.Total)
	}

	return stats, nil
}
