package queries

import (
	"context"
	"errors"
	"time"

	directoryDomain "github.com/domicare/rota/internal/directory/domain"
	"github.com/domicare/rota/internal/scheduling/application/services"
	"github.com/google/uuid"
)

var ErrCareReceiverNotFound = errors.New("care receiver not found")

// AnalyzeUnscheduledQuery asks why a particular visit is hard to
// place: which care givers are ruled out and why, and how well each
// one matches.
type AnalyzeUnscheduledQuery struct {
	CareReceiverID uuid.UUID
	VisitNumber    int
	Date           time.Time
}

// CareGiverMatchDTO is the graded verdict on one care giver.
type CareGiverMatchDTO struct {
	CareGiverID      uuid.UUID `json:"care_giver_id"`
	Name             string    `json:"name"`
	CanAssign        bool      `json:"can_assign"`
	RejectionReasons []string  `json:"rejection_reasons"`
	MatchScore       int       `json:"match_score"`
	DistanceKm       *float64  `json:"distance_km,omitempty"`
}

// MatchReportDTO is the analyzer report for one visit.
type MatchReportDTO struct {
	CareReceiverID   uuid.UUID           `json:"care_receiver_id"`
	CareReceiverName string              `json:"care_receiver_name"`
	VisitNumber      int                 `json:"visit_number"`
	Date             time.Time           `json:"date"`
	StartTime        string              `json:"start_time"`
	EndTime          string              `json:"end_time"`
	Matches          []CareGiverMatchDTO `json:"matches"`
}

// AnalyzeUnscheduledHandler handles the AnalyzeUnscheduledQuery.
type AnalyzeUnscheduledHandler struct {
	careReceivers directoryDomain.CareReceiverRepository
	analyzer      *services.MatchAnalyzer
}

// NewAnalyzeUnscheduledHandler creates a new AnalyzeUnscheduledHandler.
func NewAnalyzeUnscheduledHandler(
	careReceivers directoryDomain.CareReceiverRepository,
	analyzer *services.MatchAnalyzer,
) *AnalyzeUnscheduledHandler {
	return &AnalyzeUnscheduledHandler{
		careReceivers: careReceivers,
		analyzer:      analyzer,
	}
}

// Handle executes the AnalyzeUnscheduledQuery.
func (h *AnalyzeUnscheduledHandler) Handle(ctx context.Context, query AnalyzeUnscheduledQuery) (*MatchReportDTO, error) {
	receiver, err := h.careReceivers.FindByID(ctx, query.CareReceiverID)
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		return nil, ErrCareReceiverNotFound
	}

	template, err := receiver.VisitTemplate(query.VisitNumber)
	if err != nil {
		return nil, err
	}

	report, err := h.analyzer.Analyze(ctx, receiver, template, query.Date)
	if err != nil {
		return nil, err
	}

	dto := &MatchReportDTO{
		CareReceiverID:   receiver.ID(),
		CareReceiverName: receiver.FullName(),
		VisitNumber:      template.VisitNumber(),
		Date:             report.Date,
		StartTime:        report.Window.Start.String(),
		EndTime:          report.Window.End.String(),
		Matches:          make([]CareGiverMatchDTO, 0, len(report.Matches)),
	}
	for _, match := range report.Matches {
		dto.Matches = append(dto.Matches, CareGiverMatchDTO{
			CareGiverID:      match.CareGiverID,
			Name:             match.Name,
			CanAssign:        match.CanAssign,
			RejectionReasons: match.RejectionReasons,
			MatchScore:       match.MatchScore,
			DistanceKm:       match.DistanceKm,
		})
	}

	return dto, nil
}
