package queries

import (
	"context"

	"github.com/domicare/rota/internal/availability/domain"
	"github.com/google/uuid"
)

// GetHistoryQuery contains the parameters for listing a care giver's
// availability history.
type GetHistoryQuery struct {
	CareGiverID uuid.UUID
}

// GetHistoryHandler handles the GetHistoryQuery.
type GetHistoryHandler struct {
	versionRepo domain.Repository
}

// NewGetHistoryHandler creates a new GetHistoryHandler.
func NewGetHistoryHandler(versionRepo domain.Repository) *GetHistoryHandler {
	return &GetHistoryHandler{versionRepo: versionRepo}
}

// Handle executes the GetHistoryQuery. Newest version first; an empty
// slice for care givers without stored versions.
func (h *GetHistoryHandler) Handle(ctx context.Context, query GetHistoryQuery) ([]VersionDTO, error) {
	versions, err := h.versionRepo.History(ctx, query.CareGiverID)
	if err != nil {
		return nil, err
	}

	dtos := make([]VersionDTO, 0, len(versions))
	for _, v := range versions {
		dtos = append(dtos, NewVersionDTO(v))
	}
	return dtos, nil
}
