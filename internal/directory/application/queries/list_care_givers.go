package queries

import (
	"context"

	"github.com/domicare/rota/internal/directory/domain"
)

// ListCareGiversQuery fetches care givers ordered by name. Inactive
// records are excluded unless IncludeInactive is set.
type ListCareGiversQuery struct {
	IncludeInactive bool
}

// ListCareGiversHandler handles the ListCareGiversQuery.
type ListCareGiversHandler struct {
	repo domain.CareGiverRepository
}

// NewListCareGiversHandler creates a new ListCareGiversHandler.
func NewListCareGiversHandler(repo domain.CareGiverRepository) *ListCareGiversHandler {
	return &ListCareGiversHandler{repo: repo}
}

// Handle executes the ListCareGiversQuery.
func (h *ListCareGiversHandler) Handle(ctx context.Context, query ListCareGiversQuery) ([]CareGiverDTO, error) {
	var (
		careGivers []*domain.CareGiver
		err        error
	)
	if query.IncludeInactive {
		careGivers, err = h.repo.FindAll(ctx)
	} else {
		careGivers, err = h.repo.FindActive(ctx)
	}
	if err != nil {
		return nil, err
	}

	dtos := make([]CareGiverDTO, 0, len(careGivers))
	for _, cg := range careGivers {
		dtos = append(dtos, NewCareGiverDTO(cg))
	}
	return dtos, nil
}
