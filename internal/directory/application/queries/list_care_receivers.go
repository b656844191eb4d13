package queries

import (
	"context"

	"github.com/domicare/rota/internal/directory/domain"
)

// ListCareReceiversQuery fetches care receivers ordered by name.
// Inactive records are excluded unless IncludeInactive is set.
type ListCareReceiversQuery struct {
	IncludeInactive bool
}

// ListCareReceiversHandler handles the ListCareReceiversQuery.
type ListCareReceiversHandler struct {
	repo domain.CareReceiverRepository
}

// NewListCareReceiversHandler creates a new ListCareReceiversHandler.
func NewListCareReceiversHandler(repo domain.CareReceiverRepository) *ListCareReceiversHandler {
	return &ListCareReceiversHandler{repo: repo}
}

// Handle executes the ListCareReceiversQuery.
func (h *ListCareReceiversHandler) Handle(ctx context.Context, query ListCareReceiversQuery) ([]CareReceiverDTO, error) {
	var (
		careReceivers []*domain.CareReceiver
		err           error
	)
	if query.IncludeInactive {
		careReceivers, err = h.repo.FindAll(ctx)
	} else {
		careReceivers, err = h.repo.FindActive(ctx)
	}
	if err != nil {
		return nil, err
	}

	dtos := make([]CareReceiverDTO, 0, len(careReceivers))
	for _, cr := range careReceivers {
		dtos = append(dtos, NewCareReceiverDTO(cr))
	}
	return dtos, nil
}
