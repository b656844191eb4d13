package domain

import (
	"time"

	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/google/uuid"
)

const aggregateType = "AvailabilityVersion"

// VersionCreated is emitted when a new availability version takes
// effect. Appointments scheduled under the superseded version may need
// revalidation.
type VersionCreated struct {
	sharedDomain.BaseEvent
	VersionID     uuid.UUID `json:"version_id"`
	CareGiverID   uuid.UUID `json:"care_giver_id"`
	VersionNumber int       `json:"version_number"`
	EffectiveFrom time.Time `json:"effective_from"`
}

// NewVersionCreated creates a VersionCreated event.
func NewVersionCreated(av *AvailabilityVersion) *VersionCreated {
	return &VersionCreated{
		BaseEvent:     sharedDomain.NewBaseEvent(av.ID(), aggregateType, "rota.availability.version_created"),
		VersionID:     av.ID(),
		CareGiverID:   av.CareGiverID(),
		VersionNumber: av.VersionNumber(),
		EffectiveFrom: av.EffectiveFrom(),
	}
}
