package domain

import (
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	careGiverAggregate    = "CareGiver"
	careReceiverAggregate = "CareReceiver"
)

// CareGiverCreated is emitted when a care giver joins the directory.
type CareGiverCreated struct {
	sharedDomain.BaseEvent
	CareGiverID uuid.UUID `json:"care_giver_id"`
	Name        string    `json:"name"`
	Skills      []string  `json:"skills"`
}

// NewCareGiverCreated creates a CareGiverCreated event.
func NewCareGiverCreated(cg *CareGiver) *CareGiverCreated {
	return &CareGiverCreated{
		BaseEvent:   sharedDomain.NewBaseEvent(cg.ID(), careGiverAggregate, "rota.care_giver.created"),
		CareGiverID: cg.ID(),
		Name:        cg.FullName(),
		Skills:      sharedDomain.SkillStrings(cg.Skills()),
	}
}

// CareGiverScheduleChanged is emitted when the inline default weekly
// pattern changes. Downstream consumers may want to revalidate affected
// appointments.
type CareGiverScheduleChanged struct {
	sharedDomain.BaseEvent
	CareGiverID uuid.UUID `json:"care_giver_id"`
}

// NewCareGiverScheduleChanged creates a CareGiverScheduleChanged event.
func NewCareGiverScheduleChanged(cg *CareGiver) *CareGiverScheduleChanged {
	return &CareGiverScheduleChanged{
		BaseEvent:   sharedDomain.NewBaseEvent(cg.ID(), careGiverAggregate, "rota.care_giver.schedule_changed"),
		CareGiverID: cg.ID(),
	}
}

// CareGiverDeactivated is emitted when a care giver leaves the active
// workforce.
type CareGiverDeactivated struct {
	sharedDomain.BaseEvent
	CareGiverID uuid.UUID `json:"care_giver_id"`
}

// NewCareGiverDeactivated creates a CareGiverDeactivated event.
func NewCareGiverDeactivated(cg *CareGiver) *CareGiverDeactivated {
	return &CareGiverDeactivated{
		BaseEvent:   sharedDomain.NewBaseEvent(cg.ID(), careGiverAggregate, "rota.care_giver.deactivated"),
		CareGiverID: cg.ID(),
	}
}

// CareReceiverCreated is emitted when a care receiver joins the
// directory.
type CareReceiverCreated struct {
	sharedDomain.BaseEvent
	CareReceiverID uuid.UUID `json:"care_receiver_id"`
	Name           string    `json:"name"`
}

// NewCareReceiverCreated creates a CareReceiverCreated event.
func NewCareReceiverCreated(cr *CareReceiver) *CareReceiverCreated {
	return &CareReceiverCreated{
		BaseEvent:      sharedDomain.NewBaseEvent(cr.ID(), careReceiverAggregate, "rota.care_receiver.created"),
		CareReceiverID: cr.ID(),
		Name:           cr.FullName(),
	}
}

// CareReceiverDeactivated is emitted when a care receiver stops
// receiving care.
type CareReceiverDeactivated struct {
	sharedDomain.BaseEvent
	CareReceiverID uuid.UUID `json:"care_receiver_id"`
}

// NewCareReceiverDeactivated creates a CareReceiverDeactivated event.
func NewCareReceiverDeactivated(cr *CareReceiver) *CareReceiverDeactivated {
	return &CareReceiverDeactivated{
		BaseEvent:      sharedDomain.NewBaseEvent(cr.ID(), careReceiverAggregate, "rota.care_receiver.deactivated"),
		CareReceiverID: cr.ID(),
	}
}

// VisitTemplateAdded is emitted when a visit template is added to a
// receiver.
type VisitTemplateAdded struct {
	sharedDomain.BaseEvent
	CareReceiverID uuid.UUID `json:"care_receiver_id"`
	TemplateID     uuid.UUID `json:"template_id"`
	VisitNumber    int       `json:"visit_number"`
	DoubleHanded   bool      `json:"double_handed"`
}

// NewVisitTemplateAdded creates a VisitTemplateAdded event.
func NewVisitTemplateAdded(cr *CareReceiver, vt *VisitTemplate) *VisitTemplateAdded {
	return &VisitTemplateAdded{
		BaseEvent:      sharedDomain.NewBaseEvent(cr.ID(), careReceiverAggregate, "rota.visit_template.added"),
		CareReceiverID: cr.ID(),
		TemplateID:     vt.ID(),
		VisitNumber:    vt.VisitNumber(),
		DoubleHanded:   vt.DoubleHanded(),
	}
}

// VisitTemplateRemoved is emitted when a visit template is removed.
// Remaining templates are renumbered to keep the 1..n sequence.
type VisitTemplateRemoved struct {
	sharedDomain.BaseEvent
	CareReceiverID uuid.UUID `json:"care_receiver_id"`
	TemplateID     uuid.UUID `json:"template_id"`
	VisitNumber    int       `json:"visit_number"`
}

// NewVisitTemplateRemoved creates a VisitTemplateRemoved event.
func NewVisitTemplateRemoved(cr *CareReceiver, vt *VisitTemplate) *VisitTemplateRemoved {
	return &VisitTemplateRemoved{
		BaseEvent:      sharedDomain.NewBaseEvent(cr.ID(), careReceiverAggregate, "rota.visit_template.removed"),
		CareReceiverID: cr.ID(),
		TemplateID:     vt.ID(),
		VisitNumber:    vt.VisitNumber(),
	}
}
