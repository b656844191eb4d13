package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/domicare/rota/pkg/geo"
	"github.com/google/uuid"
)

var (
	ErrCareReceiverEmptyName = errors.New("care receiver first and last name cannot be empty")
	ErrCareReceiverInactive  = errors.New("care receiver is inactive")
	ErrVisitNumberOutOfOrder = errors.New("visit numbers must be sequential starting at 1")
	ErrVisitTemplateNotFound = errors.New("visit template not found")
)

// CareReceiver is a person receiving domiciliary care. It owns the
// ordered list of visit templates that describe the recurring visits the
// receiver needs.
type CareReceiver struct {
	sharedDomain.BaseAggregateRoot
	firstName            string
	lastName             string
	phone                string
	addressLine          string
	city                 string
	postcode             string
	location             geo.Coordinates
	gender               sharedDomain.Gender
	genderPreference     sharedDomain.GenderPreference
	preferredCareGiverID *uuid.UUID
	visitTemplates       []*VisitTemplate
	active               bool
}

// NewCareReceiver creates a care receiver with the given identity.
func NewCareReceiver(firstName, lastName string, gender sharedDomain.Gender, preference sharedDomain.GenderPreference) (*CareReceiver, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return nil, ErrCareReceiverEmptyName
	}

	if !gender.IsValid() {
		return nil, sharedDomain.ErrUnknownGender
	}
	if !preference.IsValid() {
		return nil, sharedDomain.ErrUnknownGenderPreference
	}

	cr := &CareReceiver{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		firstName:         firstName,
		lastName:          lastName,
		gender:            gender,
		genderPreference:  preference,
		visitTemplates:    make([]*VisitTemplate, 0),
		active:            true,
	}

	cr.AddDomainEvent(NewCareReceiverCreated(cr))

	return cr, nil
}

// Getters
func (cr *CareReceiver) FirstName() string                               { return cr.firstName }
func (cr *CareReceiver) LastName() string                                { return cr.lastName }
func (cr *CareReceiver) Phone() string                                   { return cr.phone }
func (cr *CareReceiver) AddressLine() string                             { return cr.addressLine }
func (cr *CareReceiver) City() string                                    { return cr.city }
func (cr *CareReceiver) Postcode() string                                { return cr.postcode }
func (cr *CareReceiver) Location() geo.Coordinates                       { return cr.location }
func (cr *CareReceiver) Gender() sharedDomain.Gender                     { return cr.gender }
func (cr *CareReceiver) GenderPreference() sharedDomain.GenderPreference { return cr.genderPreference }
func (cr *CareReceiver) PreferredCareGiverID() *uuid.UUID                { return cr.preferredCareGiverID }
func (cr *CareReceiver) VisitTemplates() []*VisitTemplate                { return cr.visitTemplates }
func (cr *CareReceiver) IsActive() bool                                  { return cr.active }

// FullName returns "First Last".
func (cr *CareReceiver) FullName() string {
	return cr.firstName + " " + cr.lastName
}

// SetName updates the care receiver's name.
func (cr *CareReceiver) SetName(firstName, lastName string) error {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return ErrCareReceiverEmptyName
	}
	cr.firstName = firstName
	cr.lastName = lastName
	cr.Touch()
	return nil
}

// SetPhone updates the contact number.
func (cr *CareReceiver) SetPhone(phone string) {
	cr.phone = strings.TrimSpace(phone)
	cr.Touch()
}

// SetAddress updates the home address. Coordinates are resolved by the
// caller.
func (cr *CareReceiver) SetAddress(line, city, postcode string) {
	cr.addressLine = strings.TrimSpace(line)
	cr.city = strings.TrimSpace(city)
	cr.postcode = strings.TrimSpace(postcode)
	cr.Touch()
}

// SetLocation pins the home coordinates.
func (cr *CareReceiver) SetLocation(location geo.Coordinates) {
	cr.location = location
	cr.Touch()
}

// SetGenderPreference updates which care-giver gender the receiver
// accepts.
func (cr *CareReceiver) SetGenderPreference(preference sharedDomain.GenderPreference) error {
	if !preference.IsValid() {
		return sharedDomain.ErrUnknownGenderPreference
	}
	cr.genderPreference = preference
	cr.Touch()
	return nil
}

// SetPreferredCareGiver records the preferred care giver, nil to clear.
// The reference is advisory; scheduling treats it as a scoring bonus,
// never a hard constraint.
func (cr *CareReceiver) SetPreferredCareGiver(id *uuid.UUID) {
	cr.preferredCareGiverID = id
	cr.Touch()
}

// Deactivate removes the receiver from scheduling consideration.
func (cr *CareReceiver) Deactivate() {
	if cr.active {
		cr.active = false
		cr.Touch()
		cr.AddDomainEvent(NewCareReceiverDeactivated(cr))
	}
}

// Activate restores the receiver to scheduling consideration.
func (cr *CareReceiver) Activate() {
	if !cr.active {
		cr.active = true
		cr.Touch()
	}
}

// VisitTemplate returns the template with the given visit number.
func (cr *CareReceiver) VisitTemplate(visitNumber int) (*VisitTemplate, error) {
	for _, vt := range cr.visitTemplates {
		if vt.VisitNumber() == visitNumber {
			return vt, nil
		}
	}
	return nil, fmt.Errorf("%w: visit %d", ErrVisitTemplateNotFound, visitNumber)
}

// AddVisitTemplate appends a template. Visit numbers must stay an exact
// 1..n sequence, so the new template's number must be len+1.
func (cr *CareReceiver) AddVisitTemplate(vt *VisitTemplate) error {
	if vt.VisitNumber() != len(cr.visitTemplates)+1 {
		return fmt.Errorf("%w: got visit %d with %d existing templates",
			ErrVisitNumberOutOfOrder, vt.VisitNumber(), len(cr.visitTemplates))
	}
	cr.visitTemplates = append(cr.visitTemplates, vt)
	cr.Touch()
	cr.AddDomainEvent(NewVisitTemplateAdded(cr, vt))
	return nil
}

// RemoveVisitTemplate deletes a template and renumbers the remainder so
// the 1..n sequence holds again.
func (cr *CareReceiver) RemoveVisitTemplate(visitNumber int) error {
	idx := -1
	for i, vt := range cr.visitTemplates {
		if vt.VisitNumber() == visitNumber {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: visit %d", ErrVisitTemplateNotFound, visitNumber)
	}

	removed := cr.visitTemplates[idx]
	cr.visitTemplates = append(cr.visitTemplates[:idx], cr.visitTemplates[idx+1:]...)
	for i, vt := range cr.visitTemplates {
		vt.renumber(i + 1)
	}
	cr.Touch()
	cr.AddDomainEvent(NewVisitTemplateRemoved(cr, removed))
	return nil
}

// TemplatesDueOn returns the templates that expand to a visit on the
// given date, ordered by visit number. The receiver's creation time
// anchors interval counting for templates without an explicit start
// date.
func (cr *CareReceiver) TemplatesDueOn(date time.Time) []*VisitTemplate {
	var due []*VisitTemplate
	for _, vt := range cr.visitTemplates {
		if vt.OccursOn(date, cr.CreatedAt()) {
			due = append(due, vt)
		}
	}
	return due
}

// TotalDailyCareMinutes sums the durations of every template, the care
// time a day with all visits due would take. Recomputed, never stored.
func (cr *CareReceiver) TotalDailyCareMinutes() int {
	total := 0
	for _, vt := range cr.visitTemplates {
		total += vt.DurationMinutes()
	}
	return total
}

// ValidateVisitNumbers checks the 1..n invariant over the current
// templates. Repositories call this before persisting rehydrated state.
func (cr *CareReceiver) ValidateVisitNumbers() error {
	for i, vt := range cr.visitTemplates {
		if vt.VisitNumber() != i+1 {
			return fmt.Errorf("%w: position %d holds visit %d",
				ErrVisitNumberOutOfOrder, i+1, vt.VisitNumber())
		}
	}
	return nil
}

// RehydrateCareReceiver recreates a care receiver from persisted state
// without generating events. Templates must arrive ordered by visit
// number.
func RehydrateCareReceiver(
	id uuid.UUID,
	firstName, lastName, phone string,
	addressLine, city, postcode string,
	location geo.Coordinates,
	gender sharedDomain.Gender,
	preference sharedDomain.GenderPreference,
	preferredCareGiverID *uuid.UUID,
	visitTemplates []*VisitTemplate,
	active bool,
	createdAt, updatedAt time.Time,
	version int,
) *CareReceiver {
	baseEntity := sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt)
	baseAggregate := sharedDomain.RehydrateBaseAggregateRoot(baseEntity, version)

	return &CareReceiver{
		BaseAggregateRoot:    baseAggregate,
		firstName:            firstName,
		lastName:             lastName,
		phone:                phone,
		addressLine:          addressLine,
		city:                 city,
		postcode:             postcode,
		location:             location,
		gender:               gender,
		genderPreference:     preference,
		preferredCareGiverID: preferredCareGiverID,
		visitTemplates:       visitTemplates,
		active:               active,
	}
}
