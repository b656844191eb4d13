package domain

import (
	"errors"
	"strings"
	"time"

	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/domicare/rota/pkg/geo"
	"github.com/google/uuid"
)

var (
	ErrCareGiverEmptyName    = errors.New("care giver first and last name cannot be empty")
	ErrCareGiverEmptyEmail   = errors.New("care giver email cannot be empty")
	ErrCareGiverInactive     = errors.New("care giver is inactive")
	ErrCareGiverMaxReceivers = errors.New("max receivers must be positive")
)

// CareGiver is a member of the care workforce. The inline weekly schedule
// and holiday list act as the default availability; an availability
// version, when one exists, supersedes both.
type CareGiver struct {
	sharedDomain.BaseAggregateRoot
	firstName        string
	lastName         string
	email            string
	phone            string
	addressLine      string
	city             string
	postcode         string
	location         geo.Coordinates
	gender           sharedDomain.Gender
	skills           []sharedDomain.Skill
	canDrive         bool
	singleHandedOnly bool
	maxReceivers     int
	weeklySchedule   sharedDomain.WeeklySchedule
	holidays         []sharedDomain.TimeOffInterval
	active           bool
}

// NewCareGiver creates a care giver with the given identity and skills.
func NewCareGiver(firstName, lastName, email string, gender sharedDomain.Gender, skills []sharedDomain.Skill) (*CareGiver, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return nil, ErrCareGiverEmptyName
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrCareGiverEmptyEmail
	}

	if !gender.IsValid() {
		return nil, sharedDomain.ErrUnknownGender
	}

	cg := &CareGiver{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		firstName:         firstName,
		lastName:          lastName,
		email:             email,
		gender:            gender,
		skills:            skills,
		maxReceivers:      10,
		weeklySchedule:    sharedDomain.WeeklySchedule{},
		holidays:          make([]sharedDomain.TimeOffInterval, 0),
		active:            true,
	}

	cg.AddDomainEvent(NewCareGiverCreated(cg))

	return cg, nil
}

// Getters
func (cg *CareGiver) FirstName() string                           { return cg.firstName }
func (cg *CareGiver) LastName() string                            { return cg.lastName }
func (cg *CareGiver) Email() string                               { return cg.email }
func (cg *CareGiver) Phone() string                               { return cg.phone }
func (cg *CareGiver) AddressLine() string                         { return cg.addressLine }
func (cg *CareGiver) City() string                                { return cg.city }
func (cg *CareGiver) Postcode() string                            { return cg.postcode }
func (cg *CareGiver) Location() geo.Coordinates                   { return cg.location }
func (cg *CareGiver) Gender() sharedDomain.Gender                 { return cg.gender }
func (cg *CareGiver) Skills() []sharedDomain.Skill                { return cg.skills }
func (cg *CareGiver) CanDrive() bool                              { return cg.canDrive }
func (cg *CareGiver) SingleHandedOnly() bool                      { return cg.singleHandedOnly }
func (cg *CareGiver) MaxReceivers() int                           { return cg.maxReceivers }
func (cg *CareGiver) WeeklySchedule() sharedDomain.WeeklySchedule { return cg.weeklySchedule }
func (cg *CareGiver) Holidays() []sharedDomain.TimeOffInterval    { return cg.holidays }
func (cg *CareGiver) IsActive() bool                              { return cg.active }

// FullName returns "First Last", used for stable candidate ordering.
func (cg *CareGiver) FullName() string {
	return cg.firstName + " " + cg.lastName
}

// HasSkills reports whether the care giver covers every required skill.
func (cg *CareGiver) HasSkills(required []sharedDomain.Skill) bool {
	return sharedDomain.HasAllSkills(cg.skills, required)
}

// SetName updates the care giver's name.
func (cg *CareGiver) SetName(firstName, lastName string) error {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return ErrCareGiverEmptyName
	}
	cg.firstName = firstName
	cg.lastName = lastName
	cg.Touch()
	return nil
}

// SetContact updates email and phone.
func (cg *CareGiver) SetContact(email, phone string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrCareGiverEmptyEmail
	}
	cg.email = email
	cg.phone = strings.TrimSpace(phone)
	cg.Touch()
	return nil
}

// SetAddress updates the home address. The caller resolves coordinates
// separately since geocoding is an infrastructure concern.
func (cg *CareGiver) SetAddress(line, city, postcode string) {
	cg.addressLine = strings.TrimSpace(line)
	cg.city = strings.TrimSpace(city)
	cg.postcode = strings.TrimSpace(postcode)
	cg.Touch()
}

// SetLocation pins the home coordinates.
func (cg *CareGiver) SetLocation(location geo.Coordinates) {
	cg.location = location
	cg.Touch()
}

// SetSkills replaces the skill set.
func (cg *CareGiver) SetSkills(skills []sharedDomain.Skill) {
	cg.skills = skills
	cg.Touch()
}

// SetCanDrive updates the driving flag.
func (cg *CareGiver) SetCanDrive(canDrive bool) {
	cg.canDrive = canDrive
	cg.Touch()
}

// SetSingleHandedOnly updates the double-handed exclusion flag. A care
// giver marked single-handed never takes part in a double-handed visit,
// in either role.
func (cg *CareGiver) SetSingleHandedOnly(singleHandedOnly bool) {
	cg.singleHandedOnly = singleHandedOnly
	cg.Touch()
}

// SetMaxReceivers updates the soft receiver cap.
func (cg *CareGiver) SetMaxReceivers(limit int) error {
	if limit <= 0 {
		return ErrCareGiverMaxReceivers
	}
	cg.maxReceivers = limit
	cg.Touch()
	return nil
}

// SetWeeklySchedule replaces the inline default weekly pattern.
func (cg *CareGiver) SetWeeklySchedule(schedule sharedDomain.WeeklySchedule) error {
	if err := schedule.Validate(); err != nil {
		return err
	}
	cg.weeklySchedule = schedule
	cg.Touch()
	cg.AddDomainEvent(NewCareGiverScheduleChanged(cg))
	return nil
}

// SetHolidays replaces the inline holiday list.
func (cg *CareGiver) SetHolidays(holidays []sharedDomain.TimeOffInterval) {
	cg.holidays = holidays
	cg.Touch()
}

// Deactivate removes the care giver from scheduling consideration.
func (cg *CareGiver) Deactivate() {
	if cg.active {
		cg.active = false
		cg.Touch()
		cg.AddDomainEvent(NewCareGiverDeactivated(cg))
	}
}

// Activate restores the care giver to scheduling consideration.
func (cg *CareGiver) Activate() {
	if !cg.active {
		cg.active = true
		cg.Touch()
	}
}

// IsOnHoliday reports whether an inline holiday covers the given date.
// Only consulted when no availability version exists for the care giver.
func (cg *CareGiver) IsOnHoliday(date time.Time) bool {
	_, covered := sharedDomain.CoveringTimeOff(cg.holidays, date)
	return covered
}

// RehydrateCareGiver recreates a care giver from persisted state without
// generating events.
func RehydrateCareGiver(
	id uuid.UUID,
	firstName, lastName, email, phone string,
	addressLine, city, postcode string,
	location geo.Coordinates,
	gender sharedDomain.Gender,
	skills []sharedDomain.Skill,
	canDrive, singleHandedOnly bool,
	maxReceivers int,
	weeklySchedule sharedDomain.WeeklySchedule,
	holidays []sharedDomain.TimeOffInterval,
	active bool,
	createdAt, updatedAt time.Time,
	version int,
) *CareGiver {
	baseEntity := sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt)
	baseAggregate := sharedDomain.RehydrateBaseAggregateRoot(baseEntity, version)

	return &CareGiver{
		BaseAggregateRoot: baseAggregate,
		firstName:         firstName,
		lastName:          lastName,
		email:             email,
		phone:             phone,
		addressLine:       addressLine,
		city:              city,
		postcode:          postcode,
		location:          location,
		gender:            gender,
		skills:            skills,
		canDrive:          canDrive,
		singleHandedOnly:  singleHandedOnly,
		maxReceivers:      maxReceivers,
		weeklySchedule:    weeklySchedule,
		holidays:          holidays,
		active:            active,
	}
}
