package queries

import (
	"context"
	"sort"
	"testing"
	"time"

	availabilityDomain "github.com/domicare/rota/internal/availability/domain"
	directoryDomain "github.com/domicare/rota/internal/directory/domain"
	"github.com/domicare/rota/internal/scheduling/domain"
	settingsDomain "github.com/domicare/rota/internal/settings/domain"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/domicare/rota/pkg/geo"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory stubs shared by the query tests in this package.

type stubCareGiverRepo struct {
	givers []*directoryDomain.CareGiver
	err    error
}

func (s *stubCareGiverRepo) Save(ctx context.Context, cg *directoryDomain.CareGiver) error {
	return s.err
}

func (s *stubCareGiverRepo) FindByID(ctx context.Context, id uuid.UUID) (*directoryDomain.CareGiver, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, cg := range s.givers {
		if cg.ID() == id {
			return cg, nil
		}
	}
	return nil, nil
}

func (s *stubCareGiverRepo) FindAll(ctx context.Context) ([]*directoryDomain.CareGiver, error) {
	return s.givers, s.err
}

func (s *stubCareGiverRepo) FindActive(ctx context.Context) ([]*directoryDomain.CareGiver, error) {
	if s.err != nil {
		return nil, s.err
	}
	active := make([]*directoryDomain.CareGiver, 0, len(s.givers))
	for _, cg := range s.givers {
		if cg.IsActive() {
			active = append(active, cg)
		}
	}
	return active, nil
}

func (s *stubCareGiverRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return s.err
}

type stubCareReceiverRepo struct {
	receivers []*directoryDomain.CareReceiver
	err       error
}

func (s *stubCareReceiverRepo) Save(ctx context.Context, cr *directoryDomain.CareReceiver) error {
	return s.err
}

func (s *stubCareReceiverRepo) FindByID(ctx context.Context, id uuid.UUID) (*directoryDomain.CareReceiver, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, cr := range s.receivers {
		if cr.ID() == id {
			return cr, nil
		}
	}
	return nil, nil
}

func (s *stubCareReceiverRepo) FindAll(ctx context.Context) ([]*directoryDomain.CareReceiver, error) {
	return s.receivers, s.err
}

func (s *stubCareReceiverRepo) FindActive(ctx context.Context) ([]*directoryDomain.CareReceiver, error) {
	if s.err != nil {
		return nil, s.err
	}
	active := make([]*directoryDomain.CareReceiver, 0, len(s.receivers))
	for _, cr := range s.receivers {
		if cr.IsActive() {
			active = append(active, cr)
		}
	}
	return active, nil
}

func (s *stubCareReceiverRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return s.err
}

type stubAppointmentRepo struct {
	appointments []*domain.Appointment
	err          error
}

func (s *stubAppointmentRepo) Save(ctx context.Context, appt *domain.Appointment) error {
	if s.err != nil {
		return s.err
	}
	s.appointments = append(s.appointments, appt)
	return nil
}

func (s *stubAppointmentRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, appt := range s.appointments {
		if appt.ID() == id {
			return appt, nil
		}
	}
	return nil, nil
}

func (s *stubAppointmentRepo) FindByCareGiverAndDate(ctx context.Context, careGiverID uuid.UUID, date time.Time) ([]*domain.Appointment, error) {
	if s.err != nil {
		return nil, s.err
	}
	var found []*domain.Appointment
	for _, appt := range s.appointments {
		if appt.Involves(careGiverID) && sharedDomain.SameUTCDay(appt.Date(), date) {
			found = append(found, appt)
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Window().Start.Before(found[j].Window().Start)
	})
	return found, nil
}

func (s *stubAppointmentRepo) FindForVisit(ctx context.Context, careReceiverID uuid.UUID, date time.Time, visitNumber int) (*domain.Appointment, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, appt := range s.appointments {
		if appt.CareReceiverID() == careReceiverID &&
			sharedDomain.SameUTCDay(appt.Date(), date) &&
			appt.VisitNumber() == visitNumber {
			return appt, nil
		}
	}
	return nil, nil
}

func (s *stubAppointmentRepo) FindInWindow(ctx context.Context, from, to time.Time, statuses []domain.AppointmentStatus) ([]*domain.Appointment, error) {
	if s.err != nil {
		return nil, s.err
	}
	wanted := make(map[domain.AppointmentStatus]bool, len(statuses))
	for _, status := range statuses {
		wanted[status] = true
	}
	var found []*domain.Appointment
	for _, appt := range s.appointments {
		if appt.Date().Before(sharedDomain.UTCDay(from)) || appt.Date().After(sharedDomain.UTCDay(to)) {
			continue
		}
		if len(wanted) > 0 && !wanted[appt.Status()] {
			continue
		}
		found = append(found, appt)
	}
	return found, nil
}

// Search applies the full filter so pagination tests exercise the
// handler's defaults against realistic repository behaviour.
func (s *stubAppointmentRepo) Search(ctx context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, int, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	var matched []*domain.Appointment
	for _, appt := range s.appointments {
		if filter.From != nil && appt.Date().Before(sharedDomain.UTCDay(*filter.From)) {
			continue
		}
		if filter.To != nil && appt.Date().After(sharedDomain.UTCDay(*filter.To)) {
			continue
		}
		if filter.CareGiverID != nil && !appt.Involves(*filter.CareGiverID) {
			continue
		}
		if filter.CareReceiverID != nil && appt.CareReceiverID() != *filter.CareReceiverID {
			continue
		}
		if filter.Status != nil && appt.Status() != *filter.Status {
			continue
		}
		matched = append(matched, appt)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].Date().Equal(matched[j].Date()) {
			return matched[i].Date().Before(matched[j].Date())
		}
		return matched[i].Window().Start.Before(matched[j].Window().Start)
	})

	total := len(matched)
	start := (filter.Page - 1) * filter.Limit
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *stubAppointmentRepo) CountByStatus(ctx context.Context, from, to time.Time) (map[domain.AppointmentStatus]int, error) {
	if s.err != nil {
		return nil, s.err
	}
	counts := make(map[domain.AppointmentStatus]int)
	for _, appt := range s.appointments {
		if appt.Date().Before(sharedDomain.UTCDay(from)) || appt.Date().After(sharedDomain.UTCDay(to)) {
			continue
		}
		counts[appt.Status()]++
	}
	return counts, nil
}

func (s *stubAppointmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return s.err
}

type stubVersionRepo struct {
	versions []*availabilityDomain.AvailabilityVersion
}

func (s *stubVersionRepo) Save(ctx context.Context, av *availabilityDomain.AvailabilityVersion) error {
	return nil
}

func (s *stubVersionRepo) FindByID(ctx context.Context, id uuid.UUID) (*availabilityDomain.AvailabilityVersion, error) {
	return nil, availabilityDomain.ErrVersionNotFound
}

func (s *stubVersionRepo) FindOpenForUpdate(ctx context.Context, careGiverID uuid.UUID) ([]*availabilityDomain.AvailabilityVersion, error) {
	return nil, nil
}

func (s *stubVersionRepo) MaxVersionNumber(ctx context.Context, careGiverID uuid.UUID) (int, error) {
	return len(s.versions), nil
}

func (s *stubVersionRepo) CurrentFor(ctx context.Context, careGiverID uuid.UUID, at time.Time) (*availabilityDomain.AvailabilityVersion, error) {
	for _, v := range s.versions {
		if v.CareGiverID() == careGiverID && v.IsActive() && v.InForceAt(at) {
			return v, nil
		}
	}
	return nil, availabilityDomain.ErrVersionNotFound
}

func (s *stubVersionRepo) At(ctx context.Context, careGiverID uuid.UUID, at time.Time) (*availabilityDomain.AvailabilityVersion, error) {
	return s.CurrentFor(ctx, careGiverID, at)
}

func (s *stubVersionRepo) History(ctx context.Context, careGiverID uuid.UUID) ([]*availabilityDomain.AvailabilityVersion, error) {
	return s.versions, nil
}

type stubSettings struct {
	settings *settingsDomain.SystemSettings
	err      error
}

func (s *stubSettings) Current(ctx context.Context) (*settingsDomain.SystemSettings, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.settings != nil {
		return s.settings, nil
	}
	return settingsDomain.DefaultSystemSettings(), nil
}

type stubTravel struct {
	minutes int
}

func (s *stubTravel) DriveMinutes(ctx context.Context, from, to geo.Coordinates) int {
	return s.minutes
}

// testDay is a Monday.
var testDay = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func fullWeek(start, end string) sharedDomain.WeeklySchedule {
	slot := sharedDomain.MustTimeRange(start, end)
	schedule := sharedDomain.WeeklySchedule{}
	for _, day := range sharedDomain.AllDaysOfWeek() {
		schedule[day] = []sharedDomain.TimeRange{slot}
	}
	return schedule
}

func newTestCareGiver(t *testing.T, firstName string) *directoryDomain.CareGiver {
	t.Helper()

	cg, err := directoryDomain.NewCareGiver(firstName, "Shaw", firstName+".shaw@domicare.test",
		sharedDomain.GenderFemale,
		[]sharedDomain.Skill{sharedDomain.SkillPersonalCare, sharedDomain.SkillMedicationManagement})
	require.NoError(t, err)

	cg.SetLocation(geo.Coordinates{Latitude: 53.8008, Longitude: -1.5491})
	require.NoError(t, cg.SetWeeklySchedule(fullWeek("07:00", "22:00")))
	return cg
}

func newTestReceiver(t *testing.T, firstName string) *directoryDomain.CareReceiver {
	t.Helper()

	receiver, err := directoryDomain.NewCareReceiver(firstName, "Hale", sharedDomain.GenderFemale, sharedDomain.NoPreference)
	require.NoError(t, err)

	receiver.SetLocation(geo.Coordinates{Latitude: 53.8100, Longitude: -1.5300})
	return receiver
}

func addVisit(t *testing.T, receiver *directoryDomain.CareReceiver, visitNumber int, spec directoryDomain.VisitTemplateSpec) *directoryDomain.VisitTemplate {
	t.Helper()

	if spec.DurationMinutes == 0 {
		spec.DurationMinutes = 30
	}
	if spec.Requirements == nil {
		spec.Requirements = []sharedDomain.Skill{sharedDomain.SkillPersonalCare}
	}
	if spec.DaysOfWeek == nil {
		spec.DaysOfWeek = sharedDomain.AllDaysOfWeek()
	}
	if spec.Recurrence == "" {
		spec.Recurrence = directoryDomain.RecurrenceWeekly
	}
	if spec.RecurrenceInterval == 0 {
		spec.RecurrenceInterval = 1
	}

	vt, err := directoryDomain.NewVisitTemplate(receiver.ID(), visitNumber, spec)
	require.NoError(t, err)
	require.NoError(t, receiver.AddVisitTemplate(vt))
	return vt
}

func newTestAppointment(t *testing.T, receiverID, careGiverID uuid.UUID, day time.Time, start string, minutes, visitNumber int) *domain.Appointment {
	t.Helper()

	appt, err := domain.NewAppointment(domain.AppointmentSpec{
		CareReceiverID:  receiverID,
		CareGiverID:     careGiverID,
		Date:            day,
		Start:           sharedDomain.MustClockTime(start),
		DurationMinutes: minutes,
		VisitNumber:     visitNumber,
	})
	require.NoError(t, err)
	appt.ClearDomainEvents()
	return appt
}

func TestListAppointmentsHandler_Handle(t *testing.T) {
	newHandler := func() (*ListAppointmentsHandler, *stubAppointmentRepo, *stubCareGiverRepo, *stubCareReceiverRepo) {
		appointments := &stubAppointmentRepo{}
		careGivers := &stubCareGiverRepo{}
		careReceivers := &stubCareReceiverRepo{}
		return NewListAppointmentsHandler(appointments, careGivers, careReceivers), appointments, careGivers, careReceivers
	}

	t.Run("lists appointments with resolved names", func(t *testing.T) {
		handler, appointments, careGivers, careReceivers := newHandler()
		anna := newTestCareGiver(t, "Anna")
		brigid := newTestReceiver(t, "Brigid")
		careGivers.givers = []*directoryDomain.CareGiver{anna}
		careReceivers.receivers = []*directoryDomain.CareReceiver{brigid}
		appointments.appointments = []*domain.Appointment{
			newTestAppointment(t, brigid.ID(), anna.ID(), testDay, "12:00", 30, 2),
			newTestAppointment(t, brigid.ID(), anna.ID(), testDay, "08:00", 30, 1),
		}

		page, err := handler.Handle(context.Background(), ListAppointmentsQuery{})

		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 50, page.Limit)
		assert.Equal(t, 1, page.TotalPages)
		require.Len(t, page.Appointments, 2)

		first := page.Appointments[0]
		assert.Equal(t, "08:00", first.StartTime, "results come back ordered by start time")
		assert.Equal(t, "08:30", first.EndTime)
		assert.Equal(t, "Anna Shaw", first.CareGiverName)
		assert.Equal(t, "Brigid Hale", first.CareReceiverName)
		assert.Equal(t, "scheduled", first.Status)
	})

	t.Run("filters by status", func(t *testing.T) {
		handler, appointments, _, _ := newHandler()
		receiverID, cgID := uuid.New(), uuid.New()
		done := newTestAppointment(t, receiverID, cgID, testDay, "08:00", 30, 1)
		require.NoError(t, done.ChangeStatus(domain.StatusCompleted, ""))
		done.ClearDomainEvents()
		appointments.appointments = []*domain.Appointment{
			done,
			newTestAppointment(t, receiverID, cgID, testDay, "12:00", 30, 2),
		}

		status := "completed"
		page, err := handler.Handle(context.Background(), ListAppointmentsQuery{Status: &status})

		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
		require.Len(t, page.Appointments, 1)
		assert.Equal(t, "completed", page.Appointments[0].Status)
	})

	t.Run("rejects an unknown status", func(t *testing.T) {
		handler, _, _, _ := newHandler()

		status := "postponed"
		_, err := handler.Handle(context.Background(), ListAppointmentsQuery{Status: &status})

		assert.ErrorIs(t, err, domain.ErrUnknownStatus)
	})

	t.Run("pages through results", func(t *testing.T) {
		handler, appointments, _, _ := newHandler()
		receiverID, cgID := uuid.New(), uuid.New()
		for visit := 1; visit <= 3; visit++ {
			start, err := sharedDomain.MustClockTime("08:00").Add((visit - 1) * 120)
			require.NoError(t, err)
			appointments.appointments = append(appointments.appointments,
				newTestAppointment(t, receiverID, cgID, testDay, start.String(), 30, visit))
		}

		page, err := handler.Handle(context.Background(), ListAppointmentsQuery{Page: 2, Limit: 2})

		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
		assert.Equal(t, 2, page.Page)
		assert.Equal(t, 2, page.TotalPages)
		require.Len(t, page.Appointments, 1)
		assert.Equal(t, 3, page.Appointments[0].VisitNumber)
	})

	t.Run("caps the page size", func(t *testing.T) {
		handler, _, _, _ := newHandler()

		page, err := handler.Handle(context.Background(), ListAppointmentsQuery{Limit: 1000})

		require.NoError(t, err)
		assert.Equal(t, 200, page.Limit)
	})
}
