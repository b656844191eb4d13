package services

import (
	"context"
	"sort"
	"testing"
	"time"

	availabilityServices "github.com/domicare/rota/internal/availability/application/services"
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

// In-memory stubs shared by the service tests in this package.

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
	for i, existing := range s.appointments {
		if existing.ID() == appt.ID() {
			s.appointments[i] = appt
			return nil
		}
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

func (s *stubAppointmentRepo) Search(ctx context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, int, error) {
	return s.appointments, len(s.appointments), s.err
}

func (s *stubAppointmentRepo) CountByStatus(ctx context.Context, from, to time.Time) (map[domain.AppointmentStatus]int, error) {
	counts := make(map[domain.AppointmentStatus]int)
	for _, appt := range s.appointments {
		counts[appt.Status()]++
	}
	return counts, s.err
}

func (s *stubAppointmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	for i, appt := range s.appointments {
		if appt.ID() == id {
			s.appointments = append(s.appointments[:i], s.appointments[i+1:]...)
			return nil
		}
	}
	return nil
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
	if s.settings == nil {
		return settingsDomain.DefaultSystemSettings(), nil
	}
	return s.settings, nil
}

type stubTravel struct {
	minutes int
	calls   int
}

func (s *stubTravel) DriveMinutes(ctx context.Context, from, to geo.Coordinates) int {
	s.calls++
	return s.minutes
}

// Shared fixtures.

// testDay is a Monday.
var testDay = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func fullWeek(start, end string) sharedDomain.WeeklySchedule {
	week := sharedDomain.WeeklySchedule{}
	for _, day := range sharedDomain.AllDaysOfWeek() {
		week[day] = []sharedDomain.TimeRange{sharedDomain.MustTimeRange(start, end)}
	}
	return week
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

func settingsWith(t *testing.T, maxDistanceKm float64, bufferMinutes, dailyCap int) *settingsDomain.SystemSettings {
	t.Helper()

	s, err := settingsDomain.NewSystemSettings(settingsDomain.SystemSettingsSpec{
		MaxDistanceKm:            maxDistanceKm,
		TravelTimeBufferMinutes:  bufferMinutes,
		MaxAppointmentsPerDay:    dailyCap,
		WorkingHours:             sharedDomain.MustTimeRange("06:00", "23:00"),
		PreferredCareGiverWeight: 0.3,
		DistanceWeight:           0.3,
		AvailabilityWeight:       0.4,
	})
	require.NoError(t, err)
	return s
}

type oracleEnv struct {
	careGivers    *stubCareGiverRepo
	careReceivers *stubCareReceiverRepo
	appointments  *stubAppointmentRepo
	versionRepo   *stubVersionRepo
	settings      *stubSettings
	travel        *stubTravel
	oracle        *FeasibilityOracle
}

func newOracleEnv() *oracleEnv {
	env := &oracleEnv{
		careGivers:    &stubCareGiverRepo{},
		careReceivers: &stubCareReceiverRepo{},
		appointments:  &stubAppointmentRepo{},
		versionRepo:   &stubVersionRepo{},
		settings:      &stubSettings{},
		travel:        &stubTravel{},
	}
	resolver := availabilityServices.NewVersionResolver(env.versionRepo, env.careGivers)
	env.oracle = NewFeasibilityOracle(env.careGivers, env.careReceivers, env.appointments, resolver, env.settings, env.travel)
	return env
}

func TestFeasibilityOracle_Available(t *testing.T) {
	env := newOracleEnv()
	cg := newTestCareGiver(t, "Anna")
	receiver := newTestReceiver(t, "Brigid")
	env.careGivers.givers = []*directoryDomain.CareGiver{cg}
	env.careReceivers.receivers = []*directoryDomain.CareReceiver{receiver}

	verdict, err := env.oracle.IsAvailable(context.Background(), cg.ID(), testDay,
		sharedDomain.MustTimeRange("09:00", "09:30"), receiver.Location(), nil)

	require.NoError(t, err)
	assert.True(t, verdict.Available)
	assert.Empty(t, verdict.Reason)
	assert.Empty(t, verdict.Conflicts)
}

func TestFeasibilityOracle_UnknownCareGiver(t *testing.T) {
	env := newOracleEnv()

	verdict, err := env.oracle.IsAvailable(context.Background(), uuid.New(), testDay,
		sharedDomain.MustTimeRange("09:00", "09:30"), geo.Coordinates{}, nil)

	require.NoError(t, err)
	assert.False(t, verdict.Available)
	assert.Equal(t, "care giver not found", verdict.Reason)
}

func TestFeasibilityOracle_InactiveCareGiver(t *testing.T) {
	env := newOracleEnv()
	cg := newTestCareGiver(t, "Anna")
	cg.Deactivate()
	env.careGivers.givers = []*directoryDomain.CareGiver{cg}

	verdict, err := env.oracle.IsAvailable(context.Background(), cg.ID(), testDay,
		sharedDomain.MustTimeRange("09:00", "09:30"), geo.Coordinates{}, nil)

	require.NoError(t, err)
	assert.False(t, verdict.Available)
	assert.Equal(t, "care giver is not active", verdict.Reason)
}

func TestFeasibilityOracle_InlineHoliday(t *testing.T) {
	env := newOracleEnv()
	cg := newTestCareGiver(t, "Anna")
	holiday, err := sharedDomain.NewTimeOffInterval(testDay, testDay.AddDate(0, 0, 4), "leave")
	require.NoError(t, err)
	cg.SetHolidays([]sharedDomain.TimeOffInterval{holiday})
	env.careGivers.givers = []*directoryDomain.CareGiver{cg}

	verdict, err := env.oracle.IsAvailable(context.Background(), cg.ID(), testDay,
		sharedDomain.MustTimeRange("09:00", "09:30"), geo.Coordinates{}, nil)

	require.NoError(t, err)
	assert.False(t, verdict.Available)
	assert.Contains(t, verdict.Reason, "on time off")
}

func TestFeasibilityOracle_VersionTimeOff(t *testing.T) {
	env := newOracleEnv()
	cg := newTestCareGiver(t, "Anna")
	env.careGivers.givers = []*directoryDomain.CareGiver{cg}

	timeOff, err := sharedDomain.NewTimeOffInterval(testDay, testDay, "training day")
	require.NoError(t, err)
	version, err := availabilityDomain.NewAvailabilityVersion(
		cg.ID(), 1, fullWeek("07:00", "22:00"), []sharedDomain.TimeOffInterval{timeOff},
		testDay.AddDate(0, -1, 0))
	require.NoError(t, err)
	env.versionRepo.versions = []*availabilityDomain.AvailabilityVersion{version}

	verdict, err := env.oracle.IsAvailable(context.Background(), cg.ID(), testDay,
		sharedDomain.MustTimeRange("09:00", "09:30"), geo.Coordinates{}, nil)

	require.NoError(t, err)
	assert.False(t, verdict.Available)
	assert.Contains(t, verdict.Reason, "on time off")
}

func TestFeasibilityOracle_OffDay(t *testing.T) {
	env := newOracleEnv()
	cg := newTestCareGiver(t, "Anna")
	require.NoError(t, cg.SetWeeklySchedule(sharedDomain.WeeklySchedule{
		sharedDomain.Tuesday: {sharedDomain.MustTimeRange("08:00", "16:00")},
	}))
	env.careGivers.givers = []*directoryDomain.CareGiver{cg}

	verdict, err := env.oracle.IsAvailable(context.Background(), cg.ID(), testDay,
		sharedDomain.MustTimeRange("09:00", "09:30"), geo.Coordinates{}, nil)

	require.NoError(t, err)
	assert.False(t, verdict.Available)
	assert.Equal(t, "care giver does not work on Monday", verdict.Reason)
}

func TestFeasibilityOracle_OutsideSlot(t *testing.T) {
	env := newOracleEnv()
	cg := newTestCareGiver(t, "Anna")
	require.NoError(t, cg.SetWeeklySchedule(sharedDomain.WeeklySchedule{
		sharedDomain.Monday: {sharedDomain.MustTimeRange("08:00", "12:00")},
	}))
	env.careGivers.givers = []*directoryDomain.CareGiver{cg}

	verdict, err := env.oracle.IsAvailable(context.Background(), cg.ID(), testDay,
		sharedDomain.MustTimeRange("13:00", "13:30"), geo.Coordinates{}, nil)

	require.NoError(t, err)
	assert.False(t, verdict.Available)
	assert.Equal(t, "no availability window covers 13:00-13:30", verdict.Reason)
}

func TestFeasibilityOracle_SlotBoundariesAllowed(t *testing.T) {
	env := newOracleEnv()
	cg := newTestCareGiver(t, "Anna")
	require.NoError(t, cg.SetWeeklySchedule(sharedDomain.WeeklySchedule{
		sharedDomain.Monday: {sharedDomain.MustTimeRange("08:00", "12:00")},
	}))
	env.careGivers.givers = []*directoryDomain.CareGiver{cg}

	// A visit spanning the whole slot touches both boundaries.
	verdict, err := env.oracle.IsAvailable(context.Background(), cg.ID(), testDay,
		sharedDomain.MustTimeRange("08:00", "12:00"), geo.Coordinates{}, nil)

	require.NoError(t, err)
	assert.True(t, verdict.Available)
}

func TestFeasibilityOracle_DailyCap(t *testing.T) {
	env := newOracleEnv()
	cg := newTestCareGiver(t, "Anna")
	env.careGivers.givers = []*directoryDomain.CareGiver{cg}
	env.settings.settings = settingsWith(t, 20, 0, 2)

	env.appointments.appointments = []*domain.Appointment{
		newTestAppointment(t, uuid.New(), cg.ID(), testDay, "08:00", 30, 1),
		newTestAppointment(t, uuid.New(), cg.ID(), testDay, "11:00", 30, 1),
	}

	verdict, err := env.oracle.IsAvailable(context.Background(), cg.ID(), testDay,
		sharedDomain.MustTimeRange("14:00", "14:30"), geo.Coordinates{}, nil)

	require.NoError(t, err)
	assert.False(t, verdict.Available)
	assert.Equal(t, "daily limit of 2 appointments reached", verdict.Reason)
}

func TestFeasibilityOracle_CancelledAppointmentsDoNotCount(t *testing.T) {
	env := newOracleEnv()
	cg := newTestCareGiver(t, "Anna")
	env.careGivers.givers = []*directoryDomain.CareGiver{cg}
	env.settings.settings = settingsWith(t, 20, 0, 1)

	cancelled := newTestAppointment(t, uuid.New(), cg.ID(), testDay, "09:00", 60, 1)
	require.NoError(t, cancelled.ChangeStatus(domain.StatusCancelled, "family away"))
	cancelled.ClearDomainEvents()
	env.appointments.appointments = []*domain.Appointment{cancelled}

	// Same window as the cancelled appointment: neither the cap nor the
	// overlap check should see it.
	verdict, err := env.oracle.IsAvailable(context.Background(), cg.ID(), testDay,
		sharedDomain.MustTimeRange("09:00", "10:00"), geo.Coordinates{}, nil)

	require.NoError(t, err)
	assert.True(t, verdict.Available)
}

func TestFeasibilityOracle_Overlap(t *testing.T) {
	env := newOracleEnv()
	cg := newTestCareGiver(t, "Anna")
	env.careGivers.givers = []*directoryDomain.CareGiver{cg}

	existing := newTestAppointment(t, uuid.New(), cg.ID(), testDay, "09:00", 60, 1)
	env.appointments.appointments = []*domain.Appointment{existing}

	verdict, err := env.oracle.IsAvailable(context.Background(), cg.ID(), testDay,
		sharedDomain.MustTimeRange("09:30", "10:30"), geo.Coordinates{}, nil)

	require.NoError(t, err)
	assert.False(t, verdict.Available)
	assert.Equal(t, "overlaps an existing appointment at 09:00-10:00", verdict.Reason)
	require.Len(t, verdict.Conflicts, 1)
	assert.Equal(t, existing.ID(), verdict.Conflicts[0].ID())
}

func TestFeasibilityOracle_TouchingWindowsAllowed(t *testing.T) {
	env := newOracleEnv()
	cg := newTestCareGiver(t, "Anna")
	receiver := newTestReceiver(t, "Brigid")
	env.careGivers.givers = []*directoryDomain.CareGiver{cg}
	env.careReceivers.receivers = []*directoryDomain.CareReceiver{receiver}
	env.settings.settings = settingsWith(t, 20, 0, 8)

	env.appointments.appointments = []*domain.Appointment{
		newTestAppointment(t, receiver.ID(), cg.ID(), testDay, "09:00", 60, 1),
	}
	env.travel.minutes = 0

	verdict, err := env.oracle.IsAvailable(context.Background(), cg.ID(), testDay,
		sharedDomain.MustTimeRange("10:00", "10:30"), receiver.Location(), nil)

	require.NoError(t, err)
	assert.True(t, verdict.Available)
}

func TestFeasibilityOracle_TravelGapBefore(t *testing.T) {
	env := newOracleEnv()
	cg := newTestCareGiver(t, "Anna")
	receiverX := newTestReceiver(t, "Brigid")
	receiverY := newTestReceiver(t, "Clara")
	receiverY.SetLocation(geo.Coordinates{Latitude: 53.8500, Longitude: -1.4800})
	env.careGivers.givers = []*directoryDomain.CareGiver{cg}
	env.careReceivers.receivers = []*directoryDomain.CareReceiver{receiverX, receiverY}

	// Prior visit ends 10:00; driving to the next receiver takes 10
	// minutes plus a 15 minute buffer.
	env.appointments.appointments = []*domain.Appointment{
		newTestAppointment(t, receiverX.ID(), cg.ID(), testDay, "09:00", 60, 1),
	}
	env.settings.settings = settingsWith(t, 20, 15, 8)
	env.travel.minutes = 10

	verdict, err := env.oracle.IsAvailable(context.Background(), cg.ID(), testDay,
		sharedDomain.MustTimeRange("10:20", "10:50"), receiverY.Location(), nil)

	require.NoError(t, err)
	assert.False(t, verdict.Available)
	assert.Equal(t, "insufficient travel time from previous", verdict.Reason)

	// A gap equal to the requirement is allowed.
	verdict, err = env.oracle.IsAvailable(context.Background(), cg.ID(), testDay,
		sharedDomain.MustTimeRange("10:25", "10:55"), receiverY.Location(), nil)

	require.NoError(t, err)
	assert.True(t, verdict.Available)
}

func TestFeasibilityOracle_TravelGapAfter(t *testing.T) {
	env := newOracleEnv()
	cg := newTestCareGiver(t, "Anna")
	receiverX := newTestReceiver(t, "Brigid")
	receiverY := newTestReceiver(t, "Clara")
	receiverY.SetLocation(geo.Coordinates{Latitude: 53.8500, Longitude: -1.4800})
	env.careGivers.givers = []*directoryDomain.CareGiver{cg}
	env.careReceivers.receivers = []*directoryDomain.CareReceiver{receiverX, receiverY}

	env.appointments.appointments = []*domain.Appointment{
		newTestAppointment(t, receiverX.ID(), cg.ID(), testDay, "11:00", 30, 1),
	}
	env.settings.settings = settingsWith(t, 20, 15, 8)
	env.travel.minutes = 10

	verdict, err := env.oracle.IsAvailable(context.Background(), cg.ID(), testDay,
		sharedDomain.MustTimeRange("10:15", "10:45"), receiverY.Location(), nil)

	require.NoError(t, err)
	assert.False(t, verdict.Available)
	assert.Equal(t, "insufficient travel time to next", verdict.Reason)
}

func TestFeasibilityOracle_TravelSkippedWithoutLocation(t *testing.T) {
	env := newOracleEnv()
	cg := newTestCareGiver(t, "Anna")
	receiverY := newTestReceiver(t, "Clara")
	env.careGivers.givers = []*directoryDomain.CareGiver{cg}
	env.careReceivers.receivers = []*directoryDomain.CareReceiver{receiverY}

	// The prior appointment's receiver is gone, so its location is
	// unknown and the gap cannot be judged.
	env.appointments.appointments = []*domain.Appointment{
		newTestAppointment(t, uuid.New(), cg.ID(), testDay, "09:30", 30, 1),
	}
	env.settings.settings = settingsWith(t, 20, 15, 8)
	env.travel.minutes = 10

	verdict, err := env.oracle.IsAvailable(context.Background(), cg.ID(), testDay,
		sharedDomain.MustTimeRange("10:05", "10:35"), receiverY.Location(), nil)

	require.NoError(t, err)
	assert.True(t, verdict.Available)
	assert.Zero(t, env.travel.calls)
}

func TestFeasibilityOracle_ExcludesOwnAppointment(t *testing.T) {
	env := newOracleEnv()
	cg := newTestCareGiver(t, "Anna")
	receiver := newTestReceiver(t, "Brigid")
	env.careGivers.givers = []*directoryDomain.CareGiver{cg}
	env.careReceivers.receivers = []*directoryDomain.CareReceiver{receiver}

	existing := newTestAppointment(t, receiver.ID(), cg.ID(), testDay, "09:00", 60, 1)
	env.appointments.appointments = []*domain.Appointment{existing}

	id := existing.ID()
	verdict, err := env.oracle.IsAvailable(context.Background(), cg.ID(), testDay,
		existing.Window(), receiver.Location(), &id)

	require.NoError(t, err)
	assert.True(t, verdict.Available)
}
