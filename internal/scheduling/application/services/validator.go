package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	availabilityServices "github.com/domicare/rota/internal/availability/application/services"
	directoryDomain "github.com/domicare/rota/internal/directory/domain"
	"github.com/domicare/rota/internal/scheduling/domain"
	"github.com/google/uuid"
)

// InvalidAppointment pairs an appointment with the issues found on it.
type InvalidAppointment struct {
	Appointment *domain.Appointment
	Issues      []string
}

// ValidationReport is the outcome of one validator pass over a date
// window. Changed lists the appointments whose status was flipped
// during the pass, for callers that persist events.
type ValidationReport struct {
	Checked  int
	Valid    []*domain.Appointment
	Invalid  []*InvalidAppointment
	Restored int
	Changed  []*domain.Appointment
}

// ScheduleValidator re-checks existing appointments against the
// current directory and availability state. Appointments with issues
// move to needs_reassignment; flagged appointments whose issues have
// all cleared move back to scheduled. Passes are idempotent.
//
// Weekly-pattern drift and changes to the receiver's preferred time,
// duration or skill requirements are left for manual review.
type ScheduleValidator struct {
	careGivers    directoryDomain.CareGiverRepository
	careReceivers directoryDomain.CareReceiverRepository
	appointments  domain.AppointmentRepository
	versions      *availabilityServices.VersionResolver

	now func() time.Time
}

// NewScheduleValidator creates a new ScheduleValidator.
func NewScheduleValidator(
	careGivers directoryDomain.CareGiverRepository,
	careReceivers directoryDomain.CareReceiverRepository,
	appointments domain.AppointmentRepository,
	versions *availabilityServices.VersionResolver,
) *ScheduleValidator {
	return &ScheduleValidator{
		careGivers:    careGivers,
		careReceivers: careReceivers,
		appointments:  appointments,
		versions:      versions,
		now:           time.Now,
	}
}

// Validate scans scheduled and needs_reassignment appointments in the
// window, saving every status change through the repository.
func (v *ScheduleValidator) Validate(ctx context.Context, from, to time.Time) (*ValidationReport, error) {
	appointments, err := v.appointments.FindInWindow(ctx, from, to,
		[]domain.AppointmentStatus{domain.StatusScheduled, domain.StatusNeedsReassignment})
	if err != nil {
		return nil, err
	}

	report := &ValidationReport{}
	for _, appt := range appointments {
		report.Checked++

		issues, err := v.check(ctx, appt)
		if err != nil {
			return nil, err
		}

		if len(issues) > 0 {
			if appt.Invalidate(strings.Join(issues, "; "), v.now()) {
				if err := v.appointments.Save(ctx, appt); err != nil {
					return nil, err
				}
				report.Changed = append(report.Changed, appt)
			}
			report.Invalid = append(report.Invalid, &InvalidAppointment{Appointment: appt, Issues: issues})
			continue
		}

		if appt.Restore() {
			if err := v.appointments.Save(ctx, appt); err != nil {
				return nil, err
			}
			report.Restored++
			report.Changed = append(report.Changed, appt)
		}
		report.Valid = append(report.Valid, appt)
	}

	return report, nil
}

func (v *ScheduleValidator) check(ctx context.Context, appt *domain.Appointment) ([]string, error) {
	var issues []string

	receiver, err := v.careReceivers.FindByID(ctx, appt.CareReceiverID())
	if err != nil {
		return nil, err
	}
	switch {
	case receiver == nil:
		issues = append(issues, "care receiver no longer exists")
	case !receiver.IsActive():
		issues = append(issues, "care receiver is not active")
	}

	primaryIssues, err := v.checkCareGiver(ctx, appt.CareGiverID(), appt.Date(), "care giver")
	if err != nil {
		return nil, err
	}
	issues = append(issues, primaryIssues...)

	if secondary := appt.SecondaryCareGiverID(); secondary != nil {
		secondaryIssues, err := v.checkCareGiver(ctx, *secondary, appt.Date(), "secondary care giver")
		if err != nil {
			return nil, err
		}
		issues = append(issues, secondaryIssues...)
	} else if appt.DoubleHanded() {
		issues = append(issues, "double-handed visit has no secondary care giver")
	}

	return issues, nil
}

func (v *ScheduleValidator) checkCareGiver(ctx context.Context, id uuid.UUID, date time.Time, role string) ([]string, error) {
	cg, err := v.careGivers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cg == nil {
		return []string{role + " no longer exists"}, nil
	}

	var issues []string
	if !cg.IsActive() {
		issues = append(issues, role+" is not active")
	}

	version, err := v.versions.ResolveForCareGiver(ctx, cg, date)
	if err != nil {
		return nil, err
	}
	if version.OnTimeOff(date) || cg.IsOnHoliday(date) {
		issues = append(issues, fmt.Sprintf("%s is on time off on %s", cg.FullName(), date.Format("2006-01-02")))
	}

	return issues, nil
}
