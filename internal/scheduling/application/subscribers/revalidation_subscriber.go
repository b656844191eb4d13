// Package subscribers reacts to events from the directory and
// availability contexts by re-checking the schedules they affect.
package subscribers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/domicare/rota/internal/scheduling/application/commands"
	"github.com/domicare/rota/internal/scheduling/application/services"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/domicare/rota/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
)

// DefaultRevalidationWindowDays is how far ahead a revalidation pass
// looks when the triggering event carries no effective date.
const DefaultRevalidationWindowDays = 28

// ScheduleRevalidator runs a validation pass over a date window.
type ScheduleRevalidator interface {
	Handle(ctx context.Context, cmd commands.ValidateScheduleCommand) (*services.ValidationReport, error)
}

// RevalidationSubscriber listens for availability and directory changes
// and re-validates the affected window. Appointments whose care giver
// is now on time off or deactivated move to needs_reassignment; flagged
// appointments whose issues have cleared are restored.
type RevalidationSubscriber struct {
	revalidator ScheduleRevalidator
	windowDays  int
	logger      *slog.Logger

	now func() time.Time
}

// NewRevalidationSubscriber creates a new revalidation subscriber.
func NewRevalidationSubscriber(revalidator ScheduleRevalidator, windowDays int, logger *slog.Logger) *RevalidationSubscriber {
	if windowDays <= 0 {
		windowDays = DefaultRevalidationWindowDays
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RevalidationSubscriber{
		revalidator: revalidator,
		windowDays:  windowDays,
		logger:      logger,
		now:         time.Now,
	}
}

// EventTypes returns the routing keys this subscriber handles. Visit
// template changes are excluded: the validator does not re-check
// template bindings, so those stay a manual review concern.
func (s *RevalidationSubscriber) EventTypes() []string {
	return []string{
		"rota.availability.version_created",
		"rota.care_giver.schedule_changed",
		"rota.care_giver.deactivated",
		"rota.care_receiver.deactivated",
	}
}

// changePayload covers the fields shared by the triggering events. Only
// version_created carries an effective date; the rest revalidate from
// today.
type changePayload struct {
	CareGiverID    uuid.UUID `json:"care_giver_id"`
	CareReceiverID uuid.UUID `json:"care_receiver_id"`
	EffectiveFrom  time.Time `json:"effective_from"`
}

// Handle runs a validation pass for the window the event affects.
// Validation passes are idempotent, so overlapping triggers are safe.
func (s *RevalidationSubscriber) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var payload changePayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		// A malformed payload still names a real change; revalidate the
		// default window rather than dropping the trigger.
		s.logger.Warn("failed to unmarshal event payload, using default window",
			"routing_key", event.RoutingKey,
			"error", err,
		)
	}

	from := sharedDomain.UTCDay(s.now())
	if effective := sharedDomain.UTCDay(payload.EffectiveFrom); !payload.EffectiveFrom.IsZero() && effective.After(from) {
		from = effective
	}
	to := from.AddDate(0, 0, s.windowDays)

	report, err := s.revalidator.Handle(ctx, commands.ValidateScheduleCommand{
		StartDate: from,
		EndDate:   to,
	})
	if err != nil {
		s.logger.Error("revalidation failed",
			"routing_key", event.RoutingKey,
			"from", from.Format("2006-01-02"),
			"to", to.Format("2006-01-02"),
			"error", err,
		)
		return err
	}

	s.logger.Info("revalidation completed",
		"routing_key", event.RoutingKey,
		"care_giver_id", idOrEmpty(payload.CareGiverID),
		"care_receiver_id", idOrEmpty(payload.CareReceiverID),
		"from", from.Format("2006-01-02"),
		"to", to.Format("2006-01-02"),
		"checked", report.Checked,
		"flagged", len(report.Invalid),
		"restored", report.Restored,
	)

	return nil
}

func idOrEmpty(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}
