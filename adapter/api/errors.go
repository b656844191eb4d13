package api

import (
	"errors"
	"log/slog"
	"net/http"

	availServices "github.com/domicare/rota/internal/availability/application/services"
	dirCommands "github.com/domicare/rota/internal/directory/application/commands"
	dirQueries "github.com/domicare/rota/internal/directory/application/queries"
	dirDomain "github.com/domicare/rota/internal/directory/domain"
	schedCommands "github.com/domicare/rota/internal/scheduling/application/commands"
	schedQueries "github.com/domicare/rota/internal/scheduling/application/queries"
	schedDomain "github.com/domicare/rota/internal/scheduling/domain"
	settingsDomain "github.com/domicare/rota/internal/settings/domain"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
)

// validationErrs is the closed list of domain and parsing failures that
// mean "the request was wrong", not "the server broke". Anything not
// listed here and not matched by a more specific rule becomes a 500.
var validationErrs = []error{
	sharedDomain.ErrInvalidClockTime,
	sharedDomain.ErrInvalidTimeRange,
	sharedDomain.ErrInvalidTimeOff,
	sharedDomain.ErrUnknownDayOfWeek,
	sharedDomain.ErrUnknownSkill,
	sharedDomain.ErrUnknownGender,
	sharedDomain.ErrUnknownGenderPreference,
	dirDomain.ErrCareGiverEmptyName,
	dirDomain.ErrCareGiverEmptyEmail,
	dirDomain.ErrCareGiverInactive,
	dirDomain.ErrCareGiverMaxReceivers,
	dirDomain.ErrCareReceiverEmptyName,
	dirDomain.ErrCareReceiverInactive,
	dirDomain.ErrVisitNumberOutOfOrder,
	dirDomain.ErrVisitTemplateNotFound,
	dirDomain.ErrInvalidDuration,
	dirDomain.ErrInvalidPriority,
	dirDomain.ErrInvalidInterval,
	dirDomain.ErrInvalidRecurrence,
	schedDomain.ErrInvalidDuration,
	schedDomain.ErrInvalidVisitNumber,
	schedDomain.ErrInvalidPriority,
	schedDomain.ErrUnknownStatus,
	schedDomain.ErrSecondaryRequired,
	schedDomain.ErrSecondaryIsPrimary,
	schedDomain.ErrVisitCrossesMidnight,
	settingsDomain.ErrInvalidMaxDistance,
	settingsDomain.ErrInvalidTravelBuffer,
	settingsDomain.ErrInvalidDailyCap,
	settingsDomain.ErrInvalidWeight,
	settingsDomain.ErrWeightSum,
}

// respondError maps an application error onto the envelope. Unmatched
// errors are logged and surface as a generic 500 so internals never
// leak to callers.
func respondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var feasibility *schedCommands.FeasibilityError
	if errors.As(err, &feasibility) {
		writeError(w, http.StatusBadRequest, codeValidation, feasibility.Reason)
		return
	}

	switch {
	case errors.Is(err, schedCommands.ErrInvalidDateRange),
		errors.Is(err, schedQueries.ErrInvalidDateRange):
		writeError(w, http.StatusBadRequest, codeInvalidDateRange, err.Error())
		return

	case errors.Is(err, schedCommands.ErrDuplicateAppointment):
		writeError(w, http.StatusConflict, codeDuplicate, err.Error())
		return

	case errors.Is(err, schedCommands.ErrAppointmentNotFound),
		errors.Is(err, schedQueries.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, codeAppointmentNotFound, err.Error())
		return

	case errors.Is(err, schedCommands.ErrCareReceiverNotFound),
		errors.Is(err, schedQueries.ErrCareReceiverNotFound),
		errors.Is(err, dirCommands.ErrCareReceiverNotFound),
		errors.Is(err, dirQueries.ErrCareReceiverNotFound):
		writeError(w, http.StatusNotFound, codeCareReceiverNotFound, err.Error())
		return

	case errors.Is(err, schedCommands.ErrCareGiverNotFound),
		errors.Is(err, dirCommands.ErrCareGiverNotFound),
		errors.Is(err, dirQueries.ErrCareGiverNotFound),
		errors.Is(err, availServices.ErrCareGiverNotFound):
		writeError(w, http.StatusNotFound, codeCareGiverNotFound, err.Error())
		return
	}

	for _, sentinel := range validationErrs {
		if errors.Is(err, sentinel) {
			writeError(w, http.StatusBadRequest, codeValidation, err.Error())
			return
		}
	}

	logger.Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, codeInternal, "internal server error")
}
