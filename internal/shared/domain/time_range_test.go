package domain_test

import (
	"testing"

	"github.com/domicare/rota/internal/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeRange(t *testing.T) {
	r, err := domain.NewTimeRange(domain.MustClockTime("09:00"), domain.MustClockTime("17:00"))

	require.NoError(t, err)
	assert.Equal(t, "09:00-17:00", r.String())
	assert.Equal(t, 480, r.Minutes())
}

func TestNewTimeRange_RejectsEmptyAndInverted(t *testing.T) {
	nine := domain.MustClockTime("09:00")
	eight := domain.MustClockTime("08:00")

	_, err := domain.NewTimeRange(nine, nine)
	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)

	_, err = domain.NewTimeRange(nine, eight)
	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)
}

func TestTimeRange_Contains(t *testing.T) {
	slot := domain.MustTimeRange("09:00", "17:00")

	assert.True(t, slot.Contains(domain.MustClockTime("09:00")), "start is inside")
	assert.True(t, slot.Contains(domain.MustClockTime("12:00")))
	assert.False(t, slot.Contains(domain.MustClockTime("17:00")), "end is outside (half-open)")
	assert.False(t, slot.Contains(domain.MustClockTime("08:59")))
}

func TestTimeRange_ContainsRange(t *testing.T) {
	slot := domain.MustTimeRange("09:00", "17:00")

	assert.True(t, slot.ContainsRange(domain.MustTimeRange("09:00", "10:00")), "visit starting at slot start fits")
	assert.True(t, slot.ContainsRange(domain.MustTimeRange("16:00", "17:00")), "visit ending at slot end fits")
	assert.True(t, slot.ContainsRange(domain.MustTimeRange("09:00", "17:00")), "whole slot fits")
	assert.False(t, slot.ContainsRange(domain.MustTimeRange("08:30", "09:30")))
	assert.False(t, slot.ContainsRange(domain.MustTimeRange("16:30", "17:30")))
}

func TestTimeRange_Overlaps(t *testing.T) {
	morning := domain.MustTimeRange("09:00", "10:00")

	assert.True(t, morning.Overlaps(domain.MustTimeRange("09:30", "10:30")))
	assert.True(t, morning.Overlaps(domain.MustTimeRange("08:00", "12:00")), "containment is overlap")
	assert.False(t, morning.Overlaps(domain.MustTimeRange("10:00", "11:00")), "touching endpoints do not overlap")
	assert.False(t, morning.Overlaps(domain.MustTimeRange("08:00", "09:00")), "touching endpoints do not overlap")
	assert.False(t, morning.Overlaps(domain.MustTimeRange("11:00", "12:00")))
}
