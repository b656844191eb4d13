package services

import (
	"context"
	"testing"
	"time"

	"github.com/domicare/rota/internal/settings/domain"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSettingsRepo struct {
	mock.Mock
}

func (m *mockSettingsRepo) Load(ctx context.Context) (*domain.SystemSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SystemSettings), args.Error(1)
}

func (m *mockSettingsRepo) Save(ctx context.Context, s *domain.SystemSettings) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func storedSettings(t *testing.T) *domain.SystemSettings {
	t.Helper()
	s, err := domain.NewSystemSettings(domain.SystemSettingsSpec{
		MaxDistanceKm:            30,
		TravelTimeBufferMinutes:  20,
		MaxAppointmentsPerDay:    10,
		WorkingHours:             sharedDomain.MustTimeRange("06:00", "20:00"),
		PreferredCareGiverWeight: 0.3,
		DistanceWeight:           0.3,
		AvailabilityWeight:       0.4,
	})
	require.NoError(t, err)
	return s
}

func TestCachedSettings_Current(t *testing.T) {
	ctx := context.Background()

	t.Run("serves repeated reads from the cache", func(t *testing.T) {
		repo := new(mockSettingsRepo)
		repo.On("Load", ctx).Return(storedSettings(t), nil).Once()

		cache := NewCachedSettings(repo)

		first, err := cache.Current(ctx)
		require.NoError(t, err)
		second, err := cache.Current(ctx)
		require.NoError(t, err)

		assert.Same(t, first, second)
		repo.AssertExpectations(t)
	})

	t.Run("falls back to defaults when no row exists", func(t *testing.T) {
		repo := new(mockSettingsRepo)
		repo.On("Load", ctx).Return(nil, nil).Once()

		cache := NewCachedSettings(repo)

		s, err := cache.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, 20.0, s.MaxDistanceKm())
		assert.Equal(t, 8, s.MaxAppointmentsPerDay())
	})

	t.Run("refreshes after the TTL elapses", func(t *testing.T) {
		repo := new(mockSettingsRepo)
		repo.On("Load", ctx).Return(storedSettings(t), nil).Twice()

		cache := NewCachedSettings(repo)
		current := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
		cache.now = func() time.Time { return current }

		_, err := cache.Current(ctx)
		require.NoError(t, err)

		current = current.Add(59 * time.Second)
		_, err = cache.Current(ctx)
		require.NoError(t, err)

		current = current.Add(2 * time.Second)
		_, err = cache.Current(ctx)
		require.NoError(t, err)

		repo.AssertExpectations(t)
	})

	t.Run("invalidate forces the next read through", func(t *testing.T) {
		repo := new(mockSettingsRepo)
		repo.On("Load", ctx).Return(storedSettings(t), nil).Twice()

		cache := NewCachedSettings(repo)

		_, err := cache.Current(ctx)
		require.NoError(t, err)

		cache.Invalidate()

		_, err = cache.Current(ctx)
		require.NoError(t, err)

		repo.AssertExpectations(t)
	})
}
