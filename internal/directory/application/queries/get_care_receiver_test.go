package queries

import (
	"context"
	"testing"

	"github.com/domicare/rota/internal/directory/domain"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockCareReceiverRepo is a mock implementation of domain.CareReceiverRepository.
type mockCareReceiverRepo struct {
	mock.Mock
}

func (m *mockCareReceiverRepo) Save(ctx context.Context, cr *domain.CareReceiver) error {
	args := m.Called(ctx, cr)
	return args.Error(0)
}

func (m *mockCareReceiverRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.CareReceiver, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CareReceiver), args.Error(1)
}

func (m *mockCareReceiverRepo) FindAll(ctx context.Context) ([]*domain.CareReceiver, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CareReceiver), args.Error(1)
}

func (m *mockCareReceiverRepo) FindActive(ctx context.Context) ([]*domain.CareReceiver, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CareReceiver), args.Error(1)
}

func (m *mockCareReceiverRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func createTestCareReceiver(t *testing.T) *domain.CareReceiver {
	t.Helper()
	cr, err := domain.NewCareReceiver("Edith", "Hargreaves", sharedDomain.GenderFemale, sharedDomain.PreferFemale)
	require.NoError(t, err)

	vt, err := domain.NewVisitTemplate(cr.ID(), 1, domain.VisitTemplateSpec{
		PreferredTime:   sharedDomain.MustClockTime("08:00"),
		DurationMinutes: 30,
		Requirements:    []sharedDomain.Skill{sharedDomain.SkillPersonalCare},
		DaysOfWeek:      []sharedDomain.DayOfWeek{sharedDomain.Monday, sharedDomain.Friday},
		Recurrence:      domain.RecurrenceWeekly,
	})
	require.NoError(t, err)
	require.NoError(t, cr.AddVisitTemplate(vt))
	return cr
}

func TestGetCareReceiverHandler_Handle(t *testing.T) {
	careReceiverID := uuid.New()

	t.Run("returns the care receiver with templates", func(t *testing.T) {
		repo := new(mockCareReceiverRepo)
		handler := NewGetCareReceiverHandler(repo)

		cr := createTestCareReceiver(t)
		repo.On("FindByID", mock.Anything, careReceiverID).Return(cr, nil)

		result, err := handler.Handle(context.Background(), GetCareReceiverQuery{CareReceiverID: careReceiverID})

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "Edith", result.FirstName)
		assert.Equal(t, "Female", result.GenderPreference)
		require.Len(t, result.VisitTemplates, 1)
		assert.Equal(t, 1, result.VisitTemplates[0].VisitNumber)
		assert.Equal(t, "08:00", result.VisitTemplates[0].PreferredTime)
		assert.Equal(t, []string{"Monday", "Friday"}, result.VisitTemplates[0].DaysOfWeek)
		assert.Equal(t, "weekly", result.VisitTemplates[0].Recurrence)

		repo.AssertExpectations(t)
	})

	t.Run("returns ErrCareReceiverNotFound when missing", func(t *testing.T) {
		repo := new(mockCareReceiverRepo)
		handler := NewGetCareReceiverHandler(repo)

		repo.On("FindByID", mock.Anything, careReceiverID).Return(nil, nil)

		result, err := handler.Handle(context.Background(), GetCareReceiverQuery{CareReceiverID: careReceiverID})

		assert.ErrorIs(t, err, ErrCareReceiverNotFound)
		assert.Nil(t, result)
	})
}

func TestListCareReceiversHandler_Handle(t *testing.T) {
	t.Run("lists active care receivers by default", func(t *testing.T) {
		repo := new(mockCareReceiverRepo)
		handler := NewListCareReceiversHandler(repo)

		repo.On("FindActive", mock.Anything).Return([]*domain.CareReceiver{createTestCareReceiver(t)}, nil)

		result, err := handler.Handle(context.Background(), ListCareReceiversQuery{})

		require.NoError(t, err)
		require.Len(t, result, 1)
		assert.True(t, result[0].IsActive)
		repo.AssertNotCalled(t, "FindAll", mock.Anything)
	})

	t.Run("includes inactive care receivers on request", func(t *testing.T) {
		repo := new(mockCareReceiverRepo)
		handler := NewListCareReceiversHandler(repo)

		former := createTestCareReceiver(t)
		former.Deactivate()
		repo.On("FindAll", mock.Anything).Return([]*domain.CareReceiver{former}, nil)

		result, err := handler.Handle(context.Background(), ListCareReceiversQuery{IncludeInactive: true})

		require.NoError(t, err)
		require.Len(t, result, 1)
		assert.False(t, result[0].IsActive)
	})
}
