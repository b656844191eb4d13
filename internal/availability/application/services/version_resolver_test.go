package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/domicare/rota/internal/availability/domain"
	directoryDomain "github.com/domicare/rota/internal/directory/domain"
	sharedDomain "github.com/domicare/rota/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory stubs for testing

type stubVersionRepo struct {
	versions []*domain.AvailabilityVersion
	err      error
}

func (s *stubVersionRepo) Save(ctx context.Context, av *domain.AvailabilityVersion) error {
	s.versions = append(s.versions, av)
	return s.err
}

func (s *stubVersionRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.AvailabilityVersion, error) {
	for _, v := range s.versions {
		if v.ID() == id {
			return v, nil
		}
	}
	return nil, domain.ErrVersionNotFound
}

func (s *stubVersionRepo) FindOpenForUpdate(ctx context.Context, careGiverID uuid.UUID) ([]*domain.AvailabilityVersion, error) {
	var open []*domain.AvailabilityVersion
	for _, v := range s.versions {
		if v.CareGiverID() == careGiverID && v.IsOpen() {
			open = append(open, v)
		}
	}
	return open, s.err
}

func (s *stubVersionRepo) MaxVersionNumber(ctx context.Context, careGiverID uuid.UUID) (int, error) {
	maxVersion := 0
	for _, v := range s.versions {
		if v.CareGiverID() == careGiverID && v.VersionNumber() > maxVersion {
			maxVersion = v.VersionNumber()
		}
	}
	return maxVersion, s.err
}

func (s *stubVersionRepo) CurrentFor(ctx context.Context, careGiverID uuid.UUID, at time.Time) (*domain.AvailabilityVersion, error) {
	if s.err != nil {
		return nil, s.err
	}
	var best *domain.AvailabilityVersion
	for _, v := range s.versions {
		if v.CareGiverID() != careGiverID || !v.IsActive() || !v.InForceAt(at) {
			continue
		}
		if best == nil || v.EffectiveFrom().After(best.EffectiveFrom()) {
			best = v
		}
	}
	if best == nil {
		return nil, domain.ErrVersionNotFound
	}
	return best, nil
}

func (s *stubVersionRepo) At(ctx context.Context, careGiverID uuid.UUID, at time.Time) (*domain.AvailabilityVersion, error) {
	if s.err != nil {
		return nil, s.err
	}
	var best *domain.AvailabilityVersion
	for _, v := range s.versions {
		if v.CareGiverID() != careGiverID || !v.InForceAt(at) {
			continue
		}
		if best == nil || v.EffectiveFrom().After(best.EffectiveFrom()) {
			best = v
		}
	}
	if best == nil {
		return nil, domain.ErrVersionNotFound
	}
	return best, nil
}

func (s *stubVersionRepo) History(ctx context.Context, careGiverID uuid.UUID) ([]*domain.AvailabilityVersion, error) {
	var history []*domain.AvailabilityVersion
	for _, v := range s.versions {
		if v.CareGiverID() == careGiverID {
			history = append(history, v)
		}
	}
	return history, s.err
}

type stubCareGiverRepo struct {
	careGivers map[uuid.UUID]*directoryDomain.CareGiver
	err        error
}

func (s *stubCareGiverRepo) Save(ctx context.Context, cg *directoryDomain.CareGiver) error {
	s.careGivers[cg.ID()] = cg
	return s.err
}

func (s *stubCareGiverRepo) FindByID(ctx context.Context, id uuid.UUID) (*directoryDomain.CareGiver, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.careGivers[id], nil
}

func (s *stubCareGiverRepo) FindAll(ctx context.Context) ([]*directoryDomain.CareGiver, error) {
	var all []*directoryDomain.CareGiver
	for _, cg := range s.careGivers {
		all = append(all, cg)
	}
	return all, s.err
}

func (s *stubCareGiverRepo) FindActive(ctx context.Context) ([]*directoryDomain.CareGiver, error) {
	var active []*directoryDomain.CareGiver
	for _, cg := range s.careGivers {
		if cg.IsActive() {
			active = append(active, cg)
		}
	}
	return active, s.err
}

func (s *stubCareGiverRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.careGivers, id)
	return s.err
}

func newResolverTestCareGiver(t *testing.T) *directoryDomain.CareGiver {
	t.Helper()
	cg, err := directoryDomain.NewCareGiver("Tomasz", "Kowalski", "tomasz@example.com",
		sharedDomain.GenderMale, []sharedDomain.Skill{sharedDomain.SkillPersonalCare})
	require.NoError(t, err)
	require.NoError(t, cg.SetWeeklySchedule(sharedDomain.WeeklySchedule{
		sharedDomain.Tuesday: {sharedDomain.MustTimeRange("07:00", "15:00")},
	}))
	return cg
}

func TestVersionResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, time.June, 2, 0, 0, 0, 0, time.UTC)

	t.Run("returns the stored version when one is in force", func(t *testing.T) {
		cg := newResolverTestCareGiver(t)
		stored, err := domain.NewAvailabilityVersion(cg.ID(), 1, sharedDomain.WeeklySchedule{
			sharedDomain.Monday: {sharedDomain.MustTimeRange("08:00", "12:00")},
		}, nil, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)

		resolver := NewVersionResolver(
			&stubVersionRepo{versions: []*domain.AvailabilityVersion{stored}},
			&stubCareGiverRepo{careGivers: map[uuid.UUID]*directoryDomain.CareGiver{cg.ID(): cg}},
		)

		version, err := resolver.Resolve(ctx, cg.ID(), at)
		require.NoError(t, err)
		assert.Equal(t, stored.ID(), version.ID())
		assert.False(t, version.IsInline())
	})

	t.Run("falls back to the inline pattern when no version is stored", func(t *testing.T) {
		cg := newResolverTestCareGiver(t)

		resolver := NewVersionResolver(
			&stubVersionRepo{},
			&stubCareGiverRepo{careGivers: map[uuid.UUID]*directoryDomain.CareGiver{cg.ID(): cg}},
		)

		version, err := resolver.Resolve(ctx, cg.ID(), at)
		require.NoError(t, err)
		assert.True(t, version.IsInline())
		assert.Equal(t, cg.ID(), version.CareGiverID())
		assert.True(t, version.AvailableAt(sharedDomain.Tuesday, sharedDomain.MustClockTime("08:00")))
	})

	t.Run("fails for an unknown care giver", func(t *testing.T) {
		resolver := NewVersionResolver(
			&stubVersionRepo{},
			&stubCareGiverRepo{careGivers: map[uuid.UUID]*directoryDomain.CareGiver{}},
		)

		_, err := resolver.Resolve(ctx, uuid.New(), at)
		assert.ErrorIs(t, err, ErrCareGiverNotFound)
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		cg := newResolverTestCareGiver(t)
		resolver := NewVersionResolver(
			&stubVersionRepo{err: errors.New("connection reset")},
			&stubCareGiverRepo{careGivers: map[uuid.UUID]*directoryDomain.CareGiver{cg.ID(): cg}},
		)

		_, err := resolver.Resolve(ctx, cg.ID(), at)
		assert.ErrorContains(t, err, "connection reset")
	})
}

func TestVersionResolver_ResolveForCareGiver(t *testing.T) {
	ctx := context.Background()
	cg := newResolverTestCareGiver(t)

	resolver := NewVersionResolver(&stubVersionRepo{}, &stubCareGiverRepo{})

	version, err := resolver.ResolveForCareGiver(ctx, cg, time.Now())
	require.NoError(t, err)
	assert.True(t, version.IsInline(), "no stored versions means inline fallback without a directory lookup")
}
