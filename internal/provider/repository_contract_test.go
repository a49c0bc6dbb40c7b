package provider

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/servicehub-backend/internal/availability"
)

// testCompareAndSave runs the optimistic write rules every store must follow.
// newUserID returns an owner id the store accepts.
func testCompareAndSave(t *testing.T, repo Repository, newUserID func(t *testing.T) string) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	monday := time.Date(2024, 8, 19, 0, 0, 0, 0, time.UTC)

	p := &Provider{
		ID:     uuid.NewString(),
		UserID: newUserID(t),
		Services: []ServiceOffering{
			{ID: uuid.NewString(), Name: "Leak repair", Category: "plumbing", Price: 80},
		},
		Schedule: availability.Schedule{
			Availability: []availability.Day{{Day: "Monday", Slots: []availability.Slot{
				{Start: "09:00", End: "10:00"},
				{Start: "10:00", End: "11:00"},
			}}},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.Create(ctx, p))

	t.Run("stale copy loses", func(t *testing.T) {
		first, err := repo.GetByID(ctx, p.ID)
		require.NoError(t, err)
		second, err := repo.GetByID(ctx, p.ID)
		require.NoError(t, err)
		require.Equal(t, first.Version, second.Version)

		first.Schedule, err = availability.Reserve(first.Schedule, availability.Reservation{
			BookingID: uuid.NewString(), UserID: "customer", Date: monday, StartTime: "09:00", EndTime: "10:00",
		})
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, first))
		assert.Equal(t, second.Version+1, first.Version)

		second.Bio = "written from a stale read"
		assert.ErrorIs(t, repo.Save(ctx, second), ErrConflict)

		stored, err := repo.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, first.Version, stored.Version)
		assert.Empty(t, stored.Bio)
		require.Len(t, stored.Schedule.BookedSlots, 1)
		assert.True(t, stored.Schedule.BookedSlots[0].Date.Equal(monday))
		assert.Equal(t, []availability.Slot{{Start: "10:00", End: "11:00"}}, stored.Schedule.Availability[0].Slots)
	})

	t.Run("retry from a fresh read wins", func(t *testing.T) {
		_, err := UpdateWithRetry(ctx, repo, p.ID, 2, func(fresh *Provider) error {
			fresh.Bio = "twenty years of plumbing"
			return nil
		})
		require.NoError(t, err)

		stored, err := repo.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "twenty years of plumbing", stored.Bio)
		assert.Len(t, stored.Schedule.BookedSlots, 1)
	})

	t.Run("unknown provider", func(t *testing.T) {
		missing := p.Clone()
		missing.ID = uuid.NewString()
		assert.ErrorIs(t, repo.Save(ctx, missing), ErrNotFound)
	})
}

func TestMemoryRepositoryCompareAndSave(t *testing.T) {
	testCompareAndSave(t, NewMemoryRepository(), func(*testing.T) string { return uuid.NewString() })
}
