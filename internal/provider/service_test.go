package provider

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/nekogravitycat/servicehub-backend/internal/availability"
	"github.com/nekogravitycat/servicehub-backend/internal/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestService(t *testing.T) (Service, Repository, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.WarnLevel)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	repo := NewMemoryRepository()
	return NewService(repo, store, storage.NewImageProcessor(), zap.New(core), 3), repo, logs
}

func ptr[T any](v T) *T { return &v }

func mondaySlots() []availability.Day {
	return []availability.Day{{
		Day: "Monday",
		Slots: []availability.Slot{
			{Start: "09:00", End: "10:00"},
			{Start: "10:00", End: "11:00"},
		},
	}}
}

func TestUpsertCreatesThenPatches(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	p, err := svc.Upsert(ctx, "user-1", UpsertRequest{
		Services:     &[]ServiceOffering{{Name: " Plumbing ", Category: "home", Price: 40}},
		Availability: ptr(mondaySlots()),
		Bio:          ptr("Twenty years under sinks"),
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.UserID)
	require.Len(t, p.Services, 1)
	assert.NotEmpty(t, p.Services[0].ID)
	assert.Equal(t, "Plumbing", p.Services[0].Name)
	assert.Equal(t, 2, p.Schedule.OpenSlots())

	patched, err := svc.Upsert(ctx, "user-1", UpsertRequest{Experience: ptr(20)})
	require.NoError(t, err)
	assert.Equal(t, p.ID, patched.ID)
	assert.Equal(t, 20, patched.Experience)
	assert.Equal(t, "Twenty years under sinks", patched.Bio)
	assert.Len(t, patched.Services, 1)
	assert.Greater(t, patched.Version, p.Version)
}

func TestUpsertRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		req  UpsertRequest
		want error
	}{
		{
			name: "overlapping slots",
			req: UpsertRequest{Availability: &[]availability.Day{{
				Day:   "Tuesday",
				Slots: []availability.Slot{{Start: "09:00", End: "10:30"}, {Start: "10:00", End: "11:00"}},
			}}},
			want: availability.ErrInvalidAvailability,
		},
		{
			name: "unknown weekday",
			req:  UpsertRequest{Availability: &[]availability.Day{{Day: "Funday"}}},
			want: availability.ErrInvalidAvailability,
		},
		{
			name: "service without category",
			req:  UpsertRequest{Services: &[]ServiceOffering{{Name: "Tutoring"}}},
			want: ErrInvalidService,
		},
		{
			name: "negative price",
			req:  UpsertRequest{Services: &[]ServiceOffering{{Name: "Tutoring", Category: "education", Price: -1}}},
			want: ErrInvalidService,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(t)
			_, err := svc.Upsert(context.Background(), "user-1", tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSetDayAvailabilityOverridesBookedSlot(t *testing.T) {
	ctx := context.Background()
	svc, repo, logs := newTestService(t)

	p, err := svc.Upsert(ctx, "user-1", UpsertRequest{Availability: ptr(mondaySlots())})
	require.NoError(t, err)

	// Book 09:00-10:00 on a Monday directly through the store.
	monday := time.Date(2024, 8, 19, 0, 0, 0, 0, time.UTC)
	p.Schedule, err = availability.Reserve(p.Schedule, availability.Reservation{
		BookingID: "booking-1", UserID: "customer-1", Date: monday, StartTime: "09:00", EndTime: "10:00",
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, p))

	// The override puts the booked slot back on offer; it is accepted with a warning.
	updated, err := svc.SetDayAvailability(ctx, "user-1", availability.Day{
		Day:   "Monday",
		Slots: []availability.Slot{{Start: "09:00", End: "10:00"}, {Start: "13:00", End: "14:00"}},
	})
	require.NoError(t, err)
	require.Len(t, updated.Schedule.Availability, 1)
	assert.Len(t, updated.Schedule.Availability[0].Slots, 2)
	assert.True(t, availability.Holds(updated.Schedule, "booking-1"))
	assert.Equal(t, 1, logs.FilterMessage("availability override offers a booked slot").Len())

	_, err = svc.SetDayAvailability(ctx, "user-1", availability.Day{
		Day:   "Monday",
		Slots: []availability.Slot{{Start: "14:00", End: "13:00"}},
	})
	assert.ErrorIs(t, err, availability.ErrInvalidAvailability)
}

func TestSetDayAvailabilityAddsMissingDay(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	_, err := svc.Upsert(ctx, "user-1", UpsertRequest{Availability: ptr(mondaySlots())})
	require.NoError(t, err)

	p, err := svc.SetDayAvailability(ctx, "user-1", availability.Day{
		Day:   "Friday",
		Slots: []availability.Slot{{Start: "08:00", End: "09:00"}},
	})
	require.NoError(t, err)
	assert.Len(t, p.Schedule.Availability, 2)

	// Sunday closes the week, Tuesday lands between Monday and Friday.
	_, err = svc.SetDayAvailability(ctx, "user-1", availability.Day{Day: "Sunday", Slots: []availability.Slot{{Start: "10:00", End: "11:00"}}})
	require.NoError(t, err)
	p, err = svc.SetDayAvailability(ctx, "user-1", availability.Day{Day: "Tuesday", Slots: []availability.Slot{{Start: "10:00", End: "11:00"}}})
	require.NoError(t, err)
	days := make([]string, len(p.Schedule.Availability))
	for i, d := range p.Schedule.Availability {
		days[i] = d.Day
	}
	assert.Equal(t, []string{"Monday", "Tuesday", "Friday", "Sunday"}, days)

	_, err = svc.SetDayAvailability(ctx, "nobody", availability.Day{Day: "Friday"})
	assert.ErrorIs(t, err, ErrNotFound)
}

// staleRepository makes the first n saves lose a race against another writer.
type staleRepository struct {
	Repository
	stale int
	saves int
}

func (r *staleRepository) Save(ctx context.Context, p *Provider) error {
	r.saves++
	if r.stale > 0 {
		r.stale--
		other, err := r.Repository.GetByID(ctx, p.ID)
		if err != nil {
			return err
		}
		if err := r.Repository.Save(ctx, other); err != nil {
			return err
		}
	}
	return r.Repository.Save(ctx, p)
}

func TestUpdateWithRetry(t *testing.T) {
	ctx := context.Background()
	seed := func(t *testing.T) Repository {
		repo := NewMemoryRepository()
		require.NoError(t, repo.Create(ctx, &Provider{ID: "p1", UserID: "u1"}))
		return repo
	}

	t.Run("succeeds after a stale write", func(t *testing.T) {
		repo := &staleRepository{Repository: seed(t), stale: 1}
		p, err := UpdateWithRetry(ctx, repo, "p1", 3, func(p *Provider) error {
			p.Bio = "updated"
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "updated", p.Bio)
		assert.Equal(t, 2, repo.saves)
	})

	t.Run("reports conflict when attempts run out", func(t *testing.T) {
		repo := &staleRepository{Repository: seed(t), stale: 5}
		_, err := UpdateWithRetry(ctx, repo, "p1", 3, func(p *Provider) error { return nil })
		assert.ErrorIs(t, err, ErrConflict)
		assert.Equal(t, 3, repo.saves)
	})

	t.Run("stops on mutate error", func(t *testing.T) {
		repo := &staleRepository{Repository: seed(t)}
		_, err := UpdateWithRetry(ctx, repo, "p1", 3, func(p *Provider) error { return ErrServiceNotFound })
		assert.ErrorIs(t, err, ErrServiceNotFound)
		assert.Zero(t, repo.saves)
	})

	t.Run("missing provider", func(t *testing.T) {
		_, err := UpdateWithRetry(ctx, seed(t), "missing", 3, func(p *Provider) error { return nil })
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryRepositoryListByCategory(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, cat := range []string{"home", "education", "home"} {
		require.NoError(t, repo.Create(ctx, &Provider{
			ID:        string(rune('a' + i)),
			UserID:    string(rune('A' + i)),
			Services:  []ServiceOffering{{ID: "s", Name: "x", Category: cat}},
			Rating:    float64(i),
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	items, total, err := repo.List(ctx, Filter{Category: "home", Page: 1, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 1)
	assert.Equal(t, "c", items[0].ID)

	items, total, err = repo.List(ctx, Filter{Page: 5, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Empty(t, items)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadAndOpenPhoto(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	p, err := svc.Upsert(ctx, "user-1", UpsertRequest{})
	require.NoError(t, err)

	_, err = svc.OpenPhoto(ctx, p.ID, false)
	assert.ErrorIs(t, err, ErrPhotoNotFound)

	_, err = svc.UploadPhoto(ctx, "user-1", strings.NewReader("not an image"))
	assert.ErrorIs(t, err, ErrInvalidPhoto)

	p, err = svc.UploadPhoto(ctx, "user-1", bytes.NewReader(pngBytes(t, 300, 150)))
	require.NoError(t, err)
	assert.NotEmpty(t, p.PhotoPath)
	assert.NotEmpty(t, p.ThumbnailPath)

	for _, thumb := range []bool{false, true} {
		rc, err := svc.OpenPhoto(ctx, p.ID, thumb)
		require.NoError(t, err)
		img, _, err := image.Decode(rc)
		require.NoError(t, rc.Close())
		require.NoError(t, err)
		if thumb {
			assert.Equal(t, image.Pt(200, 200), img.Bounds().Size())
		} else {
			assert.Equal(t, image.Pt(300, 150), img.Bounds().Size())
		}
	}

	_, err = svc.UploadPhoto(ctx, "nobody", bytes.NewReader(pngBytes(t, 10, 10)))
	assert.ErrorIs(t, err, ErrNotFound)
}
