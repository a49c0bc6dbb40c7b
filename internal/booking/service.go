package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nekogravitycat/servicehub-backend/internal/availability"
	"github.com/nekogravitycat/servicehub-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/servicehub-backend/internal/provider"
	"go.uber.org/zap"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Booking, error)
	// GetByID returns a booking visible to actorID: its customer or the
	// user owning its provider.
	GetByID(ctx context.Context, id, actorID string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	// ListForProvider lists the bookings made with the provider owned by providerUserID.
	ListForProvider(ctx context.Context, providerUserID string, filter Filter) ([]*Booking, int, error)
	Update(ctx context.Context, id string, req UpdateRequest, actorID string) (*Booking, error)
	Delete(ctx context.Context, id, actorID string) error
	Summary(ctx context.Context, providerUserID string) (*Summary, error)
}

type service struct {
	repo       Repository
	providers  provider.Repository
	log        *zap.Logger
	maxRetries int
	now        func() time.Time
}

// NewService creates a booking Service. Every provider write goes through
// provider.UpdateWithRetry with maxRetries attempts.
func NewService(repo Repository, providers provider.Repository, log *zap.Logger, maxRetries int) Service {
	return &service{
		repo:       repo,
		providers:  providers,
		log:        log,
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	date := availability.CivilDate(req.Date)
	if date.Before(availability.CivilDate(s.now().UTC())) {
		return nil, ErrDateInPast
	}

	p, err := s.providers.GetByID(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}
	if req.ServiceID != "" {
		if _, ok := p.Service(req.ServiceID); !ok {
			return nil, provider.ErrServiceNotFound
		}
	}

	now := s.now().UTC()
	b := &Booking{
		ID:         uuid.NewString(),
		UserID:     req.UserID,
		ProviderID: p.ID,
		ServiceID:  req.ServiceID,
		Date:       date,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Status:     availability.StatusUpcoming,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err = provider.UpdateWithRetry(ctx, s.providers, p.ID, s.maxRetries, func(p *provider.Provider) error {
		sched, err := availability.Reserve(p.Schedule, availability.Reservation{
			BookingID: b.ID,
			UserID:    b.UserID,
			ServiceID: b.ServiceID,
			Date:      b.Date,
			StartTime: b.StartTime,
			EndTime:   b.EndTime,
		})
		if err != nil {
			return err
		}
		p.Schedule = sched
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, b); err != nil {
		s.compensate(ctx, b)
		return nil, err
	}

	s.log.Info("booking created",
		zap.String("booking_id", b.ID),
		zap.String("provider_id", b.ProviderID),
		zap.String("date", availability.FormatDate(b.Date)),
		zap.String("start", b.StartTime),
		zap.String("end", b.EndTime),
	)
	return b, nil
}

// compensate returns the slot reserved for b after its record could not be
// written.
func (s *service) compensate(ctx context.Context, b *Booking) {
	_, err := provider.UpdateWithRetry(ctx, s.providers, b.ProviderID, s.maxRetries, func(p *provider.Provider) error {
		p.Schedule = availability.CancelForDeletion(b.engine(), p.Schedule)
		p.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		s.log.Error("failed to release slot of unsaved booking",
			zap.String("booking_id", b.ID),
			zap.String("provider_id", b.ProviderID),
			zap.Error(err),
		)
		return
	}
	s.log.Warn("released slot of unsaved booking",
		zap.String("booking_id", b.ID),
		zap.String("provider_id", b.ProviderID),
	)
}

// roles reports how actorID relates to b.
func (s *service) roles(ctx context.Context, b *Booking, actorID string) (isCustomer, isProvider bool, err error) {
	isCustomer = b.UserID == actorID
	p, err := s.providers.GetByID(ctx, b.ProviderID)
	switch {
	case errors.Is(err, provider.ErrNotFound):
		return isCustomer, false, nil
	case err != nil:
		return false, false, err
	}
	return isCustomer, p.UserID == actorID, nil
}

func (s *service) GetByID(ctx context.Context, id, actorID string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	isCustomer, isProvider, err := s.roles(ctx, b, actorID)
	if err != nil {
		return nil, err
	}
	if !isCustomer && !isProvider {
		return nil, ErrPermissionDenied
	}
	return b, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) ListForProvider(ctx context.Context, providerUserID string, filter Filter) ([]*Booking, int, error) {
	p, err := s.providers.GetByUserID(ctx, providerUserID)
	if err != nil {
		return nil, 0, err
	}
	filter.UserID = ""
	filter.ProviderID = p.ID
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest, actorID string) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	isCustomer, isProvider, err := s.roles(ctx, b, actorID)
	if err != nil {
		return nil, err
	}
	if !isCustomer && !isProvider {
		return nil, ErrPermissionDenied
	}

	// Customers reschedule; only the provider completes; either side cancels.
	if req.reschedules() && !isCustomer {
		return nil, apperror.Detail(ErrPermissionDenied, "only the customer can reschedule a booking")
	}
	if req.Status != nil && *req.Status == availability.StatusCompleted && !isProvider {
		return nil, apperror.Detail(ErrPermissionDenied, "only the provider can complete a booking")
	}
	if req.TimeSpent != nil && (req.Status == nil || *req.Status != availability.StatusCompleted) {
		return nil, apperror.Detail(ErrInvalidInput, "time_spent is only accepted when completing a booking")
	}
	if req.Date != nil && availability.CivilDate(*req.Date).Before(availability.CivilDate(s.now().UTC())) {
		return nil, ErrDateInPast
	}

	date, start, end := b.Date, b.StartTime, b.EndTime
	if req.Date != nil {
		date = availability.CivilDate(*req.Date)
	}
	if req.StartTime != nil {
		start = *req.StartTime
	}
	if req.EndTime != nil {
		end = *req.EndTime
	}

	var result availability.Booking
	now := s.now().UTC()
	_, err = provider.UpdateWithRetry(ctx, s.providers, b.ProviderID, s.maxRetries, func(p *provider.Provider) error {
		eb := b.engine()
		// The record was read before another request moved or released
		// the slot.
		if !availability.InSync(eb, p.Schedule) {
			return ErrConflict
		}

		sched := p.Schedule
		var err error
		if req.reschedules() {
			eb, sched, err = availability.Reschedule(eb, sched, date, start, end)
			if err != nil {
				return err
			}
		}
		if req.Status != nil {
			eb, sched, err = availability.Transition(eb, sched, *req.Status, req.TimeSpent)
			if err != nil {
				return err
			}
		}

		p.Schedule = sched
		p.UpdatedAt = now
		result = eb
		return nil
	})
	if err != nil {
		return nil, err
	}

	previous := b.Status
	b.apply(result)
	b.UpdatedAt = now
	if err := s.repo.Update(ctx, b); err != nil {
		s.log.Error("booking record out of sync with provider schedule",
			zap.String("booking_id", b.ID),
			zap.String("provider_id", b.ProviderID),
			zap.Error(err),
		)
		return nil, err
	}

	if previous != b.Status {
		s.log.Info("booking status changed",
			zap.String("booking_id", b.ID),
			zap.String("from", string(previous)),
			zap.String("to", string(b.Status)),
		)
	}
	return b, nil
}

func (s *service) Delete(ctx context.Context, id, actorID string) error {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	isCustomer, isProvider, err := s.roles(ctx, b, actorID)
	if err != nil {
		return err
	}
	if !isCustomer && !isProvider {
		return ErrPermissionDenied
	}

	_, err = provider.UpdateWithRetry(ctx, s.providers, b.ProviderID, s.maxRetries, func(p *provider.Provider) error {
		if !availability.InSync(b.engine(), p.Schedule) {
			return ErrConflict
		}
		p.Schedule = availability.CancelForDeletion(b.engine(), p.Schedule)
		p.UpdatedAt = s.now().UTC()
		return nil
	})
	// A removed provider has no schedule left to reconcile.
	if err != nil && !errors.Is(err, provider.ErrNotFound) {
		return err
	}

	if err := s.repo.Delete(ctx, b.ID); err != nil {
		return err
	}
	s.log.Info("booking deleted", zap.String("booking_id", b.ID), zap.String("provider_id", b.ProviderID))
	return nil
}

func (s *service) Summary(ctx context.Context, providerUserID string) (*Summary, error) {
	p, err := s.providers.GetByUserID(ctx, providerUserID)
	if err != nil {
		return nil, err
	}

	counts, err := s.repo.CountByStatus(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	return &Summary{
		ProviderID: p.ID,
		Upcoming:   counts[availability.StatusUpcoming],
		Completed:  counts[availability.StatusCompleted],
		Canceled:   counts[availability.StatusCanceled],
		Services:   len(p.Services),
		OpenSlots:  p.Schedule.OpenSlots(),
	}, nil
}
