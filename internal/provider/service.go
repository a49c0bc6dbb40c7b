package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nekogravitycat/servicehub-backend/internal/availability"
	"github.com/nekogravitycat/servicehub-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/servicehub-backend/internal/pkg/storage"
	"go.uber.org/zap"
)

const (
	photoMaxSide  = 1024
	thumbnailSide = 200
)

// Service manages provider profiles.
type Service interface {
	// Upsert creates the caller's profile or patches the fields set in req.
	// The resulting schedule must pass availability.Validate.
	Upsert(ctx context.Context, userID string, req UpsertRequest) (*Provider, error)

	// SetDayAvailability replaces one weekday's slots wholesale. It skips the
	// check against booked slots; collisions are only logged.
	SetDayAvailability(ctx context.Context, userID string, day availability.Day) (*Provider, error)

	GetByID(ctx context.Context, id string) (*Provider, error)
	GetByUserID(ctx context.Context, userID string) (*Provider, error)
	List(ctx context.Context, filter Filter) ([]*Provider, int, error)

	UploadPhoto(ctx context.Context, userID string, content io.Reader) (*Provider, error)
	OpenPhoto(ctx context.Context, id string, thumbnail bool) (io.ReadCloser, error)
}

type service struct {
	repo       Repository
	store      storage.Storage
	images     *storage.ImageProcessor
	log        *zap.Logger
	maxRetries int
	now        func() time.Time
}

// NewService creates a new provider Service. maxRetries bounds the optimistic
// write loop.
func NewService(repo Repository, store storage.Storage, images *storage.ImageProcessor, log *zap.Logger, maxRetries int) Service {
	return &service{
		repo:       repo,
		store:      store,
		images:     images,
		log:        log,
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

func (s *service) Upsert(ctx context.Context, userID string, req UpsertRequest) (*Provider, error) {
	if req.Services != nil {
		services, err := normalizeServices(*req.Services)
		if err != nil {
			return nil, err
		}
		req.Services = &services
	}

	existing, err := s.repo.GetByUserID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		p, createErr := s.create(ctx, userID, req)
		if !errors.Is(createErr, ErrConflict) {
			return p, createErr
		}
		// Another request created the profile first; patch it instead.
		existing, err = s.repo.GetByUserID(ctx, userID)
	}
	if err != nil {
		return nil, err
	}

	return UpdateWithRetry(ctx, s.repo, existing.ID, s.maxRetries, func(p *Provider) error {
		applyUpsert(p, req)
		if err := availability.Validate(p.Schedule); err != nil {
			return err
		}
		p.UpdatedAt = s.now().UTC()
		return nil
	})
}

func (s *service) create(ctx context.Context, userID string, req UpsertRequest) (*Provider, error) {
	now := s.now().UTC()
	p := &Provider{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyUpsert(p, req)
	if err := availability.Validate(p.Schedule); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("provider profile created", zap.String("provider_id", p.ID), zap.String("user_id", userID))
	return p, nil
}

func applyUpsert(p *Provider, req UpsertRequest) {
	if req.Services != nil {
		p.Services = *req.Services
	}
	if req.Availability != nil {
		p.Schedule.Availability = *req.Availability
	}
	if req.Bio != nil {
		p.Bio = strings.TrimSpace(*req.Bio)
	}
	if req.Experience != nil {
		p.Experience = *req.Experience
	}
	if req.Contact != nil {
		p.Contact = *req.Contact
	}
}

// normalizeServices trims names, checks required fields and assigns ids to
// new offerings.
func normalizeServices(in []ServiceOffering) ([]ServiceOffering, error) {
	out := make([]ServiceOffering, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, svc := range in {
		svc.Name = strings.TrimSpace(svc.Name)
		svc.Category = strings.TrimSpace(svc.Category)
		switch {
		case svc.Name == "":
			return nil, apperror.Detail(ErrInvalidService, "name is required")
		case svc.Category == "":
			return nil, apperror.Detail(ErrInvalidService, fmt.Sprintf("%s: category is required", svc.Name))
		case svc.Price < 0:
			return nil, apperror.Detail(ErrInvalidService, fmt.Sprintf("%s: price must not be negative", svc.Name))
		}
		if svc.ID == "" {
			svc.ID = uuid.NewString()
		}
		if seen[svc.ID] {
			return nil, apperror.Detail(ErrInvalidService, "duplicate service id "+svc.ID)
		}
		seen[svc.ID] = true
		out = append(out, svc)
	}
	return out, nil
}

func (s *service) SetDayAvailability(ctx context.Context, userID string, day availability.Day) (*Provider, error) {
	if err := availability.ValidateDay(day); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	p, err := UpdateWithRetry(ctx, s.repo, existing.ID, s.maxRetries, func(p *Provider) error {
		p.Schedule = availability.SetDay(p.Schedule, day)
		p.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, b := range availability.Collisions(p.Schedule) {
		if availability.Weekday(b.Date) != day.Day {
			continue
		}
		s.log.Warn("availability override offers a booked slot",
			zap.String("provider_id", p.ID),
			zap.String("booking_id", b.BookingID),
			zap.String("day", day.Day),
			zap.String("start", b.StartTime),
			zap.String("end", b.EndTime),
		)
	}
	return p, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Provider, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetByUserID(ctx context.Context, userID string) (*Provider, error) {
	return s.repo.GetByUserID(ctx, userID)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Provider, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) UploadPhoto(ctx context.Context, userID string, content io.Reader) (*Provider, error) {
	existing, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	img, err := s.images.Decode(content)
	if err != nil {
		return nil, apperror.Wrap(err, ErrInvalidPhoto.Code, ErrInvalidPhoto.Kind, ErrInvalidPhoto.Message)
	}
	photo, err := s.images.Fit(img, photoMaxSide, photoMaxSide)
	if err != nil {
		return nil, err
	}
	thumb, err := s.images.Thumbnail(img, thumbnailSide)
	if err != nil {
		return nil, err
	}

	// A fresh name per upload keeps cached URLs of the old photo from
	// serving the new bytes.
	name := uuid.NewString()
	photoPath := fmt.Sprintf("providers/%s/%s.jpg", existing.ID, name)
	thumbPath := fmt.Sprintf("providers/%s/%s_thumb.jpg", existing.ID, name)

	if err := s.store.Save(ctx, photoPath, photo); err != nil {
		return nil, fmt.Errorf("failed to store photo: %w", err)
	}
	if err := s.store.Save(ctx, thumbPath, thumb); err != nil {
		s.removeFiles(ctx, photoPath)
		return nil, fmt.Errorf("failed to store thumbnail: %w", err)
	}

	var oldPhoto, oldThumb string
	p, err := UpdateWithRetry(ctx, s.repo, existing.ID, s.maxRetries, func(p *Provider) error {
		oldPhoto, oldThumb = p.PhotoPath, p.ThumbnailPath
		p.PhotoPath = photoPath
		p.ThumbnailPath = thumbPath
		p.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		s.removeFiles(ctx, photoPath, thumbPath)
		return nil, err
	}

	s.removeFiles(ctx, oldPhoto, oldThumb)
	return p, nil
}

func (s *service) removeFiles(ctx context.Context, paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := s.store.Delete(ctx, path); err != nil {
			s.log.Warn("failed to remove stored photo", zap.String("path", path), zap.Error(err))
		}
	}
}

func (s *service) OpenPhoto(ctx context.Context, id string, thumbnail bool) (io.ReadCloser, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	path := p.PhotoPath
	if thumbnail {
		path = p.ThumbnailPath
	}
	if path == "" {
		return nil, ErrPhotoNotFound
	}

	rc, err := s.store.Open(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrPhotoNotFound
	}
	return rc, err
}
