package http

import (
	"time"

	"github.com/nekogravitycat/servicehub-backend/internal/availability"
	"github.com/nekogravitycat/servicehub-backend/internal/pkg/request"
	"github.com/nekogravitycat/servicehub-backend/internal/provider"
)

// ListProvidersRequest defines query parameters for browsing providers.
type ListProvidersRequest struct {
	request.ListParams
	Category string `form:"category"`
}

type ServiceBody struct {
	ID          string  `json:"id" binding:"omitempty,uuid"`
	Name        string  `json:"name" binding:"required"`
	Category    string  `json:"category" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"gte=0"`
}

type ContactBody struct {
	Phone string `json:"phone"`
	Email string `json:"email" binding:"omitempty,email"`
}

// UpsertProviderRequest creates or patches the caller's profile. Omitted
// fields are left unchanged.
type UpsertProviderRequest struct {
	Services     *[]ServiceBody      `json:"services" binding:"omitempty,dive"`
	Availability *[]availability.Day `json:"availability"`
	Bio          *string             `json:"bio"`
	Experience   *int                `json:"experience" binding:"omitempty,gte=0"`
	Contact      *ContactBody        `json:"contact"`
}

// ToDomain converts the payload into a provider.UpsertRequest.
func (r *UpsertProviderRequest) ToDomain() provider.UpsertRequest {
	req := provider.UpsertRequest{
		Availability: r.Availability,
		Bio:          r.Bio,
		Experience:   r.Experience,
	}
	if r.Services != nil {
		services := make([]provider.ServiceOffering, len(*r.Services))
		for i, s := range *r.Services {
			services[i] = provider.ServiceOffering{
				ID:          s.ID,
				Name:        s.Name,
				Category:    s.Category,
				Description: s.Description,
				Price:       s.Price,
			}
		}
		req.Services = &services
	}
	if r.Contact != nil {
		req.Contact = &provider.ContactInfo{Phone: r.Contact.Phone, Email: r.Contact.Email}
	}
	return req
}

// SetDayRequest replaces one weekday's slots.
type SetDayRequest struct {
	Day   string              `json:"day" binding:"required"`
	Slots []availability.Slot `json:"slots"`
}

type ServiceResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
}

type BookedSlotResponse struct {
	BookingID string `json:"booking_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
}

// ProviderResponse is the public view of a provider profile.
type ProviderResponse struct {
	ID           string               `json:"id"`
	UserID       string               `json:"user_id"`
	Services     []ServiceResponse    `json:"services"`
	Availability []availability.Day   `json:"availability"`
	BookedSlots  []BookedSlotResponse `json:"booked_slots"`
	Rating       float64              `json:"rating"`
	Bio          string               `json:"bio"`
	Experience   int                  `json:"experience"`
	Phone        string               `json:"phone,omitempty"`
	Email        string               `json:"email,omitempty"`
	PhotoURL     *string              `json:"photo_url"`
	ThumbnailURL *string              `json:"thumbnail_url"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// NewProviderResponse converts a domain provider into its API shape.
func NewProviderResponse(p *provider.Provider) ProviderResponse {
	services := make([]ServiceResponse, 0, len(p.Services))
	for _, s := range p.Services {
		services = append(services, ServiceResponse(s))
	}

	days := p.Schedule.Availability
	if days == nil {
		days = []availability.Day{}
	}

	booked := make([]BookedSlotResponse, 0, len(p.Schedule.BookedSlots))
	for _, b := range p.Schedule.BookedSlots {
		booked = append(booked, BookedSlotResponse{
			BookingID: b.BookingID,
			Date:      availability.FormatDate(b.Date),
			StartTime: b.StartTime,
			EndTime:   b.EndTime,
			Status:    string(b.Status),
		})
	}

	resp := ProviderResponse{
		ID:           p.ID,
		UserID:       p.UserID,
		Services:     services,
		Availability: days,
		BookedSlots:  booked,
		Rating:       p.Rating,
		Bio:          p.Bio,
		Experience:   p.Experience,
		Phone:        p.Contact.Phone,
		Email:        p.Contact.Email,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.PhotoPath != "" {
		u := PhotoURL(p.ID)
		resp.PhotoURL = &u
	}
	if p.ThumbnailPath != "" {
		u := ThumbnailURL(p.ID)
		resp.ThumbnailURL = &u
	}
	return resp
}

// PhotoURL returns the public URL of a provider's photo.
func PhotoURL(providerID string) string {
	return "/v1/providers/" + providerID + "/photo"
}

// ThumbnailURL returns the public URL of a provider's photo thumbnail.
func ThumbnailURL(providerID string) string {
	return PhotoURL(providerID) + "/thumbnail"
}
