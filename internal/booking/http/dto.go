package http

import (
	"time"

	"github.com/nekogravitycat/servicehub-backend/internal/availability"
	"github.com/nekogravitycat/servicehub-backend/internal/booking"
	"github.com/nekogravitycat/servicehub-backend/internal/pkg/request"
)

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	request.ListParams
	Status string `form:"status" binding:"omitempty,oneof=upcoming completed canceled"`
}

func (r *ListBookingsRequest) Filter() booking.Filter {
	return booking.Filter{
		Status:    r.Status,
		Page:      r.Page,
		PageSize:  r.PageSize,
		SortOrder: r.SortOrder,
	}
}

type BookingResponse struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ProviderID string    `json:"provider_id"`
	ServiceID  *string   `json:"service_id"`
	Date       string    `json:"date"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	Status     string    `json:"status"`
	TimeSpent  *float64  `json:"time_spent"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	resp := BookingResponse{
		ID:         b.ID,
		UserID:     b.UserID,
		ProviderID: b.ProviderID,
		Date:       availability.FormatDate(b.Date),
		StartTime:  b.StartTime,
		EndTime:    b.EndTime,
		Status:     string(b.Status),
		TimeSpent:  b.TimeSpent,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
	if b.ServiceID != "" {
		id := b.ServiceID
		resp.ServiceID = &id
	}
	return resp
}

type CreateBookingRequest struct {
	ProviderID string `json:"provider_id" binding:"required,uuid"`
	ServiceID  string `json:"service_id" binding:"omitempty,uuid"`
	Date       string `json:"date" binding:"required"`
	StartTime  string `json:"start_time" binding:"required,datetime=15:04"`
	EndTime    string `json:"end_time" binding:"required,datetime=15:04"`
}

// Validate parses the date and checks the time order.
func (r *CreateBookingRequest) Validate() (booking.CreateRequest, error) {
	date, err := availability.ParseDate(r.Date)
	if err != nil {
		return booking.CreateRequest{}, err
	}
	if r.StartTime >= r.EndTime {
		return booking.CreateRequest{}, errInvalidTimeRange
	}
	return booking.CreateRequest{
		ProviderID: r.ProviderID,
		ServiceID:  r.ServiceID,
		Date:       date,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
	}, nil
}

type UpdateBookingRequest struct {
	Status    *string  `json:"status" binding:"omitempty,oneof=upcoming completed canceled"`
	TimeSpent *float64 `json:"time_spent" binding:"omitempty,gte=0"`
	Date      *string  `json:"date"`
	StartTime *string  `json:"start_time" binding:"omitempty,datetime=15:04"`
	EndTime   *string  `json:"end_time" binding:"omitempty,datetime=15:04"`
}

// Validate converts the payload into a booking.UpdateRequest.
func (r *UpdateBookingRequest) Validate() (booking.UpdateRequest, error) {
	var req booking.UpdateRequest
	if r.Status != nil {
		st, err := availability.ParseStatus(*r.Status)
		if err != nil {
			return req, err
		}
		req.Status = &st
	}
	if r.Date != nil {
		date, err := availability.ParseDate(*r.Date)
		if err != nil {
			return req, err
		}
		req.Date = &date
	}
	if r.StartTime != nil && r.EndTime != nil && *r.StartTime >= *r.EndTime {
		return req, errInvalidTimeRange
	}
	if req.Status == nil && r.Date == nil && r.StartTime == nil && r.EndTime == nil {
		return req, errNothingToUpdate
	}
	req.TimeSpent = r.TimeSpent
	req.StartTime = r.StartTime
	req.EndTime = r.EndTime
	return req, nil
}

type SummaryResponse struct {
	ProviderID string         `json:"provider_id"`
	Bookings   map[string]int `json:"bookings"`
	Services   int            `json:"services"`
	OpenSlots  int            `json:"open_slots"`
}

func NewSummaryResponse(s *booking.Summary) SummaryResponse {
	return SummaryResponse{
		ProviderID: s.ProviderID,
		Bookings: map[string]int{
			string(availability.StatusUpcoming):  s.Upcoming,
			string(availability.StatusCompleted): s.Completed,
			string(availability.StatusCanceled):  s.Canceled,
		},
		Services:  s.Services,
		OpenSlots: s.OpenSlots,
	}
}
