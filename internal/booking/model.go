package booking

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/servicehub-backend/internal/availability"
	"github.com/nekogravitycat/servicehub-backend/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "BookingNotFound", "booking not found")
	ErrConflict         = apperror.New(http.StatusConflict, "Conflict", "booking was changed concurrently, reload and retry")
	ErrPermissionDenied = apperror.New(http.StatusForbidden, "PermissionDenied", "permission denied")
	ErrInvalidInput     = apperror.New(http.StatusBadRequest, "InvalidInput", "invalid input parameters")
	ErrDateInPast       = apperror.New(http.StatusBadRequest, "InvalidInput", "cannot book a date in the past")
)

// Booking is a customer's reservation of one provider slot on a given date.
type Booking struct {
	ID         string
	UserID     string
	ProviderID string
	ServiceID  string // empty when the booking is not tied to a service
	Date       time.Time
	StartTime  string // HH:MM
	EndTime    string // HH:MM
	Status     availability.Status
	TimeSpent  *float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (b *Booking) engine() availability.Booking {
	return availability.Booking{
		ID:        b.ID,
		UserID:    b.UserID,
		ServiceID: b.ServiceID,
		Date:      b.Date,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Status:    b.Status,
		TimeSpent: b.TimeSpent,
	}
}

func (b *Booking) apply(eb availability.Booking) {
	b.Date = eb.Date
	b.StartTime = eb.StartTime
	b.EndTime = eb.EndTime
	b.Status = eb.Status
	b.TimeSpent = eb.TimeSpent
}

// Filter defines parameters for listing bookings.
type Filter struct {
	UserID     string
	ProviderID string
	Status     string
	Page       int
	PageSize   int
	SortOrder  string // ASC or DESC on date, default DESC
}

// CreateRequest describes a new booking.
type CreateRequest struct {
	UserID     string
	ProviderID string
	ServiceID  string
	Date       time.Time
	StartTime  string
	EndTime    string
}

// UpdateRequest changes a booking. Date and times reschedule it; Status
// transitions it. Nil fields are left as they are.
type UpdateRequest struct {
	Status    *availability.Status
	TimeSpent *float64
	Date      *time.Time
	StartTime *string
	EndTime   *string
}

func (r UpdateRequest) reschedules() bool {
	return r.Date != nil || r.StartTime != nil || r.EndTime != nil
}

// Summary holds the provider dashboard figures.
type Summary struct {
	ProviderID string
	Upcoming   int
	Completed  int
	Canceled   int
	Services   int
	OpenSlots  int
}
