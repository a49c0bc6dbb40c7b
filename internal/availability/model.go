package availability

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/servicehub-backend/internal/pkg/apperror"
)

var (
	ErrSlotUnavailable     = apperror.New(http.StatusConflict, "SlotUnavailable", "selected slot is not available")
	ErrAlreadyReserved     = apperror.New(http.StatusConflict, "AlreadyReserved", "booking already holds a slot")
	ErrInvalidTransition   = apperror.New(http.StatusConflict, "InvalidTransition", "invalid booking status transition")
	ErrInvalidAvailability = apperror.New(http.StatusBadRequest, "InvalidAvailability", "invalid availability")
	ErrInvalidDate         = apperror.New(http.StatusBadRequest, "InvalidDate", "date must be YYYY-MM-DD or RFC3339")
)

type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

// IsTerminal reports whether no transition is defined away from s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// ParseStatus converts s into a known Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusUpcoming, StatusCompleted, StatusCanceled:
		return st, nil
	}
	return "", apperror.Detail(ErrInvalidTransition, "unknown status "+s)
}

// Slot is a bookable window within a weekday, as HH:MM strings.
type Slot struct {
	Start string `json:"start" bson:"start"`
	End   string `json:"end" bson:"end"`
}

// Day holds the slots currently open for booking on one weekday.
type Day struct {
	Day   string `json:"day" bson:"day"`
	Slots []Slot `json:"slots" bson:"slots"`
}

// BookedSlot is a slot taken out of the availability pool by a booking.
type BookedSlot struct {
	BookingID string    `json:"booking_id" bson:"booking_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	ServiceID string    `json:"service_id,omitempty" bson:"service_id,omitempty"`
	Date      time.Time `json:"date" bson:"date"`
	StartTime string    `json:"start_time" bson:"start_time"`
	EndTime   string    `json:"end_time" bson:"end_time"`
	Status    Status    `json:"status" bson:"status"`
}

// Schedule is the part of a provider record the engine reconciles.
type Schedule struct {
	Availability []Day        `json:"availability" bson:"availability"`
	BookedSlots  []BookedSlot `json:"booked_slots" bson:"booked_slots"`
}

// Booking is the engine's view of a booking record.
type Booking struct {
	ID        string
	UserID    string
	ServiceID string
	Date      time.Time
	StartTime string
	EndTime   string
	Status    Status
	TimeSpent *float64
}

// Reservation describes a slot request for a new booking.
type Reservation struct {
	BookingID string
	UserID    string
	ServiceID string
	Date      time.Time
	StartTime string
	EndTime   string
}

// Clone returns a deep copy of s.
func (s Schedule) Clone() Schedule {
	out := Schedule{}
	if s.Availability != nil {
		out.Availability = make([]Day, len(s.Availability))
		for i, d := range s.Availability {
			out.Availability[i] = Day{Day: d.Day, Slots: append([]Slot(nil), d.Slots...)}
		}
	}
	if s.BookedSlots != nil {
		out.BookedSlots = append([]BookedSlot(nil), s.BookedSlots...)
	}
	return out
}

// OpenSlots counts the slots across all weekdays.
func (s Schedule) OpenSlots() int {
	n := 0
	for _, d := range s.Availability {
		n += len(d.Slots)
	}
	return n
}
