package availability

import (
	"fmt"
	"time"

	"github.com/nekogravitycat/servicehub-backend/internal/pkg/apperror"
)

// dayIndex returns the position of weekday in days, or -1.
func dayIndex(days []Day, weekday string) int {
	for i, d := range days {
		if d.Day == weekday {
			return i
		}
	}
	return -1
}

// slotIndex returns the position of the slot exactly matching start and end, or -1.
func slotIndex(slots []Slot, start, end string) int {
	for i, s := range slots {
		if s.Start == start && s.End == end {
			return i
		}
	}
	return -1
}

// Holds reports whether bookingID has an entry in s.BookedSlots.
func Holds(s Schedule, bookingID string) bool {
	for _, b := range s.BookedSlots {
		if b.BookingID == bookingID {
			return true
		}
	}
	return false
}

// InSync reports whether s still agrees with b. An upcoming booking must hold
// a booked entry with the same date and times; a terminal booking holds
// nothing in the pool, so it always agrees.
func InSync(b Booking, s Schedule) bool {
	if b.Status.IsTerminal() {
		return true
	}
	for _, h := range s.BookedSlots {
		if h.BookingID != b.ID {
			continue
		}
		return CivilDate(h.Date).Equal(CivilDate(b.Date)) &&
			h.StartTime == b.StartTime && h.EndTime == b.EndTime
	}
	return false
}

// SetDay replaces the slots of day.Day, or inserts the day in Monday-first
// order when it is missing.
func SetDay(s Schedule, day Day) Schedule {
	out := s.Clone()
	slots := make([]Slot, len(day.Slots))
	copy(slots, day.Slots)

	if di := dayIndex(out.Availability, day.Day); di != -1 {
		out.Availability[di].Slots = slots
		return out
	}

	pos := len(out.Availability)
	if order := weekdayOrder(day.Day); order != -1 {
		for i, d := range out.Availability {
			if weekdayOrder(d.Day) > order {
				pos = i
				break
			}
		}
	}
	entry := Day{Day: day.Day, Slots: slots}
	out.Availability = append(out.Availability[:pos:pos], append([]Day{entry}, out.Availability[pos:]...)...)
	return out
}

// Reserve moves the slot requested by r from the availability pool into the
// booked list. The slot must match an available (start, end) pair exactly on
// the weekday of r.Date.
func Reserve(s Schedule, r Reservation) (Schedule, error) {
	if Holds(s, r.BookingID) {
		return s, ErrAlreadyReserved
	}

	weekday := Weekday(r.Date)
	di := dayIndex(s.Availability, weekday)
	if di == -1 {
		return s, apperror.Detail(ErrSlotUnavailable, "no availability on "+weekday)
	}
	si := slotIndex(s.Availability[di].Slots, r.StartTime, r.EndTime)
	if si == -1 {
		return s, apperror.Detail(ErrSlotUnavailable, fmt.Sprintf("%s %s-%s is not open", weekday, r.StartTime, r.EndTime))
	}

	out := s.Clone()
	slots := out.Availability[di].Slots
	out.Availability[di].Slots = append(slots[:si:si], slots[si+1:]...)
	out.BookedSlots = append(out.BookedSlots, BookedSlot{
		BookingID: r.BookingID,
		UserID:    r.UserID,
		ServiceID: r.ServiceID,
		Date:      CivilDate(r.Date),
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		Status:    StatusUpcoming,
	})
	return out, nil
}

// Release returns slot to the weekday's pool. It creates the weekday entry
// when missing and does nothing if the slot is already available.
func Release(s Schedule, weekday string, slot Slot) Schedule {
	di := dayIndex(s.Availability, weekday)
	if di == -1 {
		return SetDay(s, Day{Day: weekday, Slots: []Slot{slot}})
	}

	out := s.Clone()
	if slotIndex(out.Availability[di].Slots, slot.Start, slot.End) == -1 {
		out.Availability[di].Slots = append(out.Availability[di].Slots, slot)
	}
	return out
}

// Drop removes the booked entry of bookingID, if any.
func Drop(s Schedule, bookingID string) Schedule {
	out := s.Clone()
	kept := out.BookedSlots[:0]
	for _, b := range out.BookedSlots {
		if b.BookingID != bookingID {
			kept = append(kept, b)
		}
	}
	out.BookedSlots = kept
	return out
}

// Transition applies a status change to b and reconciles s accordingly.
//
//	upcoming -> completed: slot released, booked entry dropped, timeSpent recorded
//	upcoming -> canceled:  slot released, booked entry dropped
//	upcoming -> upcoming:  no effect
//
// Terminal bookings cannot transition.
func Transition(b Booking, s Schedule, to Status, timeSpent *float64) (Booking, Schedule, error) {
	if b.Status.IsTerminal() {
		return b, s, apperror.Detail(ErrInvalidTransition, fmt.Sprintf("booking is already %s", b.Status))
	}

	switch to {
	case StatusUpcoming:
		return b, s, nil
	case StatusCompleted:
		out := free(b, s)
		b.Status = StatusCompleted
		if timeSpent != nil {
			v := *timeSpent
			b.TimeSpent = &v
		}
		return b, out, nil
	case StatusCanceled:
		out := free(b, s)
		b.Status = StatusCanceled
		return b, out, nil
	}
	return b, s, apperror.Detail(ErrInvalidTransition, fmt.Sprintf("unknown status %q", to))
}

// free releases b's slot and drops its booked entry.
func free(b Booking, s Schedule) Schedule {
	out := Release(s, Weekday(b.Date), Slot{Start: b.StartTime, End: b.EndTime})
	return Drop(out, b.ID)
}

// CancelForDeletion prepares s for the removal of booking b. Upcoming bookings
// are canceled through Transition. Terminal bookings released their slot when
// they left upcoming, so only a leftover booked entry is dropped.
func CancelForDeletion(b Booking, s Schedule) Schedule {
	if b.Status.IsTerminal() {
		return Drop(s, b.ID)
	}
	_, out, _ := Transition(b, s, StatusCanceled, nil)
	return out
}

// Reschedule moves an upcoming booking to another slot: the new slot is
// reserved first, then the old one is released. On failure s is unchanged.
func Reschedule(b Booking, s Schedule, date time.Time, start, end string) (Booking, Schedule, error) {
	if b.Status.IsTerminal() {
		return b, s, apperror.Detail(ErrInvalidTransition, fmt.Sprintf("cannot reschedule a %s booking", b.Status))
	}

	date = CivilDate(date)
	if Weekday(date) == Weekday(b.Date) && start == b.StartTime && end == b.EndTime {
		// Same weekly slot on another date: the pool is unaffected.
		out := s.Clone()
		for i := range out.BookedSlots {
			if out.BookedSlots[i].BookingID == b.ID {
				out.BookedSlots[i].Date = date
			}
		}
		b.Date = date
		return b, out, nil
	}

	// The old entry must go before reserving, since it carries the same booking id.
	out, err := Reserve(Drop(s, b.ID), Reservation{
		BookingID: b.ID,
		UserID:    b.UserID,
		ServiceID: b.ServiceID,
		Date:      date,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		return b, s, err
	}

	out = Release(out, Weekday(b.Date), Slot{Start: b.StartTime, End: b.EndTime})

	b.Date = date
	b.StartTime = start
	b.EndTime = end
	return b, out, nil
}
