package availability

import (
	"fmt"
	"sort"

	"github.com/nekogravitycat/servicehub-backend/internal/pkg/apperror"
)

type interval struct {
	start, end int
	slot       Slot
}

// ValidateDay checks a single weekday entry: known weekday name, HH:MM slot
// bounds with start before end, and no overlapping slots.
func ValidateDay(d Day) error {
	if !IsWeekday(d.Day) {
		return apperror.Detail(ErrInvalidAvailability, fmt.Sprintf("unknown weekday %q", d.Day))
	}

	ivs := make([]interval, 0, len(d.Slots))
	for _, s := range d.Slots {
		start, err := clockMinutes(s.Start)
		if err != nil {
			return apperror.Detail(ErrInvalidAvailability, fmt.Sprintf("%s: %v", d.Day, err))
		}
		end, err := clockMinutes(s.End)
		if err != nil {
			return apperror.Detail(ErrInvalidAvailability, fmt.Sprintf("%s: %v", d.Day, err))
		}
		if start >= end {
			return apperror.Detail(ErrInvalidAvailability, fmt.Sprintf("%s: slot %s-%s ends before it starts", d.Day, s.Start, s.End))
		}
		ivs = append(ivs, interval{start: start, end: end, slot: s})
	}

	sort.Slice(ivs, func(i, j int) bool { return ivs[i].start < ivs[j].start })
	for i := 1; i < len(ivs); i++ {
		prev, cur := ivs[i-1], ivs[i]
		if cur.start < prev.end {
			return apperror.Detail(ErrInvalidAvailability, fmt.Sprintf("%s: slot %s-%s overlaps %s-%s",
				d.Day, cur.slot.Start, cur.slot.End, prev.slot.Start, prev.slot.End))
		}
	}
	return nil
}

// Validate checks the whole schedule: every day passes ValidateDay, weekdays
// are unique, each booking holds at most one slot, and no upcoming booked slot
// is also offered as available on the same weekday.
func Validate(s Schedule) error {
	seen := make(map[string]bool, len(s.Availability))
	for _, d := range s.Availability {
		if seen[d.Day] {
			return apperror.Detail(ErrInvalidAvailability, fmt.Sprintf("weekday %s listed twice", d.Day))
		}
		seen[d.Day] = true
		if err := ValidateDay(d); err != nil {
			return err
		}
	}

	if c := Collisions(s); len(c) > 0 {
		b := c[0]
		return apperror.Detail(ErrInvalidAvailability, fmt.Sprintf("%s %s-%s is held by booking %s",
			Weekday(b.Date), b.StartTime, b.EndTime, b.BookingID))
	}

	holders := make(map[string]bool, len(s.BookedSlots))
	for _, b := range s.BookedSlots {
		if holders[b.BookingID] {
			return apperror.Detail(ErrInvalidAvailability, fmt.Sprintf("booking %s holds more than one slot", b.BookingID))
		}
		holders[b.BookingID] = true
	}
	return nil
}

// Collisions lists the upcoming booked slots that are also present in the
// availability pool of their weekday.
func Collisions(s Schedule) []BookedSlot {
	var out []BookedSlot
	for _, b := range s.BookedSlots {
		if b.Status != StatusUpcoming {
			continue
		}
		di := dayIndex(s.Availability, Weekday(b.Date))
		if di == -1 {
			continue
		}
		if slotIndex(s.Availability[di].Slots, b.StartTime, b.EndTime) != -1 {
			out = append(out, b)
		}
	}
	return out
}
