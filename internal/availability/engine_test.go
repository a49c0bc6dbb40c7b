package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-08-19 is a Monday.
var monday = time.Date(2024, 8, 19, 0, 0, 0, 0, time.UTC)

func mondaySchedule() Schedule {
	return Schedule{
		Availability: []Day{
			{Day: "Monday", Slots: []Slot{{Start: "09:00", End: "10:00"}, {Start: "10:00", End: "11:00"}}},
			{Day: "Wednesday", Slots: []Slot{{Start: "14:00", End: "15:00"}}},
		},
	}
}

func reservation(id, start, end string) Reservation {
	return Reservation{BookingID: id, UserID: "user-1", Date: monday, StartTime: start, EndTime: end}
}

func slotsOf(s Schedule, weekday string) []Slot {
	for _, d := range s.Availability {
		if d.Day == weekday {
			return d.Slots
		}
	}
	return nil
}

func TestWeekday(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2024-08-19", "Monday"},
		{"2024-08-20", "Tuesday"},
		{"2024-08-25", "Sunday"},
		{"2024-02-29", "Thursday"},
		{"2024-08-19T23:30:00-05:00", "Monday"},
		{"2024-08-19T01:30:00+09:00", "Monday"},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			d, err := ParseDate(tt.date)
			require.NoError(t, err)
			assert.Equal(t, tt.want, Weekday(d))
			assert.Equal(t, time.UTC, d.Location())
			assert.Zero(t, d.Hour())
		})
	}

	_, err := ParseDate("19/08/2024")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestReserveAndCancelScenario(t *testing.T) {
	p := mondaySchedule()

	reserved, err := Reserve(p, reservation("b1", "09:00", "10:00"))
	require.NoError(t, err)
	assert.Equal(t, []Slot{{Start: "10:00", End: "11:00"}}, slotsOf(reserved, "Monday"))
	require.Len(t, reserved.BookedSlots, 1)
	assert.Equal(t, BookedSlot{
		BookingID: "b1",
		UserID:    "user-1",
		Date:      monday,
		StartTime: "09:00",
		EndTime:   "10:00",
		Status:    StatusUpcoming,
	}, reserved.BookedSlots[0])

	// The input schedule is not mutated.
	assert.Len(t, slotsOf(p, "Monday"), 2)
	assert.Empty(t, p.BookedSlots)

	b := Booking{ID: "b1", UserID: "user-1", Date: monday, StartTime: "09:00", EndTime: "10:00", Status: StatusUpcoming}
	canceled, restored, err := Transition(b, reserved, StatusCanceled, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, canceled.Status)
	assert.Empty(t, restored.BookedSlots)
	assert.ElementsMatch(t, slotsOf(p, "Monday"), slotsOf(restored, "Monday"))
}

func TestReserveReleaseRoundTrip(t *testing.T) {
	p := mondaySchedule()
	for _, slot := range slotsOf(p, "Monday") {
		reserved, err := Reserve(p, reservation("b", slot.Start, slot.End))
		require.NoError(t, err)

		released := Release(reserved, "Monday", slot)
		assert.ElementsMatch(t, slotsOf(p, "Monday"), slotsOf(released, "Monday"))
		assert.Equal(t, slotsOf(p, "Wednesday"), slotsOf(released, "Wednesday"))
	}
}

func TestReserveUnavailable(t *testing.T) {
	tests := []struct {
		name string
		s    Schedule
		r    Reservation
	}{
		{"no weekday entry", mondaySchedule(), Reservation{BookingID: "b", Date: monday.AddDate(0, 0, 1), StartTime: "09:00", EndTime: "10:00"}},
		{"no exact match", mondaySchedule(), reservation("b", "09:00", "09:30")},
		{"partial overlap is not a match", mondaySchedule(), reservation("b", "09:30", "10:30")},
		{"empty schedule", Schedule{}, reservation("b", "09:00", "10:00")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.s.Clone()
			out, err := Reserve(tt.s, tt.r)
			assert.ErrorIs(t, err, ErrSlotUnavailable)
			assert.Equal(t, before, out)
			assert.Equal(t, before, tt.s)
		})
	}
}

func TestReserveTwiceForSameBooking(t *testing.T) {
	reserved, err := Reserve(mondaySchedule(), reservation("b1", "09:00", "10:00"))
	require.NoError(t, err)

	_, err = Reserve(reserved, reservation("b1", "10:00", "11:00"))
	assert.ErrorIs(t, err, ErrAlreadyReserved)
}

func TestReleaseIsIdempotent(t *testing.T) {
	s := mondaySchedule()
	slot := Slot{Start: "11:00", End: "12:00"}

	once := Release(s, "Monday", slot)
	twice := Release(once, "Monday", slot)

	assert.Equal(t, once, twice)
	seen := map[Slot]int{}
	for _, sl := range slotsOf(twice, "Monday") {
		seen[sl]++
	}
	for sl, n := range seen {
		assert.Equal(t, 1, n, "slot %v duplicated", sl)
	}
}

func TestReleaseCreatesMissingDayInWeekOrder(t *testing.T) {
	out := Release(mondaySchedule(), "Tuesday", Slot{Start: "08:00", End: "09:00"})

	days := make([]string, len(out.Availability))
	for i, d := range out.Availability {
		days[i] = d.Day
	}
	assert.Equal(t, []string{"Monday", "Tuesday", "Wednesday"}, days)
	assert.Equal(t, []Slot{{Start: "08:00", End: "09:00"}}, slotsOf(out, "Tuesday"))

	out = Release(Schedule{}, "Sunday", Slot{Start: "08:00", End: "09:00"})
	require.Len(t, out.Availability, 1)
	assert.Equal(t, "Sunday", out.Availability[0].Day)
}

func TestSetDay(t *testing.T) {
	base := mondaySchedule()

	out := SetDay(base, Day{Day: "Tuesday", Slots: []Slot{{Start: "08:00", End: "09:00"}}})
	days := make([]string, len(out.Availability))
	for i, d := range out.Availability {
		days[i] = d.Day
	}
	assert.Equal(t, []string{"Monday", "Tuesday", "Wednesday"}, days)

	out = SetDay(out, Day{Day: "Monday", Slots: []Slot{{Start: "12:00", End: "13:00"}}})
	assert.Equal(t, []Slot{{Start: "12:00", End: "13:00"}}, slotsOf(out, "Monday"))
	assert.Len(t, out.Availability, 3)

	out = SetDay(out, Day{Day: "Wednesday"})
	assert.NotNil(t, slotsOf(out, "Wednesday"))
	assert.Empty(t, slotsOf(out, "Wednesday"))

	assert.Equal(t, mondaySchedule(), base)
}

func TestInSync(t *testing.T) {
	reserved, err := Reserve(mondaySchedule(), reservation("b1", "09:00", "10:00"))
	require.NoError(t, err)

	b := Booking{ID: "b1", Date: monday, StartTime: "09:00", EndTime: "10:00", Status: StatusUpcoming}
	assert.True(t, InSync(b, reserved))

	// The record still shows the slot it held before a reschedule.
	moved, after, err := Reschedule(b, reserved, monday, "10:00", "11:00")
	require.NoError(t, err)
	assert.False(t, InSync(b, after))
	assert.True(t, InSync(moved, after))

	nextWeek := b
	nextWeek.Date = monday.AddDate(0, 0, 7)
	assert.False(t, InSync(nextWeek, reserved))

	assert.False(t, InSync(b, mondaySchedule()))

	canceled := b
	canceled.Status = StatusCanceled
	assert.True(t, InSync(canceled, mondaySchedule()))
}

func TestTransitionTable(t *testing.T) {
	reserved, err := Reserve(mondaySchedule(), reservation("b1", "09:00", "10:00"))
	require.NoError(t, err)
	upcoming := Booking{ID: "b1", UserID: "user-1", Date: monday, StartTime: "09:00", EndTime: "10:00", Status: StatusUpcoming}
	spent := 45.5

	t.Run("upcoming to completed", func(t *testing.T) {
		b, s, err := Transition(upcoming, reserved, StatusCompleted, &spent)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, b.Status)
		require.NotNil(t, b.TimeSpent)
		assert.Equal(t, 45.5, *b.TimeSpent)
		assert.False(t, Holds(s, "b1"))
		assert.Contains(t, slotsOf(s, "Monday"), Slot{Start: "09:00", End: "10:00"})
	})

	t.Run("upcoming to canceled ignores time spent", func(t *testing.T) {
		b, s, err := Transition(upcoming, reserved, StatusCanceled, &spent)
		require.NoError(t, err)
		assert.Equal(t, StatusCanceled, b.Status)
		assert.Nil(t, b.TimeSpent)
		assert.False(t, Holds(s, "b1"))
		assert.Contains(t, slotsOf(s, "Monday"), Slot{Start: "09:00", End: "10:00"})
	})

	t.Run("upcoming to upcoming is a no-op", func(t *testing.T) {
		b, s, err := Transition(upcoming, reserved, StatusUpcoming, nil)
		require.NoError(t, err)
		assert.Equal(t, upcoming, b)
		assert.Equal(t, reserved, s)
	})

	t.Run("unknown target", func(t *testing.T) {
		_, s, err := Transition(upcoming, reserved, Status("archived"), nil)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, reserved, s)
	})

	t.Run("canceled on a day that was removed recreates it", func(t *testing.T) {
		withoutMonday := reserved.Clone()
		withoutMonday.Availability = withoutMonday.Availability[1:]
		_, s, err := Transition(upcoming, withoutMonday, StatusCanceled, nil)
		require.NoError(t, err)
		assert.Equal(t, []Slot{{Start: "09:00", End: "10:00"}}, slotsOf(s, "Monday"))
	})
}

func TestTransitionFromTerminal(t *testing.T) {
	for _, from := range []Status{StatusCompleted, StatusCanceled} {
		for _, to := range []Status{StatusUpcoming, StatusCompleted, StatusCanceled, Status("bogus")} {
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				b := Booking{ID: "b1", Date: monday, StartTime: "09:00", EndTime: "10:00", Status: from}
				s := mondaySchedule()
				gotB, gotS, err := Transition(b, s, to, nil)
				assert.ErrorIs(t, err, ErrInvalidTransition)
				assert.Equal(t, b, gotB)
				assert.Equal(t, s, gotS)
			})
		}
	}
}

func TestCancelForDeletion(t *testing.T) {
	reserved, err := Reserve(mondaySchedule(), reservation("b1", "09:00", "10:00"))
	require.NoError(t, err)

	upcoming := Booking{ID: "b1", Date: monday, StartTime: "09:00", EndTime: "10:00", Status: StatusUpcoming}
	out := CancelForDeletion(upcoming, reserved)
	assert.False(t, Holds(out, "b1"))
	assert.ElementsMatch(t, slotsOf(mondaySchedule(), "Monday"), slotsOf(out, "Monday"))

	// A completed booking already gave its slot back; deleting it must not
	// resurrect a slot the provider has since removed.
	completed := upcoming
	completed.Status = StatusCompleted
	trimmed := mondaySchedule()
	trimmed.Availability[0].Slots = trimmed.Availability[0].Slots[1:]
	out = CancelForDeletion(completed, trimmed)
	assert.Equal(t, trimmed, out)
}

func TestReschedule(t *testing.T) {
	reserved, err := Reserve(mondaySchedule(), reservation("b1", "09:00", "10:00"))
	require.NoError(t, err)
	b := Booking{ID: "b1", UserID: "user-1", Date: monday, StartTime: "09:00", EndTime: "10:00", Status: StatusUpcoming}

	t.Run("to another slot", func(t *testing.T) {
		wednesday := monday.AddDate(0, 0, 2)
		nb, s, err := Reschedule(b, reserved, wednesday, "14:00", "15:00")
		require.NoError(t, err)
		assert.Equal(t, "14:00", nb.StartTime)
		assert.True(t, wednesday.Equal(nb.Date))
		assert.Empty(t, slotsOf(s, "Wednesday"))
		assert.ElementsMatch(t, slotsOf(mondaySchedule(), "Monday"), slotsOf(s, "Monday"))
		require.Len(t, s.BookedSlots, 1)
		assert.Equal(t, "14:00", s.BookedSlots[0].StartTime)
		assert.NoError(t, Validate(s))
	})

	t.Run("same weekly slot next week", func(t *testing.T) {
		next := monday.AddDate(0, 0, 7)
		nb, s, err := Reschedule(b, reserved, next, "09:00", "10:00")
		require.NoError(t, err)
		assert.True(t, next.Equal(nb.Date))
		assert.Equal(t, reserved.Availability, s.Availability)
		assert.True(t, next.Equal(s.BookedSlots[0].Date))
	})

	t.Run("unavailable target leaves schedule", func(t *testing.T) {
		nb, s, err := Reschedule(b, reserved, monday, "12:00", "13:00")
		assert.ErrorIs(t, err, ErrSlotUnavailable)
		assert.Equal(t, b, nb)
		assert.Equal(t, reserved, s)
	})

	t.Run("terminal booking", func(t *testing.T) {
		done := b
		done.Status = StatusCompleted
		_, _, err := Reschedule(done, reserved, monday, "10:00", "11:00")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("completed")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, st)
	assert.True(t, st.IsTerminal())
	assert.False(t, StatusUpcoming.IsTerminal())

	_, err = ParseStatus("cancelled")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
