package domain

import (
	"fmt"
	"time"
)

// Matches reports whether booking b occupies the slot starting at clock on day.
//
// A slot is occupied by an exact date and time match, by a weekly recurring
// booking on the same weekday and time (from its first date onwards), or by
// the second half of a 40-minute onboarding call.
func Matches(b Booking, day time.Time, clock string) bool {
	day = CivilDay(day)
	bookingTime, err := NormalizeClock(b.Time)
	if err != nil {
		return false
	}

	sameDay := b.Date == FormatDate(day)
	sameTime := bookingTime == clock

	if sameDay && sameTime {
		return true
	}

	if b.Recurring && sameTime {
		if first, err := ParseDate(b.Date); err == nil {
			if first.Weekday() == day.Weekday() && !day.Before(first) {
				return true
			}
		}
	}

	if b.CallType == CallTypeOnboarding && sameDay {
		if second, ok := addClock(bookingTime, SlotDuration); ok && second == clock {
			return true
		}
	}

	return false
}

// FindBooking returns the first booking, in list order, occupying the slot.
func FindBooking(bookings []Booking, day time.Time, clock string) (Booking, bool) {
	for _, b := range bookings {
		if Matches(b, day, clock) {
			return b, true
		}
	}
	return Booking{}, false
}

func IsBooked(bookings []Booking, day time.Time, clock string) bool {
	_, ok := FindBooking(bookings, day, clock)
	return ok
}

// IsAnchor reports whether the booked slot at clock is where the booking is
// labelled and can be deleted. Onboarding calls anchor on their first half.
func IsAnchor(b Booking, clock string) bool {
	if b.CallType != CallTypeOnboarding {
		return true
	}
	bookingTime, err := NormalizeClock(b.Time)
	if err != nil {
		return false
	}
	return bookingTime == clock
}

type SlotView struct {
	Slot    Slot
	Booking *Booking
	Anchor  bool
}

func (v SlotView) Booked() bool {
	return v.Booking != nil
}

func (v SlotView) BookingLabel() string {
	if v.Booking == nil {
		return ""
	}
	return fmt.Sprintf("%s slot Booked for: %s (%s)", v.Booking.CallType.Label(), v.Booking.ClientName, v.Booking.Phone)
}

func BuildDay(day time.Time, bookings []Booking) []SlotView {
	slots := GenerateDaySlots(day)
	out := make([]SlotView, 0, len(slots))
	for _, s := range slots {
		v := SlotView{Slot: s}
		if b, ok := FindBooking(bookings, day, s.Clock()); ok {
			booking := b
			v.Booking = &booking
			v.Anchor = IsAnchor(b, s.Clock())
		}
		out = append(out, v)
	}
	return out
}

// SecondHalf returns the start of the slot following clock, which an
// onboarding call starting at clock also occupies.
func SecondHalf(clock string) (string, bool) {
	return addClock(clock, SlotDuration)
}

// OccupiedFrom reports whether a weekly booking starting at clock on day would
// land on a slot some existing booking holds, in that week or any later one.
// Existing recurring bookings on the same weekday and time clash whatever
// their first date.
func OccupiedFrom(bookings []Booking, day time.Time, clock string) bool {
	day = CivilDay(day)
	for _, b := range bookings {
		first, err := ParseDate(b.Date)
		if err != nil || first.Weekday() != day.Weekday() {
			continue
		}
		if b.Recurring {
			if bookingTime, err := NormalizeClock(b.Time); err == nil && bookingTime == clock {
				return true
			}
			continue
		}
		if !first.Before(day) && Matches(b, first, clock) {
			return true
		}
	}
	return false
}
