package domain

import (
	"errors"
	"strconv"
	"time"
)

const week = 7 * 24 * time.Hour

type Occurrence struct {
	ID         string
	BookingID  string
	ClientName string
	Phone      string
	CallType   CallType
	StartTime  time.Time
	EndTime    time.Time
}

// Occurrences expands a booking into the concrete calls overlapping
// [windowStart, windowEnd). Recurring bookings repeat weekly from their first
// date with no end; other bookings yield at most one occurrence.
func Occurrences(b Booking, windowStart, windowEnd time.Time) ([]Occurrence, error) {
	if !b.CallType.Valid() {
		return nil, errors.New("unsupported call type")
	}
	first, err := b.Start()
	if err != nil {
		return nil, err
	}
	if !windowEnd.After(windowStart) {
		return nil, errors.New("window_end must be after window_start")
	}

	duration := b.CallType.Duration()
	windowStart = windowStart.UTC()
	windowEnd = windowEnd.UTC()

	if !b.Recurring {
		end := first.Add(duration)
		if first.Before(windowEnd) && end.After(windowStart) {
			return []Occurrence{newOccurrence(b, first, end)}, nil
		}
		return nil, nil
	}

	weekIndex := 0
	if windowStart.After(first) {
		weekIndex = int(windowStart.Sub(first)/week) - 1
		if weekIndex < 0 {
			weekIndex = 0
		}
	}

	out := make([]Occurrence, 0, 8)
	for ; ; weekIndex++ {
		start := first.AddDate(0, 0, 7*weekIndex)
		if !start.Before(windowEnd) {
			break
		}
		end := start.Add(duration)
		if end.After(windowStart) {
			out = append(out, newOccurrence(b, start, end))
		}
	}

	return out, nil
}

func newOccurrence(b Booking, start, end time.Time) Occurrence {
	return Occurrence{
		ID:         b.ID + ":" + strconv.FormatInt(start.Unix(), 10),
		BookingID:  b.ID,
		ClientName: b.ClientName,
		Phone:      b.Phone,
		CallType:   b.CallType,
		StartTime:  start,
		EndTime:    end,
	}
}
