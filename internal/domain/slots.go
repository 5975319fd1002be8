package domain

import "time"

const (
	SlotDuration = 20 * time.Minute

	firstSlotOffset = 10*time.Hour + 30*time.Minute
	lastSlotOffset  = 19*time.Hour + 10*time.Minute

	slotLabelLayout = "03:04 PM"
)

// Slot is the half-open interval [Start, End) of one grid cell.
type Slot struct {
	Start time.Time
	End   time.Time
}

func (s Slot) Clock() string {
	return s.Start.Format(ClockLayout)
}

func (s Slot) Label() string {
	return s.Start.Format(slotLabelLayout) + " - " + s.End.Format(slotLabelLayout)
}

func GenerateDaySlots(day time.Time) []Slot {
	day = CivilDay(day)
	n := int((lastSlotOffset-firstSlotOffset)/SlotDuration) + 1
	slots := make([]Slot, 0, n)
	for offset := firstSlotOffset; offset <= lastSlotOffset; offset += SlotDuration {
		start := day.Add(offset)
		slots = append(slots, Slot{Start: start, End: start.Add(SlotDuration)})
	}
	return slots
}

// IsGridClock reports whether clock (HH:mm) is the start of a slot in the daily grid.
func IsGridClock(clock string) bool {
	offset, err := clockOffset(clock)
	if err != nil {
		return false
	}
	if offset < firstSlotOffset || offset > lastSlotOffset {
		return false
	}
	return (offset-firstSlotOffset)%SlotDuration == 0
}
