package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

type CallType string

const (
	CallTypeOnboarding CallType = "onboarding"
	CallTypeFollowUp   CallType = "followup"
)

func ParseCallType(s string) (CallType, bool) {
	ct := CallType(strings.ToLower(strings.TrimSpace(s)))
	return ct, ct.Valid()
}

func (c CallType) Valid() bool {
	return c == CallTypeOnboarding || c == CallTypeFollowUp
}

// Duration is the length of a call: onboarding spans two slots, follow-ups one.
func (c CallType) Duration() time.Duration {
	if c == CallTypeOnboarding {
		return 2 * SlotDuration
	}
	return SlotDuration
}

func (c CallType) Recurring() bool {
	return c == CallTypeFollowUp
}

func (c CallType) Label() string {
	switch c {
	case CallTypeOnboarding:
		return "Onboarding"
	case CallTypeFollowUp:
		return "Follow Up"
	default:
		return string(c)
	}
}

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	ID         string    `bun:"id,pk" json:"id,omitempty"`
	Date       string    `bun:"booking_date,notnull" json:"date"`
	Time       string    `bun:"booking_time,notnull" json:"time"`
	Recurring  bool      `bun:"recurring,notnull" json:"recurring"`
	ClientName string    `bun:"client_name,notnull" json:"clientName"`
	Phone      string    `bun:"phone,notnull" json:"phone"`
	CallType   CallType  `bun:"call_type,notnull" json:"callType"`
	CreatedAt  time.Time `bun:"created_at,notnull" json:"-"`
}

func (b *Booking) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	switch query.(type) {
	case *bun.InsertQuery:
		if b.ID == "" {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			b.ID = id.String()
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = time.Now().UTC()
		}
	}
	return nil
}

// Start combines the booking date and time of day into a UTC instant.
func (b Booking) Start() (time.Time, error) {
	day, err := ParseDate(b.Date)
	if err != nil {
		return time.Time{}, errors.New("invalid booking date")
	}
	offset, err := clockOffset(b.Time)
	if err != nil {
		return time.Time{}, errors.New("invalid booking time")
	}
	return day.Add(offset), nil
}

func (b Booking) End() (time.Time, error) {
	start, err := b.Start()
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(b.CallType.Duration()), nil
}

// ParseDate parses a yyyy-MM-dd civil date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// CivilDay drops the clock part of t, keeping its calendar date in its own location.
func CivilDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func FormatDate(day time.Time) string {
	return day.Format(DateLayout)
}

// NormalizeClock returns s as a zero-padded HH:mm string.
func NormalizeClock(s string) (string, error) {
	t, err := time.Parse(ClockLayout, strings.TrimSpace(s))
	if err != nil {
		return "", err
	}
	return t.Format(ClockLayout), nil
}

func clockOffset(s string) (time.Duration, error) {
	t, err := time.Parse(ClockLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func addClock(s string, d time.Duration) (string, bool) {
	t, err := time.Parse(ClockLayout, strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	return t.Add(d).Format(ClockLayout), true
}
