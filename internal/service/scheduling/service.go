package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"healthtick/backend/internal/domain"
	"healthtick/backend/internal/observability/metrics"
	"healthtick/backend/internal/store"
)

const (
	MsgOutsideSchedule   = "Slot is outside the daily schedule."
	MsgSlotBooked        = "Slot is already booked."
	MsgSelectClient      = "Please Select the Client"
	MsgSelectBoth        = "Please select both client and call type."
	MsgOnboardingOverlap = "Cannot book onboarding. Slot overlaps with another booking."
)

type ValidationError struct {
	msg string
	// ResetSelection asks the caller to clear the selected client and call type.
	ResetSelection bool
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

type Option func(*Service)

// WithClock overrides the time source used to resolve "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithMetrics(m *metrics.SchedulerMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

type Service struct {
	store   store.BookingStore
	metrics *metrics.SchedulerMetrics
	log     *slog.Logger
	loc     *time.Location
	now     func() time.Time
}

func NewService(st store.BookingStore, log *slog.Logger, opts ...Option) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		store: st,
		log:   log.With(slog.String("component", "service.scheduling")),
		loc:   time.UTC,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the current civil date in the schedule's time zone.
func (s *Service) Today() time.Time {
	return domain.CivilDay(s.now().In(s.loc))
}

// ParseDay parses a yyyy-MM-dd path value. An empty value means today.
func (s *Service) ParseDay(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return s.Today(), nil
	}
	day, err := domain.ParseDate(raw)
	if err != nil {
		return time.Time{}, validationError("date must be formatted as yyyy-MM-dd")
	}
	return day, nil
}

type DayView struct {
	Date  time.Time
	Prev  time.Time
	Next  time.Time
	Slots []domain.SlotView
}

func (s *Service) Day(ctx context.Context, day time.Time) (DayView, error) {
	day = domain.CivilDay(day)
	bookings, err := s.store.ListBookings(ctx)
	if err != nil {
		return DayView{}, err
	}
	return DayView{
		Date:  day,
		Prev:  day.AddDate(0, 0, -1),
		Next:  day.AddDate(0, 0, 1),
		Slots: domain.BuildDay(day, bookings),
	}, nil
}

func (s *Service) Clients(ctx context.Context, term string) ([]domain.Client, error) {
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	return domain.FilterClients(clients, term), nil
}

// Client resolves a phone number against the client directory.
func (s *Service) Client(ctx context.Context, phone string) (domain.Client, bool, error) {
	if strings.TrimSpace(phone) == "" {
		return domain.Client{}, false, nil
	}
	clients, err := s.store.ListClients(ctx)
	if err != nil {
		return domain.Client{}, false, err
	}
	c, ok := domain.FindClientByPhone(clients, phone)
	return c, ok, nil
}

type BookInput struct {
	Date     string
	Slot     string
	Phone    string
	CallType string
}

// Book validates a slot click against the current bookings and submits it.
// Follow-up calls are submitted as weekly recurring.
func (s *Service) Book(ctx context.Context, in BookInput) (out domain.Booking, err error) {
	callTypeLabel := ""
	if ct, ok := domain.ParseCallType(in.CallType); ok {
		callTypeLabel = string(ct)
	}
	defer func() {
		s.metrics.ObserveBooking(callTypeLabel, bookingOutcome(err))
	}()

	day, err := domain.ParseDate(in.Date)
	if err != nil {
		return domain.Booking{}, validationError("date must be formatted as yyyy-MM-dd")
	}
	clock, err := domain.NormalizeClock(in.Slot)
	if err != nil || !domain.IsGridClock(clock) {
		return domain.Booking{}, validationError(MsgOutsideSchedule)
	}

	bookings, err := s.store.ListBookings(ctx)
	if err != nil {
		return domain.Booking{}, err
	}
	if domain.IsBooked(bookings, day, clock) {
		return domain.Booking{}, validationError(MsgSlotBooked)
	}

	if strings.TrimSpace(in.Phone) == "" {
		return domain.Booking{}, validationError(MsgSelectClient)
	}
	client, ok, err := s.Client(ctx, in.Phone)
	if err != nil {
		return domain.Booking{}, err
	}
	if !ok {
		return domain.Booking{}, validationError(MsgSelectClient)
	}

	callType, ok := domain.ParseCallType(in.CallType)
	if !ok {
		return domain.Booking{}, validationError(MsgSelectBoth)
	}
	if callType.Recurring() && domain.OccupiedFrom(bookings, day, clock) {
		return domain.Booking{}, validationError(MsgSlotBooked)
	}

	for _, b := range bookings {
		if b.Phone == client.Phone && b.CallType == callType {
			return domain.Booking{}, &ValidationError{
				msg:            duplicateMessage(client.Name, callType),
				ResetSelection: true,
			}
		}
	}

	if callType == domain.CallTypeOnboarding {
		if second, ok := domain.SecondHalf(clock); ok && domain.IsBooked(bookings, day, second) {
			return domain.Booking{}, validationError(MsgOnboardingOverlap)
		}
	}

	created, err := s.store.AddBooking(ctx, domain.Booking{
		Date:       domain.FormatDate(day),
		Time:       clock,
		Recurring:  callType.Recurring(),
		ClientName: client.Name,
		Phone:      client.Phone,
		CallType:   callType,
	})
	if err != nil {
		s.log.Error("add booking failed",
			slog.String("date", domain.FormatDate(day)),
			slog.String("time", clock),
			slog.String("call_type", string(callType)),
			slog.Any("err", err),
		)
		return domain.Booking{}, err
	}

	s.log.Info("booking added",
		slog.String("booking_id", created.ID),
		slog.String("date", created.Date),
		slog.String("time", created.Time),
		slog.String("call_type", string(created.CallType)),
	)
	return created, nil
}

func (s *Service) Delete(ctx context.Context, id string) (err error) {
	defer func() {
		s.metrics.ObserveDelete(bookingOutcome(err))
	}()

	id = strings.TrimSpace(id)
	if id == "" {
		return validationError("booking id is required")
	}

	bookings, err := s.store.ListBookings(ctx)
	if err != nil {
		return err
	}
	found := false
	for _, b := range bookings {
		if b.ID == id {
			found = true
			break
		}
	}
	if !found {
		return store.ErrNotFound
	}

	if err := s.store.DeleteBooking(ctx, id); err != nil {
		s.log.Error("delete booking failed", slog.String("booking_id", id), slog.Any("err", err))
		return err
	}
	s.log.Info("booking deleted", slog.String("booking_id", id))
	return nil
}

// Upcoming lists a client's call instances overlapping [from, to).
func (s *Service) Upcoming(ctx context.Context, phone string, from, to time.Time) ([]domain.Occurrence, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, validationError("phone is required")
	}
	if !to.After(from) {
		return nil, validationError("window_end must be after window_start")
	}
	if to.Sub(from) > 366*24*time.Hour {
		return nil, validationError("window too large")
	}

	bookings, err := s.store.ListBookings(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Occurrence, 0)
	for _, b := range bookings {
		if b.Phone != phone {
			continue
		}
		occs, err := domain.Occurrences(b, from, to)
		if err != nil {
			s.log.Warn("skipping malformed booking", slog.String("booking_id", b.ID), slog.Any("err", err))
			continue
		}
		out = append(out, occs...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

func duplicateMessage(name string, ct domain.CallType) string {
	if ct == domain.CallTypeOnboarding {
		return fmt.Sprintf("\"%s\" already has an onboarding slot.", name)
	}
	return fmt.Sprintf("\"%s\" already has a followup slot.", name)
}

func bookingOutcome(err error) string {
	var vErr *ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &vErr):
		return "rejected"
	case errors.Is(err, store.ErrConflict):
		return "conflict"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
