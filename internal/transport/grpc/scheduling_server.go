package grpc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"healthtick/backend/internal/domain"
	"healthtick/backend/internal/service/scheduling"
	"healthtick/backend/internal/store"
)

type SchedulingServer struct {
	svc schedulingService
	log *slog.Logger
}

type schedulingService interface {
	ParseDay(raw string) (time.Time, error)
	Day(ctx context.Context, day time.Time) (scheduling.DayView, error)
	Clients(ctx context.Context, term string) ([]domain.Client, error)
	Book(ctx context.Context, in scheduling.BookInput) (domain.Booking, error)
	Delete(ctx context.Context, id string) error
	Upcoming(ctx context.Context, phone string, from, to time.Time) ([]domain.Occurrence, error)
}

func NewSchedulingServer(svc schedulingService, log *slog.Logger) *SchedulingServer {
	if log == nil {
		log = slog.Default()
	}
	return &SchedulingServer{
		svc: svc,
		log: log.With(slog.String("component", "grpc.scheduling")),
	}
}

// RegisterHealth registers the standard health service and marks the
// scheduling service as serving.
func RegisterHealth(s *grpc.Server) *health.Server {
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return hs
}

func (s *SchedulingServer) GetDay(ctx context.Context, req *GetDayRequest) (*GetDayResponse, error) {
	log := s.log.With(slog.String("rpc", "GetDay"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	day, err := s.svc.ParseDay(req.Date)
	if err != nil {
		return nil, s.toStatus(log, err)
	}
	view, err := s.svc.Day(ctx, day)
	if err != nil {
		return nil, s.toStatus(log, err)
	}

	out := &GetDayResponse{Date: domain.FormatDate(view.Date), Slots: make([]Slot, 0, len(view.Slots))}
	for _, v := range view.Slots {
		slot := Slot{
			Start:  v.Slot.Clock(),
			Label:  v.Slot.Label(),
			Booked: v.Booked(),
			Anchor: v.Anchor,
		}
		if v.Booking != nil {
			b := toBooking(*v.Booking)
			slot.Booking = &b
		}
		out.Slots = append(out.Slots, slot)
	}
	return out, nil
}

func (s *SchedulingServer) ListClients(ctx context.Context, req *ListClientsRequest) (*ListClientsResponse, error) {
	log := s.log.With(slog.String("rpc", "ListClients"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	clients, err := s.svc.Clients(ctx, req.Query)
	if err != nil {
		return nil, s.toStatus(log, err)
	}
	out := &ListClientsResponse{Clients: make([]Client, 0, len(clients))}
	for _, c := range clients {
		out.Clients = append(out.Clients, Client{ID: c.ID, Name: c.Name, Phone: c.Phone})
	}
	return out, nil
}

func (s *SchedulingServer) BookSlot(ctx context.Context, req *BookSlotRequest) (*BookSlotResponse, error) {
	log := s.log.With(slog.String("rpc", "BookSlot"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	b, err := s.svc.Book(ctx, scheduling.BookInput{
		Date:     req.Date,
		Slot:     req.Slot,
		Phone:    req.Phone,
		CallType: req.CallType,
	})
	if err != nil {
		return nil, s.toStatus(log, err)
	}

	log.Info("booking added",
		slog.String("booking_id", b.ID),
		slog.String("date", b.Date),
		slog.String("time", b.Time),
	)
	return &BookSlotResponse{Booking: toBooking(b)}, nil
}

func (s *SchedulingServer) DeleteBooking(ctx context.Context, req *DeleteBookingRequest) (*DeleteBookingResponse, error) {
	log := s.log.With(slog.String("rpc", "DeleteBooking"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	if err := s.svc.Delete(ctx, req.ID); err != nil {
		return nil, s.toStatus(log, err)
	}
	return &DeleteBookingResponse{}, nil
}

func (s *SchedulingServer) ListUpcoming(ctx context.Context, req *ListUpcomingRequest) (*ListUpcomingResponse, error) {
	log := s.log.With(slog.String("rpc", "ListUpcoming"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if req.WindowStart == nil || req.WindowEnd == nil {
		log.Warn("invalid request", slog.String("reason", "missing_window"), slog.String("phone", req.Phone))
		return nil, status.Error(codes.InvalidArgument, "window_start and window_end are required")
	}

	occs, err := s.svc.Upcoming(ctx, req.Phone, req.WindowStart.AsTime(), req.WindowEnd.AsTime())
	if err != nil {
		return nil, s.toStatus(log, err)
	}

	out := &ListUpcomingResponse{Occurrences: make([]Occurrence, 0, len(occs))}
	for _, o := range occs {
		out.Occurrences = append(out.Occurrences, Occurrence{
			ID:         o.ID,
			BookingID:  o.BookingID,
			ClientName: o.ClientName,
			Phone:      o.Phone,
			CallType:   string(o.CallType),
			StartTime:  timestamppb.New(o.StartTime),
			EndTime:    timestamppb.New(o.EndTime),
		})
	}
	return out, nil
}

func (s *SchedulingServer) toStatus(log *slog.Logger, err error) error {
	var vErr *scheduling.ValidationError
	switch {
	case errors.As(err, &vErr):
		log.Warn("invalid request", slog.Any("err", err))
		return status.Error(codes.InvalidArgument, vErr.Error())
	case errors.Is(err, store.ErrDuplicateCallType):
		log.Info("booking conflict", slog.Any("err", err))
		return status.Error(codes.FailedPrecondition, "The client already has a booking of this call type.")
	case errors.Is(err, store.ErrSlotTaken):
		log.Info("booking conflict", slog.Any("err", err))
		return status.Error(codes.FailedPrecondition, "That slot was just taken. Pick a different slot.")
	case errors.Is(err, store.ErrConflict):
		log.Info("booking conflict", slog.Any("err", err))
		return status.Error(codes.FailedPrecondition, "The booking conflicts with the current calendar.")
	case errors.Is(err, store.ErrNotFound):
		return status.Error(codes.NotFound, "booking not found")
	default:
		log.Error("request failed", slog.Any("err", err))
		return status.Error(codes.Internal, "internal error")
	}
}

func toBooking(b domain.Booking) Booking {
	return Booking{
		ID:         b.ID,
		Date:       b.Date,
		Time:       b.Time,
		Recurring:  b.Recurring,
		ClientName: b.ClientName,
		Phone:      b.Phone,
		CallType:   string(b.CallType),
	}
}
