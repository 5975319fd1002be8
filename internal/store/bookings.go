package store

import (
	"context"

	"healthtick/backend/internal/domain"
)

// BookingStore is the system of record for clients and bookings.
type BookingStore interface {
	ListClients(ctx context.Context) ([]domain.Client, error)
	ListBookings(ctx context.Context) ([]domain.Booking, error)
	AddBooking(ctx context.Context, b domain.Booking) (domain.Booking, error)
	DeleteBooking(ctx context.Context, id string) error
}
