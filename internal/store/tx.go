package store

import (
	"context"

	"healthtick/backend/internal/domain"
)

type BookingTx interface {
	ListBookings(ctx context.Context) ([]domain.Booking, error)
	InsertBooking(ctx context.Context, b domain.Booking) (domain.Booking, error)
	DeleteBooking(ctx context.Context, id string) error
}
