package postgres

import (
	"context"
	"errors"
	"testing"

	"healthtick/backend/internal/domain"
	"healthtick/backend/internal/store"
)

type fakeBookingTx struct {
	listBookingsFn  func(ctx context.Context) ([]domain.Booking, error)
	insertBookingFn func(ctx context.Context, b domain.Booking) (domain.Booking, error)
}

func (f *fakeBookingTx) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	if f.listBookingsFn == nil {
		return nil, nil
	}
	return f.listBookingsFn(ctx)
}

func (f *fakeBookingTx) InsertBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	if f.insertBookingFn == nil {
		panic("InsertBooking not configured")
	}
	return f.insertBookingFn(ctx, b)
}

func (f *fakeBookingTx) DeleteBooking(ctx context.Context, id string) error {
	panic("not used")
}

func TestEnsureBookable(t *testing.T) {
	existing := []domain.Booking{
		{ID: "b1", Date: "2026-01-05", Time: "11:10", Phone: "1", ClientName: "Asha", CallType: domain.CallTypeOnboarding},
		{ID: "b2", Date: "2025-12-29", Time: "15:10", Recurring: true, Phone: "2", ClientName: "Ravi", CallType: domain.CallTypeFollowUp},
	}

	tests := []struct {
		name    string
		booking domain.Booking
		wantErr error
	}{
		{
			name:    "free slot",
			booking: domain.Booking{Date: "2026-01-05", Time: "12:30", Phone: "3", CallType: domain.CallTypeFollowUp},
		},
		{
			name:    "same client and call type",
			booking: domain.Booking{Date: "2026-01-09", Time: "12:30", Phone: "1", CallType: domain.CallTypeOnboarding},
			wantErr: store.ErrDuplicateCallType,
		},
		{
			name:    "same client other call type",
			booking: domain.Booking{Date: "2026-01-09", Time: "12:30", Phone: "1", CallType: domain.CallTypeFollowUp},
		},
		{
			name:    "second half of onboarding",
			booking: domain.Booking{Date: "2026-01-05", Time: "11:30", Phone: "3", CallType: domain.CallTypeFollowUp},
			wantErr: store.ErrConflict,
		},
		{
			name:    "onboarding running into a booking",
			booking: domain.Booking{Date: "2026-01-05", Time: "10:50", Phone: "3", CallType: domain.CallTypeOnboarding},
			wantErr: store.ErrConflict,
		},
		{
			name:    "recurring follow-up on a later week",
			booking: domain.Booking{Date: "2026-01-12", Time: "15:10", Phone: "3", CallType: domain.CallTypeFollowUp},
			wantErr: store.ErrConflict,
		},
		{
			name:    "one-off before a recurring follow-up starts",
			booking: domain.Booking{Date: "2025-12-22", Time: "15:10", Phone: "3", CallType: domain.CallTypeOnboarding},
		},
		{
			name:    "recurring follow-up before an existing one starts",
			booking: domain.Booking{Date: "2025-12-22", Time: "15:10", Recurring: true, Phone: "3", CallType: domain.CallTypeFollowUp},
			wantErr: store.ErrSlotTaken,
		},
		{
			name:    "recurring follow-up running into a later onboarding",
			booking: domain.Booking{Date: "2025-12-29", Time: "11:30", Recurring: true, Phone: "3", CallType: domain.CallTypeFollowUp},
			wantErr: store.ErrSlotTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ensureBookable(existing, tt.booking)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAddBooking_InsertsWhenBookable(t *testing.T) {
	inserted := false
	tx := &fakeBookingTx{
		insertBookingFn: func(ctx context.Context, b domain.Booking) (domain.Booking, error) {
			inserted = true
			b.ID = "new"
			return b, nil
		},
	}

	out, err := addBooking(context.Background(), tx, domain.Booking{
		Date:     "2026-01-05",
		Time:     "10:30",
		Phone:    "1",
		CallType: domain.CallTypeFollowUp,
	})
	if err != nil {
		t.Fatalf("addBooking error: %v", err)
	}
	if !inserted || out.ID != "new" {
		t.Fatalf("expected insert, got %+v", out)
	}
}

func TestAddBooking_ConflictSkipsInsert(t *testing.T) {
	tx := &fakeBookingTx{
		listBookingsFn: func(ctx context.Context) ([]domain.Booking, error) {
			return []domain.Booking{{ID: "b1", Date: "2026-01-05", Time: "10:30", Phone: "9", CallType: domain.CallTypeFollowUp}}, nil
		},
	}

	_, err := addBooking(context.Background(), tx, domain.Booking{
		Date:     "2026-01-05",
		Time:     "10:30",
		Phone:    "1",
		CallType: domain.CallTypeFollowUp,
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("err = %v, want %v", err, store.ErrConflict)
	}
}

func TestAddBooking_ListError(t *testing.T) {
	boom := errors.New("boom")
	tx := &fakeBookingTx{
		listBookingsFn: func(ctx context.Context) ([]domain.Booking, error) {
			return nil, boom
		},
	}

	_, err := addBooking(context.Background(), tx, domain.Booking{Date: "2026-01-05", Time: "10:30"})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}
