package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"healthtick/backend/internal/domain"
	"healthtick/backend/internal/observability/metrics"
	"healthtick/backend/internal/store"
)

// calendarLockKey serialises every booking write. The calendar is shared by
// all clients, so a single key is enough.
const calendarLockKey = "healthtick:bookings"

type BookingRepo struct {
	db      *bun.DB
	metrics *metrics.SchedulerMetrics
}

func NewBookingRepo(db *bun.DB, m *metrics.SchedulerMetrics) *BookingRepo {
	return &BookingRepo{db: db, metrics: m}
}

type calendarTx struct {
	tx bun.Tx
}

func (r *BookingRepo) ListClients(ctx context.Context) (out []domain.Client, err error) {
	defer r.observe("list_clients", time.Now(), &err)

	err = r.db.NewSelect().
		Model(&out).
		OrderExpr("client_name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BookingRepo) ListBookings(ctx context.Context) (out []domain.Booking, err error) {
	defer r.observe("list_bookings", time.Now(), &err)
	return listBookings(ctx, r.db)
}

// AddBooking inserts b under the calendar lock after re-checking that the
// client has no booking of the same call type and that the slots it covers
// are free.
func (r *BookingRepo) AddBooking(ctx context.Context, b domain.Booking) (out domain.Booking, err error) {
	defer r.observe("add_booking", time.Now(), &err)

	err = r.InCalendarTransaction(ctx, func(ctx context.Context, tx store.BookingTx) error {
		created, err := addBooking(ctx, tx, b)
		if err != nil {
			return err
		}
		out = created
		return nil
	})
	if err != nil {
		return domain.Booking{}, err
	}
	return out, nil
}

func addBooking(ctx context.Context, tx store.BookingTx, b domain.Booking) (domain.Booking, error) {
	existing, err := tx.ListBookings(ctx)
	if err != nil {
		return domain.Booking{}, err
	}
	if err := ensureBookable(existing, b); err != nil {
		return domain.Booking{}, err
	}
	return tx.InsertBooking(ctx, b)
}

func (r *BookingRepo) DeleteBooking(ctx context.Context, id string) (err error) {
	defer r.observe("delete_booking", time.Now(), &err)

	return r.InCalendarTransaction(ctx, func(ctx context.Context, tx store.BookingTx) error {
		return tx.DeleteBooking(ctx, id)
	})
}

func (r *BookingRepo) InCalendarTransaction(ctx context.Context, fn func(ctx context.Context, tx store.BookingTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockCalendar(ctx, tx); err != nil {
			return err
		}
		return fn(ctx, calendarTx{tx: tx})
	})
}

func (r *BookingRepo) observe(op string, start time.Time, err *error) {
	status := "ok"
	if *err != nil {
		status = "error"
	}
	r.metrics.ObserveStoreCall(op, status, time.Since(start).Seconds())
}

func lockCalendar(ctx context.Context, tx bun.Tx) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", calendarLockKey).Exec(ctx)
	return err
}

func listBookings(ctx context.Context, db bun.IDB) ([]domain.Booking, error) {
	var rows []domain.Booking
	err := db.NewSelect().
		Model(&rows).
		OrderExpr("booking_date ASC, booking_time ASC, created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r calendarTx) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	return listBookings(ctx, r.tx)
}

func (r calendarTx) InsertBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	m := b
	_, err := r.tx.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "bookings_phone_call_type_key" {
				return domain.Booking{}, store.ErrDuplicateCallType
			}
			return domain.Booking{}, store.ErrConflict
		}
		return domain.Booking{}, err
	}
	return m, nil
}

func (r calendarTx) DeleteBooking(ctx context.Context, id string) error {
	res, err := r.tx.NewDelete().
		Model((*domain.Booking)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func ensureBookable(existing []domain.Booking, b domain.Booking) error {
	for _, e := range existing {
		if e.Phone == b.Phone && e.CallType == b.CallType {
			return store.ErrDuplicateCallType
		}
	}

	day, err := domain.ParseDate(b.Date)
	if err != nil {
		return err
	}
	clock, err := domain.NormalizeClock(b.Time)
	if err != nil {
		return err
	}
	if b.Recurring && domain.OccupiedFrom(existing, day, clock) {
		return store.ErrSlotTaken
	}
	clocks := []string{clock}
	if b.CallType == domain.CallTypeOnboarding {
		if second, ok := domain.SecondHalf(clock); ok {
			clocks = append(clocks, second)
		}
	}
	for _, clock := range clocks {
		if domain.IsBooked(existing, day, clock) {
			return store.ErrSlotTaken
		}
	}
	return nil
}
