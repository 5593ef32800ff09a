package bookings

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/samirwankhede/restaurant-insights/internal/store"
)

// Known booking statuses. The column is an open string, so rows may carry
// other values too.
const (
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusNoShow    = "no_show"
	StatusCancelled = "cancelled"
)

type Booking struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurantId"`
	BookingDate  time.Time `json:"bookingDate"`
	Status       string    `json:"status"`
	PartySize    int       `json:"partySize"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HourCount is the number of bookings falling on an ISO weekday
// (1 = Monday .. 7 = Sunday) at a given hour of the day.
type HourCount struct {
	Weekday int
	Hour    int
	Count   int64
}

type BookingsRepository struct {
	db  store.Querier
	log *zap.Logger
}

func NewBookingsRepository(db store.Querier, log *zap.Logger) *BookingsRepository {
	return &BookingsRepository{db: db, log: log}
}

const monthFilter = `restaurant_id = $1 AND to_char(booking_date, 'YYYY-MM') = $2`

func (r *BookingsRepository) ListByRestaurantMonth(ctx context.Context, restaurantID string, month store.MonthKey) ([]Booking, error) {
	query := `
		SELECT id, restaurant_id, booking_date, status, party_size, created_at
		FROM bookings
		WHERE ` + monthFilter

	rows, err := r.db.Query(ctx, query, restaurantID, month.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookings := []Booking{}
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.RestaurantID, &b.BookingDate, &b.Status, &b.PartySize, &b.CreatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// Count returns the number of bookings for the restaurant in the month. An
// empty status counts every row regardless of status.
func (r *BookingsRepository) Count(ctx context.Context, restaurantID string, month store.MonthKey, status string) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE ` + monthFilter
	args := []any{restaurantID, month.String()}
	if status != "" {
		query += ` AND status = $3`
		args = append(args, status)
	}

	var n int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *BookingsRepository) HourlyCounts(ctx context.Context, restaurantID string, month store.MonthKey) ([]HourCount, error) {
	query := `
		SELECT EXTRACT(ISODOW FROM booking_date)::int AS weekday,
		       EXTRACT(HOUR FROM booking_date)::int AS hour,
		       COUNT(*)
		FROM bookings
		WHERE ` + monthFilter + `
		GROUP BY weekday, hour`

	rows, err := r.db.Query(ctx, query, restaurantID, month.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []HourCount
	for rows.Next() {
		var hc HourCount
		if err := rows.Scan(&hc.Weekday, &hc.Hour, &hc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, hc)
	}
	return counts, rows.Err()
}

// RestaurantsWithBookings lists the distinct restaurants that have at least
// one booking in the month.
func (r *BookingsRepository) RestaurantsWithBookings(ctx context.Context, month store.MonthKey) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT restaurant_id
		FROM bookings
		WHERE to_char(booking_date, 'YYYY-MM') = $1
		ORDER BY restaurant_id`, month.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Upsert inserts the booking or overwrites the stored row with the same id.
// When the row already existed its previous version is returned so the
// caller can invalidate the month it moved out of. The previous row is
// locked until the write commits.
func (r *BookingsRepository) Upsert(ctx context.Context, b Booking) (*Booking, error) {
	var prev *Booking
	err := store.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		var p Booking
		err := tx.QueryRow(ctx, `SELECT restaurant_id, booking_date FROM bookings WHERE id = $1 FOR UPDATE`, b.ID).
			Scan(&p.RestaurantID, &p.BookingDate)
		switch {
		case err == nil:
			p.ID = b.ID
			prev = &p
		case !errors.Is(err, pgx.ErrNoRows):
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO bookings (id, restaurant_id, booking_date, status, party_size)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE
			SET restaurant_id = EXCLUDED.restaurant_id,
			    booking_date = EXCLUDED.booking_date,
			    status = EXCLUDED.status,
			    party_size = EXCLUDED.party_size`,
			b.ID, b.RestaurantID, b.BookingDate, b.Status, b.PartySize)
		return err
	})
	if err != nil {
		return nil, err
	}
	return prev, nil
}

// Delete removes a booking and returns the deleted row. Deleting an unknown
// id returns pgx.ErrNoRows.
func (r *BookingsRepository) Delete(ctx context.Context, id string) (*Booking, error) {
	b := Booking{ID: id}
	err := r.db.QueryRow(ctx, `
		DELETE FROM bookings WHERE id = $1
		RETURNING restaurant_id, booking_date, status`, id).
		Scan(&b.RestaurantID, &b.BookingDate, &b.Status)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
