package reviews

import (
	"context"

	"go.uber.org/zap"

	"github.com/samirwankhede/restaurant-insights/internal/store"
)

// DailyRating aggregates the reviews left on one day of a month.
type DailyRating struct {
	Day     int
	Average float64
	Count   int64
}

type ReviewsRepository struct {
	db  store.Querier
	log *zap.Logger
}

func NewReviewsRepository(db store.Querier, log *zap.Logger) *ReviewsRepository {
	return &ReviewsRepository{db: db, log: log}
}

// DailyRatings returns one entry per day that has at least one review,
// ordered by day.
func (r *ReviewsRepository) DailyRatings(ctx context.Context, restaurantID string, month store.MonthKey) ([]DailyRating, error) {
	rows, err := r.db.Query(ctx, `
		SELECT EXTRACT(DAY FROM created_at)::int AS day,
		       AVG(rating)::float8,
		       COUNT(*)
		FROM reviews
		WHERE restaurant_id = $1 AND to_char(created_at, 'YYYY-MM') = $2
		GROUP BY day
		ORDER BY day`, restaurantID, month.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DailyRating
	for rows.Next() {
		var d DailyRating
		if err := rows.Scan(&d.Day, &d.Average, &d.Count); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
