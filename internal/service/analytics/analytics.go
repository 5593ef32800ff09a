package analytics

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/samirwankhede/restaurant-insights/internal/chart"
	"github.com/samirwankhede/restaurant-insights/internal/metrics"
	"github.com/samirwankhede/restaurant-insights/internal/store"
	"github.com/samirwankhede/restaurant-insights/internal/store/bookings"
	"github.com/samirwankhede/restaurant-insights/internal/store/reviews"
)

// Query selects one restaurant's bookings for one calendar month. Zero
// values mean the parameter was not supplied.
type Query struct {
	RestaurantID string
	Month        int
	Year         int
}

// Validate checks restaurantId, month and year in that order.
func (q Query) Validate() error {
	if strings.TrimSpace(q.RestaurantID) == "" {
		return &MissingParameterError{Field: "restaurantId"}
	}
	if q.Month == 0 {
		return &MissingParameterError{Field: "month"}
	}
	if q.Year == 0 {
		return &MissingParameterError{Field: "year"}
	}
	if q.Month < 1 || q.Month > 12 {
		return &InvalidParameterError{Field: "month", Value: strconv.Itoa(q.Month)}
	}
	if q.Year < 1 || q.Year > 9999 {
		return &InvalidParameterError{Field: "year", Value: strconv.Itoa(q.Year)}
	}
	return nil
}

func (q Query) MonthKey() store.MonthKey {
	return store.MonthKey{Year: q.Year, Month: q.Month}
}

// BookingMetrics holds the status counts for one restaurant and month. The
// four status counts need not add up to Total.
type BookingMetrics struct {
	Total     int64 `json:"total"`
	Confirmed int64 `json:"confirmed"`
	Completed int64 `json:"completed"`
	NoShow    int64 `json:"noShow"`
	Cancelled int64 `json:"cancelled"`
}

type OutcomeSummary struct {
	Metrics      BookingMetrics   `json:"metrics"`
	CompletedPct float64          `json:"completedPct"`
	NoShowPct    float64          `json:"noShowPct"`
	CancelledPct float64          `json:"cancelledPct"`
	Pie          chart.OutcomePie `json:"pie"`
}

type BookingReader interface {
	ListByRestaurantMonth(ctx context.Context, restaurantID string, month store.MonthKey) ([]bookings.Booking, error)
	Count(ctx context.Context, restaurantID string, month store.MonthKey, status string) (int64, error)
	HourlyCounts(ctx context.Context, restaurantID string, month store.MonthKey) ([]bookings.HourCount, error)
}

type RatingReader interface {
	DailyRatings(ctx context.Context, restaurantID string, month store.MonthKey) ([]reviews.DailyRating, error)
}

type MetricsCache interface {
	Get(ctx context.Context, restaurantID string, month store.MonthKey, dest any) (bool, error)
	Set(ctx context.Context, restaurantID string, month store.MonthKey, v any) error
}

type AnalyticsService struct {
	log          *zap.Logger
	bookings     BookingReader
	ratings      RatingReader
	cache        MetricsCache
	queryTimeout time.Duration
}

// NewAnalyticsService wires the service. cache may be nil to disable caching
// and a zero queryTimeout leaves the caller's deadline untouched.
func NewAnalyticsService(log *zap.Logger, bookings BookingReader, ratings RatingReader, cache MetricsCache, queryTimeout time.Duration) *AnalyticsService {
	return &AnalyticsService{log: log, bookings: bookings, ratings: ratings, cache: cache, queryTimeout: queryTimeout}
}

func (s *AnalyticsService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

func observe(query string, start time.Time) {
	metrics.AnalyticsQueryDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
}

// BookingsForRestaurant returns every booking of the restaurant whose date
// falls in the requested month, in storage order.
func (s *AnalyticsService) BookingsForRestaurant(ctx context.Context, q Query) ([]bookings.Booking, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	defer observe("bookings", time.Now())
	return s.bookings.ListByRestaurantMonth(ctx, q.RestaurantID, q.MonthKey())
}

// MetricsForRestaurant runs the total and the four status counts
// concurrently and combines them once all five have finished. The first
// failing count cancels the others and its error is returned as is.
func (s *AnalyticsService) MetricsForRestaurant(ctx context.Context, q Query) (BookingMetrics, error) {
	var m BookingMetrics
	if err := q.Validate(); err != nil {
		return m, err
	}
	month := q.MonthKey()

	if s.cache != nil {
		found, err := s.cache.Get(ctx, q.RestaurantID, month, &m)
		switch {
		case err != nil:
			s.log.Warn("metrics cache read failed", zap.String("restaurant_id", q.RestaurantID), zap.Error(err))
		case found:
			metrics.MetricsCacheTotal.WithLabelValues("hit").Inc()
			return m, nil
		default:
			metrics.MetricsCacheTotal.WithLabelValues("miss").Inc()
		}
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	counts := []struct {
		status string
		dst    *int64
	}{
		{"", &m.Total},
		{bookings.StatusConfirmed, &m.Confirmed},
		{bookings.StatusCompleted, &m.Completed},
		{bookings.StatusNoShow, &m.NoShow},
		{bookings.StatusCancelled, &m.Cancelled},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range counts {
		c := c
		g.Go(func() error {
			label := c.status
			if label == "" {
				label = "total"
			}
			defer observe("count_"+label, time.Now())
			n, err := s.bookings.Count(gctx, q.RestaurantID, month, c.status)
			if err != nil {
				return err
			}
			*c.dst = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return BookingMetrics{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, q.RestaurantID, month, m); err != nil {
			s.log.Warn("metrics cache write failed", zap.String("restaurant_id", q.RestaurantID), zap.Error(err))
		}
	}
	return m, nil
}

// OutcomePercentages expresses the completed, no-show and cancelled counts
// as percentages of Total. A month without bookings yields zeros.
func OutcomePercentages(m BookingMetrics) (completed, noShow, cancelled float64) {
	if m.Total <= 0 {
		return 0, 0, 0
	}
	total := float64(m.Total)
	return float64(m.Completed) / total * 100,
		float64(m.NoShow) / total * 100,
		float64(m.Cancelled) / total * 100
}

func (s *AnalyticsService) Outcomes(ctx context.Context, q Query) (OutcomeSummary, error) {
	m, err := s.MetricsForRestaurant(ctx, q)
	if err != nil {
		return OutcomeSummary{}, err
	}
	c, n, x := OutcomePercentages(m)
	return OutcomeSummary{
		Metrics:      m,
		CompletedPct: c,
		NoShowPct:    n,
		CancelledPct: x,
		Pie:          chart.BuildOutcomePie(c, n, x),
	}, nil
}

// HourlyMatrix counts the month's bookings per weekday (Monday first) and
// hour of day.
func (s *AnalyticsService) HourlyMatrix(ctx context.Context, q Query) ([][]int, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	counts, err := s.bookings.HourlyCounts(ctx, q.RestaurantID, q.MonthKey())
	observe("hourly", start)
	if err != nil {
		return nil, err
	}

	matrix := chart.EmptyMatrix()
	for _, hc := range counts {
		if hc.Weekday < 1 || hc.Weekday > chart.HeatmapDays || hc.Hour < 0 || hc.Hour >= chart.HeatmapHours {
			s.log.Warn("hourly count out of range", zap.Int("weekday", hc.Weekday), zap.Int("hour", hc.Hour))
			continue
		}
		matrix[hc.Weekday-1][hc.Hour] += int(hc.Count)
	}
	return matrix, nil
}

func (s *AnalyticsService) Heatmap(ctx context.Context, q Query) (chart.Heatmap, error) {
	matrix, err := s.HourlyMatrix(ctx, q)
	if err != nil {
		return chart.Heatmap{}, err
	}
	return chart.BuildHeatmap(matrix)
}

// DailyRatings returns one point per day of the month. Days without reviews
// carry a nil average and a zero count.
func (s *AnalyticsService) DailyRatings(ctx context.Context, q Query) ([]chart.RatingPoint, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	month := q.MonthKey()
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	rows, err := s.ratings.DailyRatings(ctx, q.RestaurantID, month)
	observe("daily_ratings", start)
	if err != nil {
		return nil, err
	}

	points := make([]chart.RatingPoint, month.Days())
	for i := range points {
		points[i].Day = i + 1
	}
	for _, r := range rows {
		if r.Day < 1 || r.Day > len(points) {
			continue
		}
		avg := r.Average
		points[r.Day-1].AverageRating = &avg
		points[r.Day-1].ReviewCount = int(r.Count)
	}
	return points, nil
}
