package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/samirwankhede/restaurant-insights/internal/chart"
	"github.com/samirwankhede/restaurant-insights/internal/store"
	"github.com/samirwankhede/restaurant-insights/internal/store/bookings"
	"github.com/samirwankhede/restaurant-insights/internal/store/reviews"
)

type mockBookings struct{ mock.Mock }

func (m *mockBookings) ListByRestaurantMonth(ctx context.Context, restaurantID string, month store.MonthKey) ([]bookings.Booking, error) {
	args := m.Called(ctx, restaurantID, month)
	b, _ := args.Get(0).([]bookings.Booking)
	return b, args.Error(1)
}

func (m *mockBookings) Count(ctx context.Context, restaurantID string, month store.MonthKey, status string) (int64, error) {
	args := m.Called(ctx, restaurantID, month, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockBookings) HourlyCounts(ctx context.Context, restaurantID string, month store.MonthKey) ([]bookings.HourCount, error) {
	args := m.Called(ctx, restaurantID, month)
	c, _ := args.Get(0).([]bookings.HourCount)
	return c, args.Error(1)
}

type mockRatings struct{ mock.Mock }

func (m *mockRatings) DailyRatings(ctx context.Context, restaurantID string, month store.MonthKey) ([]reviews.DailyRating, error) {
	args := m.Called(ctx, restaurantID, month)
	r, _ := args.Get(0).([]reviews.DailyRating)
	return r, args.Error(1)
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]BookingMetrics
	getErr  error
	sets    int
}

func newMemoryCache() *memoryCache { return &memoryCache{entries: map[string]BookingMetrics{}} }

func (c *memoryCache) Get(_ context.Context, restaurantID string, month store.MonthKey, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return false, c.getErr
	}
	m, ok := c.entries[restaurantID+":"+month.String()]
	if ok {
		*dest.(*BookingMetrics) = m
	}
	return ok, nil
}

func (c *memoryCache) Set(_ context.Context, restaurantID string, month store.MonthKey, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.entries[restaurantID+":"+month.String()] = v.(BookingMetrics)
	return nil
}

var (
	march = store.MonthKey{Year: 2024, Month: 3}
	query = Query{RestaurantID: "r-1", Month: 3, Year: 2024}
)

func expectCounts(repo *mockBookings, total, confirmed, completed, noShow, cancelled int64) {
	repo.On("Count", mock.Anything, "r-1", march, "").Return(total, nil)
	repo.On("Count", mock.Anything, "r-1", march, bookings.StatusConfirmed).Return(confirmed, nil)
	repo.On("Count", mock.Anything, "r-1", march, bookings.StatusCompleted).Return(completed, nil)
	repo.On("Count", mock.Anything, "r-1", march, bookings.StatusNoShow).Return(noShow, nil)
	repo.On("Count", mock.Anything, "r-1", march, bookings.StatusCancelled).Return(cancelled, nil)
}

func TestQueryValidate(t *testing.T) {
	cases := []struct {
		name    string
		q       Query
		missing string
		invalid string
	}{
		{name: "all missing", q: Query{}, missing: "restaurantId"},
		{name: "blank restaurant", q: Query{RestaurantID: "  ", Month: 1, Year: 2024}, missing: "restaurantId"},
		{name: "month missing", q: Query{RestaurantID: "r", Year: 2024}, missing: "month"},
		{name: "year missing", q: Query{RestaurantID: "r", Month: 4}, missing: "year"},
		{name: "month out of range", q: Query{RestaurantID: "r", Month: 13, Year: 2024}, invalid: "month"},
		{name: "negative year", q: Query{RestaurantID: "r", Month: 2, Year: -1}, invalid: "year"},
		{name: "valid", q: Query{RestaurantID: "r", Month: 12, Year: 2024}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.q.Validate()
			switch {
			case tc.missing != "":
				var mp *MissingParameterError
				require.ErrorAs(t, err, &mp)
				assert.Equal(t, tc.missing, mp.Field)
				assert.Contains(t, err.Error(), tc.missing)
			case tc.invalid != "":
				var ip *InvalidParameterError
				require.ErrorAs(t, err, &ip)
				assert.Equal(t, tc.invalid, ip.Field)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestMissingParametersNeverReachStore(t *testing.T) {
	repo := &mockBookings{}
	ratings := &mockRatings{}
	svc := NewAnalyticsService(zap.NewNop(), repo, ratings, nil, time.Second)
	ctx := context.Background()

	for _, q := range []Query{{}, {RestaurantID: "r-1"}, {RestaurantID: "r-1", Month: 3}, {Month: 3, Year: 2024}} {
		_, err := svc.BookingsForRestaurant(ctx, q)
		var mp *MissingParameterError
		assert.ErrorAs(t, err, &mp)

		_, err = svc.MetricsForRestaurant(ctx, q)
		assert.ErrorAs(t, err, &mp)

		_, err = svc.Heatmap(ctx, q)
		assert.ErrorAs(t, err, &mp)

		_, err = svc.DailyRatings(ctx, q)
		assert.ErrorAs(t, err, &mp)
	}

	repo.AssertNotCalled(t, "ListByRestaurantMonth", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Count", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "HourlyCounts", mock.Anything, mock.Anything, mock.Anything)
	ratings.AssertNotCalled(t, "DailyRatings", mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingsForRestaurant(t *testing.T) {
	repo := &mockBookings{}
	want := []bookings.Booking{
		{ID: gofakeit.UUID(), RestaurantID: "r-1", BookingDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Status: bookings.StatusConfirmed},
		{ID: gofakeit.UUID(), RestaurantID: "r-1", BookingDate: time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC), Status: "waitlisted"},
	}
	repo.On("ListByRestaurantMonth", mock.Anything, "r-1", march).Return(want, nil)

	svc := NewAnalyticsService(zap.NewNop(), repo, &mockRatings{}, nil, time.Second)
	got, err := svc.BookingsForRestaurant(context.Background(), query)

	require.NoError(t, err)
	assert.Equal(t, want, got)
	repo.AssertExpectations(t)
}

func TestBookingsForRestaurant_QueryFailure(t *testing.T) {
	repo := &mockBookings{}
	boom := errors.New("connection reset")
	repo.On("ListByRestaurantMonth", mock.Anything, "r-1", march).Return(nil, boom)

	svc := NewAnalyticsService(zap.NewNop(), repo, &mockRatings{}, nil, 0)
	_, err := svc.BookingsForRestaurant(context.Background(), query)

	assert.Same(t, boom, err)
}

func TestMetricsForRestaurant(t *testing.T) {
	repo := &mockBookings{}
	expectCounts(repo, 20, 5, 9, 2, 3)

	svc := NewAnalyticsService(zap.NewNop(), repo, &mockRatings{}, nil, time.Second)
	m, err := svc.MetricsForRestaurant(context.Background(), query)

	require.NoError(t, err)
	assert.Equal(t, BookingMetrics{Total: 20, Confirmed: 5, Completed: 9, NoShow: 2, Cancelled: 3}, m)
	repo.AssertExpectations(t)
	repo.AssertNumberOfCalls(t, "Count", 5)
}

func TestMetricsForRestaurant_StatusCountsNeedNotSumToTotal(t *testing.T) {
	repo := &mockBookings{}
	// 4 bookings carry a status outside the known four
	expectCounts(repo, 10, 1, 2, 1, 2)

	svc := NewAnalyticsService(zap.NewNop(), repo, &mockRatings{}, nil, time.Second)
	m, err := svc.MetricsForRestaurant(context.Background(), query)

	require.NoError(t, err)
	for _, n := range []int64{m.Confirmed, m.Completed, m.NoShow, m.Cancelled} {
		assert.LessOrEqual(t, n, m.Total)
	}
	assert.Less(t, m.Confirmed+m.Completed+m.NoShow+m.Cancelled, m.Total)
}

func TestMetricsForRestaurant_AnyFailureFailsAll(t *testing.T) {
	repo := &mockBookings{}
	boom := errors.New("relation \"bookings\" does not exist")
	repo.On("Count", mock.Anything, "r-1", march, bookings.StatusNoShow).Return(int64(0), boom)
	repo.On("Count", mock.Anything, "r-1", march, mock.Anything).Return(int64(7), nil).Maybe()
	cache := newMemoryCache()

	svc := NewAnalyticsService(zap.NewNop(), repo, &mockRatings{}, cache, time.Second)
	m, err := svc.MetricsForRestaurant(context.Background(), query)

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, BookingMetrics{}, m)
	assert.Equal(t, 0, cache.sets)
}

func TestMetricsForRestaurant_RunsConcurrently(t *testing.T) {
	repo := &mockBookings{}
	var wg sync.WaitGroup
	wg.Add(5)
	release := make(chan struct{})
	go func() {
		wg.Wait()
		close(release)
	}()
	// Every count blocks until all five have started; a sequential
	// implementation would never get past the first one.
	repo.On("Count", mock.Anything, "r-1", march, mock.Anything).
		Run(func(mock.Arguments) {
			wg.Done()
			<-release
		}).
		Return(int64(1), nil)

	svc := NewAnalyticsService(zap.NewNop(), repo, &mockRatings{}, nil, 0)

	done := make(chan error, 1)
	go func() {
		_, err := svc.MetricsForRestaurant(context.Background(), query)
		done <- err
	}()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("counts did not run concurrently")
	}
}

func TestMetricsForRestaurant_CacheHit(t *testing.T) {
	repo := &mockBookings{}
	cache := newMemoryCache()
	cached := BookingMetrics{Total: 3, Completed: 3}
	require.NoError(t, cache.Set(context.Background(), "r-1", march, cached))

	svc := NewAnalyticsService(zap.NewNop(), repo, &mockRatings{}, cache, time.Second)
	m, err := svc.MetricsForRestaurant(context.Background(), query)

	require.NoError(t, err)
	assert.Equal(t, cached, m)
	repo.AssertNotCalled(t, "Count", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMetricsForRestaurant_CacheMissStores(t *testing.T) {
	repo := &mockBookings{}
	expectCounts(repo, 4, 1, 1, 1, 1)
	cache := newMemoryCache()

	svc := NewAnalyticsService(zap.NewNop(), repo, &mockRatings{}, cache, time.Second)
	_, err := svc.MetricsForRestaurant(context.Background(), query)
	require.NoError(t, err)

	assert.Equal(t, BookingMetrics{Total: 4, Confirmed: 1, Completed: 1, NoShow: 1, Cancelled: 1}, cache.entries["r-1:2024-03"])
}

func TestMetricsForRestaurant_CacheErrorFallsThrough(t *testing.T) {
	repo := &mockBookings{}
	expectCounts(repo, 2, 2, 0, 0, 0)
	cache := newMemoryCache()
	cache.getErr = errors.New("redis down")

	svc := NewAnalyticsService(zap.NewNop(), repo, &mockRatings{}, cache, time.Second)
	m, err := svc.MetricsForRestaurant(context.Background(), query)

	require.NoError(t, err)
	assert.Equal(t, int64(2), m.Total)
}

func TestOutcomePercentages(t *testing.T) {
	c, n, x := OutcomePercentages(BookingMetrics{Total: 10, Completed: 5, NoShow: 3, Cancelled: 2})
	assert.InDelta(t, 50.0, c, 1e-9)
	assert.InDelta(t, 30.0, n, 1e-9)
	assert.InDelta(t, 20.0, x, 1e-9)

	c, n, x = OutcomePercentages(BookingMetrics{})
	assert.Zero(t, c+n+x)
}

func TestOutcomes(t *testing.T) {
	repo := &mockBookings{}
	expectCounts(repo, 10, 0, 5, 3, 2)

	svc := NewAnalyticsService(zap.NewNop(), repo, &mockRatings{}, nil, time.Second)
	out, err := svc.Outcomes(context.Background(), query)

	require.NoError(t, err)
	assert.InDelta(t, 50.0, out.CompletedPct, 1e-9)
	require.Len(t, out.Pie.Arcs, 3)
	assert.InDelta(t, 80.0, out.Pie.Arcs[2].Start, 1e-9)
	assert.Equal(t, 100.0, out.Pie.Arcs[2].End)
}

func TestHeatmap(t *testing.T) {
	repo := &mockBookings{}
	repo.On("HourlyCounts", mock.Anything, "r-1", march).Return([]bookings.HourCount{
		{Weekday: 1, Hour: 12, Count: 1},
		{Weekday: 5, Hour: 19, Count: 4},
		{Weekday: 9, Hour: 19, Count: 100},
	}, nil)

	svc := NewAnalyticsService(zap.NewNop(), repo, &mockRatings{}, nil, time.Second)
	hm, err := svc.Heatmap(context.Background(), query)

	require.NoError(t, err)
	assert.Equal(t, 1, hm.Rows[0].Cells[12].Value)
	assert.Equal(t, chart.BucketLow, hm.Rows[0].Cells[12].Bucket)
	assert.Equal(t, 4, hm.Rows[4].Cells[19].Value)
	// [1 4] gives p25=1, p50=1, p75=4
	assert.Equal(t, chart.BucketHigh, hm.Rows[4].Cells[19].Bucket)
	assert.Equal(t, "Fri", hm.Rows[4].Day)
}

func TestDailyRatings(t *testing.T) {
	ratings := &mockRatings{}
	feb := store.MonthKey{Year: 2024, Month: 2}
	ratings.On("DailyRatings", mock.Anything, "r-1", feb).Return([]reviews.DailyRating{
		{Day: 2, Average: 4.5, Count: 3},
		{Day: 29, Average: 2, Count: 1},
	}, nil)

	svc := NewAnalyticsService(zap.NewNop(), &mockBookings{}, ratings, nil, time.Second)
	points, err := svc.DailyRatings(context.Background(), Query{RestaurantID: "r-1", Month: 2, Year: 2024})

	require.NoError(t, err)
	require.Len(t, points, 29)
	assert.Equal(t, 1, points[0].Day)
	assert.Nil(t, points[0].AverageRating)
	assert.Equal(t, 0, points[0].ReviewCount)
	require.NotNil(t, points[1].AverageRating)
	assert.Equal(t, 4.5, *points[1].AverageRating)
	assert.Equal(t, 3, points[1].ReviewCount)
	assert.Equal(t, 29, points[28].Day)
	assert.Equal(t, 1, points[28].ReviewCount)
}
