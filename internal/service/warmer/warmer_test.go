package warmer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/samirwankhede/restaurant-insights/internal/service/analytics"
	"github.com/samirwankhede/restaurant-insights/internal/store"
)

type mockLister struct{ mock.Mock }

func (m *mockLister) RestaurantsWithBookings(ctx context.Context, month store.MonthKey) ([]string, error) {
	args := m.Called(ctx, month)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

type mockLoader struct{ mock.Mock }

func (m *mockLoader) MetricsForRestaurant(ctx context.Context, q analytics.Query) (analytics.BookingMetrics, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(analytics.BookingMetrics), args.Error(1)
}

func TestWarmMonth(t *testing.T) {
	month := store.MonthKey{Year: 2024, Month: 7}
	lister, loader := &mockLister{}, &mockLoader{}
	lister.On("RestaurantsWithBookings", mock.Anything, month).Return([]string{"r-1", "r-2", "r-3"}, nil)
	loader.On("MetricsForRestaurant", mock.Anything, analytics.Query{RestaurantID: "r-1", Month: 7, Year: 2024}).Return(analytics.BookingMetrics{Total: 1}, nil)
	loader.On("MetricsForRestaurant", mock.Anything, analytics.Query{RestaurantID: "r-2", Month: 7, Year: 2024}).Return(analytics.BookingMetrics{}, errors.New("timeout"))
	loader.On("MetricsForRestaurant", mock.Anything, analytics.Query{RestaurantID: "r-3", Month: 7, Year: 2024}).Return(analytics.BookingMetrics{Total: 4}, nil)

	n, err := NewCacheWarmer(zap.NewNop(), lister, loader).WarmMonth(context.Background(), month)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	loader.AssertNumberOfCalls(t, "MetricsForRestaurant", 3)
}

func TestWarmMonth_ListFailure(t *testing.T) {
	lister := &mockLister{}
	boom := errors.New("db down")
	lister.On("RestaurantsWithBookings", mock.Anything, mock.Anything).Return(nil, boom)

	_, err := NewCacheWarmer(zap.NewNop(), lister, &mockLoader{}).WarmMonth(context.Background(), store.MonthKey{Year: 2024, Month: 1})

	assert.ErrorIs(t, err, boom)
}

func TestWarmCurrent(t *testing.T) {
	lister := &mockLister{}
	lister.On("RestaurantsWithBookings", mock.Anything, store.MonthKey{Year: 2025, Month: 2}).Return([]string{}, nil)

	w := NewCacheWarmer(zap.NewNop(), lister, &mockLoader{})
	w.now = func() time.Time { return time.Date(2025, 2, 14, 8, 0, 0, 0, time.UTC) }

	n, err := w.WarmCurrent(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	lister.AssertExpectations(t)
}

func TestWarmMonth_StopsOnCancel(t *testing.T) {
	lister, loader := &mockLister{}, &mockLoader{}
	lister.On("RestaurantsWithBookings", mock.Anything, mock.Anything).Return([]string{"r-1", "r-2"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := NewCacheWarmer(zap.NewNop(), lister, loader).WarmMonth(ctx, store.MonthKey{Year: 2024, Month: 1})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
	loader.AssertNotCalled(t, "MetricsForRestaurant", mock.Anything, mock.Anything)
}
