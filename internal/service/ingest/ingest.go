package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	kafkax "github.com/samirwankhede/restaurant-insights/internal/kafka"
	"github.com/samirwankhede/restaurant-insights/internal/metrics"
	"github.com/samirwankhede/restaurant-insights/internal/store"
	"github.com/samirwankhede/restaurant-insights/internal/store/bookings"
)

const defaultPartySize = 2

type BookingWriter interface {
	Upsert(ctx context.Context, b bookings.Booking) (*bookings.Booking, error)
	Delete(ctx context.Context, id string) (*bookings.Booking, error)
}

type CacheInvalidator interface {
	Invalidate(ctx context.Context, restaurantID string, month store.MonthKey) error
}

// IngestService applies booking events to the store and drops the cached
// metrics of every restaurant month the event touched.
type IngestService struct {
	log      *zap.Logger
	bookings BookingWriter
	cache    CacheInvalidator
}

// NewIngestService wires the service. cache may be nil.
func NewIngestService(log *zap.Logger, bookings BookingWriter, cache CacheInvalidator) *IngestService {
	return &IngestService{log: log, bookings: bookings, cache: cache}
}

func (s *IngestService) Handle(ctx context.Context, e kafkax.BookingEvent) error {
	switch e.Type {
	case kafkax.BookingUpserted:
		return s.upsert(ctx, e.Booking)
	case kafkax.BookingDeleted:
		return s.delete(ctx, e.Booking.ID)
	}
	return fmt.Errorf("%w: unknown type %q", kafkax.ErrMalformedEvent, e.Type)
}

func (s *IngestService) upsert(ctx context.Context, b bookings.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = bookings.StatusConfirmed
	}
	if b.PartySize <= 0 {
		b.PartySize = defaultPartySize
	}

	prev, err := s.bookings.Upsert(ctx, b)
	if err != nil {
		s.log.Error("booking upsert failed", zap.String("booking_id", b.ID), zap.Error(err))
		return err
	}

	s.invalidate(ctx, b.RestaurantID, store.NewMonthKey(b.BookingDate))
	if prev != nil {
		prevMonth := store.NewMonthKey(prev.BookingDate)
		if prev.RestaurantID != b.RestaurantID || prevMonth != store.NewMonthKey(b.BookingDate) {
			s.invalidate(ctx, prev.RestaurantID, prevMonth)
		}
	}
	metrics.IngestMessagesTotal.WithLabelValues("upserted").Inc()
	s.log.Debug("booking upserted", zap.String("booking_id", b.ID), zap.String("restaurant_id", b.RestaurantID))
	return nil
}

func (s *IngestService) delete(ctx context.Context, id string) error {
	prev, err := s.bookings.Delete(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		// already gone; redelivered deletes are expected
		metrics.IngestMessagesTotal.WithLabelValues("noop").Inc()
		s.log.Info("booking to delete not found", zap.String("booking_id", id))
		return nil
	}
	if err != nil {
		s.log.Error("booking delete failed", zap.String("booking_id", id), zap.Error(err))
		return err
	}
	s.invalidate(ctx, prev.RestaurantID, store.NewMonthKey(prev.BookingDate))
	metrics.IngestMessagesTotal.WithLabelValues("deleted").Inc()
	return nil
}

// invalidate never fails the event; a stale entry still expires with its TTL.
func (s *IngestService) invalidate(ctx context.Context, restaurantID string, month store.MonthKey) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, restaurantID, month); err != nil {
		s.log.Warn("metrics cache invalidation failed",
			zap.String("restaurant_id", restaurantID),
			zap.String("month", month.String()),
			zap.Error(err))
	}
}
