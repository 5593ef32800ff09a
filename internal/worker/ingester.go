package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/samirwankhede/restaurant-insights/internal/kafka"
	"github.com/samirwankhede/restaurant-insights/internal/metrics"
)

type MessageSource interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, m kafka.Message) error
}

type Publisher interface {
	PublishWithHeaders(ctx context.Context, key, value []byte, headers map[string]string) error
}

type EventHandler interface {
	Handle(ctx context.Context, e kafkax.BookingEvent) error
}

// Ingester consumes booking events on maxWorkers lanes. Messages are routed
// to a lane by key, so events for one booking are applied in the order they
// were fetched while different bookings proceed in parallel. A message is
// committed once it is applied or parked on the dead-letter topic; if
// neither happens it stays uncommitted and is redelivered.
type Ingester struct {
	log        *zap.Logger
	handler    EventHandler
	src        MessageSource
	dlq        Publisher
	maxWorkers int
	balancer   kafka.Balancer
}

func NewIngester(log *zap.Logger, handler EventHandler, src MessageSource, dlq Publisher, maxWorkers int) *Ingester {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Ingester{
		log:        log,
		handler:    handler,
		src:        src,
		dlq:        dlq,
		maxWorkers: maxWorkers,
		balancer:   &kafka.Hash{},
	}
}

// Run blocks until ctx is cancelled, then waits for in-flight messages.
func (f *Ingester) Run(ctx context.Context) error {
	lanes := make([]chan kafka.Message, f.maxWorkers)
	laneIDs := make([]int, f.maxWorkers)
	var wg sync.WaitGroup
	for i := range lanes {
		lanes[i] = make(chan kafka.Message)
		laneIDs[i] = i
		wg.Add(1)
		go func(in <-chan kafka.Message) {
			defer wg.Done()
			for m := range in {
				f.process(ctx, m)
			}
		}(lanes[i])
	}
	defer func() {
		for _, in := range lanes {
			close(in)
		}
		wg.Wait()
	}()

	for {
		m, err := f.src.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.log.Error("failed to read message", zap.Error(err))
			continue
		}

		select {
		case lanes[f.balancer.Balance(m, laneIDs...)] <- m:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (f *Ingester) process(ctx context.Context, m kafka.Message) {
	log := f.log.With(zap.Int("partition", m.Partition), zap.Int64("offset", m.Offset))

	err := f.handleMessage(ctx, m)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error("failed to handle message", zap.Error(err))
		metrics.IngestMessagesTotal.WithLabelValues("failed").Inc()
		if perr := f.dlq.PublishWithHeaders(ctx, m.Key, m.Value, map[string]string{"error": err.Error()}); perr != nil {
			log.Error("failed to publish to dlq", zap.Error(perr))
			return
		}
		metrics.IngestMessagesTotal.WithLabelValues("dead_lettered").Inc()
	}

	if err := f.src.Commit(ctx, m); err != nil {
		log.Error("failed to commit message", zap.Error(err))
	}
}

func (f *Ingester) handleMessage(ctx context.Context, m kafka.Message) error {
	e, err := kafkax.ParseBookingEvent(m.Value)
	if err != nil {
		return err
	}
	return f.handler.Handle(ctx, e)
}
