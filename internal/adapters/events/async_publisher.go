package events

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/atvirokodosprendimai/actionlog/internal/core/domain"
	"github.com/atvirokodosprendimai/actionlog/internal/core/ports"
)

const defaultPublishBuffer = 256

// AsyncPublisher decouples publication from the recording path. Publish
// enqueues and returns immediately; a single worker drains the queue against
// the wrapped publisher. When the buffer is full the event is dropped and
// counted, which keeps the recorder's latency bounded at the cost of
// delivery guarantees. Losing bus events on overload or transport failure is
// accepted.
type AsyncPublisher struct {
	inner  ports.EventBus
	logger *slog.Logger

	queue chan domain.BusEvent
	wg    sync.WaitGroup

	closeOnce sync.Once

	publishedCount atomic.Int64
	droppedCount   atomic.Int64
	failedCount    atomic.Int64
}

// AsyncMetrics is a snapshot of the publisher's delivery counters.
type AsyncMetrics struct {
	Published int64
	Dropped   int64
	Failed    int64
}

func NewAsyncPublisher(inner ports.EventBus, buffer int, logger *slog.Logger) *AsyncPublisher {
	if buffer <= 0 {
		buffer = defaultPublishBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &AsyncPublisher{
		inner:  inner,
		logger: logger,
		queue:  make(chan domain.BusEvent, buffer),
	}
	p.wg.Add(1)
	go p.drain()
	return p
}

func (p *AsyncPublisher) Publish(_ context.Context, event domain.BusEvent) error {
	select {
	case p.queue <- event:
	default:
		p.droppedCount.Add(1)
		p.logger.Warn("dropping bus event, publish queue full",
			"event_type", event.Type,
			"entity_uuid", event.EntityUUID,
		)
	}
	return nil
}

func (p *AsyncPublisher) drain() {
	defer p.wg.Done()
	for event := range p.queue {
		if err := p.inner.Publish(context.Background(), event); err != nil {
			p.failedCount.Add(1)
			p.logger.Warn("bus event delivery failed",
				"event_type", event.Type,
				"entity_uuid", event.EntityUUID,
				"error", err,
			)
			continue
		}
		p.publishedCount.Add(1)
	}
}

// Close stops accepting events and blocks until the queue is drained.
func (p *AsyncPublisher) Close() error {
	p.closeOnce.Do(func() {
		close(p.queue)
	})
	p.wg.Wait()
	return nil
}

func (p *AsyncPublisher) Metrics() AsyncMetrics {
	return AsyncMetrics{
		Published: p.publishedCount.Load(),
		Dropped:   p.droppedCount.Load(),
		Failed:    p.failedCount.Load(),
	}
}
