package analytics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/resume-screener/internal/screening"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/resume-screener/pkg/resilience"
)

type CollectorConfig struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
	Retry         resilience.RetryConfig
	Breaker       resilience.CircuitBreakerConfig
}

// Collector buffers screening events and publishes them in batches, either
// when BatchSize events are pending or every FlushInterval. Publishing is
// retried and guarded by a circuit breaker; a batch that still fails is
// dropped so screening never waits on Kafka.
type Collector struct {
	publisher kafka.Publisher
	cfg       CollectorConfig
	breaker   *resilience.CircuitBreaker
	logger    *slog.Logger

	mu      sync.RWMutex
	closed  bool
	eventCh chan ScreeningEvent
	started atomic.Bool
	done    chan struct{}

	published atomic.Int64
	dropped   atomic.Int64
}

func NewCollector(publisher kafka.Publisher, cfg CollectorConfig) *Collector {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 2 * time.Second
	}
	return &Collector{
		publisher: publisher,
		cfg:       cfg,
		breaker:   resilience.NewCircuitBreaker("screening-events", cfg.Breaker),
		logger:    slog.Default().With("component", "analytics-collector"),
		eventCh:   make(chan ScreeningEvent, cfg.BufferSize),
		done:      make(chan struct{}),
	}
}

// Start launches the publish loop. It stops when ctx is cancelled or Close is
// called, flushing whatever is buffered.
func (c *Collector) Start(ctx context.Context) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	go c.loop(ctx)
	c.logger.Info("analytics collector started",
		"buffer_size", c.cfg.BufferSize,
		"batch_size", c.cfg.BatchSize,
		"flush_interval", c.cfg.FlushInterval,
	)
}

func (c *Collector) loop(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(c.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]ScreeningEvent, 0, c.cfg.BatchSize)
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				c.finalFlush(batch)
				return
			}
			batch = append(batch, event)
			if len(batch) >= c.cfg.BatchSize {
				c.flush(ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			c.flush(ctx, batch)
			batch = batch[:0]
		case <-ctx.Done():
		drain:
			for {
				select {
				case event, ok := <-c.eventCh:
					if !ok {
						break drain
					}
					batch = append(batch, event)
				default:
					break drain
				}
			}
			c.finalFlush(batch)
			return
		}
	}
}

func (c *Collector) finalFlush(batch []ScreeningEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.flush(ctx, batch)
}

func (c *Collector) flush(ctx context.Context, batch []ScreeningEvent) {
	if len(batch) == 0 {
		return
	}
	events := make([]kafka.Event, len(batch))
	for i, e := range batch {
		events[i] = kafka.Event{Key: e.JobID, Type: string(e.Type), Value: e}
	}
	err := c.breaker.Execute(func() error {
		return resilience.Retry(ctx, "publish screening events", c.cfg.Retry, func() error {
			return c.publisher.PublishBatch(ctx, events)
		})
	})
	if err != nil {
		c.dropped.Add(int64(len(batch)))
		c.logger.Error("screening events dropped", "count", len(batch), "error", err)
		return
	}
	c.published.Add(int64(len(batch)))
	c.logger.Debug("screening events published", "count", len(batch))
}

// Track enqueues an event without blocking. It reports false when the event
// was dropped because the buffer is full or the collector is closed.
func (c *Collector) Track(event ScreeningEvent) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		c.dropped.Add(1)
		return false
	}
	select {
	case c.eventCh <- event:
		return true
	default:
		c.dropped.Add(1)
		c.logger.Warn("screening event dropped (buffer full)", "run_id", event.RunID)
		return false
	}
}

// ObserveRun implements screening.RunObserver.
func (c *Collector) ObserveRun(_ context.Context, job screening.Job, run *screening.Run) {
	c.Track(NewScreeningEvent(job, run))
}

// Close stops accepting events and waits for the buffered ones to be
// flushed.
func (c *Collector) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.eventCh)
	c.mu.Unlock()
	if c.started.Load() {
		<-c.done
	}
}

// Counts returns the number of events published and dropped so far.
func (c *Collector) Counts() (published, dropped int64) {
	return c.published.Load(), c.dropped.Load()
}
