// Package workload drives a ring channel with concurrent producers and
// consumers and checks that every element is accounted for.
package workload

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jaswdr/faker"
	"github.com/valyala/fastrand"
	"golang.org/x/sync/errgroup"

	"github.com/jittakal/ringchan/internal/config/dto"
	"github.com/jittakal/ringchan/pkg/buffer"
)

// Item is one synthetic element. ID is unique per run; Producer and Seq
// identify it in errors and logs.
type Item struct {
	ID       uuid.UUID
	Producer int
	Seq      uint64
	Payload  string
}

// Config sizes a run.
type Config struct {
	Producers             int
	Consumers             int
	OperationsPerProducer int
	// BatchSize is the largest batch a producer submits through PushBatch.
	BatchSize int
	// BatchPercent is the chance, out of 100, that a producer step is a batch.
	BatchPercent int
	PollInterval time.Duration
	PayloadWords int
}

// ConfigFrom converts the loaded workload section.
func ConfigFrom(c dto.WorkloadConfig) Config {
	return Config{
		Producers:             c.Producers,
		Consumers:             c.Consumers,
		OperationsPerProducer: c.OperationsPerProducer,
		BatchSize:             c.BatchSize,
		BatchPercent:          c.BatchPercent,
		PollInterval:          c.PollInterval(),
		PayloadWords:          c.PayloadWords,
	}
}

// Report summarises a run. Pushed counts elements that entered the channel;
// elements dropped by a truncated batch are counted in Truncated only.
type Report struct {
	RunID     uuid.UUID
	Pushed    int
	Evicted   int
	Truncated int
	Popped    int
	Remaining int
	Duration  time.Duration
}

// Balanced reports whether every pushed element was popped, evicted, or is still queued.
func (r Report) Balanced() bool {
	return r.Pushed == r.Popped+r.Evicted+r.Remaining
}

type counters struct {
	pushed    atomic.Int64
	evicted   atomic.Int64
	truncated atomic.Int64
	popped    atomic.Int64
}

// Run starts the producers and consumers and blocks until the producers are
// done and the consumers have drained the channel, or ctx is cancelled.
// A delivery that breaks exactly-once accounting stops the run with a
// *errors.DeliveryError.
func Run(ctx context.Context, ch buffer.Channel[Item], cfg Config, logger *slog.Logger) (Report, error) {
	if cfg.Producers <= 0 || cfg.Consumers <= 0 {
		return Report{}, fmt.Errorf("workload needs producers and consumers, got %d/%d", cfg.Producers, cfg.Consumers)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Millisecond
	}

	runID := uuid.New()
	logger = logger.With("run_id", runID.String())
	logger.Info("workload started",
		"producers", cfg.Producers,
		"consumers", cfg.Consumers,
		"operations_per_producer", cfg.OperationsPerProducer,
		"capacity", ch.Capacity(),
	)

	var (
		start     = time.Now()
		led       = newLedger()
		c         counters
		producers sync.WaitGroup
		done      = make(chan struct{})
	)

	g, gctx := errgroup.WithContext(ctx)

	for p := range cfg.Producers {
		producers.Add(1)
		g.Go(func() error {
			defer producers.Done()
			return produce(gctx, ch, cfg, p, led, &c)
		})
	}
	g.Go(func() error {
		producers.Wait()
		close(done)
		return nil
	})
	for range cfg.Consumers {
		g.Go(func() error {
			return consume(gctx, ch, cfg.PollInterval, done, led, &c)
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	report := Report{
		RunID:     runID,
		Pushed:    int(c.pushed.Load()),
		Evicted:   int(c.evicted.Load()),
		Truncated: int(c.truncated.Load()),
		Popped:    int(c.popped.Load()),
		Remaining: ch.Count(),
		Duration:  time.Since(start),
	}

	if err == nil && led.queued() != report.Remaining {
		err = fmt.Errorf("ledger holds %d queued items, channel holds %d", led.queued(), report.Remaining)
	}

	logger.Info("workload finished",
		"pushed", report.Pushed,
		"evicted", report.Evicted,
		"truncated", report.Truncated,
		"popped", report.Popped,
		"remaining", report.Remaining,
		"balanced", report.Balanced(),
		"duration", report.Duration,
	)
	return report, err
}

func produce(ctx context.Context, ch buffer.Channel[Item], cfg Config, producer int, led *ledger, c *counters) error {
	f := faker.New()
	var seq uint64

	next := func() Item {
		seq++
		return Item{
			ID:       uuid.New(),
			Producer: producer,
			Seq:      seq,
			Payload:  f.Lorem().Sentence(max(cfg.PayloadWords, 1)),
		}
	}

	for left := cfg.OperationsPerProducer; left > 0; {
		if err := ctx.Err(); err != nil {
			return nil
		}

		if cfg.BatchSize > 0 && int(fastrand.Uint32n(100)) < cfg.BatchPercent {
			batch := make([]Item, min(cfg.BatchSize, left))
			for i := range batch {
				batch[i] = next()
			}
			left -= len(batch)

			led.add(batch...)
			n := ch.PushBatch(batch)
			led.forget(batch[n:])
			c.pushed.Add(int64(n))
			c.truncated.Add(int64(len(batch) - n))
			continue
		}

		it := next()
		left--

		led.add(it)
		evicted, ok := ch.Push(it)
		c.pushed.Add(1)
		if ok {
			if err := led.evict(evicted); err != nil {
				return err
			}
			c.evicted.Add(1)
		}
	}
	return nil
}

func consume(ctx context.Context, ch buffer.Channel[Item], poll time.Duration, done <-chan struct{}, led *ledger, c *counters) error {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		for {
			it, ok := ch.Pop()
			if !ok {
				break
			}
			if err := led.pop(it); err != nil {
				return err
			}
			c.popped.Add(1)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-done:
			// Producers are finished, so an empty channel stays empty.
			if ch.IsEmpty() {
				return nil
			}
		case <-ticker.C:
		}
	}
}
