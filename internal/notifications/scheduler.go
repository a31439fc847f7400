package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Delivery adapts one transport for the scheduler: it reports whether
// the transport can deliver at all and sends one queue update to one
// subscriber.
type Delivery[R Record[R]] interface {
	// Ready gates the whole tick: an unready transport (e.g. Web Push
	// without VAPID keys) causes the pass to be skipped entirely.
	Ready() bool
	Send(ctx context.Context, sub R, update QueueUpdate) error
}

// DefaultInterval is the tick interval used when none is configured.
const DefaultInterval = time.Hour

// SchedulerConfig contains scheduler configuration.
type SchedulerConfig struct {
	// Transport labels log lines and metrics ("sms", "webpush").
	Transport string
	Interval  time.Duration
}

// Scheduler periodically fans out queue updates to every enabled
// subscription of one transport. Each scheduler runs at most one loop
// goroutine; ticks execute sequentially on that goroutine and can never
// overlap.
type Scheduler[R Record[R]] struct {
	config    SchedulerConfig
	store     *Store[R]
	delivery  Delivery[R]
	estimator WaitEstimator[R]

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// NewScheduler creates a delivery scheduler for one transport.
func NewScheduler[R Record[R]](config SchedulerConfig, store *Store[R], delivery Delivery[R], estimator WaitEstimator[R]) *Scheduler[R] {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	return &Scheduler[R]{
		config:    config,
		store:     store,
		delivery:  delivery,
		estimator: estimator,
	}
}

// Start launches the recurring delivery loop. Calling Start on an
// already-running scheduler is a no-op, so at most one loop per handle
// exists at any time.
func (s *Scheduler[R]) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		slog.Debug("delivery scheduler already running", "transport", s.config.Transport)
		return
	}

	s.running = true
	s.stopCh = make(chan struct{})
	go s.run(ctx, s.stopCh)

	slog.Info("delivery scheduler started",
		"transport", s.config.Transport,
		"interval", s.config.Interval,
	)
}

// Stop signals the loop to exit before its next tick. It is best-effort
// and non-blocking: an in-flight tick runs to completion.
func (s *Scheduler[R]) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	close(s.stopCh)
	s.running = false

	slog.Info("delivery scheduler stopped", "transport", s.config.Transport)
}

// Running reports whether the delivery loop is active.
func (s *Scheduler[R]) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler[R]) run(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs one delivery pass. A failure to deliver to one subscriber
// is logged and never aborts the rest of the batch.
func (s *Scheduler[R]) tick(ctx context.Context) {
	if !s.delivery.Ready() {
		slog.Debug("transport not ready, skipping delivery pass", "transport", s.config.Transport)
		return
	}

	subs := s.store.All(ctx)
	recordSubscriptions(s.config.Transport, len(subs))

	for _, sub := range subs {
		if !sub.Active() {
			continue
		}

		update := QueueUpdate{
			WaitMinutes: s.estimator.EstimateWait(sub),
			At:          time.Now().UTC(),
		}

		start := time.Now()
		if err := s.delivery.Send(ctx, sub, update); err != nil {
			slog.Error("delivery failed",
				"transport", s.config.Transport,
				"subscription_id", sub.RecordID(),
				"error", err,
			)
			recordDelivery(s.config.Transport, "failed")
			continue
		}

		if err := s.store.MarkSent(ctx, sub.RecordID()); err != nil {
			slog.Error("failed to mark subscription sent",
				"transport", s.config.Transport,
				"subscription_id", sub.RecordID(),
				"error", err,
			)
		}

		recordDelivery(s.config.Transport, "success")
		recordDeliveryDuration(s.config.Transport, time.Since(start))
	}

	recordTick(s.config.Transport)
}
