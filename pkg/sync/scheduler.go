package sync

import (
	"context"
	goSync "sync"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/sidkik/casync-sync/pkg/config"
	"github.com/sidkik/casync-sync/pkg/fswatch"
)

// Mocked out for unit testing.
var watchIndex = fswatch.Watch

// Scheduler runs the reconciliation cycle of every target periodically.
type Scheduler struct {
	reconciler *Reconciler
	clock      clockwork.Clock
	metrics    *Metrics
	log        logrus.FieldLogger
	onResult   func(Result)

	// group makes sure that at most one cycle runs per destination.
	group  singleflight.Group
	cycles goSync.WaitGroup
}

// SchedulerOption configures optional Scheduler behavior.
type SchedulerOption func(*Scheduler)

// WithClock sets the clock used to time ticks.
func WithClock(clock clockwork.Clock) SchedulerOption {
	return func(s *Scheduler) {
		s.clock = clock
	}
}

// WithResultHandler sets a function that's called with the result of every
// cycle that runs.
func WithResultHandler(fn func(Result)) SchedulerOption {
	return func(s *Scheduler) {
		s.onResult = fn
	}
}

// NewScheduler returns a Scheduler that runs cycles with `reconciler`.
func NewScheduler(log logrus.FieldLogger, reconciler *Reconciler, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		reconciler: reconciler,
		clock:      clockwork.NewRealClock(),
		metrics:    reconciler.metrics,
		log:        log,
		onResult:   func(Result) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run reconciles every target immediately, and then on every tick of its
// interval. Ticks follow the wall clock: a slow cycle doesn't delay the
// following ticks, but ticks that happen while a cycle for the same
// destination is still running are dropped.
// Run blocks until `ctx` is cancelled and all running cycles have exited.
func (s *Scheduler) Run(ctx context.Context, targets []config.Target) {
	var wg goSync.WaitGroup
	for _, target := range targets {
		wg.Add(1)
		go func(target config.Target) {
			defer wg.Done()
			s.runTarget(ctx, target)
		}(target)
	}
	wg.Wait()
	s.cycles.Wait()
}

func (s *Scheduler) runTarget(ctx context.Context, target config.Target) {
	log := s.log.WithField("target", target.Name)

	var trigger <-chan struct{}
	if target.Watch {
		if config.IsRemote(target.Index) {
			log.WithField("index", target.Index).Warn(
				"Can't watch a remote index. Only periodic reconciliation will run.")
		} else if watch, err := watchIndex(ctx, target.Index); err != nil {
			log.WithError(err).Warn("Failed to watch index. Only periodic reconciliation will run.")
		} else {
			trigger = watch
		}
	}

	s.tick(ctx, log, target)
	timer := s.clock.After(target.Interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer:
			s.tick(ctx, log, target)
			timer = s.clock.After(target.Interval)
		case <-trigger:
			log.Debug("Index changed")
			s.tick(ctx, log, target)
		}
	}
}

// tick starts a cycle for `target` in the background, unless one is already
// running for the target's destination.
func (s *Scheduler) tick(ctx context.Context, log logrus.FieldLogger, target config.Target) {
	var ran bool
	results := s.group.DoChan(target.Destination, func() (interface{}, error) {
		ran = true
		return s.reconciler.RunCycle(ctx, target), nil
	})

	s.cycles.Add(1)
	go func() {
		defer s.cycles.Done()

		res := <-results
		if !ran {
			s.metrics.SkippedTicks.With("target", target.Name).Add(1)
			log.Debug("Previous reconciliation of the destination is still running. Skipping tick.")
			return
		}
		s.onResult(res.Val.(Result))
	}()
}
