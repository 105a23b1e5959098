package metrics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/linchenxuan/metricsync/log"
)

const (
	// DefaultInitialDelay is the delay before the first collection tick.
	DefaultInitialDelay = 5000 * time.Millisecond
	// DefaultPeriod is the interval between collection ticks.
	DefaultPeriod = 5000 * time.Millisecond
)

// SampleSink receives the samples a scheduler collects.
type SampleSink interface {
	RegisterSample(s Sample) error
}

// SchedulerStats counts what a scheduler has done and which faults it swallowed.
type SchedulerStats struct {
	Ticks             uint64
	Samples           uint64
	RegisterFailures  uint64
	CollectorFailures uint64
	UnknownKinds      uint64
	TickPanics        uint64
}

// Scheduler polls a fixed list of collectors on a fixed cadence and forwards
// their samples to a sink. Collectors are visited sequentially in list order.
//
// No fault in a collector or in the sink stops the schedule: panics and errors
// are recovered, logged and counted in Stats.
type Scheduler struct {
	collectors   []Collector
	sink         SampleSink
	initialDelay time.Duration
	period       time.Duration

	ticks             atomic.Uint64
	samples           atomic.Uint64
	registerFailures  atomic.Uint64
	collectorFailures atomic.Uint64
	unknownKinds      atomic.Uint64
	tickPanics        atomic.Uint64

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a scheduler over collectors. Non-positive durations
// fall back to DefaultInitialDelay and DefaultPeriod.
func NewScheduler(collectors []Collector, sink SampleSink, initialDelay, period time.Duration) *Scheduler {
	if initialDelay < 0 {
		initialDelay = DefaultInitialDelay
	}
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Scheduler{
		collectors:   append([]Collector(nil), collectors...),
		sink:         sink,
		initialDelay: initialDelay,
		period:       period,
	}
}

// Start arms the recurring job. Calling Start on a running scheduler does nothing.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)

	log.Info().Int("collectors", len(s.collectors)).
		Dur("initialDelay", s.initialDelay).
		Dur("period", s.period).
		Msg("metrics collect job scheduled")
}

// Stop disarms the job and waits for an in-flight tick to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	log.Info().Msg("metrics collect job stopped")
}

// Period returns the tick period.
func (s *Scheduler) Period() time.Duration {
	return s.period
}

// Stats returns a snapshot of the counters.
func (s *Scheduler) Stats() SchedulerStats {
	return SchedulerStats{
		Ticks:             s.ticks.Load(),
		Samples:           s.samples.Load(),
		RegisterFailures:  s.registerFailures.Load(),
		CollectorFailures: s.collectorFailures.Load(),
		UnknownKinds:      s.unknownKinds.Load(),
		TickPanics:        s.tickPanics.Load(),
	}
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(s.initialDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	// The ticker is armed before the first tick so that ticks stay on a fixed
	// rate; ticks missed while a slow tick runs are dropped, not queued.
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()
	s.RunOnce()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce()
		}
	}
}

// RunOnce runs one collection tick synchronously.
func (s *Scheduler) RunOnce() {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.tickPanics.Add(1)
			log.Error().Str("panic", fmt.Sprint(r)).Msg("metrics collect tick panicked")
		}
	}()

	s.ticks.Add(1)
	log.Debug().Msg("start to update metrics data")
	for idx, c := range s.collectors {
		samples, ok := s.export(idx, c)
		if !ok {
			continue
		}
		for _, sample := range samples {
			s.dispatch(sample)
		}
	}

	if elapsed := time.Since(start); elapsed > s.period {
		log.Warn().Dur("elapsed", elapsed).Dur("period", s.period).
			Msg("metrics collect tick overran its period")
	}
}

// export polls one collector, isolating any panic to it.
func (s *Scheduler) export(idx int, c Collector) (samples []Sample, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.collectorFailures.Add(1)
			log.Error().Int("index", idx).Str("collector", fmt.Sprintf("%T", c)).
				Str("panic", fmt.Sprint(r)).Msg("collector export failed")
			samples, ok = nil, false
		}
	}()
	if !c.HasUpdates() {
		return nil, false
	}
	return c.Export(), true
}

// dispatch hands one sample to the sink, isolating any failure to it.
func (s *Scheduler) dispatch(sample Sample) {
	defer func() {
		if r := recover(); r != nil {
			s.registerFailures.Add(1)
			log.Error().Str("sample", sample.Name()).Str("panic", fmt.Sprint(r)).
				Msg("register sample panicked")
		}
	}()

	err := s.sink.RegisterSample(sample)
	switch {
	case err == nil:
		s.samples.Add(1)
	case errors.Is(err, ErrUnknownKind):
		s.unknownKinds.Add(1)
	default:
		s.registerFailures.Add(1)
		log.Error().Str("sample", sample.Name()).Str("kind", sample.Kind().String()).
			Err(err).Msg("register sample error")
	}
}
