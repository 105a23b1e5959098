package metrics

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/linchenxuan/metricsync/log"
)

// Reporter is a backend-specific sink that accumulates samples into aggregate
// state and publishes it externally.
type Reporter interface {
	SampleSink
	// Init sets up the backend, wires the collectors and arms the collection job.
	Init() error
	// Response renders the current backend state in the backend's text format.
	Response() string
	// Stop tears down every job the reporter started.
	Stop()
}

// Backend is the customization point of BaseReporter.
type Backend interface {
	// DoInit prepares backend state. An error makes Init fail.
	DoInit() error
	// RegisterCounterSample adds the sample's value to the counter named after it.
	RegisterCounterSample(s Sample) error
	// RegisterGaugeSample sets the gauge named after the sample to its value.
	RegisterGaugeSample(s Sample) error
}

// State is the lifecycle position of a reporter.
type State int32

const (
	StateCreated State = iota
	StateInitializing
	StateCollectorsWired
	StateScheduled
	StateRunning
	StateFailed
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitializing:
		return "initializing"
	case StateCollectorsWired:
		return "collectors_wired"
	case StateScheduled:
		return "scheduled"
	case StateRunning:
		return "running"
	case StateFailed:
		return "failed"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// BaseReporter fixes the order of Init for every backend: backend setup, then
// collector acquisition, then scheduling. Backends embed it and supply
// themselves as the Backend.
type BaseReporter struct {
	backend      Backend
	provider     CollectorProvider
	initialDelay time.Duration
	period       time.Duration

	state     atomic.Int32
	mu        sync.Mutex
	scheduler *Scheduler
}

// NewBaseReporter creates a reporter base. provider may be nil, in which case
// no collectors are polled.
func NewBaseReporter(backend Backend, provider CollectorProvider, initialDelay, period time.Duration) *BaseReporter {
	return &BaseReporter{
		backend:      backend,
		provider:     provider,
		initialDelay: initialDelay,
		period:       period,
	}
}

// Init runs DoInit, wires the collectors and starts the scheduler.
// It may only be called once; a backend failure is returned and leaves the
// reporter in StateFailed.
func (r *BaseReporter) Init() error {
	if !r.state.CompareAndSwap(int32(StateCreated), int32(StateInitializing)) {
		return ErrAlreadyInitialized
	}

	if err := r.backend.DoInit(); err != nil {
		r.state.Store(int32(StateFailed))
		return fmt.Errorf("metrics backend init: %w", err)
	}

	var collectors []Collector
	if r.provider != nil {
		collectors = r.provider.Collectors()
	}
	r.state.Store(int32(StateCollectorsWired))

	sched := NewScheduler(collectors, r, r.initialDelay, r.period)
	r.mu.Lock()
	r.scheduler = sched
	r.mu.Unlock()
	r.state.Store(int32(StateScheduled))

	log.Info().Msg("start to schedule metrics collect sync job")
	sched.Start()
	r.state.Store(int32(StateRunning))
	return nil
}

// RegisterSample dispatches s on its kind. Unknown kinds are logged and
// reported as ErrUnknownKind.
func (r *BaseReporter) RegisterSample(s Sample) error {
	return DispatchSample(r.backend, s)
}

// State returns the lifecycle state.
func (r *BaseReporter) State() State {
	return State(r.state.Load())
}

// Scheduler returns the collection scheduler, or nil before Init.
func (r *BaseReporter) Scheduler() *Scheduler {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scheduler
}

// Stats returns the scheduler counters; zero before Init.
func (r *BaseReporter) Stats() SchedulerStats {
	if s := r.Scheduler(); s != nil {
		return s.Stats()
	}
	return SchedulerStats{}
}

// Stop halts the collection job.
func (r *BaseReporter) Stop() {
	if s := r.Scheduler(); s != nil {
		s.Stop()
	}
	r.state.Store(int32(StateStopped))
}

// DispatchSample routes s to the backend method matching its kind.
func DispatchSample(b Backend, s Sample) error {
	switch s.Kind() {
	case KindCounter:
		return b.RegisterCounterSample(s)
	case KindGauge:
		return b.RegisterGaugeSample(s)
	default:
		log.Warn().Str("sample", s.Name()).Int("kind", int(s.Kind())).Msg("unsupported sample type")
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(s.Kind()))
	}
}
