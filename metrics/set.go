package metrics

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/linchenxuan/metricsync/log"
)

// Metrics is the base interface of every instrument.
type Metrics interface {
	// Name returns the metric name
	Name() string
	// Group returns the metric group, used as the exported name prefix
	Group() string
	// Policy returns the aggregation policy for this metric
	Policy() Policy
}

// Set is a Collector fed by instruments. Instrumented code updates Counter,
// Gauge and StopWatch handles obtained from the set; the set merges updates of
// the same series by policy until the next Export.
type Set struct {
	mu      sync.Mutex
	pending map[string]*Record
	updated atomic.Bool

	instMu      sync.RWMutex
	instruments map[Policy]map[string]Metrics
}

// NewSet creates an empty instrument set.
func NewSet() *Set {
	return &Set{
		pending:     map[string]*Record{},
		instruments: map[Policy]map[string]Metrics{},
	}
}

// HasUpdates reports whether anything was recorded since the last Export.
func (s *Set) HasUpdates() bool {
	return s.updated.Load()
}

// Export returns the pending records as samples, sorted by series key, and
// starts a new window. Sum records become counter samples carrying the
// window's delta; every other policy becomes a gauge sample.
func (s *Set) Export() []Sample {
	s.mu.Lock()
	pending := s.pending
	s.pending = make(map[string]*Record, len(pending))
	s.updated.Store(false)
	s.mu.Unlock()

	keys := make([]string, 0, len(pending))
	for k := range pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	samples := make([]Sample, 0, len(keys))
	for _, k := range keys {
		sample, err := pending[k].toSample()
		if err != nil {
			log.Warn().Str("series", k).Err(err).Msg("drop invalid record")
			continue
		}
		samples = append(samples, sample)
	}
	return samples
}

// report merges r into the pending window.
func (s *Set) report(r Record) {
	key := r.Key()

	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.pending[key]; ok {
		if err := cur.Merge(r); err != nil {
			log.Error().Str("series", key).Err(err).Msg("merge record")
			return
		}
	} else {
		s.pending[key] = r.Clone()
	}
	s.updated.Store(true)
}

// instrument returns the cached instrument for (policy, name) or creates it with mk.
// The first group registered for a name wins.
func (s *Set) instrument(p Policy, name string, mk func() Metrics) Metrics {
	s.instMu.RLock()
	m, ok := s.instruments[p][name]
	s.instMu.RUnlock()
	if ok {
		return m
	}

	s.instMu.Lock()
	defer s.instMu.Unlock()
	byName, ok := s.instruments[p]
	if !ok {
		byName = map[string]Metrics{}
		s.instruments[p] = byName
	}
	if m, ok = byName[name]; ok {
		return m
	}
	m = mk()
	byName[name] = m
	return m
}

// Counter gets or creates the counter called name.
func (s *Set) Counter(name, group string) Counter {
	return s.instrument(Policy_Sum, name, func() Metrics {
		return &counter{name: name, group: group, set: s}
	}).(Counter)
}

// Gauge gets or creates the last-value gauge called name.
func (s *Set) Gauge(name, group string) Gauge {
	return s.gauge(Policy_Set, name, group)
}

// AvgGauge gets or creates the gauge exporting the window average.
func (s *Set) AvgGauge(name, group string) Gauge {
	return s.gauge(Policy_Avg, name, group)
}

// MaxGauge gets or creates the gauge exporting the window maximum.
func (s *Set) MaxGauge(name, group string) Gauge {
	return s.gauge(Policy_Max, name, group)
}

// MinGauge gets or creates the gauge exporting the window minimum.
func (s *Set) MinGauge(name, group string) Gauge {
	return s.gauge(Policy_Min, name, group)
}

func (s *Set) gauge(p Policy, name, group string) Gauge {
	return s.instrument(p, name, func() Metrics {
		return &gauge{name: name, group: group, policy: p, set: s}
	}).(Gauge)
}

// StopWatch gets or creates the stopwatch called name.
func (s *Set) StopWatch(name, group string) StopWatch {
	return s.instrument(Policy_Stopwatch, name, func() Metrics {
		return &stopwatch{name: name, group: group, set: s}
	}).(StopWatch)
}
