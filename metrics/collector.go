package metrics

import "sync"

// Collector produces samples on demand.
//
// HasUpdates must be cheap and free of side effects; the scheduler only calls
// Export when it returns true. Export returns the samples accumulated since the
// previous Export and clears the updated flag.
type Collector interface {
	HasUpdates() bool
	Export() []Sample
}

// CollectorProvider hands the ordered collector list to a reporter at init.
type CollectorProvider interface {
	Collectors() []Collector
}

// CollectorRegistry is the ordered list of collectors built at startup.
// The first call to Collectors seals it; later registrations fail.
type CollectorRegistry struct {
	mu         sync.Mutex
	collectors []Collector
	sealed     bool
}

// NewCollectorRegistry creates a registry holding cs in order.
func NewCollectorRegistry(cs ...Collector) *CollectorRegistry {
	r := &CollectorRegistry{}
	for _, c := range cs {
		if c != nil {
			r.collectors = append(r.collectors, c)
		}
	}
	return r
}

// Register appends c. It fails with ErrRegistrySealed once the registry has been read.
func (r *CollectorRegistry) Register(c Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return ErrRegistrySealed
	}
	if c != nil {
		r.collectors = append(r.collectors, c)
	}
	return nil
}

// Seal freezes the registry.
func (r *CollectorRegistry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Collectors seals the registry and returns a copy of the collectors in registration order.
func (r *CollectorRegistry) Collectors() []Collector {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
	return append([]Collector(nil), r.collectors...)
}

// Len returns the number of registered collectors.
func (r *CollectorRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.collectors)
}

// CollectorList is a CollectorProvider over a fixed slice, handy for tests and
// for wiring that does not need a registry.
type CollectorList []Collector

// Collectors returns a copy of the list.
func (l CollectorList) Collectors() []Collector {
	return append([]Collector(nil), l...)
}
