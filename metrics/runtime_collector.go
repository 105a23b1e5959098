package metrics

import (
	"runtime"
	"sync"
)

// RuntimeCollector exports Go runtime statistics of the current process.
// It always has updates; every export reads fresh values.
type RuntimeCollector struct {
	mu        sync.Mutex
	lastNumGC uint32
	tags      map[string]string
}

// NewRuntimeCollector creates a collector attaching tags to every sample.
func NewRuntimeCollector(tags map[string]string) *RuntimeCollector {
	return &RuntimeCollector{tags: copyTags(tags)}
}

// HasUpdates always returns true.
func (c *RuntimeCollector) HasUpdates() bool {
	return true
}

// Export reads the runtime and returns goroutine and heap gauges plus the
// number of GC cycles completed since the previous export.
func (c *RuntimeCollector) Export() []Sample {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	c.mu.Lock()
	gcDelta := ms.NumGC - c.lastNumGC
	c.lastNumGC = ms.NumGC
	c.mu.Unlock()

	return []Sample{
		NewSample(KindGauge, "go_goroutines_current", c.tags, float64(runtime.NumGoroutine())),
		NewSample(KindGauge, "go_heap_alloc_bytes", c.tags, float64(ms.HeapAlloc)),
		NewSample(KindGauge, "go_heap_objects", c.tags, float64(ms.HeapObjects)),
		NewSample(KindCounter, "go_gc_cycles_total", c.tags, float64(gcDelta)),
	}
}
