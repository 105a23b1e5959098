package metrics

import (
	"testing"
	"time"
)

func exportByName(s *Set) map[string]Sample {
	out := map[string]Sample{}
	for _, sample := range s.Export() {
		out[sample.Name()] = sample
	}
	return out
}

func TestSetExport(t *testing.T) {
	s := NewSet()
	if s.HasUpdates() {
		t.Fatal("Expected a new set to have no updates")
	}

	s.Counter("requests", "http").Incr(2)
	s.Counter("requests", "http").Incr(3)
	s.Gauge("depth", "queue").Update(7)
	s.Gauge("depth", "queue").Update(4)
	s.MaxGauge("peak", "queue").Update(1)
	s.MaxGauge("peak", "queue").Update(8)
	s.MinGauge("low", "queue").Update(5)
	s.MinGauge("low", "queue").Update(2)
	s.AvgGauge("load", "cpu").Update(1)
	s.AvgGauge("load", "cpu").Update(3)

	if !s.HasUpdates() {
		t.Fatal("Expected updates after recording")
	}

	got := exportByName(s)
	if s.HasUpdates() {
		t.Error("Expected Export to clear the updated flag")
	}

	want := map[string]struct {
		kind  Kind
		value float64
	}{
		"http_requests": {KindCounter, 5},
		"queue_depth":   {KindGauge, 4},
		"queue_peak":    {KindGauge, 8},
		"queue_low":     {KindGauge, 2},
		"cpu_load":      {KindGauge, 2},
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d samples, got %d", len(want), len(got))
	}
	for name, w := range want {
		sample, ok := got[name]
		if !ok {
			t.Errorf("Missing sample %s", name)
			continue
		}
		if sample.Kind() != w.kind || sample.Value() != w.value {
			t.Errorf("Expected %s %v=%v, got %v", w.kind, name, w.value, sample)
		}
	}

	if samples := s.Export(); len(samples) != 0 {
		t.Errorf("Expected an empty window after export, got %v", samples)
	}
}

func TestSetCounterWindows(t *testing.T) {
	s := NewSet()
	c := s.Counter("events", "")
	c.Incr(4)
	first := exportByName(s)
	c.Incr(1)
	second := exportByName(s)

	if first["events"].Value() != 4 || second["events"].Value() != 1 {
		t.Errorf("Expected per-window deltas 4 and 1, got %v and %v", first["events"], second["events"])
	}
}

func TestSetDimensions(t *testing.T) {
	s := NewSet()
	c := s.Counter("hits", "cache")
	c.IncrWithDim(1, Dimension{"result": "hit"})
	c.IncrWithDim(1, Dimension{"result": "hit"})
	c.IncrWithDim(1, Dimension{"result": "miss"})

	samples := s.Export()
	if len(samples) != 2 {
		t.Fatalf("Expected 2 series, got %d", len(samples))
	}
	if samples[0].Tags()["result"] != "hit" || samples[0].Value() != 2 {
		t.Errorf("Unexpected hit series %v", samples[0])
	}
	if samples[1].Tags()["result"] != "miss" || samples[1].Value() != 1 {
		t.Errorf("Unexpected miss series %v", samples[1])
	}
}

func TestSetDropsNegativeCounterWindow(t *testing.T) {
	s := NewSet()
	s.Counter("bad", "").Incr(-1)
	s.Gauge("ok", "").Update(1)

	samples := s.Export()
	if len(samples) != 1 || samples[0].Name() != "ok" {
		t.Errorf("Expected only the gauge sample, got %v", samples)
	}
}

func TestSetInstrumentCache(t *testing.T) {
	s := NewSet()
	if s.Counter("x", "a") != s.Counter("x", "b") {
		t.Error("Expected the same counter for the same name")
	}
	if Metrics(s.Gauge("x", "a")) == Metrics(s.Counter("x", "a")) {
		t.Error("Expected different instruments per policy")
	}
}

func TestStopWatch(t *testing.T) {
	s := NewSet()
	sw := s.StopWatch("latency", "db")
	sw.RecordDuration(10*time.Millisecond, nil)
	sw.RecordDuration(30*time.Millisecond, nil)
	if d := sw.RecordWithDim(Dimension{"op": "get"}, time.Now().Add(-time.Millisecond)); d < time.Millisecond {
		t.Errorf("Expected at least 1ms, got %v", d)
	}

	samples := s.Export()
	if len(samples) != 2 {
		t.Fatalf("Expected 2 series, got %d", len(samples))
	}
	if samples[0].Name() != "db_latency" || samples[0].Value() != 20 {
		t.Errorf("Expected average of 20ms, got %v", samples[0])
	}
	if samples[0].Kind() != KindGauge {
		t.Errorf("Expected a gauge, got %v", samples[0].Kind())
	}
}

func TestDefaultSetHelpers(t *testing.T) {
	IncrCounterWithGroup("helper_calls", "test", 2)
	IncrCounterWithDimGroup("helper_calls", "test", 1, Dimension{"k": "v"})
	UpdateGaugeWithGroup("helper_gauge", "test", 3)
	UpdateMaxGaugeWithGroup("helper_max", "test", 3)
	RecordStopwatchWithGroup("helper_sw", "test", time.Now())

	got := exportByName(DefaultSet())
	for _, name := range []string{"test_helper_calls", "test_helper_gauge", "test_helper_max", "test_helper_sw"} {
		if _, ok := got[name]; !ok {
			t.Errorf("Expected sample %s from the default set", name)
		}
	}
}

func TestRuntimeCollector(t *testing.T) {
	rc := NewRuntimeCollector(map[string]string{"svc": "test"})
	if !rc.HasUpdates() {
		t.Fatal("Expected runtime collector to always have updates")
	}
	got := map[string]Sample{}
	for _, s := range rc.Export() {
		got[s.Name()] = s
	}
	g, ok := got["go_goroutines_current"]
	if !ok || g.Value() < 1 || g.Kind() != KindGauge {
		t.Errorf("Unexpected goroutine sample %v", g)
	}
	if g.Tags()["svc"] != "test" {
		t.Errorf("Expected collector tags on samples, got %v", g.Tags())
	}
	if c, ok := got["go_gc_cycles_total"]; !ok || c.Kind() != KindCounter {
		t.Errorf("Unexpected gc sample %v", c)
	}
}
