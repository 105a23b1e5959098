package metrics

import (
	"testing"
)

func TestRecord(t *testing.T) {
	set := NewSet()
	c := set.Counter("requests", "http")
	dimensions := Dimension{"key1": "value1", "key2": "value2"}

	record := Record{
		metrics:    c,
		value:      42.5,
		cnt:        3,
		dimensions: dimensions,
	}

	t.Run("Clone", func(t *testing.T) {
		clone := record.Clone()
		if clone.metrics != record.metrics {
			t.Error("Expected cloned record to reference the same metrics")
		}
		if clone.value != record.value || clone.cnt != record.cnt {
			t.Errorf("Expected cloned data %v/%d, got %v/%d", record.value, record.cnt, clone.value, clone.cnt)
		}
		clone.dimensions["key1"] = "modified"
		if record.dimensions["key1"] != "value1" {
			t.Error("Modifying cloned dimensions should not affect original record")
		}
	})

	t.Run("Key", func(t *testing.T) {
		other := Record{metrics: c, dimensions: Dimension{"key2": "value2", "key1": "value1"}}
		if record.Key() != other.Key() {
			t.Errorf("Expected equal keys, got %q and %q", record.Key(), other.Key())
		}
		if want := "http*requests*key1:value1,key2:value2,"; record.Key() != want {
			t.Errorf("Expected key %q, got %q", want, record.Key())
		}
	})

	t.Run("SampleName", func(t *testing.T) {
		if record.SampleName() != "http_requests" {
			t.Errorf("Expected http_requests, got %s", record.SampleName())
		}
		bare := Record{metrics: set.Gauge("depth", "")}
		if bare.SampleName() != "depth" {
			t.Errorf("Expected depth, got %s", bare.SampleName())
		}
	})
}

func TestRecordMerge(t *testing.T) {
	set := NewSet()
	tests := []struct {
		name   string
		m      Metrics
		values []Value
		want   Value
	}{
		{"Set", set.Gauge("g", "t"), []Value{3, 9, 4}, 4},
		{"Sum", set.Counter("c", "t"), []Value{3, 9, 4}, 16},
		{"Max", set.MaxGauge("max", "t"), []Value{3, 9, 4}, 9},
		{"Min", set.MinGauge("min", "t"), []Value{3, 9, 4}, 3},
		{"Avg", set.AvgGauge("avg", "t"), []Value{3, 9, 3}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Record{metrics: tt.m, value: tt.values[0], cnt: 1}
			for _, v := range tt.values[1:] {
				if err := r.Merge(Record{metrics: tt.m, value: v, cnt: 1}); err != nil {
					t.Fatalf("Merge failed: %v", err)
				}
			}
			if r.Value() != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, r.Value())
			}
		})
	}
}

func TestRecordMergeErrors(t *testing.T) {
	set := NewSet()
	a := &Record{metrics: set.Counter("a", "g"), dimensions: Dimension{"k": "1"}}

	if err := a.Merge(Record{metrics: set.Counter("b", "g"), dimensions: Dimension{"k": "1"}}); err == nil {
		t.Error("Expected error merging different names")
	}
	if err := a.Merge(Record{metrics: set.Gauge("a", "g"), dimensions: Dimension{"k": "1"}}); err == nil {
		t.Error("Expected error merging different policies")
	}
	if err := a.Merge(Record{metrics: set.Counter("a", "g"), dimensions: Dimension{"k": "2"}}); err == nil {
		t.Error("Expected error merging different dimensions")
	}
	if err := a.Merge(Record{metrics: set.Counter("a", "g")}); err == nil {
		t.Error("Expected error merging different dimension counts")
	}
}
