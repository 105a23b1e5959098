package metrics

import (
	"errors"
	"math"
	"testing"
)

func TestNewCounterSample(t *testing.T) {
	s, err := NewCounterSample("requests", map[string]string{"code": "200"}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Kind() != KindCounter {
		t.Errorf("Expected kind counter, got %v", s.Kind())
	}
	if s.Name() != "requests" || s.Value() != 3 {
		t.Errorf("Unexpected sample %v", s)
	}

	if _, err := NewCounterSample("", nil, 1); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Expected ErrEmptyName, got %v", err)
	}
	for _, bad := range []float64{-1, math.NaN(), math.Inf(1)} {
		if _, err := NewCounterSample("requests", nil, bad); !errors.Is(err, ErrNegativeDelta) {
			t.Errorf("Expected ErrNegativeDelta for %v, got %v", bad, err)
		}
	}
}

func TestNewGaugeSample(t *testing.T) {
	s, err := NewGaugeSample("temperature", nil, -12.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Kind() != KindGauge || s.Value() != -12.5 {
		t.Errorf("Unexpected sample %v", s)
	}
	if _, err := NewGaugeSample("", nil, 1); !errors.Is(err, ErrEmptyName) {
		t.Errorf("Expected ErrEmptyName, got %v", err)
	}
}

func TestSampleIsImmutable(t *testing.T) {
	tags := map[string]string{"host": "a"}
	s, _ := NewGaugeSample("load", tags, 1)

	tags["host"] = "b"
	if s.Tags()["host"] != "a" {
		t.Errorf("Sample tags changed through the constructor argument")
	}

	out := s.Tags()
	out["host"] = "c"
	if s.Tags()["host"] != "a" {
		t.Errorf("Sample tags changed through Tags()")
	}
}

func TestLabelPairs(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		s, _ := NewGaugeSample("q_depth", nil, 42)
		names, values := LabelPairs(s)
		if names == nil || values == nil {
			t.Fatalf("Expected non-nil slices, got %v %v", names, values)
		}
		if len(names) != 0 || len(values) != 0 {
			t.Errorf("Expected empty slices, got %v %v", names, values)
		}
	})

	t.Run("Paired", func(t *testing.T) {
		s, _ := NewGaugeSample("q_depth", map[string]string{"b": "2", "a": "1"}, 42)
		names, values := LabelPairs(s)
		if len(names) != 2 || len(values) != 2 {
			t.Fatalf("Expected two labels, got %v %v", names, values)
		}
		tags := s.Tags()
		for i := range names {
			if tags[names[i]] != values[i] {
				t.Errorf("Label %s paired with %s, want %s", names[i], values[i], tags[names[i]])
			}
		}
		if names[0] != "a" || names[1] != "b" {
			t.Errorf("Expected sorted names, got %v", names)
		}
	})
}

func TestKindString(t *testing.T) {
	if KindCounter.String() != "counter" || KindGauge.String() != "gauge" || Kind(99).String() != "unknown" {
		t.Error("unexpected kind names")
	}
}
