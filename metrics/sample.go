package metrics

import (
	"fmt"
	"math"
	"sort"
)

// Sample is one observed metric value. It is immutable: fields are only set by
// the constructors and Tags returns a copy.
type Sample struct {
	name  string
	kind  Kind
	tags  map[string]string
	value float64
}

// NewCounterSample creates a counter sample adding delta to the counter called name.
func NewCounterSample(name string, tags map[string]string, delta float64) (Sample, error) {
	if name == "" {
		return Sample{}, ErrEmptyName
	}
	if delta < 0 || math.IsNaN(delta) || math.IsInf(delta, 0) {
		return Sample{}, fmt.Errorf("%w: %s=%v", ErrNegativeDelta, name, delta)
	}
	return NewSample(KindCounter, name, tags, delta), nil
}

// NewGaugeSample creates a gauge sample setting the gauge called name to value.
func NewGaugeSample(name string, tags map[string]string, value float64) (Sample, error) {
	if name == "" {
		return Sample{}, ErrEmptyName
	}
	return NewSample(KindGauge, name, tags, value), nil
}

// NewSample builds a sample without validating it. Collectors producing kinds
// a reporter may not understand use it; such samples are dropped at dispatch.
func NewSample(kind Kind, name string, tags map[string]string, value float64) Sample {
	return Sample{
		name:  name,
		kind:  kind,
		tags:  copyTags(tags),
		value: value,
	}
}

// Name returns the aggregation key of the sample.
func (s Sample) Name() string { return s.name }

// Kind returns the sample kind.
func (s Sample) Kind() Kind { return s.kind }

// Value returns the delta (counter) or the reading (gauge).
func (s Sample) Value() float64 { return s.value }

// Tags returns a copy of the sample's labels. It never returns nil.
func (s Sample) Tags() map[string]string {
	cp := make(map[string]string, len(s.tags))
	for k, v := range s.tags {
		cp[k] = v
	}
	return cp
}

// String renders the sample for logs.
func (s Sample) String() string {
	return fmt.Sprintf("%s %s%v=%v", s.kind, s.name, s.tags, s.value)
}

// LabelPairs converts the sample's tags into two parallel slices: names[i] is
// the label whose value is values[i]. Names are sorted so that the same tag set
// always yields the same order. Empty tags yield two empty, non-nil slices.
func LabelPairs(s Sample) (names []string, values []string) {
	names = make([]string, 0, len(s.tags))
	for k := range s.tags {
		names = append(names, k)
	}
	sort.Strings(names)
	values = make([]string, len(names))
	for i, k := range names {
		values[i] = s.tags[k]
	}
	return names, values
}

func copyTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	cp := make(map[string]string, len(tags))
	for k, v := range tags {
		cp[k] = v
	}
	return cp
}
