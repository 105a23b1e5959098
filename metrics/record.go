package metrics

import (
	"fmt"
	"sort"
	"strings"
)

// Record is one pending measurement of an instrument: the instrument, the
// accumulated value, the number of observations (for averages) and the
// dimensions it was reported with.
type Record struct {
	metrics    Metrics
	value      Value
	cnt        int
	dimensions Dimension
}

// Clone creates a deep copy of the Record.
func (r *Record) Clone() *Record {
	cp := &Record{
		metrics: r.metrics,
		value:   r.value,
		cnt:     r.cnt,
	}
	cp.dimensions = make(Dimension, len(r.dimensions))
	for k, v := range r.dimensions {
		cp.dimensions[k] = v
	}
	return cp
}

// Metrics returns the instrument the record belongs to.
func (r *Record) Metrics() Metrics {
	return r.metrics
}

// Value returns the value resolved by the instrument's policy: the average for
// Policy_Avg and Policy_Stopwatch, the raw value otherwise.
func (r *Record) Value() Value {
	switch r.metrics.Policy() {
	case Policy_Avg, Policy_Stopwatch:
		if r.cnt != 0 {
			return r.value / Value(r.cnt)
		}
	}
	return r.value
}

// RawData returns the accumulated value and observation count.
func (r *Record) RawData() (Value, int) {
	return r.value, r.cnt
}

// Dimensions returns the record's labels.
func (r *Record) Dimensions() Dimension {
	return r.dimensions
}

// Key identifies the series the record belongs to: group, name and the
// sorted dimensions.
func (r *Record) Key() string {
	var sb strings.Builder
	sb.Grow(64)
	sb.WriteString(r.metrics.Group())
	sb.WriteString("*")
	sb.WriteString(r.metrics.Name())
	sb.WriteString("*")
	keys := make([]string, 0, len(r.dimensions))
	for k := range r.dimensions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteString(":")
		sb.WriteString(r.dimensions[k])
		sb.WriteString(",")
	}
	return sb.String()
}

// SampleName is the name the record is exported under: "group_name", or just
// the name when the group is empty.
func (r *Record) SampleName() string {
	if g := r.metrics.Group(); g != "" {
		return g + "_" + r.metrics.Name()
	}
	return r.metrics.Name()
}

// Merge folds other into r according to the instrument's policy. Both records
// must describe the same series.
func (r *Record) Merge(other Record) error {
	if r.metrics.Name() != other.metrics.Name() {
		return fmt.Errorf("metrics name(%s,%s) not equal", r.metrics.Name(), other.metrics.Name())
	}
	if r.metrics.Group() != other.metrics.Group() {
		return fmt.Errorf("metrics group(%s,%s) not equal", r.metrics.Group(), other.metrics.Group())
	}
	if r.metrics.Policy() != other.metrics.Policy() {
		return fmt.Errorf("metrics policy(%v,%v) not equal", r.metrics.Policy(), other.metrics.Policy())
	}
	if len(r.dimensions) != len(other.dimensions) {
		return fmt.Errorf("metrics dimensions(%d,%d) not equal", len(r.dimensions), len(other.dimensions))
	}
	for k, v := range r.dimensions {
		v2, exist := other.dimensions[k]
		if !exist {
			return fmt.Errorf("metrics dimensions(%s) not exist", k)
		}
		if v != v2 {
			return fmt.Errorf("metrics dimensions(%s,%s) not equal", v, v2)
		}
	}

	switch r.metrics.Policy() {
	case Policy_Set:
		r.value = other.value
	case Policy_Sum:
		r.value += other.value
	case Policy_Max:
		if other.value > r.value {
			r.value = other.value
		}
	case Policy_Min:
		if other.value < r.value {
			r.value = other.value
		}
	case Policy_Stopwatch, Policy_Avg:
		r.value += other.value
		r.cnt += other.cnt
	default:
		return fmt.Errorf("metrics(%s) policy(%v) cannot be merged", r.metrics.Name(), r.metrics.Policy())
	}
	return nil
}

// toSample converts the record into the sample the Set exports.
func (r *Record) toSample() (Sample, error) {
	if r.metrics.Policy() == Policy_Sum {
		return NewCounterSample(r.SampleName(), r.dimensions, float64(r.value))
	}
	return NewGaugeSample(r.SampleName(), r.dimensions, float64(r.Value()))
}
