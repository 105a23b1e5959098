package metrics

import (
	"time"
)

var _defaultSet = NewSet()

// DefaultSet returns the process-wide instrument set the package-level helpers
// write into. Register it with the collector registry to export it.
func DefaultSet() *Set {
	return _defaultSet
}

// IncrCounterWithGroup increases a counter with specified group and value.
func IncrCounterWithGroup(key string, group string, value Value) {
	_defaultSet.Counter(key, group).Incr(value)
}

// IncrCounterWithDimGroup increases a counter with specified group, value and dimensions.
func IncrCounterWithDimGroup(key string, group string, value Value, dimensions Dimension) {
	_defaultSet.Counter(key, group).IncrWithDim(value, dimensions)
}

// UpdateGaugeWithGroup sets a gauge with specified group.
func UpdateGaugeWithGroup(key string, group string, value Value) {
	_defaultSet.Gauge(key, group).Update(value)
}

// UpdateGaugeWithDimGroup sets a gauge with specified group and dimensions.
func UpdateGaugeWithDimGroup(key string, group string, value Value, dimensions Dimension) {
	_defaultSet.Gauge(key, group).UpdateWithDim(value, dimensions)
}

// UpdateAvgGaugeWithGroup records a reading of an average gauge.
func UpdateAvgGaugeWithGroup(key string, group string, value Value) {
	_defaultSet.AvgGauge(key, group).Update(value)
}

// UpdateAvgGaugeWithDimGroup records a reading of an average gauge with dimensions.
func UpdateAvgGaugeWithDimGroup(key string, group string, value Value, dimensions Dimension) {
	_defaultSet.AvgGauge(key, group).UpdateWithDim(value, dimensions)
}

// UpdateMaxGaugeWithGroup records a reading of a max gauge.
func UpdateMaxGaugeWithGroup(key string, group string, value Value) {
	_defaultSet.MaxGauge(key, group).Update(value)
}

// UpdateMaxGaugeWithDimGroup records a reading of a max gauge with dimensions.
func UpdateMaxGaugeWithDimGroup(key string, group string, value Value, dimensions Dimension) {
	_defaultSet.MaxGauge(key, group).UpdateWithDim(value, dimensions)
}

// UpdateMinGaugeWithGroup records a reading of a min gauge.
func UpdateMinGaugeWithGroup(key string, group string, value Value) {
	_defaultSet.MinGauge(key, group).Update(value)
}

// UpdateMinGaugeWithDimGroup records a reading of a min gauge with dimensions.
func UpdateMinGaugeWithDimGroup(key string, group string, value Value, dimensions Dimension) {
	_defaultSet.MinGauge(key, group).UpdateWithDim(value, dimensions)
}

// RecordStopwatch records the time elapsed since startTime under key, without a group.
func RecordStopwatch(key string, startTime time.Time) time.Duration {
	return _defaultSet.StopWatch(key, "").RecordWithDim(nil, startTime)
}

// RecordStopwatchWithGroup records the time elapsed since startTime with specified group.
func RecordStopwatchWithGroup(key string, group string, startTime time.Time) time.Duration {
	return _defaultSet.StopWatch(key, group).RecordWithDim(nil, startTime)
}

// RecordStopwatchWithDimGroup records the time elapsed since startTime with specified group and dimensions.
func RecordStopwatchWithDimGroup(key string, group string, startTime time.Time, dimensions Dimension) time.Duration {
	return _defaultSet.StopWatch(key, group).RecordWithDim(dimensions, startTime)
}
