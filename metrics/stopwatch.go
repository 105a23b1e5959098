package metrics

import (
	"time"
)

// StopWatch measures durations. A window exports the average duration in
// milliseconds.
type StopWatch interface {
	Metrics
	// RecordWithDim records the time elapsed since startTime with specified dimensions.
	RecordWithDim(dimensions Dimension, startTime time.Time) time.Duration
	// RecordDuration records d with specified dimensions.
	RecordDuration(d time.Duration, dimensions Dimension)
}

type stopwatch struct {
	name  string
	group string
	set   *Set
}

// Name returns the stopwatch name.
func (s *stopwatch) Name() string {
	return s.name
}

// Group returns the stopwatch group.
func (s *stopwatch) Group() string {
	return s.group
}

// Policy returns Policy_Stopwatch.
func (s *stopwatch) Policy() Policy {
	return Policy_Stopwatch
}

// RecordWithDim records the duration since startTime and returns it.
func (s *stopwatch) RecordWithDim(dimensions Dimension, startTime time.Time) time.Duration {
	duration := time.Since(startTime)
	s.RecordDuration(duration, dimensions)
	return duration
}

// RecordDuration records d in milliseconds with microsecond precision.
func (s *stopwatch) RecordDuration(d time.Duration, dimensions Dimension) {
	s.set.report(Record{
		metrics:    s,
		value:      Value(float64(d.Microseconds()) / 1000),
		cnt:        1,
		dimensions: dimensions,
	})
}
