// Package metrics implements the collection side of the pipeline: the sample
// model, collectors and their registry, the scheduler that polls them, and the
// reporters that turn samples into backend state.
package metrics

import "errors"

// Kind tags a Sample with how a backend must apply its value.
type Kind int

const (
	// KindCounter samples carry a non-negative delta that is added to a named counter.
	KindCounter Kind = iota + 1
	// KindGauge samples carry an absolute reading; the last one wins.
	KindGauge
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindGauge:
		return "gauge"
	default:
		return "unknown"
	}
}

// Policy defines how records of one instrument are merged between two exports.
type Policy int

const (
	Policy_None      Policy = iota // Policy_None has no aggregation and is rejected by Merge.
	Policy_Set                     // Policy_Set keeps the last reported value.
	Policy_Sum                     // Policy_Sum sums all reported values and exports a counter delta.
	Policy_Avg                     // Policy_Avg exports the average of all reported values.
	Policy_Max                     // Policy_Max exports the largest reported value.
	Policy_Min                     // Policy_Min exports the smallest reported value.
	Policy_Stopwatch               // Policy_Stopwatch exports the average duration in milliseconds.
)

// Value represents a metric value as a float64.
type Value float64

// Dimension is the set of key/value labels attached to a record.
type Dimension map[string]string

// Sentinel errors returned by the sample model, the registry and reporters.
var (
	ErrEmptyName          = errors.New("metrics: empty sample name")
	ErrNegativeDelta      = errors.New("metrics: counter delta must be non-negative and finite")
	ErrUnknownKind        = errors.New("metrics: unknown sample kind")
	ErrRegistrySealed     = errors.New("metrics: collector registry is sealed")
	ErrAlreadyInitialized = errors.New("metrics: reporter already initialized")
	ErrLabelMismatch      = errors.New("metrics: label names differ from the registered metric")
	ErrReservedLabel      = errors.New("metrics: label name is reserved by the push grouping key")
)

// Group related constants, prefixed with Group.
const (
	// GroupMetricsync is the group of the pipeline's own metrics.
	GroupMetricsync = "metricsync"
)

// Self-metric names exposed by reporters about their own scheduler and push job.
const (
	// NameSchedulerTicksTotal: number of collection ticks run.
	NameSchedulerTicksTotal = "scheduler_ticks_total"
	// NameSchedulerSamplesTotal: number of samples dispatched to the backend.
	NameSchedulerSamplesTotal = "scheduler_samples_total"
	// NameSchedulerRegisterFailuresTotal: samples whose registration failed or panicked.
	NameSchedulerRegisterFailuresTotal = "scheduler_register_failures_total"
	// NameSchedulerCollectorFailuresTotal: collectors that panicked during HasUpdates or Export.
	NameSchedulerCollectorFailuresTotal = "scheduler_collector_failures_total"
	// NameSchedulerUnknownKindsTotal: samples dropped for an unknown kind.
	NameSchedulerUnknownKindsTotal = "scheduler_unknown_kinds_total"
	// NameSchedulerTickPanicsTotal: panics recovered at the top of the tick body.
	NameSchedulerTickPanicsTotal = "scheduler_tick_panics_total"
	// NamePushFailuresTotal: failed push attempts.
	NamePushFailuresTotal = "push_failures_total"
	// NamePushTotal: push attempts.
	NamePushTotal = "push_total"
)
