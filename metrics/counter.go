package metrics

// Counter accumulates deltas between exports. Each export carries the sum of
// the deltas recorded since the previous one.
type Counter interface {
	Metrics
	// IncrWithDim increments the counter by delta with specified dimensions.
	IncrWithDim(delta Value, dimensions Dimension)
	// Incr increments the counter by delta without dimensions.
	Incr(delta Value)
}

// counter implements Counter with a sum aggregation policy.
type counter struct {
	name  string
	group string
	set   *Set
}

// Name returns the metric name.
func (c *counter) Name() string {
	return c.name
}

// Group returns the metric group.
func (c *counter) Group() string {
	return c.group
}

// Policy returns Policy_Sum.
func (c *counter) Policy() Policy {
	return Policy_Sum
}

// Incr increments the counter value by v without dimensions.
func (c *counter) Incr(v Value) {
	c.IncrWithDim(v, nil)
}

// IncrWithDim increments the counter value by v with specified dimensions.
// A window whose sum ends up negative is dropped at export.
func (c *counter) IncrWithDim(v Value, dimensions Dimension) {
	c.set.report(Record{
		metrics:    c,
		value:      v,
		dimensions: dimensions,
	})
}
