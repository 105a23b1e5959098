package metrics

// Gauge is an instrument for values that go up and down, such as queue depth
// or open connections. How several updates within one window combine depends
// on the gauge's policy.
type Gauge interface {
	Metrics
	// Update records a reading.
	Update(value Value)
	// UpdateWithDim records a reading with specified dimensions.
	UpdateWithDim(value Value, dimensions Dimension)
}

// gauge is shared by the last-value, average, max and min gauges; only the
// merge policy differs.
type gauge struct {
	name   string
	group  string
	policy Policy
	set    *Set
}

func (g *gauge) Name() string   { return g.name }
func (g *gauge) Group() string  { return g.group }
func (g *gauge) Policy() Policy { return g.policy }

// Update records v without dimensions.
func (g *gauge) Update(v Value) {
	g.UpdateWithDim(v, nil)
}

// UpdateWithDim records v with specified dimensions. Every reading counts
// once toward the window average.
func (g *gauge) UpdateWithDim(v Value, dimensions Dimension) {
	g.set.report(Record{
		metrics:    g,
		value:      v,
		cnt:        1,
		dimensions: dimensions,
	})
}
