// Package metrics defines the minimal instrumentation surface the task queue
// records into, plus two implementations: an in-memory Basic provider for
// tests and lightweight apps, and a Noop provider used as the default.
package metrics

// Provider constructs instruments used to record queue metrics.
// Implementations must be safe for concurrent use and must return the same
// instrument for repeated requests with the same name.
type Provider interface {
	Counter(name string, opts ...InstrumentOption) Counter
	UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter
	Histogram(name string, opts ...InstrumentOption) Histogram
}

// Counter records monotonic counts, e.g. tasks submitted.
type Counter interface {
	Add(n int64)
}

// UpDownCounter records values that move both ways, e.g. tasks in flight.
type UpDownCounter interface {
	Add(n int64)
}

// Histogram records a distribution of float64 measurements, e.g. task
// durations in seconds.
type Histogram interface {
	Record(v float64)
}

// InstrumentConfig carries optional, advisory instrument metadata.
type InstrumentConfig struct {
	Description string
	Unit        string
}

// InstrumentOption mutates InstrumentConfig.
type InstrumentOption func(*InstrumentConfig)

// WithDescription sets an advisory description for the instrument.
func WithDescription(desc string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Description = desc }
}

// WithUnit sets an advisory unit for the instrument (e.g. "1", "seconds").
func WithUnit(unit string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Unit = unit }
}
