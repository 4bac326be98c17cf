// Package collector records the operations a cycle applied so custom error
// handlers can inspect the partial work when the unit of work fails.
package collector

import (
	"fmt"

	eventstate "github.com/goliatone/go-eventstate"
)

// Key is the cycle state key the collector lifecycle registers under.
var Key = eventstate.NewKey[*Collector]("collector.applied")

// Applied describes one operation that was already applied to the
// datastore during the cycle.
type Applied struct {
	Kind     string
	Entity   string
	Key      string
	Metadata map[string]any
}

// Collector accumulates applied operations in application order for one
// cycle. Like all cycle state it is confined to its unit of work.
type Collector struct {
	applied []Applied
}

// Record appends op to the applied record.
func (c *Collector) Record(op Applied) {
	if c == nil {
		return
	}
	c.applied = append(c.applied, op)
}

// Len returns the number of recorded operations.
func (c *Collector) Len() int {
	if c == nil {
		return 0
	}
	return len(c.applied)
}

// Applied returns a copy of the recorded operations in application order.
func (c *Collector) Applied() []Applied {
	if c == nil || len(c.applied) == 0 {
		return nil
	}
	out := make([]Applied, len(c.applied))
	copy(out, c.applied)
	return out
}

// Reporter consumes the applied-operation record when the cycle finishes.
// Hosts typically hand the record to their configured error handler.
type Reporter interface {
	Report(session eventstate.Session, applied []Applied) error
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(session eventstate.Session, applied []Applied) error

// Report implements Reporter.
func (fn ReporterFunc) Report(session eventstate.Session, applied []Applied) error {
	if fn == nil {
		return nil
	}
	return fn(session, applied)
}

// NewLifecycle returns the collector lifecycle for Key: a fresh collector
// per cycle, reported through reporter when the cycle finishes. An empty
// record finishes without touching the reporter.
func NewLifecycle(reporter Reporter) eventstate.Lifecycle[*Collector] {
	return eventstate.LifecycleFuncs[*Collector]{
		OnCreate: func(_ eventstate.Session) (*Collector, error) {
			return &Collector{}, nil
		},
		OnFinish: func(c *Collector, session eventstate.Session) error {
			applied := c.Applied()
			if len(applied) == 0 || reporter == nil {
				return nil
			}
			if err := reporter.Report(session, applied); err != nil {
				return fmt.Errorf("collector: report %d applied operations: %w", len(applied), err)
			}
			return nil
		},
	}
}
