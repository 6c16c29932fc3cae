// Package stats holds the process-local usage counters. Values reset on restart.
package stats

import "sync/atomic"

type Counters struct {
	checks atomic.Int64
	views  atomic.Int64
}

func New() *Counters {
	return &Counters{}
}

// IncrementChecks counts a completed readiness evaluation.
func (c *Counters) IncrementChecks() int64 {
	return c.checks.Add(1)
}

// IncrementViews counts a view of the readiness landing page.
func (c *Counters) IncrementViews() int64 {
	return c.views.Add(1)
}

func (c *Counters) Checks() int64 { return c.checks.Load() }

func (c *Counters) Views() int64 { return c.views.Load() }
