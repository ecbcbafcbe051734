// Package report aggregates per-primary results and computes the run
// summary.
package report

import (
	"sync"

	"pulsecam/internal/core"
)

// Collector gathers PrimaryResults from one or more pipeline workers.
// Report is safe for concurrent use; everything else belongs to the
// coordinating goroutine after Close.
type Collector struct {
	results []core.PrimaryResult
	ch      chan core.PrimaryResult
	done    chan struct{}
	mu      sync.Mutex
}

// NewCollector creates a Collector and starts its drain goroutine.
func NewCollector() *Collector {
	c := &Collector{
		results: make([]core.PrimaryResult, 0),
		ch:      make(chan core.PrimaryResult, 1024),
		done:    make(chan struct{}),
	}
	go c.collect()
	return c
}

func (c *Collector) collect() {
	for r := range c.ch {
		c.mu.Lock()
		c.results = append(c.results, r)
		c.mu.Unlock()
	}
	close(c.done)
}

// Report sends one result to the collector. Blocks if the buffer is
// full: primary accounting must be exact, a dropped result would break
// the totals against the pulse structure.
func (c *Collector) Report(r core.PrimaryResult) {
	c.ch <- r
}

// Close stops accepting results and waits for the drain to finish.
func (c *Collector) Close() {
	close(c.ch)
	<-c.done
}

// Count returns how many results have been collected so far. Safe to
// call while the run is still in flight (the progress line polls it).
func (c *Collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}

// Results returns a copy of collected results.
func (c *Collector) Results() []core.PrimaryResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.PrimaryResult, len(c.results))
	copy(out, c.results)
	return out
}
