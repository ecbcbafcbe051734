// Package progress renders a live status line on stderr during a run.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"pulsecam/internal/core"
)

// Counter reports how many primaries have finished so far.
type Counter interface {
	Count() int
}

// Progress periodically rewrites a one-line status on its output.
type Progress struct {
	counter   Counter
	total     int
	clock     core.Clock
	startTime time.Time
	ticker    *time.Ticker
	stopCh    chan struct{}
	stopped   atomic.Bool
	quiet     bool
	output    io.Writer
	mu        sync.Mutex
}

// New creates a Progress over the given counter. total is the expected
// primary count, used for the percentage display.
func New(counter Counter, total int, quiet bool) *Progress {
	return &Progress{
		counter: counter,
		total:   total,
		clock:   core.RealClock{},
		quiet:   quiet,
		output:  os.Stderr,
	}
}

// SetOutput redirects the status line (used by tests).
func (p *Progress) SetOutput(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.output = w
}

// Start begins the periodic display. No-op when quiet.
func (p *Progress) Start() {
	if p.quiet {
		return
	}
	p.startTime = p.clock.Now()
	p.stopCh = make(chan struct{})
	p.ticker = time.NewTicker(1 * time.Second)
	go p.run()
}

func (p *Progress) run() {
	for {
		select {
		case <-p.stopCh:
			return
		case <-p.ticker.C:
			p.printLine()
		}
	}
}

func (p *Progress) printLine() {
	done := p.counter.Count()
	elapsed := p.clock.Since(p.startTime).Round(time.Second)
	rate := 0.0
	if secs := elapsed.Seconds(); secs > 0 {
		rate = float64(done) / secs
	}
	pct := 0.0
	if p.total > 0 {
		pct = float64(done) / float64(p.total) * 100
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, "\033[K[%v] Primaries: %d/%d (%.1f%%) | %.0f/sec\r",
		elapsed, done, p.total, pct, rate)
	p.mu.Unlock()
}

// Stop halts the display and clears the line. Idempotent.
func (p *Progress) Stop() {
	if p.quiet || p.stopped.Swap(true) {
		return
	}
	if p.ticker != nil {
		p.ticker.Stop()
	}
	if p.stopCh != nil {
		close(p.stopCh)
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, "\033[K")
	p.mu.Unlock()
}

// Printf prints a full line above the status line. No-op when quiet.
func (p *Progress) Printf(format string, args ...interface{}) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, "\033[K"+format+"\n", args...)
	p.mu.Unlock()
}
