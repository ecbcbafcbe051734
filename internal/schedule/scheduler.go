// Package schedule walks a pulse structure and assigns each primary
// particle its pulse and emission time.
package schedule

import (
	"fmt"
	"math/rand"

	"pulsecam/internal/core"
	"pulsecam/internal/pulse"
)

// Scheduler yields one ScheduledPrimary per call to Next, in pulse
// order. A Scheduler is NOT safe for concurrent use; the transport
// driver must call it from a single goroutine, exactly once before
// sampling each primary's kinematics.
type Scheduler struct {
	structure *pulse.Structure
	jitterNs  float64
	rng       *rand.Rand

	pulseIdx  int
	seq       int // next sequence number within the current pulse
	exhausted bool
}

// New creates a Scheduler over the given pulse structure. jitterNs > 0
// spreads emission times uniformly over [start, start+jitterNs) using
// the run's random engine; with jitterNs == 0 emission time equals the
// pulse start exactly and rng may be nil.
func New(s *pulse.Structure, jitterNs float64, rng *rand.Rand) *Scheduler {
	return &Scheduler{structure: s, jitterNs: jitterNs, rng: rng}
}

// Next returns the schedule slot for the next primary. When every
// neutron in the structure has been scheduled it returns
// core.ErrPulsesExhausted once; any call after that terminal signal is
// a contract violation and returns a core.ErrLogic.
func (s *Scheduler) Next() (core.ScheduledPrimary, error) {
	// Skip pulses that were allotted zero neutrons.
	for s.pulseIdx < s.structure.Pulses() && s.seq >= s.structure.Count[s.pulseIdx] {
		s.pulseIdx++
		s.seq = 0
	}

	if s.pulseIdx >= s.structure.Pulses() {
		if s.exhausted {
			return core.ScheduledPrimary{}, fmt.Errorf("%w: scheduler called after exhaustion was signaled", core.ErrLogic)
		}
		s.exhausted = true
		return core.ScheduledPrimary{}, core.ErrPulsesExhausted
	}

	emission := s.structure.StartNs[s.pulseIdx]
	if s.jitterNs > 0 && s.rng != nil {
		emission += s.rng.Float64() * s.jitterNs
	}

	p := core.ScheduledPrimary{
		PulseIndex: s.pulseIdx,
		SeqInPulse: s.seq,
		EmissionNs: emission,
	}
	s.seq++
	return p, nil
}

// Remaining returns how many primaries are still to be scheduled.
func (s *Scheduler) Remaining() int {
	total := 0
	for i := s.pulseIdx; i < s.structure.Pulses(); i++ {
		total += s.structure.Count[i]
	}
	if s.pulseIdx < s.structure.Pulses() {
		total -= s.seq
	}
	return total
}
