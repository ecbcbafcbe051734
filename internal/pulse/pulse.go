// Package pulse builds the pulse train for a run from the timing
// configuration. Construction is pure: no side effects, no dependency
// on the transport engine, so the structure is testable in isolation.
package pulse

import (
	"fmt"
	"math"

	"pulsecam/internal/config"
	"pulsecam/internal/core"
)

// Structure is the ordered pulse train for one run. StartNs is strictly
// increasing and spaced by the source period; Count sums exactly to the
// configured neutron total. Read-only after Build.
type Structure struct {
	StartNs []float64
	Count   []int
}

// Pulses returns the number of pulses in the train.
func (s *Structure) Pulses() int { return len(s.StartNs) }

// TotalNeutrons returns the sum of per-pulse counts.
func (s *Structure) TotalNeutrons() int {
	total := 0
	for _, c := range s.Count {
		total += c
	}
	return total
}

// PeriodNs returns the spacing between consecutive pulses, or 0 for a
// single-pulse train.
func (s *Structure) PeriodNs() float64 {
	if len(s.StartNs) < 2 {
		return 0
	}
	return s.StartNs[1] - s.StartNs[0]
}

// Build creates the pulse structure for the given timing parameters.
//
// The window [TMIN, TMAX] holds floor(window * frequency) pulses, at
// least one. Neutrons are distributed as evenly as possible; the integer
// remainder goes to the final pulse so reruns are reproducible. If the
// frequency is zero or only one pulse fits, the whole count lands in a
// single pulse starting at TMIN.
func Build(t config.Timing) (*Structure, error) {
	if t.TmaxNs <= t.TminNs {
		return nil, fmt.Errorf("%w: pulse window [%g, %g] ns is empty", core.ErrConfig, t.TminNs, t.TmaxNs)
	}
	if t.FluxPerCm2Sec < 0 {
		return nil, fmt.Errorf("%w: negative flux %g", core.ErrConfig, t.FluxPerCm2Sec)
	}
	if t.FrequencyHz < 0 {
		return nil, fmt.Errorf("%w: negative frequency %g Hz", core.ErrConfig, t.FrequencyHz)
	}
	if t.TotalNeutrons <= 0 {
		return nil, fmt.Errorf("%w: total_neutrons must be positive, got %d", core.ErrConfig, t.TotalNeutrons)
	}

	n := 0
	if t.FrequencyHz > 0 {
		// Window is in ns, frequency in Hz.
		n = int(math.Floor(t.Window() * 1e-9 * t.FrequencyHz))
	}
	if n < 1 {
		return &Structure{
			StartNs: []float64{t.TminNs},
			Count:   []int{t.TotalNeutrons},
		}, nil
	}

	periodNs := 1e9 / t.FrequencyHz
	s := &Structure{
		StartNs: make([]float64, n),
		Count:   make([]int, n),
	}
	base := t.TotalNeutrons / n
	for i := 0; i < n; i++ {
		s.StartNs[i] = t.TminNs + float64(i)*periodNs
		s.Count[i] = base
	}
	// Rounding remainder is absorbed by the final pulse.
	s.Count[n-1] += t.TotalNeutrons % n
	return s, nil
}
