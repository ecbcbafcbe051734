package schedule

import (
	"errors"
	"testing"

	"pulsecam/internal/config"
	"pulsecam/internal/core"
	"pulsecam/internal/pulse"
)

func mustBuild(t *testing.T, tmin, tmax, freqHz float64, total int) *pulse.Structure {
	t.Helper()
	s, err := pulse.Build(config.Timing{
		TminNs:        tmin,
		TmaxNs:        tmax,
		FrequencyHz:   freqHz,
		TotalNeutrons: total,
	})
	if err != nil {
		t.Fatalf("pulse.Build: %v", err)
	}
	return s
}

func TestScheduler_YieldsExactlyTotalNeutrons(t *testing.T) {
	structure := mustBuild(t, 0, 1000, 1e7, 1003)
	s := New(structure, 0, nil)

	count := 0
	for {
		_, err := s.Next()
		if errors.Is(err, core.ErrPulsesExhausted) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		count++
	}

	if count != 1003 {
		t.Errorf("scheduled %d primaries, expected 1003", count)
	}
}

func TestScheduler_PulseIndicesNonDecreasing(t *testing.T) {
	structure := mustBuild(t, 0, 1000, 1e7, 250)
	s := New(structure, 0, nil)

	prevPulse := 0
	for {
		p, err := s.Next()
		if errors.Is(err, core.ErrPulsesExhausted) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if p.PulseIndex < prevPulse {
			t.Fatalf("pulse index went backwards: %d after %d", p.PulseIndex, prevPulse)
		}
		prevPulse = p.PulseIndex
	}
}

func TestScheduler_EmissionEqualsPulseStart(t *testing.T) {
	structure := mustBuild(t, 0, 1000, 1e7, 30)
	s := New(structure, 0, nil)

	for {
		p, err := s.Next()
		if errors.Is(err, core.ErrPulsesExhausted) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		want := structure.StartNs[p.PulseIndex]
		if p.EmissionNs != want {
			t.Errorf("primary in pulse %d emitted at %g ns, expected pulse start %g", p.PulseIndex, p.EmissionNs, want)
		}
	}
}

func TestScheduler_JitterStaysBounded(t *testing.T) {
	structure := mustBuild(t, 0, 1000, 1e7, 200)
	rng := core.NewRand(7, 0)
	s := New(structure, 5, rng)

	for {
		p, err := s.Next()
		if errors.Is(err, core.ErrPulsesExhausted) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		start := structure.StartNs[p.PulseIndex]
		if p.EmissionNs < start || p.EmissionNs >= start+5 {
			t.Fatalf("emission %g ns outside [%g, %g)", p.EmissionNs, start, start+5)
		}
	}
}

func TestScheduler_SeqWithinPulseRestartsPerPulse(t *testing.T) {
	structure := mustBuild(t, 0, 300, 1e7, 9) // 3 pulses, 3 neutrons each
	s := New(structure, 0, nil)

	for pulseIdx := 0; pulseIdx < 3; pulseIdx++ {
		for seq := 0; seq < 3; seq++ {
			p, err := s.Next()
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			if p.PulseIndex != pulseIdx || p.SeqInPulse != seq {
				t.Errorf("got pulse %d seq %d, expected pulse %d seq %d",
					p.PulseIndex, p.SeqInPulse, pulseIdx, seq)
			}
		}
	}
	if _, err := s.Next(); !errors.Is(err, core.ErrPulsesExhausted) {
		t.Errorf("expected exhaustion after 9 primaries, got %v", err)
	}
}

func TestScheduler_CallAfterExhaustionIsLogicError(t *testing.T) {
	structure := mustBuild(t, 0, 100, 0, 2)
	s := New(structure, 0, nil)

	for i := 0; i < 2; i++ {
		if _, err := s.Next(); err != nil {
			t.Fatalf("Next %d: %v", i, err)
		}
	}
	if _, err := s.Next(); !errors.Is(err, core.ErrPulsesExhausted) {
		t.Fatalf("expected ErrPulsesExhausted, got %v", err)
	}
	if _, err := s.Next(); !errors.Is(err, core.ErrLogic) {
		t.Errorf("expected ErrLogic after terminal signal, got %v", err)
	}
}

func TestScheduler_Remaining(t *testing.T) {
	structure := mustBuild(t, 0, 1000, 1e7, 50)
	s := New(structure, 0, nil)

	if s.Remaining() != 50 {
		t.Fatalf("Remaining() = %d, expected 50", s.Remaining())
	}
	for i := 0; i < 20; i++ {
		if _, err := s.Next(); err != nil {
			t.Fatalf("Next: %v", err)
		}
	}
	if s.Remaining() != 30 {
		t.Errorf("Remaining() = %d after 20 primaries, expected 30", s.Remaining())
	}
}
