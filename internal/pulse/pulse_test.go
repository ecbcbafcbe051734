package pulse

import (
	"errors"
	"math"
	"testing"

	"pulsecam/internal/config"
	"pulsecam/internal/core"
)

func timing(tmin, tmax, freqHz float64, total int) config.Timing {
	return config.Timing{
		TminNs:        tmin,
		TmaxNs:        tmax,
		FrequencyHz:   freqHz,
		TotalNeutrons: total,
	}
}

func TestBuild_TenEvenPulses(t *testing.T) {
	// 0.01 pulses/ns over a 1000 ns window: 10 pulses, 100 ns apart.
	s, err := Build(timing(0, 1000, 1e7, 1000))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if s.Pulses() != 10 {
		t.Fatalf("expected 10 pulses, got %d", s.Pulses())
	}
	for i, start := range s.StartNs {
		want := float64(i) * 100
		if math.Abs(start-want) > 1e-6 {
			t.Errorf("pulse %d starts at %g ns, expected %g", i, start, want)
		}
		if s.Count[i] != 100 {
			t.Errorf("pulse %d has %d neutrons, expected 100", i, s.Count[i])
		}
	}
}

func TestBuild_RemainderGoesToFinalPulse(t *testing.T) {
	s, err := Build(timing(0, 1000, 1e7, 1003))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if s.Pulses() != 10 {
		t.Fatalf("expected 10 pulses, got %d", s.Pulses())
	}
	for i := 0; i < 9; i++ {
		if s.Count[i] != 100 {
			t.Errorf("pulse %d has %d neutrons, expected 100", i, s.Count[i])
		}
	}
	if s.Count[9] != 103 {
		t.Errorf("final pulse has %d neutrons, expected 103", s.Count[9])
	}
	if s.TotalNeutrons() != 1003 {
		t.Errorf("counts sum to %d, expected 1003", s.TotalNeutrons())
	}
}

func TestBuild_ZeroFrequencySinglePulse(t *testing.T) {
	s, err := Build(timing(50, 1000, 0, 42))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if s.Pulses() != 1 {
		t.Fatalf("expected single pulse, got %d", s.Pulses())
	}
	if s.StartNs[0] != 50 {
		t.Errorf("single pulse starts at %g, expected TMIN=50", s.StartNs[0])
	}
	if s.Count[0] != 42 {
		t.Errorf("single pulse has %d neutrons, expected 42", s.Count[0])
	}
}

func TestBuild_SubPeriodWindowSinglePulse(t *testing.T) {
	// Less than one full period fits: fall back to a single pulse.
	s, err := Build(timing(0, 50, 1e7, 7))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if s.Pulses() != 1 {
		t.Fatalf("expected single pulse, got %d", s.Pulses())
	}
	if s.Count[0] != 7 {
		t.Errorf("single pulse has %d neutrons, expected 7", s.Count[0])
	}
}

func TestBuild_FractionalPulseCountFloors(t *testing.T) {
	// 9.5 periods fit; floor keeps 9 pulses.
	s, err := Build(timing(0, 950, 1e7, 95))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if s.Pulses() != 9 {
		t.Fatalf("expected 9 pulses, got %d", s.Pulses())
	}
	if s.TotalNeutrons() != 95 {
		t.Errorf("counts sum to %d, expected 95", s.TotalNeutrons())
	}
}

func TestBuild_InvalidTiming(t *testing.T) {
	cases := []struct {
		name string
		t    config.Timing
	}{
		{"empty window", timing(1000, 1000, 1e7, 10)},
		{"inverted window", timing(1000, 0, 1e7, 10)},
		{"negative flux", config.Timing{TminNs: 0, TmaxNs: 1000, FluxPerCm2Sec: -1, FrequencyHz: 1e7, TotalNeutrons: 10}},
		{"negative frequency", timing(0, 1000, -1e7, 10)},
		{"zero neutrons", timing(0, 1000, 1e7, 0)},
		{"negative neutrons", timing(0, 1000, 1e7, -5)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Build(tc.t)
			if !errors.Is(err, core.ErrConfig) {
				t.Errorf("expected ErrConfig, got %v", err)
			}
			if s != nil {
				t.Errorf("expected no structure on error, got %+v", s)
			}
		})
	}
}

func TestBuild_PeriodNs(t *testing.T) {
	s, err := Build(timing(0, 1000, 1e7, 100))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if math.Abs(s.PeriodNs()-100) > 1e-6 {
		t.Errorf("PeriodNs() = %g, expected 100", s.PeriodNs())
	}

	single, err := Build(timing(0, 1000, 0, 100))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if single.PeriodNs() != 0 {
		t.Errorf("single-pulse PeriodNs() = %g, expected 0", single.PeriodNs())
	}
}
