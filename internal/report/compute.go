package report

import (
	"time"

	"pulsecam/internal/core"
)

// FileStats describes what the batched writers put on disk.
type FileStats struct {
	Files   int `json:"files"`
	Records int `json:"records"`
}

// PulseMetrics aggregates one pulse's primaries.
type PulseMetrics struct {
	Primaries int `json:"primaries"`
	Photons   int `json:"photons"`
}

// Metrics is the computed summary of a run.
type Metrics struct {
	RunID           string                `json:"run_id"`
	WallDuration    time.Duration         `json:"-"`
	TotalPrimaries  int                   `json:"total_primaries"`
	HitPrimaries    int                   `json:"hit_primaries"`
	MissPrimaries   int                   `json:"miss_primaries"`
	ErrPrimaries    int                   `json:"error_primaries"`
	TotalPhotons    int                   `json:"total_photons"`
	HitFraction     float64               `json:"hit_fraction"`
	PrimariesPerSec float64               `json:"primaries_per_sec"`
	Output          FileStats             `json:"output"`
	ByPulse         map[int]*PulseMetrics `json:"by_pulse"`
}

// Compute builds Metrics from results. Pure function, no side effects.
func Compute(runID string, results []core.PrimaryResult, wall time.Duration, output FileStats) *Metrics {
	m := &Metrics{
		RunID:        runID,
		WallDuration: wall,
		Output:       output,
		ByPulse:      make(map[int]*PulseMetrics),
	}

	for _, r := range results {
		m.TotalPrimaries++
		if r.Err != "" {
			m.ErrPrimaries++
		} else if r.Hits > 0 {
			m.HitPrimaries++
			m.TotalPhotons += r.Hits
		} else {
			m.MissPrimaries++
		}

		pm, ok := m.ByPulse[r.PulseIndex]
		if !ok {
			pm = &PulseMetrics{}
			m.ByPulse[r.PulseIndex] = pm
		}
		pm.Primaries++
		pm.Photons += r.Hits
	}

	if m.TotalPrimaries > 0 {
		m.HitFraction = float64(m.HitPrimaries) / float64(m.TotalPrimaries)
	}
	if wall > 0 {
		m.PrimariesPerSec = float64(m.TotalPrimaries) / wall.Seconds()
	}
	return m
}
