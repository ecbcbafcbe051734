package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"
)

// FormatText writes the run summary in human-readable form.
func FormatText(w io.Writer, m *Metrics, checks *CheckResults) {
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "PulseCam - Simulation Summary")
	fmt.Fprintln(w, "=============================")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Run ID:         %s\n", m.RunID)
	fmt.Fprintf(w, "Duration:       %v\n", m.WallDuration.Round(time.Millisecond))
	fmt.Fprintf(w, "Primaries:      %d (%.1f/sec)\n", m.TotalPrimaries, m.PrimariesPerSec)
	fmt.Fprintf(w, "Detected:       %d (%.1f%%), %d misses, %d errors\n",
		m.HitPrimaries, m.HitFraction*100, m.MissPrimaries, m.ErrPrimaries)
	fmt.Fprintf(w, "Photon hits:    %d\n", m.TotalPhotons)
	fmt.Fprintf(w, "Output:         %d files, %d records\n", m.Output.Files, m.Output.Records)

	if len(m.ByPulse) > 0 {
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "By Pulse:")
		indices := make([]int, 0, len(m.ByPulse))
		for i := range m.ByPulse {
			indices = append(indices, i)
		}
		sort.Ints(indices)
		for _, i := range indices {
			pm := m.ByPulse[i]
			fmt.Fprintf(w, "  pulse %-4d %6d primaries  %8d photons\n", i, pm.Primaries, pm.Photons)
		}
	}

	if checks != nil && len(checks.Results) > 0 {
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Checks:")
		for _, r := range checks.Results {
			symbol := "✓"
			if !r.Passed {
				symbol = "✗"
			}
			fmt.Fprintf(w, "  %s %s %s (actual: %s)\n", symbol, r.Name, r.Threshold, r.Actual)
		}
	}
}

// FormatJSON writes the run summary as JSON.
func FormatJSON(w io.Writer, m *Metrics, checks *CheckResults) error {
	out := struct {
		*Metrics
		WallSeconds float64       `json:"wall_seconds"`
		Checks      *CheckResults `json:"checks,omitempty"`
	}{
		Metrics:     m,
		WallSeconds: m.WallDuration.Seconds(),
		Checks:      checks,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
