package run

import (
	"context"
	"encoding/csv"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"testing"

	"pulsecam/internal/core"
	"pulsecam/internal/engine"
	"pulsecam/internal/report"
	"pulsecam/internal/sink"
)

// End-to-end with the reference engine: the output files must be
// readable as one flat table whose timestamps are consistent with the
// pulse each event was scheduled into.
func TestIntegration_ReferenceEngine(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir, 500, 200, 1)
	collector := report.NewCollector()

	newEngine := func(spec WorkerSpec, rng *rand.Rand) (core.Engine, error) {
		return engine.New(engine.Params{
			MinEnergyEV: cfg.Timing.MinEnergyEV,
			MaxEnergyEV: cfg.Timing.MaxEnergyEV,
			DetectProb:  0.5,
		}, rng, nil), nil
	}

	stats, err := Run(context.Background(), cfg, newEngine, collector)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	collector.Close()
	results := collector.Results()

	if len(results) != 500 {
		t.Fatalf("expected 500 primary results, got %d", len(results))
	}

	// Emission time by event id, for cross-checking rows.
	emission := make(map[int]float64, len(results))
	hits := make(map[int]int, len(results))
	totalHits := 0
	for _, r := range results {
		emission[r.EventID] = r.EmissionNs
		hits[r.EventID] = r.Hits
		totalHits += r.Hits
	}
	if totalHits == 0 {
		t.Fatal("expected some hits at DetectProb=0.5")
	}
	if stats.Records != totalHits {
		t.Errorf("writer recorded %d rows, results sum to %d", stats.Records, totalHits)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	rowsByEvent := make(map[int]int)
	for _, name := range names {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		all, err := csv.NewReader(f).ReadAll()
		f.Close()
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		for _, row := range all[1:] {
			if len(row) != len(sink.Header) {
				t.Fatalf("row width %d, expected %d", len(row), len(sink.Header))
			}
			id, _ := strconv.Atoi(row[0])
			toa, err := strconv.ParseFloat(row[5], 64)
			if err != nil {
				t.Fatalf("bad toa %q: %v", row[5], err)
			}
			if toa < emission[id] {
				t.Fatalf("event %d arrived at %g ns, before its emission %g ns", id, toa, emission[id])
			}
			rowsByEvent[id]++
		}
	}

	for id, n := range rowsByEvent {
		if hits[id] != n {
			t.Errorf("event %d: %d rows on disk, result says %d hits", id, n, hits[id])
		}
	}
}

// Reruns with the same seed must reproduce file names and contents.
func TestIntegration_SeededRerunsIdentical(t *testing.T) {
	runOnce := func(dir string) map[string]string {
		cfg := testConfig(dir, 200, 50, 1)
		newEngine := func(spec WorkerSpec, rng *rand.Rand) (core.Engine, error) {
			return engine.New(engine.Params{DetectProb: 0.5}, rng, nil), nil
		}
		if _, err := Run(context.Background(), cfg, newEngine, nil); err != nil {
			t.Fatalf("Run: %v", err)
		}
		out := make(map[string]string)
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("ReadDir: %v", err)
		}
		for _, e := range entries {
			data, err := os.ReadFile(filepath.Join(dir, e.Name()))
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			out[e.Name()] = string(data)
		}
		return out
	}

	a := runOnce(t.TempDir())
	b := runOnce(t.TempDir())

	if len(a) != len(b) {
		t.Fatalf("reruns produced %d vs %d files", len(a), len(b))
	}
	for name, content := range a {
		if b[name] != content {
			t.Errorf("file %s differs between seeded reruns", name)
		}
	}
}
