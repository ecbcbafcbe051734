// Package spectrum loads a tabulated source energy spectrum and samples
// primary energies from it.
package spectrum

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"pulsecam/internal/core"
)

// Mode defines how table rows are selected during sampling.
type Mode string

const (
	// ModeSequential cycles through rows in order, wrapping around.
	// Weights are ignored; the table is treated as a beam script.
	ModeSequential Mode = "sequential"
	// ModeRandom draws rows with probability proportional to weight.
	ModeRandom Mode = "random"
)

// Source is a loaded spectrum with sampling support. Owned by a single
// pipeline; not safe for concurrent use (it shares the run's random
// engine).
type Source struct {
	energies   []float64 // eV
	cumulative []float64 // running weight sum, parallel to energies
	mode       Mode
	counter    int
	rng        *rand.Rand
}

// New creates a source from explicit rows. Weights must be positive;
// pass nil weights for a uniform table.
func New(energies, weights []float64, mode Mode, rng *rand.Rand) (*Source, error) {
	if len(energies) == 0 {
		return nil, fmt.Errorf("%w: spectrum has no rows", core.ErrConfig)
	}
	if weights != nil && len(weights) != len(energies) {
		return nil, fmt.Errorf("%w: spectrum has %d energies but %d weights", core.ErrConfig, len(energies), len(weights))
	}
	if mode == "" {
		mode = ModeRandom
	}

	s := &Source{
		energies:   energies,
		cumulative: make([]float64, len(energies)),
		mode:       mode,
		rng:        rng,
	}
	sum := 0.0
	for i := range energies {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		if w <= 0 {
			return nil, fmt.Errorf("%w: spectrum weight %g at row %d must be positive", core.ErrConfig, w, i)
		}
		sum += w
		s.cumulative[i] = sum
	}
	return s, nil
}

// Len returns the number of table rows.
func (s *Source) Len() int { return len(s.energies) }

// Sample returns the next primary energy in eV.
func (s *Source) Sample() float64 {
	switch s.mode {
	case ModeSequential:
		e := s.energies[s.counter%len(s.energies)]
		s.counter++
		return e
	default:
		target := s.rng.Float64() * s.cumulative[len(s.cumulative)-1]
		for i, c := range s.cumulative {
			if target < c {
				return s.energies[i]
			}
		}
		return s.energies[len(s.energies)-1]
	}
}

// Load reads a spectrum file (.csv or .json) and returns a Source.
func Load(path string, mode Mode, rng *rand.Rand) (*Source, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var energies, weights []float64
	var err error
	switch ext {
	case ".csv":
		energies, weights, err = loadCSV(path)
	case ".json":
		energies, weights, err = loadJSON(path)
	default:
		return nil, fmt.Errorf("%w: unsupported spectrum format %q (use .csv or .json)", core.ErrConfig, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return New(energies, weights, mode, rng)
}

// loadCSV reads a table with an "energy" column and an optional
// "weight" column, matched by header name.
func loadCSV(path string) (energies, weights []float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", core.ErrConfig, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", core.ErrConfig, err)
	}
	if len(records) < 2 {
		return nil, nil, fmt.Errorf("%w: spectrum CSV needs a header row and at least one data row", core.ErrConfig)
	}

	energyCol, weightCol := -1, -1
	for i, h := range records[0] {
		switch strings.TrimSpace(strings.ToLower(h)) {
		case "energy":
			energyCol = i
		case "weight":
			weightCol = i
		}
	}
	if energyCol < 0 {
		return nil, nil, fmt.Errorf("%w: spectrum CSV has no \"energy\" column", core.ErrConfig)
	}

	for n, rec := range records[1:] {
		e, err := strconv.ParseFloat(strings.TrimSpace(rec[energyCol]), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: row %d: bad energy %q", core.ErrConfig, n+1, rec[energyCol])
		}
		energies = append(energies, e)
		if weightCol >= 0 {
			w, err := strconv.ParseFloat(strings.TrimSpace(rec[weightCol]), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: row %d: bad weight %q", core.ErrConfig, n+1, rec[weightCol])
			}
			weights = append(weights, w)
		}
	}
	if weightCol < 0 {
		weights = nil
	}
	return energies, weights, nil
}

// loadJSON reads an array of {energy, weight} objects. Weight may be
// omitted per row (defaults to 1).
func loadJSON(path string) (energies, weights []float64, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", core.ErrConfig, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, nil, fmt.Errorf("%w: spectrum file is not valid JSON", core.ErrConfig)
	}
	rows := gjson.ParseBytes(data)
	if !rows.IsArray() {
		return nil, nil, fmt.Errorf("%w: spectrum JSON must be an array of objects", core.ErrConfig)
	}

	var rowErr error
	rows.ForEach(func(idx, row gjson.Result) bool {
		e := row.Get("energy")
		if !e.Exists() {
			rowErr = fmt.Errorf("%w: row %d has no \"energy\" field", core.ErrConfig, int(idx.Int()))
			return false
		}
		energies = append(energies, e.Float())
		w := row.Get("weight")
		if w.Exists() {
			weights = append(weights, w.Float())
		} else {
			weights = append(weights, 1)
		}
		return true
	})
	if rowErr != nil {
		return nil, nil, rowErr
	}
	return energies, weights, nil
}
