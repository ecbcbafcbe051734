// Package engine provides the reference transport engine: a seeded
// stochastic stand-in for a full particle-transport code, good enough
// to exercise the event pipeline end to end and to drive tests without
// an external dependency.
package engine

import (
	"context"
	"math"
	"math/rand"

	"pulsecam/internal/core"
	"pulsecam/internal/spectrum"
)

// Params describes the toy scintillator camera. Zero values fall back
// to defaults taken from the instrument this models: a thin scintillator
// screen 10.59 m downstream of a pulsed source.
type Params struct {
	DistanceMM    float64 // source to scintillator along the beam axis
	HalfSizeMM    float64 // scintillator half width (x and y)
	HalfThickMM   float64 // scintillator half thickness (z)
	BeamSigmaMM   float64 // Gaussian beam spot at the screen
	DetectProb    float64 // chance a primary interacts in the screen
	MeanPhotons   float64 // mean optical photons per interaction
	DecayTauNs    float64 // scintillation decay constant
	PhotonMeanEV  float64 // mean optical photon energy
	PhotonSigmaEV float64
	MinEnergyEV   float64 // primary energy window, used without a spectrum
	MaxEnergyEV   float64
}

func (p *Params) applyDefaults() {
	if p.DistanceMM == 0 {
		p.DistanceMM = 10590
	}
	if p.HalfSizeMM == 0 {
		p.HalfSizeMM = 50
	}
	if p.HalfThickMM == 0 {
		p.HalfThickMM = 0.5
	}
	if p.BeamSigmaMM == 0 {
		p.BeamSigmaMM = 10
	}
	if p.DetectProb == 0 {
		p.DetectProb = 0.3
	}
	if p.MeanPhotons == 0 {
		p.MeanPhotons = 20
	}
	if p.DecayTauNs == 0 {
		p.DecayTauNs = 2.5
	}
	if p.PhotonMeanEV == 0 {
		p.PhotonMeanEV = 2.95 // ~420 nm scintillation light
	}
	if p.PhotonSigmaEV == 0 {
		p.PhotonSigmaEV = 0.15
	}
	if p.MinEnergyEV == 0 {
		p.MinEnergyEV = 0.025 // thermal
	}
	if p.MaxEnergyEV == 0 {
		p.MaxEnergyEV = 10e6
	}
}

// neutronSpeedMMNs returns a neutron's speed in mm/ns for a kinetic
// energy in eV (non-relativistic, fine below ~50 MeV).
func neutronSpeedMMNs(energyEV float64) float64 {
	const c = 299.792458            // mm/ns
	const neutronMassEV = 939.565e6 // rest energy
	return c * math.Sqrt(2*energyEV/neutronMassEV)
}

// Engine is the reference transport implementation. It owns nothing
// shared: rng and spectrum belong to exactly one worker's pipeline.
type Engine struct {
	params   Params
	rng      *rand.Rand
	spectrum *spectrum.Source // nil: uniform in the energy window
}

// New creates a reference engine. spec may be nil, in which case primary
// energies are drawn uniformly from the configured window.
func New(params Params, rng *rand.Rand, spec *spectrum.Source) *Engine {
	params.applyDefaults()
	return &Engine{params: params, rng: rng, spectrum: spec}
}

// SampleEnergy picks the next primary's kinetic energy in eV.
func (e *Engine) SampleEnergy() float64 {
	if e.spectrum != nil {
		return e.spectrum.Sample()
	}
	p := e.params
	return p.MinEnergyEV + e.rng.Float64()*(p.MaxEnergyEV-p.MinEnergyEV)
}

// Transport simulates one primary neutron. Most primaries pass straight
// through (a miss, no emit calls); the rest deposit energy once and
// shower the emit callback with scintillation photons.
func (e *Engine) Transport(ctx context.Context, primary core.ScheduledPrimary, eventID int, emit func(core.PhotonHit)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p := e.params
	energy := e.SampleEnergy()

	if e.rng.Float64() >= p.DetectProb {
		return nil // transparent to this neutron
	}

	// Interaction point: beam spot in x/y, uniform depth in z.
	x0 := clamp(e.rng.NormFloat64()*p.BeamSigmaMM, -p.HalfSizeMM, p.HalfSizeMM)
	y0 := clamp(e.rng.NormFloat64()*p.BeamSigmaMM, -p.HalfSizeMM, p.HalfSizeMM)
	z0 := (e.rng.Float64()*2 - 1) * p.HalfThickMM

	tofNs := p.DistanceMM / neutronSpeedMMNs(energy)

	// Recoil protons dominate the light yield; a small fraction of
	// photons comes from secondary electrons.
	n := e.poisson(p.MeanPhotons)
	for i := 0; i < n; i++ {
		parent := "proton"
		if e.rng.Float64() < 0.1 {
			parent = "e-"
		}
		hit := core.PhotonHit{
			X:        clamp(x0+e.rng.NormFloat64()*0.5, -p.HalfSizeMM, p.HalfSizeMM),
			Y:        clamp(y0+e.rng.NormFloat64()*0.5, -p.HalfSizeMM, p.HalfSizeMM),
			Z:        z0,
			EnergyEV: math.Max(0.1, p.PhotonMeanEV+e.rng.NormFloat64()*p.PhotonSigmaEV),
			LocalNs:  tofNs + e.rng.ExpFloat64()*p.DecayTauNs,
			Parent:   parent,
		}
		emit(hit)
	}
	return nil
}

// poisson draws from a Poisson distribution (Knuth's method; means here
// are small enough that the O(mean) loop does not matter).
func (e *Engine) poisson(mean float64) int {
	l := math.Exp(-mean)
	k := 0
	p := 1.0
	for {
		p *= e.rng.Float64()
		if p <= l {
			return k
		}
		k++
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
