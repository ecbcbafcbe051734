// Package core defines the fundamental types and interfaces for PulseCam.
package core

import "context"

// ScheduledPrimary assigns one primary particle to a pulse.
// Times are absolute nanoseconds from the start of the run window.
type ScheduledPrimary struct {
	PulseIndex int
	SeqInPulse int
	EmissionNs float64
}

// PhotonHit is a single optical photon arrival reported by the transport
// engine, with time local to the primary's own transport.
type PhotonHit struct {
	X, Y, Z  float64 // mm, detector frame
	EnergyEV float64
	LocalNs  float64
	Parent   string // species of the particle that produced the photon
}

// HitRecord is a PhotonHit stamped with its primary's identity and
// absolute arrival time. One HitRecord becomes one output row.
type HitRecord struct {
	EventID  int
	X, Y, Z  float64
	EnergyEV float64
	AbsNs    float64
	Parent   string
}

// PrimaryResult summarizes one finished primary for run accounting.
type PrimaryResult struct {
	WorkerID   int
	EventID    int
	PulseIndex int
	EmissionNs float64
	Hits       int
	Err        string
}

// Engine transports one primary particle and reports every optical
// photon that reaches the sensitive volume through emit. Transport must
// return only after all secondaries have terminated; emit must not be
// called after it returns.
type Engine interface {
	Transport(ctx context.Context, primary ScheduledPrimary, eventID int, emit func(PhotonHit)) error
}

// Reporter receives per-primary results from the pipeline.
type Reporter interface {
	Report(PrimaryResult)
}

// NullReporter discards all results.
var NullReporter Reporter = nullReporter{}

type nullReporter struct{}

func (nullReporter) Report(PrimaryResult) {}
