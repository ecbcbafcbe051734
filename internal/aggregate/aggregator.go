// Package aggregate collects the photon hits of one primary particle at
// a time and stamps them with the primary's absolute emission time.
package aggregate

import (
	"fmt"

	"pulsecam/internal/core"
)

// state is the aggregator's position in the transport callback
// sequence. Modeling it explicitly (rather than inferring it from
// buffer contents) keeps an aborted primary from leaking records into
// the next one.
type state int

const (
	idle state = iota
	inPrimary
)

// Aggregator accumulates HitRecords between a primary's begin and end
// signals. No cross-primary state survives End. Not safe for concurrent
// use; it lives inside the single transport callback thread.
type Aggregator struct {
	st      state
	eventID int
	primary core.ScheduledPrimary
	buf     []core.HitRecord
}

func New() *Aggregator {
	return &Aggregator{}
}

// Begin opens a primary. The eventID is the primary's ordinal across
// the whole run and becomes the id column of every row it produces.
func (a *Aggregator) Begin(eventID int, primary core.ScheduledPrimary) error {
	if a.st != idle {
		return fmt.Errorf("%w: begin for event %d while event %d is still open", core.ErrLogic, eventID, a.eventID)
	}
	a.st = inPrimary
	a.eventID = eventID
	a.primary = primary
	a.buf = a.buf[:0]
	return nil
}

// Hit records one photon arrival for the open primary. The hit's local
// transport time is offset by the primary's emission time to produce
// the absolute detector timestamp.
func (a *Aggregator) Hit(h core.PhotonHit) error {
	if a.st != inPrimary {
		return fmt.Errorf("%w: hit with no open primary", core.ErrLogic)
	}
	a.buf = append(a.buf, core.HitRecord{
		EventID:  a.eventID,
		X:        h.X,
		Y:        h.Y,
		Z:        h.Z,
		EnergyEV: h.EnergyEV,
		AbsNs:    a.primary.EmissionNs + h.LocalNs,
		Parent:   h.Parent,
	})
	return nil
}

// End closes the open primary and returns its hit group, which may be
// empty (a primary that missed the detector is legitimate; the caller
// counts it, nothing is written). The aggregator always resets, even
// when End is reporting a contract violation.
func (a *Aggregator) End() ([]core.HitRecord, error) {
	defer a.reset()
	if a.st != inPrimary {
		return nil, fmt.Errorf("%w: end with no open primary", core.ErrLogic)
	}
	if len(a.buf) == 0 {
		return nil, nil
	}
	out := make([]core.HitRecord, len(a.buf))
	copy(out, a.buf)
	return out, nil
}

// Abort discards the open primary, if any. Used when transport fails
// partway so the next primary starts from a clean state.
func (a *Aggregator) Abort() {
	a.reset()
}

func (a *Aggregator) reset() {
	a.st = idle
	a.buf = a.buf[:0]
}
