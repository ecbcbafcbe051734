package core

import "math/rand"

// NewRand returns the random engine for one worker's run. Exactly one
// engine exists per pipeline instance and it is never shared across
// goroutines; reruns with the same seed reproduce the same stream.
// Worker k of a split run uses seed+k so slices stay decorrelated but
// still derive from the single configured seed.
func NewRand(seed int64, workerID int) *rand.Rand {
	return rand.New(rand.NewSource(seed + int64(workerID)))
}
