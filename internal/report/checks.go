package report

import "fmt"

// Checks defines pass/fail criteria for a finished run, the simulation
// analog of a load test's thresholds: a run that technically completes
// but detects almost nothing usually means a misconfigured geometry or
// energy window, and should fail loudly in batch campaigns.
type Checks struct {
	// MinHitFraction is the minimum fraction (0..1) of primaries that
	// must produce at least one photon hit. 0 disables the check.
	MinHitFraction float64 `yaml:"min_hit_fraction"`
	// MinPhotons is the minimum total photon count. 0 disables.
	MinPhotons int `yaml:"min_photons"`
	// MaxErrorPrimaries caps primaries that failed transport. Nil
	// disables; 0 means none tolerated.
	MaxErrorPrimaries *int `yaml:"max_error_primaries"`
}

// CheckResult is the outcome of a single check.
type CheckResult struct {
	Name      string `json:"name"`
	Passed    bool   `json:"passed"`
	Threshold string `json:"threshold"`
	Actual    string `json:"actual"`
}

// CheckResults contains all check outcomes.
type CheckResults struct {
	Passed  bool          `json:"passed"`
	Results []CheckResult `json:"results"`
}

// Evaluate runs all configured checks against computed metrics.
func (c *Checks) Evaluate(m *Metrics) *CheckResults {
	if c == nil {
		return &CheckResults{Passed: true}
	}

	out := &CheckResults{Passed: true}
	add := func(name string, passed bool, threshold, actual string) {
		out.Results = append(out.Results, CheckResult{
			Name:      name,
			Passed:    passed,
			Threshold: threshold,
			Actual:    actual,
		})
		if !passed {
			out.Passed = false
		}
	}

	if c.MinHitFraction > 0 {
		add("hit_fraction",
			m.HitFraction >= c.MinHitFraction,
			fmt.Sprintf(">= %.3f", c.MinHitFraction),
			fmt.Sprintf("%.3f", m.HitFraction))
	}
	if c.MinPhotons > 0 {
		add("total_photons",
			m.TotalPhotons >= c.MinPhotons,
			fmt.Sprintf(">= %d", c.MinPhotons),
			fmt.Sprintf("%d", m.TotalPhotons))
	}
	if c.MaxErrorPrimaries != nil {
		add("error_primaries",
			m.ErrPrimaries <= *c.MaxErrorPrimaries,
			fmt.Sprintf("<= %d", *c.MaxErrorPrimaries),
			fmt.Sprintf("%d", m.ErrPrimaries))
	}
	return out
}
