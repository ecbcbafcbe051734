package run

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"pulsecam/internal/config"
	"pulsecam/internal/core"
	"pulsecam/internal/pulse"
	"pulsecam/internal/ratelimit"
	"pulsecam/internal/report"
	"pulsecam/internal/schedule"
	"pulsecam/internal/sink"
)

// WorkerSpec is one worker's slice of the run: a disjoint share of the
// neutron total, a disjoint event-id range, and its own file namespace.
type WorkerSpec struct {
	ID           int
	Neutrons     int
	FirstEventID int
	BaseName     string
}

// SplitWorkers divides total neutrons across workers using the same
// remainder policy as the pulse structure: even shares, remainder to
// the last worker. A single worker keeps the bare base name so the
// default layout matches an unsplit run.
func SplitWorkers(total, workers int, base string) []WorkerSpec {
	if workers < 1 {
		workers = 1
	}
	if workers > total {
		workers = total
	}
	if workers == 1 {
		return []WorkerSpec{{ID: 0, Neutrons: total, BaseName: base}}
	}

	specs := make([]WorkerSpec, workers)
	share := total / workers
	next := 0
	for i := range specs {
		n := share
		if i == workers-1 {
			n += total % workers
		}
		specs[i] = WorkerSpec{
			ID:           i,
			Neutrons:     n,
			FirstEventID: next,
			BaseName:     fmt.Sprintf("%s_w%d", base, i),
		}
		next += n
	}
	return specs
}

// EngineFactory builds one worker's transport engine around that
// worker's private random engine.
type EngineFactory func(spec WorkerSpec, rng *rand.Rand) (core.Engine, error)

// Run executes the whole simulation described by cfg: it splits the
// neutron total across workers, runs each worker's independent pipeline
// to completion, and returns the combined output statistics. The first
// worker error cancels the rest.
func Run(ctx context.Context, cfg *config.Config, newEngine EngineFactory, rep core.Reporter) (report.FileStats, error) {
	specs := SplitWorkers(cfg.Timing.TotalNeutrons, cfg.Run.Workers, cfg.Output.BaseName)
	limiter := ratelimit.New(cfg.Run.MaxRate)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		stats    report.FileStats
	)

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
		cancel()
	}

	for _, spec := range specs {
		wg.Add(1)
		go func(spec WorkerSpec) {
			defer wg.Done()

			timing := cfg.Timing
			timing.TotalNeutrons = spec.Neutrons
			structure, err := pulse.Build(timing)
			if err != nil {
				fail(err)
				return
			}

			rng := core.NewRand(cfg.Run.Seed, spec.ID)
			eng, err := newEngine(spec, rng)
			if err != nil {
				fail(err)
				return
			}

			writer, err := sink.New(cfg.Output.Dir, spec.BaseName, cfg.Output.BatchSize)
			if err != nil {
				fail(err)
				return
			}

			scheduler := schedule.New(structure, cfg.Timing.JitterNs, rng)
			pipeline := NewPipeline(spec.ID, spec.FirstEventID, scheduler, writer, eng, rep, limiter)
			if err := pipeline.Run(ctx); err != nil {
				fail(fmt.Errorf("worker %d: %w", spec.ID, err))
			}

			mu.Lock()
			stats.Files += writer.Files()
			stats.Records += writer.Records()
			mu.Unlock()
		}(spec)
	}

	wg.Wait()
	return stats, firstErr
}
