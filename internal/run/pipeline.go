// Package run drives the simulation: it walks the schedule, hands each
// primary to the transport engine, and routes the callback sequence
// (primary begin, hits, primary end) through the aggregator into the
// batched writer.
package run

import (
	"context"
	"errors"
	"fmt"

	"pulsecam/internal/aggregate"
	"pulsecam/internal/core"
	"pulsecam/internal/ratelimit"
	"pulsecam/internal/schedule"
	"pulsecam/internal/sink"
)

// Pipeline is one worker's complete event pipeline. All of its state is
// owned by the single goroutine executing Run; nothing here is shared.
type Pipeline struct {
	workerID  int
	scheduler *schedule.Scheduler
	agg       *aggregate.Aggregator
	writer    *sink.Writer
	engine    core.Engine
	reporter  core.Reporter
	limiter   *ratelimit.Limiter

	nextEventID int
}

// NewPipeline wires one worker's components together. firstEventID
// offsets this worker's event ordinals so ids stay globally unique
// across a split run.
func NewPipeline(workerID, firstEventID int, scheduler *schedule.Scheduler, writer *sink.Writer,
	engine core.Engine, reporter core.Reporter, limiter *ratelimit.Limiter) *Pipeline {
	if reporter == nil {
		reporter = core.NullReporter
	}
	return &Pipeline{
		workerID:    workerID,
		scheduler:   scheduler,
		agg:         aggregate.New(),
		writer:      writer,
		engine:      engine,
		reporter:    reporter,
		limiter:     limiter,
		nextEventID: firstEventID,
	}
}

// Run simulates every primary in the schedule, then finalizes the
// writer. A transport failure is recorded against its primary and the
// run continues; contract violations (logic errors) and write failures
// abort immediately. On abort the writer is still finalized so every
// fully flushed batch survives.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.loop(ctx); err != nil {
		p.writer.Finalize() // best effort; the loop error wins
		return err
	}
	if err := p.writer.Finalize(); err != nil {
		return err
	}
	return nil
}

func (p *Pipeline) loop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}

		primary, err := p.scheduler.Next()
		if errors.Is(err, core.ErrPulsesExhausted) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := p.runPrimary(ctx, primary); err != nil {
			return err
		}
	}
}

// runPrimary executes the begin / hit* / end callback sequence for one
// primary.
func (p *Pipeline) runPrimary(ctx context.Context, primary core.ScheduledPrimary) error {
	eventID := p.nextEventID
	p.nextEventID++

	if err := p.agg.Begin(eventID, primary); err != nil {
		return err
	}

	var hitErr error
	transportErr := p.engine.Transport(ctx, primary, eventID, func(h core.PhotonHit) {
		if hitErr != nil {
			return
		}
		hitErr = p.agg.Hit(h)
	})
	if hitErr != nil {
		p.agg.Abort()
		return hitErr
	}
	if transportErr != nil {
		p.agg.Abort()
		if ctx.Err() != nil {
			return transportErr
		}
		// The primary failed but the run is still sound: count it and
		// move on, matching the no-retry policy.
		p.reporter.Report(core.PrimaryResult{
			WorkerID:   p.workerID,
			EventID:    eventID,
			PulseIndex: primary.PulseIndex,
			EmissionNs: primary.EmissionNs,
			Err:        transportErr.Error(),
		})
		return nil
	}

	group, err := p.agg.End()
	if err != nil {
		return err
	}
	if group != nil {
		if err := p.writer.Append(group); err != nil {
			return fmt.Errorf("event %d: %w", eventID, err)
		}
	}

	p.reporter.Report(core.PrimaryResult{
		WorkerID:   p.workerID,
		EventID:    eventID,
		PulseIndex: primary.PulseIndex,
		EmissionNs: primary.EmissionNs,
		Hits:       len(group),
	})
	return nil
}
