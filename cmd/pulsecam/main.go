package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"pulsecam/internal/config"
	"pulsecam/internal/core"
	"pulsecam/internal/engine"
	"pulsecam/internal/progress"
	"pulsecam/internal/report"
	"pulsecam/internal/run"
	"pulsecam/internal/spectrum"
)

const (
	ExitSuccess     = 0
	ExitCheckFailed = 1
	ExitError       = 2
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (required)")
	workers := flag.Int("workers", 0, "override run.workers from the config (0 = use config)")
	output := flag.String("output", "text", "summary format: text, json")
	quiet := flag.Bool("quiet", false, "suppress progress output during the run")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "error: --config is required")
		flag.Usage()
		os.Exit(ExitError)
	}
	if *output != "text" && *output != "json" {
		fmt.Fprintf(os.Stderr, "error: --output must be 'text' or 'json', got %q\n", *output)
		os.Exit(ExitError)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(ExitError)
	}
	if *workers > 0 {
		cfg.Run.Workers = *workers
	}
	if *quiet {
		cfg.Run.Quiet = true
	}

	// Ctrl-C cancels the run; flushed batches stay on disk, the
	// in-flight batch is lost (documented tolerance).
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	interrupted := false
	go func() {
		<-sigCh
		interrupted = true
		if !cfg.Run.Quiet {
			fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down...")
		}
		cancel()
	}()

	collector := report.NewCollector()
	prog := progress.New(collector, cfg.Timing.TotalNeutrons, cfg.Run.Quiet)
	clock := core.RealClock{}

	newEngine := func(spec run.WorkerSpec, rng *rand.Rand) (core.Engine, error) {
		var src *spectrum.Source
		if cfg.Spectrum != nil {
			var err error
			src, err = spectrum.Load(cfg.Spectrum.File, spectrum.Mode(cfg.Spectrum.Mode), rng)
			if err != nil {
				return nil, err
			}
		}
		params := engine.Params{
			MinEnergyEV: cfg.Timing.MinEnergyEV,
			MaxEnergyEV: cfg.Timing.MaxEnergyEV,
		}
		return engine.New(params, rng, src), nil
	}

	prog.Printf("PulseCam starting: %d neutrons, %d workers, batch size %d",
		cfg.Timing.TotalNeutrons, cfg.Run.Workers, cfg.Output.BatchSize)
	prog.Start()
	started := clock.Now()

	stats, runErr := run.Run(ctx, cfg, newEngine, collector)

	prog.Stop()
	collector.Close()

	metrics := report.Compute(uuid.NewString(), collector.Results(), clock.Since(started), stats)
	checkResults := cfg.Checks.Evaluate(metrics)

	if *output == "json" {
		if err := report.FormatJSON(os.Stdout, metrics, checkResults); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(ExitError)
		}
	} else {
		report.FormatText(os.Stdout, metrics, checkResults)
	}

	if runErr != nil && !interrupted {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(ExitError)
	}
	if interrupted {
		os.Exit(ExitSuccess) // partial output is fine on interrupt
	}
	if !checkResults.Passed {
		if *output == "text" {
			fmt.Fprintln(os.Stderr, "\nRun checks failed!")
		}
		os.Exit(ExitCheckFailed)
	}
	os.Exit(ExitSuccess)
}
