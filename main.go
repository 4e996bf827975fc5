package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"

	"fieldsim/field"
	"fieldsim/raster"
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := overlayEnv(flag.CommandLine, *envFileFlag); err != nil {
		return fmt.Errorf("environment overlay: %w", err)
	}
	if *cpuProfileFlag != "" {
		stop, err := startCPUProfile(*cpuProfileFlag, *profileDurationFlag)
		if err != nil {
			return fmt.Errorf("CPU profile: %w", err)
		}
		defer stop()
	}

	opts, err := simOptions()
	if err != nil {
		return err
	}
	bands, err := openBandSource(*bandsFlag)
	if err != nil {
		return fmt.Errorf("band source: %w", err)
	}

	runID := uuid.New().String()
	var clog *coherenceLog
	if *coherenceDBFlag != "" {
		clog, err = openCoherenceLog(*coherenceDBFlag, runID, bands.Name())
		if err != nil {
			return err
		}
		defer clog.Close()
	}
	log.Printf("run %s: grid %dx%d, backend %s, bands %s", runID, opts.GridSize, opts.GridSize, opts.Only, bands.Name())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *headlessFlag {
		return runHeadless(ctx, opts, bands, clog)
	}
	return runViewer(ctx, opts, bands, clog)
}

func runHeadless(ctx context.Context, opts field.Options, bands bandSource, clog *coherenceLog) error {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	sim, err := field.Open(probeCtx, opts)
	if err != nil {
		return err
	}
	defer sim.Close()
	r := &headlessRun{sim: sim, bands: bands, clog: clog, ticks: *ticksFlag, every: *recordEveryFlag}
	return r.run(ctx, os.Stdout)
}

func runViewer(ctx context.Context, opts field.Options, bands bandSource, clog *coherenceLog) error {
	opts.Raster = raster.Probe
	sim, err := field.New(opts)
	if err != nil {
		return err
	}
	defer sim.Close()

	n := sim.Params().GridSize
	scale := windowScale
	for scale > 1 && n*scale > maxWindowSide {
		scale--
	}
	ebiten.SetWindowSize(n*scale, n*scale)
	ebiten.SetWindowTitle("Coherence Field")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(newGame(ctx, sim, bands, clog)); err != nil {
		return err
	}
	return nil
}
