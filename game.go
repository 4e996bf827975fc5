package main

import (
	"context"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"fieldsim/field"
)

// Game owns the simulator, the band feed and the rendering buffers of the
// viewer window.
type Game struct {
	ctx   context.Context
	sim   *field.Simulator
	bands bandSource
	clog  *coherenceLog

	started       bool
	ticksPerFrame int
	recordEvery   int
	frames        int

	lastSimDuration time.Duration
	logErr          error

	frame  *field.Frame
	pixels []byte
}

// newGame wires a simulator into the viewer. Backend probing starts on the
// first Update so the raster probe runs with the game loop alive.
func newGame(ctx context.Context, sim *field.Simulator, bands bandSource, clog *coherenceLog) *Game {
	n := sim.Params().GridSize
	return &Game{
		ctx:           ctx,
		sim:           sim,
		bands:         bands,
		clog:          clog,
		ticksPerFrame: clampTicks(*ticksPerFrameFlag),
		recordEvery:   *recordEveryFlag,
		pixels:        make([]byte, n*n*4),
	}
}

// Update feeds the latest band powers and advances the field.
func (g *Game) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	if !g.started {
		g.sim.Start(g.ctx)
		g.started = true
	}
	g.handleDebugControls()

	g.sim.IngestBands(g.bands.Next())
	simStart := time.Now()
	for i := 0; i < g.ticksPerFrame; i++ {
		if err := g.sim.Step(); err != nil {
			return err
		}
	}
	g.lastSimDuration = time.Since(simStart)

	if g.sim.State() != field.Ready {
		return nil
	}
	g.frames++
	if g.clog != nil && g.recordEvery > 0 && g.frames%g.recordEvery == 0 {
		if err := g.clog.record(time.Now(), g.sim.Metrics()); err != nil && g.logErr == nil {
			log.Printf("coherence log: %v", err)
			g.logErr = err
		}
	}
	return nil
}
