package main

import (
	"fmt"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"fieldsim/field"
)

// Draw renders the field with hue from phase and brightness from intensity.
func (g *Game) Draw(screen *ebiten.Image) {
	g.frame = g.sim.Visualize(g.frame)
	fillPixels(g.pixels, g.frame)
	screen.WritePixels(g.pixels)

	if *debugFlag {
		m := g.sim.Metrics()
		tps := ebiten.ActualTPS()
		if tps < 0 {
			tps = 0
		}
		debugMsg := fmt.Sprintf("FPS: %.1f  TPS: %.1f\nBackend: %s (%s)\nTicks: %d/frame, %.0f/s (+/-)\nSim: %.2f ms  step %.3f ms\nt=%.2f  frame %d\nEnergy: %.5g\nCoupling %.3f  Integration %.3f  Stability %.3f",
			ebiten.ActualFPS(), tps, m.Backend, g.sim.State(),
			g.ticksPerFrame, g.simStepsPerSecond(),
			g.lastSimDuration.Seconds()*1000, m.FrameTimeMs,
			m.Time, m.FrameCount, m.Energy,
			m.Coupling, m.Integration, m.Stability)
		ebitenutil.DebugPrint(screen, debugMsg)
	}
}

// Layout reports the logical screen size, one pixel per cell.
func (g *Game) Layout(_, _ int) (int, int) {
	n := g.sim.Params().GridSize
	return n, n
}

// fillPixels maps each cell to RGBA: hue follows phase, value follows
// intensity relative to the frame maximum.
func fillPixels(pix []byte, f *field.Frame) {
	inv := 0.0
	if f.MaxIntensity > 0 {
		inv = 1 / f.MaxIntensity
	}
	for i, intensity := range f.Intensity {
		hue := (f.Phase[i] + math.Pi) / (2 * math.Pi)
		r, gr, b := hsvToRGB(hue, 1, intensity*inv)
		base := i * 4
		pix[base] = r
		pix[base+1] = gr
		pix[base+2] = b
		pix[base+3] = 255
	}
}

// hsvToRGB converts h, s, v in [0, 1] to 8-bit channels.
func hsvToRGB(h, s, v float64) (byte, byte, byte) {
	h = h - math.Floor(h)
	v = math.Max(0, math.Min(1, v))
	sector := h * 6
	i := math.Floor(sector)
	f := sector - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))
	var r, g, b float64
	switch int(i) % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return byte(math.Round(r * 255)), byte(math.Round(g * 255)), byte(math.Round(b * 255))
}
