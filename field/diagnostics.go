package field

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
)

// Metrics is a read-only snapshot of the simulator. It never feeds back
// into the integrator.
type Metrics struct {
	Coupling    float64
	Integration float64
	Stability   float64
	Energy      float64
	FrameTimeMs float64
	FrameCount  int
	GridSize    int
	Time        float64
	Backend     Kind
	// Collapsed is the number of gated cells on the last tick, or -1 when
	// the backend does not count them.
	Collapsed int
}

// diagnostics holds the periodically refreshed observational state.
type diagnostics struct {
	energy     float64
	frameTime  time.Duration
	frameCount int
	collapsed  int
	scratch    []float64
}

// fieldEnergy sums kinetic and mass energy over the grid:
// ½((ψ−ψprev)/dt)² + ½m²|ψ|² per channel. scratch must hold n*n values.
func fieldEnergy(g *Grid, dt, massSq float64, scratch []float64) float64 {
	re, im := g.Current()
	pre, pim := g.Previous()
	invDT := 1 / dt
	for idx := range scratch {
		r, i := float64(re[idx]), float64(im[idx])
		vr := (r - float64(pre[idx])) * invDT
		vi := (i - float64(pim[idx])) * invDT
		scratch[idx] = 0.5*vr*vr + 0.5*vi*vi + 0.5*massSq*(r*r+i*i)
	}
	return floats.Sum(scratch)
}

// Frame is the visualization payload handed to a renderer.
type Frame struct {
	Size         int
	Intensity    []float64
	Phase        []float64
	MaxIntensity float64
}

func (f *Frame) ensure(n int) {
	if f.Size == n && len(f.Intensity) == n*n && len(f.Phase) == n*n {
		return
	}
	f.Size = n
	f.Intensity = make([]float64, n*n)
	f.Phase = make([]float64, n*n)
}

// fill computes per-cell intensity and phase from the current snapshot.
func (f *Frame) fill(g *Grid) {
	f.ensure(g.n)
	re, im := g.Current()
	for idx := range f.Intensity {
		r, i := float64(re[idx]), float64(im[idx])
		f.Intensity[idx] = r*r + i*i
		f.Phase[idx] = math.Atan2(i, r)
	}
	f.MaxIntensity = floats.Max(f.Intensity)
}
