package field

import (
	"errors"
	"fmt"
	"log"
)

// Defaults applied by New to any zero-valued option.
const (
	DefaultGridSize         = 512
	DefaultDT               = 0.05
	DefaultDX               = 1.0
	DefaultWaveSpeedSq      = 1.0
	DefaultMassSq           = 0.01
	DefaultBaseCollapseRate = 0.001
	DefaultCoupling         = 1.0

	DefaultDiagnosticsInterval = 100
	DefaultEnergyLogInterval   = 1000
)

// ErrInvalidOptions is returned by New when an option is out of range.
var ErrInvalidOptions = errors.New("field: invalid options")

// Params is the physical state of the simulation. The coupling fields are
// overwritten by ingestion; Time advances by DT every tick.
type Params struct {
	GridSize          int
	DT                float64
	DX                float64
	WaveSpeedSq       float64
	MassSq            float64
	CoherenceCoupling float64
	Time              float64
}

// Uniforms is the parameter block a backend receives before each step.
type Uniforms struct {
	Params
	CollapseProb float32
	Seed         uint32
	Tick         uint32
}

// LapCoeff is c²dt²/dx², the weight of the discrete Laplacian.
func (u Uniforms) LapCoeff() float32 {
	return float32(u.WaveSpeedSq * u.DT * u.DT / (u.DX * u.DX))
}

// MassCoeff is c²dt²m².
func (u Uniforms) MassCoeff() float32 {
	return float32(u.WaveSpeedSq * u.DT * u.DT * u.MassSq)
}

// Options configures a Simulator. Zero values select the documented defaults.
type Options struct {
	GridSize int
	DT       float64
	DX       float64
	// WaveSpeedSq and MassSq may legitimately be zero, so nil rather than
	// zero selects their defaults. Use Float64 to set them.
	WaveSpeedSq *float64
	MassSq      *float64

	// BaseCollapseRate is the per-cell, per-tick collapse probability at zero
	// coupling.
	BaseCollapseRate float64
	// DisableCollapse forces every gate open.
	DisableCollapse bool
	// Seed selects the collapse draw sequence.
	Seed uint32

	// Workers > 1 splits CPU rows across that many goroutines.
	Workers int
	// Only restricts probing to a single backend kind. CPU always remains the
	// last resort.
	Only Kind
	// Raster probes the shader/raster pipeline. Nil disables that backend.
	Raster Probe

	DiagnosticsInterval int
	EnergyLogInterval   int

	// Logf receives status lines. Defaults to log.Printf.
	Logf func(format string, args ...any)
}

// withDefaults validates o and fills in zero values.
func (o Options) withDefaults() (Options, error) {
	if o.GridSize < 0 {
		return o, fmt.Errorf("%w: grid size %d", ErrInvalidOptions, o.GridSize)
	}
	if o.GridSize == 0 {
		o.GridSize = DefaultGridSize
	}
	if o.DT < 0 || o.DX < 0 {
		return o, fmt.Errorf("%w: dt=%g dx=%g", ErrInvalidOptions, o.DT, o.DX)
	}
	if o.DT == 0 {
		o.DT = DefaultDT
	}
	if o.DX == 0 {
		o.DX = DefaultDX
	}
	if o.WaveSpeedSq == nil {
		o.WaveSpeedSq = Float64(DefaultWaveSpeedSq)
	}
	if o.MassSq == nil {
		o.MassSq = Float64(DefaultMassSq)
	}
	if !(*o.WaveSpeedSq >= 0) || !(*o.MassSq >= 0) {
		return o, fmt.Errorf("%w: waveSpeedSq=%g massSq=%g", ErrInvalidOptions, *o.WaveSpeedSq, *o.MassSq)
	}
	if o.BaseCollapseRate < 0 || o.BaseCollapseRate > 1 {
		return o, fmt.Errorf("%w: collapse rate %g", ErrInvalidOptions, o.BaseCollapseRate)
	}
	if o.BaseCollapseRate == 0 {
		o.BaseCollapseRate = DefaultBaseCollapseRate
	}
	if o.DiagnosticsInterval <= 0 {
		o.DiagnosticsInterval = DefaultDiagnosticsInterval
	}
	if o.EnergyLogInterval <= 0 {
		o.EnergyLogInterval = DefaultEnergyLogInterval
	}
	if o.Logf == nil {
		o.Logf = log.Printf
	}
	return o, nil
}

func (o Options) params() Params {
	return Params{
		GridSize:          o.GridSize,
		DT:                o.DT,
		DX:                o.DX,
		WaveSpeedSq:       *o.WaveSpeedSq,
		MassSq:            *o.MassSq,
		CoherenceCoupling: DefaultCoupling,
	}
}

// Float64 returns a pointer to v, for the optional Options fields.
func Float64(v float64) *float64 { return &v }
