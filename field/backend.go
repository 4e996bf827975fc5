package field

import (
	"context"
	"errors"
	"fmt"
)

// Kind identifies an execution substrate.
type Kind int

const (
	KindAuto Kind = iota
	KindCompute
	KindRaster
	KindCPU
)

func (k Kind) String() string {
	switch k {
	case KindAuto:
		return "auto"
	case KindCompute:
		return "gpu-compute"
	case KindRaster:
		return "gpu-raster"
	case KindCPU:
		return "cpu"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts the names printed by Kind.String plus the short forms
// "compute" and "raster".
func ParseKind(s string) (Kind, error) {
	switch s {
	case "", "auto":
		return KindAuto, nil
	case "gpu-compute", "compute", "opencl":
		return KindCompute, nil
	case "gpu-raster", "raster", "shader":
		return KindRaster, nil
	case "cpu":
		return KindCPU, nil
	}
	return KindAuto, fmt.Errorf("unknown backend %q", s)
}

// Backend executes the stencil and integrator on one substrate. Every
// implementation produces the same field within float32 tolerance.
type Backend interface {
	Kind() Kind
	// Configure uploads the uniforms used by the following Step.
	Configure(u Uniforms) error
	// Step advances the field by one dt, including the buffer swap.
	Step() error
	// Close releases any resources held by the backend.
	Close() error
}

// Syncer is implemented by backends whose authoritative state lives off the
// host. Sync blocks until device work finishes and copies the current and
// previous snapshots into the Grid.
type Syncer interface {
	Sync() error
}

// collapseCounter is implemented by backends that count gated cells.
type collapseCounter interface {
	LastCollapsed() int
}

// Probe attempts to create a backend operating on g.
type Probe func(g *Grid) (Backend, error)

// ErrUnavailable reports that a substrate is not present on this machine.
var ErrUnavailable = errors.New("backend unavailable")

type candidate struct {
	kind  Kind
	probe Probe
}

// selectBackend walks the fallback chain and returns the first backend that
// initializes. The CPU backend cannot fail, so a backend is always returned.
func selectBackend(ctx context.Context, g *Grid, o Options) Backend {
	chain := []candidate{
		{KindCompute, probeCompute},
		{KindRaster, o.Raster},
	}
	for _, c := range chain {
		if o.Only != KindAuto && o.Only != c.kind {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		if c.probe == nil {
			o.Logf("field: %s backend not configured", c.kind)
			continue
		}
		b, err := c.probe(g)
		if err != nil {
			o.Logf("field: %s backend unavailable: %v", c.kind, err)
			continue
		}
		return b
	}
	return newCPUBackend(g, o.Workers)
}
