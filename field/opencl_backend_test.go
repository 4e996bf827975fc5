//go:build opencl

package field

import (
	"errors"
	"math"
	"testing"
)

func TestOpenCLMatchesCPU(t *testing.T) {
	gpu := newTestSimulator(t, Options{GridSize: 32, DisableCollapse: true, Only: KindCompute})
	if gpu.BackendKind() != KindCompute {
		t.Skip("no OpenCL device available")
	}
	cpu := newTestSimulator(t, Options{GridSize: 32, DisableCollapse: true})
	stepN(t, gpu, 50)
	stepN(t, cpu, 50)

	g := gpu.Visualize(nil)
	c := cpu.Visualize(nil)
	for idx := range c.Intensity {
		if math.Abs(g.Intensity[idx]-c.Intensity[idx]) > 1e-4 {
			t.Fatalf("cell %d: gpu %v cpu %v", idx, g.Intensity[idx], c.Intensity[idx])
		}
	}
}

func TestOpenCLCollapseMatchesCPU(t *testing.T) {
	opts := Options{GridSize: 16, BaseCollapseRate: 0.05, Seed: 4, Only: KindCompute}
	gpu := newTestSimulator(t, opts)
	if gpu.BackendKind() != KindCompute {
		t.Skip("no OpenCL device available")
	}
	opts.Only = KindCPU
	cpu := newTestSimulator(t, opts)
	for _, s := range []*Simulator{gpu, cpu} {
		s.IngestCoherence(Coherence{Coupling: 0})
		stepN(t, s, 10)
	}
	gpu.Visualize(nil)
	gr, _ := gpu.grid.Current()
	cr, _ := cpu.grid.Current()
	for idx := range cr {
		if (gr[idx] == 0) != (cr[idx] == 0) {
			t.Fatalf("cell %d collapsed on one backend only: gpu %v cpu %v", idx, gr[idx], cr[idx])
		}
	}
}

func TestPickDeviceFailuresAreUnavailable(t *testing.T) {
	d, err := pickDevice()
	if err == nil {
		if d == nil {
			t.Fatal("pickDevice returned neither a device nor an error")
		}
		return
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("pickDevice error %v does not wrap ErrUnavailable", err)
	}
}
