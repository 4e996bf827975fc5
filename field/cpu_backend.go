package field

import "fmt"

// cpuBackend is the host reference implementation. With a single worker it
// is a plain nested loop; it is also the oracle the GPU backends are tested
// against.
type cpuBackend struct {
	grid      *Grid
	st        stencil
	pool      *rowPool
	collapsed int
}

func newCPUBackend(g *Grid, workers int) *cpuBackend {
	b := &cpuBackend{grid: g}
	if workers > 1 {
		b.pool = newRowPool(g, workers)
	}
	return b
}

func (b *cpuBackend) Kind() Kind { return KindCPU }

func (b *cpuBackend) Configure(u Uniforms) error {
	if u.GridSize != b.grid.n {
		return fmt.Errorf("configure: grid size %d, backend holds %d", u.GridSize, b.grid.n)
	}
	b.st = newStencil(u)
	return nil
}

// Step executes one CPU simulation tick and swaps the snapshots.
func (b *cpuBackend) Step() error {
	if b.pool != nil {
		b.collapsed = b.pool.run(&b.st)
	} else {
		count := 0
		for i := 0; i < b.grid.n; i++ {
			count += b.st.stepRow(b.grid, i)
		}
		b.collapsed = count
	}
	b.grid.Swap()
	return nil
}

func (b *cpuBackend) LastCollapsed() int { return b.collapsed }

func (b *cpuBackend) Close() error {
	if b.pool != nil {
		b.pool.close()
		b.pool = nil
	}
	return nil
}
