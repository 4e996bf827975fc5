package field

// stencil holds the per-tick constants of the leapfrog update.
type stencil struct {
	n    int
	lap  float32
	mass float32
	prob float32
	seed uint32
	tick uint32
}

func newStencil(u Uniforms) stencil {
	return stencil{
		n:    u.GridSize,
		lap:  u.LapCoeff(),
		mass: u.MassCoeff(),
		prob: u.CollapseProb,
		seed: u.Seed,
		tick: u.Tick,
	}
}

// laplacianAt returns the undivided periodic 5-point Laplacian of src at (i, j).
func laplacianAt(src []float32, i, j, n int) float32 {
	nb := Neighbors(i, j, n)
	c := src[Wrap(i, n)*n+Wrap(j, n)]
	return src[nb[0]] + src[nb[1]] + src[nb[2]] + src[nb[3]] - 4*c
}

// advance computes one leapfrog update for a single channel.
func (s *stencil) advance(cur []float32, prev float32, idx, up, down, left, right int) float32 {
	c := cur[idx]
	lap := cur[up] + cur[down] + cur[left] + cur[right] - 4*c
	return 2*c - prev + s.lap*lap - s.mass*c
}

// stepRow writes the next state of row i into the previous pair and returns
// how many of its cells collapsed.
func (s *stencil) stepRow(g *Grid, i int) int {
	n := s.n
	curRe, curIm := g.Current()
	prevRe, prevIm := g.Previous()
	base := i * n
	up := Wrap(i-1, n) * n
	down := Wrap(i+1, n) * n
	count := 0
	for j := 0; j < n; j++ {
		idx := base + j
		if collapsed(s.prob, s.seed, s.tick, uint32(idx)) {
			prevRe[idx] = 0
			prevIm[idx] = 0
			count++
			continue
		}
		left := idx - 1
		if j == 0 {
			left = base + n - 1
		}
		right := idx + 1
		if j == n-1 {
			right = base
		}
		prevRe[idx] = s.advance(curRe, prevRe[idx], idx, up+j, down+j, left, right)
		prevIm[idx] = s.advance(curIm, prevIm[idx], idx, up+j, down+j, left, right)
	}
	return count
}
