package field

// pair is one complex snapshot of the field, split into channels.
type pair struct {
	re []float32
	im []float32
}

// Grid stores the two snapshots required by the leapfrog solver. The pairs
// are allocated once; cur selects which of them is the current state.
type Grid struct {
	n    int
	bufs [2]pair
	cur  int
}

// newGrid allocates a Grid with properly sized buffers.
func newGrid(n int) *Grid {
	g := &Grid{n: n}
	for k := range g.bufs {
		g.bufs[k] = pair{
			re: make([]float32, n*n),
			im: make([]float32, n*n),
		}
	}
	return g
}

// Size returns the side length of the square grid.
func (g *Grid) Size() int { return g.n }

// Current returns the real and imaginary channels at time t.
func (g *Grid) Current() (re, im []float32) {
	p := g.bufs[g.cur]
	return p.re, p.im
}

// Previous returns the real and imaginary channels at time t-dt.
func (g *Grid) Previous() (re, im []float32) {
	p := g.bufs[g.cur^1]
	return p.re, p.im
}

// Swap makes the previous pair current. Backends write the next state into
// the previous pair and then call Swap.
func (g *Grid) Swap() {
	g.cur ^= 1
}

// At returns the current value of cell (i, j) with toroidal wrapping.
func (g *Grid) At(i, j int) complex64 {
	idx := Wrap(i, g.n)*g.n + Wrap(j, g.n)
	re, im := g.Current()
	return complex(re[idx], im[idx])
}

// Wrap maps k onto [0, n).
func Wrap(k, n int) int {
	k %= n
	if k < 0 {
		k += n
	}
	return k
}

// Neighbors returns the flat indices of the four stencil neighbors of (i, j)
// in the order up, down, left, right.
func Neighbors(i, j, n int) [4]int {
	up := Wrap(i-1, n)
	down := Wrap(i+1, n)
	left := Wrap(j-1, n)
	right := Wrap(j+1, n)
	i = Wrap(i, n)
	j = Wrap(j, n)
	return [4]int{up*n + j, down*n + j, i*n + left, i*n + right}
}
