package field

// pcgHash is the PCG output permutation used as a stateless hash. The
// compute kernel carries an identical copy so both backends draw the same
// collapse pattern.
func pcgHash(v uint32) uint32 {
	state := v*747796405 + 2891336453
	word := ((state >> ((state >> 28) + 4)) ^ state) * 277803737
	return (word >> 22) ^ word
}

// gateUniform returns a uniform draw in [0, 1) for one cell on one tick.
func gateUniform(seed, tick, idx uint32) float32 {
	h := pcgHash(idx + pcgHash(tick+pcgHash(seed)))
	return float32(h>>8) * (1.0 / 16777216.0)
}

// collapsed reports whether the cell is suppressed this tick.
func collapsed(prob float32, seed, tick, idx uint32) bool {
	if prob <= 0 {
		return false
	}
	return gateUniform(seed, tick, idx) < prob
}

// collapseProb maps the coupling onto a per-cell probability.
func collapseProb(baseRate, coupling float64) float32 {
	return float32(baseRate * (1 - clamp01(coupling)))
}
