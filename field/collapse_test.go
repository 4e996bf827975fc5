package field

import (
	"math"
	"testing"
)

func TestGateUniformRange(t *testing.T) {
	t.Parallel()
	for idx := uint32(0); idx < 10000; idx++ {
		u := gateUniform(7, 3, idx)
		if u < 0 || u >= 1 {
			t.Fatalf("gateUniform(7,3,%d) = %v out of [0,1)", idx, u)
		}
	}
}

func TestGateUniformDeterministic(t *testing.T) {
	t.Parallel()
	if gateUniform(1, 2, 3) != gateUniform(1, 2, 3) {
		t.Fatal("gate draw is not a pure function of its inputs")
	}
	if gateUniform(1, 2, 3) == gateUniform(1, 3, 3) && gateUniform(1, 2, 4) == gateUniform(1, 3, 4) {
		t.Fatal("tick does not change the draw")
	}
}

func TestCollapsedRate(t *testing.T) {
	t.Parallel()
	const draws = 100000
	const prob = 0.25
	hits := 0
	for idx := uint32(0); idx < draws; idx++ {
		if collapsed(prob, 11, 42, idx) {
			hits++
		}
	}
	if rate := float64(hits) / draws; math.Abs(rate-prob) > 0.01 {
		t.Fatalf("collapse rate %.4f, want about %.2f", rate, prob)
	}
}

func TestCollapsedBounds(t *testing.T) {
	t.Parallel()
	for idx := uint32(0); idx < 1000; idx++ {
		if collapsed(0, 1, 1, idx) {
			t.Fatal("zero probability collapsed a cell")
		}
		if !collapsed(1, 1, 1, idx) {
			t.Fatal("probability one left a cell open")
		}
	}
}

func TestCollapseProb(t *testing.T) {
	t.Parallel()
	cases := []struct {
		base, coupling float64
		want           float32
	}{
		{0.001, 1, 0},
		{0.001, 0, 0.001},
		{0.1, 0.5, 0.05},
		{0.001, 2, 0},
		{0.001, -1, 0.001},
		{0.001, math.NaN(), 0.001},
	}
	for _, c := range cases {
		if got := collapseProb(c.base, c.coupling); math.Abs(float64(got-c.want)) > 1e-9 {
			t.Errorf("collapseProb(%v, %v) = %v, want %v", c.base, c.coupling, got, c.want)
		}
	}
}
