package field

import (
	"math"
	"math/cmplx"
)

// phi is the golden ratio.
var phi = (1 + math.Sqrt(5)) / 2

const (
	packetCount      = 5
	packetRadiusStep = 20.0
)

// packet is one Gaussian wave packet of the initial superposition.
type packet struct {
	cx, cy    float64
	dirX      float64
	dirY      float64
	phase     float64
	amplitude float64
}

// initialPackets places the packets around the grid midpoint at angles
// spaced by 2π/φ, each further out, rotated in phase and damped by φ.
func initialPackets(n int) [packetCount]packet {
	var ps [packetCount]packet
	center := float64(n) / 2
	for m := range ps {
		angle := float64(m) * 2 * math.Pi / phi
		radius := float64(m) * packetRadiusStep
		ps[m] = packet{
			cx:        center + radius*math.Cos(angle),
			cy:        center + radius*math.Sin(angle),
			dirX:      math.Cos(angle),
			dirY:      math.Sin(angle),
			phase:     float64(m) * math.Pi / 3,
			amplitude: math.Pow(phi, -float64(m)),
		}
	}
	return ps
}

// packetWidth is the Gaussian standard deviation in cells.
func packetWidth(n int) float64 {
	return math.Max(float64(n)/24, 2)
}

// periodicDelta returns the minimum-image displacement on a ring of size n,
// in (-n/2, n/2]. A displacement of exactly half the ring maps to +n/2.
func periodicDelta(d float64, n int) float64 {
	size := float64(n)
	return d - size*math.Ceil(d/size-0.5)
}

// seedGrid writes the initial superposition into both snapshots. The
// previous snapshot is the same field one dt earlier, ψ(−dt) = ψ(0)·e^{iωdt},
// so the packets start moving instead of standing still. Pure function of
// its inputs: no randomness is involved.
func seedGrid(g *Grid, p Params) {
	n := g.n
	sigma := packetWidth(n)
	k := phi / sigma
	omega := math.Sqrt(p.WaveSpeedSq * (k*k + p.MassSq))
	back := cmplx.Exp(complex(0, omega*p.DT))
	packets := initialPackets(n)
	inv2s2 := 1 / (2 * sigma * sigma)

	curRe, curIm := g.Current()
	prevRe, prevIm := g.Previous()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var psi complex128
			for _, pk := range packets {
				dx := periodicDelta(float64(j)-pk.cx, n)
				dy := periodicDelta(float64(i)-pk.cy, n)
				env := pk.amplitude * math.Exp(-(dx*dx+dy*dy)*inv2s2)
				arg := k*(dx*pk.dirX+dy*pk.dirY) + pk.phase
				psi += complex(env*math.Cos(arg), env*math.Sin(arg))
			}
			idx := i*n + j
			curRe[idx] = float32(real(psi))
			curIm[idx] = float32(imag(psi))
			prev := psi * back
			prevRe[idx] = float32(real(prev))
			prevIm[idx] = float32(imag(prev))
		}
	}
}
