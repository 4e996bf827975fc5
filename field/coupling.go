package field

import "math"

// BandPowers is one EEG band-power record as produced by the metrics
// collaborator. Units are arbitrary; only ratios matter.
type BandPowers struct {
	Delta float64 `json:"delta"`
	Theta float64 `json:"theta"`
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
}

// Coherence is the reduced metrics triple. Only Coupling reaches the
// integrator; Integration and Stability are kept for diagnostics.
type Coherence struct {
	Coupling    float64 `json:"coupling"`
	Integration float64 `json:"integration"`
	Stability   float64 `json:"stability"`
}

// Reduce turns band powers into a coherence triple. Negative or non-finite
// powers count as zero, and an empty denominator yields zero.
func (b BandPowers) Reduce() Coherence {
	delta, theta, alpha := nonNegative(b.Delta), nonNegative(b.Theta), nonNegative(b.Alpha)
	beta, gamma := nonNegative(b.Beta), nonNegative(b.Gamma)
	total := delta + theta + alpha + beta + gamma
	return Coherence{
		Coupling:    ratio(alpha+theta, total),
		Integration: ratio(gamma, beta+gamma),
		Stability:   ratio(delta+theta+alpha, total),
	}.clamped()
}

func (c Coherence) clamped() Coherence {
	return Coherence{
		Coupling:    clamp01(c.Coupling),
		Integration: clamp01(c.Integration),
		Stability:   clamp01(c.Stability),
	}
}

// clamp01 constrains v to [0, 1]. NaN maps to 0.
func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}

// IngestCoherence stores a pre-computed triple after clamping. It takes
// effect on the next Step and must not run concurrently with Step.
func (s *Simulator) IngestCoherence(c Coherence) {
	s.coherence = c.clamped()
	s.params.CoherenceCoupling = s.coherence.Coupling
}

// IngestBands reduces a band-power record and stores the result.
func (s *Simulator) IngestBands(b BandPowers) {
	s.IngestCoherence(b.Reduce())
}
