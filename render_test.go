package main

import (
	"math"
	"testing"

	"fieldsim/field"
)

func TestHSVToRGB(t *testing.T) {
	cases := []struct {
		h, s, v float64
		r, g, b byte
	}{
		{0, 1, 1, 255, 0, 0},
		{1.0 / 3, 1, 1, 0, 255, 0},
		{2.0 / 3, 1, 1, 0, 0, 255},
		{1, 1, 1, 255, 0, 0},
		{0.5, 0, 1, 255, 255, 255},
		{0.25, 1, 0, 0, 0, 0},
		{0, 1, 2, 255, 0, 0},
	}
	for _, c := range cases {
		r, g, b := hsvToRGB(c.h, c.s, c.v)
		if r != c.r || g != c.g || b != c.b {
			t.Errorf("hsvToRGB(%v,%v,%v) = (%d,%d,%d), want (%d,%d,%d)", c.h, c.s, c.v, r, g, b, c.r, c.g, c.b)
		}
	}
}

func TestFillPixels(t *testing.T) {
	f := &field.Frame{
		Size:         2,
		Intensity:    []float64{4, 0, 2, 1},
		Phase:        []float64{-math.Pi, 0, math.Pi / 2, math.Pi},
		MaxIntensity: 4,
	}
	pix := make([]byte, 16)
	fillPixels(pix, f)
	if pix[0] != 255 || pix[1] != 0 || pix[2] != 0 || pix[3] != 255 {
		t.Fatalf("brightest cell = %v", pix[0:4])
	}
	if pix[4] != 0 || pix[5] != 0 || pix[6] != 0 || pix[7] != 255 {
		t.Fatalf("empty cell = %v", pix[4:8])
	}
}

func TestClampTicks(t *testing.T) {
	if clampTicks(0) != minTicksPerFrame || clampTicks(1000) != maxTicksPerFrame || clampTicks(5) != 5 {
		t.Fatal("clampTicks bounds")
	}
	g := &Game{ticksPerFrame: maxTicksPerFrame}
	g.adjustTicksPerFrame(ticksPerFrameStep)
	if g.ticksPerFrame != maxTicksPerFrame {
		t.Fatalf("ticks per frame %d", g.ticksPerFrame)
	}
}
