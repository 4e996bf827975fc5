package main

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// handleDebugControls processes the ticks-per-frame hotkeys.
func (g *Game) handleDebugControls() {
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) || inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract) {
		g.adjustTicksPerFrame(-ticksPerFrameStep)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) || inpututil.IsKeyJustPressed(ebiten.KeyKPAdd) {
		g.adjustTicksPerFrame(ticksPerFrameStep)
	}
}

// adjustTicksPerFrame changes the simulation batch size within bounds.
func (g *Game) adjustTicksPerFrame(delta int) {
	g.ticksPerFrame = clampTicks(g.ticksPerFrame + delta)
}

func clampTicks(n int) int {
	if n < minTicksPerFrame {
		return minTicksPerFrame
	}
	if n > maxTicksPerFrame {
		return maxTicksPerFrame
	}
	return n
}

// simStepsPerSecond returns the nominal ticks executed each second.
func (g *Game) simStepsPerSecond() float64 {
	return defaultTPS * float64(g.ticksPerFrame)
}
