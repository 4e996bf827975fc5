// Package raster runs the field stencil as a full-screen shader pass. Each
// output pixel is one grid cell; neighbors are sampled from the current
// texture. It needs a running ebiten game loop, so only the viewer wires
// it in through field.Options.Raster.
package raster

import (
	"fmt"
	"image"

	"github.com/hajimehoshi/ebiten/v2"

	"fieldsim/field"
)

const shaderSource = `//kage:unit pixels

package main

var LapCoeff float
var MassCoeff float
var CollapseProb float
var Seed float
var Tick float
var Range float

func decode(c vec4) float {
	q := floor(c.r*255+0.5)*65536 + floor(c.g*255+0.5)*256 + floor(c.b*255+0.5)
	return q/16777215*2*Range - Range
}

func encode(v float) vec4 {
	t := clamp((v+Range)/(2*Range), 0, 1)
	q := floor(t*16777215 + 0.5)
	r := floor(q / 65536)
	g := floor((q - r*65536) / 256)
	b := q - r*65536 - g*256
	return vec4(r/255, g/255, b/255, 1)
}

func cell(pos vec2) float {
	return decode(imageSrc0UnsafeAt(imageSrc0Origin() + pos))
}

func gateUniform(pos vec2) float {
	return fract(sin(dot(pos+vec2(Tick*0.6180339, Seed), vec2(12.9898, 78.233))) * 43758.5453)
}

func Fragment(dstPos vec4, srcPos vec2, color vec4) vec4 {
	size := imageSrc0Size()
	pos := srcPos - imageSrc0Origin()
	if CollapseProb > 0 && gateUniform(floor(pos)) < CollapseProb {
		return encode(0)
	}
	up := vec2(pos.x, mod(pos.y-1+size.y, size.y))
	down := vec2(pos.x, mod(pos.y+1, size.y))
	left := vec2(mod(pos.x-1+size.x, size.x), pos.y)
	right := vec2(mod(pos.x+1, size.x), pos.y)
	c := cell(pos)
	prev := decode(imageSrc1UnsafeAt(imageSrc1Origin() + pos))
	lap := cell(up) + cell(down) + cell(left) + cell(right) - 4*c
	return encode(2*c - prev + LapCoeff*lap - MassCoeff*c)
}
`

// channel holds the three textures of one field component. The pass reads
// curr and prev and writes next, since a texture cannot be both source and
// destination of the same draw.
type channel struct {
	curr, prev, next *ebiten.Image
}

// rotate makes next current and current previous.
func (c *channel) rotate() {
	c.prev, c.curr, c.next = c.curr, c.next, c.prev
}

func (c *channel) deallocate() {
	for _, img := range []*ebiten.Image{c.curr, c.prev, c.next} {
		if img != nil {
			img.Deallocate()
		}
	}
}

// Backend is the shader/raster implementation of field.Backend.
type Backend struct {
	grid     *field.Grid
	n        int
	shader   *ebiten.Shader
	re, im   channel
	uniforms map[string]any
	op       ebiten.DrawRectShaderOptions
	pix      []byte
}

// Probe compiles the shader and uploads the seeded grid. It satisfies
// field.Probe.
func Probe(g *field.Grid) (field.Backend, error) {
	return New(g)
}

// New creates a raster backend for g.
func New(g *field.Grid) (*Backend, error) {
	shader, err := ebiten.NewShader([]byte(shaderSource))
	if err != nil {
		return nil, fmt.Errorf("compiling field shader: %w", err)
	}
	n := g.Size()
	b := &Backend{
		grid:     g,
		n:        n,
		shader:   shader,
		uniforms: map[string]any{"Range": float32(FixedRange)},
		pix:      make([]byte, n*n*4),
	}
	b.op.Blend = ebiten.BlendCopy
	b.op.Uniforms = b.uniforms
	for _, ch := range []*channel{&b.re, &b.im} {
		ch.curr = newFieldImage(n)
		ch.prev = newFieldImage(n)
		ch.next = newFieldImage(n)
	}
	b.upload()
	return b, nil
}

func newFieldImage(n int) *ebiten.Image {
	return ebiten.NewImageWithOptions(image.Rect(0, 0, n, n), &ebiten.NewImageOptions{Unmanaged: true})
}

func (b *Backend) upload() {
	curRe, curIm := b.grid.Current()
	prevRe, prevIm := b.grid.Previous()
	for _, w := range []struct {
		img    *ebiten.Image
		values []float32
	}{
		{b.re.curr, curRe},
		{b.re.prev, prevRe},
		{b.im.curr, curIm},
		{b.im.prev, prevIm},
	} {
		packChannel(b.pix, w.values)
		w.img.WritePixels(b.pix)
	}
}

func (b *Backend) Kind() field.Kind { return field.KindRaster }

func (b *Backend) Configure(u field.Uniforms) error {
	if u.GridSize != b.n {
		return fmt.Errorf("configure: grid size %d, backend holds %d", u.GridSize, b.n)
	}
	b.uniforms["LapCoeff"] = u.LapCoeff()
	b.uniforms["MassCoeff"] = u.MassCoeff()
	b.uniforms["CollapseProb"] = u.CollapseProb
	b.uniforms["Seed"], b.uniforms["Tick"] = hashInputs(u.Seed, u.Tick)
	return nil
}

// hashInputs folds seed and tick into the small floats the shader hash
// takes; float32 sin loses all precision on large arguments. Each wrap of
// the 4096-tick window shifts the seed, so the gate pattern only repeats
// after 4096*1024 ticks.
func hashInputs(seed, tick uint32) (float32, float32) {
	return float32((seed + tick>>12) % 1024), float32(tick % 4096)
}

// Step queues one pass per channel. Ebiten batches the draws and submits
// them with the next frame, so Step never waits for the GPU.
func (b *Backend) Step() error {
	for _, ch := range []*channel{&b.re, &b.im} {
		b.op.Images[0] = ch.curr
		b.op.Images[1] = ch.prev
		ch.next.DrawRectShader(b.n, b.n, b.shader, &b.op)
		ch.rotate()
	}
	return nil
}

// Sync reads both snapshots back into the grid.
func (b *Backend) Sync() error {
	curRe, curIm := b.grid.Current()
	prevRe, prevIm := b.grid.Previous()
	for _, r := range []struct {
		img    *ebiten.Image
		values []float32
	}{
		{b.re.curr, curRe},
		{b.re.prev, prevRe},
		{b.im.curr, curIm},
		{b.im.prev, prevIm},
	} {
		r.img.ReadPixels(b.pix)
		unpackChannel(r.values, b.pix)
	}
	return nil
}

func (b *Backend) Close() error {
	b.re.deallocate()
	b.im.deallocate()
	if b.shader != nil {
		b.shader.Deallocate()
		b.shader = nil
	}
	return nil
}
