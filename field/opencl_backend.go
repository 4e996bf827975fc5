//go:build opencl

package field

import (
	"fmt"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"
)

const fieldKernelSource = `uint pcg_hash(uint v)
{
    uint state = v * 747796405u + 2891336453u;
    uint word = ((state >> ((state >> 28u) + 4u)) ^ state) * 277803737u;
    return (word >> 22u) ^ word;
}

__kernel void field_step(
    const int n,
    const float lap_coeff,
    const float mass_coeff,
    const float collapse_prob,
    const int seed,
    const int tick,
    __global const float* cur_re,
    __global const float* cur_im,
    __global float* prev_re,
    __global float* prev_im)
{
    int j = get_global_id(0);
    int i = get_global_id(1);
    if (i >= n || j >= n) {
        return;
    }
    int idx = i * n + j;
    if (collapse_prob > 0.0f) {
        uint h = pcg_hash((uint)idx + pcg_hash((uint)tick + pcg_hash((uint)seed)));
        if ((float)(h >> 8) * (1.0f / 16777216.0f) < collapse_prob) {
            prev_re[idx] = 0.0f;
            prev_im[idx] = 0.0f;
            return;
        }
    }
    int up = ((i + n - 1) % n) * n + j;
    int down = ((i + 1) % n) * n + j;
    int left = i * n + (j + n - 1) % n;
    int right = i * n + (j + 1) % n;

    float c = cur_re[idx];
    float lap = cur_re[up] + cur_re[down] + cur_re[left] + cur_re[right] - 4.0f * c;
    prev_re[idx] = 2.0f * c - prev_re[idx] + lap_coeff * lap - mass_coeff * c;

    c = cur_im[idx];
    lap = cur_im[up] + cur_im[down] + cur_im[left] + cur_im[right] - 4.0f * c;
    prev_im[idx] = 2.0f * c - prev_im[idx] + lap_coeff * lap - mass_coeff * c;
}`

// Kernel argument slots.
const (
	argN = iota
	argLap
	argMass
	argCollapse
	argSeed
	argTick
	argCurRe
	argCurIm
	argPrevRe
	argPrevIm
)

// openCLBackend dispatches the stencil as a 2D NDRange kernel. The device
// keeps two buffer pairs and toggles between them like the host Grid.
type openCLBackend struct {
	grid       *Grid
	context    *cl.Context
	queue      *cl.CommandQueue
	program    *cl.Program
	kernel     *cl.Kernel
	bufs       [2][2]*cl.MemObject // [pair][re, im]
	cur        int
	n          int
	deviceName string
	coldStart  bool
}

func probeCompute(g *Grid) (Backend, error) {
	return newOpenCLBackend(g)
}

// pickDevice prefers a GPU and falls back to an OpenCL CPU device.
func pickDevice() (*cl.Device, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		return nil, fmt.Errorf("%w: querying OpenCL platforms: %v", ErrUnavailable, err)
	}
	if len(platforms) == 0 {
		return nil, fmt.Errorf("%w: no OpenCL platforms", ErrUnavailable)
	}
	for _, kind := range []cl.DeviceType{cl.DeviceTypeGPU, cl.DeviceTypeCPU} {
		for _, p := range platforms {
			devices, derr := p.GetDevices(kind)
			if derr != nil && derr != cl.ErrDeviceNotFound {
				continue
			}
			if len(devices) > 0 {
				return devices[0], nil
			}
		}
	}
	return nil, fmt.Errorf("%w: no suitable OpenCL devices found", ErrUnavailable)
}

func newOpenCLBackend(g *Grid) (*openCLBackend, error) {
	device, err := pickDevice()
	if err != nil {
		return nil, err
	}
	b := &openCLBackend{
		grid:       g,
		n:          g.n,
		deviceName: device.Name(),
		coldStart:  true,
	}
	// Close tolerates partially built backends, so every failure below
	// releases whatever was created so far.
	fail := func(format string, err error) (*openCLBackend, error) {
		b.Close()
		return nil, fmt.Errorf(format, err)
	}

	b.context, err = cl.CreateContext([]*cl.Device{device})
	if err != nil {
		return fail("creating OpenCL context: %w", err)
	}
	b.queue, err = b.context.CreateCommandQueue(device, 0)
	if err != nil {
		return fail("creating OpenCL command queue: %w", err)
	}
	b.program, err = b.context.CreateProgramWithSource([]string{fieldKernelSource})
	if err != nil {
		return fail("creating OpenCL program: %w", err)
	}
	if err := b.program.BuildProgram([]*cl.Device{device}, ""); err != nil {
		if buildErr, ok := err.(cl.BuildError); ok {
			b.Close()
			return nil, fmt.Errorf("building OpenCL program: %s", string(buildErr))
		}
		return fail("building OpenCL program: %w", err)
	}
	b.kernel, err = b.program.CreateKernel("field_step")
	if err != nil {
		return fail("creating OpenCL kernel: %w", err)
	}
	byteSize := b.n * b.n * int(unsafe.Sizeof(float32(0)))
	for p := range b.bufs {
		for ch := range b.bufs[p] {
			b.bufs[p][ch], err = b.context.CreateEmptyBuffer(cl.MemReadWrite, byteSize)
			if err != nil {
				return fail("allocating field buffer: %w", err)
			}
		}
	}
	if err := b.kernel.SetArgInt32(argN, int32(b.n)); err != nil {
		return fail("setting kernel arguments: %w", err)
	}
	return b, nil
}

func (b *openCLBackend) Kind() Kind { return KindCompute }

// DeviceName reports the OpenCL device in use.
func (b *openCLBackend) DeviceName() string { return b.deviceName }

func (b *openCLBackend) Configure(u Uniforms) error {
	if u.GridSize != b.n {
		return fmt.Errorf("configure: grid size %d, backend holds %d", u.GridSize, b.n)
	}
	if err := b.kernel.SetArgFloat32(argLap, u.LapCoeff()); err != nil {
		return fmt.Errorf("setting laplacian coefficient: %w", err)
	}
	if err := b.kernel.SetArgFloat32(argMass, u.MassCoeff()); err != nil {
		return fmt.Errorf("setting mass coefficient: %w", err)
	}
	if err := b.kernel.SetArgFloat32(argCollapse, u.CollapseProb); err != nil {
		return fmt.Errorf("setting collapse probability: %w", err)
	}
	if err := b.kernel.SetArgInt32(argSeed, int32(u.Seed)); err != nil {
		return fmt.Errorf("setting seed: %w", err)
	}
	if err := b.kernel.SetArgInt32(argTick, int32(u.Tick)); err != nil {
		return fmt.Errorf("setting tick: %w", err)
	}
	return nil
}

// upload copies both host snapshots to the device. Only needed once; after
// that the device stays authoritative.
func (b *openCLBackend) upload() error {
	curRe, curIm := b.grid.Current()
	prevRe, prevIm := b.grid.Previous()
	b.cur = 0
	cur, prev := b.bufs[b.cur], b.bufs[b.cur^1]
	for _, w := range []struct {
		buf  *cl.MemObject
		data []float32
	}{
		{cur[0], curRe},
		{cur[1], curIm},
		{prev[0], prevRe},
		{prev[1], prevIm},
	} {
		if _, err := b.queue.EnqueueWriteBufferFloat32(w.buf, true, 0, w.data, nil); err != nil {
			return fmt.Errorf("writing field buffer: %w", err)
		}
	}
	return nil
}

func (b *openCLBackend) bindBuffers() error {
	cur, prev := b.bufs[b.cur], b.bufs[b.cur^1]
	bindings := [...]*cl.MemObject{
		argCurRe:  cur[0],
		argCurIm:  cur[1],
		argPrevRe: prev[0],
		argPrevIm: prev[1],
	}
	for slot := argCurRe; slot <= argPrevIm; slot++ {
		if err := b.kernel.SetArgBuffer(slot, bindings[slot]); err != nil {
			return err
		}
	}
	return nil
}

// Step enqueues one tick without waiting for the device.
func (b *openCLBackend) Step() error {
	if b.coldStart {
		if err := b.upload(); err != nil {
			return err
		}
		b.coldStart = false
	}
	if err := b.bindBuffers(); err != nil {
		return fmt.Errorf("binding buffers: %w", err)
	}
	if _, err := b.queue.EnqueueNDRangeKernel(b.kernel, nil, []int{b.n, b.n}, nil, nil); err != nil {
		return fmt.Errorf("enqueueing kernel: %w", err)
	}
	if err := b.queue.Flush(); err != nil {
		return fmt.Errorf("flushing queue: %w", err)
	}
	b.cur ^= 1
	return nil
}

// Sync waits for queued ticks and mirrors the device snapshots into the Grid.
func (b *openCLBackend) Sync() error {
	if b.coldStart {
		return nil
	}
	curRe, curIm := b.grid.Current()
	prevRe, prevIm := b.grid.Previous()
	cur, prev := b.bufs[b.cur], b.bufs[b.cur^1]
	for _, r := range []struct {
		buf  *cl.MemObject
		data []float32
	}{
		{cur[0], curRe},
		{cur[1], curIm},
		{prev[0], prevRe},
		{prev[1], prevIm},
	} {
		if _, err := b.queue.EnqueueReadBufferFloat32(r.buf, true, 0, r.data, nil); err != nil {
			return fmt.Errorf("reading field buffer: %w", err)
		}
	}
	return nil
}

func (b *openCLBackend) Close() error {
	for p := range b.bufs {
		for ch := range b.bufs[p] {
			if b.bufs[p][ch] != nil {
				b.bufs[p][ch].Release()
				b.bufs[p][ch] = nil
			}
		}
	}
	if b.kernel != nil {
		b.kernel.Release()
		b.kernel = nil
	}
	if b.program != nil {
		b.program.Release()
		b.program = nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.context != nil {
		b.context.Release()
		b.context = nil
	}
	return nil
}
