// Package field simulates a damped, massive complex scalar field (a
// Klein-Gordon-type wave equation) on a periodic square grid.
//
// A Simulator owns its grid and exactly one execution backend. The backend
// is chosen once, asynchronously, from the chain GPU compute → GPU raster →
// CPU; Step is a no-op until that choice has been made. An external
// collaborator pushes coherence metrics in through IngestBands or
// IngestCoherence, and a renderer pulls the field out through Visualize.
//
// A Simulator is not safe for concurrent use: Step, the ingest methods and
// the queries must be serialized by the caller.
package field

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// State is the backend lifecycle of a Simulator.
type State int32

const (
	Uninitialized State = iota
	Probing
	Ready
	Closed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Probing:
		return "probing"
	case Ready:
		return "ready"
	case Closed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

var (
	// ErrConcurrentStep is returned when Step is entered while another Step
	// on the same Simulator is still running.
	ErrConcurrentStep = errors.New("field: overlapping Step calls")
	// ErrClosed is returned by operations on a closed Simulator.
	ErrClosed = errors.New("field: simulator closed")
)

// Simulator advances the field one tick per Step call.
type Simulator struct {
	opts      Options
	params    Params
	coherence Coherence
	grid      *Grid
	tick      uint32
	diag      diagnostics
	hostStale bool

	// backend is written once by the probing goroutine before state
	// becomes Ready and read only after observing Ready.
	backend  Backend
	state    atomic.Int32
	ready    chan struct{}
	stepping atomic.Bool
}

// New validates opts, allocates the grid and seeds it. No backend is
// selected until Start.
func New(opts Options) (*Simulator, error) {
	o, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	s := &Simulator{
		opts:      o,
		params:    o.params(),
		coherence: Coherence{Coupling: DefaultCoupling},
		grid:      newGrid(o.GridSize),
		ready:     make(chan struct{}),
	}
	s.diag.scratch = make([]float64, o.GridSize*o.GridSize)
	s.diag.collapsed = -1
	seedGrid(s.grid, s.params)
	s.diag.energy = fieldEnergy(s.grid, s.params.DT, s.params.MassSq, s.diag.scratch)
	return s, nil
}

// Open creates a Simulator, starts backend selection and waits for it.
func Open(ctx context.Context, opts Options) (*Simulator, error) {
	s, err := New(opts)
	if err != nil {
		return nil, err
	}
	s.Start(ctx)
	if err := s.WaitReady(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Start begins asynchronous backend selection. Calls after the first are
// ignored.
func (s *Simulator) Start(ctx context.Context) {
	if !s.state.CompareAndSwap(int32(Uninitialized), int32(Probing)) {
		return
	}
	go func() {
		defer close(s.ready)
		b := selectBackend(ctx, s.grid, s.opts)
		s.backend = b
		if !s.state.CompareAndSwap(int32(Probing), int32(Ready)) {
			// Closed while probing.
			if err := b.Close(); err != nil {
				s.opts.Logf("field: releasing %s backend: %v", b.Kind(), err)
			}
			return
		}
		s.opts.Logf("field: %s backend ready (grid %dx%d)", b.Kind(), s.grid.n, s.grid.n)
	}()
}

// WaitReady blocks until a backend is selected or ctx is done.
func (s *Simulator) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		if s.State() == Closed {
			return ErrClosed
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State reports the lifecycle state.
func (s *Simulator) State() State { return State(s.state.Load()) }

// BackendKind reports the selected backend, or KindAuto before Ready.
func (s *Simulator) BackendKind() Kind {
	if s.State() != Ready {
		return KindAuto
	}
	return s.backend.Kind()
}

// Params returns the current simulation parameters.
func (s *Simulator) Params() Params { return s.params }

func (s *Simulator) uniforms() Uniforms {
	prob := collapseProb(s.opts.BaseCollapseRate, s.params.CoherenceCoupling)
	if s.opts.DisableCollapse {
		prob = 0
	}
	return Uniforms{
		Params:       s.params,
		CollapseProb: prob,
		Seed:         s.opts.Seed,
		Tick:         s.tick,
	}
}

// Step advances the field by one dt. Before a backend is ready it does
// nothing and returns nil.
func (s *Simulator) Step() error {
	switch s.State() {
	case Ready:
	case Closed:
		return ErrClosed
	default:
		return nil
	}
	if !s.stepping.CompareAndSwap(false, true) {
		return ErrConcurrentStep
	}
	defer s.stepping.Store(false)

	start := time.Now()
	if err := s.backend.Configure(s.uniforms()); err != nil {
		return fmt.Errorf("field: configuring %s backend: %w", s.backend.Kind(), err)
	}
	if err := s.backend.Step(); err != nil {
		return fmt.Errorf("field: stepping %s backend: %w", s.backend.Kind(), err)
	}
	s.tick++
	s.params.Time += s.params.DT
	if _, ok := s.backend.(Syncer); ok {
		s.hostStale = true
	}
	if c, ok := s.backend.(collapseCounter); ok {
		s.diag.collapsed = c.LastCollapsed()
	}
	s.diag.frameTime = time.Since(start)
	s.diag.frameCount++

	if s.diag.frameCount%s.opts.DiagnosticsInterval == 0 {
		s.sampleEnergy()
	}
	if s.diag.frameCount%s.opts.EnergyLogInterval == 0 {
		s.opts.Logf("field: frame %d t=%.2f energy %.6g (step %.3f ms)",
			s.diag.frameCount, s.params.Time, s.diag.energy, s.frameTimeMs())
	}
	return nil
}

// syncHost pulls device state into the grid when the backend keeps it off
// the host.
func (s *Simulator) syncHost() {
	if !s.hostStale || s.State() != Ready {
		return
	}
	if sy, ok := s.backend.(Syncer); ok {
		if err := sy.Sync(); err != nil {
			s.opts.Logf("field: syncing %s backend: %v", s.backend.Kind(), err)
			return
		}
	}
	s.hostStale = false
}

func (s *Simulator) sampleEnergy() {
	s.syncHost()
	s.diag.energy = fieldEnergy(s.grid, s.params.DT, s.params.MassSq, s.diag.scratch)
}

func (s *Simulator) frameTimeMs() float64 {
	return float64(s.diag.frameTime) / float64(time.Millisecond)
}

// At returns cell (i, j) of the current snapshot, pulling device state
// first when needed. Indices wrap.
func (s *Simulator) At(i, j int) complex64 {
	s.syncHost()
	return s.grid.At(i, j)
}

// Energy recomputes the field energy now instead of waiting for the next
// periodic sample.
func (s *Simulator) Energy() float64 {
	s.sampleEnergy()
	return s.diag.energy
}

// Visualize fills dst with per-cell intensity and phase of the current
// snapshot. A nil dst allocates a new Frame; passing the previous Frame
// back reuses its buffers.
func (s *Simulator) Visualize(dst *Frame) *Frame {
	if dst == nil {
		dst = &Frame{}
	}
	s.syncHost()
	dst.fill(s.grid)
	return dst
}

// Spectrum returns the normalized radial power spectrum of the field.
func (s *Simulator) Spectrum() []float64 {
	s.syncHost()
	return powerSpectrum(s.grid)
}

// Metrics returns the latest diagnostics snapshot.
func (s *Simulator) Metrics() Metrics {
	return Metrics{
		Coupling:    s.coherence.Coupling,
		Integration: s.coherence.Integration,
		Stability:   s.coherence.Stability,
		Energy:      s.diag.energy,
		FrameTimeMs: s.frameTimeMs(),
		FrameCount:  s.diag.frameCount,
		GridSize:    s.grid.n,
		Time:        s.params.Time,
		Backend:     s.BackendKind(),
		Collapsed:   s.diag.collapsed,
	}
}

// Close releases the backend. A Simulator closed while probing releases
// the backend as soon as probing finishes.
func (s *Simulator) Close() error {
	prev := State(s.state.Swap(int32(Closed)))
	if prev == Uninitialized {
		close(s.ready)
	}
	if prev != Ready {
		return nil
	}
	return s.backend.Close()
}
