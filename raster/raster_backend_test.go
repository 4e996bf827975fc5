//go:build raster

package raster

import (
	"context"
	"errors"
	"math"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"fieldsim/field"
)

// These tests drive the shader through a real ebiten loop. Run them with
// `go test -tags raster ./raster` on a machine with a display.

var (
	gameStarted = make(chan struct{})
	gameDone    = make(chan struct{})
	gameErr     error
)

// loopGame keeps the ebiten loop alive until the tests finish.
type loopGame struct {
	once sync.Once
	stop <-chan struct{}
}

func (g *loopGame) Update() error {
	g.once.Do(func() { close(gameStarted) })
	select {
	case <-g.stop:
		return ebiten.Termination
	default:
		return nil
	}
}

func (g *loopGame) Draw(*ebiten.Image) {}

func (g *loopGame) Layout(int, int) (int, int) { return 32, 32 }

// TestMain runs the ebiten loop on the main goroutine, as RunGame requires,
// and the tests beside it.
func TestMain(m *testing.M) {
	finished := make(chan struct{})
	var code int
	go func() {
		code = m.Run()
		close(finished)
	}()
	if os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		gameErr = errors.New("no display")
	} else {
		ebiten.SetRunnableOnUnfocused(true)
		ebiten.SetWindowSize(32, 32)
		ebiten.SetWindowTitle("fieldsim raster test")
		gameErr = ebiten.RunGame(&loopGame{stop: finished})
	}
	close(gameDone)
	<-finished
	os.Exit(code)
}

func waitForGame(t *testing.T) {
	t.Helper()
	select {
	case <-gameStarted:
	case <-gameDone:
		t.Skipf("no ebiten game loop: %v", gameErr)
	}
}

func openSimulator(t *testing.T, opts field.Options) *field.Simulator {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s, err := field.Open(ctx, opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestShaderMatchesCPU(t *testing.T) {
	waitForGame(t)
	const (
		n     = 32
		ticks = 8
		tol   = 1e-4
	)
	base := field.Options{
		GridSize:        n,
		DisableCollapse: true,
		Logf:            func(string, ...any) {},
	}

	gpuOpts := base
	gpuOpts.Only = field.KindRaster
	gpuOpts.Raster = Probe
	gpu := openSimulator(t, gpuOpts)
	if gpu.BackendKind() != field.KindRaster {
		t.Skipf("raster backend not selected, got %s", gpu.BackendKind())
	}

	cpuOpts := base
	cpuOpts.Only = field.KindCPU
	cpu := openSimulator(t, cpuOpts)

	for k := 0; k < ticks; k++ {
		if err := gpu.Step(); err != nil {
			t.Fatalf("raster step %d: %v", k, err)
		}
		if err := cpu.Step(); err != nil {
			t.Fatalf("cpu step %d: %v", k, err)
		}
	}

	worst := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			g, c := gpu.At(i, j), cpu.At(i, j)
			dr := math.Abs(float64(real(g) - real(c)))
			di := math.Abs(float64(imag(g) - imag(c)))
			if dr > tol || di > tol {
				t.Fatalf("cell (%d, %d): raster %v, cpu %v", i, j, g, c)
			}
			worst = math.Max(worst, math.Max(dr, di))
		}
	}
	t.Logf("max deviation after %d ticks: %.3g", ticks, worst)

	if m := gpu.Metrics(); m.FrameCount != ticks || m.Backend != field.KindRaster {
		t.Fatalf("raster metrics %+v", m)
	}
}

func TestShaderMasslessMatchesCPU(t *testing.T) {
	waitForGame(t)
	const n = 16
	base := field.Options{
		GridSize:        n,
		MassSq:          field.Float64(0),
		DisableCollapse: true,
		Logf:            func(string, ...any) {},
	}
	gpuOpts := base
	gpuOpts.Only = field.KindRaster
	gpuOpts.Raster = Probe
	gpu := openSimulator(t, gpuOpts)
	if gpu.BackendKind() != field.KindRaster {
		t.Skipf("raster backend not selected, got %s", gpu.BackendKind())
	}
	cpuOpts := base
	cpuOpts.Only = field.KindCPU
	cpu := openSimulator(t, cpuOpts)

	for k := 0; k < 4; k++ {
		if err := gpu.Step(); err != nil {
			t.Fatal(err)
		}
		if err := cpu.Step(); err != nil {
			t.Fatal(err)
		}
	}
	// Edge cells exercise the wrapped neighbor lookups.
	for _, c := range [][2]int{{0, 0}, {0, n - 1}, {n - 1, 0}, {n - 1, n - 1}, {n / 2, n / 2}} {
		g, w := gpu.At(c[0], c[1]), cpu.At(c[0], c[1])
		if math.Abs(float64(real(g)-real(w))) > 1e-4 || math.Abs(float64(imag(g)-imag(w))) > 1e-4 {
			t.Fatalf("cell %v: raster %v, cpu %v", c, g, w)
		}
	}
}
