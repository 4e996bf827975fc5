package field

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// syncedBackend stands in for a device backend: it steps on the host but
// reports itself as raster and counts Sync calls.
type syncedBackend struct {
	*cpuBackend
	syncs  int
	closed bool
}

func (b *syncedBackend) Kind() Kind   { return KindRaster }
func (b *syncedBackend) Sync() error  { b.syncs++; return nil }
func (b *syncedBackend) Close() error { b.closed = true; return b.cpuBackend.Close() }

func TestParseKind(t *testing.T) {
	t.Parallel()
	cases := map[string]Kind{
		"":            KindAuto,
		"auto":        KindAuto,
		"compute":     KindCompute,
		"opencl":      KindCompute,
		"gpu-compute": KindCompute,
		"raster":      KindRaster,
		"shader":      KindRaster,
		"cpu":         KindCPU,
	}
	for in, want := range cases {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseKind("vulkan"); err == nil {
		t.Error("ParseKind accepted an unknown backend")
	}
	for _, k := range []Kind{KindAuto, KindCompute, KindRaster, KindCPU} {
		if got, err := ParseKind(k.String()); err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, err)
		}
	}
}

func TestSelectBackendFallsBackToCPU(t *testing.T) {
	t.Parallel()
	var logs []string
	o, err := Options{
		GridSize: 8,
		Only:     KindRaster,
		Raster:   func(*Grid) (Backend, error) { return nil, fmt.Errorf("no window: %w", ErrUnavailable) },
		Logf:     func(format string, args ...any) { logs = append(logs, fmt.Sprintf(format, args...)) },
	}.withDefaults()
	if err != nil {
		t.Fatal(err)
	}
	b := selectBackend(context.Background(), newGrid(8), o)
	defer b.Close()
	if b.Kind() != KindCPU {
		t.Fatalf("selected %v, want cpu", b.Kind())
	}
	if len(logs) != 1 || !strings.Contains(logs[0], "gpu-raster backend unavailable") {
		t.Fatalf("logs = %q", logs)
	}
}

func TestSelectBackendMissingRasterProbe(t *testing.T) {
	t.Parallel()
	var logs []string
	o, _ := Options{
		GridSize: 8,
		Only:     KindRaster,
		Logf:     func(format string, args ...any) { logs = append(logs, fmt.Sprintf(format, args...)) },
	}.withDefaults()
	b := selectBackend(context.Background(), newGrid(8), o)
	defer b.Close()
	if b.Kind() != KindCPU || len(logs) != 1 || !strings.Contains(logs[0], "not configured") {
		t.Fatalf("kind %v logs %q", b.Kind(), logs)
	}
}

func TestSelectBackendCanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	probed := false
	o, _ := Options{
		GridSize: 8,
		Only:     KindRaster,
		Raster:   func(*Grid) (Backend, error) { probed = true; return nil, errors.New("unreachable") },
		Logf:     quiet,
	}.withDefaults()
	b := selectBackend(ctx, newGrid(8), o)
	defer b.Close()
	if probed || b.Kind() != KindCPU {
		t.Fatalf("probed=%v kind=%v", probed, b.Kind())
	}
}

func TestInjectedBackendIsSynced(t *testing.T) {
	t.Parallel()
	var fake *syncedBackend
	s := newTestSimulator(t, Options{
		GridSize: 8,
		Only:     KindRaster,
		Raster: func(g *Grid) (Backend, error) {
			fake = &syncedBackend{cpuBackend: newCPUBackend(g, 1)}
			return fake, nil
		},
	})
	if s.BackendKind() != KindRaster {
		t.Fatalf("backend %v", s.BackendKind())
	}
	s.Visualize(nil)
	if fake.syncs != 0 {
		t.Fatal("synced before any device step")
	}
	stepN(t, s, 3)
	s.Visualize(nil)
	s.Visualize(nil)
	if fake.syncs != 1 {
		t.Fatalf("syncs = %d, want 1", fake.syncs)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if !fake.closed {
		t.Fatal("Close did not release the backend")
	}
}
