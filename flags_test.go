package main

import (
	"flag"
	"path/filepath"
	"testing"

	"fieldsim/field"
)

func newTestFlags() (*flag.FlagSet, *int, *float64, *string) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	grid := fs.Int("grid", 512, "")
	dt := fs.Float64("dt", 0.05, "")
	backend := fs.String("backend", "auto", "")
	return fs, grid, dt, backend
}

func TestEnvKey(t *testing.T) {
	if got := envKey("coherence-db"); got != "FIELDSIM_COHERENCE_DB" {
		t.Fatalf("envKey = %q", got)
	}
}

func TestOverlayEnvPrecedence(t *testing.T) {
	envFile := writeFile(t, ".env", "FIELDSIM_GRID=128\nFIELDSIM_DT=0.01\nFIELDSIM_BACKEND=raster\n")
	t.Setenv("FIELDSIM_DT", "0.02")

	fs, grid, dt, backend := newTestFlags()
	if err := fs.Parse([]string{"-backend", "cpu"}); err != nil {
		t.Fatal(err)
	}
	if err := overlayEnv(fs, envFile); err != nil {
		t.Fatal(err)
	}
	if *grid != 128 {
		t.Errorf("grid = %d, want 128 from env file", *grid)
	}
	if *dt != 0.02 {
		t.Errorf("dt = %v, want 0.02 from environment", *dt)
	}
	if *backend != "cpu" {
		t.Errorf("backend = %q, command line must win", *backend)
	}
}

func TestOverlayEnvMissingFile(t *testing.T) {
	fs, grid, _, _ := newTestFlags()
	if err := overlayEnv(fs, filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatal(err)
	}
	if *grid != 512 {
		t.Fatalf("grid changed to %d", *grid)
	}
}

func TestOverlayEnvBadValue(t *testing.T) {
	t.Setenv("FIELDSIM_GRID", "huge")
	fs, _, _, _ := newTestFlags()
	if err := overlayEnv(fs, ""); err == nil {
		t.Fatal("invalid integer accepted")
	}
}

func TestSimOptionsKeepsZeroMass(t *testing.T) {
	saved := *massSqFlag
	t.Cleanup(func() { *massSqFlag = saved })
	*massSqFlag = 0

	opts, err := simOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.MassSq == nil || *opts.MassSq != 0 {
		t.Fatalf("MassSq = %v, want a pointer to 0", opts.MassSq)
	}
	if opts.GridSize != field.DefaultGridSize {
		t.Fatalf("grid default %d, want %d", opts.GridSize, field.DefaultGridSize)
	}
}
