package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/joho/godotenv"

	"fieldsim/field"
)

// Command-line flags. Any flag left unset on the command line can also be
// supplied as FIELDSIM_<NAME> in the environment or the env file.
var (
	gridSizeFlag     = flag.Int("grid", field.DefaultGridSize, "side length of the square field grid")
	dtFlag           = flag.Float64("dt", field.DefaultDT, "integration time step")
	dxFlag           = flag.Float64("dx", field.DefaultDX, "grid spacing")
	waveSpeedSqFlag  = flag.Float64("c2", field.DefaultWaveSpeedSq, "squared wave speed")
	massSqFlag       = flag.Float64("m2", field.DefaultMassSq, "squared mass term")
	collapseRateFlag = flag.Float64("collapse-rate", field.DefaultBaseCollapseRate, "per-cell collapse probability at zero coupling (0-1)")
	noCollapseFlag   = flag.Bool("no-collapse", false, "disable stochastic collapse")
	seedFlag         = flag.Uint("seed", 1, "collapse draw seed")

	// workersFlag splits CPU stepping across goroutines; 1 runs the plain loop.
	workersFlag = flag.Int("workers", runtime.NumCPU(), "CPU backend worker goroutines")

	// backendFlag restricts probing to one substrate. CPU stays the fallback.
	backendFlag = flag.String("backend", "auto", "execution backend: auto, compute, raster or cpu")

	ticksPerFrameFlag = flag.Int("ticks-per-frame", defaultTicksPerFrame, "simulation ticks per rendered frame (+/- while running)")

	headlessFlag     = flag.Bool("headless", false, "run without a window and print an energy report")
	ticksFlag        = flag.Int("ticks", defaultHeadlessTicks, "ticks to run in headless mode")
	recordEveryFlag  = flag.Int("record-every", defaultRecordInterval, "ticks (headless) or frames (viewer) between coherence log rows")
	diagIntervalFlag = flag.Int("diag-interval", field.DefaultDiagnosticsInterval, "ticks between energy samples")

	bandsFlag       = flag.String("bands", "", "JSONL file of band-power records to replay (default: synthetic oscillator)")
	coherenceDBFlag = flag.String("coherence-db", "", "sqlite file receiving coherence log rows")
	envFileFlag     = flag.String("env-file", ".env", "optional env file with FIELDSIM_* settings")

	cpuProfileFlag      = flag.String("cpuprofile", "", "write a CPU profile to this file")
	profileDurationFlag = flag.Duration("profile-duration", 0, "stop CPU profiling after this long (0 = whole run)")

	// debugFlag enables the FPS and simulation overlay.
	debugFlag = flag.Bool("debug", false, "show FPS and simulation overlay")
)

// envKey maps a flag name onto its environment variable.
func envKey(name string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// overlayEnv fills flags not given on the command line from the process
// environment, then from envFile. A missing envFile is not an error.
func overlayEnv(fs *flag.FlagSet, envFile string) error {
	fileVals := map[string]string{}
	if envFile != "" {
		vals, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileVals = vals
		case errors.Is(err, os.ErrNotExist):
		default:
			return fmt.Errorf("reading %s: %w", envFile, err)
		}
	}

	explicit := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	var errs []error
	fs.VisitAll(func(f *flag.Flag) {
		if explicit[f.Name] {
			return
		}
		key := envKey(f.Name)
		v, ok := os.LookupEnv(key)
		if !ok {
			v, ok = fileVals[key]
		}
		if !ok {
			return
		}
		if err := fs.Set(f.Name, v); err != nil {
			errs = append(errs, fmt.Errorf("%s=%q: %w", key, v, err))
		}
	})
	return errors.Join(errs...)
}

// simOptions builds simulator options from the parsed flags.
func simOptions() (field.Options, error) {
	only, err := field.ParseKind(*backendFlag)
	if err != nil {
		return field.Options{}, err
	}
	return field.Options{
		GridSize:            *gridSizeFlag,
		DT:                  *dtFlag,
		DX:                  *dxFlag,
		WaveSpeedSq:         field.Float64(*waveSpeedSqFlag),
		MassSq:              field.Float64(*massSqFlag),
		BaseCollapseRate:    *collapseRateFlag,
		DisableCollapse:     *noCollapseFlag,
		Seed:                uint32(*seedFlag),
		Workers:             *workersFlag,
		Only:                only,
		DiagnosticsInterval: *diagIntervalFlag,
	}, nil
}
