package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/guptarohit/asciigraph"

	"fieldsim/field"
)

// headlessRun drives a simulator without a window.
type headlessRun struct {
	sim   *field.Simulator
	bands bandSource
	clog  *coherenceLog
	ticks int
	every int
}

// run steps until ticks are done or ctx is canceled, then writes a report to
// w. An interrupted run still reports what it has.
func (r *headlessRun) run(ctx context.Context, w io.Writer) error {
	if r.every <= 0 {
		r.every = defaultRecordInterval
	}
	var trace []float64
	start := time.Now()
	done := 0
	for ; done < r.ticks; done++ {
		if ctx.Err() != nil {
			log.Printf("headless: interrupted after %d ticks", done)
			break
		}
		r.sim.IngestBands(r.bands.Next())
		if err := r.sim.Step(); err != nil {
			return err
		}
		if (done+1)%r.every != 0 {
			continue
		}
		energy := r.sim.Energy()
		trace = append(trace, energy)
		if r.clog != nil {
			if err := r.clog.record(time.Now(), r.sim.Metrics()); err != nil {
				return fmt.Errorf("recording coherence: %w", err)
			}
		}
	}
	return r.report(w, done, time.Since(start), trace)
}

func (r *headlessRun) report(w io.Writer, ticks int, elapsed time.Duration, trace []float64) error {
	m := r.sim.Metrics()
	fmt.Fprintf(w, "backend %s, grid %dx%d, %d ticks in %s (t=%.2f)\n",
		m.Backend, m.GridSize, m.GridSize, ticks, elapsed.Round(time.Millisecond), m.Time)
	if len(trace) > 1 {
		fmt.Fprintln(w, asciigraph.Plot(trace,
			asciigraph.Height(energyTraceHeight),
			asciigraph.Width(energyTraceWidth),
			asciigraph.Caption(fmt.Sprintf("energy every %d ticks", r.every))))
	}
	fmt.Fprintf(w, "energy %.6g, coupling %.3f, integration %.3f, stability %.3f\n",
		r.sim.Energy(), m.Coupling, m.Integration, m.Stability)
	fmt.Fprintf(w, "dominant wavenumber %d\n", field.DominantWavenumber(r.sim.Spectrum()))
	if r.clog == nil {
		return nil
	}
	rows, err := r.clog.recent(recentLogRows, r.clog.source)
	if err != nil {
		return fmt.Errorf("reading coherence log: %w", err)
	}
	for _, row := range rows {
		fmt.Fprintf(w, "  %s frame %d coupling %.3f energy %.6g (%s)\n",
			row.Time.Format(time.TimeOnly), row.Frame, row.Coupling, row.Energy, row.Backend)
	}
	return nil
}
