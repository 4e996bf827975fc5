package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"fieldsim/field"
)

// bandSource feeds one EEG band-power record per frame into the simulator.
type bandSource interface {
	Next() field.BandPowers
	Name() string
}

// syntheticBands is a deterministic oscillator standing in for a headset.
// Alpha dominates on the upswing, so coupling drifts between roughly 0.3
// and 0.6 over one period.
type syntheticBands struct {
	frame  int
	period float64
}

func newSyntheticBands() *syntheticBands {
	return &syntheticBands{period: syntheticBandPeriod}
}

func (s *syntheticBands) Next() field.BandPowers {
	phase := 2 * math.Pi * float64(s.frame) / s.period
	s.frame++
	return field.BandPowers{
		Delta: 1 + 0.5*math.Sin(0.5*phase),
		Theta: 1 + 0.5*math.Sin(phase+1),
		Alpha: 1.5 + math.Sin(phase),
		Beta:  1 + 0.5*math.Cos(1.3*phase),
		Gamma: 0.5 + 0.4*math.Sin(2.1*phase),
	}
}

func (s *syntheticBands) Name() string { return "synthetic" }

// replayBands cycles through recorded band powers.
type replayBands struct {
	name    string
	records []field.BandPowers
	next    int
}

func (r *replayBands) Next() field.BandPowers {
	b := r.records[r.next]
	r.next = (r.next + 1) % len(r.records)
	return b
}

func (r *replayBands) Name() string { return r.name }

// loadBandFile reads one JSON object per line. Blank lines are skipped.
func loadBandFile(path string) (*replayBands, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []field.BandPowers
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		var b field.BandPowers
		if err := json.Unmarshal(text, &b); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		records = append(records, b)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, errors.New(path + ": no band records")
	}
	return &replayBands{name: "replay:" + filepath.Base(path), records: records}, nil
}

// openBandSource returns a replay of path, or the synthetic oscillator when
// path is empty.
func openBandSource(path string) (bandSource, error) {
	if path == "" {
		return newSyntheticBands(), nil
	}
	return loadBandFile(path)
}
