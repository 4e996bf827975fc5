package main

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"fieldsim/field"
)

const coherenceSchema = `
CREATE TABLE IF NOT EXISTS coherence_logs(
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	ts REAL NOT NULL,
	frame INTEGER NOT NULL,
	coupling REAL NOT NULL,
	integration REAL NOT NULL,
	stability REAL NOT NULL,
	energy REAL NOT NULL,
	frame_ms REAL NOT NULL,
	backend TEXT NOT NULL,
	source TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS ix_coherence_logs_ts ON coherence_logs(ts);
CREATE INDEX IF NOT EXISTS ix_coherence_logs_source ON coherence_logs(source);
`

// coherenceLog appends metrics snapshots to a sqlite table so runs can be
// compared afterwards.
type coherenceLog struct {
	db     *sql.DB
	insert *sql.Stmt
	runID  string
	source string
}

// coherenceRow is one stored snapshot.
type coherenceRow struct {
	RunID       string
	Time        time.Time
	Frame       int
	Coupling    float64
	Integration float64
	Stability   float64
	Energy      float64
	FrameMs     float64
	Backend     string
	Source      string
}

func openCoherenceLog(path, runID, source string) (*coherenceLog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening coherence log: %w", err)
	}
	if _, err := db.Exec(coherenceSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating coherence_logs: %w", err)
	}
	insert, err := db.Prepare(`INSERT INTO coherence_logs
		(run_id, ts, frame, coupling, integration, stability, energy, frame_ms, backend, source)
		VALUES(?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing coherence insert: %w", err)
	}
	return &coherenceLog{db: db, insert: insert, runID: runID, source: source}, nil
}

// record stores one metrics snapshot taken at ts.
func (l *coherenceLog) record(ts time.Time, m field.Metrics) error {
	_, err := l.insert.Exec(l.runID, float64(ts.UnixMilli())/1000.0, m.FrameCount,
		m.Coupling, m.Integration, m.Stability, m.Energy, m.FrameTimeMs,
		m.Backend.String(), l.source)
	return err
}

// recent returns the newest rows, newest first. An empty source matches
// every source.
func (l *coherenceLog) recent(limit int, source string) ([]coherenceRow, error) {
	rows, err := l.db.Query(`SELECT run_id, ts, frame, coupling, integration, stability,
		energy, frame_ms, backend, source FROM coherence_logs
		WHERE ? = '' OR source = ?
		ORDER BY ts DESC, id DESC LIMIT ?`, source, source, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []coherenceRow
	for rows.Next() {
		var r coherenceRow
		var ts float64
		if err := rows.Scan(&r.RunID, &ts, &r.Frame, &r.Coupling, &r.Integration,
			&r.Stability, &r.Energy, &r.FrameMs, &r.Backend, &r.Source); err != nil {
			return nil, err
		}
		r.Time = time.UnixMilli(int64(ts*1000 + 0.5))
		out = append(out, r)
	}
	return out, rows.Err()
}

func (l *coherenceLog) Close() error {
	if l == nil {
		return nil
	}
	l.insert.Close()
	return l.db.Close()
}
