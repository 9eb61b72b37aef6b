// Package scanlog persists scan session summaries to sqlite. Only session
// metadata and counters are stored; point clouds themselves are never
// written to disk.
package scanlog

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"gonum.org/v1/gonum/stat"

	"github.com/ln6000/lidar-unity/internal/monitoring"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS scan_sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL UNIQUE,
	sensor_id TEXT NOT NULL,
	status TEXT NOT NULL,
	rays_total INTEGER NOT NULL,
	rays_cast INTEGER NOT NULL DEFAULT 0,
	hits INTEGER NOT NULL DEFAULT 0,
	points_emitted INTEGER NOT NULL DEFAULT 0,
	started_at TEXT NOT NULL,
	completed_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_scan_sessions_sensor_started
	ON scan_sessions(sensor_id, started_at DESC);
`

// SessionRecord is a persisted scan session summary.
type SessionRecord struct {
	ID            int64      `json:"id"`
	SessionID     string     `json:"session_id"`
	SensorID      string     `json:"sensor_id"`
	Status        string     `json:"status"`
	RaysTotal     int        `json:"rays_total"`
	RaysCast      int        `json:"rays_cast"`
	Hits          int        `json:"hits"`
	PointsEmitted int        `json:"points_emitted"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// Store provides persistence for scan session summaries.
type Store struct {
	db *sql.DB
}

// Open opens (and if necessary initialises) the scan log database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening scan log database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialising scan log schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SessionStarted implements scan.Recorder: it inserts a running session
// record at admission time.
func (s *Store) SessionStarted(sessionID, sensorID string, startedAt time.Time, raysTotal int) {
	query := `
		INSERT INTO scan_sessions (session_id, sensor_id, status, rays_total, started_at)
		VALUES (?, ?, 'running', ?, ?)
	`
	err := retryOnBusy(func() error {
		_, err := s.db.Exec(query, sessionID, sensorID, raysTotal,
			startedAt.UTC().Format(time.RFC3339Nano))
		return err
	})
	if err != nil {
		// Persistence is best-effort from the scheduler's point of view;
		// the scan itself proceeds regardless.
		monitoring.Logf("failed to record scan session %s start: %v", sessionID, err)
	}
}

// SessionCompleted implements scan.Recorder: it finalises the session row
// with its counters when the quota is exhausted.
func (s *Store) SessionCompleted(sessionID string, completedAt time.Time, raysCast, hits, pointsEmitted int) {
	query := `
		UPDATE scan_sessions
		SET status = 'completed', rays_cast = ?, hits = ?, points_emitted = ?, completed_at = ?
		WHERE session_id = ?
	`
	err := retryOnBusy(func() error {
		_, err := s.db.Exec(query, raysCast, hits, pointsEmitted,
			completedAt.UTC().Format(time.RFC3339Nano), sessionID)
		return err
	})
	if err != nil {
		monitoring.Logf("failed to record scan session %s completion: %v", sessionID, err)
	}
}

// GetSession returns one session record, or nil when it does not exist.
func (s *Store) GetSession(sessionID string) (*SessionRecord, error) {
	query := `
		SELECT id, session_id, sensor_id, status, rays_total, rays_cast, hits,
		       points_emitted, started_at, completed_at
		FROM scan_sessions
		WHERE session_id = ?
	`
	rec, err := scanSessionRow(s.db.QueryRow(query, sessionID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying scan session %s: %w", sessionID, err)
	}
	return rec, nil
}

// ListRecent returns recent sessions for a sensor, most recent first.
func (s *Store) ListRecent(sensorID string, limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	query := `
		SELECT id, session_id, sensor_id, status, rays_total, rays_cast, hits,
		       points_emitted, started_at, completed_at
		FROM scan_sessions
		WHERE sensor_id = ?
		ORDER BY started_at DESC
		LIMIT ?
	`
	rows, err := s.db.Query(query, sensorID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing scan sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionRecord
	for rows.Next() {
		rec, err := scanSessionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		sessions = append(sessions, *rec)
	}
	return sessions, rows.Err()
}

// Summary aggregates completed sessions for a sensor: hit rate is
// hits/raysCast per session; mean and stddev run over sessions that cast at
// least one ray.
type Summary struct {
	Sessions      int     `json:"sessions"`
	RaysCast      int64   `json:"rays_cast"`
	PointsEmitted int64   `json:"points_emitted"`
	HitRateMean   float64 `json:"hit_rate_mean"`
	HitRateStddev float64 `json:"hit_rate_stddev"`
}

// Summarize computes summary statistics over completed sessions.
func (s *Store) Summarize(sensorID string) (Summary, error) {
	query := `
		SELECT rays_cast, hits, points_emitted
		FROM scan_sessions
		WHERE sensor_id = ? AND status = 'completed'
	`
	rows, err := s.db.Query(query, sensorID)
	if err != nil {
		return Summary{}, fmt.Errorf("summarising scan sessions: %w", err)
	}
	defer rows.Close()

	var out Summary
	var hitRates []float64
	for rows.Next() {
		var raysCast, hits, emitted int64
		if err := rows.Scan(&raysCast, &hits, &emitted); err != nil {
			return Summary{}, fmt.Errorf("scanning summary row: %w", err)
		}
		out.Sessions++
		out.RaysCast += raysCast
		out.PointsEmitted += emitted
		if raysCast > 0 {
			hitRates = append(hitRates, float64(hits)/float64(raysCast))
		}
	}
	if err := rows.Err(); err != nil {
		return Summary{}, err
	}
	if len(hitRates) > 0 {
		mean, std := stat.MeanStdDev(hitRates, nil)
		out.HitRateMean = mean
		if len(hitRates) > 1 {
			out.HitRateStddev = std
		}
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSessionRow(row rowScanner) (*SessionRecord, error) {
	var rec SessionRecord
	var startedAt string
	var completedAt sql.NullString
	if err := row.Scan(&rec.ID, &rec.SessionID, &rec.SensorID, &rec.Status,
		&rec.RaysTotal, &rec.RaysCast, &rec.Hits, &rec.PointsEmitted,
		&startedAt, &completedAt); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing started_at: %w", err)
	}
	rec.StartedAt = t
	if completedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing completed_at: %w", err)
		}
		rec.CompletedAt = &t
	}
	return &rec, nil
}

// retryOnBusy retries a write a few times when sqlite reports the database
// is locked by a concurrent reader.
func retryOnBusy(op func() error) error {
	var err error
	for attempt := 0; attempt < 5; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		msg := err.Error()
		if !strings.Contains(msg, "database is locked") && !strings.Contains(msg, "SQLITE_BUSY") {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * 10 * time.Millisecond)
	}
	return err
}
