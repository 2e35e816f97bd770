package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/arcontrol/internal/steering"
)

// Session is one run of the vehicle control loop.
type Session struct {
	ID             string     `json:"id"`
	Label          string     `json:"label"`
	Source         string     `json:"source"`
	SmoothingAlpha float64    `json:"smoothing_alpha"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	SampleCount    int        `json:"sample_count"`
}

// TracePoint is one recorded sample with the filter output it produced.
type TracePoint struct {
	Time      time.Time `json:"time"`
	RawX      float64   `json:"raw_x"`
	RawY      float64   `json:"raw_y"`
	FilteredX float64   `json:"filtered_x"`
	FilteredY float64   `json:"filtered_y"`
	Tilt      float64   `json:"tilt"`
}

// CommandRecord is one vehicle control command issued during a session.
type CommandRecord struct {
	Time    time.Time               `json:"time"`
	Touches int                     `json:"touches"`
	Command steering.ControlCommand `json:"command"`
}

// CreateSession inserts a new session with a random id.
func (db *DB) CreateSession(label, source string, alpha float64, startedAt time.Time) (Session, error) {
	s := Session{
		ID:             uuid.NewString(),
		Label:          label,
		Source:         source,
		SmoothingAlpha: alpha,
		StartedAt:      startedAt.UTC(),
	}
	_, err := db.Exec(
		`INSERT INTO sessions (session_id, label, source, smoothing_alpha, started_unix_nanos)
		VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.Label, s.Source, s.SmoothingAlpha, startedAt.UnixNano(),
	)
	if err != nil {
		return Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	return s, nil
}

// EndSession stamps the session's end time.
func (db *DB) EndSession(id string, endedAt time.Time) error {
	res, err := db.Exec(`UPDATE sessions SET ended_unix_nanos = ? WHERE session_id = ?`, endedAt.UnixNano(), id)
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

const sessionColumns = `s.session_id, s.label, s.source, s.smoothing_alpha, s.started_unix_nanos, s.ended_unix_nanos,
	(SELECT COUNT(*) FROM samples WHERE samples.session_id = s.session_id)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var (
		s       Session
		started int64
		ended   sql.NullInt64
	)
	if err := row.Scan(&s.ID, &s.Label, &s.Source, &s.SmoothingAlpha, &started, &ended, &s.SampleCount); err != nil {
		return Session{}, err
	}
	s.StartedAt = time.Unix(0, started).UTC()
	if ended.Valid {
		t := time.Unix(0, ended.Int64).UTC()
		s.EndedAt = &t
	}
	return s, nil
}

// GetSession returns the session with the given id.
func (db *DB) GetSession(id string) (Session, error) {
	row := db.QueryRow(`SELECT `+sessionColumns+` FROM sessions s WHERE s.session_id = ?`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	return s, nil
}

// ListSessions returns the most recent sessions first.
func (db *DB) ListSessions(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`SELECT `+sessionColumns+` FROM sessions s
		ORDER BY s.started_unix_nanos DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// RecordSample stores one filtered sample for a session.
func (db *DB) RecordSample(sessionID string, p TracePoint) error {
	_, err := db.Exec(
		`INSERT INTO samples (session_id, captured_unix_nanos, raw_x, raw_y, filtered_x, filtered_y, tilt)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sessionID, p.Time.UnixNano(), p.RawX, p.RawY, p.FilteredX, p.FilteredY, p.Tilt,
	)
	if err != nil {
		return fmt.Errorf("failed to record sample: %w", err)
	}
	return nil
}

// RecordCommand stores a vehicle command issued during a session.
func (db *DB) RecordCommand(sessionID string, c CommandRecord) error {
	_, err := db.Exec(
		`INSERT INTO commands (session_id, issued_unix_nanos, touches, engine_force, braking_force)
		VALUES (?, ?, ?, ?, ?)`,
		sessionID, c.Time.UnixNano(), c.Touches, c.Command.EngineForce, c.Command.BrakingForce,
	)
	if err != nil {
		return fmt.Errorf("failed to record command: %w", err)
	}
	return nil
}

// SessionTrace returns up to limit samples of a session in capture order.
// limit <= 0 returns all of them.
func (db *DB) SessionTrace(sessionID string, limit int) ([]TracePoint, error) {
	if _, err := db.GetSession(sessionID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(
		`SELECT captured_unix_nanos, raw_x, raw_y, filtered_x, filtered_y, tilt
		FROM samples WHERE session_id = ? ORDER BY sample_id LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trace []TracePoint
	for rows.Next() {
		var (
			p  TracePoint
			ns int64
		)
		if err := rows.Scan(&ns, &p.RawX, &p.RawY, &p.FilteredX, &p.FilteredY, &p.Tilt); err != nil {
			return nil, err
		}
		p.Time = time.Unix(0, ns).UTC()
		trace = append(trace, p)
	}
	return trace, rows.Err()
}

// SessionCommands returns the commands of a session in issue order.
func (db *DB) SessionCommands(sessionID string) ([]CommandRecord, error) {
	rows, err := db.Query(
		`SELECT issued_unix_nanos, touches, engine_force, braking_force
		FROM commands WHERE session_id = ? ORDER BY command_id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var commands []CommandRecord
	for rows.Next() {
		var (
			c  CommandRecord
			ns int64
		)
		if err := rows.Scan(&ns, &c.Touches, &c.Command.EngineForce, &c.Command.BrakingForce); err != nil {
			return nil, err
		}
		c.Time = time.Unix(0, ns).UTC()
		commands = append(commands, c)
	}
	return commands, rows.Err()
}
