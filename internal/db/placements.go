package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/banshee-data/arcontrol/internal/geom"
)

// PlacementRecord is one forward point handed to the scene.
type PlacementRecord struct {
	SessionID string     `json:"session_id,omitempty"`
	Site      string     `json:"site"`
	Distance  float64    `json:"distance"`
	Point     geom.Point `json:"point"`
	Time      time.Time  `json:"time"`
}

// RecordPlacement stores a placement. An empty SessionID stores it unattached.
func (db *DB) RecordPlacement(p PlacementRecord) error {
	session := sql.NullString{String: p.SessionID, Valid: p.SessionID != ""}
	_, err := db.Exec(
		`INSERT INTO placements (session_id, site, distance, x, y, z, placed_unix_nanos)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session, p.Site, p.Distance, p.Point.X, p.Point.Y, p.Point.Z, p.Time.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record placement: %w", err)
	}
	return nil
}

// RecentPlacements returns the latest placements first, optionally filtered
// by site.
func (db *DB) RecentPlacements(site string, limit int) ([]PlacementRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(
		`SELECT session_id, site, distance, x, y, z, placed_unix_nanos FROM placements
		WHERE ? = '' OR site = ?
		ORDER BY placement_id DESC LIMIT ?`,
		site, site, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlacementRecord
	for rows.Next() {
		var (
			p       PlacementRecord
			session sql.NullString
			ns      int64
		)
		if err := rows.Scan(&session, &p.Site, &p.Distance, &p.Point.X, &p.Point.Y, &p.Point.Z, &ns); err != nil {
			return nil, err
		}
		p.SessionID = session.String
		p.Time = time.Unix(0, ns).UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}
