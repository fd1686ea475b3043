// Package sqlite persists ingested waypoints and reconstructed flights
// to a daily SQLite database.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/skyward-data/flighttrace/internal/flight"
	"github.com/skyward-data/flighttrace/internal/waypoint"
	"github.com/skyward-data/flighttrace/pkg/logger"
)

const timeLayout = time.RFC3339Nano

// FlightSummary is one flights-table row as returned to the API
type FlightSummary struct {
	FlightID      string    `json:"flight_id"`
	Address       string    `json:"icao_address"`
	Day           string    `json:"day"`
	FirstSeen     time.Time `json:"first_seen"`
	LastSeen      time.Time `json:"last_seen"`
	WaypointCount int       `json:"waypoint_count"`
	MinLat        float64   `json:"min_lat"`
	MaxLat        float64   `json:"max_lat"`
	MinLon        float64   `json:"min_lon"`
	MaxLon        float64   `json:"max_lon"`
}

// WaypointStorage is a SQLite-based storage for waypoints and flights
type WaypointStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewWaypointStorage creates a new SQLite-based waypoint storage
func NewWaypointStorage(dbPath string, log *logger.Logger) (*WaypointStorage, error) {
	storageLogger := log.Named("sqlite")

	storageLogger.Info("Initializing SQLite storage",
		logger.String("path", dbPath))

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// Set pragmas for better performance and concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := initDatabase(db, storageLogger); err != nil {
		db.Close()
		return nil, err
	}

	return &WaypointStorage{
		db:     db,
		logger: storageLogger,
	}, nil
}

// Close closes the database connection
func (s *WaypointStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// GetDB returns the database connection
func (s *WaypointStorage) GetDB() *sql.DB {
	return s.db
}

// initDatabase initializes the database schema
func initDatabase(db *sql.DB, log *logger.Logger) error {
	log.Info("Initializing database schema")

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS waypoints (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			day TEXT,
			timestamp TEXT,
			icao_address TEXT,
			flight_id TEXT,
			latitude REAL,
			longitude REAL,
			altitude_ft REAL,
			tail_number TEXT,
			collection_type TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create waypoints table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS flights (
			flight_id TEXT,
			day TEXT,
			icao_address TEXT,
			first_seen TEXT,
			last_seen TEXT,
			waypoint_count INTEGER,
			min_lat REAL,
			max_lat REAL,
			min_lon REAL,
			max_lon REAL,
			PRIMARY KEY (flight_id, day)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create flights table: %w", err)
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_waypoints_flight ON waypoints(flight_id)`); err != nil {
		return fmt.Errorf("failed to create waypoint flight index: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_waypoints_day ON waypoints(day)`); err != nil {
		return fmt.Errorf("failed to create waypoint day index: %w", err)
	}

	return nil
}

// SaveRun persists one ingested day: the imputed waypoint batch and the
// flights reconstructed from it, in a single transaction. Re-running a
// day replaces its previous rows.
func (s *WaypointStorage) SaveRun(runID string, day time.Time, batch waypoint.Batch, flights []flight.Flight) error {
	dayStr := day.UTC().Format("2006-01-02")

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM waypoints WHERE day = ?`, dayStr); err != nil {
		return fmt.Errorf("failed to clear waypoints for day: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM flights WHERE day = ?`, dayStr); err != nil {
		return fmt.Errorf("failed to clear flights for day: %w", err)
	}

	wpStmt, err := tx.Prepare(`
		INSERT INTO waypoints (run_id, day, timestamp, icao_address, flight_id,
			latitude, longitude, altitude_ft, tail_number, collection_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare waypoint insert: %w", err)
	}
	defer wpStmt.Close()

	for i := range batch {
		w := &batch[i]
		fid := ""
		if w.FlightID != nil {
			fid = *w.FlightID
		}
		if _, err := wpStmt.Exec(runID, dayStr, w.Timestamp.UTC().Format(timeLayout),
			w.Address, fid, w.Latitude, w.Longitude, w.AltitudeFt,
			w.TailNumber, w.CollectionType); err != nil {
			return fmt.Errorf("failed to insert waypoint: %w", err)
		}
	}

	flStmt, err := tx.Prepare(`
		INSERT INTO flights (flight_id, day, icao_address, first_seen, last_seen,
			waypoint_count, min_lat, max_lat, min_lon, max_lon)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare flight insert: %w", err)
	}
	defer flStmt.Close()

	for i := range flights {
		f := &flights[i]
		span := f.Span()
		if _, err := flStmt.Exec(f.ID, dayStr, f.Address,
			f.Start().UTC().Format(timeLayout), f.End().UTC().Format(timeLayout),
			len(f.Waypoints),
			span.CenterLat-span.LatRange/2, span.CenterLat+span.LatRange/2,
			span.CenterLon-span.LonRange/2, span.CenterLon+span.LonRange/2); err != nil {
			return fmt.Errorf("failed to insert flight: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	s.logger.Info("Persisted ingest run",
		logger.String("run_id", runID),
		logger.String("day", dayStr),
		logger.Int("waypoint_count", len(batch)),
		logger.Int("flight_count", len(flights)))
	return nil
}

// ListFlights returns flight summaries, optionally filtered by day
// (YYYY-MM-DD) and/or aircraft address
func (s *WaypointStorage) ListFlights(day, address string) ([]FlightSummary, error) {
	query := `
		SELECT flight_id, day, icao_address, first_seen, last_seen,
			waypoint_count, min_lat, max_lat, min_lon, max_lon
		FROM flights WHERE 1=1`
	args := []interface{}{}
	if day != "" {
		query += " AND day = ?"
		args = append(args, day)
	}
	if address != "" {
		query += " AND icao_address = ?"
		args = append(args, address)
	}
	query += " ORDER BY first_seen"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query flights: %w", err)
	}
	defer rows.Close()

	var flights []FlightSummary
	for rows.Next() {
		var f FlightSummary
		var firstSeen, lastSeen string
		if err := rows.Scan(&f.FlightID, &f.Day, &f.Address, &firstSeen, &lastSeen,
			&f.WaypointCount, &f.MinLat, &f.MaxLat, &f.MinLon, &f.MaxLon); err != nil {
			return nil, fmt.Errorf("failed to scan flight row: %w", err)
		}
		if f.FirstSeen, err = time.Parse(timeLayout, firstSeen); err != nil {
			return nil, fmt.Errorf("invalid first_seen for flight %s: %w", f.FlightID, err)
		}
		if f.LastSeen, err = time.Parse(timeLayout, lastSeen); err != nil {
			return nil, fmt.Errorf("invalid last_seen for flight %s: %w", f.FlightID, err)
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

// GetFlightWaypoints returns a flight's waypoints ordered by timestamp
func (s *WaypointStorage) GetFlightWaypoints(flightID string) (waypoint.Batch, error) {
	rows, err := s.db.Query(`
		SELECT timestamp, icao_address, flight_id, latitude, longitude,
			altitude_ft, tail_number, collection_type
		FROM waypoints WHERE flight_id = ? ORDER BY timestamp
	`, flightID)
	if err != nil {
		return nil, fmt.Errorf("failed to query waypoints: %w", err)
	}
	defer rows.Close()

	var batch waypoint.Batch
	for rows.Next() {
		var w waypoint.Waypoint
		var tsStr, fid string
		if err := rows.Scan(&tsStr, &w.Address, &fid, &w.Latitude, &w.Longitude,
			&w.AltitudeFt, &w.TailNumber, &w.CollectionType); err != nil {
			return nil, fmt.Errorf("failed to scan waypoint row: %w", err)
		}
		if w.Timestamp, err = time.Parse(timeLayout, tsStr); err != nil {
			return nil, fmt.Errorf("invalid timestamp in waypoint row: %w", err)
		}
		if fid != "" {
			w.SetFlightID(fid)
		}
		batch = append(batch, w)
	}
	return batch, rows.Err()
}

// CountWaypoints returns the number of stored waypoints, optionally for
// one day
func (s *WaypointStorage) CountWaypoints(day string) (int, error) {
	var n int
	var err error
	if day != "" {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM waypoints WHERE day = ?`, day).Scan(&n)
	} else {
		err = s.db.QueryRow(`SELECT COUNT(*) FROM waypoints`).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count waypoints: %w", err)
	}
	return n, nil
}
