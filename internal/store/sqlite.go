package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/voicetriage/voicetriage/internal/triage"
	"github.com/voicetriage/voicetriage/pkg/logger"
)

// SQLiteStore is the optional persistent record store. It honors the same
// append-only contract as MemoryStore; the draft and error list are kept
// as JSON text columns.
type SQLiteStore struct {
	db     *sql.DB
	logger *logger.Logger
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (or creates) the database at path and initializes the
// records table.
func OpenSQLite(path string, logger *logger.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// modernc sqlite serializes writes itself, but a single connection
	// keeps AUTOINCREMENT ids strictly append-ordered.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{
		db:     db,
		logger: logger.Named("sqlite-store"),
	}

	if err := s.initDB(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// initDB initializes the database tables
func (s *SQLiteStore) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TIMESTAMP NOT NULL,
			source TEXT NOT NULL,
			origin_ref TEXT,
			recording_url TEXT,
			transcript TEXT NOT NULL,
			data TEXT,
			valid INTEGER NOT NULL,
			errors TEXT NOT NULL,
			latency_ms INTEGER NOT NULL,
			est_cost_usd REAL NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create records table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_records_created_at ON records(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_records_valid ON records(valid)`,
	}
	for _, indexSQL := range indexes {
		if _, err := s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create records index: %w", err)
		}
	}

	return nil
}

// Append inserts rec and returns the assigned id.
func (s *SQLiteStore) Append(rec *Record) (int64, error) {
	rec.CreatedAt = time.Now().UTC()

	var dataJSON []byte
	if rec.Data != nil {
		var err error
		dataJSON, err = json.Marshal(rec.Data)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal draft: %w", err)
		}
	}

	errsJSON, err := json.Marshal(rec.Errors)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal errors: %w", err)
	}

	result, err := s.db.Exec(
		`INSERT INTO records
		(created_at, source, origin_ref, recording_url, transcript, data, valid, errors, latency_ms, est_cost_usd)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.CreatedAt.Format(time.RFC3339Nano),
		rec.Source,
		rec.OriginRef,
		rec.RecordingURL,
		rec.Transcript,
		nullableString(dataJSON),
		boolToInt(rec.Valid),
		string(errsJSON),
		rec.LatencyMS,
		rec.EstCostUSD,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	rec.ID = id
	return id, nil
}

// Newest returns all records in descending id order.
func (s *SQLiteStore) Newest() ([]*Record, error) {
	rows, err := s.db.Query(
		`SELECT id, created_at, source, origin_ref, recording_url, transcript, data, valid, errors, latency_ms, est_cost_usd
		FROM records
		ORDER BY id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	return s.scanRecordRows(rows)
}

// Stats derives the aggregates with a single query.
func (s *SQLiteStore) Stats() (Stats, error) {
	var runs, valids int
	var totalLatency sql.NullInt64

	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(valid), 0), SUM(latency_ms) FROM records`,
	).Scan(&runs, &valids, &totalLatency)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to query stats: %w", err)
	}

	return computeStats(runs, valids, totalLatency.Int64), nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanRecordRows scans database rows into Record structs
func (s *SQLiteStore) scanRecordRows(rows *sql.Rows) ([]*Record, error) {
	var records []*Record
	for rows.Next() {
		var rec Record
		var createdAt string
		var originRef, recordingURL, dataJSON sql.NullString
		var valid int
		var errsJSON string

		if err := rows.Scan(
			&rec.ID,
			&createdAt,
			&rec.Source,
			&originRef,
			&recordingURL,
			&rec.Transcript,
			&dataJSON,
			&valid,
			&errsJSON,
			&rec.LatencyMS,
			&rec.EstCostUSD,
		); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		var err error
		rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}

		rec.OriginRef = originRef.String
		rec.RecordingURL = recordingURL.String
		rec.Valid = valid != 0

		if dataJSON.Valid && dataJSON.String != "" {
			var d triage.Draft
			if err := json.Unmarshal([]byte(dataJSON.String), &d); err != nil {
				return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
			}
			rec.Data = &d
		}

		if err := json.Unmarshal([]byte(errsJSON), &rec.Errors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal errors: %w", err)
		}

		records = append(records, &rec)
	}

	return records, rows.Err()
}

func nullableString(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
