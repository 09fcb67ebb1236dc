package alerts

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// historyCap bounds the alert history table.
const historyCap = 1000

// SQLStore persists generated alerts to SQLite for post-incident review.
type SQLStore struct {
	db *sql.DB
}

// OpenStore opens (or creates) the history database at path.
func OpenStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &SQLStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS alert_history (
			alert_id TEXT PRIMARY KEY,
			alert_type TEXT,
			severity TEXT,
			score REAL,
			lat REAL,
			lon REAL,
			district TEXT,
			escalation TEXT,
			document_json TEXT,
			issued_at TIMESTAMP,
			expires_at TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_alert_history_issued ON alert_history(issued_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveAlert inserts the alert and prunes the table back to the history cap.
func (s *SQLStore) SaveAlert(ctx context.Context, a Alert) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO alert_history
		 (alert_id, alert_type, severity, score, lat, lon, district, escalation, document_json, issued_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Type, a.Severity, a.Score, a.Lat, a.Lon, a.District, a.Escalation,
		string(doc), a.IssuedAt, a.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`DELETE FROM alert_history WHERE alert_id NOT IN (
			SELECT alert_id FROM alert_history ORDER BY issued_at DESC LIMIT ?
		)`, historyCap)
	if err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	return nil
}

// History returns the most recent alerts, newest first.
func (s *SQLStore) History(ctx context.Context, limit int) ([]Alert, error) {
	if limit <= 0 || limit > historyCap {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT document_json FROM alert_history ORDER BY issued_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Alert
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		var a Alert
		if err := json.Unmarshal([]byte(doc), &a); err != nil {
			return nil, fmt.Errorf("decode history row: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
