package run

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteLedger struct {
	db *sql.DB
}

func OpenSQLiteLedger(path string) (*SQLiteLedger, error) {
	if path == "" {
		return nil, errors.New("empty ledger path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS targets (
			dimension TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			status TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			seq INTEGER NOT NULL,
			PRIMARY KEY (dimension, x, y, z)
		);`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init ledger schema: %w", err)
		}
	}
	return &SQLiteLedger{db: db}, nil
}

func (l *SQLiteLedger) Status(key Key) (Status, error) {
	var status string
	err := l.db.QueryRow(
		`SELECT status FROM targets WHERE dimension = ? AND x = ? AND y = ? AND z = ?`,
		key.Dimension, key.X, key.Y, key.Z,
	).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return StatusUnknown, nil
	}
	if err != nil {
		return StatusUnknown, fmt.Errorf("query ledger %s: %w", key, err)
	}
	return Status(status), nil
}

// Mark upserts the row. seq keeps first-insert order for Records.
func (l *SQLiteLedger) Mark(key Key, status Status) error {
	_, err := l.db.Exec(
		`INSERT INTO targets (dimension, x, y, z, status, updated_at, seq)
		VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM targets))
		ON CONFLICT (dimension, x, y, z) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at`,
		key.Dimension, key.X, key.Y, key.Z, string(status), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("mark ledger %s: %w", key, err)
	}
	return nil
}

func (l *SQLiteLedger) Records() ([]Record, error) {
	rows, err := l.db.Query(`SELECT dimension, x, y, z, status FROM targets ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var status string
		if err := rows.Scan(&r.Dimension, &r.X, &r.Y, &r.Z, &status); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		r.Status = Status(status)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}
