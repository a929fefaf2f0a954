package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/marathon-cli/internal/model"
)

// SQLite stores the snapshot in an embedded modernc.org/sqlite database,
// one row per event key.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLite{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS snapshot_events (
	event_key  TEXT PRIMARY KEY,
	record     TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

// Migrate creates the snapshot table.
func (s *SQLite) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Load(ctx context.Context) (map[string]model.Event, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT event_key, record FROM snapshot_events`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query snapshot")
	}
	defer rows.Close() //nolint:errcheck

	events := map[string]model.Event{}
	for rows.Next() {
		var key, record string
		if err := rows.Scan(&key, &record); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan snapshot row")
		}
		var ev model.Event
		if err := json.Unmarshal([]byte(record), &ev); err != nil {
			return nil, eris.Wrapf(err, "sqlite: decode record %s", key)
		}
		events[key] = ev
	}
	return events, eris.Wrap(rows.Err(), "sqlite: iterate snapshot")
}

// Save upserts every event in a single transaction. Rows absent from events
// are left in place; the snapshot only grows.
func (s *SQLite) Save(ctx context.Context, events map[string]model.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO snapshot_events (event_key, record, updated_at) VALUES (?, ?, ?)
ON CONFLICT(event_key) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now().UTC()
	for key, ev := range events {
		record, err := json.Marshal(ev)
		if err != nil {
			return eris.Wrapf(err, "sqlite: encode record %s", key)
		}
		if _, err := stmt.ExecContext(ctx, key, string(record), now); err != nil {
			return eris.Wrapf(err, "sqlite: upsert %s", key)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit")
}
