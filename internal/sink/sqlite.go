package sink

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/agentstation/netbox-connector/pkg/errors"
	"github.com/agentstation/netbox-connector/pkg/inventory"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	stanza TEXT NOT NULL,
	sourcetype TEXT NOT NULL,
	host TEXT,
	time REAL,
	data JSON NOT NULL,
	exported_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_events_stanza ON events(stanza);
CREATE INDEX IF NOT EXISTS idx_events_sourcetype ON events(sourcetype);
`

// SQLite appends events to an events table. All writes of one export share a
// transaction committed on Close.
type SQLite struct {
	db   *sql.DB
	tx   *sql.Tx
	stmt *sql.Stmt
	path string
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" || path == Stdout {
		return nil, errors.NewConfigError("sink", "path", "the sqlite sink needs a database file", nil)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO events (stanza, sourcetype, host, time, data) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}

	return &SQLite{db: db, tx: tx, stmt: stmt, path: path}, nil
}

// Write implements inventory.Sink.
func (s *SQLite) Write(ctx context.Context, ev inventory.Event) error {
	var host sql.NullString
	if ev.HasHost {
		host = sql.NullString{String: ev.Host, Valid: true}
	}
	var ts sql.NullFloat64
	if ev.HasTime() {
		ts = sql.NullFloat64{Float64: ev.EpochSeconds(), Valid: true}
	}
	if _, err := s.stmt.ExecContext(ctx, ev.Stanza, ev.Sourcetype, host, ts, ev.Data); err != nil {
		return errors.WrapIO("insert", s.path, err)
	}
	return nil
}

// Close commits the pending writes and closes the database.
func (s *SQLite) Close() error {
	_ = s.stmt.Close()
	if err := s.tx.Commit(); err != nil {
		_ = s.db.Close()
		return errors.WrapIO("commit", s.path, err)
	}
	return s.db.Close()
}
