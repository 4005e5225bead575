package bridge

import (
	"context"
	"fmt"
	"time"

	"github.com/ColinNg/dscKeybusInterface/internal/infrastructure/config"
	"github.com/ColinNg/dscKeybusInterface/internal/infrastructure/database"
)

// journalWriteTimeout bounds each journal statement. The journal is
// best-effort; a slow disk must not stall the run loop past this.
const journalWriteTimeout = 2 * time.Second

// journalSchema is ensured at open. One row per dispatched change.
const journalSchema = `
CREATE TABLE IF NOT EXISTS panel_events (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    subject    TEXT    NOT NULL,
    number     INTEGER NOT NULL,
    value      INTEGER NOT NULL,
    created_at TEXT    NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_panel_events_subject ON panel_events(subject, number);
CREATE INDEX IF NOT EXISTS idx_panel_events_created ON panel_events(created_at);
`

// Journal persists every dispatched change to SQLite.
//
// It is an audit trail, not a delivery mechanism: rows are written after
// dispatch, failures are logged by the caller and never fatal, and
// nothing is replayed from it.
type Journal struct {
	db *database.DB
}

// JournalEntry is one recorded change.
type JournalEntry struct {
	ID        int64
	Subject   string
	Number    int
	Value     bool
	CreatedAt string
}

// OpenJournal opens the journal database and ensures the schema.
func OpenJournal(cfg config.JournalConfig) (*Journal, error) {
	db, err := database.Open(database.Config{
		Path:        cfg.Path,
		WALMode:     cfg.WALMode,
		BusyTimeout: cfg.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
	defer cancel()

	if _, err := db.ExecContext(ctx, journalSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensuring journal schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Record appends one change to the journal.
func (j *Journal) Record(c Change) error {
	ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
	defer cancel()

	value := 0
	if c.Value {
		value = 1
	}

	_, err := j.db.ExecContext(ctx,
		"INSERT INTO panel_events (subject, number, value) VALUES (?, ?, ?)",
		c.Subject.String(), c.Number, value,
	)
	if err != nil {
		return fmt.Errorf("recording panel event: %w", err)
	}
	return nil
}

// Recent returns the most recent entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]JournalEntry, error) {
	rows, err := j.db.QueryContext(ctx,
		"SELECT id, subject, number, value, created_at FROM panel_events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying panel events: %w", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var value int
		if err := rows.Scan(&e.ID, &e.Subject, &e.Number, &value, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning panel event: %w", err)
		}
		e.Value = value != 0
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating panel events: %w", err)
	}
	return entries, nil
}

// HealthCheck verifies the journal database is accessible.
func (j *Journal) HealthCheck(ctx context.Context) error {
	return j.db.HealthCheck(ctx)
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}
