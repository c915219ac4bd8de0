// Package runlog records stage runs in a local SQLite database so an
// operator can review what ran, how long it took, and what it produced.
package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Entry is one stage run.
type Entry struct {
	ID          string
	Stage       string
	Status      string
	StartedAt   time.Time
	CompletedAt *time.Time
	Records     int64
	Error       string
	Summary     map[string]any
}

// Log is a SQLite-backed stage run log.
type Log struct {
	db *sql.DB
}

const migration = `
CREATE TABLE IF NOT EXISTS stage_runs (
	id           TEXT PRIMARY KEY,
	stage        TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'running',
	started_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at DATETIME,
	records      INTEGER NOT NULL DEFAULT 0,
	error        TEXT NOT NULL DEFAULT '',
	summary      TEXT
);

CREATE INDEX IF NOT EXISTS idx_stage_runs_stage ON stage_runs(stage);
CREATE INDEX IF NOT EXISTS idx_stage_runs_started_at ON stage_runs(started_at);
`

// Open opens (creating if necessary) the run log at path.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, eris.Wrap(err, "runlog: create directory")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "runlog: exec %s", pragma)
		}
	}

	if _, err := db.Exec(migration); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "runlog: migrate")
	}

	return &Log{db: db}, nil
}

// Close releases the database handle.
func (l *Log) Close() error {
	return l.db.Close()
}

// Start records the beginning of a stage run and returns its ID.
func (l *Log) Start(ctx context.Context, stage string) (string, error) {
	id := uuid.NewString()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO stage_runs (id, stage, status) VALUES (?, ?, 'running')`,
		id, stage,
	)
	if err != nil {
		return "", eris.Wrapf(err, "runlog: start %s", stage)
	}
	return id, nil
}

// Complete marks a run as successfully completed.
func (l *Log) Complete(ctx context.Context, id string, records int64, summary map[string]any) error {
	var summaryJSON []byte
	if summary != nil {
		var err error
		summaryJSON, err = json.Marshal(summary)
		if err != nil {
			return eris.Wrap(err, "runlog: marshal summary")
		}
	}

	_, err := l.db.ExecContext(ctx,
		`UPDATE stage_runs
		 SET status = 'complete', completed_at = datetime('now'), records = ?, summary = ?
		 WHERE id = ?`,
		records, string(summaryJSON), id,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: complete %s", id)
	}
	return nil
}

// Fail marks a run as failed with an error message.
func (l *Log) Fail(ctx context.Context, id string, errMsg string) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE stage_runs
		 SET status = 'failed', completed_at = datetime('now'), error = ?
		 WHERE id = ?`,
		errMsg, id,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: fail %s", id)
	}
	return nil
}

// List returns all runs, most recent first.
func (l *Log) List(ctx context.Context) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, stage, status, started_at, completed_at, records, error, summary
		 FROM stage_runs ORDER BY started_at DESC, id DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: list")
	}
	defer rows.Close() //nolint:errcheck

	var entries []Entry
	for rows.Next() {
		var e Entry
		var completedAt sql.NullTime
		var summaryJSON sql.NullString
		if err := rows.Scan(&e.ID, &e.Stage, &e.Status, &e.StartedAt, &completedAt, &e.Records, &e.Error, &summaryJSON); err != nil {
			return nil, eris.Wrap(err, "runlog: scan row")
		}
		if completedAt.Valid {
			t := completedAt.Time
			e.CompletedAt = &t
		}
		if summaryJSON.Valid && summaryJSON.String != "" {
			if err := json.Unmarshal([]byte(summaryJSON.String), &e.Summary); err != nil {
				return nil, eris.Wrap(err, "runlog: parse summary")
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "runlog: iterate rows")
	}

	return entries, nil
}
