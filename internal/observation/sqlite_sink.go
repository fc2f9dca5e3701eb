package observation

import (
	"database/sql"
	"fmt"

	"github.com/banshee-data/pcmsim/internal/db"
)

// SQLiteSink writes every record into the run's observations table via a
// prepared statement, matching the teacher's pattern of a single
// long-lived prepared INSERT reused across a streaming pipeline
// (internal/db.DB.RecordRadarObject).
type SQLiteSink struct {
	db   *db.DB
	stmt *sql.Stmt
}

// NewSQLiteSink prepares the observation insert against database.
func NewSQLiteSink(database *db.DB) (*SQLiteSink, error) {
	stmt, err := database.Prepare(`INSERT INTO observations (run_id, time_ms, agent_id, grp, key, value) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("sqlite sink: prepare insert: %w", err)
	}
	return &SQLiteSink{db: database, stmt: stmt}, nil
}

func (s *SQLiteSink) Record(r Record) error {
	if _, err := s.stmt.Exec(r.RunID, r.TimeMS, r.AgentID, string(r.Group), r.Key, r.Value); err != nil {
		return fmt.Errorf("sqlite sink: insert: %w", err)
	}
	return nil
}

// Flush is a no-op: every Record already executes its own statement
// against the shared SQLite connection, which carries WAL/synchronous
// PRAGMAs suited to per-row durability rather than a buffered writer.
func (s *SQLiteSink) Flush() error { return nil }

func (s *SQLiteSink) Close() error {
	return s.stmt.Close()
}
