// Package db wraps the run's persistence layer: a single SQLite database
// holding the runs/observations/collisions tables an
// internal/observation.SQLiteSink writes into, opened with the same
// WAL/busy-timeout PRAGMAs and golang-migrate migration pipeline the
// teacher's internal/db/db.go uses for its radar database, generalized
// from a long-lived multi-sensor store to one database per simulation
// run. The teacher's legacy-schema detection/baselining (DetectSchemaVersion,
// BaselineAtVersion, CheckAndPromptMigrations) has no analogue here: a
// pcmsim database is always created fresh by MigrateUp against the
// embedded migration set, never inherited from an older, undocumented
// schema, so that machinery is dropped rather than adapted (see DESIGN.md).
package db

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log"
	"math"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"
)

// DB is the simulation's SQLite handle.
type DB struct {
	*sql.DB
}

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Open opens (creating if necessary) the SQLite database at path, applies
// the standard PRAGMAs, and migrates it up to the latest schema version.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}

	db := &DB{sqlDB}
	if err := applyPragmas(sqlDB); err != nil {
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	migrations, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("sub migrations fs: %w", err)
	}
	if err := db.MigrateUp(migrations); err != nil {
		return nil, fmt.Errorf("migrate up: %w", err)
	}
	return db, nil
}

// applyPragmas applies the PRAGMAs every pcmsim database needs regardless
// of how it was opened: WAL for concurrent reads during a live debug
// session, NORMAL synchronous and a busy timeout so the observation
// sink's writer never spins on a transient lock.
func applyPragmas(sqlDB *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := sqlDB.Exec(p); err != nil {
			return fmt.Errorf("exec %q: %w", p, err)
		}
	}
	return nil
}

// InsertRun records a new run_id at the start of a simulation.
func (db *DB) InsertRun(runID, scenario string, seed int64) error {
	_, err := db.Exec(`INSERT INTO runs (run_id, scenario, seed) VALUES (?, ?, ?)`, runID, scenario, seed)
	return err
}

// TableStats reports row count and disk footprint for one table, for the
// db-stats admin route.
type TableStats struct {
	Name     string  `json:"name"`
	RowCount int64   `json:"row_count"`
	SizeMB   float64 `json:"size_mb"`
}

// DatabaseStats is the db-stats admin route's JSON payload.
type DatabaseStats struct {
	TotalSizeMB float64      `json:"total_size_mb"`
	Tables      []TableStats `json:"tables"`
}

// GetDatabaseStats returns per-table row counts and disk usage, matching
// the teacher's GetDatabaseStats, generalized to this database's table
// set (runs, observations, collisions plus schema_migrations).
func (db *DB) GetDatabaseStats() (*DatabaseStats, error) {
	var totalPages, pageSize int64
	if err := db.QueryRow("SELECT page_count, page_size FROM pragma_page_count(), pragma_page_size()").Scan(&totalPages, &pageSize); err != nil {
		return nil, fmt.Errorf("page stats: %w", err)
	}
	totalSizeMB := float64(totalPages*pageSize) / (1024 * 1024)

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}

	var tables []TableStats
	for _, name := range names {
		var rowCount int64
		// name comes from sqlite_master (trusted metadata), and %q applies
		// proper SQLite identifier quoting.
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %q", name)
		if err := db.QueryRow(countQuery).Scan(&rowCount); err != nil {
			rowCount = 0
		}
		var sizeMB float64
		if err := db.QueryRow(`SELECT COALESCE(SUM(pgsize), 0) / 1048576.0 FROM dbstat WHERE name = ?`, name).Scan(&sizeMB); err != nil {
			sizeMB = 0
		}
		tables = append(tables, TableStats{Name: name, RowCount: rowCount, SizeMB: math.Round(sizeMB*100) / 100})
	}
	sort.Slice(tables, func(i, j int) bool { return tables[i].SizeMB > tables[j].SizeMB })

	return &DatabaseStats{TotalSizeMB: math.Round(totalSizeMB*100) / 100, Tables: tables}, nil
}

// AttachAdminRoutes mounts a tailsql live-query console and a JSON
// db-stats endpoint under tsweb's debug handler, the same field-debugging
// surface the teacher exposes over its radar database, pointed here at
// the run's trajectory/collision tables instead.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) error {
	debugger := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{RoutePrefix: "/debug/tailsql/"})
	if err != nil {
		return fmt.Errorf("create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://pcmsim.db", db.DB, &tailsql.DBOptions{Label: "Simulation DB"})
	debugger.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debugger.Handle("db-stats", "Database table sizes and disk usage (JSON)", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stats, err := db.GetDatabaseStats()
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to get database stats: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(stats); err != nil {
			log.Printf("db-stats: encode response: %v", err)
		}
	}))

	debugger.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		backupPath := fmt.Sprintf("backup-%d.db", time.Now().Unix())
		if _, err := db.Exec("VACUUM INTO ?", backupPath); err != nil {
			http.Error(w, fmt.Sprintf("failed to create backup: %v", err), http.StatusInternalServerError)
			return
		}
		defer os.Remove(backupPath)

		f, err := os.Open(backupPath)
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to open backup file: %v", err), http.StatusInternalServerError)
			return
		}
		defer f.Close()

		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", backupPath))
		w.Header().Set("Content-Type", "application/octet-stream")
		if _, err := io.Copy(w, f); err != nil {
			log.Printf("backup: stream to client: %v", err)
		}
	}))

	return nil
}
