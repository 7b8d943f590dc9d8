// results.go — optional persistence of run summaries into a local SQLite
// database, so repeated runs on a fleet can be diffed with plain SQL.

package results

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"main/config"
	"main/stats"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at       TEXT    NOT NULL,
	mode             TEXT    NOT NULL,
	chase            TEXT    NOT NULL,
	memload          TEXT    NOT NULL,
	total_memory     INTEGER NOT NULL,
	stride           INTEGER NOT NULL,
	tlb_locality     INTEGER NOT NULL,
	threads          INTEGER NOT NULL,
	samples          INTEGER NOT NULL,
	latency_best_ns  REAL,
	latency_avg_ns   REAL,
	latency_geo_ns   REAL,
	latency_dev      REAL,
	load_min_mibps   REAL,
	load_max_mibps   REAL,
	load_avg_mibps   REAL,
	load_dev         REAL
);`

// Store is an append-only recorder of run summaries.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the results database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("results: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("results: schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record appends one run summary.
func (s *Store) Record(started time.Time, cfg *config.Config, sum stats.Summary) error {
	_, err := s.db.Exec(`
INSERT INTO runs (
	started_at, mode, chase, memload,
	total_memory, stride, tlb_locality, threads, samples,
	latency_best_ns, latency_avg_ns, latency_geo_ns, latency_dev,
	load_min_mibps, load_max_mibps, load_avg_mibps, load_dev
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		started.UTC().Format(time.RFC3339Nano),
		cfg.Mode.String(), cfg.ChaseName, cfg.LoadName,
		cfg.TotalMemory, cfg.Stride, cfg.TLBLocality, cfg.NrThreads, sum.Samples,
		sum.LatencyBest, sum.LatencyAvg, sum.LatencyGeo, sum.LatencyDev,
		sum.LoadMinMibs, sum.LoadMaxMibs, sum.LoadAvgMibs, sum.LoadDev,
	)
	if err != nil {
		return fmt.Errorf("results: insert: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
