// results/results_test.go — round-trip a summary through the store
package results

import (
	"path/filepath"
	"testing"
	"time"

	"main/config"
	"main/stats"
)

func TestRecordRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	cfg := config.Default()
	sum := stats.Summary{
		Samples:      5,
		ChaseThreads: 1,
		LatencyBest:  72.5,
		LatencyAvg:   80.1,
		LatencyGeo:   79.3,
		LatencyDev:   0.2,
	}
	if err := store.Record(time.Now(), cfg, sum); err != nil {
		t.Fatal(err)
	}
	if err := store.Record(time.Now(), cfg, sum); err != nil {
		t.Fatal(err)
	}

	var n int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("rows = %d, want 2", n)
	}

	var mode string
	var best float64
	err = store.db.QueryRow("SELECT mode, latency_best_ns FROM runs LIMIT 1").Scan(&mode, &best)
	if err != nil {
		t.Fatal(err)
	}
	if mode != "latency" || best != 72.5 {
		t.Errorf("stored mode/best = %s/%v", mode, best)
	}
}

func TestOpenCreatesSchemaOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	a, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	a.Close()
	// reopening an existing database must not fail on the schema
	b, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	b.Close()
}
