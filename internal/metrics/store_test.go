package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "nested", "test_stats.db")

	store, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewStoreCreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "stats.db")

	store, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestNewStoreRequiresPath(t *testing.T) {
	if _, err := NewStore(""); err == nil {
		t.Error("Expected error for empty path")
	}
}

func TestIncrement(t *testing.T) {
	store := newTestStore(t)

	if err := store.Increment(ModeWebUI, OutcomeSucceeded); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}

	today := time.Now().Format("2006-01-02")
	count, err := store.GetCountByDate(ModeWebUI, OutcomeSucceeded, today)
	if err != nil {
		t.Fatalf("GetCountByDate failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected count 1, got %d", count)
	}

	if err := store.Increment(ModeWebUI, OutcomeSucceeded); err != nil {
		t.Fatalf("Second increment failed: %v", err)
	}

	count, err = store.GetCountByDate(ModeWebUI, OutcomeSucceeded, today)
	if err != nil {
		t.Fatalf("GetCountByDate failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected count 2, got %d", count)
	}

	// Other outcome is tracked separately
	count, err = store.GetCountByDate(ModeWebUI, OutcomeFailed, today)
	if err != nil {
		t.Fatalf("GetCountByDate failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected count 0 for failed outcome, got %d", count)
	}
}

func TestGetTotal(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 5; i++ {
		if err := store.Increment(ModeQuery, OutcomeFailed); err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
	}

	total, err := store.GetTotal(ModeQuery, OutcomeFailed)
	if err != nil {
		t.Fatalf("GetTotal failed: %v", err)
	}
	if total != 5 {
		t.Errorf("Expected total 5, got %d", total)
	}

	total, err = store.GetTotal(ModeWebUI, OutcomeFailed)
	if err != nil {
		t.Fatalf("GetTotal failed: %v", err)
	}
	if total != 0 {
		t.Errorf("Expected total 0, got %d", total)
	}
}

func TestGetAllTotals(t *testing.T) {
	store := newTestStore(t)

	_ = store.Increment(ModeWebUI, OutcomeSucceeded)
	_ = store.Increment(ModeWebUI, OutcomeSucceeded)
	_ = store.Increment(ModeWebUI, OutcomeFailed)
	_ = store.Increment(ModeQuery, OutcomeSucceeded)

	totals, err := store.GetAllTotals()
	if err != nil {
		t.Fatalf("GetAllTotals failed: %v", err)
	}

	expected := map[Key]int64{
		{Mode: ModeWebUI, Outcome: OutcomeSucceeded}: 2,
		{Mode: ModeWebUI, Outcome: OutcomeFailed}:    1,
		{Mode: ModeQuery, Outcome: OutcomeSucceeded}: 1,
		{Mode: ModeQuery, Outcome: OutcomeFailed}:    0,
	}
	for key, want := range expected {
		if totals[key] != want {
			t.Errorf("%s/%s: expected %d, got %d", key.Mode, key.Outcome, want, totals[key])
		}
	}
}

func TestGetCountByDateMissingRow(t *testing.T) {
	store := newTestStore(t)

	count, err := store.GetCountByDate(ModeQuery, OutcomeSucceeded, "1999-01-01")
	if err != nil {
		t.Fatalf("GetCountByDate failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0, got %d", count)
	}
}

func TestRecordSubmissionGlobal(t *testing.T) {
	ResetForTesting()
	defer ResetForTesting()

	// No store: must not panic
	RecordSubmission(ModeWebUI, OutcomeSucceeded)
	if GetStats() != nil {
		t.Error("Expected nil stats without a store")
	}

	dbPath := filepath.Join(t.TempDir(), "stats.db")
	if err := Init(dbPath); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	RecordSubmission(ModeWebUI, OutcomeSucceeded)
	RecordSubmission(ModeQuery, OutcomeFailed)

	stats := GetStats()
	if stats[Key{Mode: ModeWebUI, Outcome: OutcomeSucceeded}] != 1 {
		t.Errorf("Expected 1 webui success, got %d", stats[Key{Mode: ModeWebUI, Outcome: OutcomeSucceeded}])
	}
	if stats[Key{Mode: ModeQuery, Outcome: OutcomeFailed}] != 1 {
		t.Errorf("Expected 1 query failure, got %d", stats[Key{Mode: ModeQuery, Outcome: OutcomeFailed}])
	}
}
