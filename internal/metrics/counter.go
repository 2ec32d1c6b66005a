package metrics

import (
	"log/slog"
	"sync"
)

var (
	globalMu    sync.RWMutex
	globalStore *Store
)

// Init opens the global metrics store at dbPath.
// Calling Init again replaces the previous store.
func Init(dbPath string) error {
	store, err := NewStore(dbPath)
	if err != nil {
		return err
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalStore != nil {
		_ = globalStore.Close()
	}
	globalStore = store
	return nil
}

// RecordSubmission increments the counter for mode and outcome.
// It is a no-op when the store is not initialized.
func RecordSubmission(mode Mode, outcome Outcome) {
	globalMu.RLock()
	store := globalStore
	globalMu.RUnlock()

	if store == nil {
		return
	}

	if err := store.Increment(mode, outcome); err != nil {
		slog.Warn("metrics: failed to record submission", "mode", mode, "outcome", outcome, "error", err)
	}
}

// GetStats returns cumulative counts for every mode and outcome.
// Returns nil if the store is not initialized.
func GetStats() map[Key]int64 {
	globalMu.RLock()
	store := globalStore
	globalMu.RUnlock()

	if store == nil {
		return nil
	}

	stats, err := store.GetAllTotals()
	if err != nil {
		slog.Warn("metrics: failed to get stats", "error", err)
		return nil
	}

	return stats
}

// Close closes the global metrics store.
func Close() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalStore == nil {
		return nil
	}
	err := globalStore.Close()
	globalStore = nil
	return err
}

// SetStoreForTesting sets the global store instance for testing purposes.
func SetStoreForTesting(store *Store) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalStore = store
}

// ResetForTesting closes and clears the global store.
func ResetForTesting() {
	_ = Close()
}
