package metrics

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Mode identifies the front end a submission came from.
type Mode string

const (
	ModeWebUI Mode = "webui"
	ModeQuery Mode = "query"
)

// Outcome is how a submission resolved.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// Modes lists every tracked mode.
var Modes = []Mode{ModeWebUI, ModeQuery}

// Outcomes lists every tracked outcome.
var Outcomes = []Outcome{OutcomeSucceeded, OutcomeFailed}

// Key identifies one counter.
type Key struct {
	Mode    Mode
	Outcome Outcome
}

// Store manages SQLite persistence for submission counts.
// Only counts are stored; queries and results never are.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store with the database at dbPath.
// The parent directory and database file are created if they don't exist.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create metrics directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS submission_counts (
			mode TEXT NOT NULL,
			outcome TEXT NOT NULL,
			date TEXT NOT NULL,
			count INTEGER DEFAULT 0,
			PRIMARY KEY (mode, outcome, date)
		);
	`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &Store{db: db}, nil
}

// Increment increments the count for mode and outcome for today's date.
func (s *Store) Increment(mode Mode, outcome Outcome) error {
	today := time.Now().Format("2006-01-02")

	upsertSQL := `
		INSERT INTO submission_counts (mode, outcome, date, count)
		VALUES (?, ?, ?, 1)
		ON CONFLICT(mode, outcome, date) DO UPDATE SET count = count + 1;
	`
	if _, err := s.db.Exec(upsertSQL, string(mode), string(outcome), today); err != nil {
		return fmt.Errorf("failed to increment count: %w", err)
	}

	return nil
}

// GetTotal returns the cumulative count for mode and outcome across all dates.
func (s *Store) GetTotal(mode Mode, outcome Outcome) (int64, error) {
	var total int64
	row := s.db.QueryRow(
		"SELECT COALESCE(SUM(count), 0) FROM submission_counts WHERE mode = ? AND outcome = ?",
		string(mode), string(outcome),
	)
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to get total for %s/%s: %w", mode, outcome, err)
	}
	return total, nil
}

// GetAllTotals returns cumulative counts for every mode and outcome.
// Combinations without rows are reported as zero.
func (s *Store) GetAllTotals() (map[Key]int64, error) {
	result := make(map[Key]int64)
	for _, mode := range Modes {
		for _, outcome := range Outcomes {
			result[Key{Mode: mode, Outcome: outcome}] = 0
		}
	}

	rows, err := s.db.Query(
		"SELECT mode, outcome, COALESCE(SUM(count), 0) FROM submission_counts GROUP BY mode, outcome",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var modeStr, outcomeStr string
		var total int64
		if err := rows.Scan(&modeStr, &outcomeStr, &total); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result[Key{Mode: Mode(modeStr), Outcome: Outcome(outcomeStr)}] = total
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// GetCountByDate returns the count for mode and outcome on date (YYYY-MM-DD).
func (s *Store) GetCountByDate(mode Mode, outcome Outcome, date string) (int64, error) {
	var count int64
	row := s.db.QueryRow(
		"SELECT COALESCE(count, 0) FROM submission_counts WHERE mode = ? AND outcome = ? AND date = ?",
		string(mode), string(outcome), date,
	)
	if err := row.Scan(&count); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get count: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
