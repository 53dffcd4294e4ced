// Package history keeps a SQLite log of completed reaction runs.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/BerylCAtieno/market-sim-agent/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS simulation_runs (
	run_id          TEXT PRIMARY KEY,
	business_id     TEXT,
	scenario_type   TEXT NOT NULL,
	description     TEXT NOT NULL,
	total_agents    INTEGER NOT NULL,
	undecided_count INTEGER NOT NULL,
	summary_json    TEXT NOT NULL,
	created_at      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_simulation_runs_created ON simulation_runs(created_at);
`

// DefaultListLimit applies when List is called with a non-positive limit.
const DefaultListLimit = 20

// Run is one recorded reaction batch.
type Run struct {
	RunID          string                 `json:"runId"`
	BusinessID     string                 `json:"businessId,omitempty"`
	ScenarioType   string                 `json:"scenarioType"`
	Description    string                 `json:"scenarioDescription"`
	TotalAgents    int                    `json:"totalAgents"`
	UndecidedCount int                    `json:"undecidedCount"`
	Summary        models.ReactionSummary `json:"summary"`
	CreatedAt      time.Time              `json:"createdAt"`
}

// Store manages the run log in SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a completed run and returns it with its assigned id.
func (s *Store) Record(ctx context.Context, businessID, scenarioType, description string, result models.ReactionResult) (Run, error) {
	run := Run{
		RunID:        uuid.New().String(),
		BusinessID:   businessID,
		ScenarioType: scenarioType,
		Description:  description,
		TotalAgents:  result.Summary.TotalAgents,
		Summary:      result.Summary,
		CreatedAt:    s.now().UTC(),
	}
	for _, r := range result.Reactions {
		if r.Undecided() {
			run.UndecidedCount++
		}
	}

	summaryJSON, err := json.Marshal(run.Summary)
	if err != nil {
		return Run{}, fmt.Errorf("marshal summary: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO simulation_runs (run_id, business_id, scenario_type, description, total_agents, undecided_count, summary_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, nullIfEmpty(run.BusinessID), run.ScenarioType, run.Description,
		run.TotalAgents, run.UndecidedCount, string(summaryJSON), run.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// List returns up to limit runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, business_id, scenario_type, description, total_agents, undecided_count, summary_json, created_at
		 FROM simulation_runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			run         Run
			businessID  sql.NullString
			summaryJSON string
			createdAt   string
		)
		if err := rows.Scan(&run.RunID, &businessID, &run.ScenarioType, &run.Description,
			&run.TotalAgents, &run.UndecidedCount, &summaryJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.BusinessID = businessID.String
		if err := json.Unmarshal([]byte(summaryJSON), &run.Summary); err != nil {
			return nil, fmt.Errorf("unmarshal summary: %w", err)
		}
		if run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
