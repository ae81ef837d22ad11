package duckdb

import (
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/revreach/revreach/internal/core/ports"
)

// Repository is the DuckDB-backed store for campaigns and checkpoints.
// Nested structures (artifacts, payloads) are stored as JSON TEXT
// columns; rows are upserted by id.
type Repository struct {
	db *sql.DB
}

var _ ports.CampaignRepository = (*Repository)(nil)
var _ ports.CheckpointRepository = (*Repository)(nil)

func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb at %s: %w", path, err)
	}
	r := &Repository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// Close releases the underlying database handle.
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS campaigns (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			stage TEXT NOT NULL,
			autonomy TEXT NOT NULL,
			sector TEXT,
			recipient TEXT,
			progress INTEGER DEFAULT 0,
			artifacts JSON,
			error TEXT,
			created_at TIMESTAMP,
			updated_at TIMESTAMP,
			completed_at TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS checkpoints (
			id TEXT PRIMARY KEY,
			campaign_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			payload JSON,
			message TEXT,
			risk_level TEXT NOT NULL,
			requires_approval BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP,
			resolved_at TIMESTAMP,
			decision TEXT,
			feedback TEXT,
			modified_payload JSON
		);`,
		`CREATE INDEX IF NOT EXISTS idx_campaigns_status ON campaigns(status);`,
		`CREATE INDEX IF NOT EXISTS idx_checkpoints_campaign ON checkpoints(campaign_id);`,
		`CREATE INDEX IF NOT EXISTS idx_checkpoints_resolved ON checkpoints(resolved_at);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
