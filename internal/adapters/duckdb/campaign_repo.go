package duckdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/revreach/revreach/internal/core/domain"
)

func (r *Repository) SaveCampaign(ctx context.Context, c *domain.Campaign) error {
	artifactsJSON, err := json.Marshal(c.Artifacts)
	if err != nil {
		return fmt.Errorf("failed to marshal artifacts: %w", err)
	}

	query := `
	INSERT INTO campaigns (id, status, stage, autonomy, sector, recipient, progress, artifacts, error, created_at, updated_at, completed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		status = excluded.status,
		stage = excluded.stage,
		progress = excluded.progress,
		artifacts = excluded.artifacts,
		error = excluded.error,
		updated_at = excluded.updated_at,
		completed_at = excluded.completed_at;
	`

	_, err = r.db.ExecContext(ctx, query,
		c.ID, c.Status, c.Stage, c.Autonomy, c.Sector, c.Recipient, c.Progress,
		string(artifactsJSON), c.Error, c.CreatedAt, c.UpdatedAt, c.CompletedAt,
	)
	return err
}

const campaignColumns = `id, status, stage, autonomy, sector, recipient, progress, CAST(artifacts AS TEXT), error, created_at, updated_at, completed_at`

func (r *Repository) GetCampaign(ctx context.Context, id domain.CampaignID) (*domain.Campaign, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = ?`, id)
	c, err := scanCampaign(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", domain.ErrCampaignNotFound, id)
		}
		return nil, err
	}
	return c, nil
}

func (r *Repository) ListCampaigns(ctx context.Context) ([]domain.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+campaignColumns+` FROM campaigns ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCampaigns(rows)
}

func (r *Repository) ListCampaignsByStatus(ctx context.Context, status domain.CampaignStatus) ([]domain.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE status = ? ORDER BY created_at DESC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCampaigns(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*domain.Campaign, error) {
	var c domain.Campaign
	var idStr, statusStr, stageStr, autonomyStr string
	var artifactsJSON string
	var errStr *string
	var completedAt *time.Time

	if err := row.Scan(&idStr, &statusStr, &stageStr, &autonomyStr, &c.Sector, &c.Recipient,
		&c.Progress, &artifactsJSON, &errStr, &c.CreatedAt, &c.UpdatedAt, &completedAt); err != nil {
		return nil, err
	}

	c.ID = domain.CampaignID(idStr)
	c.Status = domain.CampaignStatus(statusStr)
	c.Stage = domain.Stage(stageStr)
	c.Autonomy = domain.AutonomyMode(autonomyStr)
	c.Error = errStr
	c.CompletedAt = completedAt

	if err := json.Unmarshal([]byte(artifactsJSON), &c.Artifacts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artifacts for %s: %w", idStr, err)
	}
	return &c, nil
}

func collectCampaigns(rows *sql.Rows) ([]domain.Campaign, error) {
	var out []domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}
