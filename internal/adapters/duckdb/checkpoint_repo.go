package duckdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/revreach/revreach/internal/core/domain"
)

func (r *Repository) SaveCheckpoint(ctx context.Context, cp *domain.Checkpoint) error {
	payloadJSON, err := json.Marshal(cp.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	var modifiedJSON *string
	if cp.ModifiedPayload != nil {
		b, err := json.Marshal(cp.ModifiedPayload)
		if err != nil {
			return fmt.Errorf("failed to marshal modified payload: %w", err)
		}
		s := string(b)
		modifiedJSON = &s
	}

	query := `
	INSERT INTO checkpoints (id, campaign_id, kind, payload, message, risk_level, requires_approval, created_at, resolved_at, decision, feedback, modified_payload)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		resolved_at = excluded.resolved_at,
		decision = excluded.decision,
		feedback = excluded.feedback,
		modified_payload = excluded.modified_payload;
	`

	var decision *string
	if cp.Decision != "" {
		d := string(cp.Decision)
		decision = &d
	}
	var feedback *string
	if cp.Feedback != "" {
		feedback = &cp.Feedback
	}

	_, err = r.db.ExecContext(ctx, query,
		cp.ID, cp.CampaignID, cp.Kind, string(payloadJSON), cp.Message, cp.RiskLevel,
		cp.RequiresApproval, cp.CreatedAt, cp.ResolvedAt, decision, feedback, modifiedJSON,
	)
	return err
}

const checkpointColumns = `id, campaign_id, kind, CAST(payload AS TEXT), message, risk_level, requires_approval, created_at, resolved_at, decision, feedback, CAST(modified_payload AS TEXT)`

func (r *Repository) GetCheckpoint(ctx context.Context, id domain.CheckpointID) (*domain.Checkpoint, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+checkpointColumns+` FROM checkpoints WHERE id = ?`, id)
	cp, err := scanCheckpoint(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", domain.ErrCheckpointNotFound, id)
		}
		return nil, err
	}
	return cp, nil
}

func (r *Repository) ListPending(ctx context.Context, id domain.CampaignID) ([]domain.Checkpoint, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+checkpointColumns+` FROM checkpoints WHERE campaign_id = ? AND resolved_at IS NULL ORDER BY created_at`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCheckpoints(rows)
}

func (r *Repository) ListAllPending(ctx context.Context) ([]domain.Checkpoint, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+checkpointColumns+` FROM checkpoints WHERE resolved_at IS NULL ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCheckpoints(rows)
}

func scanCheckpoint(row rowScanner) (*domain.Checkpoint, error) {
	var cp domain.Checkpoint
	var idStr, campaignStr, kindStr, riskStr string
	var payloadJSON string
	var resolvedAt *time.Time
	var decision, feedback, modifiedJSON *string

	if err := row.Scan(&idStr, &campaignStr, &kindStr, &payloadJSON, &cp.Message, &riskStr,
		&cp.RequiresApproval, &cp.CreatedAt, &resolvedAt, &decision, &feedback, &modifiedJSON); err != nil {
		return nil, err
	}

	cp.ID = domain.CheckpointID(idStr)
	cp.CampaignID = domain.CampaignID(campaignStr)
	cp.Kind = domain.CheckpointKind(kindStr)
	cp.RiskLevel = domain.RiskLevel(riskStr)
	cp.ResolvedAt = resolvedAt
	if decision != nil {
		cp.Decision = domain.Decision(*decision)
	}
	if feedback != nil {
		cp.Feedback = *feedback
	}

	if err := json.Unmarshal([]byte(payloadJSON), &cp.Payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload for %s: %w", idStr, err)
	}
	if modifiedJSON != nil {
		var mp domain.Payload
		if err := json.Unmarshal([]byte(*modifiedJSON), &mp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal modified payload for %s: %w", idStr, err)
		}
		cp.ModifiedPayload = &mp
	}
	return &cp, nil
}

func collectCheckpoints(rows *sql.Rows) ([]domain.Checkpoint, error) {
	var out []domain.Checkpoint
	for rows.Next() {
		cp, err := scanCheckpoint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *cp)
	}
	return out, rows.Err()
}
