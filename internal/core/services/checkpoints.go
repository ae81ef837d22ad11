package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/revreach/revreach/internal/core/domain"
	"github.com/revreach/revreach/internal/core/ports"
)

// CheckpointStore owns checkpoint persistence and the resolution
// protocol. Campaign status updates and continuations are the engine's
// job; the store only guarantees durable, single-pending, resolve-once
// checkpoints.
type CheckpointStore struct {
	logger *slog.Logger
	repo   ports.CheckpointRepository
	now    func() time.Time
}

func NewCheckpointStore(logger *slog.Logger, repo ports.CheckpointRepository) *CheckpointStore {
	return &CheckpointStore{
		logger: logger,
		repo:   repo,
		now:    time.Now,
	}
}

// Create opens a checkpoint for a campaign. It fails with
// domain.ErrCheckpointPending if an unresolved checkpoint already exists
// for the campaign: opening a second gate is a programming error, not
// something to queue silently.
func (s *CheckpointStore) Create(ctx context.Context, c *domain.Campaign, kind domain.CheckpointKind, payload domain.Payload, message string, risk domain.RiskLevel) (*domain.Checkpoint, error) {
	pending, err := s.repo.ListPending(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("list pending checkpoints: %w", err)
	}
	if len(pending) > 0 {
		return nil, fmt.Errorf("%w: %s has pending %s", domain.ErrCheckpointPending, c.ID, pending[0].ID)
	}

	cp := &domain.Checkpoint{
		ID:         domain.CheckpointID(uuid.New().String()),
		CampaignID: c.ID,
		Kind:       kind,
		Payload:    payload,
		Message:    message,
		RiskLevel:  risk,
		// Only a Low-risk gate on an Automatic campaign skips approval.
		RequiresApproval: !(risk == domain.RiskLow && c.Autonomy == domain.AutonomyAutomatic),
		CreatedAt:        s.now(),
	}

	if err := s.repo.SaveCheckpoint(ctx, cp); err != nil {
		return nil, fmt.Errorf("persist checkpoint: %w", err)
	}

	s.logger.Info("checkpoint created",
		"checkpoint_id", cp.ID,
		"campaign_id", c.ID,
		"kind", string(kind),
		"risk", string(risk),
		"requires_approval", cp.RequiresApproval,
	)
	return cp, nil
}

// Get retrieves one checkpoint by id.
func (s *CheckpointStore) Get(ctx context.Context, id domain.CheckpointID) (*domain.Checkpoint, error) {
	return s.repo.GetCheckpoint(ctx, id)
}

// Resolve stamps a resolution onto a pending checkpoint. Resolving an
// unknown id fails with domain.ErrCheckpointNotFound; resolving twice
// fails with domain.ErrAlreadyResolved and leaves the first resolution
// untouched.
func (s *CheckpointStore) Resolve(ctx context.Context, id domain.CheckpointID, res domain.Resolution) (*domain.Checkpoint, error) {
	cp, err := s.repo.GetCheckpoint(ctx, id)
	if err != nil {
		return nil, err
	}
	if cp.Resolved() {
		return nil, fmt.Errorf("%w: %s resolved at %s", domain.ErrAlreadyResolved, id, cp.ResolvedAt.Format(time.RFC3339))
	}

	now := s.now()
	cp.ResolvedAt = &now
	cp.Decision = res.Decision
	cp.Feedback = res.Feedback
	cp.ModifiedPayload = res.ModifiedPayload

	if err := s.repo.SaveCheckpoint(ctx, cp); err != nil {
		return nil, fmt.Errorf("persist resolution: %w", err)
	}

	s.logger.Info("checkpoint resolved",
		"checkpoint_id", cp.ID,
		"campaign_id", cp.CampaignID,
		"decision", string(res.Decision),
	)
	return cp, nil
}

// PendingFor returns the unresolved checkpoints for one campaign. The
// engine keeps this at most one; the list shape is kept for the
// monitoring surface.
func (s *CheckpointStore) PendingFor(ctx context.Context, id domain.CampaignID) ([]domain.Checkpoint, error) {
	return s.repo.ListPending(ctx, id)
}

// AllPending is the cross-campaign listing for dashboards.
func (s *CheckpointStore) AllPending(ctx context.Context) ([]domain.Checkpoint, error) {
	return s.repo.ListAllPending(ctx)
}
