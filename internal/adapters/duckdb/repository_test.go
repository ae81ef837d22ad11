package duckdb

import (
	"context"
	"testing"
	"time"

	"github.com/revreach/revreach/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(t.TempDir() + "/test.db")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepository_Campaigns(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// 1. Save
	id := domain.CampaignID("camp-1")
	c := &domain.Campaign{
		ID:        id,
		Status:    domain.CampaignStatusPlanning,
		Stage:     domain.StageInitializing,
		Autonomy:  domain.AutonomySupervised,
		Sector:    "retail",
		Recipient: "ops@example.com",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
		Artifacts: domain.CampaignArtifacts{
			Targets: []string{"Acme", "Beta"},
			Drafts:  map[string]string{"Acme": "Hello Acme"},
		},
	}
	require.NoError(t, repo.SaveCampaign(ctx, c))

	// 2. Get
	fetched, err := repo.GetCampaign(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, c.Status, fetched.Status)
	assert.Equal(t, "retail", fetched.Sector)
	assert.Equal(t, []string{"Acme", "Beta"}, fetched.Artifacts.Targets)
	assert.Equal(t, "Hello Acme", fetched.Artifacts.Drafts["Acme"])

	// 3. Upsert
	c.Status = domain.CampaignStatusExecuting
	c.Progress = 40
	require.NoError(t, repo.SaveCampaign(ctx, c))

	fetched, err = repo.GetCampaign(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignStatusExecuting, fetched.Status)
	assert.Equal(t, 40, fetched.Progress)

	// 4. List and filter
	all, err := repo.ListCampaigns(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	executing, err := repo.ListCampaignsByStatus(ctx, domain.CampaignStatusExecuting)
	require.NoError(t, err)
	assert.Len(t, executing, 1)

	none, err := repo.ListCampaignsByStatus(ctx, domain.CampaignStatusFailed)
	require.NoError(t, err)
	assert.Empty(t, none)

	// 5. Unknown id
	_, err = repo.GetCampaign(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrCampaignNotFound)
}

func TestRepository_Checkpoints(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cp := &domain.Checkpoint{
		ID:         "cp-1",
		CampaignID: "camp-1",
		Kind:       domain.CheckpointPlanApproval,
		Payload: domain.Payload{Plan: &domain.PlanPayload{
			Sector:          "retail",
			Targets:         []string{"Acme"},
			Recommendations: []string{"proceed"},
		}},
		Message:          "plan ready",
		RiskLevel:        domain.RiskLow,
		RequiresApproval: true,
		CreatedAt:        time.Now().UTC(),
	}
	require.NoError(t, repo.SaveCheckpoint(ctx, cp))

	// 1. Roundtrip with payload
	fetched, err := repo.GetCheckpoint(ctx, cp.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckpointPlanApproval, fetched.Kind)
	require.NotNil(t, fetched.Payload.Plan)
	assert.Equal(t, []string{"Acme"}, fetched.Payload.Plan.Targets)
	assert.True(t, fetched.RequiresApproval)
	assert.False(t, fetched.Resolved())

	// 2. Pending listings see it
	pending, err := repo.ListPending(ctx, cp.CampaignID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	all, err := repo.ListAllPending(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// 3. Resolution is an upsert of the same row
	now := time.Now().UTC()
	cp.ResolvedAt = &now
	cp.Decision = domain.DecisionModify
	cp.Feedback = "trimmed the list"
	modified := cp.Payload
	cp.ModifiedPayload = &modified
	require.NoError(t, repo.SaveCheckpoint(ctx, cp))

	fetched, err = repo.GetCheckpoint(ctx, cp.ID)
	require.NoError(t, err)
	assert.True(t, fetched.Resolved())
	assert.Equal(t, domain.DecisionModify, fetched.Decision)
	assert.Equal(t, "trimmed the list", fetched.Feedback)
	require.NotNil(t, fetched.ModifiedPayload)

	// 4. Resolved checkpoints leave the pending views
	pending, err = repo.ListPending(ctx, cp.CampaignID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// 5. Unknown id
	_, err = repo.GetCheckpoint(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrCheckpointNotFound)
}

func TestRepository_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/durable.db"
	ctx := context.Background()

	repo, err := NewRepository(path)
	require.NoError(t, err)

	c := &domain.Campaign{
		ID:        "camp-1",
		Status:    domain.CampaignStatusWaitingApproval,
		Autonomy:  domain.AutonomySupervised,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.SaveCampaign(ctx, c))
	cp := &domain.Checkpoint{
		ID:               "cp-1",
		CampaignID:       c.ID,
		Kind:             domain.CheckpointPlanApproval,
		RequiresApproval: true,
		CreatedAt:        time.Now().UTC(),
	}
	require.NoError(t, repo.SaveCheckpoint(ctx, cp))
	require.NoError(t, repo.Close())

	// A pending gate must survive a restart
	reopened, err := NewRepository(path)
	require.NoError(t, err)
	defer reopened.Close()

	pending, err := reopened.ListPending(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, domain.CheckpointID("cp-1"), pending[0].ID)
}
