package services

import (
	"context"
	"testing"

	"github.com/revreach/revreach/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *CheckpointStore {
	return NewCheckpointStore(testLogger(), newMemCheckpointRepo())
}

func planPayload() domain.Payload {
	return domain.Payload{Plan: &domain.PlanPayload{
		Sector:          "retail",
		Targets:         []string{"Acme"},
		Recommendations: []string{"batch appears low-risk, proceed with standard monitoring"},
	}}
}

func TestCheckpointStore_SinglePendingPerCampaign(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	c := &domain.Campaign{ID: "c-1", Autonomy: domain.AutonomySupervised}

	// 1. First gate opens
	cp, err := store.Create(ctx, c, domain.CheckpointPlanApproval, planPayload(), "plan ready", domain.RiskLow)
	require.NoError(t, err)
	assert.False(t, cp.Resolved())

	// 2. A second gate while one is pending is a protocol violation
	_, err = store.Create(ctx, c, domain.CheckpointEmailPreview, domain.Payload{}, "preview", domain.RiskLow)
	assert.ErrorIs(t, err, domain.ErrCheckpointPending)

	// 3. After resolving, a new gate may open
	_, err = store.Resolve(ctx, cp.ID, domain.Resolution{Decision: domain.DecisionApprove})
	require.NoError(t, err)
	_, err = store.Create(ctx, c, domain.CheckpointEmailPreview, domain.Payload{}, "preview", domain.RiskLow)
	require.NoError(t, err)

	// 4. Other campaigns are unaffected
	other := &domain.Campaign{ID: "c-2", Autonomy: domain.AutonomySupervised}
	_, err = store.Create(ctx, other, domain.CheckpointPlanApproval, planPayload(), "plan ready", domain.RiskLow)
	require.NoError(t, err)
}

func TestCheckpointStore_ResolveOnce(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	c := &domain.Campaign{ID: "c-1", Autonomy: domain.AutonomySupervised}

	cp, err := store.Create(ctx, c, domain.CheckpointPlanApproval, planPayload(), "plan ready", domain.RiskLow)
	require.NoError(t, err)

	resolved, err := store.Resolve(ctx, cp.ID, domain.Resolution{
		Decision: domain.DecisionApprove,
		Feedback: "looks good",
	})
	require.NoError(t, err)
	assert.True(t, resolved.Resolved())
	assert.Equal(t, "looks good", resolved.Feedback)

	// The second resolution is refused and the first one stands
	_, err = store.Resolve(ctx, cp.ID, domain.Resolution{Decision: domain.DecisionReject})
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)

	stored, err := store.Get(ctx, cp.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DecisionApprove, stored.Decision)
}

func TestCheckpointStore_ResolveUnknown(t *testing.T) {
	store := newTestStore()
	_, err := store.Resolve(context.Background(), "nope", domain.Resolution{Decision: domain.DecisionApprove})
	assert.ErrorIs(t, err, domain.ErrCheckpointNotFound)
}

func TestCheckpointStore_ApprovalRule(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	cases := []struct {
		name     string
		autonomy domain.AutonomyMode
		risk     domain.RiskLevel
		requires bool
	}{
		{"supervised always waits on low", domain.AutonomySupervised, domain.RiskLow, true},
		{"supervised always waits on high", domain.AutonomySupervised, domain.RiskHigh, true},
		{"automatic skips low", domain.AutonomyAutomatic, domain.RiskLow, false},
		{"automatic waits on medium", domain.AutonomyAutomatic, domain.RiskMedium, true},
		{"automatic waits on high", domain.AutonomyAutomatic, domain.RiskHigh, true},
	}

	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := &domain.Campaign{ID: domain.CampaignID(string(rune('a' + i))), Autonomy: tc.autonomy}
			cp, err := store.Create(ctx, c, domain.CheckpointPlanApproval, planPayload(), "plan ready", tc.risk)
			require.NoError(t, err)
			assert.Equal(t, tc.requires, cp.RequiresApproval)
		})
	}
}

func TestCheckpointStore_PendingListings(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	a := &domain.Campaign{ID: "c-a", Autonomy: domain.AutonomySupervised}
	b := &domain.Campaign{ID: "c-b", Autonomy: domain.AutonomySupervised}

	cpA, err := store.Create(ctx, a, domain.CheckpointPlanApproval, planPayload(), "plan ready", domain.RiskLow)
	require.NoError(t, err)
	_, err = store.Create(ctx, b, domain.CheckpointPlanApproval, planPayload(), "plan ready", domain.RiskLow)
	require.NoError(t, err)

	all, err := store.AllPending(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = store.Resolve(ctx, cpA.ID, domain.Resolution{Decision: domain.DecisionApprove})
	require.NoError(t, err)

	pendingA, err := store.PendingFor(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, pendingA)

	all, err = store.AllPending(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, b.ID, all[0].CampaignID)
}
