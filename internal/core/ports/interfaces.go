package ports

import (
	"context"

	"github.com/revreach/revreach/internal/core/domain"
)

// CampaignRepository abstracts durable storage for campaign state.
type CampaignRepository interface {
	// SaveCampaign persists the full campaign record (insert or update).
	SaveCampaign(ctx context.Context, c *domain.Campaign) error

	// GetCampaign retrieves a campaign by id.
	GetCampaign(ctx context.Context, id domain.CampaignID) (*domain.Campaign, error)

	// ListCampaigns returns all campaigns, newest first.
	ListCampaigns(ctx context.Context) ([]domain.Campaign, error)

	// ListCampaignsByStatus filters campaigns by status.
	ListCampaignsByStatus(ctx context.Context, status domain.CampaignStatus) ([]domain.Campaign, error)
}

// CheckpointRepository abstracts durable storage for checkpoints.
// Every create/resolve hits the store before the call returns; there is
// no in-memory-only path that can lose a decision on restart.
type CheckpointRepository interface {
	SaveCheckpoint(ctx context.Context, cp *domain.Checkpoint) error
	GetCheckpoint(ctx context.Context, id domain.CheckpointID) (*domain.Checkpoint, error)

	// ListPending returns the unresolved checkpoints for one campaign.
	// The engine enforces that this is at most one.
	ListPending(ctx context.Context, id domain.CampaignID) ([]domain.Checkpoint, error)

	// ListAllPending is the cross-campaign monitoring view.
	ListAllPending(ctx context.Context) ([]domain.Checkpoint, error)
}

// TextGenerator is the LLM boundary used by discovery and drafting.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Discoverer produces a candidate target list for a sector. A failure
// here blocks the planning stage and surfaces as an intervention.
type Discoverer interface {
	Discover(ctx context.Context, sector string) ([]string, error)
}

// ContextFetcher gathers research context for a target. Implementations
// are expected to fall back to usable text rather than fail; the engine
// substitutes a deterministic placeholder if one errors anyway.
type ContextFetcher interface {
	FetchContext(ctx context.Context, target string) (domain.TargetContext, error)
}

// Drafter produces outreach content for a target.
type Drafter interface {
	Draft(ctx context.Context, target string, tc domain.TargetContext) (string, error)
}

// MailSender dispatches one message. Per-item errors are recorded by the
// engine, never retried.
type MailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}
