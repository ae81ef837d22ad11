package domain

import (
	"time"
)

type CampaignID string
type CampaignStatus string
type AutonomyMode string
type Stage string

const (
	CampaignStatusPlanning        CampaignStatus = "planning"
	CampaignStatusWaitingApproval CampaignStatus = "waiting_approval"
	CampaignStatusExecuting       CampaignStatus = "executing"
	CampaignStatusPaused          CampaignStatus = "paused"
	CampaignStatusCompleted       CampaignStatus = "completed"
	CampaignStatusFailed          CampaignStatus = "failed"
	CampaignStatusIntervention    CampaignStatus = "intervention_required"

	AutonomySupervised AutonomyMode = "supervised"
	AutonomyAutomatic  AutonomyMode = "automatic"

	StageInitializing     Stage = "initializing"
	StagePlanning         Stage = "planning"
	StageGatheringContext Stage = "gathering_context"
	StageGeneratingEmails Stage = "generating_emails"
	StageSendApproval     Stage = "requesting_send_approval"
	StageSendingEmails    Stage = "sending_emails"
	StageCompleted        Stage = "completed"
)

// Campaign is the per-job record of pipeline progress. It is mutated
// exclusively by the workflow engine as stages advance and becomes
// immutable once it reaches a terminal status.
type Campaign struct {
	ID          CampaignID        `json:"id"`
	Status      CampaignStatus    `json:"status"`
	Stage       Stage             `json:"current_stage"`
	Autonomy    AutonomyMode      `json:"autonomy_mode"`
	Sector      string            `json:"sector"`
	Recipient   string            `json:"recipient"`
	Progress    int               `json:"progress"`
	Artifacts   CampaignArtifacts `json:"artifacts"`
	Error       *string           `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// Terminal reports whether the campaign reached a final state. No
// further mutation is permitted once this returns true.
func (c *Campaign) Terminal() bool {
	return c.Status == CampaignStatusCompleted || c.Status == CampaignStatusFailed
}

// TargetContext is the research blob gathered for a single target.
type TargetContext struct {
	Target   string `json:"target"`
	External string `json:"external"`
	Product  string `json:"product"`
}

// SendResult records the per-item outcome of the dispatch stage.
// Status is either "sent" or "failed: <reason>".
type SendResult struct {
	Target    string    `json:"target"`
	Recipient string    `json:"recipient"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// CampaignArtifacts accumulates stage outputs. Each field is written
// once per campaign unless a stage is retried after intervention.
type CampaignArtifacts struct {
	Targets         []string                 `json:"targets,omitempty"`
	ClearedTargets  map[string]bool          `json:"cleared_targets,omitempty"` // sensitive targets approved pre-draft
	ClearedContent  map[string]bool          `json:"cleared_content,omitempty"` // high-risk drafts approved post-draft
	Contexts        map[string]TargetContext `json:"contexts,omitempty"`
	Drafts          map[string]string        `json:"drafts,omitempty"`
	Results         []SendResult             `json:"results,omitempty"`
	TotalEmails     int                      `json:"total_emails,omitempty"`
	SuccessfulSends int                      `json:"successful_sends,omitempty"`
	FailedSends     int                      `json:"failed_sends,omitempty"`
	CheckpointsUsed int                      `json:"checkpoints_used,omitempty"`
}
