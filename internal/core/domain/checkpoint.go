package domain

import (
	"time"
)

type CheckpointID string
type CheckpointKind string
type Decision string

const (
	CheckpointPlanApproval      CheckpointKind = "plan_approval"
	CheckpointEmailPreview      CheckpointKind = "email_preview"
	CheckpointHighRiskTarget    CheckpointKind = "high_risk_target"
	CheckpointBulkSendApproval  CheckpointKind = "bulk_send_approval"
	CheckpointErrorIntervention CheckpointKind = "error_intervention"

	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
	DecisionModify  Decision = "modify"
)

// Valid reports whether the decision is part of the resolution protocol.
func (d Decision) Valid() bool {
	switch d {
	case DecisionApprove, DecisionReject, DecisionModify:
		return true
	}
	return false
}

// Checkpoint is a durable pause point requiring a decision before the
// owning campaign proceeds. Once resolved it is immutable.
type Checkpoint struct {
	ID               CheckpointID   `json:"id"`
	CampaignID       CampaignID     `json:"campaign_id"`
	Kind             CheckpointKind `json:"kind"`
	Payload          Payload        `json:"payload"`
	Message          string         `json:"message"`
	RiskLevel        RiskLevel      `json:"risk_level"`
	RequiresApproval bool           `json:"requires_approval"`
	CreatedAt        time.Time      `json:"created_at"`
	ResolvedAt       *time.Time     `json:"resolved_at,omitempty"`
	Decision         Decision       `json:"decision,omitempty"`
	Feedback         string         `json:"feedback,omitempty"`
	ModifiedPayload  *Payload       `json:"modified_payload,omitempty"`
}

// Resolved reports whether a resolution has been stamped.
func (c *Checkpoint) Resolved() bool {
	return c.ResolvedAt != nil
}

// EffectivePayload returns the human-supplied replacement payload for a
// modify decision, or the original snapshot otherwise.
func (c *Checkpoint) EffectivePayload() Payload {
	if c.Decision == DecisionModify && c.ModifiedPayload != nil {
		return *c.ModifiedPayload
	}
	return c.Payload
}

// Payload is the per-kind snapshot attached to a checkpoint. Exactly one
// field is set, matching the checkpoint's kind. It is a complete copy of
// the data needed to render the decision and resume deterministically,
// never a live reference into campaign state.
type Payload struct {
	Plan         *PlanPayload         `json:"plan,omitempty"`
	HighRisk     *HighRiskPayload     `json:"high_risk,omitempty"`
	Preview      *PreviewPayload      `json:"preview,omitempty"`
	Send         *SendPayload         `json:"send,omitempty"`
	Intervention *InterventionPayload `json:"intervention,omitempty"`
}

// PlanPayload carries the discovered candidate list and its assessment.
type PlanPayload struct {
	Sector          string   `json:"sector"`
	Targets         []string `json:"targets"`
	HighRisk        []string `json:"high_risk,omitempty"`
	MediumRisk      []string `json:"medium_risk,omitempty"`
	Recommendations []string `json:"recommendations"`
}

// HighRiskPayload gates a single sensitive target before drafting.
type HighRiskPayload struct {
	Target string `json:"target"`
	Reason string `json:"reason"`
}

// PreviewPayload covers the whole drafted batch.
type PreviewPayload struct {
	Drafts  map[string]string       `json:"drafts"`
	Factors map[string][]RiskFactor `json:"factors,omitempty"`
}

// SendPayload is the final batch awaiting dispatch approval.
type SendPayload struct {
	Recipient string            `json:"recipient"`
	Drafts    map[string]string `json:"drafts"`
}

// InterventionPayload carries a stage-blocking error for human triage.
type InterventionPayload struct {
	Stage Stage  `json:"stage"`
	Error string `json:"error"`
}

// Resolution is the external decision applied to a pending checkpoint.
type Resolution struct {
	Decision        Decision `json:"decision"`
	Feedback        string   `json:"feedback,omitempty"`
	ModifiedPayload *Payload `json:"modified_payload,omitempty"`
}
