package domain

import "errors"

// Protocol and lifecycle errors. These are sentinel values so callers
// can classify failures with errors.Is while still wrapping context.
var (
	ErrCampaignNotFound   = errors.New("campaign not found")
	ErrCheckpointNotFound = errors.New("checkpoint not found")
	ErrAlreadyResolved    = errors.New("checkpoint already resolved")
	ErrCheckpointPending  = errors.New("campaign already has an unresolved checkpoint")
	ErrCampaignTerminal   = errors.New("campaign is in a terminal state")
	ErrCampaignPaused     = errors.New("campaign is paused")
	ErrUnknownDecision    = errors.New("unknown checkpoint decision")
	ErrAdmissionDenied    = errors.New("blocked by safety controller")
)
