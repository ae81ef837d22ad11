package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/revreach/revreach/internal/core/domain"
)

// handleCreateCampaign starts a new campaign. The call runs the planning
// stage synchronously, so the returned record already reflects the first
// checkpoint (or, for an all-low automatic run, the final outcome).
// POST /v1/campaigns
func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Sector    string `json:"sector"`
		Recipient string `json:"recipient"`
		Autonomy  string `json:"autonomy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Sector == "" || req.Recipient == "" {
		http.Error(w, "sector and recipient are required", http.StatusBadRequest)
		return
	}
	mode := domain.AutonomyMode(req.Autonomy)
	if mode == "" {
		mode = domain.AutonomySupervised
	}

	c, err := s.engine.StartCampaign(r.Context(), req.Sector, req.Recipient, mode)
	if err != nil {
		if errors.Is(err, domain.ErrAdmissionDenied) {
			http.Error(w, err.Error(), http.StatusTooManyRequests)
			return
		}
		if c == nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		// The campaign exists but planning tripped an intervention or
		// failure; return the record so the caller can see its state.
		s.logger.Warn("campaign created with error", "campaign_id", c.ID, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(c)
}

// handleListCampaigns returns all campaigns, optionally filtered.
// GET /v1/campaigns?status=waiting_approval
func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	var (
		campaigns []domain.Campaign
		err       error
	)
	if status := r.URL.Query().Get("status"); status != "" {
		campaigns, err = s.campaigns.ListCampaignsByStatus(r.Context(), domain.CampaignStatus(status))
	} else {
		campaigns, err = s.campaigns.ListCampaigns(r.Context())
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if campaigns == nil {
		campaigns = []domain.Campaign{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"campaigns": campaigns,
		"count":     len(campaigns),
	})
}

// handleGetCampaign returns one campaign with its full artifacts.
// GET /v1/campaigns/{id}
func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	id := campaignIDFromPath(r.URL.Path, "")
	c, err := s.campaigns.GetCampaign(r.Context(), domain.CampaignID(id))
	if err != nil {
		if errors.Is(err, domain.ErrCampaignNotFound) {
			http.Error(w, "campaign not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(c)
}

// handleCampaignCheckpoints returns the pending checkpoints for one
// campaign. By construction the list holds at most one entry.
// GET /v1/campaigns/{id}/checkpoints
func (s *Server) handleCampaignCheckpoints(w http.ResponseWriter, r *http.Request) {
	id := campaignIDFromPath(r.URL.Path, "/checkpoints")
	cps, err := s.checkpoints.PendingFor(r.Context(), domain.CampaignID(id))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if cps == nil {
		cps = []domain.Checkpoint{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"checkpoints": cps,
		"count":       len(cps),
	})
}

// handleListPendingCheckpoints is the cross-campaign monitoring view.
// GET /v1/checkpoints
func (s *Server) handleListPendingCheckpoints(w http.ResponseWriter, r *http.Request) {
	cps, err := s.checkpoints.AllPending(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if cps == nil {
		cps = []domain.Checkpoint{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"checkpoints": cps,
		"count":       len(cps),
	})
}

// handleResolveCheckpoint applies a decision to a pending checkpoint and
// runs the campaign forward. The response carries the campaign state
// after the continuation finished.
// POST /v1/checkpoints/{id}/resolve
func (s *Server) handleResolveCheckpoint(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Path
	id = id[len("/v1/checkpoints/") : len(id)-len("/resolve")]
	if id == "" {
		http.Error(w, "missing checkpoint id", http.StatusBadRequest)
		return
	}

	var res domain.Resolution
	if err := json.NewDecoder(r.Body).Decode(&res); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	err := s.engine.Resolve(r.Context(), domain.CheckpointID(id), res)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCheckpointNotFound):
			http.Error(w, "checkpoint not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrAlreadyResolved):
			http.Error(w, "checkpoint already resolved", http.StatusConflict)
		case errors.Is(err, domain.ErrCampaignTerminal):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, domain.ErrCampaignPaused):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, domain.ErrUnknownDecision):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			s.logger.Error("checkpoint resolution failed", "checkpoint_id", id, "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	cp, err := s.checkpoints.Get(r.Context(), domain.CheckpointID(id))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	c, err := s.campaigns.GetCampaign(r.Context(), cp.CampaignID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"checkpoint": cp,
		"campaign":   c,
	})
}

// handlePauseCampaign suspends a campaign between transitions.
// POST /v1/campaigns/{id}/pause
func (s *Server) handlePauseCampaign(w http.ResponseWriter, r *http.Request) {
	id := campaignIDFromPath(r.URL.Path, "/pause")
	s.overrideResponse(w, r, id, s.engine.Pause(r.Context(), domain.CampaignID(id)))
}

// handleResumeCampaign lifts a pause.
// POST /v1/campaigns/{id}/resume
func (s *Server) handleResumeCampaign(w http.ResponseWriter, r *http.Request) {
	id := campaignIDFromPath(r.URL.Path, "/resume")
	s.overrideResponse(w, r, id, s.engine.Unpause(r.Context(), domain.CampaignID(id)))
}

// handleStopCampaign terminates a campaign permanently.
// POST /v1/campaigns/{id}/stop
func (s *Server) handleStopCampaign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	// Body is optional for stop.
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Reason == "" {
		req.Reason = "stopped by operator"
	}
	id := campaignIDFromPath(r.URL.Path, "/stop")
	s.overrideResponse(w, r, id, s.engine.Stop(r.Context(), domain.CampaignID(id), req.Reason))
}

// overrideResponse maps the outcome of a pause/resume/stop override to a
// response carrying the updated campaign.
func (s *Server) overrideResponse(w http.ResponseWriter, r *http.Request, id string, err error) {
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCampaignNotFound):
			http.Error(w, "campaign not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrCampaignTerminal):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	c, err := s.campaigns.GetCampaign(r.Context(), domain.CampaignID(id))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(c)
}

// handleLimits reports the safety controller's current usage window.
// GET /v1/limits
func (s *Server) handleLimits(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"limits": s.safety.Snapshot(),
	})
}
