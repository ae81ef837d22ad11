// Package server exposes the campaign engine over a small JSON HTTP API
// plus an SSE stream of per-campaign events.
package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/revreach/revreach/internal/core/ports"
	"github.com/revreach/revreach/internal/core/services"
)

type Server struct {
	logger      *slog.Logger
	engine      *services.Engine
	campaigns   ports.CampaignRepository
	checkpoints *services.CheckpointStore
	safety      *services.SafetyController
	eventBus    *services.EventBus
}

func NewServer(
	logger *slog.Logger,
	engine *services.Engine,
	campaigns ports.CampaignRepository,
	checkpoints *services.CheckpointStore,
	safety *services.SafetyController,
	eventBus *services.EventBus,
) *Server {
	return &Server{
		logger:      logger,
		engine:      engine,
		campaigns:   campaigns,
		checkpoints: checkpoints,
		safety:      safety,
		eventBus:    eventBus,
	}
}

// Handler returns the http.Handler with all API routes mounted.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		switch {
		case r.Method == "POST" && path == "/v1/campaigns":
			s.handleCreateCampaign(w, r)
		case r.Method == "GET" && path == "/v1/campaigns":
			s.handleListCampaigns(w, r)
		case r.Method == "GET" && path == "/v1/checkpoints":
			s.handleListPendingCheckpoints(w, r)
		case r.Method == "POST" && strings.HasPrefix(path, "/v1/checkpoints/") && strings.HasSuffix(path, "/resolve"):
			s.handleResolveCheckpoint(w, r)
		case r.Method == "GET" && path == "/v1/limits":
			s.handleLimits(w, r)
		case r.Method == "GET" && isCampaignSubPath(path, "/events"):
			s.handleCampaignSSE(w, r)
		case r.Method == "GET" && isCampaignSubPath(path, "/checkpoints"):
			s.handleCampaignCheckpoints(w, r)
		case r.Method == "POST" && isCampaignSubPath(path, "/pause"):
			s.handlePauseCampaign(w, r)
		case r.Method == "POST" && isCampaignSubPath(path, "/resume"):
			s.handleResumeCampaign(w, r)
		case r.Method == "POST" && isCampaignSubPath(path, "/stop"):
			s.handleStopCampaign(w, r)
		case r.Method == "GET" && isCampaignPath(path):
			s.handleGetCampaign(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// isCampaignPath checks if an URL path matches /v1/campaigns/{id}.
func isCampaignPath(path string) bool {
	const prefix = "/v1/campaigns/"
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	rest := path[len(prefix):]
	return rest != "" && !strings.Contains(rest, "/")
}

// isCampaignSubPath checks if an URL path matches /v1/campaigns/{id}<suffix>.
func isCampaignSubPath(path, suffix string) bool {
	const prefix = "/v1/campaigns/"
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return false
	}
	middle := path[len(prefix) : len(path)-len(suffix)]
	return middle != "" && !strings.Contains(middle, "/")
}

// campaignIDFromPath extracts {id} from /v1/campaigns/{id}<suffix>.
func campaignIDFromPath(path, suffix string) string {
	rest := strings.TrimPrefix(path, "/v1/campaigns/")
	return strings.TrimSuffix(rest, suffix)
}
