package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/revreach/revreach/internal/core/domain"
	"github.com/revreach/revreach/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCampaignRepo struct {
	campaigns map[domain.CampaignID]domain.Campaign
}

func (r *fakeCampaignRepo) SaveCampaign(_ context.Context, c *domain.Campaign) error {
	r.campaigns[c.ID] = *c
	return nil
}

func (r *fakeCampaignRepo) GetCampaign(_ context.Context, id domain.CampaignID) (*domain.Campaign, error) {
	c, ok := r.campaigns[id]
	if !ok {
		return nil, domain.ErrCampaignNotFound
	}
	return &c, nil
}

func (r *fakeCampaignRepo) ListCampaigns(_ context.Context) ([]domain.Campaign, error) {
	out := make([]domain.Campaign, 0, len(r.campaigns))
	for _, c := range r.campaigns {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeCampaignRepo) ListCampaignsByStatus(_ context.Context, status domain.CampaignStatus) ([]domain.Campaign, error) {
	var out []domain.Campaign
	for _, c := range r.campaigns {
		if c.Status == status {
			out = append(out, c)
		}
	}
	return out, nil
}

func newTestServer() (*Server, *fakeCampaignRepo) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	repo := &fakeCampaignRepo{campaigns: make(map[domain.CampaignID]domain.Campaign)}
	safety := services.NewSafetyController(logger, services.SafetyLimits{})
	return NewServer(logger, nil, repo, nil, safety, services.NewEventBus(logger)), repo
}

func TestRouting_PathMatchers(t *testing.T) {
	assert.True(t, isCampaignPath("/v1/campaigns/abc"))
	assert.False(t, isCampaignPath("/v1/campaigns/"))
	assert.False(t, isCampaignPath("/v1/campaigns/abc/events"))

	assert.True(t, isCampaignSubPath("/v1/campaigns/abc/events", "/events"))
	assert.False(t, isCampaignSubPath("/v1/campaigns//events", "/events"))
	assert.False(t, isCampaignSubPath("/v1/campaigns/a/b/events", "/events"))

	assert.Equal(t, "abc", campaignIDFromPath("/v1/campaigns/abc/pause", "/pause"))
	assert.Equal(t, "abc", campaignIDFromPath("/v1/campaigns/abc", ""))
}

func TestServer_GetCampaign(t *testing.T) {
	srv, repo := newTestServer()
	repo.campaigns["camp-1"] = domain.Campaign{
		ID:     "camp-1",
		Status: domain.CampaignStatusWaitingApproval,
		Sector: "retail",
	}
	handler := srv.Handler()

	// 1. Found
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/v1/campaigns/camp-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var c domain.Campaign
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Equal(t, domain.CampaignID("camp-1"), c.ID)
	assert.Equal(t, "retail", c.Sector)

	// 2. Unknown campaign
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/v1/campaigns/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ListCampaignsFiltered(t *testing.T) {
	srv, repo := newTestServer()
	repo.campaigns["a"] = domain.Campaign{ID: "a", Status: domain.CampaignStatusCompleted}
	repo.campaigns["b"] = domain.Campaign{ID: "b", Status: domain.CampaignStatusExecuting}
	handler := srv.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/v1/campaigns?status=completed", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count     int               `json:"count"`
		Campaigns []domain.Campaign `json:"campaigns"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, domain.CampaignID("a"), body.Campaigns[0].ID)
}

func TestServer_Limits(t *testing.T) {
	srv, _ := newTestServer()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/v1/limits", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Limits map[string]services.LimitStatus `json:"limits"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Limits, "daily_emails")
	assert.Equal(t, 50, body.Limits["daily_emails"].Max)
}

func TestServer_UnknownRoute(t *testing.T) {
	srv, _ := newTestServer()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/v1/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
