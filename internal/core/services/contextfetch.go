package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/revreach/revreach/internal/core/domain"
)

// SearchContextFetcher builds target research from the Brave Search API.
// By contract it always returns usable text: any failure (missing key,
// network error, empty results) resolves to deterministic fallback
// context instead of an error.
type SearchContextFetcher struct {
	logger       *slog.Logger
	client       *http.Client
	apiKey       string
	product      string
	productPitch string
}

func NewSearchContextFetcher(logger *slog.Logger, apiKey, product, productPitch string) *SearchContextFetcher {
	if productPitch == "" {
		productPitch = product + " connects customer feedback directly to engineering teams, enabling faster product iterations."
	}
	return &SearchContextFetcher{
		logger:       logger,
		client:       &http.Client{Timeout: 10 * time.Second},
		apiKey:       apiKey,
		product:      product,
		productPitch: productPitch,
	}
}

func (f *SearchContextFetcher) FetchContext(ctx context.Context, target string) (domain.TargetContext, error) {
	tc := domain.TargetContext{
		Target:   target,
		External: fmt.Sprintf("Recent market developments for %s could not be retrieved.", target),
		Product:  f.productPitch,
	}

	if f.apiKey == "" {
		return tc, nil
	}

	snippets, err := f.searchBrave(ctx, target+" company recent news")
	if err != nil {
		f.logger.Warn("search failed, using fallback context", "target", target, "error", err)
		return tc, nil
	}
	if len(snippets) > 0 {
		tc.External = strings.Join(snippets, "\n")
	}
	return tc, nil
}

func (f *SearchContextFetcher) searchBrave(ctx context.Context, query string) ([]string, error) {
	reqURL := "https://api.search.brave.com/res/v1/web/search?q=" + url.QueryEscape(query) + "&count=5"
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Subscription-Token", f.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave api error: %d", resp.StatusCode)
	}

	var braveResp struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&braveResp); err != nil {
		return nil, err
	}

	var snippets []string
	for _, r := range braveResp.Web.Results {
		if r.Description != "" {
			snippets = append(snippets, r.Title+": "+r.Description)
		}
	}
	return snippets, nil
}
