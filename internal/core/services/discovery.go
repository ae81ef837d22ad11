package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/revreach/revreach/internal/core/ports"
)

const discoverPromptTemplate = `Return only a valid JSON array of up to %d company names in the %s sector. No explanation. Format: ["Company A", "Company B", ...]`

// TargetDiscovery asks the configured LLM provider for candidate
// targets. Provider output is expected to be a bare JSON array of
// strings; code fences are tolerated.
type TargetDiscovery struct {
	logger     *slog.Logger
	provider   ports.TextGenerator
	maxTargets int
}

func NewTargetDiscovery(logger *slog.Logger, provider ports.TextGenerator, maxTargets int) *TargetDiscovery {
	if maxTargets <= 0 {
		maxTargets = 10
	}
	return &TargetDiscovery{logger: logger, provider: provider, maxTargets: maxTargets}
}

func (d *TargetDiscovery) Discover(ctx context.Context, sector string) ([]string, error) {
	prompt := fmt.Sprintf(discoverPromptTemplate, d.maxTargets, sector)

	raw, err := d.provider.GenerateText(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("discovery call failed: %w", err)
	}

	targets, err := parseTargetList(raw)
	if err != nil {
		return nil, fmt.Errorf("discovery returned unparseable output: %w", err)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("discovery returned no targets for sector %q", sector)
	}
	if len(targets) > d.maxTargets {
		targets = targets[:d.maxTargets]
	}

	d.logger.Info("targets discovered", "sector", sector, "count", len(targets))
	return targets, nil
}

// parseTargetList extracts a JSON string array from model output,
// stripping markdown code fences if present.
func parseTargetList(raw string) ([]string, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}

	var names []string
	if err := json.Unmarshal([]byte(s), &names); err != nil {
		return nil, err
	}

	out := names[:0]
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" {
			out = append(out, n)
		}
	}
	return out, nil
}
