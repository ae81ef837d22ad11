package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/revreach/revreach/internal/core/domain"
	"github.com/revreach/revreach/internal/core/ports"
)

const draftPromptTemplate = `You are a friendly, concise sales-outreach assistant at %[1]s.
Given the following context for %[2]s:

External context:
%[3]s

%[1]s context:
%[4]s

Write a personalized cold email to %[2]s's leadership explaining,
in 3-4 short paragraphs, how %[1]s can help solve their challenges.
Make it warm, professional, and include a clear call to action.

Email:
`

// EmailDrafter produces outreach content via the LLM provider. Errors
// surface to the engine, which substitutes a deterministic placeholder
// per item rather than aborting the batch.
type EmailDrafter struct {
	logger   *slog.Logger
	provider ports.TextGenerator
	product  string
}

func NewEmailDrafter(logger *slog.Logger, provider ports.TextGenerator, product string) *EmailDrafter {
	return &EmailDrafter{logger: logger, provider: provider, product: product}
}

func (d *EmailDrafter) Draft(ctx context.Context, target string, tc domain.TargetContext) (string, error) {
	prompt := fmt.Sprintf(draftPromptTemplate, d.product, target, tc.External, tc.Product)

	content, err := d.provider.GenerateText(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("draft call failed for %s: %w", target, err)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("draft call for %s returned empty content", target)
	}

	d.logger.Info("draft generated", "target", target, "words", len(strings.Fields(content)))
	return content, nil
}
