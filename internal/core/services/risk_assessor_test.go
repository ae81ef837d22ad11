package services

import (
	"strings"
	"testing"

	"github.com/revreach/revreach/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestRiskAssessor_Targets(t *testing.T) {
	a := NewRiskAssessor(RiskLists{})

	// 1. Known sensitive organizations are High regardless of sector
	assert.Equal(t, domain.RiskHigh, a.AssessTarget("Microsoft Corporation", "technology"))
	assert.Equal(t, domain.RiskHigh, a.AssessTarget("tesla", "automotive"))

	// 2. Regulated sectors push unknown targets to Medium
	assert.Equal(t, domain.RiskMedium, a.AssessTarget("Acme Corp", "financial services"))
	assert.Equal(t, domain.RiskMedium, a.AssessTarget("Medico", "healthcare"))

	// 3. "fintech" is not on the regulated list; only exact sector terms match
	assert.Equal(t, domain.RiskLow, a.AssessTarget("PayFast", "fintech"))

	// 4. Everything else is Low
	assert.Equal(t, domain.RiskLow, a.AssessTarget("Corner Bakery", "food"))
}

func TestRiskAssessor_Content(t *testing.T) {
	a := NewRiskAssessor(RiskLists{})

	neutral := strings.Repeat("insightful product update for your engineering team ", 9) // ~63 words

	// 1. Neutral content of ordinary length carries no factors
	level, factors := a.AssessContent(neutral, "Acme")
	assert.Equal(t, domain.RiskLow, level)
	assert.Empty(t, factors)

	// 2. Sensitive topics are High severity
	level, factors = a.AssessContent(neutral+" given the recent layoffs", "Acme")
	assert.Equal(t, domain.RiskHigh, level)
	assert.Equal(t, "sensitive_topic", factors[0].Type)

	// 3. Risky language is Medium severity
	level, factors = a.AssessContent(neutral+" this is urgent", "Acme")
	assert.Equal(t, domain.RiskMedium, level)
	assert.Equal(t, "risky_language", factors[0].Type)

	// 4. Very short content is flagged Low, overall stays Low
	level, factors = a.AssessContent("Hello there", "Acme")
	assert.Equal(t, domain.RiskLow, level)
	assert.Equal(t, "content_length", factors[0].Type)

	// 5. Very long content is flagged Medium
	long := strings.Repeat("word ", 250)
	level, factors = a.AssessContent(long, "Acme")
	assert.Equal(t, domain.RiskMedium, level)
	assert.Equal(t, "content_length", factors[0].Type)
}

func TestRiskAssessor_Batch(t *testing.T) {
	a := NewRiskAssessor(RiskLists{})

	// 1. Any High target makes the batch High
	level, assessment := a.AssessBatch([]string{"Acme", "Google Cloud", "Beta"}, "technology")
	assert.Equal(t, domain.RiskHigh, level)
	assert.Equal(t, []string{"Google Cloud"}, assessment.HighRisk)
	assert.NotEmpty(t, assessment.Recommendations)

	// 2. More than half Medium makes the batch Medium
	level, assessment = a.AssessBatch([]string{"Acme", "Beta", "Gamma"}, "banking")
	assert.Equal(t, domain.RiskMedium, level)
	assert.Len(t, assessment.MediumRisk, 3)

	// 3. A low batch still gets a recommendation
	level, assessment = a.AssessBatch([]string{"Acme", "Beta"}, "retail")
	assert.Equal(t, domain.RiskLow, level)
	assert.NotEmpty(t, assessment.Recommendations)

	// 4. Empty input is Low, never panics, never silent
	level, assessment = a.AssessBatch(nil, "retail")
	assert.Equal(t, domain.RiskLow, level)
	assert.NotEmpty(t, assessment.Recommendations)
}

func TestRiskAssessor_CustomLists(t *testing.T) {
	a := NewRiskAssessor(RiskLists{
		SensitiveTargets: []string{"initech"},
		RegulatedSectors: []string{"aerospace"},
	})

	assert.Equal(t, domain.RiskHigh, a.AssessTarget("Initech LLC", "retail"))
	assert.Equal(t, domain.RiskMedium, a.AssessTarget("SkyWorks", "aerospace"))
	// Defaults are replaced, not merged
	assert.Equal(t, domain.RiskLow, a.AssessTarget("Microsoft", "technology"))
}
