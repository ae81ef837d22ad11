package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/revreach/revreach/internal/core/domain"
)

// RiskLists are the knobs the assessor matches against. Zero-value
// fields fall back to the built-in defaults.
type RiskLists struct {
	SensitiveTargets []string
	RegulatedSectors []string
	SensitiveTopics  []string
}

var defaultSensitiveTargets = []string{
	"microsoft", "google", "apple", "amazon", "meta", "netflix",
	"salesforce", "oracle", "ibm", "adobe", "nvidia", "tesla",
}

var defaultRegulatedSectors = []string{
	"financial", "healthcare", "pharmaceutical", "banking",
	"insurance", "government", "defense",
}

var defaultSensitiveTopics = []string{
	"layoffs", "layoff", "downsizing", "bankruptcy", "lawsuit",
	"controversy", "scandal", "hack", "breach", "investigation",
	"regulatory", "compliance", "penalty", "fine",
}

var riskyLanguage = []*regexp.Regexp{
	regexp.MustCompile(`urgent|immediate|emergency`),
	regexp.MustCompile(`guaranteed|promise|100%`),
	regexp.MustCompile(`free|no cost|no charge`),
	regexp.MustCompile(`limited time|expires|deadline`),
	regexp.MustCompile(`confidential|secret|insider`),
}

// RiskAssessor classifies targets and content into Low/Medium/High.
// It is pure: no I/O, no mutation, deterministic for a given input.
type RiskAssessor struct {
	sensitiveTargets []string
	regulatedSectors []string
	sensitiveTopics  []string
}

func NewRiskAssessor(lists RiskLists) *RiskAssessor {
	a := &RiskAssessor{
		sensitiveTargets: lists.SensitiveTargets,
		regulatedSectors: lists.RegulatedSectors,
		sensitiveTopics:  lists.SensitiveTopics,
	}
	if len(a.sensitiveTargets) == 0 {
		a.sensitiveTargets = defaultSensitiveTargets
	}
	if len(a.regulatedSectors) == 0 {
		a.regulatedSectors = defaultRegulatedSectors
	}
	if len(a.sensitiveTopics) == 0 {
		a.sensitiveTopics = defaultSensitiveTopics
	}
	return a
}

// AssessTarget scores a single target. High for known sensitive
// organizations, Medium for regulated sectors, Low otherwise.
func (a *RiskAssessor) AssessTarget(target, sector string) domain.RiskLevel {
	lower := strings.ToLower(target)
	for _, s := range a.sensitiveTargets {
		if strings.Contains(lower, s) {
			return domain.RiskHigh
		}
	}
	sectorLower := strings.ToLower(sector)
	for _, r := range a.regulatedSectors {
		if strings.Contains(sectorLower, r) {
			return domain.RiskMedium
		}
	}
	return domain.RiskLow
}

// AssessContent scans drafted content for sensitive topics, risky
// language, and length outliers. Overall risk is the max severity of
// the factors found; no factors means Low.
func (a *RiskAssessor) AssessContent(content, target string) (domain.RiskLevel, []domain.RiskFactor) {
	var factors []domain.RiskFactor
	lower := strings.ToLower(content)

	for _, topic := range a.sensitiveTopics {
		if strings.Contains(lower, topic) {
			factors = append(factors, domain.RiskFactor{
				Type:           "sensitive_topic",
				Severity:       domain.RiskHigh,
				Description:    fmt.Sprintf("content mentions sensitive topic: %s", topic),
				Recommendation: "consider softer language or remove the reference",
			})
		}
	}

	for _, re := range riskyLanguage {
		if re.MatchString(lower) {
			factors = append(factors, domain.RiskFactor{
				Type:           "risky_language",
				Severity:       domain.RiskMedium,
				Description:    fmt.Sprintf("content contains potentially risky language: %s", re.String()),
				Recommendation: "consider a more professional tone",
			})
		}
	}

	words := len(strings.Fields(content))
	if words < 50 {
		factors = append(factors, domain.RiskFactor{
			Type:           "content_length",
			Severity:       domain.RiskLow,
			Description:    "content is very short and may appear impersonal",
			Recommendation: "consider adding more context",
		})
	} else if words > 200 {
		factors = append(factors, domain.RiskFactor{
			Type:           "content_length",
			Severity:       domain.RiskMedium,
			Description:    "content is very long and may reduce engagement",
			Recommendation: "consider shortening the message",
		})
	}

	overall := domain.RiskLow
	for _, f := range factors {
		overall = domain.MaxRisk(overall, f.Severity)
	}
	return overall, factors
}

// AssessBatch scores a whole candidate list: High if any target is High,
// Medium if more than half are Medium, else Low. The recommendation list
// is never empty.
func (a *RiskAssessor) AssessBatch(targets []string, sector string) (domain.RiskLevel, domain.BatchAssessment) {
	var high, medium []string
	for _, t := range targets {
		switch a.AssessTarget(t, sector) {
		case domain.RiskHigh:
			high = append(high, t)
		case domain.RiskMedium:
			medium = append(medium, t)
		}
	}

	overall := domain.RiskLow
	switch {
	case len(high) > 0:
		overall = domain.RiskHigh
	case len(medium)*2 > len(targets):
		overall = domain.RiskMedium
	}

	var recs []string
	if len(high) > 0 {
		recs = append(recs, fmt.Sprintf("manual approval required for %d high-profile targets", len(high)))
		recs = append(recs, "consider executive review for high-risk targets")
	}
	if len(medium) > 0 {
		recs = append(recs, fmt.Sprintf("extra caution needed for %d regulated industry targets", len(medium)))
	}
	if a.sectorRegulated(sector) {
		recs = append(recs, "ensure compliance with industry regulations")
	}
	if len(recs) == 0 {
		recs = append(recs, "batch appears low-risk, proceed with standard monitoring")
	}

	return overall, domain.BatchAssessment{
		Overall:         overall,
		HighRisk:        high,
		MediumRisk:      medium,
		Recommendations: recs,
	}
}

func (a *RiskAssessor) sectorRegulated(sector string) bool {
	lower := strings.ToLower(sector)
	for _, r := range a.regulatedSectors {
		if strings.Contains(lower, r) {
			return true
		}
	}
	return false
}
