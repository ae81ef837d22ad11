package domain

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Severity orders risk levels so callers can take a max across factors.
func (r RiskLevel) Severity() int {
	switch r {
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	}
	return 0
}

// MaxRisk returns the more severe of two levels.
func MaxRisk(a, b RiskLevel) RiskLevel {
	if b.Severity() > a.Severity() {
		return b
	}
	return a
}

// RiskFactor is a single finding from a content assessment.
type RiskFactor struct {
	Type           string    `json:"type"`
	Severity       RiskLevel `json:"severity"`
	Description    string    `json:"description"`
	Recommendation string    `json:"recommendation"`
}

// BatchAssessment summarizes the risk of a whole candidate list.
type BatchAssessment struct {
	Overall         RiskLevel `json:"overall"`
	HighRisk        []string  `json:"high_risk,omitempty"`
	MediumRisk      []string  `json:"medium_risk,omitempty"`
	Recommendations []string  `json:"recommendations"`
}
