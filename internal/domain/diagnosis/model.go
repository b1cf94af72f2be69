package diagnosis

import (
	"math"

	"github.com/clinica/clinica/internal/domain/knowledge"
	"github.com/clinica/clinica/internal/domain/visit"
)

// Result is the best-matching condition for one set of reported symptoms.
// It is derived from, and independent of, the catalog entry it describes.
type Result struct {
	Category       string            `json:"category"`
	Condition      string            `json:"condition"`
	Label          string            `json:"label"`
	Symptoms       []string          `json:"symptoms"`
	Recommendation string            `json:"recommendation"`
	Urgency        knowledge.Urgency `json:"urgency"`
	Exams          []string          `json:"exams,omitempty"`
	Specialist     string            `json:"specialist,omitempty"`
	RiskFactors    []string          `json:"risk_factors,omitempty"`
	// Score is the raw similarity, up to FullCoverageBonus.
	Score float64 `json:"score"`
	// Confidence is Score as a percentage rounded to two decimals. It is not
	// clamped and exceeds 100 for full-coverage matches.
	Confidence float64 `json:"confidence"`
}

func newResult(c knowledge.Condition, score float64) Result {
	return Result{
		Category:       c.Category,
		Condition:      c.Name,
		Label:          c.Label,
		Symptoms:       copyStrings(c.Symptoms),
		Recommendation: c.Recommendation,
		Urgency:        c.Urgency,
		Exams:          copyStrings(c.Exams),
		Specialist:     c.Specialist,
		RiskFactors:    copyStrings(c.RiskFactors),
		Score:          score,
		Confidence:     Confidence(score),
	}
}

// Finding returns the triple stored with a visit. The condition label is
// used as the diagnosis text, falling back to the condition name.
func (r Result) Finding() visit.Finding {
	d := r.Label
	if d == "" {
		d = r.Condition
	}
	return visit.Finding{
		Diagnosis:      d,
		Recommendation: r.Recommendation,
		Urgency:        string(r.Urgency),
	}
}

// Confidence scales a score to a percentage rounded to two decimals.
func Confidence(score float64) float64 {
	return math.Round(score*100*100) / 100
}

// Candidate is one scored catalog entry.
type Candidate struct {
	Category  string  `json:"category"`
	Condition string  `json:"condition"`
	Score     float64 `json:"score"`
	Matched   int     `json:"matched"`
	FullMatch bool    `json:"full_match"`
}

func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
