package health

import (
	"time"

	"github.com/hamed0406/uplinkwatch/internal/domain"
)

// Weights are the per-category contributions to the confidence score. They
// must sum to 1.0; config validation enforces that at startup.
type Weights struct {
	DNS  float64
	TCP  float64
	HTTP float64
}

// DefaultWeights mirror the shipped policy: TCP carries the most signal,
// DNS the least (resolvers cache aggressively).
var DefaultWeights = Weights{DNS: 0.20, TCP: 0.45, HTTP: 0.35}

func (w Weights) of(c domain.Category) float64 {
	switch c {
	case domain.CategoryDNS:
		return w.DNS
	case domain.CategoryTCP:
		return w.TCP
	case domain.CategoryHTTP:
		return w.HTTP
	}
	return 0
}

// Evaluator collapses a cycle's check results into one assessment. It is a
// pure function of its input: same results, same assessment.
type Evaluator struct {
	Weights   Weights
	Threshold float64 // online iff score >= Threshold (inclusive)
}

func NewEvaluator(w Weights, threshold float64) Evaluator {
	return Evaluator{Weights: w, Threshold: threshold}
}

// Evaluate groups results by category, computes the weighted score and
// derives the verdict. A category with zero results keeps its weight in the
// denominator and contributes 0 — an accidentally empty category depresses
// confidence rather than inflating it.
func (e Evaluator) Evaluate(results []domain.CheckResult, now time.Time) domain.HealthAssessment {
	outcomes := make(map[domain.Category]domain.CategoryOutcome, len(domain.Categories))
	for _, c := range domain.Categories {
		outcomes[c] = domain.CategoryOutcome{Category: c}
	}

	var failed []domain.CheckResult
	for _, r := range results {
		o := outcomes[r.Category]
		o.Category = r.Category
		o.Run++
		if r.Success {
			o.Passed++
		} else {
			failed = append(failed, r)
		}
		outcomes[r.Category] = o
	}

	var score float64
	for _, c := range domain.Categories {
		score += e.Weights.of(c) * outcomes[c].Ratio()
	}

	verdict := domain.VerdictOffline
	if score >= e.Threshold {
		verdict = domain.VerdictOnline
	}

	return domain.HealthAssessment{
		Verdict:    verdict,
		Score:      score,
		Categories: outcomes,
		Failed:     failed,
		CheckedAt:  now,
	}
}
