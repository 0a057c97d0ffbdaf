package model

import "github.com/shopspring/decimal"

type StatusCount struct {
	Status      string
	Total       int
	TotalAmount decimal.Decimal
}

// AssessmentStats aggregates one owner's assessments.
type AssessmentStats struct {
	Total             int
	ByStatus          map[string]int
	TotalAmount       decimal.Decimal
	AverageConfidence float64
	AverageRiskScore  float64
}

func NewAssessmentStats(counts []StatusCount, ready AssessmentList) AssessmentStats {
	stats := AssessmentStats{ByStatus: map[string]int{}, TotalAmount: decimal.Zero}
	for _, c := range counts {
		stats.Total += c.Total
		stats.ByStatus[c.Status] += c.Total
		stats.TotalAmount = stats.TotalAmount.Add(c.TotalAmount)
	}

	n := 0
	confidence, risk := 0, 0
	for _, a := range ready {
		if a.Result == nil {
			continue
		}
		n++
		confidence += a.Result.Data.Confidence
		risk += a.Result.Data.RiskScore
	}
	if n > 0 {
		stats.AverageConfidence = float64(confidence) / float64(n)
		stats.AverageRiskScore = float64(risk) / float64(n)
	}
	return stats
}
