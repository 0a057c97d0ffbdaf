package mappers

import (
	api "github.com/studio-labs/assessor/api/v1alpha1"
	"github.com/studio-labs/assessor/internal/store/model"
)

func AssessmentToApi(a model.Assessment) api.Assessment {
	assessment := api.Assessment{
		Id:            a.ID,
		Owner:         a.Owner,
		Symbol:        a.Symbol,
		Amount:        a.Amount,
		RiskTolerance: api.StringToRiskTolerance(a.RiskTolerance),
		TimeHorizon:   api.StringToTimeHorizon(a.TimeHorizon),
		Notes:         a.Notes,
		Status:        api.StringToAssessmentStatus(a.Status),
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}

	// result and error message are exclusive, the status decides which one is exposed
	switch assessment.Status {
	case api.AssessmentStatusReady:
		if a.Result != nil {
			data := a.Result.Data
			assessment.AssessmentData = &data
		}
	case api.AssessmentStatusFailed:
		assessment.ErrorMessage = a.ErrorMessage
	}

	return assessment
}

func AssessmentToEnvelope(a model.Assessment) api.AssessmentEnvelope {
	assessment := AssessmentToApi(a)
	return api.AssessmentEnvelope{Assessment: &assessment}
}

func AssessmentListToApi(assessments model.AssessmentList, total int64) api.AssessmentList {
	list := api.AssessmentList{
		Assessments: make([]api.Assessment, 0, len(assessments)),
		Total:       int(total),
	}
	for _, a := range assessments {
		list.Assessments = append(list.Assessments, AssessmentToApi(a))
	}
	return list
}

func AssessmentStatsToApi(stats model.AssessmentStats) api.AssessmentStats {
	byStatus := make(map[api.AssessmentStatus]int, len(stats.ByStatus))
	for status, total := range stats.ByStatus {
		byStatus[api.StringToAssessmentStatus(status)] += total
	}

	return api.AssessmentStats{
		Total:             stats.Total,
		ByStatus:          byStatus,
		TotalAmount:       stats.TotalAmount,
		AverageConfidence: stats.AverageConfidence,
		AverageRiskScore:  stats.AverageRiskScore,
	}
}
