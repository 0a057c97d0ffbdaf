package mappers

import (
	api "github.com/studio-labs/assessor/api/v1alpha1"
	"github.com/studio-labs/assessor/internal/auth"
	"github.com/studio-labs/assessor/internal/service/mappers"
)

func AssessmentFormToCreateForm(form api.AssessmentForm, user auth.User) mappers.AssessmentCreateForm {
	return mappers.AssessmentCreateForm{
		Owner:         user.Username,
		Symbol:        form.Symbol,
		Amount:        form.Amount,
		RiskTolerance: form.RiskTolerance,
		TimeHorizon:   form.TimeHorizon,
		Notes:         form.Notes,
	}
}

func AssessmentResultToForm(result api.AssessmentResult) mappers.AssessmentResultForm {
	form := mappers.AssessmentResultForm{
		Status: result.Status,
		Data:   result.AssessmentData,
	}
	if result.ErrorMessage != nil {
		form.ErrorMessage = *result.ErrorMessage
	}
	return form
}
