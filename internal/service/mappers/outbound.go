package mappers

import (
	"time"

	api "github.com/studio-labs/assessor/api/v1alpha1"
	"github.com/studio-labs/assessor/internal/events"
	"github.com/studio-labs/assessor/internal/store/model"
)

func AssessmentEventFromModel(a model.Assessment) events.AssessmentEvent {
	e := events.AssessmentEvent{
		AssessmentID: a.ID.String(),
		Owner:        a.Owner,
		Symbol:       a.Symbol,
		Status:       api.StringToAssessmentStatus(a.Status),
		ErrorMessage: a.ErrorMessage,
		OccurredAt:   time.Now().UTC(),
	}

	if a.UpdatedAt != nil {
		e.OccurredAt = *a.UpdatedAt
	}

	if a.Result != nil {
		decision := a.Result.Data.Decision
		confidence := a.Result.Data.Confidence
		e.Decision = &decision
		e.Confidence = &confidence
	}

	return e
}
