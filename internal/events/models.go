package events

import (
	"time"

	api "github.com/studio-labs/assessor/api/v1alpha1"
)

// AssessmentEvent is the payload of every assessment lifecycle event.
type AssessmentEvent struct {
	AssessmentID string               `json:"assessment_id"`
	Owner        string               `json:"owner"`
	Symbol       string               `json:"symbol"`
	Status       api.AssessmentStatus `json:"status"`
	Decision     *api.Decision        `json:"decision,omitempty"`
	Confidence   *int                 `json:"confidence,omitempty"`
	ErrorMessage *string              `json:"error_message,omitempty"`
	OccurredAt   time.Time            `json:"occurred_at"`
}

// KindForStatus maps a terminal status to the event kind announcing it.
func KindForStatus(status api.AssessmentStatus) string {
	switch status {
	case api.AssessmentStatusReady:
		return AssessmentReadyKind
	case api.AssessmentStatusFailed:
		return AssessmentFailedKind
	default:
		return AssessmentCreatedKind
	}
}
