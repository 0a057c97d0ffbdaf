package mappers

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	api "github.com/studio-labs/assessor/api/v1alpha1"
	"github.com/studio-labs/assessor/internal/store/model"
)

// AssessmentCreateForm carries the parameters of a new assessment. Owner is
// always the authenticated user.
type AssessmentCreateForm struct {
	ID            uuid.UUID
	Owner         string
	Symbol        string
	Amount        decimal.Decimal
	RiskTolerance api.RiskTolerance
	TimeHorizon   api.TimeHorizon
	Notes         *string
}

func (f AssessmentCreateForm) ToModel() model.Assessment {
	return model.Assessment{
		ID:            f.ID,
		Owner:         f.Owner,
		Symbol:        f.Symbol,
		Amount:        f.Amount,
		RiskTolerance: string(f.RiskTolerance),
		TimeHorizon:   string(f.TimeHorizon),
		Notes:         f.Notes,
		Status:        model.AssessmentStatusGenerating,
	}
}

// AssessmentResultForm is the outcome reported by the workflow engine.
type AssessmentResultForm struct {
	Status       api.AssessmentStatus
	Data         *api.AssessmentData
	ErrorMessage string
}
