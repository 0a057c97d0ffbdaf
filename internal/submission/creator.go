package submission

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	api "github.com/studio-labs/assessor/api/v1alpha1"
	"github.com/studio-labs/assessor/internal/client"
)

// AssessmentAPI is the part of the assessor API the submission flow needs.
type AssessmentAPI interface {
	CreateAssessment(ctx context.Context, form api.AssessmentForm) (*api.AssessmentEnvelope, error)
	GetAssessment(ctx context.Context, id uuid.UUID) (*api.AssessmentEnvelope, error)
}

// Parameters is the user input of one assessment. It never changes after creation.
type Parameters struct {
	Symbol        string
	Amount        decimal.Decimal
	RiskTolerance api.RiskTolerance
	TimeHorizon   api.TimeHorizon
	Notes         *string
}

func (p Parameters) form(owner string) api.AssessmentForm {
	return api.AssessmentForm{
		Owner:         owner,
		Symbol:        p.Symbol,
		Amount:        p.Amount,
		RiskTolerance: p.RiskTolerance,
		TimeHorizon:   p.TimeHorizon,
		Notes:         p.Notes,
	}
}

// Creator inserts the pending record. It makes a single attempt.
type Creator struct {
	api AssessmentAPI
}

func NewCreator(a AssessmentAPI) *Creator {
	return &Creator{api: a}
}

func (c *Creator) Create(ctx context.Context, owner string, params Parameters) (uuid.UUID, error) {
	envelope, err := c.api.CreateAssessment(ctx, params.form(owner))
	if err != nil {
		e := NewError(CodeCreateError, "failed to create assessment", err)
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			e.Message = "failed to create assessment: " + apiErr.Error()
			e.WithDetail("status", apiErr.StatusCode).WithDetail("body", apiErr.Body)
		}
		return uuid.Nil, e
	}

	if envelope == nil || envelope.Assessment == nil || envelope.Assessment.Id == uuid.Nil {
		return uuid.Nil, NewError(CodeCreateError, "create response carries no assessment", nil)
	}

	return envelope.Assessment.Id, nil
}
