package v1alpha1

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AssessmentStatus string

const (
	AssessmentStatusGenerating AssessmentStatus = "generating"
	AssessmentStatusReady      AssessmentStatus = "ready"
	AssessmentStatusFailed     AssessmentStatus = "failed"
)

func (s AssessmentStatus) IsTerminal() bool {
	return s == AssessmentStatusReady || s == AssessmentStatusFailed
}

type RiskTolerance string

const (
	RiskToleranceConservative RiskTolerance = "conservative"
	RiskToleranceModerate     RiskTolerance = "moderate"
	RiskToleranceAggressive   RiskTolerance = "aggressive"
)

type TimeHorizon string

const (
	TimeHorizonShortTerm  TimeHorizon = "short_term"
	TimeHorizonMediumTerm TimeHorizon = "medium_term"
	TimeHorizonLongTerm   TimeHorizon = "long_term"
)

type Decision string

const (
	DecisionBuy  Decision = "buy"
	DecisionHold Decision = "hold"
	DecisionSell Decision = "sell"
)

// AssessmentForm is the create request body.
type AssessmentForm struct {
	Owner         string          `json:"owner" validate:"required,max=255"`
	Symbol        string          `json:"symbol" validate:"required,crypto_symbol"`
	Amount        decimal.Decimal `json:"amount" validate:"positive_amount"`
	RiskTolerance RiskTolerance   `json:"risk_tolerance" validate:"required,oneof=conservative moderate aggressive"`
	TimeHorizon   TimeHorizon     `json:"time_horizon" validate:"required,oneof=short_term medium_term long_term"`
	Notes         *string         `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// Assessment is the job record as exposed by the API.
type Assessment struct {
	Id             uuid.UUID        `json:"id"`
	Owner          string           `json:"owner"`
	Symbol         string           `json:"symbol"`
	Amount         decimal.Decimal  `json:"amount"`
	RiskTolerance  RiskTolerance    `json:"risk_tolerance"`
	TimeHorizon    TimeHorizon      `json:"time_horizon"`
	Notes          *string          `json:"notes,omitempty"`
	Status         AssessmentStatus `json:"status"`
	AssessmentData *AssessmentData  `json:"assessment_data,omitempty"`
	ErrorMessage   *string          `json:"error_message,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      *time.Time       `json:"updated_at,omitempty"`
}

// AssessmentData is the structured output written by the workflow engine.
type AssessmentData struct {
	Decision     Decision      `json:"decision" validate:"required,oneof=buy hold sell"`
	Confidence   int           `json:"confidence" validate:"gte=0,lte=100"`
	RiskScore    int           `json:"risk_score" validate:"gte=1,lte=10"`
	PriceTargets *PriceTargets `json:"price_targets,omitempty"`
	Narrative    string        `json:"narrative"`
	KeyFactors   []string      `json:"key_factors,omitempty"`
}

type PriceTargets struct {
	Entry    decimal.Decimal `json:"entry"`
	Target   decimal.Decimal `json:"target"`
	StopLoss decimal.Decimal `json:"stop_loss"`
}

// AssessmentEnvelope wraps a single record. A nil Assessment means the record
// does not exist.
type AssessmentEnvelope struct {
	Assessment *Assessment `json:"assessment,omitempty"`
}

type AssessmentList struct {
	Assessments []Assessment `json:"assessments"`
	Total       int          `json:"total"`
}

// AssessmentResult is the write-back body sent by the workflow engine.
type AssessmentResult struct {
	Status         AssessmentStatus `json:"status" validate:"required,oneof=ready failed"`
	AssessmentData *AssessmentData  `json:"assessment_data,omitempty" validate:"required_if=Status ready"`
	ErrorMessage   *string          `json:"error_message,omitempty" validate:"omitempty,max=2000"`
}

type AssessmentStats struct {
	Total             int                      `json:"total"`
	ByStatus          map[AssessmentStatus]int `json:"by_status"`
	TotalAmount       decimal.Decimal          `json:"total_amount"`
	AverageConfidence float64                  `json:"average_confidence"`
	AverageRiskScore  float64                  `json:"average_risk_score"`
}

// WebhookRequest is the body posted to the workflow engine's webhook.
type WebhookRequest struct {
	UserId           string          `json:"userId"`
	AssessmentId     string          `json:"assessmentId"`
	CryptoSymbol     string          `json:"cryptoSymbol"`
	InvestmentAmount decimal.Decimal `json:"investmentAmount"`
	RiskTolerance    RiskTolerance   `json:"riskTolerance"`
	TimeHorizon      TimeHorizon     `json:"timeHorizon"`
	Notes            *string         `json:"notes,omitempty"`
}

type WebhookResponse struct {
	Success      bool    `json:"success"`
	AssessmentId string  `json:"assessmentId"`
	Message      string  `json:"message"`
	Error        *string `json:"error,omitempty"`
}

type Error struct {
	Message   string  `json:"message"`
	RequestId *string `json:"requestId,omitempty"`
}

type Health struct {
	Status string `json:"status"`
}
