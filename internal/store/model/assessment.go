package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	api "github.com/studio-labs/assessor/api/v1alpha1"
)

const (
	AssessmentStatusGenerating = string(api.AssessmentStatusGenerating)
	AssessmentStatusReady      = string(api.AssessmentStatusReady)
	AssessmentStatusFailed     = string(api.AssessmentStatusFailed)
)

// Assessment is one asynchronous job. The parameters are written once at
// creation; Status, Result and ErrorMessage are written once more when the
// workflow engine reports back.
type Assessment struct {
	ID            uuid.UUID                      `gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	CreatedAt     time.Time                      `gorm:"not null;autoCreateTime"`
	UpdatedAt     *time.Time                     `gorm:"autoUpdateTime:false"`
	Owner         string                         `gorm:"not null;type:VARCHAR(255);index:assessments_owner_idx"`
	Symbol        string                         `gorm:"not null;type:VARCHAR(20)"`
	Amount        decimal.Decimal                `gorm:"not null;type:NUMERIC(24,8)"`
	RiskTolerance string                         `gorm:"not null;type:VARCHAR(20)"`
	TimeHorizon   string                         `gorm:"not null;type:VARCHAR(20)"`
	Notes         *string                        `gorm:"type:TEXT"`
	Status        string                         `gorm:"not null;type:VARCHAR(20);default:generating;index:assessments_status_idx"`
	Result        *JSONField[api.AssessmentData] `gorm:"type:jsonb"`
	ErrorMessage  *string                        `gorm:"type:TEXT"`
}

type AssessmentList []Assessment

func (a Assessment) IsTerminal() bool {
	return a.Status == AssessmentStatusReady || a.Status == AssessmentStatusFailed
}

func (a Assessment) String() string {
	val, _ := json.Marshal(a)
	return string(val)
}
