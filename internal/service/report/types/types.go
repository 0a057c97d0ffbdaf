package types

import (
	"time"

	"github.com/studio-labs/assessor/internal/store/model"
)

type ReportRenderer interface {
	Render(data *ReportData) ([]byte, error)
	SupportedFormat() ReportFormat
	ContentType() string
}

type ReportFormat string

const (
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatXLSX ReportFormat = "xlsx"
)

type ReportData struct {
	Owner       string
	Assessments model.AssessmentList
	Stats       model.AssessmentStats
	GeneratedAt time.Time
}

// Section is a titled table. Every renderer lays out the same sections.
type Section struct {
	Title  string
	Header []string
	Rows   [][]string
}
