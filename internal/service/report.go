package service

import (
	"github.com/studio-labs/assessor/internal/service/report/csv"
	"github.com/studio-labs/assessor/internal/service/report/types"
	"github.com/studio-labs/assessor/internal/service/report/xlsx"
)

type ReportRenderer = types.ReportRenderer
type ReportFormat = types.ReportFormat
type ReportData = types.ReportData

const (
	ReportFormatCSV  = types.ReportFormatCSV
	ReportFormatXLSX = types.ReportFormatXLSX
)

// Report is a rendered export ready to be served.
type Report struct {
	Format      ReportFormat
	ContentType string
	Content     []byte
}

type ReportService struct {
	renderers map[types.ReportFormat]types.ReportRenderer
}

func NewReportService() *ReportService {
	service := &ReportService{
		renderers: make(map[types.ReportFormat]types.ReportRenderer),
	}

	csvRenderer := csv.NewRenderer()
	xlsxRenderer := xlsx.NewRenderer()

	service.renderers[csvRenderer.SupportedFormat()] = csvRenderer
	service.renderers[xlsxRenderer.SupportedFormat()] = xlsxRenderer

	return service
}

func (r *ReportService) GenerateReport(data ReportData, format ReportFormat) (*Report, error) {
	renderer, exists := r.renderers[format]
	if !exists {
		return nil, NewErrUnsupportedReportFormat(string(format))
	}

	content, err := renderer.Render(&data)
	if err != nil {
		return nil, err
	}

	return &Report{Format: format, ContentType: renderer.ContentType(), Content: content}, nil
}
