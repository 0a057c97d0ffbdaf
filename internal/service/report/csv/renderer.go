package csv

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/studio-labs/assessor/internal/service/report/types"
)

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) SupportedFormat() types.ReportFormat {
	return types.ReportFormatCSV
}

func (r *Renderer) ContentType() string {
	return "text/csv"
}

func (r *Renderer) Render(data *types.ReportData) ([]byte, error) {
	var csvRows [][]string

	csvRows = append(csvRows, []string{"CRYPTO INVESTMENT ASSESSMENT REPORT"})
	csvRows = append(csvRows, []string{fmt.Sprintf("Generated: %s", data.GeneratedAt.Format(time.RFC1123))})
	csvRows = append(csvRows, []string{""})

	csvRows = r.addSection(csvRows, types.SummarySection(data))

	if len(data.Assessments) == 0 {
		csvRows = append(csvRows, []string{"NOTICE"})
		csvRows = append(csvRows, []string{"No assessments have been submitted yet."})
		return r.convertRowsToCSV(csvRows)
	}

	csvRows = r.addSection(csvRows, types.AssessmentsSection(data))

	return r.convertRowsToCSV(csvRows)
}

func (r *Renderer) addSection(csvRows [][]string, section types.Section) [][]string {
	csvRows = append(csvRows, []string{section.Title})
	csvRows = append(csvRows, []string{""})
	csvRows = append(csvRows, section.Header)
	csvRows = append(csvRows, section.Rows...)
	csvRows = append(csvRows, []string{""})
	return csvRows
}

func (r *Renderer) convertRowsToCSV(csvRows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	for _, row := range csvRows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV writer: %w", err)
	}

	return buf.Bytes(), nil
}
