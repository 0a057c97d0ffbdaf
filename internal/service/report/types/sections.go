package types

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/studio-labs/assessor/internal/store/model"
)

var AssessmentColumns = []string{
	"ID", "Created", "Symbol", "Amount", "Risk Tolerance", "Time Horizon",
	"Status", "Decision", "Confidence", "Risk Score",
}

func AssessmentsSection(data *ReportData) Section {
	rows := make([][]string, 0, len(data.Assessments))
	for _, a := range data.Assessments {
		rows = append(rows, assessmentRow(a))
	}
	return Section{Title: "ASSESSMENTS", Header: AssessmentColumns, Rows: rows}
}

func SummarySection(data *ReportData) Section {
	stats := data.Stats
	rows := [][]string{
		{"Owner", data.Owner},
		{"Generated", data.GeneratedAt.Format(time.RFC3339)},
		{"Total Assessments", strconv.Itoa(stats.Total)},
		{"Total Amount", stats.TotalAmount.StringFixed(2)},
		{"Average Confidence", fmt.Sprintf("%.1f", stats.AverageConfidence)},
		{"Average Risk Score", fmt.Sprintf("%.1f", stats.AverageRiskScore)},
	}

	statuses := make([]string, 0, len(stats.ByStatus))
	for status := range stats.ByStatus {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		rows = append(rows, []string{fmt.Sprintf("Status: %s", status), strconv.Itoa(stats.ByStatus[status])})
	}

	return Section{Title: "SUMMARY", Header: []string{"Metric", "Value"}, Rows: rows}
}

func assessmentRow(a model.Assessment) []string {
	decision, confidence, risk := "", "", ""
	if a.Result != nil {
		decision = string(a.Result.Data.Decision)
		confidence = strconv.Itoa(a.Result.Data.Confidence)
		risk = strconv.Itoa(a.Result.Data.RiskScore)
	}

	return []string{
		a.ID.String(),
		a.CreatedAt.UTC().Format(time.RFC3339),
		a.Symbol,
		a.Amount.String(),
		a.RiskTolerance,
		a.TimeHorizon,
		a.Status,
		decision,
		confidence,
		risk,
	}
}
