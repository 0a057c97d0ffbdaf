package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/studio-labs/assessor/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type assessmentStatsCollector struct {
	store            store.Store
	totalAssessments *prometheus.Desc
	totalByStatus    *prometheus.Desc
	totalAmount      *prometheus.Desc
	avgConfidence    *prometheus.Desc
}

// NewAssessmentStatsCollector exposes the assessment table as gauges, computed at scrape time.
func NewAssessmentStatsCollector(s store.Store) prometheus.Collector {
	fqName := func(name string) string {
		return fmt.Sprintf("%s_assessments_%s", assessorSubsystem, name)
	}

	return &assessmentStatsCollector{
		store: s,
		totalAssessments: prometheus.NewDesc(
			fqName("total"),
			"Total number of assessments.",
			nil,
			prometheus.Labels{},
		),
		totalByStatus: prometheus.NewDesc(
			fqName("by_status_total"),
			"Total assessments by status.",
			[]string{statusLabel},
			prometheus.Labels{},
		),
		totalAmount: prometheus.NewDesc(
			fqName("amount_total"),
			"Sum of the investment amounts across all assessments.",
			nil,
			prometheus.Labels{},
		),
		avgConfidence: prometheus.NewDesc(
			fqName("average_confidence"),
			"Average confidence of ready assessments.",
			nil,
			prometheus.Labels{},
		),
	}
}

func (c *assessmentStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalAssessments
	ch <- c.totalByStatus
	ch <- c.totalAmount
	ch <- c.avgConfidence
}

// Collect implements Collector.
func (c *assessmentStatsCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats, err := c.store.Assessment().Stats(ctx, nil)
	if err != nil {
		zap.S().Named("assessment_collector").Errorf("failed to collect assessment statistics: %s", err)
		return
	}

	amount, _ := stats.TotalAmount.Float64()
	ch <- prometheus.MustNewConstMetric(c.totalAssessments, prometheus.GaugeValue, float64(stats.Total))
	ch <- prometheus.MustNewConstMetric(c.totalAmount, prometheus.GaugeValue, amount)
	ch <- prometheus.MustNewConstMetric(c.avgConfidence, prometheus.GaugeValue, stats.AverageConfidence)

	for status, total := range stats.ByStatus {
		ch <- prometheus.MustNewConstMetric(c.totalByStatus, prometheus.GaugeValue, float64(total), status)
	}
}
