package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	assessorSubsystem = "assessor"

	assessmentsCreatedTotal  = "assessments_created_total"
	assessmentsFinishedTotal = "assessments_finished_total"
	reaperExpiredTotal       = "reaper_expired_total"
	webhookTriggersTotal     = "webhook_triggers_total"

	statusLabel  = "status"
	outcomeLabel = "outcome"
)

var assessmentsCreatedMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: assessorSubsystem,
		Name:      assessmentsCreatedTotal,
		Help:      "number of assessments created",
	},
)

var assessmentsFinishedMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: assessorSubsystem,
		Name:      assessmentsFinishedTotal,
		Help:      "number of assessments that reached a terminal status",
	},
	[]string{statusLabel},
)

var reaperExpiredMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: assessorSubsystem,
		Name:      reaperExpiredTotal,
		Help:      "number of assessments failed by the reaper because the workflow engine never answered",
	},
)

var webhookTriggersMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: assessorSubsystem,
		Name:      webhookTriggersTotal,
		Help:      "number of workflow engine webhook calls partitioned by outcome",
	},
	[]string{outcomeLabel},
)

func IncreaseAssessmentsCreatedMetric() {
	assessmentsCreatedMetric.Inc()
}

func IncreaseAssessmentsFinishedMetric(status string) {
	assessmentsFinishedMetric.With(prometheus.Labels{statusLabel: status}).Inc()
}

func IncreaseReaperExpiredMetric(count int) {
	reaperExpiredMetric.Add(float64(count))
}

func IncreaseWebhookTriggersMetric(outcome string) {
	webhookTriggersMetric.With(prometheus.Labels{outcomeLabel: outcome}).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(assessmentsCreatedMetric)
	prometheus.MustRegister(assessmentsFinishedMetric)
	prometheus.MustRegister(reaperExpiredMetric)
	prometheus.MustRegister(webhookTriggersMetric)
	prometheus.MustRegister(totalUniqueOwnersPerWeekMetric)
}
