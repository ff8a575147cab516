package workflow

import "github.com/prometheus/client_golang/prometheus"

const (
	MetricIngestRuns        = "runs_total"
	MetricIngestGroups      = "po_groups_total"
	MetricIngestItems       = "line_items_total"
	MetricIngestRunDuration = "run_duration_seconds"
)

const (
	metricLabelOutcome     = "outcome"
	metricOutcomeSuccess   = "success"
	metricOutcomePartial   = "partial"
	metricOutcomeFailed    = "failed"
	metricOutcomeFatal     = "fatal"
	metricOutcomeProcessed = "processed"
)

var CounterIngestRuns = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "po_ingest",
		Name:      MetricIngestRuns,
		Help:      "Ingestion runs by outcome.",
	},
	[]string{metricLabelOutcome},
)

var CounterIngestGroups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "po_ingest",
		Name:      MetricIngestGroups,
		Help:      "PO groups processed by outcome.",
	},
	[]string{metricLabelOutcome},
)

var CounterIngestItems = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "po_ingest",
		Name:      MetricIngestItems,
		Help:      "Line items received by ingestion runs.",
	},
)

var HistogramIngestRunDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "po_ingest",
		Name:      MetricIngestRunDuration,
		Help:      "Wall time of one ingestion run.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	},
)

func init() {
	prometheus.MustRegister(CounterIngestRuns)
	prometheus.MustRegister(CounterIngestGroups)
	prometheus.MustRegister(CounterIngestItems)
	prometheus.MustRegister(HistogramIngestRunDuration)
}

func observeRun(report *Report, fatal bool) {
	outcome := metricOutcomeSuccess
	switch {
	case fatal:
		outcome = metricOutcomeFatal
	case report.Stats.FailedPOs > 0 && report.Stats.ProcessedPOs == 0:
		outcome = metricOutcomeFailed
	case report.Stats.FailedPOs > 0:
		outcome = metricOutcomePartial
	}
	CounterIngestRuns.WithLabelValues(outcome).Inc()
	CounterIngestItems.Add(float64(report.Stats.TotalItems))
	CounterIngestGroups.WithLabelValues(metricOutcomeProcessed).Add(float64(report.Stats.ProcessedPOs))
	CounterIngestGroups.WithLabelValues(metricOutcomeFailed).Add(float64(report.Stats.FailedPOs))
	HistogramIngestRunDuration.Observe(float64(report.Stats.ProcessingTimeMs) / 1000)
}
