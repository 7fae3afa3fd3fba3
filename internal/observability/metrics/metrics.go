package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "epias_report_"

	ResultSuccess = "success"
	ResultError   = "error"
	ResultEmpty   = "empty"
)

var (
	registerOnce sync.Once

	fetchTotal   *prometheus.CounterVec
	fetchLatency *prometheus.HistogramVec
	fetchRows    *prometheus.CounterVec

	reportGenerateTotal   *prometheus.CounterVec
	reportGenerateLatency *prometheus.HistogramVec
	reportExportTotal     *prometheus.CounterVec

	indicatorFailures *prometheus.CounterVec
)

// Init registers report metrics on the default registry.
func Init() {
	registerOnce.Do(func() {
		fetchTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "fetch_total",
				Help: "Total category requests by category and result",
			},
			[]string{"category", "result"},
		)
		fetchLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "fetch_latency_seconds",
				Help:    "Category request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"category"},
		)
		fetchRows = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "fetch_rows_total",
				Help: "Total records received by category",
			},
			[]string{"category"},
		)
		reportGenerateTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "generate_total",
				Help: "Total report runs by result",
			},
			[]string{"result"},
		)
		reportGenerateLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "generate_latency_seconds",
				Help:    "Report run latency in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"result"},
		)
		reportExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total report exports by format and result",
			},
			[]string{"format", "result"},
		)
		indicatorFailures = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "indicator_failures_total",
				Help: "Indicators that fell back to zero after a reduction error",
			},
			[]string{"indicator"},
		)

		prometheus.MustRegister(
			fetchTotal,
			fetchLatency,
			fetchRows,
			reportGenerateTotal,
			reportGenerateLatency,
			reportExportTotal,
			indicatorFailures,
		)
	})
}

// ObserveFetch records a category request outcome.
func ObserveFetch(category, result string, rows int, duration time.Duration) {
	if category == "" {
		category = "unknown"
	}
	if result == "" {
		result = ResultSuccess
	}
	if fetchTotal != nil {
		fetchTotal.WithLabelValues(category, result).Inc()
	}
	if fetchLatency != nil {
		fetchLatency.WithLabelValues(category).Observe(duration.Seconds())
	}
	if fetchRows != nil && rows > 0 {
		fetchRows.WithLabelValues(category).Add(float64(rows))
	}
}

// ObserveReportGenerate records a report run outcome.
func ObserveReportGenerate(result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if reportGenerateTotal != nil {
		reportGenerateTotal.WithLabelValues(result).Inc()
	}
	if reportGenerateLatency != nil {
		reportGenerateLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncReportExport increments the export counter.
func IncReportExport(format, result string) {
	if format == "" {
		format = "xlsx"
	}
	if result == "" {
		result = ResultSuccess
	}
	if reportExportTotal != nil {
		reportExportTotal.WithLabelValues(format, result).Inc()
	}
}

// IncIndicatorFailure counts an indicator that defaulted to zero.
func IncIndicatorFailure(indicator string) {
	if indicator == "" {
		indicator = "unknown"
	}
	if indicatorFailures != nil {
		indicatorFailures.WithLabelValues(indicator).Inc()
	}
}
