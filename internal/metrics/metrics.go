// v1
// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	sensorReportsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dogpose_sensor_reports_total",
		Help: "Sensor reports received, by outcome (accepted|rejected).",
	}, []string{"outcome"})

	sensorSyntheticTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dogpose_sensor_synthetic_readings_total",
		Help: "Synthetic readings written by the staleness evaluator.",
	})

	sensorReadingAge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dogpose_sensor_reading_age_seconds",
		Help: "Age of the stored reading at the last evaluator tick.",
	})

	classificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dogpose_classifications_total",
		Help: "Successful classifications by posture label.",
	}, []string{"label"})

	pipelineStageSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dogpose_pipeline_stage_duration_seconds",
		Help:    "Duration of each inference pipeline stage.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"stage"})

	pipelineFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dogpose_pipeline_failures_total",
		Help: "Pipeline failures by reason.",
	}, []string{"reason"})

	httpRequestSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dogpose_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status code.",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"route", "status"})
)

func init() {
	prometheus.MustRegister(
		sensorReportsTotal,
		sensorSyntheticTotal,
		sensorReadingAge,
		classificationsTotal,
		pipelineStageSeconds,
		pipelineFailuresTotal,
		httpRequestSeconds,
	)
}

// IncSensorReport counts one received sensor report by outcome.
func IncSensorReport(accepted bool) {
	outcome := "accepted"
	if !accepted {
		outcome = "rejected"
	}
	sensorReportsTotal.WithLabelValues(outcome).Inc()
}

// IncSyntheticReading counts one synthetic write by the evaluator.
func IncSyntheticReading() {
	sensorSyntheticTotal.Inc()
}

// SetReadingAge records the stored reading's age as observed by the evaluator.
func SetReadingAge(age time.Duration) {
	sensorReadingAge.Set(age.Seconds())
}

// IncClassification counts a successful classification for the given label.
func IncClassification(label string) {
	classificationsTotal.WithLabelValues(label).Inc()
}

// ObservePipelineStage records one stage duration.
func ObservePipelineStage(stage string, d time.Duration) {
	pipelineStageSeconds.WithLabelValues(stage).Observe(d.Seconds())
}

// IncPipelineFailure counts a failed classification attempt by reason.
func IncPipelineFailure(reason string) {
	pipelineFailuresTotal.WithLabelValues(reason).Inc()
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(route string, status int, d time.Duration) {
	httpRequestSeconds.WithLabelValues(route, strconv.Itoa(status)).Observe(d.Seconds())
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
