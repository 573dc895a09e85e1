package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var (
	UploadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rag_client_upload_total",
			Help: "Total number of PDF uploads by outcome",
		},
		[]string{"outcome"},
	)

	UploadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rag_client_upload_duration_seconds",
			Help:    "Time from upload submit to the backend answer",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	UploadBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rag_client_upload_size_bytes",
			Help:    "Size of submitted PDF files",
			Buckets: prometheus.ExponentialBuckets(64*1024, 4, 8),
		},
	)

	QueryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rag_client_query_total",
			Help: "Total number of questions by outcome",
		},
		[]string{"outcome"},
	)

	QueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rag_client_query_duration_seconds",
			Help:    "Time from question submit to the backend answer",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	RejectedSelections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rag_client_rejected_selections_total",
			Help: "File selections rejected because they are not PDF",
		},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rag_client_active_sessions",
			Help: "Client sessions currently kept in memory",
		},
	)
)

var initOnce sync.Once

// Init registers all collectors in the default registry
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(UploadTotal)
		prometheus.MustRegister(UploadDuration)
		prometheus.MustRegister(UploadBytes)
		prometheus.MustRegister(QueryTotal)
		prometheus.MustRegister(QueryDuration)
		prometheus.MustRegister(RejectedSelections)
		prometheus.MustRegister(ActiveSessions)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// Outcome maps an operation error to its label value
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeSuccess
}
