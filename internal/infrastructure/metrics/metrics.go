package metrics

import (
	"time"

	"github.com/itembuilder/backend/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for enrichment runs.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	LookupsTotal    *prometheus.CounterVec
	FallbacksTotal  *prometheus.CounterVec
	ClassifierTotal *prometheus.CounterVec
	RowsTotal       prometheus.Counter
	RunsTotal       *prometheus.CounterVec
	RunDuration     prometheus.Histogram
}

// New registers the collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		LookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "itembuilder_lookups_total",
			Help: "Barcode lookups by result and failure reason.",
		}, []string{"result", "reason"}),
		FallbacksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "itembuilder_supplier_fallbacks_total",
			Help: "Supplier table fallbacks by outcome.",
		}, []string{"outcome"}), // found, missing
		ClassifierTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "itembuilder_classifier_predictions_total",
			Help: "Classifier invocations by outcome.",
		}, []string{"outcome"}), // override, empty, failure
		RowsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "itembuilder_rows_total",
			Help: "Output rows assembled.",
		}),
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "itembuilder_runs_total",
			Help: "Enrichment runs by status.",
		}, []string{"status"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "itembuilder_run_duration_seconds",
			Help:    "Duration of enrichment runs.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}),
	}
}

func (m *Metrics) LookupSucceeded() {
	if m == nil {
		return
	}
	m.LookupsTotal.WithLabelValues("success", "").Inc()
}

func (m *Metrics) LookupFailed(reason domain.LookupFailureReason) {
	if m == nil {
		return
	}
	m.LookupsTotal.WithLabelValues("failure", string(reason)).Inc()
}

func (m *Metrics) SupplierFallback(found bool) {
	if m == nil {
		return
	}
	outcome := "missing"
	if found {
		outcome = "found"
	}
	m.FallbacksTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ClassifierOutcome(outcome string) {
	if m == nil {
		return
	}
	m.ClassifierTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RowAssembled() {
	if m == nil {
		return
	}
	m.RowsTotal.Inc()
}

// RunFinished records a run's status and how long it took
func (m *Metrics) RunFinished(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(elapsed.Seconds())
}
