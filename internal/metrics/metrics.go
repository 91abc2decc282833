package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry     *prometheus.Registry
	Copies       *prometheus.CounterVec
	CopyFailures *prometheus.CounterVec
	ImportedRows prometheus.Counter
	SkippedRows  prometheus.Counter
	Mutations    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Copies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opsboard",
			Name:      "message_copies_total",
			Help:      "Status messages copied to the clipboard, by trigger.",
		}, []string{"trigger"}),
		CopyFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opsboard",
			Name:      "message_copy_failures_total",
			Help:      "Failed copy attempts, by reason.",
		}, []string{"reason"}),
		ImportedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "opsboard",
			Name:      "import_rows_imported_total",
			Help:      "CSV rows imported as operations.",
		}),
		SkippedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "opsboard",
			Name:      "import_rows_skipped_total",
			Help:      "CSV rows skipped for lack of a usable send date.",
		}),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "opsboard",
			Name:      "operation_mutations_total",
			Help:      "Operation mutations, by action.",
		}, []string{"action"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Copies, m.CopyFailures, m.ImportedRows, m.SkippedRows, m.Mutations,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) CopyDone(trigger string) {
	if m == nil {
		return
	}
	m.Copies.WithLabelValues(trigger).Inc()
}

func (m *Metrics) CopyFailed(reason string) {
	if m == nil {
		return
	}
	m.CopyFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) Imported(imported, skipped int) {
	if m == nil {
		return
	}
	m.ImportedRows.Add(float64(imported))
	m.SkippedRows.Add(float64(skipped))
}

func (m *Metrics) Mutation(action string) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(action).Inc()
}
