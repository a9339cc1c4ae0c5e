package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"LCExtract/internal/domain"
	"LCExtract/internal/ports"
)

// PromMetrics exposes pipeline counters to Prometheus: archive queries by
// outcome, normalized observations and rejected records per archive.
type PromMetrics struct {
	queries      *prometheus.CounterVec
	observations *prometheus.CounterVec
	rejections   *prometheus.CounterVec
}

var _ ports.Metrics = (*PromMetrics)(nil)

// NewPromMetrics registers the counters with the given registerer.
func NewPromMetrics(reg prometheus.Registerer) *PromMetrics {
	queries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lcextract_archive_queries_total",
		Help: "Archive client invocations by archive and outcome status.",
	}, []string{"archive", "status"})
	observations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lcextract_observations_normalized_total",
		Help: "Observations successfully normalized per archive.",
	}, []string{"archive"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lcextract_records_rejected_total",
		Help: "Raw records rejected during normalization per archive.",
	}, []string{"archive"})

	reg.MustRegister(queries, observations, rejections)

	return &PromMetrics{
		queries:      queries,
		observations: observations,
		rejections:   rejections,
	}
}

// ArchiveQuery counts one client invocation outcome.
func (p *PromMetrics) ArchiveQuery(archiveName string, status domain.QueryStatus) {
	p.queries.WithLabelValues(archiveName, string(status)).Inc()
}

// ObservationsNormalized counts normalized observations.
func (p *PromMetrics) ObservationsNormalized(archiveName string, count int) {
	p.observations.WithLabelValues(archiveName).Add(float64(count))
}

// RecordsRejected counts rejected raw records.
func (p *PromMetrics) RecordsRejected(archiveName string, count int) {
	p.rejections.WithLabelValues(archiveName).Add(float64(count))
}
