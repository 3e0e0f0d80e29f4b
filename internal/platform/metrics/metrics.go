package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ogurasousui/codex-employee-import/internal/core/employeeimport"
)

const namespace = "employee_import"

// Import は社員インポートワークフローの計測値です。employeeimport.Recorder を満たします。
type Import struct {
	registry     *prometheus.Registry
	batchesTotal prometheus.Counter
	stagedRows   prometheus.Counter
	runsTotal    *prometheus.CounterVec
	rowsTotal    *prometheus.CounterVec
}

// NewImport は専用レジストリに計測値を登録します。
func NewImport() *Import {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Import{
		registry: reg,
		batchesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_staged_total",
			Help:      "Total number of CSV batches written to the staging area.",
		}),
		stagedRows: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "staged_rows_total",
			Help:      "Total number of rows written to staged batches.",
		}),
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total number of import runs by outcome.",
		}, []string{"outcome"}),
		rowsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_total",
			Help:      "Total number of imported rows by result.",
		}, []string{"result"}),
	}
}

func (m *Import) BatchStaged(rows int) {
	m.batchesTotal.Inc()
	m.stagedRows.Add(float64(rows))
}

func (m *Import) ImportRun(outcome employeeimport.Outcome) {
	m.runsTotal.WithLabelValues(string(outcome)).Inc()
}

func (m *Import) RowCommitted() {
	m.rowsTotal.WithLabelValues("committed").Inc()
}

func (m *Import) RowFailed() {
	m.rowsTotal.WithLabelValues("failed").Inc()
}

// Registry は登録先のレジストリを返します。
func (m *Import) Registry() *prometheus.Registry {
	return m.registry
}

// Handler は Prometheus 形式で計測値を公開します。
func (m *Import) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

var _ employeeimport.Recorder = (*Import)(nil)
