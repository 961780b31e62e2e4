package exec

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics of one engine. Each engine owns a registry so tests and multiple
// engines in one process never collide on registration.
type Metrics struct {
	Registry *prometheus.Registry

	Statements  *prometheus.CounterVec
	RowsScanned prometheus.Counter
	JoinPairs   prometheus.Counter
	RunsSpilled prometheus.Counter
	RunsMerged  prometheus.Counter
	Warnings    prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Statements: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chunkdb_statements_total",
				Help: "Statements executed, by kind and status",
			},
			[]string{"kind", "status"},
		),
		RowsScanned: f.NewCounter(prometheus.CounterOpts{
			Name: "chunkdb_rows_scanned_total",
			Help: "Rows read from table cursors",
		}),
		JoinPairs: f.NewCounter(prometheus.CounterOpts{
			Name: "chunkdb_join_pairs_total",
			Help: "Row pairs compared by nested loop joins",
		}),
		RunsSpilled: f.NewCounter(prometheus.CounterOpts{
			Name: "chunkdb_sort_runs_spilled_total",
			Help: "Sorted runs written by external sorts",
		}),
		RunsMerged: f.NewCounter(prometheus.CounterOpts{
			Name: "chunkdb_sort_runs_merged_total",
			Help: "Pairs of runs merged by external sorts",
		}),
		Warnings: f.NewCounter(prometheus.CounterOpts{
			Name: "chunkdb_coercion_warnings_total",
			Help: "Values coerced to 0 during aggregation",
		}),
	}
}

func (self *Metrics) Statement(kind string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	self.Statements.WithLabelValues(kind, status).Inc()
}
