package bulk

import "github.com/prometheus/client_golang/prometheus"

var (
	tasksQueued = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pcontainers_bulk_tasks_queued",
			Help: "Number of bulk container operations waiting for a worker",
		},
	)

	tasksInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pcontainers_bulk_tasks_in_flight",
			Help: "Number of bulk container operations currently executing",
		},
	)

	tasksCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pcontainers_bulk_tasks_completed_total",
			Help: "Total number of bulk container operations completed, by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(tasksQueued)
	prometheus.MustRegister(tasksInFlight)
	prometheus.MustRegister(tasksCompletedTotal)
}
