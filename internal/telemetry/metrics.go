package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	JobsEnqueued  = prometheus.NewCounter(prometheus.CounterOpts{Name: "dataqueue_jobs_enqueued_total", Help: "Jobs added to the queue"})
	JobsClaimed   = prometheus.NewCounter(prometheus.CounterOpts{Name: "dataqueue_jobs_claimed_total", Help: "Jobs claimed by workers"})
	JobsCompleted = prometheus.NewCounter(prometheus.CounterOpts{Name: "dataqueue_jobs_completed_total", Help: "Jobs completed successfully"})
	JobsFailed    = prometheus.NewCounter(prometheus.CounterOpts{Name: "dataqueue_jobs_failed_total", Help: "Jobs that reported a failure"})
	JobsReclaimed = prometheus.NewCounter(prometheus.CounterOpts{Name: "dataqueue_jobs_reclaimed_total", Help: "Stuck jobs reverted to pending"})
	JobsCleaned   = prometheus.NewCounter(prometheus.CounterOpts{Name: "dataqueue_jobs_cleaned_total", Help: "Old completed jobs deleted by retention cleanup"})
)

// Handler exposes the /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			JobsEnqueued,
			JobsClaimed,
			JobsCompleted,
			JobsFailed,
			JobsReclaimed,
			JobsCleaned,
		)
	})
	return promhttp.Handler()
}
