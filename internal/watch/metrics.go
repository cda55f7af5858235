package watch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for directory sync.
//
// Metrics:
//   - framebox_sync_files_uploaded_total - files sent to the backend
//   - framebox_sync_batches_total{result} - upload batches by "success" or "failure"
//   - framebox_sync_watch_errors_total - errors reported by the file watcher
//   - framebox_sync_pending_files - changed files waiting for the quiet period
type Metrics struct {
	FilesUploaded prometheus.Counter
	Batches       *prometheus.CounterVec
	WatchErrors   prometheus.Counter
	Pending       prometheus.Gauge
}

// NewMetrics creates sync metrics registered with reg. A nil reg leaves
// them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FilesUploaded: factory.NewCounter(prometheus.CounterOpts{
			Name: "framebox_sync_files_uploaded_total",
			Help: "Total number of files uploaded by directory sync",
		}),
		Batches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "framebox_sync_batches_total",
			Help: "Total number of upload batches by result",
		}, []string{"result"}),
		WatchErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "framebox_sync_watch_errors_total",
			Help: "Total number of file watcher errors",
		}),
		Pending: factory.NewGauge(prometheus.GaugeOpts{
			Name: "framebox_sync_pending_files",
			Help: "Changed files waiting to be uploaded",
		}),
	}
}
