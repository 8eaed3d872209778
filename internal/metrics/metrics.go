package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every repage collector. A dedicated registry keeps Go
// runtime collectors out of the textfile output.
var Registry = prometheus.NewRegistry()

var (
	pagesRead = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "repage",
			Name:      "pages_read_total",
			Help:      "Input pages read, by result (decoded, skipped)",
		},
		[]string{"result"},
	)

	pagesEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "repage",
			Name:      "pages_emitted_total",
			Help:      "Output pages written, by the reason they were emitted",
		},
		[]string{"reason"},
	)

	foldersProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "repage",
			Name:      "folders_processed_total",
			Help:      "Collection folders handled by batch runs, by result (done, failed, skipped)",
		},
		[]string{"result"},
	)

	runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "repage",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a single input directory run",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)
)

func init() {
	Registry.MustRegister(pagesRead, pagesEmitted, foldersProcessed, runDuration)
}

// WriteTextfile dumps all collectors in the node-exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}

func IncRead(result string)   { pagesRead.WithLabelValues(result).Inc() }
func IncEmitted(reason string) { pagesEmitted.WithLabelValues(reason).Inc() }
func IncFolder(result string) { foldersProcessed.WithLabelValues(result).Inc() }

func ObserveRun(d time.Duration) { runDuration.Observe(d.Seconds()) }
