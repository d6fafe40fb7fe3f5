package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds the report metrics. It is separate from the default
// registry so textfile exports contain only ncwatchdog series.
var Registry = prometheus.NewRegistry()

var (
	// ReportsTotal counts report generations by result
	ReportsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ncwatchdog_reports_total",
			Help: "Total number of report generations",
		},
		[]string{"result"},
	)

	// DeliveriesTotal counts message deliveries per channel
	DeliveriesTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "ncwatchdog_deliveries_total",
			Help: "Total number of report deliveries",
		},
		[]string{"channel", "result"},
	)

	// DiskAvailableBytes tracks available space on monitored mount points
	DiskAvailableBytes = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ncwatchdog_disk_available_bytes",
			Help: "Available bytes on a monitored mount point",
		},
		[]string{"mount_point"},
	)

	// DiskHealthy is 1 when a monitored disk is above its free-space limit
	DiskHealthy = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ncwatchdog_disk_healthy",
			Help: "Whether a monitored disk has more free space than its limit",
		},
		[]string{"mount_point", "state"},
	)

	// LogFileHealthy is 1 when a monitored log file is fresh and error free
	LogFileHealthy = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ncwatchdog_log_file_healthy",
			Help: "Whether a monitored log file is fresh and has no errors",
		},
		[]string{"path", "state"},
	)
)

// ObserveDisk records the evaluation of one monitored disk. A mount point
// that was not found has no available-bytes series.
func ObserveDisk(mountPoint, state string, availableBytes uint64) {
	if state == "not_found" {
		DiskAvailableBytes.DeleteLabelValues(mountPoint)
	} else {
		DiskAvailableBytes.WithLabelValues(mountPoint).Set(float64(availableBytes))
	}
	DiskHealthy.DeletePartialMatch(prometheus.Labels{"mount_point": mountPoint})
	DiskHealthy.WithLabelValues(mountPoint, state).Set(boolGauge(state == "healthy"))
}

// ObserveLogFile records the evaluation of one log file.
func ObserveLogFile(path, state string) {
	LogFileHealthy.DeletePartialMatch(prometheus.Labels{"path": path})
	LogFileHealthy.WithLabelValues(path, state).Set(boolGauge(state == "ok"))
}

// WriteTextfile writes the registry in the text exposition format, for
// node_exporter's textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
