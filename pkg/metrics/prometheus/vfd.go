// Package prometheus provides the Prometheus implementations of
// strata's metrics interfaces.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/strata/pkg/metrics"
	"github.com/marmos91/strata/pkg/vfd"
)

// vfdMetrics is the Prometheus implementation of vfd.Metrics.
type vfdMetrics struct {
	opsTotal         *prometheus.CounterVec
	opDuration       *prometheus.HistogramVec
	bytesTransferred *prometheus.CounterVec
}

// NewVFDMetrics creates a Prometheus-backed vfd.Metrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called);
// passing the nil result to vfd.FileConfig disables instrumentation
// with zero overhead.
func NewVFDMetrics() vfd.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &vfdMetrics{
		opsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "strata_vfd_operations_total",
				Help: "Total number of dispatch operations by operation, driver, and status",
			},
			[]string{"operation", "driver", "status"},
		),
		opDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "strata_vfd_operation_duration_milliseconds",
				Help: "Duration of dispatch operations in milliseconds",
				Buckets: []float64{
					0.01, // in-memory drivers
					0.1,
					1,  // local file I/O
					10, // slow disks, kv transactions
					100,
					1000, // network-backed drivers
					10000,
				},
			},
			[]string{"operation", "driver"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "strata_vfd_bytes_transferred_total",
				Help: "Total bytes moved through the dispatch layer",
			},
			[]string{"operation", "driver"},
		),
	}
}

func (m *vfdMetrics) ObserveOp(op, driver string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.opsTotal.WithLabelValues(op, driver, status).Inc()
	m.opDuration.WithLabelValues(op, driver).Observe(float64(duration.Microseconds()) / 1000.0)
}

func (m *vfdMetrics) RecordBytes(op, driver string, n int64) {
	m.bytesTransferred.WithLabelValues(op, driver).Add(float64(n))
}
