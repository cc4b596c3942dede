package vfd

import "time"

// Metrics is the observability hook for dispatch operations. A nil
// Metrics on a File disables instrumentation entirely; the Prometheus
// implementation lives in pkg/metrics/prometheus.
type Metrics interface {
	// ObserveOp records one dispatch operation with its duration and
	// outcome.
	ObserveOp(op, driver string, duration time.Duration, err error)

	// RecordBytes records bytes moved by a read or write.
	RecordBytes(op, driver string, n int64)
}

// observeOp records op on f's metrics when instrumentation is enabled.
func (f *File) observeOp(op string, start time.Time, n int, err error) {
	if f.metrics == nil {
		return
	}
	f.metrics.ObserveOp(op, f.driver.Name(), time.Since(start), err)
	if err == nil && n > 0 {
		f.metrics.RecordBytes(op, f.driver.Name(), int64(n))
	}
}
