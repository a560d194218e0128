package orchestrator

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "token_manager"

type metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	retries    *prometheus.CounterVec
}

func newMetrics(registerer prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "operations_total",
			Help:      "Orchestrated operations by outcome.",
		}, []string{"operation", "status", "kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "operation_duration_seconds",
			Help:      "Wall time of orchestrated operations.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"operation"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "step_retries_total",
			Help:      "Retried step attempts.",
		}, []string{"step"}),
	}
	if registerer == nil {
		return m, nil
	}

	var err error
	if m.operations, err = registerOrReuse(registerer, m.operations); err != nil {
		return nil, err
	}
	if m.duration, err = registerOrReuse(registerer, m.duration); err != nil {
		return nil, err
	}
	if m.retries, err = registerOrReuse(registerer, m.retries); err != nil {
		return nil, err
	}
	return m, nil
}

func registerOrReuse[T prometheus.Collector](registerer prometheus.Registerer, collector T) (T, error) {
	if err := registerer.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return collector, err
	}
	return collector, nil
}

func (m *metrics) observe(operation string, status string, kind Kind, elapsed time.Duration) {
	m.operations.WithLabelValues(operation, status, string(kind)).Inc()
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *metrics) retried(step string) {
	m.retries.WithLabelValues(step).Inc()
}
