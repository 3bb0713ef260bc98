package sinks

import (
	"errors"
	"fmt"

	"github.com/benmeehan/gps-receiver/internal/constants"
	"github.com/benmeehan/gps-receiver/internal/models"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "gps_receiver"

// MetricsSink exports session events as Prometheus metrics.
type MetricsSink struct {
	Datagrams    *prometheus.CounterVec
	Fixes        *prometheus.CounterVec
	ParseErrors  *prometheus.CounterVec
	BindFailures *prometheus.CounterVec
	Connected    *prometheus.GaugeVec
}

// NewMetricsSink registers the receiver metrics against reg, defaulting to the
// global registry when nil. Registering twice on the same registry reuses the
// existing collectors.
func NewMetricsSink(reg prometheus.Registerer) (*MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	datagrams, err := registerCollector(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "datagrams_total",
		Help:      "Datagrams handled, whether or not they decoded.",
	}, []string{"listener"}))
	if err != nil {
		return nil, err
	}

	fixes, err := registerCollector(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "fixes_total",
		Help:      "Decoded GPS fixes, labeled by wire format.",
	}, []string{"listener", "format"}))
	if err != nil {
		return nil, err
	}

	parseErrors, err := registerCollector(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "parse_errors_total",
		Help:      "Datagrams that matched no supported format.",
	}, []string{"listener"}))
	if err != nil {
		return nil, err
	}

	bindFailures, err := registerCollector(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "bind_failures_total",
		Help:      "Failed attempts to bind a listening socket.",
	}, []string{"listener"}))
	if err != nil {
		return nil, err
	}

	connected, err := registerCollector(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "connected",
		Help:      "1 while the listener has a live GPS source, 0 otherwise.",
	}, []string{"listener"}))
	if err != nil {
		return nil, err
	}

	return &MetricsSink{
		Datagrams:    datagrams,
		Fixes:        fixes,
		ParseErrors:  parseErrors,
		BindFailures: bindFailures,
		Connected:    connected,
	}, nil
}

// Publish updates the metric matching the event type.
func (m *MetricsSink) Publish(event models.Event) {
	switch event.Type {
	case constants.EventFixReceived:
		format := ""
		if event.Fix != nil {
			format = event.Fix.Format
		}
		m.Datagrams.WithLabelValues(event.Listener).Inc()
		m.Fixes.WithLabelValues(event.Listener, format).Inc()
	case constants.EventParseError:
		m.Datagrams.WithLabelValues(event.Listener).Inc()
		m.ParseErrors.WithLabelValues(event.Listener).Inc()
	case constants.EventConnectivityChanged:
		value := 0.0
		if event.Connected != nil && *event.Connected {
			value = 1
		}
		m.Connected.WithLabelValues(event.Listener).Set(value)
	case constants.EventBindFailed:
		m.BindFailures.WithLabelValues(event.Listener).Inc()
	}
}

func registerCollector[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector already registered with incompatible type: %w", err)
		}
		var zero T
		return zero, err
	}
	return c, nil
}
