package services

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const metricsShutdownTimeout = 5 * time.Second

// MetricsService serves Prometheus metrics over HTTP.
type MetricsService struct {
	address  string
	path     string
	gatherer prometheus.Gatherer
	logger   zerolog.Logger

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	wg       sync.WaitGroup
}

// NewMetricsService creates a MetricsService. A nil gatherer serves the default registry.
func NewMetricsService(address, path string, gatherer prometheus.Gatherer, logger zerolog.Logger) *MetricsService {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &MetricsService{
		address:  address,
		path:     path,
		gatherer: gatherer,
		logger:   logger,
	}
}

// Start binds the HTTP listener and serves metrics in the background.
func (m *MetricsService) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.server != nil {
		m.logger.Warn().Msg("MetricsService is already running")
		return errors.New("metrics service is already running")
	}

	ln, err := net.Listen("tcp", m.address)
	if err != nil {
		m.logger.Error().Err(err).Str("address", m.address).Msg("Failed to bind metrics listener")
		return err
	}

	mux := http.NewServeMux()
	mux.Handle(m.path, promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
	m.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	m.listener = ln

	server := m.server
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error().Err(err).Msg("Metrics server stopped unexpectedly")
		}
	}()

	m.logger.Info().Str("address", ln.Addr().String()).Str("path", m.path).Msg("MetricsService started")
	return nil
}

// Addr returns the bound address, or nil when stopped.
func (m *MetricsService) Addr() net.Addr {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listener == nil {
		return nil
	}
	return m.listener.Addr()
}

// Stop shuts the HTTP server down gracefully.
func (m *MetricsService) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.server == nil {
		m.logger.Warn().Msg("MetricsService is not running")
		return errors.New("metrics service is not running")
	}

	ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
	defer cancel()
	err := m.server.Shutdown(ctx)
	m.wg.Wait()

	m.server = nil
	m.listener = nil
	if err != nil {
		m.logger.Error().Err(err).Msg("Failed to stop metrics server")
		return err
	}

	m.logger.Info().Msg("MetricsService stopped")
	return nil
}
