package service_registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/benmeehan/gps-receiver/internal/registry"
	"github.com/benmeehan/gps-receiver/internal/services"
	"github.com/benmeehan/gps-receiver/internal/sinks"
	"github.com/benmeehan/gps-receiver/internal/utils"
	"github.com/benmeehan/gps-receiver/pkg/location"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// ServiceRegistry manages the lifecycle of the listeners and supporting services.
type ServiceRegistry struct {
	services cmap.ConcurrentMap[string, registry.Service] // Stores registered services
	keysMu   sync.Mutex
	keys     []string // Maintains order of service registration

	decoder  location.Decoder
	sink     sinks.EventSink
	gatherer prometheus.Gatherer
	Logger   zerolog.Logger
}

// NewServiceRegistry initializes a new service registry with dependencies.
func NewServiceRegistry(decoder location.Decoder, sink sinks.EventSink, gatherer prometheus.Gatherer, logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services: cmap.New[registry.Service](),
		decoder:  decoder,
		sink:     sink,
		gatherer: gatherer,
		Logger:   logger,
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(name string, svc registry.Service) {
	if !sr.services.SetIfAbsent(name, svc) {
		sr.Logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.keysMu.Lock()
	sr.keys = append(sr.keys, name)
	sr.keysMu.Unlock()
	sr.Logger.Info().Msgf("Registered service: %s", name)
}

// Service looks up a registered service by name.
func (sr *ServiceRegistry) Service(name string) (registry.Service, bool) {
	return sr.services.Get(name)
}

// Listener looks up a registered listener by name.
func (sr *ServiceRegistry) Listener(name string) (*services.ListenerService, bool) {
	svc, ok := sr.services.Get(listenerKey(name))
	if !ok {
		return nil, false
	}
	l, ok := svc.(*services.ListenerService)
	return l, ok
}

// Names returns the registered service names in registration order.
func (sr *ServiceRegistry) Names() []string {
	sr.keysMu.Lock()
	defer sr.keysMu.Unlock()
	return append([]string(nil), sr.keys...)
}

// StartServices initiates all registered services in order.
// If a service fails to start, it stops already started services.
func (sr *ServiceRegistry) StartServices() error {
	startedServices := []string{}

	for _, name := range sr.Names() {
		svc, _ := sr.services.Get(name)
		sr.Logger.Info().Msgf("Starting service: %s", name)
		if err := svc.Start(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to start service: %s", name)

			// Stop already started services before returning
			sr.Logger.Warn().Msg("Stopping already started services due to startup failure...")
			for i := len(startedServices) - 1; i >= 0; i-- {
				started, _ := sr.services.Get(startedServices[i])
				_ = started.Stop()
			}
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		startedServices = append(startedServices, name)
	}

	return nil
}

// StopServices stops all services in reverse order.
func (sr *ServiceRegistry) StopServices() error {
	var stopErrors []error
	names := sr.Names()
	for i := len(names) - 1; i >= 0; i-- {
		name := names[i]
		svc, _ := sr.services.Get(name)
		if err := svc.Stop(); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("failed to stop %s: %w", name, err))
		}
	}
	if len(stopErrors) > 0 {
		for _, e := range stopErrors {
			sr.Logger.Error().Err(e).Msg("Service stop failure")
		}
		return errors.Join(stopErrors...)
	}
	return nil
}

// RegisterServices initializes and registers the metrics endpoint and every enabled listener.
func (sr *ServiceRegistry) RegisterServices(config *utils.Config) error {
	registered := []string{}

	if config.Metrics.Enabled {
		sr.RegisterService("metrics", services.NewMetricsService(
			config.Metrics.Address,
			config.Metrics.Path,
			sr.gatherer,
			sr.Logger,
		))
		registered = append(registered, "metrics")
	}

	sessionConfig := services.SessionConfig{
		Timeout:       config.Session.Timeout,
		CheckInterval: config.Session.CheckInterval,
	}
	for _, l := range config.EnabledListeners() {
		if l.Port < 0 || l.Port > 65535 {
			return fmt.Errorf("listener %s: invalid port %d", l.Name, l.Port)
		}
		key := listenerKey(l.Name)
		sr.RegisterService(key, services.NewListenerService(
			l.Name,
			uint16(l.Port),
			sessionConfig,
			sr.decoder,
			sr.sink,
			sr.Logger,
		))
		registered = append(registered, key)
	}

	sr.Logger.Info().Msgf("Registered services in order: %v", registered)
	return nil
}

func listenerKey(name string) string {
	return "listener:" + name
}
