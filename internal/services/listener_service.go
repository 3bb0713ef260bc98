package services

import (
	"errors"

	"github.com/benmeehan/gps-receiver/internal/sinks"
	"github.com/benmeehan/gps-receiver/pkg/location"
	"github.com/rs/zerolog"
)

// ListenerService runs an IngestionSession on a fixed, configured port.
type ListenerService struct {
	name    string
	port    uint16
	session *IngestionSession
	logger  zerolog.Logger
}

// NewListenerService creates a ListenerService with its own session.
func NewListenerService(name string, port uint16, cfg SessionConfig, decoder location.Decoder,
	sink sinks.EventSink, logger zerolog.Logger) *ListenerService {
	cfg.Listener = name
	return &ListenerService{
		name:    name,
		port:    port,
		session: NewIngestionSession(cfg, decoder, sink, logger),
		logger:  logger,
	}
}

// Start binds the configured port.
func (l *ListenerService) Start() error {
	if l.session.IsListening() {
		l.logger.Warn().Str("listener", l.name).Msg("ListenerService is already running")
		return errors.New("listener service is already running")
	}

	if err := l.session.Start(l.port); err != nil {
		return err
	}

	l.logger.Info().Str("listener", l.name).Uint16("port", l.port).Msg("ListenerService started")
	return nil
}

// Stop releases the port.
func (l *ListenerService) Stop() error {
	if !l.session.IsListening() {
		l.logger.Warn().Str("listener", l.name).Msg("ListenerService is not running")
		return errors.New("listener service is not running")
	}

	l.session.Stop()
	l.logger.Info().Str("listener", l.name).Msg("ListenerService stopped")
	return nil
}

// Session exposes the underlying ingestion session.
func (l *ListenerService) Session() *IngestionSession {
	return l.session
}
