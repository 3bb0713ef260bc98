package sinks

import (
	"github.com/benmeehan/gps-receiver/internal/constants"
	"github.com/benmeehan/gps-receiver/internal/models"
	"github.com/rs/zerolog"
)

// LogSink writes events to a zerolog logger.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Publish logs fixes at debug, connectivity changes at info and failures at warn/error.
func (l *LogSink) Publish(event models.Event) {
	switch event.Type {
	case constants.EventFixReceived:
		if event.Fix == nil {
			return
		}
		l.logger.Debug().
			Str("listener", event.Listener).
			Float64("latitude", event.Fix.Latitude).
			Float64("longitude", event.Fix.Longitude).
			Float64("altitude", event.Fix.Altitude).
			Str("format", event.Fix.Format).
			Msg("GPS fix received")
	case constants.EventConnectivityChanged:
		connected := event.Connected != nil && *event.Connected
		l.logger.Info().
			Str("listener", event.Listener).
			Uint16("port", event.Port).
			Bool("connected", connected).
			Msg("GPS source connectivity changed")
	case constants.EventParseError:
		l.logger.Warn().
			Str("listener", event.Listener).
			Uint16("port", event.Port).
			Msg(event.Message)
	case constants.EventBindFailed:
		l.logger.Error().
			Str("listener", event.Listener).
			Uint16("port", event.Port).
			Str("reason", event.Reason).
			Msg("Failed to bind UDP listener")
	}
}
