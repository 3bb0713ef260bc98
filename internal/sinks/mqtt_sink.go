package sinks

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/benmeehan/gps-receiver/internal/constants"
	"github.com/benmeehan/gps-receiver/internal/models"
	"github.com/benmeehan/gps-receiver/pkg/mqtt"
	"github.com/rs/zerolog"
)

// MQTTSink publishes events as JSON to <prefix>/<listener>/<event type>.
// Connectivity events are retained so new subscribers learn the current state.
type MQTTSink struct {
	client         mqtt.MQTTClient
	topicPrefix    string
	qos            byte
	publishTimeout time.Duration
	logger         zerolog.Logger
}

// NewMQTTSink creates an MQTTSink on top of a connected client.
func NewMQTTSink(client mqtt.MQTTClient, topicPrefix string, qos int, publishTimeout time.Duration, logger zerolog.Logger) *MQTTSink {
	return &MQTTSink{
		client:         client,
		topicPrefix:    strings.TrimSuffix(topicPrefix, "/"),
		qos:            byte(qos),
		publishTimeout: publishTimeout,
		logger:         logger,
	}
}

// Topic returns the topic an event is published to.
func (m *MQTTSink) Topic(event models.Event) string {
	listener := event.Listener
	if listener == "" {
		listener = "default"
	}
	return m.topicPrefix + "/" + listener + "/" + event.Type
}

// Publish serializes the event and waits up to publishTimeout for the broker to accept it.
func (m *MQTTSink) Publish(event models.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		m.logger.Error().Err(err).Msg("Failed to serialize event")
		return
	}

	topic := m.Topic(event)
	retained := event.Type == constants.EventConnectivityChanged
	token := m.client.Publish(topic, m.qos, retained, payload)
	if !token.WaitTimeout(m.publishTimeout) {
		m.logger.Warn().Str("topic", topic).Dur("timeout", m.publishTimeout).Msg("Timed out publishing event to MQTT")
		return
	}
	if err := token.Error(); err != nil {
		m.logger.Error().Err(err).Str("topic", topic).Msg("Failed to publish event to MQTT")
	}
}
