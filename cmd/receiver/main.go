package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benmeehan/gps-receiver/internal/service_registry"
	"github.com/benmeehan/gps-receiver/internal/sinks"
	"github.com/benmeehan/gps-receiver/internal/utils"
	"github.com/benmeehan/gps-receiver/pkg/file"
	"github.com/benmeehan/gps-receiver/pkg/location"
	"github.com/benmeehan/gps-receiver/pkg/mqtt"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// Set up structured logging with JSON output
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Initialize file operations handler
	fileClient := file.NewFileService()

	// Load configuration from file
	config, err := utils.LoadConfig(*configPath, fileClient)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load configuration")
	}

	level, err := zerolog.ParseLevel(config.Log.Level)
	if err != nil {
		logger.Fatal().Err(err).Str("level", config.Log.Level).Msg("Invalid log level")
	}
	logger = logger.Level(level)

	// Event fan-out: logs and metrics always, MQTT when enabled
	reg := prometheus.NewRegistry()
	metricsSink, err := sinks.NewMetricsSink(reg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to register metrics")
	}
	eventSinks := sinks.MultiSink{sinks.NewLogSink(logger), metricsSink}

	var mqttClient *mqtt.MqttService
	if config.MQTT.Enabled {
		// Generate a unique MQTT Client ID by appending a UUID
		clientID := config.MQTT.ClientID + "-" + uuid.New().String()
		logger.Info().Str("client_id", clientID).Msg("Using MQTT Client ID")

		mqttClient = mqtt.NewMqttService(fileClient)
		err = mqttClient.Initialize(mqtt.Options{
			Broker:             config.MQTT.Broker,
			ClientID:           clientID,
			CACertificate:      config.MQTT.CACertificate,
			InsecureSkipVerify: config.MQTT.InsecureSkipVerify,
			ConnectTimeout:     10 * time.Second,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize MQTT connection")
		}
		eventSinks = append(eventSinks, sinks.NewMQTTSink(
			mqttClient,
			config.MQTT.TopicPrefix,
			config.MQTT.QOS,
			config.MQTT.PublishTimeout,
			logger,
		))
	}

	// Create a new service registry to manage services
	serviceRegistry := service_registry.NewServiceRegistry(location.NewFormatDecoder(), eventSinks, reg, logger)

	// Register all services based on the configuration
	if err := serviceRegistry.RegisterServices(config); err != nil {
		logger.Fatal().Err(err).Msg("Failed to register services")
	}

	// Start all registered services in the registry
	if err := serviceRegistry.StartServices(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start services")
	}
	logger.Info().Msg("All services started successfully")

	// Handle graceful shutdown
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	logger.Info().Msg("Shutting down gracefully...")
	if err := serviceRegistry.StopServices(); err != nil {
		logger.Error().Err(err).Msg("Some services failed to stop")
	}
	if mqttClient != nil {
		mqttClient.Disconnect(250)
	}
}
